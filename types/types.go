package types

import "fmt"

// Kind is one of the eleven base types of the expression language.
type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindString
	KindLocalDate
	KindLocalTime
	KindLocalDateTime
	KindZonedDateTime
	KindTimeDuration
	KindDateDuration
	KindMissing
)

var kindNames = map[Kind]string{
	KindBoolean:       "BOOLEAN",
	KindInteger:       "INTEGER",
	KindFloat:         "FLOAT",
	KindString:        "STRING",
	KindLocalDate:     "LOCAL_DATE",
	KindLocalTime:     "LOCAL_TIME",
	KindLocalDateTime: "LOCAL_DATE_TIME",
	KindZonedDateTime: "ZONED_DATE_TIME",
	KindTimeDuration:  "TIME_DURATION",
	KindDateDuration:  "DATE_DURATION",
	KindMissing:       "MISSING",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ValueType is a base type plus an optional flag. Optional types may hold
// MISSING at runtime. The zero value is BOOLEAN.
type ValueType struct {
	kind     Kind
	optional bool
}

var (
	Boolean       = ValueType{kind: KindBoolean}
	Integer       = ValueType{kind: KindInteger}
	Float         = ValueType{kind: KindFloat}
	String        = ValueType{kind: KindString}
	LocalDate     = ValueType{kind: KindLocalDate}
	LocalTime     = ValueType{kind: KindLocalTime}
	LocalDateTime = ValueType{kind: KindLocalDateTime}
	ZonedDateTime = ValueType{kind: KindZonedDateTime}
	TimeDuration  = ValueType{kind: KindTimeDuration}
	DateDuration  = ValueType{kind: KindDateDuration}
	Missing       = ValueType{kind: KindMissing}

	OptBoolean       = Boolean.Optional()
	OptInteger       = Integer.Optional()
	OptFloat         = Float.Optional()
	OptString        = String.Optional()
	OptLocalDate     = LocalDate.Optional()
	OptLocalTime     = LocalTime.Optional()
	OptLocalDateTime = LocalDateTime.Optional()
	OptZonedDateTime = ZonedDateTime.Optional()
	OptTimeDuration  = TimeDuration.Optional()
	OptDateDuration  = DateDuration.Optional()
)

// Of returns the base type of the given kind.
func Of(k Kind) ValueType {
	return ValueType{kind: k}
}

// Kind returns the base kind, ignoring optionality.
func (t ValueType) Kind() Kind {
	return t.kind
}

// IsOptional reports whether values of this type may be MISSING.
func (t ValueType) IsOptional() bool {
	return t.optional
}

// Base strips the optional flag.
func (t ValueType) Base() ValueType {
	return ValueType{kind: t.kind}
}

// Optional adds the optional flag. MISSING has no optional variant.
func (t ValueType) Optional() ValueType {
	if t.kind == KindMissing {
		return t
	}
	return ValueType{kind: t.kind, optional: true}
}

// WithOptional returns the optional variant if opt is set, the base type otherwise.
func (t ValueType) WithOptional(opt bool) ValueType {
	if opt {
		return t.Optional()
	}
	return t.Base()
}

// IsMissing reports whether t is exactly the MISSING type.
func (t ValueType) IsMissing() bool {
	return t.kind == KindMissing
}

// Name returns the display name, e.g. "INTEGER" or "INTEGER | MISSING".
func (t ValueType) Name() string {
	if t.optional {
		return t.kind.String() + " | MISSING"
	}
	return t.kind.String()
}

func (t ValueType) String() string {
	return t.Name()
}

// IsNumeric reports whether the base type is INTEGER or FLOAT.
func IsNumeric(t ValueType) bool {
	return t.kind == KindInteger || t.kind == KindFloat
}

// IsAmount reports whether the base type is TIME_DURATION or DATE_DURATION.
func IsAmount(t ValueType) bool {
	return t.kind == KindTimeDuration || t.kind == KindDateDuration
}

// HasDatePart reports whether the base type carries a calendar date.
func HasDatePart(t ValueType) bool {
	return t.kind == KindLocalDate || t.kind == KindLocalDateTime || t.kind == KindZonedDateTime
}

// HasTimePart reports whether the base type carries a wall clock time.
func HasTimePart(t ValueType) bool {
	return t.kind == KindLocalTime || t.kind == KindLocalDateTime || t.kind == KindZonedDateTime
}

// IsOrderedTemporal reports whether values of the base type have a natural order.
func IsOrderedTemporal(t ValueType) bool {
	switch t.kind {
	case KindLocalTime, KindLocalDate, KindLocalDateTime, KindZonedDateTime, KindTimeDuration:
		return true
	}
	return false
}

// Parse maps a base type name (as printed by Name) back to its ValueType.
func Parse(name string) (ValueType, error) {
	for k, n := range kindNames {
		if n == name {
			return Of(k), nil
		}
		if n+" | MISSING" == name && k != KindMissing {
			return Of(k).Optional(), nil
		}
	}
	return ValueType{}, fmt.Errorf("unknown value type %q", name)
}
