package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionality(t *testing.T) {
	assert.False(t, Integer.IsOptional())
	assert.True(t, OptInteger.IsOptional())
	assert.Equal(t, Integer, OptInteger.Base())
	assert.Equal(t, OptInteger, Integer.Optional())
	assert.Equal(t, OptInteger, OptInteger.Optional())
	assert.NotEqual(t, Integer, OptInteger)

	// MISSING is never optional
	assert.Equal(t, Missing, Missing.Optional())
	assert.False(t, Missing.Optional().IsOptional())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "INTEGER", Integer.Name())
	assert.Equal(t, "STRING | MISSING", OptString.Name())
	assert.Equal(t, "ZONED_DATE_TIME", ZonedDateTime.Name())
	assert.Equal(t, "MISSING", Missing.Name())
}

func TestParseRoundTrip(t *testing.T) {
	all := []ValueType{
		Boolean, Integer, Float, String, LocalDate, LocalTime, LocalDateTime,
		ZonedDateTime, TimeDuration, DateDuration, Missing,
		OptBoolean, OptFloat, OptDateDuration,
	}
	for _, vt := range all {
		got, err := Parse(vt.Name())
		require.NoError(t, err, vt.Name())
		assert.Equal(t, vt, got)
	}
	_, err := Parse("NUMBER")
	assert.Error(t, err)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNumeric(OptFloat))
	assert.False(t, IsNumeric(String))
	assert.True(t, IsAmount(OptTimeDuration))
	assert.True(t, HasDatePart(ZonedDateTime))
	assert.False(t, HasDatePart(LocalTime))
	assert.True(t, HasTimePart(LocalDateTime))
	assert.False(t, HasTimePart(LocalDate))
	assert.True(t, IsOrderedTemporal(TimeDuration))
	assert.False(t, IsOrderedTemporal(DateDuration))
}
