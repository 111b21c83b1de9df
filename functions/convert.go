package functions

import (
	"fmt"
	"strings"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/types"
	"github.com/spf13/cast"
)

func conversionFunctions() []ast.Function {
	return []ast.Function{
		parseFunction("parse_int", "Parses a decimal INTEGER. Unparsable text gives MISSING.",
			types.Integer, "an integer", parseDecimal),
		parseFunction("parse_float", "Parses a FLOAT. Unparsable text gives MISSING.",
			types.Float, "a number", func(s string) (float64, error) {
				return cast.ToFloat64E(s)
			}),
	}
}

// parseDecimal accepts an optional sign followed by decimal digits. Leading
// zeros do not change the base.
func parseDecimal(s string) (int64, error) {
	sign, digits := "", s
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		sign, digits = digits[:1], digits[1:]
	}
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("%q is not a decimal integer", s)
	}
	if digits = strings.TrimLeft(digits, "0"); digits == "" {
		return 0, nil
	}
	if sign == "+" {
		sign = ""
	}
	return cast.ToInt64E(sign + digits)
}
