package functions

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/computer"
	"github.com/razeghi71/dqexpr/types"
)

func stringFunctions() []ast.Function {
	return []ast.Function{
		stringMapping("lower_case", "The string in lower case.", strings.ToLower),
		stringMapping("upper_case", "The string in upper case.", strings.ToUpper),
		stringMapping("strip", "The string without leading and trailing white space.", strings.TrimSpace),
		New("length", "Number of characters in the string.",
			fixed(types.Integer, str("s")),
			apply1(func(_ computer.EvaluationContext, s string) (int64, error) {
				return int64(utf8.RuneCountInString(s)), nil
			})),
		stringPredicate("contains", "Whether s contains the search string.", strings.Contains),
		stringPredicate("starts_with", "Whether s starts with the prefix.", strings.HasPrefix),
		stringPredicate("ends_with", "Whether s ends with the suffix.", strings.HasSuffix),
		New("substr", "The characters of s from start (counting from 0) with at most length characters.",
			fixed(types.String, str("s"), integer("start"), integer("length")),
			apply3(func(_ computer.EvaluationContext, s string, start, length int64) (string, error) {
				return substring(s, start, length), nil
			})),
		New("replace", "s with every occurrence of old replaced by new.",
			fixed(types.String, str("s"), str("old"), str("new")),
			apply3(func(_ computer.EvaluationContext, s, old, replacement string) (string, error) {
				return strings.ReplaceAll(s, old, replacement), nil
			})),
		New("to_string", "Text of any value. MISSING gives \"MISSING\".",
			func(args []types.ValueType) (types.ValueType, error) {
				if len(args) != 1 {
					return types.ValueType{}, fmt.Errorf("expected 1 argument, got %d", len(args))
				}
				return types.String, nil
			},
			func(args []computer.Computer) (computer.Computer, error) {
				arg := args[0]
				return computer.Of(func(ctx computer.EvaluationContext) (string, error) {
					return computer.StringRepresentation(ctx, arg)
				}, computer.Never), nil
			}),
	}
}

func stringMapping(name, description string, f func(string) string) ast.Function {
	return New(name, description,
		fixed(types.String, str("s")),
		apply1(func(_ computer.EvaluationContext, s string) (string, error) {
			return f(s), nil
		}))
}

func stringPredicate(name, description string, f func(s, search string) bool) ast.Function {
	return New(name, description,
		fixed(types.Boolean, str("s"), str("search")),
		apply2(func(_ computer.EvaluationContext, s, search string) (bool, error) {
			return f(s, search), nil
		}))
}

func substring(s string, start, length int64) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if start >= int64(len(runes)) || length <= 0 {
		return ""
	}
	end := int64(len(runes))
	if length < end-start {
		end = start + length
	}
	return string(runes[start:end])
}
