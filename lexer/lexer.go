package lexer

import (
	"fmt"
	"strconv"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Structural
	TokenLParen     TokenType = iota // (
	TokenRParen                      // )
	TokenRBracket                    // ]
	TokenComma                       // ,
	TokenEquals                      // = (named argument)
	TokenColumnOpen                  // $[
	TokenFlowOpen                    // $$[

	// Operators
	TokenPlus        // +
	TokenMinus       // -
	TokenStar        // *
	TokenSlash       // /
	TokenDoubleSlash // //
	TokenDoubleStar  // **
	TokenPercent     // %
	TokenEq          // ==
	TokenNeq         // !=
	TokenLt          // <
	TokenGt          // >
	TokenLte         // <=
	TokenGte         // >=
	TokenFallback    // ??

	// Keywords / logical
	TokenAnd     // and
	TokenOr      // or
	TokenNot     // not
	TokenTrue    // true
	TokenFalse   // false
	TokenMissing // MISSING

	// Literals
	TokenInt    // integer literal
	TokenFloat  // float literal
	TokenString // "string literal" or 'string literal'

	// Identifiers
	TokenIdent       // function, aggregation or constant name
	TokenColumnIdent // $name
	TokenFlowIdent   // $$name

	// End
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenRBracket:    "]",
	TokenComma:       ",",
	TokenEquals:      "=",
	TokenColumnOpen:  "$[",
	TokenFlowOpen:    "$$[",
	TokenPlus:        "+",
	TokenMinus:       "-",
	TokenStar:        "*",
	TokenSlash:       "/",
	TokenDoubleSlash: "//",
	TokenDoubleStar:  "**",
	TokenPercent:     "%",
	TokenEq:          "==",
	TokenNeq:         "!=",
	TokenLt:          "<",
	TokenGt:          ">",
	TokenLte:         "<=",
	TokenGte:         ">=",
	TokenFallback:    "??",
	TokenAnd:         "and",
	TokenOr:          "or",
	TokenNot:         "not",
	TokenTrue:        "true",
	TokenFalse:       "false",
	TokenMissing:     "MISSING",
	TokenInt:         "INT",
	TokenFloat:       "FLOAT",
	TokenString:      "STRING",
	TokenIdent:       "IDENT",
	TokenColumnIdent: "COLUMN",
	TokenFlowIdent:   "FLOW_VARIABLE",
	TokenEOF:         "EOF",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Val  string
	Pos  int // rune offset in original input
	End  int // rune offset just past the token
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Val, t.Pos)
}

var keywords = map[string]TokenType{
	"and":     TokenAnd,
	"or":      TokenOr,
	"not":     TokenNot,
	"true":    TokenTrue,
	"TRUE":    TokenTrue,
	"false":   TokenFalse,
	"FALSE":   TokenFalse,
	"MISSING": TokenMissing,
}

// Error is a lexical error at a rune offset.
type Error struct {
	Msg string
	Pos int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

func errorf(pos int, format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// Lex tokenizes the input string into a slice of Tokens.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	runes := []rune(input)
	i := 0

	emit := func(tt TokenType, val string, n int) {
		tokens = append(tokens, Token{tt, val, i, i + n})
		i += n
	}

	for i < len(runes) {
		ch := runes[i]

		// Skip whitespace
		if unicode.IsSpace(ch) {
			i++
			continue
		}

		// Comments run to the end of the line
		if ch == '#' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			continue
		}

		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch ch {
		case '(':
			emit(TokenLParen, "(", 1)
			continue
		case ')':
			emit(TokenRParen, ")", 1)
			continue
		case ']':
			emit(TokenRBracket, "]", 1)
			continue
		case ',':
			emit(TokenComma, ",", 1)
			continue
		case '+':
			emit(TokenPlus, "+", 1)
			continue
		case '%':
			emit(TokenPercent, "%", 1)
			continue
		case '-':
			// Could be negative number or minus operator
			if (unicode.IsDigit(next) || next == '.') && isNegativeContext(tokens) {
				tok, newI, err := lexNumber(runes, i)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, tok)
				i = newI
				continue
			}
			emit(TokenMinus, "-", 1)
			continue
		case '*':
			if next == '*' {
				emit(TokenDoubleStar, "**", 2)
			} else {
				emit(TokenStar, "*", 1)
			}
			continue
		case '/':
			if next == '/' {
				emit(TokenDoubleSlash, "//", 2)
			} else {
				emit(TokenSlash, "/", 1)
			}
			continue
		case '=':
			if next == '=' {
				emit(TokenEq, "==", 2)
			} else {
				emit(TokenEquals, "=", 1)
			}
			continue
		case '!':
			if next == '=' {
				emit(TokenNeq, "!=", 2)
				continue
			}
			return nil, errorf(i, "unexpected character '!' (did you mean '!='?)")
		case '<':
			if next == '=' {
				emit(TokenLte, "<=", 2)
			} else {
				emit(TokenLt, "<", 1)
			}
			continue
		case '>':
			if next == '=' {
				emit(TokenGte, ">=", 2)
			} else {
				emit(TokenGt, ">", 1)
			}
			continue
		case '?':
			if next == '?' {
				emit(TokenFallback, "??", 2)
				continue
			}
			return nil, errorf(i, "unexpected character '?' (did you mean '??'?)")
		case '$':
			tok, newI, err := lexAccess(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		// String literal
		if ch == '"' || ch == '\'' {
			tok, newI, err := lexString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		// Number
		if unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(next)) {
			tok, newI, err := lexNumber(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		// Identifier or keyword
		if isIdentStart(ch) {
			tok, newI := lexIdent(runes, i)
			tokens = append(tokens, tok)
			i = newI
			continue
		}

		return nil, errorf(i, "unexpected character %q", ch)
	}

	tokens = append(tokens, Token{TokenEOF, "", len(runes), len(runes)})
	return tokens, nil
}

func isNegativeContext(tokens []Token) bool {
	if len(tokens) == 0 {
		return true
	}
	switch tokens[len(tokens)-1].Type {
	case TokenLParen, TokenComma, TokenEquals, TokenColumnOpen, TokenFlowOpen,
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenDoubleSlash, TokenDoubleStar, TokenPercent,
		TokenEq, TokenNeq, TokenLt, TokenGt, TokenLte, TokenGte, TokenFallback,
		TokenAnd, TokenOr, TokenNot:
		return true
	}
	return false
}

// lexAccess handles $[, $$[, $name and $$name.
func lexAccess(runes []rune, start int) (Token, int, error) {
	i := start + 1
	flow := false
	if i < len(runes) && runes[i] == '$' {
		flow = true
		i++
	}
	if i < len(runes) && runes[i] == '[' {
		if flow {
			return Token{TokenFlowOpen, "$$[", start, i + 1}, i + 1, nil
		}
		return Token{TokenColumnOpen, "$[", start, i + 1}, i + 1, nil
	}
	if i < len(runes) && isIdentStart(runes[i]) {
		nameStart := i
		for i < len(runes) && isIdentPart(runes[i]) {
			i++
		}
		name := string(runes[nameStart:i])
		if flow {
			return Token{TokenFlowIdent, name, start, i}, i, nil
		}
		return Token{TokenColumnIdent, name, start, i}, i, nil
	}
	return Token{}, 0, errorf(start, "expected '[' or a name after '$'")
}

func lexString(runes []rune, start int) (Token, int, error) {
	quote := runes[start]
	i := start + 1 // skip opening quote
	var sb []rune
	for i < len(runes) {
		if runes[i] == '\\' && i+1 < len(runes) {
			switch runes[i+1] {
			case '"':
				sb = append(sb, '"')
			case '\'':
				sb = append(sb, '\'')
			case '\\':
				sb = append(sb, '\\')
			case 'b':
				sb = append(sb, '\b')
			case 'f':
				sb = append(sb, '\f')
			case 'n':
				sb = append(sb, '\n')
			case 'r':
				sb = append(sb, '\r')
			case 't':
				sb = append(sb, '\t')
			case 'u':
				if i+6 > len(runes) {
					return Token{}, 0, errorf(i, "invalid unicode escape")
				}
				code, err := strconv.ParseUint(string(runes[i+2:i+6]), 16, 32)
				if err != nil {
					return Token{}, 0, errorf(i, "invalid unicode escape")
				}
				sb = append(sb, rune(code))
				i += 6
				continue
			default:
				sb = append(sb, '\\', runes[i+1])
			}
			i += 2
			continue
		}
		if runes[i] == quote {
			return Token{TokenString, string(sb), start, i + 1}, i + 1, nil
		}
		sb = append(sb, runes[i])
		i++
	}
	return Token{}, 0, errorf(start, "unterminated string")
}

func lexNumber(runes []rune, start int) (Token, int, error) {
	i := start
	isFloat := false

	if i < len(runes) && runes[i] == '-' {
		i++
	}

	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}

	if i < len(runes) && runes[i] == '.' {
		isFloat = true
		i++
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
	}

	if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
		j := i + 1
		if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
			j++
		}
		if j < len(runes) && unicode.IsDigit(runes[j]) {
			isFloat = true
			i = j
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
		}
	}

	if i < len(runes) && isIdentStart(runes[i]) {
		return Token{}, 0, errorf(start, "invalid number %q", string(runes[start:i+1]))
	}

	val := string(runes[start:i])
	if isFloat {
		return Token{TokenFloat, val, start, i}, i, nil
	}
	return Token{TokenInt, val, start, i}, i, nil
}

func lexIdent(runes []rune, start int) (Token, int) {
	i := start
	for i < len(runes) && isIdentPart(runes[i]) {
		i++
	}
	val := string(runes[start:i])

	if tt, ok := keywords[val]; ok {
		return Token{tt, val, start, i}, i
	}
	return Token{TokenIdent, val, start, i}, i
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
