package lexer

import (
	"testing"
)

func expectTypes(t *testing.T, input string, expected []TokenType) []Token {
	t.Helper()
	tokens, err := Lex(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s (%q)", i, tt, tokens[i].Type, tokens[i].Val)
		}
	}
	return tokens
}

func TestLexBasic(t *testing.T) {
	expectTypes(t, `sin($["col"]) + $$["flowvar"] - $["col", -1]`, []TokenType{
		TokenIdent, TokenLParen, TokenColumnOpen, TokenString, TokenRBracket, TokenRParen,
		TokenPlus, TokenFlowOpen, TokenString, TokenRBracket,
		TokenMinus, TokenColumnOpen, TokenString, TokenComma, TokenInt, TokenRBracket,
		TokenEOF,
	})
}

func TestLexOperators(t *testing.T) {
	expectTypes(t, `a // b ** c % d ?? e / f * g`, []TokenType{
		TokenIdent, TokenDoubleSlash, TokenIdent, TokenDoubleStar, TokenIdent, TokenPercent,
		TokenIdent, TokenFallback, TokenIdent, TokenSlash, TokenIdent, TokenStar, TokenIdent, TokenEOF,
	})
	expectTypes(t, `== != < <= > >= and or not`, []TokenType{
		TokenEq, TokenNeq, TokenLt, TokenLte, TokenGt, TokenGte, TokenAnd, TokenOr, TokenNot, TokenEOF,
	})
}

func TestLexShorthandAccess(t *testing.T) {
	tokens := expectTypes(t, `$age + $$limit`, []TokenType{TokenColumnIdent, TokenPlus, TokenFlowIdent, TokenEOF})
	if tokens[0].Val != "age" {
		t.Errorf("expected column name 'age', got %q", tokens[0].Val)
	}
	if tokens[2].Val != "limit" {
		t.Errorf("expected flow variable name 'limit', got %q", tokens[2].Val)
	}
}

func TestLexKeywords(t *testing.T) {
	expectTypes(t, `true TRUE false MISSING`, []TokenType{TokenTrue, TokenTrue, TokenFalse, TokenMissing, TokenEOF})
}

func TestLexStrings(t *testing.T) {
	tokens, err := Lex(`"a\"b" 'it\'s' "tab\there\n" "é"`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{`a"b`, `it's`, "tab\there\n", "é"}
	for i, w := range want {
		if tokens[i].Type != TokenString {
			t.Errorf("token %d: expected STRING, got %s", i, tokens[i].Type)
		}
		if tokens[i].Val != w {
			t.Errorf("token %d: expected %q, got %q", i, w, tokens[i].Val)
		}
	}
}

func TestLexFloats(t *testing.T) {
	for _, in := range []string{"3.14", "1e10", "2.5E-3", ".5", "1e+21"} {
		tokens, err := Lex(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if tokens[0].Type != TokenFloat {
			t.Errorf("%s: expected FLOAT, got %s", in, tokens[0].Type)
		}
		if tokens[0].Val != in {
			t.Errorf("expected %q, got %q", in, tokens[0].Val)
		}
	}
}

func TestLexNegativeNumber(t *testing.T) {
	tokens := expectTypes(t, "$a > -5", []TokenType{TokenColumnIdent, TokenGt, TokenInt, TokenEOF})
	if tokens[2].Val != "-5" {
		t.Errorf("expected '-5', got %q", tokens[2].Val)
	}
}

func TestLexMinusAfterOperand(t *testing.T) {
	// After an operand, '-' is always the binary operator
	expectTypes(t, "3 -5", []TokenType{TokenInt, TokenMinus, TokenInt, TokenEOF})
	expectTypes(t, "(- 5)", []TokenType{TokenLParen, TokenMinus, TokenInt, TokenRParen, TokenEOF})
}

func TestLexComment(t *testing.T) {
	expectTypes(t, "1 + # the rest is ignored\n2", []TokenType{TokenInt, TokenPlus, TokenInt, TokenEOF})
}

func TestLexPositions(t *testing.T) {
	tokens, err := Lex(`ab + "é"`)
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Pos != 0 || tokens[0].End != 2 {
		t.Errorf("ident: expected [0,2), got [%d,%d)", tokens[0].Pos, tokens[0].End)
	}
	if tokens[2].Pos != 5 || tokens[2].End != 8 {
		t.Errorf("string: expected [5,8), got [%d,%d)", tokens[2].Pos, tokens[2].End)
	}
}

func TestLexErrors(t *testing.T) {
	for _, in := range []string{`"unterminated`, `a ! b`, `a ? b`, `$`, `3abc`, `@`} {
		if _, err := Lex(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
