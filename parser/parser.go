package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/razeghi71/dqexpr/ast"
	"github.com/razeghi71/dqexpr/lexer"
)

// SyntaxError is returned for text that does not form a valid expression.
type SyntaxError struct {
	Msg string
	Pos int
	End int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Location returns the source range of the error.
func (e *SyntaxError) Location() ast.TextRange {
	return ast.TextRange{Start: e.Pos, End: e.End}
}

// Parser converts a token stream into an AST.
type Parser struct {
	tokens       []lexer.Token
	pos          int
	functions    ast.FunctionLookup
	aggregations ast.AggregationLookup
}

// Option configures a Parser.
type Option func(*Parser)

// WithFunctions sets the registry used to resolve function calls.
func WithFunctions(l ast.FunctionLookup) Option {
	return func(p *Parser) { p.functions = l }
}

// WithAggregations sets the registry used to resolve aggregation calls.
func WithAggregations(l ast.AggregationLookup) Option {
	return func(p *Parser) { p.aggregations = l }
}

// Parse parses an expression. Every node carries its source range.
func Parse(input string, opts ...Option) (ast.Node, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			return nil, &SyntaxError{Msg: lexErr.Msg, Pos: lexErr.Pos, End: lexErr.Pos + 1}
		}
		return nil, fmt.Errorf("lex error: %w", err)
	}
	p := &Parser{tokens: tokens, pos: 0}
	for _, o := range opts {
		o(p)
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != lexer.TokenEOF {
		return nil, p.errorAt(tok, "unexpected token %s (%q)", tok.Type, tok.Val)
	}
	return expr, nil
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	if p.pos+offset >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.errorAt(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Val)
	}
	return tok, nil
}

func (p *Parser) errorAt(tok lexer.Token, format string, args ...any) error {
	end := tok.End
	if end <= tok.Pos {
		end = tok.Pos + 1
	}
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Pos: tok.Pos, End: end}
}

func start(n ast.Node) int {
	if loc := n.Annotations().Location; loc != nil {
		return loc.Start
	}
	return 0
}

func end(n ast.Node) int {
	if loc := n.Annotations().Location; loc != nil {
		return loc.End
	}
	return 0
}

// --- Expression parsing (precedence climbing) ---

// Precedence levels
const (
	precOr       = 1
	precAnd      = 2
	precComp     = 3
	precFallback = 4
	precAdd      = 5
	precMul      = 6
)

func (p *Parser) parseExpr() (ast.Node, error) {
	return p.parseExprPrec(precOr)
}

func (p *Parser) parseExprPrec(minPrec int) (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, prec, ok := p.peekBinaryOp()
		if !ok || prec < minPrec {
			break
		}
		p.advance() // consume the operator token

		right, err := p.parseExprPrec(prec + 1) // left-associative
		if err != nil {
			return nil, err
		}
		left = ast.At(&ast.BinaryOp{Op: op, Left: left, Right: right}, start(left), end(right))
	}

	return left, nil
}

func (p *Parser) peekBinaryOp() (ast.BinaryOperator, int, bool) {
	switch p.peek().Type {
	case lexer.TokenOr:
		return ast.ConditionalOr, precOr, true
	case lexer.TokenAnd:
		return ast.ConditionalAnd, precAnd, true
	case lexer.TokenEq:
		return ast.EqualTo, precComp, true
	case lexer.TokenNeq:
		return ast.NotEqualTo, precComp, true
	case lexer.TokenLt:
		return ast.LessThan, precComp, true
	case lexer.TokenGt:
		return ast.GreaterThan, precComp, true
	case lexer.TokenLte:
		return ast.LessThanEqual, precComp, true
	case lexer.TokenGte:
		return ast.GreaterThanEqual, precComp, true
	case lexer.TokenFallback:
		return ast.MissingFallback, precFallback, true
	case lexer.TokenPlus:
		return ast.Plus, precAdd, true
	case lexer.TokenMinus:
		return ast.Minus, precAdd, true
	case lexer.TokenStar:
		return ast.Multiply, precMul, true
	case lexer.TokenSlash:
		return ast.Divide, precMul, true
	case lexer.TokenDoubleSlash:
		return ast.FloorDivide, precMul, true
	case lexer.TokenPercent:
		return ast.Remainder, precMul, true
	}
	return 0, 0, false
}

func (p *Parser) parseUnary() (ast.Node, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNot:
		p.advance()
		// not binds looser than comparisons: not a == b is not (a == b)
		operand, err := p.parseExprPrec(precComp)
		if err != nil {
			return nil, err
		}
		return ast.At(&ast.UnaryOp{Op: ast.Not, Arg: operand}, tok.Pos, end(operand)), nil
	case lexer.TokenMinus:
		p.advance()
		if next := p.peek(); next.Type == lexer.TokenIdent && next.Val == "INFINITY" &&
			p.peekAt(1).Type != lexer.TokenLParen {
			p.advance()
			return ast.At(&ast.FloatConstant{Value: math.Inf(-1)}, tok.Pos, next.End), nil
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.At(&ast.UnaryOp{Op: ast.Negate, Arg: operand}, tok.Pos, end(operand)), nil
	}
	return p.parsePower()
}

// parsePower parses a ** b, which is right-associative and binds tighter
// than unary minus on its left.
func (p *Parser) parsePower() (ast.Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.TokenDoubleStar {
		return base, nil
	}
	p.advance()
	exponent, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return ast.At(&ast.BinaryOp{Op: ast.Exponential, Left: base, Right: exponent}, start(base), end(exponent)), nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid integer %q", tok.Val)
		}
		return ast.At(&ast.IntegerConstant{Value: v}, tok.Pos, tok.End), nil

	case lexer.TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid float %q", tok.Val)
		}
		return ast.At(&ast.FloatConstant{Value: v}, tok.Pos, tok.End), nil

	case lexer.TokenString:
		p.advance()
		return ast.At(&ast.StringConstant{Value: tok.Val}, tok.Pos, tok.End), nil

	case lexer.TokenTrue:
		p.advance()
		return ast.At(&ast.BooleanConstant{Value: true}, tok.Pos, tok.End), nil

	case lexer.TokenFalse:
		p.advance()
		return ast.At(&ast.BooleanConstant{Value: false}, tok.Pos, tok.End), nil

	case lexer.TokenMissing:
		p.advance()
		return ast.At(&ast.MissingConstant{}, tok.Pos, tok.End), nil

	case lexer.TokenColumnIdent:
		p.advance()
		return ast.At(&ast.ColumnAccess{ID: ast.NamedColumn(tok.Val)}, tok.Pos, tok.End), nil

	case lexer.TokenFlowIdent:
		p.advance()
		return ast.At(&ast.FlowVarAccess{Name: tok.Val}, tok.Pos, tok.End), nil

	case lexer.TokenColumnOpen:
		return p.parseColumnAccess()

	case lexer.TokenFlowOpen:
		p.advance()
		name, err := p.expect(lexer.TokenString)
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(lexer.TokenRBracket)
		if err != nil {
			return nil, err
		}
		return ast.At(&ast.FlowVarAccess{Name: name.Val}, tok.Pos, closing.End), nil

	case lexer.TokenIdent:
		p.advance()
		// Check if it's a function call
		if p.peek().Type == lexer.TokenLParen {
			return p.parseCall(tok)
		}
		return p.parseConstant(tok)

	case lexer.TokenLParen:
		p.advance() // consume (
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.errorAt(tok, "unexpected token %s (%q) in expression", tok.Type, tok.Val)
	}
}

func (p *Parser) parseConstant(tok lexer.Token) (ast.Node, error) {
	var v float64
	switch tok.Val {
	case "NaN":
		v = math.NaN()
	case "INFINITY":
		v = math.Inf(1)
	case "PI":
		v = math.Pi
	case "E":
		v = math.E
	default:
		return nil, p.errorAt(tok, "unknown identifier %q", tok.Val)
	}
	return ast.At(&ast.FloatConstant{Value: v}, tok.Pos, tok.End), nil
}

// parseColumnAccess parses $["name"], $["name", offset], $[ROW_ID],
// $[ROW_INDEX] and $[ROW_NUMBER].
func (p *Parser) parseColumnAccess() (ast.Node, error) {
	open := p.advance() // consume $[
	tok := p.advance()

	switch tok.Type {
	case lexer.TokenString:
		var offset int64
		if p.peek().Type == lexer.TokenComma {
			p.advance()
			offTok, err := p.expect(lexer.TokenInt)
			if err != nil {
				return nil, err
			}
			offset, err = strconv.ParseInt(offTok.Val, 10, 64)
			if err != nil {
				return nil, p.errorAt(offTok, "invalid offset %q", offTok.Val)
			}
		}
		closing, err := p.expect(lexer.TokenRBracket)
		if err != nil {
			return nil, err
		}
		return ast.At(&ast.ColumnAccess{ID: ast.NamedColumn(tok.Val), Offset: offset}, open.Pos, closing.End), nil

	case lexer.TokenIdent:
		closing, err := p.expect(lexer.TokenRBracket)
		if err != nil {
			return nil, err
		}
		switch tok.Val {
		case "ROW_ID":
			return ast.At(&ast.ColumnAccess{ID: ast.ColumnID{Type: ast.RowID}}, open.Pos, closing.End), nil
		case "ROW_INDEX":
			return ast.At(&ast.ColumnAccess{ID: ast.ColumnID{Type: ast.RowIndex}}, open.Pos, closing.End), nil
		case "ROW_NUMBER":
			index := ast.At(&ast.ColumnAccess{ID: ast.ColumnID{Type: ast.RowIndex}}, open.Pos, closing.End)
			one := ast.At(&ast.IntegerConstant{Value: 1}, open.Pos, closing.End)
			return ast.At(&ast.BinaryOp{Op: ast.Plus, Left: index, Right: one}, open.Pos, closing.End), nil
		}
	}
	return nil, p.errorAt(tok, "expected a column name, ROW_ID, ROW_INDEX or ROW_NUMBER, got %s (%q)", tok.Type, tok.Val)
}

type callArg struct {
	name  string
	value ast.Node
}

func (p *Parser) parseCall(nameTok lexer.Token) (ast.Node, error) {
	p.advance() // consume (

	var args []callArg
	if p.peek().Type != lexer.TokenRParen {
		for {
			var arg callArg
			if p.peek().Type == lexer.TokenIdent && p.peekAt(1).Type == lexer.TokenEquals {
				arg.name = p.advance().Val
				p.advance() // consume =
			}
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arg.value = value
			args = append(args, arg)
			if p.peek().Type != lexer.TokenComma {
				break
			}
			p.advance() // consume comma
		}
	}

	closing, err := p.expect(lexer.TokenRParen)
	if err != nil {
		return nil, err
	}

	if p.aggregations != nil {
		if agg, ok := p.aggregations.LookupAggregation(nameTok.Val); ok {
			return p.buildAggregation(agg, nameTok, closing, args)
		}
	}
	if p.functions != nil {
		if fn, ok := p.functions.LookupFunction(nameTok.Val); ok {
			var positional []ast.Node
			for _, a := range args {
				if a.name != "" {
					return nil, &SyntaxError{
						Msg: fmt.Sprintf("function %q does not accept named argument %q", fn.Name(), a.name),
						Pos: start(a.value), End: end(a.value),
					}
				}
				positional = append(positional, a.value)
			}
			return ast.At(&ast.FunctionCall{Function: fn, Args: positional}, nameTok.Pos, closing.End), nil
		}
	}
	return nil, p.errorAt(nameTok, "unknown function %q", nameTok.Val)
}

func (p *Parser) buildAggregation(agg ast.Aggregation, nameTok, closing lexer.Token, args []callArg) (ast.Node, error) {
	var aggArgs ast.AggregationArgs
	for _, a := range args {
		if !isConstant(a.value) {
			return nil, &SyntaxError{
				Msg: fmt.Sprintf("arguments of aggregation %q must be constants", agg.Name()),
				Pos: start(a.value), End: end(a.value),
			}
		}
		if a.name == "" {
			if len(aggArgs.Named) > 0 {
				return nil, &SyntaxError{
					Msg: "positional argument follows named argument",
					Pos: start(a.value), End: end(a.value),
				}
			}
			aggArgs.Positional = append(aggArgs.Positional, a.value)
			continue
		}
		if _, dup := aggArgs.Get(a.name); dup {
			return nil, &SyntaxError{
				Msg: fmt.Sprintf("duplicate argument %q", a.name),
				Pos: start(a.value), End: end(a.value),
			}
		}
		aggArgs.Named = append(aggArgs.Named, ast.NamedArg{Name: a.name, Value: a.value})
	}
	return ast.At(&ast.AggregationCall{Aggregation: agg, Args: aggArgs}, nameTok.Pos, closing.End), nil
}

func isConstant(n ast.Node) bool {
	switch n.(type) {
	case *ast.MissingConstant, *ast.BooleanConstant, *ast.IntegerConstant, *ast.FloatConstant, *ast.StringConstant:
		return true
	}
	return false
}
