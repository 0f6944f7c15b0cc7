package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tabula-data/tabula/internal/expr"
)

// ParseExpr parses the expression-string syntax used in pipeline files
// into an expression tree.
//
// Syntax, loosest binding first:
//
//	or            a or b
//	and           a and b
//	not           not a
//	comparison    == != > < >= <=
//	additive      + -
//	term          * /
//	unary         -a
//	primary       column, 'literal', "literal", 42, 4.2, true, false,
//	              null, count(), sum(x), mean(x), min(x), max(x),
//	              parenthesized sub-expressions
//
// Bare identifiers are column references; aggregate calls take one
// expression argument (count also accepts none).
func ParseExpr(input string) (expr.Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return expr.Expr{}, fmt.Errorf("parse %q: %w", input, err)
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return expr.Expr{}, fmt.Errorf("parse %q: %w", input, err)
	}
	if !p.atEnd() {
		return expr.Expr{}, fmt.Errorf("parse %q: unexpected %q", input, p.peek().text)
	}
	return e, nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOp    // + - * / ( ) , == != > < >= <=
	tokEnd
)

type token struct {
	kind tokenKind
	text string
}

func lex(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: string(runes[i+1 : j])})
			i = j + 1

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.' || runes[j] == 'e' ||
				runes[j] == 'E' || ((runes[j] == '+' || runes[j] == '-') && j > i && (runes[j-1] == 'e' || runes[j-1] == 'E'))) {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: string(runes[i:j])})
			i = j

		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j

		case strings.ContainsRune("+-*/(),", r):
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++

		case r == '=' || r == '!' || r == '<' || r == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, token{kind: tokOp, text: string(runes[i : i+2])})
				i += 2
			} else if r == '<' || r == '>' {
				toks = append(toks, token{kind: tokOp, text: string(r)})
				i++
			} else {
				return nil, fmt.Errorf("unexpected character %q", string(r))
			}

		default:
			return nil, fmt.Errorf("unexpected character %q", string(r))
		}
	}
	toks = append(toks, token{kind: tokEnd})
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEnd {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool {
	return p.peek().kind == tokEnd
}

func (p *parser) acceptOp(text string) bool {
	if p.peek().kind == tokOp && p.peek().text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptIdent(text string) bool {
	if p.peek().kind == tokIdent && p.peek().text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return expr.Expr{}, err
	}
	for p.acceptIdent("or") {
		right, err := p.parseAnd()
		if err != nil {
			return expr.Expr{}, err
		}
		left = left.Or(right)
	}
	return left, nil
}

func (p *parser) parseAnd() (expr.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return expr.Expr{}, err
	}
	for p.acceptIdent("and") {
		right, err := p.parseNot()
		if err != nil {
			return expr.Expr{}, err
		}
		left = left.And(right)
	}
	return left, nil
}

func (p *parser) parseNot() (expr.Expr, error) {
	if p.acceptIdent("not") {
		operand, err := p.parseNot()
		if err != nil {
			return expr.Expr{}, err
		}
		return operand.Not(), nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (expr.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return expr.Expr{}, err
	}
	if p.peek().kind == tokOp {
		switch p.peek().text {
		case "==", "!=", ">", "<", ">=", "<=":
			op := p.next().text
			right, err := p.parseAdditive()
			if err != nil {
				return expr.Expr{}, err
			}
			switch op {
			case "==":
				return left.Eq(right), nil
			case "!=":
				return left.Ne(right), nil
			case ">":
				return left.Gt(right), nil
			case "<":
				return left.Lt(right), nil
			case ">=":
				return left.Ge(right), nil
			default:
				return left.Le(right), nil
			}
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (expr.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return expr.Expr{}, err
	}
	for {
		switch {
		case p.acceptOp("+"):
			right, err := p.parseTerm()
			if err != nil {
				return expr.Expr{}, err
			}
			left = left.Add(right)
		case p.acceptOp("-"):
			right, err := p.parseTerm()
			if err != nil {
				return expr.Expr{}, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return expr.Expr{}, err
	}
	for {
		switch {
		case p.acceptOp("*"):
			right, err := p.parseUnary()
			if err != nil {
				return expr.Expr{}, err
			}
			left = left.Mul(right)
		case p.acceptOp("/"):
			right, err := p.parseUnary()
			if err != nil {
				return expr.Expr{}, err
			}
			left = left.Div(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (expr.Expr, error) {
	if p.acceptOp("-") {
		operand, err := p.parseUnary()
		if err != nil {
			return expr.Expr{}, err
		}
		return operand.Neg(), nil
	}
	return p.parsePrimary()
}

var aggFuncs = map[string]expr.AggFunc{
	"count": expr.AggCount,
	"sum":   expr.AggSum,
	"mean":  expr.AggMean,
	"min":   expr.AggMin,
	"max":   expr.AggMax,
}

func (p *parser) parsePrimary() (expr.Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokNumber:
		p.next()
		if !strings.ContainsAny(tok.text, ".eE") {
			n, err := strconv.ParseInt(tok.text, 10, 64)
			if err != nil {
				return expr.Expr{}, fmt.Errorf("bad integer literal %q: %w", tok.text, err)
			}
			return expr.Lit(n), nil
		}
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return expr.Expr{}, fmt.Errorf("bad float literal %q: %w", tok.text, err)
		}
		return expr.Lit(f), nil

	case tokString:
		p.next()
		return expr.Lit(tok.text), nil

	case tokIdent:
		p.next()
		switch tok.text {
		case "true":
			return expr.Lit(true), nil
		case "false":
			return expr.Lit(false), nil
		case "null":
			return expr.Lit(nil), nil
		}
		if fn, isAgg := aggFuncs[tok.text]; isAgg && p.peek().kind == tokOp && p.peek().text == "(" {
			return p.parseAggCall(tok.text, fn)
		}
		return expr.Col(tok.text), nil

	case tokOp:
		if tok.text == "(" {
			p.next()
			inner, err := p.parseOr()
			if err != nil {
				return expr.Expr{}, err
			}
			if !p.acceptOp(")") {
				return expr.Expr{}, fmt.Errorf("missing closing parenthesis")
			}
			return inner, nil
		}
	}
	return expr.Expr{}, fmt.Errorf("unexpected %q", tok.text)
}

func (p *parser) parseAggCall(name string, fn expr.AggFunc) (expr.Expr, error) {
	p.next() // consume "("
	if p.acceptOp(")") {
		if fn != expr.AggCount {
			return expr.Expr{}, fmt.Errorf("%s() requires an argument", name)
		}
		return expr.Count(), nil
	}
	arg, err := p.parseOr()
	if err != nil {
		return expr.Expr{}, err
	}
	if !p.acceptOp(")") {
		return expr.Expr{}, fmt.Errorf("%s: missing closing parenthesis", name)
	}
	return expr.Wrap(expr.AggNode{Fn: fn, Arg: arg.Node()}), nil
}
