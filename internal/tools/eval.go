package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// evalExpression evaluates a basic arithmetic expression supporting
// + - * / % ^, parentheses, unary minus, and a few named functions
// (sqrt, abs, round, floor, ceil). There is no variable lookup and no
// code execution — input comes from the model and must stay inert.
func evalExpression(expr string) (float64, error) {
	p := &exprParser{input: expr}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// parseExpr handles + and -.
func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseTerm handles *, /, and %.
func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parsePower()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			p.pos++
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

// parsePower handles ^, right-associative.
func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		exp, err := p.parsePower()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parseUnary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	c := p.peek()

	switch {
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil

	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()

	case unicode.IsLetter(rune(c)):
		return p.parseFunc()
	}

	return 0, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

func (p *exprParser) parseFunc() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) && unicode.IsLetter(rune(p.input[p.pos])) {
		p.pos++
	}
	name := strings.ToLower(p.input[start:p.pos])

	if name == "pi" {
		return math.Pi, nil
	}
	if name == "e" {
		return math.E, nil
	}

	if p.peek() != '(' {
		return 0, fmt.Errorf("unknown identifier %q", name)
	}
	p.pos++
	arg, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek() != ')' {
		return 0, fmt.Errorf("missing closing parenthesis after %s", name)
	}
	p.pos++

	switch name {
	case "sqrt":
		if arg < 0 {
			return 0, fmt.Errorf("sqrt of negative number")
		}
		return math.Sqrt(arg), nil
	case "abs":
		return math.Abs(arg), nil
	case "round":
		return math.Round(arg), nil
	case "floor":
		return math.Floor(arg), nil
	case "ceil":
		return math.Ceil(arg), nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}
