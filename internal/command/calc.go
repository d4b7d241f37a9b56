package command

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var errUnsupported = errors.New("unsupported math expression")

// Calculate evaluates an arithmetic expression over numbers, + - * / %,
// parentheses and power (^ or **). Power binds tighter than unary minus and
// groups to the right, so -2^2 is -4 and 2^3^2 is 512.
func Calculate(expr string) (string, error) {
	expr = strings.TrimRight(strings.TrimSpace(expr), "?!=. ")
	p := &calcParser{src: strings.ReplaceAll(expr, "**", "^")}
	p.next()
	if p.tok == 0 {
		return "", errUnsupported
	}
	v, err := p.sum()
	if err != nil {
		return "", err
	}
	if p.tok != 0 {
		return "", errUnsupported
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", errors.New("result is not a number")
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10), nil
	}
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(v, 'f', 8, 64), "0"), "."), nil
}

// calcParser is a recursive descent parser:
//
//	sum    = term { ("+" | "-") term }
//	term   = unary { ("*" | "/" | "%") unary }
//	unary  = ("-" | "+") unary | power
//	power  = atom [ "^" unary ]
//	atom   = number | "(" sum ")"
type calcParser struct {
	src string
	pos int
	tok byte // 0 at end, 'n' for a number, otherwise the operator
	num float64
	err error
}

func (p *calcParser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = 0
		return
	}
	c := p.src[p.pos]
	if c >= '0' && c <= '9' || c == '.' {
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			p.err = errUnsupported
		}
		p.tok, p.num = 'n', v
		return
	}
	if !strings.ContainsRune("+-*/%^()", rune(c)) {
		p.err = errUnsupported
	}
	p.tok = c
	p.pos++
}

func (p *calcParser) sum() (float64, error) {
	x, err := p.term()
	for err == nil && (p.tok == '+' || p.tok == '-') {
		op := p.tok
		p.next()
		var y float64
		if y, err = p.term(); err == nil {
			if op == '+' {
				x += y
			} else {
				x -= y
			}
		}
	}
	return x, err
}

func (p *calcParser) term() (float64, error) {
	x, err := p.unary()
	for err == nil && (p.tok == '*' || p.tok == '/' || p.tok == '%') {
		op := p.tok
		p.next()
		var y float64
		if y, err = p.unary(); err != nil {
			break
		}
		switch {
		case op == '*':
			x *= y
		case y == 0:
			return 0, errors.New("division by zero")
		case op == '/':
			x /= y
		default:
			x = math.Mod(x, y)
		}
	}
	return x, err
}

func (p *calcParser) unary() (float64, error) {
	switch p.tok {
	case '-':
		p.next()
		x, err := p.unary()
		return -x, err
	case '+':
		p.next()
		return p.unary()
	}
	return p.power()
}

func (p *calcParser) power() (float64, error) {
	x, err := p.atom()
	if err != nil || p.tok != '^' {
		return x, err
	}
	p.next()
	// right operand goes back through unary so 2^-1 and 2^3^2 work
	y, err := p.unary()
	if err != nil {
		return 0, err
	}
	return math.Pow(x, y), nil
}

func (p *calcParser) atom() (float64, error) {
	if p.err != nil {
		return 0, p.err
	}
	switch p.tok {
	case 'n':
		v := p.num
		p.next()
		return v, p.err
	case '(':
		p.next()
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.tok != ')' {
			return 0, errUnsupported
		}
		p.next()
		return v, p.err
	}
	return 0, errUnsupported
}
