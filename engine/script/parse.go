package script

import "fmt"

type parser struct {
	toks []token
	i    int
	n    int // current statement number
}

// Parse turns script text into a Program. Empty statements are skipped.
func Parse(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, n: 1}
	prog := &Program{Source: src}

	for p.peek().kind != tokEOF {
		if p.isPunct(";") {
			p.next()
			p.n++
			continue
		}
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, st)

		switch {
		case p.peek().kind == tokEOF:
		case p.isPunct(";"):
			p.next()
			p.n++
		default:
			return nil, p.errorf("unexpected %s after statement", p.peek())
		}
	}
	return prog, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expect(s string) error {
	if !p.isPunct(s) {
		return p.errorf("expected %q, found %s", s, p.peek())
	}
	p.next()
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Statement: p.n, Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) statement() (Statement, error) {
	t := p.peek()
	if t.kind == tokIdent && t.text == "buff" {
		return p.buffCall()
	}

	ref, err := p.ref()
	if err != nil {
		return nil, err
	}
	op := p.peek()
	if op.kind != tokPunct || (op.text != "=" && op.text != "+=" && op.text != "-=") {
		return nil, p.errorf("expected assignment, found %s", op)
	}
	p.next()
	val, err := p.expr()
	if err != nil {
		return nil, err
	}
	if op.text == "=" {
		return &Assign{N: p.n, Ref: ref, Value: val}, nil
	}
	return &CompoundAssign{N: p.n, Ref: ref, Op: op.text[0], Value: val}, nil
}

func (p *parser) buffCall() (Statement, error) {
	p.next() // buff
	if err := p.expect("("); err != nil {
		return nil, err
	}

	sideTok := p.next()
	if sideTok.kind != tokIdent && sideTok.kind != tokString {
		return nil, &ParseError{Statement: p.n, Pos: sideTok.pos, Msg: fmt.Sprintf("buff side must be hero or target, found %s", sideTok)}
	}
	side, ok := parseSide(sideTok.text)
	if !ok {
		return nil, &ParseError{Statement: p.n, Pos: sideTok.pos, Msg: fmt.Sprintf("buff side must be hero or target, found %s", sideTok)}
	}
	if err := p.expect(","); err != nil {
		return nil, err
	}

	statTok := p.next()
	if statTok.kind != tokString {
		return nil, &ParseError{Statement: p.n, Pos: statTok.pos, Msg: fmt.Sprintf("buff stat must be a quoted name, found %s", statTok)}
	}
	if err := p.expect(","); err != nil {
		return nil, err
	}

	val, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(","); err != nil {
		return nil, err
	}
	dur, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return &BuffCall{N: p.n, Side: side, Stat: statTok.text, Value: val, Duration: dur}, nil
}

func (p *parser) ref() (Ref, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return Ref{}, p.errorf("expected hero[...] or target[...], found %s", t)
	}
	side, ok := parseSide(t.text)
	if !ok {
		return Ref{}, p.errorf("unknown name %q", t.text)
	}
	p.next()
	if err := p.expect("["); err != nil {
		return Ref{}, err
	}
	key := p.peek()
	if key.kind != tokString {
		return Ref{}, p.errorf("stat key must be a quoted name, found %s", key)
	}
	p.next()
	if err := p.expect("]"); err != nil {
		return Ref{}, err
	}
	return Ref{Side: side, Stat: key.text}, nil
}

// expr := term { ('+' | '-') term }
func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.next().text[0]
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, l: left, r: right}
	}
	return left, nil
}

// term := unary { ('*' | '/' | '%') unary }
func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		op := p.next().text[0]
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.isPunct("-") || p.isPunct("+") {
		op := p.next().text[0]
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: op, x: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokInt:
		p.next()
		return intLit(t.val), nil

	case tokIdent:
		switch t.text {
		case "d4":
			p.next()
			return diceExpr(4), nil
		case "d20":
			p.next()
			return diceExpr(20), nil
		case "hero", "target":
			ref, err := p.ref()
			if err != nil {
				return nil, err
			}
			return refExpr(ref), nil
		}
		return nil, p.errorf("unknown name %q", t.text)

	case tokPunct:
		if t.text == "(" {
			p.next()
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	return nil, p.errorf("expected a value, found %s", t)
}
