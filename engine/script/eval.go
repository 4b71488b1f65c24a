package script

import "fmt"

// Run evaluates every statement in order against env. Later statements see
// the writes of earlier ones. Buff calls are appended to env.Buffs and never
// applied here. On error env may be partially written; callers that need
// atomicity pass detached copies.
func (p *Program) Run(env *Env) error {
	for _, st := range p.Statements {
		if err := exec(st, env); err != nil {
			return err
		}
	}
	return nil
}

func exec(st Statement, env *Env) error {
	switch s := st.(type) {
	case *Assign:
		v, err := s.Value.eval(env)
		if err != nil {
			return wrapEval(s.N, err)
		}
		env.table(s.Ref.Side)[s.Ref.Stat] = v

	case *CompoundAssign:
		v, err := s.Value.eval(env)
		if err != nil {
			return wrapEval(s.N, err)
		}
		tbl := env.table(s.Ref.Side)
		if s.Op == '+' {
			tbl[s.Ref.Stat] += v
		} else {
			tbl[s.Ref.Stat] -= v
		}

	case *BuffCall:
		v, err := s.Value.eval(env)
		if err != nil {
			return wrapEval(s.N, err)
		}
		d, err := s.Duration.eval(env)
		if err != nil {
			return wrapEval(s.N, err)
		}
		if d <= 0 {
			return &EvalError{Statement: s.N, Msg: fmt.Sprintf("buff duration must be positive, got %d", d)}
		}
		env.Buffs = append(env.Buffs, Buff{Side: s.Side, Stat: s.Stat, Value: v, Duration: d})

	default:
		return &EvalError{Statement: st.index(), Msg: fmt.Sprintf("unsupported statement %T", st)}
	}
	return nil
}

func wrapEval(n int, err error) error {
	if ee, ok := err.(*EvalError); ok {
		ee.Statement = n
		return ee
	}
	return &EvalError{Statement: n, Msg: err.Error()}
}

func (x intLit) eval(*Env) (int, error) { return int(x), nil }

// Unknown stats read as 0.
func (x refExpr) eval(env *Env) (int, error) {
	return env.table(x.Side)[x.Stat], nil
}

func (x diceExpr) eval(env *Env) (int, error) {
	if x == 20 {
		return env.D20, nil
	}
	return env.D4, nil
}

func (x *unaryExpr) eval(env *Env) (int, error) {
	v, err := x.x.eval(env)
	if err != nil {
		return 0, err
	}
	if x.op == '-' {
		return -v, nil
	}
	return v, nil
}

func (x *binaryExpr) eval(env *Env) (int, error) {
	l, err := x.l.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := x.r.eval(env)
	if err != nil {
		return 0, err
	}
	switch x.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, &EvalError{Msg: "division by zero"}
		}
		return floorDiv(l, r), nil
	case '%':
		if r == 0 {
			return 0, &EvalError{Msg: "modulo by zero"}
		}
		return floorMod(l, r), nil
	}
	return 0, &EvalError{Msg: fmt.Sprintf("unknown operator %q", x.op)}
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod returns a result with the sign of b.
func floorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
