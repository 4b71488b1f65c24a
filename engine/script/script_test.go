package script

import (
	"errors"
	"testing"
)

func newEnv(hero, target map[string]int) *Env {
	if hero == nil {
		hero = map[string]int{}
	}
	if target == nil {
		target = map[string]int{}
	}
	return &Env{Hero: hero, Target: target, D4: 3, D20: 17}
}

func TestParse_StatementShapes(t *testing.T) {
	prog, err := Parse("target['hp'] -= 5; hero['mana'] = 10 ;  ; buff('hero', 'hp', 2, 2); hero[\"armor\"] += 1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(prog.Statements) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*CompoundAssign); !ok {
		t.Errorf("statement 0 is %T, want *CompoundAssign", prog.Statements[0])
	}
	if _, ok := prog.Statements[1].(*Assign); !ok {
		t.Errorf("statement 1 is %T, want *Assign", prog.Statements[1])
	}
	b, ok := prog.Statements[2].(*BuffCall)
	if !ok {
		t.Fatalf("statement 2 is %T, want *BuffCall", prog.Statements[2])
	}
	if b.Side != Hero || b.Stat != "hp" {
		t.Errorf("buff = %+v", b)
	}
	if b.N != 4 {
		t.Errorf("buff statement number = %d, want 4 (empty segments still count)", b.N)
	}
}

func TestParse_EmptyScript(t *testing.T) {
	for _, src := range []string{"", "   ", ";;", " ; \n ;"} {
		prog, err := Parse(src)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", src, err)
			continue
		}
		if len(prog.Statements) != 0 {
			t.Errorf("Parse(%q) = %d statements, want 0", src, len(prog.Statements))
		}
	}
}

func TestParse_Errors(t *testing.T) {
	bad := []string{
		"target['hp'] -=",
		"target['hp'] == 5",
		"villain['hp'] = 1",
		"target[hp] = 1",
		"target['hp'] = 1 2",
		"import os",
		"target['hp'] = exec('x')",
		"buff('boss', 'hp', 1, 1)",
		"buff(hero, hp, 1, 1)",
		"buff('hero', 'hp', 1)",
		"target['hp'] = (1 + 2",
		"target['hp'] = 'text",
		"target['hp'] = 1 & 2",
		"target['hp'] *= 2",
	}
	for _, src := range bad {
		_, err := Parse(src)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", src)
			continue
		}
		if !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%q) error %v is not ErrParse", src, err)
		}
	}
}

func TestRun_CompoundAndSequencing(t *testing.T) {
	env := newEnv(map[string]int{"dexterity": 7}, map[string]int{"hp": 20, "strength": 2})
	prog := mustParse("target['hp'] -= hero['dexterity'] - target['strength']; hero['last'] = target['hp']")
	if err := prog.Run(env); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if env.Target["hp"] != 15 {
		t.Errorf("target hp = %d, want 15", env.Target["hp"])
	}
	if env.Hero["last"] != 15 {
		t.Errorf("later statement saw hp %d, want 15", env.Hero["last"])
	}
}

func TestRun_Precedence(t *testing.T) {
	cases := []struct {
		src  string
		want int
	}{
		{"hero['x'] = 2 + 3 * 4", 14},
		{"hero['x'] = (2 + 3) * 4", 20},
		{"hero['x'] = 10 - 4 - 3", 3},
		{"hero['x'] = -3 + 5", 2},
		{"hero['x'] = - -3", 3},
		{"hero['x'] = 7 / 2", 3},
		{"hero['x'] = -7 / 2", -4},
		{"hero['x'] = 7 % 3", 1},
		{"hero['x'] = -7 % 3", 2},
		{"hero['x'] = d4 + d20", 20},
		{"hero['x'] = hero['missing'] + 1", 1},
	}
	for _, c := range cases {
		env := newEnv(nil, nil)
		if err := mustParse(c.src).Run(env); err != nil {
			t.Errorf("%s: %v", c.src, err)
			continue
		}
		if env.Hero["x"] != c.want {
			t.Errorf("%s = %d, want %d", c.src, env.Hero["x"], c.want)
		}
	}
}

func TestRun_BuffDeferred(t *testing.T) {
	env := newEnv(map[string]int{"hp": 30}, nil)
	prog := mustParse("buff('target', 'armor', -2, d4); buff(hero, 'hp', 2, 2); hero['hp'] -= 1")
	if err := prog.Run(env); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(env.Buffs) != 2 {
		t.Fatalf("expected 2 buffs, got %d", len(env.Buffs))
	}
	if env.Buffs[0] != (Buff{Side: Target, Stat: "armor", Value: -2, Duration: 3}) {
		t.Errorf("buff 0 = %+v", env.Buffs[0])
	}
	if env.Buffs[1] != (Buff{Side: Hero, Stat: "hp", Value: 2, Duration: 2}) {
		t.Errorf("buff 1 = %+v", env.Buffs[1])
	}
	if env.Hero["hp"] != 29 {
		t.Errorf("buff must not touch the table: hp = %d, want 29", env.Hero["hp"])
	}
}

func TestRun_EvalErrors(t *testing.T) {
	for _, src := range []string{
		"target['hp'] = 1 / 0",
		"target['hp'] = 5 % (hero['zero'])",
		"buff('hero', 'hp', 1, 0)",
		"buff('hero', 'hp', 1, -2)",
	} {
		err := mustParse(src).Run(newEnv(nil, nil))
		if err == nil {
			t.Errorf("%s: expected error", src)
			continue
		}
		if !errors.Is(err, ErrEval) {
			t.Errorf("%s: error %v is not ErrEval", src, err)
		}
	}
}

func TestRun_EvalErrorStatementNumber(t *testing.T) {
	err := mustParse("hero['a'] = 1; hero['b'] = 2 / 0").Run(newEnv(nil, nil))
	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EvalError, got %v", err)
	}
	if ee.Statement != 2 {
		t.Errorf("Statement = %d, want 2", ee.Statement)
	}
}

func mustParse(src string) *Program {
	prog, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return prog
}
