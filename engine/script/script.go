// Package script parses and evaluates ability effect scripts.
//
// A script is a ';'-separated list of statements over two stat tables,
// hero (the source) and target:
//
//	target['hp'] -= hero['dexterity'] - target['strength'] + d4
//	hero['mana'] = hero['mana'] - 10
//	buff('hero', 'armor', 2, 3)
//
// Only integer arithmetic (+ - * / %), the dice d4 and d20, and the buff call
// are available. Nothing else is executed.
package script

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is.
var (
	ErrParse = errors.New("script parse error")
	ErrEval  = errors.New("script eval error")
)

// ParseError reports a malformed statement.
type ParseError struct {
	Statement int // 1-based, counted over ';'-separated segments
	Pos       int // byte offset in the script
	Msg       string
}

func (e *ParseError) Error() string {
	if e.Statement > 0 {
		return fmt.Sprintf("parse error in statement %d at offset %d: %s", e.Statement, e.Pos, e.Msg)
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// EvalError reports a runtime failure such as division by zero.
type EvalError struct {
	Statement int
	Msg       string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error in statement %d: %s", e.Statement, e.Msg)
}

func (e *EvalError) Is(target error) bool { return target == ErrEval }

// Side names one of the two stat tables.
type Side int

const (
	Hero Side = iota
	Target
)

func (s Side) String() string {
	if s == Hero {
		return "hero"
	}
	return "target"
}

func parseSide(name string) (Side, bool) {
	switch name {
	case "hero":
		return Hero, true
	case "target":
		return Target, true
	}
	return 0, false
}

// Ref addresses one stat on one side, e.g. target['hp'].
type Ref struct {
	Side Side
	Stat string
}

// Statement is one of Assign, CompoundAssign or BuffCall.
type Statement interface {
	index() int
}

// Assign is ref = expr.
type Assign struct {
	N     int
	Ref   Ref
	Value Expr
}

// CompoundAssign is ref += expr or ref -= expr.
type CompoundAssign struct {
	N     int
	Ref   Ref
	Op    byte // '+' or '-'
	Value Expr
}

// BuffCall is buff(side, stat, value, duration). It queues a timed effect.
type BuffCall struct {
	N        int
	Side     Side
	Stat     string
	Value    Expr
	Duration Expr
}

func (s *Assign) index() int         { return s.N }
func (s *CompoundAssign) index() int { return s.N }
func (s *BuffCall) index() int       { return s.N }

// Expr is an integer expression node.
type Expr interface {
	eval(env *Env) (int, error)
}

type intLit int

type refExpr Ref

type diceExpr int

type unaryExpr struct {
	op byte
	x  Expr
}

type binaryExpr struct {
	op   byte
	l, r Expr
}

// Program is a parsed script.
type Program struct {
	Source     string
	Statements []Statement
}

// Buff is a pending timed effect produced by a buff call.
type Buff struct {
	Side     Side
	Stat     string
	Value    int
	Duration int
}

// Env is the mutable evaluation state shared by all statements of one run.
// Hero and Target are written in place.
type Env struct {
	Hero   map[string]int
	Target map[string]int
	D4     int
	D20    int
	Buffs  []Buff
}

func (env *Env) table(s Side) map[string]int {
	if s == Hero {
		return env.Hero
	}
	return env.Target
}
