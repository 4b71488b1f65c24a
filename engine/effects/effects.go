// Package effects resolves ability scripts against two entities. It is the
// only place where data-driven formulas touch the stat model.
package effects

import (
	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/script"
)

// Roller supplies dice rolls in [1, sides].
type Roller interface {
	Roll(sides int) int
}

// Sign is -1, 0 or +1.
type Sign int

// Outcome reports what an applied script did. HP signs compare effective hp
// before and after, including buffs applied by the script.
type Outcome struct {
	SourceHP Sign
	TargetHP Sign
	Buffs    []script.Buff
}

// Apply parses and runs an ability script with source as hero and target as
// target. On any parse or evaluation error nothing is written and the error
// is returned.
func Apply(source, target *entity.Entity, src string, rng Roller) (Outcome, error) {
	prog, err := script.Parse(src)
	if err != nil {
		return Outcome{}, err
	}
	return Run(source, target, prog, rng)
}

// Run is Apply for an already parsed program.
func Run(source, target *entity.Entity, prog *script.Program, rng Roller) (Outcome, error) {
	srcHP := source.Stat("hp")
	tgtHP := target.Stat("hp")

	// Detached snapshots; the entities are untouched until evaluation succeeds.
	env := &script.Env{
		Hero:   source.Stats.Snapshot(),
		Target: target.Stats.Snapshot(),
		D4:     rng.Roll(4),
		D20:    rng.Roll(20),
	}
	if err := prog.Run(env); err != nil {
		return Outcome{}, err
	}

	// The snapshots hold effective values; the model stores base only.
	writeBack(target, env.Target)
	writeBack(source, env.Hero)

	for _, b := range env.Buffs {
		who := target
		if b.Side == script.Hero {
			who = source
		}
		// Durations were validated during evaluation.
		_ = who.Stats.AddEffect(b.Stat, b.Value, b.Duration)
	}

	return Outcome{
		SourceHP: sign(source.Stat("hp") - srcHP),
		TargetHP: sign(target.Stat("hp") - tgtHP),
		Buffs:    env.Buffs,
	}, nil
}

// writeBack stores snapshot values into the base layer for every stat the
// entity already has. New keys invented by a script are dropped.
func writeBack(e *entity.Entity, snap map[string]int) {
	for _, key := range e.Stats.Keys() {
		e.Stats.SetBase(key, snap[key]-e.Stats.Bonus(key))
	}
}

func sign(d int) Sign {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}
