package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/events"
	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/types"
)

// Update is the per-frame tick. It advances movement animation, wakes lair
// guardians, and drives the enemy half of the turn:
//
//	EnemyDeciding: once heroes have stopped moving, one decision pass, then EnemyMoving.
//	EnemyMoving:   once no enemy has queued steps, rollover, then PlayerTurn.
func (e *Engine) Update() types.Result {
	var res types.Result
	for _, ent := range e.World.Entities {
		ent.Step(e.Config.MoveSpeed, e.Config.TileSize)
	}
	e.wakeGuardians(&res)

	switch e.Phase {
	case types.EnemyDeciding:
		if e.rolesMoving(types.RoleHero) {
			break
		}
		e.decide(&res)
		e.Phase = types.EnemyMoving
	case types.EnemyMoving:
		if e.rolesMoving(types.RoleEnemy) {
			break
		}
		e.rollover(&res)
		e.Phase = types.PlayerTurn
	}

	res.OK = true
	res.Reason = types.ReasonOK
	e.finish(&res)
	return res
}

// Settle ticks at least once, then until it is the player's turn and nothing
// is moving, or maxTicks ticks have run. maxTicks <= 0 means a generous default.
func (e *Engine) Settle(maxTicks int) types.Result {
	if maxTicks <= 0 {
		maxTicks = defaultSettleTicks
	}
	res := types.Result{OK: true, Reason: types.ReasonOK}
	for i := 0; i < maxTicks; i++ {
		merge(&res, e.Update())
		if e.Phase == types.PlayerTurn && !e.Moving() {
			return res
		}
	}
	if e.Phase != types.PlayerTurn || e.Moving() {
		res.OK = false
		res.Reason = types.ReasonBusy
		e.Log.WithField("ticks", maxTicks).Warn("settle gave up before the world came to rest")
	}
	return res
}

func (e *Engine) rolesMoving(r types.Role) bool {
	for _, ent := range e.World.Entities {
		if ent.Role == r && ent.IsMoving() {
			return true
		}
	}
	return false
}

// decide runs one decision pass over every enemy. All enemies share one
// obstacle set holding every occupied cell, NPCs and items included; each
// enemy's final queued cell is claimed in it so later enemies in the pass
// cannot end on or walk through it.
func (e *Engine) decide(res *types.Result) {
	obstacles := e.Defs.Blocked.Clone()
	for _, ent := range e.World.Entities {
		obstacles.Add(ent.Cell)
	}

	w, h := e.Defs.Game.Width, e.Defs.Game.Height
	for _, en := range e.World.Enemies() {
		// An earlier ability in this pass may have killed it.
		if e.World.Find(en.ID) == nil {
			continue
		}
		obstacles.Remove(en.Cell)

		target := e.World.NearestHero(en.Cell)
		if target == nil {
			obstacles.Add(en.Cell)
			continue
		}
		obstacles.Remove(target.Cell)
		route := path.Find(en.Cell, target.Cell, w, h, obstacles)
		obstacles.Add(target.Cell)

		if len(route) == 0 {
			obstacles.Add(en.Cell)
			continue
		}

		if len(route) <= en.Stat("attack_range") {
			obstacles.Add(en.Cell)
			e.enemyAct(en, target, res)
			continue
		}

		steps := route
		if mr := en.Stat("move_range"); len(steps) > mr {
			steps = steps[:max(mr, 0)]
		}
		if n := len(steps); n > 0 && steps[n-1] == target.Cell {
			steps = steps[:n-1]
		}
		if len(steps) == 0 {
			obstacles.Add(en.Cell)
			continue
		}
		en.Queue = append([]types.Cell(nil), steps...)
		obstacles.Add(steps[len(steps)-1])
		e.Log.WithFields(logrus.Fields{
			"id":     en.ID,
			"target": target.ID,
			"steps":  len(steps),
		}).Debug("enemy approaches")
	}
}

// enemyAct picks an ability uniformly at random, or the configured default
// when the enemy has none, and resolves it. A failing script forfeits the
// enemy's slot.
func (e *Engine) enemyAct(en, target *entity.Entity, res *types.Result) {
	ab := e.Config.DefaultEnemyAbility
	if n := len(en.Abilities); n > 0 {
		ab = en.Abilities[e.RNG.Intn(n)]
	}
	_ = e.resolve(en, target, ab, res)
}

// rollover runs exactly once per EnemyMoving → PlayerTurn transition.
func (e *Engine) rollover(res *types.Result) {
	for _, ent := range e.World.Entities {
		ent.Stats.AdvanceTurn()
	}
	for _, h := range e.World.Heroes() {
		h.Stats.SetBase("moves_left", h.Stat("moves_count"))
		h.Stats.SetBase("mana", h.Stat("max_mana"))
	}
	for _, ent := range e.World.Entities {
		capHP(ent)
	}
	e.sweep(res)
	e.tickLairs(res)
	for _, l := range e.World.RemoveClearedLairs() {
		emit(res, events.LairCleared, map[string]any{"cell": l.Cell}, fmt.Sprintf("The lair at %s is destroyed!", l.Cell))
		e.Log.WithField("lair", l.Cell.String()).Info("lair cleared")
	}
	e.World.Turn++
	emit(res, events.TurnStarted, map[string]any{"turn": e.World.Turn}, fmt.Sprintf("Turn %d. Your move.", e.World.Turn))
	e.Log.WithField("turn", e.World.Turn).Debug("rollover")
}
