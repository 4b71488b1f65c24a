package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/lairgrid/engine/effects"
	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/events"
	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/types"
)

// SelectAbility marks one of the hero's abilities as the one AttemptAbility uses.
func (e *Engine) SelectAbility(ent *entity.Entity, index int) types.Result {
	if ent == nil || !ent.IsHero() {
		return fail(types.ReasonInvalidTarget, nil, "Only heroes can select abilities.")
	}
	if index < 0 || index >= len(ent.Abilities) {
		return fail(types.ReasonNoAbility, nil, fmt.Sprintf("%s has no ability #%d.", ent.Name, index+1))
	}
	ent.Selected = index
	return types.Result{
		OK:     true,
		Reason: types.ReasonOK,
		Output: []string{fmt.Sprintf("%s readies %s.", ent.Name, ent.Abilities[index].Name)},
	}
}

// AttemptAbility has a hero use its selected ability (or its first one) on an
// enemy. One action point is spent and refunded if the script fails.
// Abilities whose target is "self" always resolve on the source.
func (e *Engine) AttemptAbility(source, target *entity.Entity) types.Result {
	if e.Phase != types.PlayerTurn {
		return fail(types.ReasonNotPlayerTurn, nil, "Wait for the enemies to finish.")
	}
	if source == nil || !source.IsHero() {
		return fail(types.ReasonInvalidTarget, nil, "Only heroes can act.")
	}
	if source.IsMoving() {
		return fail(types.ReasonBusy, nil, fmt.Sprintf("%s is still moving.", source.Name))
	}
	ab, ok := source.SelectedAbility()
	if !ok {
		return fail(types.ReasonNoAbility, nil, fmt.Sprintf("%s has no abilities.", source.Name))
	}
	self := ab.Target == "self"
	if self {
		target = source
	}
	if target == nil || (!self && !target.IsEnemy()) {
		return fail(types.ReasonInvalidTarget, nil, "That is not a valid target.")
	}
	if source.Stat("moves_left") <= 0 {
		return fail(types.ReasonNoActionPoints, ErrNoActionPoints, fmt.Sprintf("%s has no action points left.", source.Name))
	}
	if !self {
		if d := path.Manhattan(source.Cell, target.Cell); d > source.Stat("attack_range") {
			return fail(types.ReasonOutOfRange, ErrOutOfRange,
				fmt.Sprintf("%s is %d cells away; %s reaches %d.", target.Name, d, ab.Name, source.Stat("attack_range")))
		}
	}

	spend(source)
	var res types.Result
	if err := e.resolve(source, target, ab, &res); err != nil {
		refund(source)
		res.Reason = types.ReasonScriptError
		res.Err = err
		e.finish(&res)
		return res
	}
	res.OK = true
	res.Reason = types.ReasonOK
	e.checkExhausted(&res)
	e.finish(&res)
	return res
}

// AttemptMove walks a hero along a BFS route to dest. One action point is
// spent regardless of route length.
func (e *Engine) AttemptMove(ent *entity.Entity, dest types.Cell) types.Result {
	if e.Phase != types.PlayerTurn {
		return fail(types.ReasonNotPlayerTurn, nil, "Wait for the enemies to finish.")
	}
	if ent == nil || !ent.IsHero() {
		return fail(types.ReasonInvalidTarget, nil, "Only heroes can be moved.")
	}
	if ent.IsMoving() {
		return fail(types.ReasonBusy, nil, fmt.Sprintf("%s is still moving.", ent.Name))
	}
	if ent.Stat("moves_left") <= 0 {
		return fail(types.ReasonNoActionPoints, ErrNoActionPoints, fmt.Sprintf("%s has no action points left.", ent.Name))
	}
	if dest == ent.Cell {
		return fail(types.ReasonInvalidTarget, nil, fmt.Sprintf("%s is already there.", ent.Name))
	}
	if !e.Defs.InBounds(dest) || e.Defs.Blocked.Has(dest) || e.World.EntityAt(dest) != nil {
		return fail(types.ReasonBlocked, nil, fmt.Sprintf("%s is blocked.", dest))
	}
	reach := ent.Stat("move_range")
	if path.Manhattan(ent.Cell, dest) > reach {
		return fail(types.ReasonOutOfRange, ErrOutOfRange, fmt.Sprintf("%s is beyond %s's move range of %d.", dest, ent.Name, reach))
	}

	obstacles := e.Defs.Blocked.Clone()
	for c := range e.World.Occupied(ent) {
		obstacles.Add(c)
	}
	route := path.Find(ent.Cell, dest, e.Defs.Game.Width, e.Defs.Game.Height, obstacles)
	if len(route) == 0 {
		return fail(types.ReasonPathNotFound, nil, fmt.Sprintf("No way through to %s.", dest))
	}
	if len(route) > reach {
		return fail(types.ReasonOutOfRange, ErrOutOfRange, fmt.Sprintf("The way to %s is %d steps; %s can walk %d.", dest, len(route), ent.Name, reach))
	}

	spend(ent)
	ent.Queue = route

	res := types.Result{OK: true, Reason: types.ReasonOK}
	emit(&res, events.EntityMoved, map[string]any{"id": ent.ID, "name": ent.Name, "cell": dest},
		fmt.Sprintf("%s moves to %s.", ent.Name, dest))
	e.checkExhausted(&res)
	e.finish(&res)
	return res
}

// EndPlayerTurn hands control to the enemies even if action points remain.
func (e *Engine) EndPlayerTurn() types.Result {
	if e.Phase != types.PlayerTurn {
		return fail(types.ReasonNotPlayerTurn, nil, "It is not your turn.")
	}
	var res types.Result
	e.enterEnemyPhase(&res)
	res.OK = true
	res.Reason = types.ReasonOK
	e.finish(&res)
	return res
}

// resolve runs an ability script and the bookkeeping that follows it: hp
// caps and the death sweep. On error nothing has changed.
func (e *Engine) resolve(source, target *entity.Entity, ab types.Ability, res *types.Result) error {
	out, err := effects.Apply(source, target, ab.Effect, e.RNG)
	if err != nil {
		e.Log.WithFields(logrus.Fields{
			"source":  source.ID,
			"target":  target.ID,
			"ability": ab.Name,
		}).WithError(err).Warn("ability script failed")
		emit(res, events.AbilityFailed, map[string]any{"id": source.ID, "name": source.Name, "ability": ab.Name},
			fmt.Sprintf("%s's %s fizzles: %v", source.Name, ab.Name, err))
		return err
	}

	line := fmt.Sprintf("%s uses %s on %s.", source.Name, ab.Name, target.Name)
	if target != source {
		switch out.TargetHP {
		case -1:
			line += fmt.Sprintf(" %s is hurt (hp %d).", target.Name, target.Stat("hp"))
		case 1:
			line += fmt.Sprintf(" %s is healed (hp %d).", target.Name, target.Stat("hp"))
		}
	}
	emit(res, events.AbilityUsed, map[string]any{
		"id":        source.ID,
		"name":      source.Name,
		"ability":   ab.Name,
		"target":    target.ID,
		"target_hp": target.Stat("hp"),
		"source_hp": int(out.SourceHP),
		"hp_change": int(out.TargetHP),
	}, line)
	e.Log.WithFields(logrus.Fields{
		"source":  source.ID,
		"target":  target.ID,
		"ability": ab.Name,
		"buffs":   len(out.Buffs),
	}).Debug("ability resolved")

	capHP(source)
	capHP(target)
	e.sweep(res)
	return nil
}

// sweep removes every hero and enemy whose effective hp is at or below zero.
// Deaths are collected first and removed afterwards.
func (e *Engine) sweep(res *types.Result) {
	var dead []*entity.Entity
	for _, ent := range e.World.Entities {
		if (ent.IsHero() || ent.IsEnemy()) && !ent.Alive() {
			dead = append(dead, ent)
		}
	}
	if len(dead) == 0 {
		return
	}

	activeID := ""
	if h := e.ActiveHero(); h != nil {
		activeID = h.ID
	}

	for _, d := range dead {
		d.Queue = nil
		if d.IsGuardian() {
			if l := e.World.NearestLair(d.Cell, e.Config.LairClaimRadius); l != nil {
				l.GuardiansNeeded--
				e.Log.WithFields(logrus.Fields{"lair": l.Cell.String(), "left": l.GuardiansNeeded}).Info("guardian slain")
			}
		}
		boss := d.Enemy != nil && d.Enemy.Boss
		emit(res, events.EntityDied, map[string]any{
			"id": d.ID, "name": d.Name, "role": d.Role.String(), "cell": d.Cell,
			"guardian": d.IsGuardian(), "boss": boss,
		}, fmt.Sprintf("%s dies.", d.Name))
		e.Log.WithFields(logrus.Fields{"id": d.ID, "cell": d.Cell.String()}).Info("entity died")
	}
	e.World.Remove(dead)

	if activeID == "" || !e.SetActive(activeID) {
		e.active = 0
	}
}

// checkExhausted enters the enemy phase once every hero has spent all
// action points.
func (e *Engine) checkExhausted(res *types.Result) {
	if e.Phase != types.PlayerTurn {
		return
	}
	heroes := e.World.Heroes()
	if len(heroes) == 0 {
		return
	}
	for _, h := range heroes {
		if h.Stat("moves_left") > 0 {
			return
		}
	}
	e.enterEnemyPhase(res)
}

func (e *Engine) enterEnemyPhase(res *types.Result) {
	e.Phase = types.EnemyDeciding
	emit(res, events.EnemyPhase, map[string]any{"turn": e.World.Turn}, "The enemies stir.")
	e.Log.WithField("turn", e.World.Turn).Debug("enemy phase")
}

// capHP lowers base hp to effective max_hp when it has drifted above.
// Entities without a positive max_hp are left alone.
func capHP(ent *entity.Entity) {
	limit := ent.Stat("max_hp")
	if limit <= 0 {
		return
	}
	if _, _, base := ent.Stats.Get("hp"); base > limit {
		ent.Stats.SetBase("hp", limit)
	}
}

func spend(ent *entity.Entity) {
	_, _, base := ent.Stats.Get("moves_left")
	ent.Stats.SetBase("moves_left", base-1)
}

func refund(ent *entity.Entity) {
	_, _, base := ent.Stats.Get("moves_left")
	ent.Stats.SetBase("moves_left", base+1)
}
