// Package engine provides the combat turn controller: the state machine that
// sequences player actions, the enemy decision pass, movement animation and
// turn rollover, plus the Step() text command front door.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/lairgrid/config"
	"github.com/nathoo/lairgrid/engine/effects"
	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/events"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/logger"
	"github.com/nathoo/lairgrid/types"
)

var (
	// ErrOutOfRange is carried in Result.Err when a target or destination is
	// beyond the acting hero's range.
	ErrOutOfRange = errors.New("out of range")
	// ErrNoActionPoints is carried in Result.Err when moves_left is spent.
	ErrNoActionPoints = errors.New("no action points left")
)

// defaultSettleTicks bounds Settle when the caller passes no limit.
const defaultSettleTicks = 10000

// Engine holds the game definitions, the mutable world and the turn state.
type Engine struct {
	Defs   *state.Defs
	World  *state.World
	RNG    *RNG
	Config config.Config
	Log    logrus.FieldLogger
	Phase  types.Phase

	active int // index into World.Heroes()
	status types.Status
}

// New creates an engine and populates the world from the definitions:
// heroes, starting enemies and lairs.
func New(defs *state.Defs, cfg config.Config) *Engine {
	e := &Engine{
		Defs:   defs,
		World:  state.NewWorld(),
		RNG:    NewRNG(cfg.Seed),
		Config: cfg,
		Log:    logger.Log.WithField("component", "engine"),
		Phase:  types.PlayerTurn,
	}

	for _, p := range defs.Heroes {
		if _, err := e.Spawn(p.Template, p.Cell, types.RoleHero); err != nil {
			e.Log.WithError(err).Warn("skipping hero placement")
		}
	}
	for _, p := range defs.Enemies {
		if _, err := e.Spawn(p.Template, p.Cell, types.RoleEnemy); err != nil {
			e.Log.WithError(err).Warn("skipping enemy placement")
		}
	}
	for _, ld := range defs.Lairs {
		e.World.Lairs = append(e.World.Lairs, &state.Lair{
			Cell:            ld.Cell,
			GuardiansNeeded: ld.GuardiansNeeded,
			SpawnTimer:      e.RNG.Between(cfg.SpawnIntervalMin, cfg.SpawnIntervalMax),
			Guardian:        ld.Guardian,
			Roamer:          ld.Roamer,
		})
	}
	return e
}

// RestoreRNG re-creates the RNG from seed and advances to the saved position.
func (e *Engine) RestoreRNG(seed int64, position int64) {
	e.RNG = RestoreRNG(seed, position)
}

// Spawn builds a new entity from a named template and adds it to the world.
// The role argument overrides the template's role.
func (e *Engine) Spawn(name string, cell types.Cell, role types.Role) (*entity.Entity, error) {
	tmpl, ok := e.Defs.Templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}
	tmpl.Role = role
	return e.spawnTemplate(tmpl, cell), nil
}

// spawnTemplate runs the new-entity pipeline: hp and level seed the base
// stats, template stats are merged, the default table fills the gaps, then
// the race and class scripts run with the entity as both source and target.
func (e *Engine) spawnTemplate(t state.Template, cell types.Cell) *entity.Entity {
	hp := t.HP
	if hp == 0 {
		hp = 10
	}
	level := t.Level
	if level == 0 {
		level = 1
	}
	base := map[string]int{"max_hp": hp, "level": level}
	for k, v := range t.Stats {
		base[k] = v
	}

	ent := entity.New(e.World.NewID(t.Role.String()), t.Name, t.Role, base, t.Abilities, cell, e.Config.TileSize)
	if ent.Enemy != nil {
		ent.Enemy.Boss = t.Boss
	}

	for _, s := range []struct{ kind, src string }{{"race", t.Race}, {"class", t.Class}} {
		if strings.TrimSpace(s.src) == "" {
			continue
		}
		if _, err := effects.Apply(ent, ent, s.src, e.RNG); err != nil {
			e.Log.WithFields(logrus.Fields{
				"template": t.Name,
				"script":   s.kind,
			}).WithError(err).Warn("template script failed")
		}
	}

	e.World.Add(ent)
	e.Log.WithFields(logrus.Fields{"id": ent.ID, "cell": cell.String()}).Debug("spawned")
	return ent
}

// Status reports whether the encounter is ongoing, won or lost. Victory
// needs at least one declared lair, all of them cleared.
func (e *Engine) Status() types.Status {
	if len(e.World.Heroes()) == 0 {
		return types.Defeat
	}
	if len(e.Defs.Lairs) > 0 {
		for _, l := range e.World.Lairs {
			if !l.Cleared() {
				return types.Ongoing
			}
		}
		return types.Victory
	}
	return types.Ongoing
}

// ActiveHero returns the hero that text commands act on, or nil.
func (e *Engine) ActiveHero() *entity.Entity {
	heroes := e.World.Heroes()
	if len(heroes) == 0 {
		return nil
	}
	return heroes[e.active%len(heroes)]
}

// NextHero cycles the active hero and returns it.
func (e *Engine) NextHero() *entity.Entity {
	heroes := e.World.Heroes()
	if len(heroes) == 0 {
		return nil
	}
	e.active = (e.active%len(heroes) + 1) % len(heroes)
	return heroes[e.active]
}

// SetActive makes the hero with the given ID active.
func (e *Engine) SetActive(id string) bool {
	for i, h := range e.World.Heroes() {
		if h.ID == id {
			e.active = i
			return true
		}
	}
	return false
}

// Moving reports whether any entity still has queued steps.
func (e *Engine) Moving() bool {
	for _, ent := range e.World.Entities {
		if ent.IsMoving() {
			return true
		}
	}
	return false
}

// emit records an event with an optional narration line.
func emit(res *types.Result, typ string, data map[string]any, line string) {
	res.Events = append(res.Events, types.Event{Type: typ, Data: data})
	if line != "" {
		res.Output = append(res.Output, line)
	}
}

// finish raises the win/loss events once and appends handler narration.
func (e *Engine) finish(res *types.Result) {
	if st := e.Status(); st != e.status {
		e.status = st
		switch st {
		case types.Victory:
			emit(res, events.Victory, nil, "Every lair has fallen. Victory!")
			e.Log.WithField("turn", e.World.Turn).Info("victory")
		case types.Defeat:
			emit(res, events.Defeat, nil, "The last hero has fallen.")
			e.Log.WithField("turn", e.World.Turn).Info("defeat")
		}
	}
	res.Output = append(res.Output, events.Dispatch(res.Events, e.Defs.Handlers)...)
}

// merge appends one result's events and output to another.
func merge(dst *types.Result, src types.Result) {
	dst.Events = append(dst.Events, src.Events...)
	dst.Output = append(dst.Output, src.Output...)
}

func fail(reason types.Reason, err error, msg string) types.Result {
	r := types.Result{Reason: reason, Err: err}
	if msg != "" {
		r.Output = []string{msg}
	}
	return r
}
