package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/lairgrid/engine/events"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/types"
)

// roamAttempts bounds the random search for a free cell per roamer.
const roamAttempts = 12

// wakeGuardians spawns the guardians of every dormant lair that a hero has
// come close to. Each lair wakes at most once.
func (e *Engine) wakeGuardians(res *types.Result) {
	for _, l := range e.World.Lairs {
		if l.GuardiansSpawned || !e.heroNear(l.Cell, e.Config.GuardianWakeRadius) {
			continue
		}
		l.GuardiansSpawned = true

		spawned := 0
	ring:
		for dx := -2; dx <= 2 && spawned < e.Config.GuardianCount; dx++ {
			for dy := -2; dy <= 2 && spawned < e.Config.GuardianCount; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				c := types.Cell{X: l.Cell.X + dx, Y: l.Cell.Y + dy}
				if !e.free(c) {
					continue
				}
				g, err := e.Spawn(l.Guardian, c, types.RoleEnemy)
				if err != nil {
					e.Log.WithError(err).WithField("lair", l.Cell.String()).Warn("cannot spawn guardian")
					break ring
				}
				g.Enemy.Guardian = true
				spawned++
			}
		}

		emit(res, events.GuardiansWoke, map[string]any{"cell": l.Cell, "count": spawned},
			fmt.Sprintf("Guardians rise around the lair at %s!", l.Cell))
		e.Log.WithFields(logrus.Fields{"lair": l.Cell.String(), "count": spawned}).Info("guardians woke")
	}
}

// tickLairs counts every lair's spawn timer down by one turn and releases
// roamers when it runs out.
func (e *Engine) tickLairs(res *types.Result) {
	for _, l := range e.World.Lairs {
		if l.Cleared() {
			continue
		}
		l.SpawnTimer--
		if l.SpawnTimer > 0 {
			continue
		}
		n := e.spawnRoamers(l)
		l.SpawnTimer = e.RNG.Between(e.Config.SpawnIntervalMin, e.Config.SpawnIntervalMax)
		emit(res, events.RoamersSpawn, map[string]any{"cell": l.Cell, "count": n},
			fmt.Sprintf("%d monsters crawl out of the lair at %s.", n, l.Cell))
		e.Log.WithFields(logrus.Fields{
			"lair":  l.Cell.String(),
			"count": n,
			"next":  l.SpawnTimer,
		}).Info("roamers spawned")
	}
}

func (e *Engine) spawnRoamers(l *state.Lair) int {
	spread := e.Config.RoamingSpread
	n := 0
	for i := 0; i < e.Config.RoamingCount; i++ {
		for try := 0; try < roamAttempts; try++ {
			c := types.Cell{
				X: l.Cell.X + e.RNG.Between(-spread, spread),
				Y: l.Cell.Y + e.RNG.Between(-spread, spread),
			}
			if !e.free(c) {
				continue
			}
			if _, err := e.Spawn(e.roamerTemplate(l), c, types.RoleEnemy); err != nil {
				e.Log.WithError(err).WithField("lair", l.Cell.String()).Warn("cannot spawn roamer")
				return n
			}
			n++
			break
		}
	}
	return n
}

// roamerTemplate picks the template for one roamer. Lairs declared with a
// weighted mix roll for it; the rest always use their single roamer.
func (e *Engine) roamerTemplate(l *state.Lair) string {
	def, ok := e.Defs.LairAt(l.Cell)
	if !ok || len(def.Roamers) == 0 {
		return l.Roamer
	}
	weights := make([]int, len(def.Roamers))
	for i, r := range def.Roamers {
		weights[i] = r.Weight
	}
	i := e.RNG.Weighted(weights)
	if i < 0 {
		return l.Roamer
	}
	return def.Roamers[i].Template
}

// heroNear reports whether any hero is strictly within radius cells of c.
func (e *Engine) heroNear(c types.Cell, radius float64) bool {
	for _, h := range e.World.Heroes() {
		if state.Distance(h.Cell, c) < radius {
			return true
		}
	}
	return false
}

// free reports whether c is on the grid, not blocked and not occupied.
func (e *Engine) free(c types.Cell) bool {
	return e.Defs.InBounds(c) && !e.Defs.Blocked.Has(c) && e.World.EntityAt(c) == nil
}
