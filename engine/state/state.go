// Package state holds the immutable game definitions and the mutable world
// the combat controller operates on, plus lookup helpers over both.
package state

import (
	"fmt"
	"math"

	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/types"
)

// GameDef is the game metadata and grid size.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Intro   string
	Width   int
	Height  int
}

// Template describes how to build a new entity. HP and Level seed the base
// stats; Race and Class are ability scripts run self-on-self once at creation.
type Template struct {
	Name      string
	Role      types.Role
	HP        int
	Level     int
	Stats     map[string]int
	Abilities []types.Ability
	Race      string
	Class     string
	Boss      bool
}

// Placement puts a template instance on a cell at game start.
type Placement struct {
	Template string
	Cell     types.Cell
}

// WeightedTemplate is a template name with a relative spawn weight.
type WeightedTemplate struct {
	Template string
	Weight   int
}

// LairDef is a lair as declared by content. Roamers, when set, replaces
// Roamer with a weighted mix.
type LairDef struct {
	Cell            types.Cell
	GuardiansNeeded int
	Guardian        string // template name
	Roamer          string // template name
	Roamers         []WeightedTemplate
}

// Handler narrates an event. {key} placeholders in Say are replaced with the
// event's data values. When, if set, restricts the handler to events whose
// data carries every listed key with an equal value.
type Handler struct {
	EventType string
	Say       string
	When      map[string]any
}

// Defs holds the immutable game definitions loaded from Lua.
type Defs struct {
	Game      GameDef
	Templates map[string]Template
	Heroes    []Placement
	Enemies   []Placement
	Lairs     []LairDef
	Blocked   path.Set
	Handlers  []Handler
}

// LairAt returns the declared lair on cell c.
func (d *Defs) LairAt(c types.Cell) (LairDef, bool) {
	for _, l := range d.Lairs {
		if l.Cell == c {
			return l, true
		}
	}
	return LairDef{}, false
}

// InBounds reports whether c lies on the grid.
func (d *Defs) InBounds(c types.Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < d.Game.Width && c.Y < d.Game.Height
}

// Lair is the runtime state of a lair.
type Lair struct {
	Cell             types.Cell `json:"cell"`
	GuardiansNeeded  int        `json:"guardians_needed"`
	GuardiansSpawned bool       `json:"guardians_spawned"`
	SpawnTimer       int        `json:"spawn_timer"`
	Guardian         string     `json:"guardian,omitempty"`
	Roamer           string     `json:"roamer,omitempty"`
}

// Cleared reports whether the lair has lost all its guardians.
func (l *Lair) Cleared() bool { return l.GuardiansNeeded <= 0 }

// World is the mutable encounter state.
type World struct {
	Entities []*entity.Entity
	Lairs    []*Lair
	Turn     int
	NextID   int
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{Entities: []*entity.Entity{}, Lairs: []*Lair{}, NextID: 1}
}

// NewID hands out the next entity ID with the given prefix, e.g. "enemy-7".
func (w *World) NewID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, w.NextID)
	w.NextID++
	return id
}

// Add appends an entity to the world.
func (w *World) Add(e *entity.Entity) {
	w.Entities = append(w.Entities, e)
}

// Find returns the entity with the given ID, or nil.
func (w *World) Find(id string) *entity.Entity {
	for _, e := range w.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Heroes returns every hero in world order.
func (w *World) Heroes() []*entity.Entity {
	return w.byRole(types.RoleHero)
}

// Enemies returns every enemy in world order.
func (w *World) Enemies() []*entity.Entity {
	return w.byRole(types.RoleEnemy)
}

func (w *World) byRole(r types.Role) []*entity.Entity {
	var out []*entity.Entity
	for _, e := range w.Entities {
		if e.Role == r {
			out = append(out, e)
		}
	}
	return out
}

// EntityAt returns the entity standing on or heading to c, or nil.
func (w *World) EntityAt(c types.Cell) *entity.Entity {
	for _, e := range w.Entities {
		if e.Cell == c || e.Destination() == c {
			return e
		}
	}
	return nil
}

// Occupied returns every cell held by an entity other than except. Both the
// current cell and the final queued cell of a moving entity count.
func (w *World) Occupied(except *entity.Entity) path.Set {
	s := path.NewSet()
	for _, e := range w.Entities {
		if e == except {
			continue
		}
		s.Add(e.Cell)
		s.Add(e.Destination())
	}
	return s
}

// Remove deletes the given entities. Callers collect the set first and
// remove afterwards, never while iterating Entities.
func (w *World) Remove(dead []*entity.Entity) {
	if len(dead) == 0 {
		return
	}
	drop := make(map[*entity.Entity]bool, len(dead))
	for _, e := range dead {
		drop[e] = true
	}
	kept := w.Entities[:0]
	for _, e := range w.Entities {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(w.Entities); i++ {
		w.Entities[i] = nil
	}
	w.Entities = kept
}

// RemoveClearedLairs drops every lair with no guardians left and returns them.
func (w *World) RemoveClearedLairs() []*Lair {
	var cleared []*Lair
	kept := w.Lairs[:0]
	for _, l := range w.Lairs {
		if l.Cleared() {
			cleared = append(cleared, l)
			continue
		}
		kept = append(kept, l)
	}
	w.Lairs = kept
	return cleared
}

// NearestLair returns the closest uncleared lair strictly within radius
// cells of c, or nil.
func (w *World) NearestLair(c types.Cell, radius float64) *Lair {
	var best *Lair
	bestDist := math.Inf(1)
	for _, l := range w.Lairs {
		if l.Cleared() {
			continue
		}
		d := Distance(c, l.Cell)
		if d < radius && d < bestDist {
			best, bestDist = l, d
		}
	}
	return best
}

// NearestHero returns the Manhattan-nearest hero to c, or nil. Ties go to
// the earliest hero in world order.
func (w *World) NearestHero(c types.Cell) *entity.Entity {
	var best *entity.Entity
	bestDist := 0
	for _, h := range w.Heroes() {
		d := path.Manhattan(c, h.Cell)
		if best == nil || d < bestDist {
			best, bestDist = h, d
		}
	}
	return best
}

// Distance is the Euclidean distance between two cells.
func Distance(a, b types.Cell) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
