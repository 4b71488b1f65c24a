// Package entity defines combat participants: role, stat block, abilities,
// grid cell and the movement queue that drives animation.
package entity

import (
	"math"

	"github.com/nathoo/lairgrid/engine/stats"
	"github.com/nathoo/lairgrid/types"
)

// DefaultTileSize is the world-space width of one grid cell.
const DefaultTileSize = 120.0

// EnemyTraits is carried only by enemies.
type EnemyTraits struct {
	Guardian bool
	Boss     bool
}

// Entity is a hero, enemy, NPC or item on the grid.
type Entity struct {
	ID        string
	Name      string
	Role      types.Role
	Enemy     *EnemyTraits // nil unless Role == RoleEnemy
	Stats     *stats.Block
	Abilities []types.Ability
	Selected  int // index into Abilities, -1 when nothing is selected

	Cell  types.Cell
	Pos   types.Vec
	Queue []types.Cell
}

// New creates an entity for a fresh game. The default stat table is applied
// to absent stats exactly once, here.
func New(id, name string, role types.Role, base map[string]int, abilities []types.Ability, cell types.Cell, tileSize float64) *Entity {
	block := stats.New(base)
	block.ApplyDefaults(stats.DefaultTable)
	e := &Entity{
		ID:        id,
		Name:      name,
		Role:      role,
		Stats:     block,
		Abilities: append([]types.Ability(nil), abilities...),
		Selected:  -1,
	}
	if role == types.RoleEnemy {
		e.Enemy = &EnemyTraits{}
	}
	e.Place(cell, tileSize)
	return e
}

// IsHero reports whether the entity is a hero.
func (e *Entity) IsHero() bool { return e.Role == types.RoleHero }

// IsEnemy reports whether the entity is an enemy.
func (e *Entity) IsEnemy() bool { return e.Role == types.RoleEnemy }

// IsGuardian reports whether the entity guards a lair.
func (e *Entity) IsGuardian() bool { return e.Enemy != nil && e.Enemy.Guardian }

// IsMoving reports whether the entity still has queued steps.
func (e *Entity) IsMoving() bool { return len(e.Queue) > 0 }

// Alive reports whether effective hp is above zero.
func (e *Entity) Alive() bool { return e.Stats.Value("hp") > 0 }

// Stat is shorthand for the effective value of a stat.
func (e *Entity) Stat(name string) int { return e.Stats.Value(name) }

// Place snaps the entity to a cell and clears any pending movement.
func (e *Entity) Place(cell types.Cell, tileSize float64) {
	e.Cell = cell
	e.Pos = CellCenter(cell, tileSize)
	e.Queue = nil
}

// SelectedAbility returns the selected ability, falling back to the first one.
func (e *Entity) SelectedAbility() (types.Ability, bool) {
	if e.Selected >= 0 && e.Selected < len(e.Abilities) {
		return e.Abilities[e.Selected], true
	}
	if len(e.Abilities) > 0 {
		return e.Abilities[0], true
	}
	return types.Ability{}, false
}

// Step moves the entity up to speed world units toward the head of its queue.
// Arriving at a cell centre pops it and updates Cell. Returns true while the
// entity still has queued steps.
func (e *Entity) Step(speed, tileSize float64) bool {
	if len(e.Queue) == 0 {
		return false
	}
	next := e.Queue[0]
	goal := CellCenter(next, tileSize)
	dx := goal.X - e.Pos.X
	dy := goal.Y - e.Pos.Y
	dist := math.Hypot(dx, dy)

	if dist <= speed {
		e.Pos = goal
		e.Cell = next
		e.Queue = e.Queue[1:]
	} else {
		e.Pos.X += dx / dist * speed
		e.Pos.Y += dy / dist * speed
	}
	return len(e.Queue) > 0
}

// Destination is the cell the entity will occupy once its queue drains.
func (e *Entity) Destination() types.Cell {
	if len(e.Queue) > 0 {
		return e.Queue[len(e.Queue)-1]
	}
	return e.Cell
}

// CellCenter converts a grid cell to the world coordinate of its centre.
func CellCenter(c types.Cell, tileSize float64) types.Vec {
	return types.Vec{
		X: float64(c.X)*tileSize + tileSize/2,
		Y: float64(c.Y)*tileSize + tileSize/2,
	}
}
