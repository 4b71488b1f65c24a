package entity

import (
	"github.com/nathoo/lairgrid/engine/stats"
	"github.com/nathoo/lairgrid/types"
)

// Record is the persistence shape of an entity: base stats only, effects as
// stat/value/duration triples, no derived values.
type Record struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	Stats     map[string]int  `json:"stats"`
	Effects   []stats.Effect  `json:"effects"`
	Abilities []types.Ability `json:"abilities"`
	Cell      types.Cell      `json:"cell"`
	Guardian  bool            `json:"is_guardian,omitempty"`
	Boss      bool            `json:"is_boss,omitempty"`
}

// Export captures the entity's full state.
func (e *Entity) Export() Record {
	r := Record{
		ID:        e.ID,
		Name:      e.Name,
		Role:      e.Role.String(),
		Stats:     e.Stats.Base(),
		Effects:   e.Stats.Effects(),
		Abilities: append([]types.Ability(nil), e.Abilities...),
		Cell:      e.Destination(),
	}
	if e.Enemy != nil {
		r.Guardian = e.Enemy.Guardian
		r.Boss = e.Enemy.Boss
	}
	if r.Effects == nil {
		r.Effects = []stats.Effect{}
	}
	if r.Abilities == nil {
		r.Abilities = []types.Ability{}
	}
	return r
}

// Restore rebuilds an entity from a record without running the default
// table or any race/class scripts. Unknown roles fall back to enemy.
func Restore(r Record, tileSize float64) *Entity {
	role, ok := types.ParseRole(r.Role)
	if !ok {
		role = types.RoleEnemy
	}
	e := &Entity{
		ID:        r.ID,
		Name:      r.Name,
		Role:      role,
		Stats:     stats.Restore(r.Stats, r.Effects),
		Abilities: append([]types.Ability(nil), r.Abilities...),
		Selected:  -1,
	}
	if role == types.RoleEnemy {
		e.Enemy = &EnemyTraits{Guardian: r.Guardian, Boss: r.Boss}
	}
	e.Place(r.Cell, tileSize)
	return e
}
