package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/types"
)

// Map glyphs shared by the CLI and TUI renderers.
const (
	GlyphFloor    = '.'
	GlyphBlocked  = '#'
	GlyphLair     = 'L'
	GlyphActive   = '@'
	GlyphHero     = 'H'
	GlyphEnemy    = 'e'
	GlyphGuardian = 'G'
	GlyphBoss     = 'B'
	GlyphNPC      = 'n'
	GlyphItem     = 'i'
)

// viewRadius limits text map rendering on large grids.
const viewRadius = 12

// Glyph returns the map character for a cell. Entities draw over lairs,
// lairs over terrain.
func (e *Engine) Glyph(c types.Cell) rune {
	if ent := e.entityOn(c); ent != nil {
		return e.entityGlyph(ent)
	}
	for _, l := range e.World.Lairs {
		if l.Cell == c {
			return GlyphLair
		}
	}
	if e.Defs.Blocked.Has(c) {
		return GlyphBlocked
	}
	return GlyphFloor
}

func (e *Engine) entityOn(c types.Cell) *entity.Entity {
	for _, ent := range e.World.Entities {
		if ent.Cell == c {
			return ent
		}
	}
	return nil
}

func (e *Engine) entityGlyph(ent *entity.Entity) rune {
	switch ent.Role {
	case types.RoleHero:
		if ent == e.ActiveHero() {
			return GlyphActive
		}
		return GlyphHero
	case types.RoleEnemy:
		switch {
		case ent.Enemy != nil && ent.Enemy.Boss:
			return GlyphBoss
		case ent.IsGuardian():
			return GlyphGuardian
		}
		return GlyphEnemy
	case types.RoleNPC:
		return GlyphNPC
	}
	return GlyphItem
}

// Viewport returns the cell window rendered around the active hero. Grids
// that fit inside the window are shown whole.
func (e *Engine) Viewport() (lo, hi types.Cell) {
	w, h := e.Defs.Game.Width, e.Defs.Game.Height
	lo, hi = types.Cell{}, types.Cell{X: w - 1, Y: h - 1}
	centre := types.Cell{X: w / 2, Y: h / 2}
	if hero := e.ActiveHero(); hero != nil {
		centre = hero.Cell
	}
	if w > 2*viewRadius+1 {
		lo.X = clamp(centre.X-viewRadius, 0, w-2*viewRadius-1)
		hi.X = lo.X + 2*viewRadius
	}
	if h > 2*viewRadius+1 {
		lo.Y = clamp(centre.Y-viewRadius, 0, h-2*viewRadius-1)
		hi.Y = lo.Y + 2*viewRadius
	}
	return lo, hi
}

// RenderMap draws the viewport as text, one row per line.
func (e *Engine) RenderMap() []string {
	lo, hi := e.Viewport()
	lines := make([]string, 0, hi.Y-lo.Y+1)
	for y := lo.Y; y <= hi.Y; y++ {
		var b strings.Builder
		for x := lo.X; x <= hi.X; x++ {
			b.WriteRune(e.Glyph(types.Cell{X: x, Y: y}))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// DescribeEntity is a one-line summary: id, name, cell and key stats.
func DescribeEntity(ent *entity.Entity) string {
	hp, hpBonus, _ := ent.Stats.Get("hp")
	line := fmt.Sprintf("%-10s %-18s %-8s hp %d/%d", ent.ID, ent.Name, ent.Cell, hp, ent.Stat("max_hp"))
	if hpBonus != 0 {
		line += fmt.Sprintf(" (%+d)", hpBonus)
	}
	if ent.IsHero() {
		line += fmt.Sprintf("  ap %d/%d  mana %d/%d", ent.Stat("moves_left"), ent.Stat("moves_count"),
			ent.Stat("mana"), ent.Stat("max_mana"))
	}
	if ent.IsGuardian() {
		line += "  [guardian]"
	}
	return line
}

// DescribeStats lists every stat as "name effective (base+bonus)".
func DescribeStats(ent *entity.Entity) []string {
	var out []string
	for _, k := range ent.Stats.Keys() {
		eff, bonus, base := ent.Stats.Get(k)
		if bonus != 0 {
			out = append(out, fmt.Sprintf("  %-14s %d (%d%+d)", k, eff, base, bonus))
		} else {
			out = append(out, fmt.Sprintf("  %-14s %d", k, eff))
		}
	}
	for _, fx := range ent.Stats.Effects() {
		out = append(out, fmt.Sprintf("  effect: %s %+d for %d turn(s)", fx.Stat, fx.Value, fx.Duration))
	}
	return out
}

// describeLairs lists lairs closest to the active hero first.
func (e *Engine) describeLairs() []string {
	lairs := append(e.World.Lairs[:0:0], e.World.Lairs...)
	if hero := e.ActiveHero(); hero != nil {
		sort.SliceStable(lairs, func(i, j int) bool {
			return path.Manhattan(hero.Cell, lairs[i].Cell) < path.Manhattan(hero.Cell, lairs[j].Cell)
		})
	}
	var out []string
	for _, l := range lairs {
		mood := "dormant"
		if l.GuardiansSpawned {
			mood = "awake"
		}
		out = append(out, fmt.Sprintf("Lair at %s: %d guardian(s) left, %s, roamers in %d turn(s).",
			l.Cell, l.GuardiansNeeded, mood, l.SpawnTimer))
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

