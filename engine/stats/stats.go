// Package stats implements the layered stat model: integer base values plus
// timed additive effects. An effective value is always base + active bonus.
package stats

import (
	"errors"
	"sort"
	"strings"
)

// TemporaryPrefix marks base entries that scripts use as one-turn bonuses.
// They are zeroed on every AdvanceTurn.
const TemporaryPrefix = "temporary_"

// ErrBadDuration is returned when an effect is added with a non-positive duration.
var ErrBadDuration = errors.New("effect duration must be positive")

// Effect is a timed additive modifier to one stat.
type Effect struct {
	Stat     string `json:"stat"`
	Value    int    `json:"value"`
	Duration int    `json:"duration"`
}

// Default describes how an absent stat is filled at construction: either a
// literal value or a copy of another stat's current base value.
type Default struct {
	Stat   string
	Value  int
	CopyOf string // non-empty: copy this stat instead of using Value
}

// DefaultTable is applied in order, so later rows may copy earlier ones.
var DefaultTable = []Default{
	{Stat: "max_hp", CopyOf: "max_hp"},
	{Stat: "hp", CopyOf: "max_hp"},
	{Stat: "max_mana", Value: 100},
	{Stat: "mana", CopyOf: "max_mana"},
	{Stat: "moves_count", Value: 3},
	{Stat: "moves_left", CopyOf: "moves_count"},
	{Stat: "damage_deal", Value: 0},
	{Stat: "view_range", Value: 4},
	{Stat: "move_range", Value: 4},
	{Stat: "attack_range", Value: 1},
	{Stat: "armor", Value: 0},
	{Stat: "defense", Value: 0},
}

// Block holds one entity's base stats and active effects.
type Block struct {
	base    map[string]int
	effects []Effect
}

// New creates a stat block from initial base values. The map is copied.
func New(base map[string]int) *Block {
	b := &Block{base: make(map[string]int, len(base))}
	for k, v := range base {
		b.base[k] = v
	}
	return b
}

// Restore rebuilds a stat block from saved base values and effects without
// applying defaults.
func Restore(base map[string]int, effects []Effect) *Block {
	b := New(base)
	b.effects = append([]Effect(nil), effects...)
	return b
}

// ApplyDefaults fills absent stats from the table. Present stats are never
// overwritten. Call once, at construction.
func (b *Block) ApplyDefaults(table []Default) {
	for _, d := range table {
		if _, ok := b.base[d.Stat]; ok {
			continue
		}
		if d.CopyOf != "" {
			b.base[d.Stat] = b.base[d.CopyOf]
		} else {
			b.base[d.Stat] = d.Value
		}
	}
}

// Get returns (effective, bonus, base) for a stat. Absent stats have base 0.
func (b *Block) Get(stat string) (effective, bonus, base int) {
	base = b.base[stat]
	bonus = b.Bonus(stat)
	return base + bonus, bonus, base
}

// Value returns the effective value of a stat.
func (b *Block) Value(stat string) int {
	eff, _, _ := b.Get(stat)
	return eff
}

// Bonus returns the sum of active effects on a stat.
func (b *Block) Bonus(stat string) int {
	bonus := 0
	for _, e := range b.effects {
		if e.Stat == stat {
			bonus += e.Value
		}
	}
	return bonus
}

// Has reports whether the stat exists in the base layer.
func (b *Block) Has(stat string) bool {
	_, ok := b.base[stat]
	return ok
}

// SetBase writes the base layer only.
func (b *Block) SetBase(stat string, value int) {
	b.base[stat] = value
}

// AddEffect appends a timed modifier.
func (b *Block) AddEffect(stat string, value, duration int) error {
	if duration <= 0 {
		return ErrBadDuration
	}
	b.effects = append(b.effects, Effect{Stat: stat, Value: value, Duration: duration})
	return nil
}

// AdvanceTurn decays every effect by one turn, drops expired effects, then
// zeroes every temporary_* base entry.
func (b *Block) AdvanceTurn() {
	surviving := b.effects[:0]
	for _, e := range b.effects {
		e.Duration--
		if e.Duration > 0 {
			surviving = append(surviving, e)
		}
	}
	// Clear the tail so dropped effects don't linger in the backing array.
	for i := len(surviving); i < len(b.effects); i++ {
		b.effects[i] = Effect{}
	}
	b.effects = surviving

	for k := range b.base {
		if strings.HasPrefix(k, TemporaryPrefix) {
			b.base[k] = 0
		}
	}
}

// Snapshot returns the effective value of every base stat as a detached map.
func (b *Block) Snapshot() map[string]int {
	snap := make(map[string]int, len(b.base))
	for k := range b.base {
		snap[k] = b.Value(k)
	}
	return snap
}

// Keys returns the base stat names in sorted order.
func (b *Block) Keys() []string {
	keys := make([]string, 0, len(b.base))
	for k := range b.base {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Base returns a copy of the base layer.
func (b *Block) Base() map[string]int {
	m := make(map[string]int, len(b.base))
	for k, v := range b.base {
		m[k] = v
	}
	return m
}

// Effects returns a copy of the active effects in application order.
func (b *Block) Effects() []Effect {
	return append([]Effect(nil), b.effects...)
}

