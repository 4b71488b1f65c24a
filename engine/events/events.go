// Package events implements single-pass event handler dispatch.
// Handlers narrate events but never emit new ones, so dispatch does not recurse.
package events

import (
	"fmt"
	"strings"

	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/types"
)

// Event types emitted by the combat controller.
const (
	AbilityUsed   = "ability_used"
	AbilityFailed = "ability_failed"
	EntityMoved   = "entity_moved"
	EntityDied    = "entity_died"
	GuardiansWoke = "guardians_woke"
	RoamersSpawn  = "roamers_spawned"
	LairCleared   = "lair_cleared"
	TurnStarted   = "turn_started"
	EnemyPhase    = "enemy_phase"
	Victory       = "victory"
	Defeat        = "defeat"
)

var known = map[string]bool{
	AbilityUsed: true, AbilityFailed: true, EntityMoved: true, EntityDied: true,
	GuardiansWoke: true, RoamersSpawn: true, LairCleared: true, TurnStarted: true,
	EnemyPhase: true, Victory: true, Defeat: true,
}

// Known reports whether the controller ever emits events of this type.
func Known(typ string) bool { return known[typ] }

// Dispatch runs handlers against the emitted events and returns their
// narration lines in event order. Per event only the most specific matching
// handlers speak; ties all fire in declaration order. Single pass, no recursion.
func Dispatch(evts []types.Event, handlers []state.Handler) []string {
	var out []string
	for _, ev := range evts {
		best := -1
		for _, h := range handlers {
			if Matches(h, ev) && Specificity(h) > best {
				best = Specificity(h)
			}
		}
		if best < 0 {
			continue
		}
		for _, h := range handlers {
			if !Matches(h, ev) || Specificity(h) != best {
				continue
			}
			if line := Expand(h.Say, ev.Data); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// Expand replaces {key} placeholders with the matching event data values.
// Unknown keys are left as written.
func Expand(tmpl string, data map[string]any) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		key := tmpl[open+1 : open+end]
		b.WriteString(tmpl[:open])
		if v, ok := data[key]; ok {
			fmt.Fprint(&b, v)
		} else {
			b.WriteString(tmpl[open : open+end+1])
		}
		tmpl = tmpl[open+end+1:]
	}
	return b.String()
}
