package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/lairgrid/engine/events"
	"github.com/nathoo/lairgrid/engine/script"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/logger"
	"github.com/nathoo/lairgrid/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks the compiled defs for referential integrity, grid
// consistency and script syntax.
func validate(defs *state.Defs) error {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.title is required")
	}
	if defs.Game.Width <= 0 || defs.Game.Height <= 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"Game.width and Game.height must be positive, got %dx%d", defs.Game.Width, defs.Game.Height))
	}

	// Templates are visited in name order so messages are stable.
	names := make([]string, 0, len(defs.Templates))
	for id := range defs.Templates {
		names = append(names, id)
	}
	sort.Strings(names)
	for _, id := range names {
		validateTemplate(id, defs.Templates[id], ve)
	}

	if len(defs.Heroes) == 0 {
		ve.Errors = append(ve.Errors, "no heroes are placed")
	}
	occupied := map[types.Cell]string{}
	for _, p := range append(append([]state.Placement(nil), defs.Heroes...), defs.Enemies...) {
		checkCell(defs, ve, fmt.Sprintf("placement of %q", p.Template), p.Cell)
		if other, ok := occupied[p.Cell]; ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"placement of %q at %s overlaps %q", p.Template, p.Cell, other))
		}
		occupied[p.Cell] = p.Template
	}

	for i, l := range defs.Lairs {
		where := fmt.Sprintf("lair %d", i+1)
		checkCell(defs, ve, where, l.Cell)
		if l.GuardiansNeeded <= 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s needs a positive guardian count", where))
		}
		checkEnemyRef(defs, ve, where+" guardian", l.Guardian)
		if len(l.Roamers) == 0 {
			checkEnemyRef(defs, ve, where+" roamer", l.Roamer)
		}
		for _, r := range l.Roamers {
			checkEnemyRef(defs, ve, where+" roamer", r.Template)
			if r.Weight <= 0 {
				ve.Errors = append(ve.Errors, fmt.Sprintf("%s roamer %q needs a positive weight", where, r.Template))
			}
		}
	}

	for c := range defs.Blocked {
		if !defs.InBounds(c) {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("blocked cell %s is off the grid", c))
		}
	}

	for _, h := range defs.Handlers {
		if !events.Known(h.EventType) {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"handler for unknown event type %q will never fire", h.EventType))
		}
	}

	// Log warnings (non-fatal).
	for _, w := range ve.Warnings {
		logger.Log.WithField("component", "loader").Warn(w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateTemplate(id string, t state.Template, ve *ValidationError) {
	for _, s := range []struct{ kind, src string }{{"race", t.Race}, {"class", t.Class}} {
		if strings.TrimSpace(s.src) == "" {
			continue
		}
		if _, err := script.Parse(s.src); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("template %q %s script: %v", id, s.kind, err))
		}
	}
	for _, ab := range t.Abilities {
		if strings.TrimSpace(ab.Effect) == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("template %q ability %q has no effect", id, ab.Name))
			continue
		}
		if _, err := script.Parse(ab.Effect); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("template %q ability %q: %v", id, ab.Name, err))
		}
		if ab.Target != "enemy" && ab.Target != "self" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"template %q ability %q target must be \"enemy\" or \"self\", got %q", id, ab.Name, ab.Target))
		}
	}
	if t.Boss && t.Role != types.RoleEnemy {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("template %q is marked boss but is a %s", id, t.Role))
	}
}

func checkCell(defs *state.Defs, ve *ValidationError, what string, c types.Cell) {
	if defs.Game.Width <= 0 || defs.Game.Height <= 0 {
		return
	}
	if !defs.InBounds(c) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s at %s is off the %dx%d grid",
			what, c, defs.Game.Width, defs.Game.Height))
		return
	}
	if defs.Blocked.Has(c) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s at %s is on a blocked cell", what, c))
	}
}

func checkEnemyRef(defs *state.Defs, ve *ValidationError, what, id string) {
	if id == "" {
		ve.Errors = append(ve.Errors, what+" template is required")
		return
	}
	t, ok := defs.Templates[id]
	if !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s %q is not a defined template", what, id))
		return
	}
	if t.Role != types.RoleEnemy {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s %q must be an Enemy template, not %s", what, id, t.Role))
	}
}
