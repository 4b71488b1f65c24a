package events

import (
	"fmt"

	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/types"
)

// Matches checks a handler's event type and When criteria against an event.
// Values compare by their printed form, so Lua's 4 matches an int 4 and
// "(3,4)" matches a Cell.
func Matches(h state.Handler, ev types.Event) bool {
	if h.EventType != ev.Type {
		return false
	}
	for k, want := range h.When {
		got, ok := ev.Data[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Specificity ranks handlers for one event. Higher is more specific.
func Specificity(h state.Handler) int {
	return len(h.When)
}
