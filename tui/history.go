// Package tui provides a Bubble Tea terminal UI for the lairgrid engine.
package tui

// History keeps recent commands, oldest first, with a browsing cursor.
// Re-entering a command moves it to the newest position.
type History struct {
	entries []string
	limit   int
	cursor  int // len(entries) when not browsing
}

// NewHistory creates a history holding at most limit commands.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Len returns the number of stored commands.
func (h *History) Len() int { return len(h.entries) }

// Push records cmd as the newest entry.
func (h *History) Push(cmd string) {
	for i, e := range h.entries {
		if e == cmd {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, cmd)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
	h.cursor = len(h.entries)
}

// Prev steps towards older entries, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps towards newer entries. Stepping past the newest returns false
// and ends browsing.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor ends browsing.
func (h *History) ResetCursor() {
	h.cursor = len(h.entries)
}
