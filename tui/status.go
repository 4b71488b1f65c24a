package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/lairgrid/types"
)

// phaseLabel is the short phase name shown in the status bar.
func phaseLabel(p types.Phase, st types.Status) string {
	switch st {
	case types.Victory:
		return "VICTORY"
	case types.Defeat:
		return "DEFEAT"
	}
	switch p {
	case types.EnemyDeciding, types.EnemyMoving:
		return "Enemy turn"
	}
	return "Your turn"
}

// renderStatusBar produces a full-width inverted status line showing the
// active hero, the phase and the turn count.
func (m Model) renderStatusBar() string {
	e := m.engine
	left := " " + phaseLabel(e.Phase, e.Status())
	if hero := e.ActiveHero(); hero != nil {
		left += fmt.Sprintf(" | %s %s hp %d/%d ap %d/%d",
			hero.Name, hero.Cell, hero.Stat("hp"), hero.Stat("max_hp"),
			hero.Stat("moves_left"), hero.Stat("moves_count"))
		if ab, ok := hero.SelectedAbility(); ok {
			left += " | " + ab.Name
		}
	}

	right := fmt.Sprintf("T:%d ", e.World.Turn)
	// Show the roster if it fits, otherwise just the turn.
	candidate := fmt.Sprintf("H:%d E:%d L:%d | T:%d ",
		len(e.World.Heroes()), len(e.World.Enemies()), len(e.World.Lairs), e.World.Turn)
	if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
		right = candidate
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
