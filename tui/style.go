package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/lairgrid/engine"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleTurn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	styleDeath = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleLair = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleOutcome = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleMapBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))
)

// glyphStyles colours map cells by what occupies them.
var glyphStyles = map[rune]lipgloss.Style{
	engine.GlyphFloor:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	engine.GlyphBlocked:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	engine.GlyphLair:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	engine.GlyphActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
	engine.GlyphHero:     lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	engine.GlyphEnemy:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	engine.GlyphGuardian: lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
	engine.GlyphBoss:     lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),
	engine.GlyphNPC:      lipgloss.NewStyle().Foreground(lipgloss.Color("228")),
	engine.GlyphItem:     lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
}

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindTurn
	kindDeath
	kindLair
	kindOutcome
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Turn ") && strings.HasSuffix(line, "Your move."),
		line == "The enemies stir.":
		return kindTurn
	case strings.HasSuffix(line, " dies."):
		return kindDeath
	case strings.Contains(line, "lair at"), strings.HasPrefix(line, "Lair at"):
		return kindLair
	case strings.HasSuffix(line, "Victory!"), line == "The last hero has fallen.":
		return kindOutcome
	default:
		return kindNarration
	}
}

// renderGlyph styles one map cell.
func renderGlyph(g rune) string {
	if st, ok := glyphStyles[g]; ok {
		return st.Render(string(g))
	}
	return string(g)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
