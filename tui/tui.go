package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/lairgrid/cli"
	"github.com/nathoo/lairgrid/engine"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/storage"
	"github.com/nathoo/lairgrid/types"
)

// frameInterval is the animation tick while entities move or enemies act.
const frameInterval = time.Second / 30

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
	isError  bool // true for refused commands
}

// Model is the Bubble Tea model for the lairgrid TUI.
type Model struct {
	engine *engine.Engine
	defs   *state.Defs
	store  *storage.Store

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated log lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	ticking  bool
	trace    bool
	quitting bool
	lastCmd  string
	saveDir  string
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro and ticks)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
	isError  bool     // true when the engine refused the command
}

// tickMsg advances the engine by one frame.
type tickMsg time.Time

// New creates a TUI model wired to the given engine. store may be nil, in
// which case saves are JSON files under the configured save directory.
func New(eng *engine.Engine, defs *state.Defs, store *storage.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		engine:  eng,
		defs:    defs,
		store:   store,
		input:   ti,
		history: NewHistory(100),
		saveDir: eng.Config.SaveDir,
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, defs *state.Defs, store *storage.Store) error {
	m := New(eng, defs, store)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the intro text.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		var lines []string
		lines = append(lines, m.defs.Game.Title+" v"+m.defs.Game.Version+" by "+m.defs.Game.Author)
		lines = append(lines, "")
		if m.defs.Game.Intro != "" {
			lines = append(lines, m.defs.Game.Intro)
			lines = append(lines, "")
		}
		lines = append(lines, m.engine.Step("status").Output...)
		lines = append(lines, "Type /help for commands.")
		return gameOutputMsg{lines: lines}
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// busy reports whether the engine needs ticks to reach the next player turn.
func (m Model) busy() bool {
	return m.engine.Phase != types.PlayerTurn || m.engine.Moving()
}

// startTicking schedules the animation loop unless it already runs.
func (m Model) startTicking() (Model, tea.Cmd) {
	if m.ticking || !m.busy() {
		return m, nil
	}
	m.ticking = true
	return m, tick()
}

// Update handles messages (key presses, window resize, ticks, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		logW, logH := m.logSize()
		if !m.ready {
			m.viewport = viewport.New(logW, logH)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = logW
			m.viewport.Height = logH
		}
		m.refreshViewport()

	case tickMsg:
		res := m.engine.Update()
		if len(res.Output) > 0 {
			m = m.appendOutput(gameOutputMsg{lines: m.withTrace(res)})
		}
		if m.busy() {
			return m, tick()
		}
		m.ticking = false
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "tab":
			return m.runCommand("next")

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m.startTicking()
	}

	return m.runCommand(input)
}

// runCommand sends one game command to the engine and starts the tick loop
// if the command set anything in motion.
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	result := m.engine.Step(input)
	m = m.appendOutput(gameOutputMsg{
		input:   input,
		lines:   m.withTrace(result),
		isError: !result.OK && result.Reason != "",
	})
	return m.startTicking()
}

func (m Model) withTrace(result types.Result) []string {
	if !m.trace {
		return result.Output
	}
	return append(append([]string(nil), result.Output...), m.formatTrace(result)...)
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem, isError: msg.isError}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator after each command.
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{})
	}

	m.refreshViewport()
	return m
}

// mapWidth is the rendered width of the map panel including its border.
func (m Model) mapWidth() int {
	lo, hi := m.engine.Viewport()
	return hi.X - lo.X + 1 + 2
}

// logSize is the log viewport size beside the map, above the status bar
// and input line.
func (m Model) logSize() (int, int) {
	w := m.width - m.mapWidth() - 1
	if w < 10 {
		w = 10
	}
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return w, h
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.viewport.Width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		case rl.isError:
			styled = append(styled, styleError.Render(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindTurn:
		return styleTurn.Render(line)
	case kindDeath:
		return styleDeath.Render(line)
	case kindLair:
		return styleLair.Render(line)
	case kindOutcome:
		return styleOutcome.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// renderMap draws the engine's viewport window with coloured glyphs.
func (m Model) renderMap() string {
	lo, hi := m.engine.Viewport()
	rows := make([]string, 0, hi.Y-lo.Y+1)
	for y := lo.Y; y <= hi.Y; y++ {
		var b strings.Builder
		for x := lo.X; x <= hi.X; x++ {
			b.WriteString(renderGlyph(m.engine.Glyph(types.Cell{X: x, Y: y})))
		}
		rows = append(rows, b.String())
	}
	return styleMapBorder.Render(strings.Join(rows, "\n"))
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wLen := len(word)
		switch {
		case i == 0:
			lineLen = wLen
		case lineLen+1+wLen > width:
			result.WriteString("\n")
			lineLen = wLen
		default:
			result.WriteString(" ")
			lineLen += 1 + wLen
		}
		result.WriteString(word)
	}
	return result.String()
}

// View renders the full TUI layout: map beside the log, then the status bar
// and input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderMap(), " ", m.viewport.View())
	return body + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}
	ctx := context.Background()

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		if arg == "" {
			arg = "quicksave"
		}
		if err := cli.SaveGame(ctx, m.engine, m.store, m.saveDir, arg); err != nil {
			return []string{fmt.Sprintf("Save failed: %v", err)}, false
		}
		return []string{fmt.Sprintf("Game saved to %s.", arg)}, false

	case "/load":
		if arg == "" {
			arg = "quicksave"
		}
		turn, err := cli.LoadGame(ctx, m.engine, m.store, m.saveDir, arg)
		if err != nil {
			return []string{fmt.Sprintf("Load failed: %v", err)}, false
		}
		return []string{fmt.Sprintf("Game loaded from %s (turn %d).", arg, turn)}, false

	case "/slots":
		names, err := cli.ListSaves(ctx, m.store, m.saveDir)
		if err != nil {
			return []string{fmt.Sprintf("Listing saves failed: %v", err)}, false
		}
		if len(names) == 0 {
			return []string{"No saves yet."}, false
		}
		return names, false

	case "/delete":
		if arg == "" {
			return []string{"Usage: /delete <name>"}, false
		}
		if err := cli.DeleteSave(ctx, m.store, m.saveDir, arg); err != nil {
			return []string{fmt.Sprintf("Delete failed: %v", err)}, false
		}
		return []string{fmt.Sprintf("Deleted %s.", arg)}, false

	case "/sheet":
		if arg == "" {
			arg = "party.pdf"
		}
		if err := cli.WriteSheet(m.engine, arg); err != nil {
			return []string{fmt.Sprintf("Sheet failed: %v", err)}, false
		}
		return []string{fmt.Sprintf("Party sheet written to %s.", arg)}, false

	case "/help":
		return append(cli.HelpLines(), "",
			"Navigation: PgUp/PgDn to scroll, Up/Down for command history, Tab for next hero"), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdState() []string {
	e := m.engine
	output := []string{
		fmt.Sprintf("Turn: %d", e.World.Turn),
		fmt.Sprintf("Phase: %s", e.Phase),
		fmt.Sprintf("Status: %s", e.Status()),
		fmt.Sprintf("RNG: seed %d, position %d", e.RNG.Seed(), e.RNG.Position()),
	}
	for _, ent := range e.World.Entities {
		output = append(output, engine.DescribeEntity(ent))
	}
	return output
}

func (m *Model) formatTrace(result types.Result) []string {
	lines := []string{fmt.Sprintf("[trace] ok=%t reason=%s", result.OK, result.Reason)}
	if result.Err != nil {
		lines = append(lines, fmt.Sprintf("[trace] err: %v", result.Err))
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
