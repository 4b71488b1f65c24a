package tui

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/lairgrid/config"
	"github.com/nathoo/lairgrid/engine"
	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/logger"
	"github.com/nathoo/lairgrid/types"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"[Game saved to test.]", kindSystem},
		{"[trace] Events: 2", kindTrace},
		{"Turn 3. Your move.", kindTurn},
		{"The enemies stir.", kindTurn},
		{"Giant Rat dies.", kindDeath},
		{"Guardians rise around the lair at (20,10)!", kindLair},
		{"Lair at (8,8): 2 guardian(s) left, dormant, roamers in 4 turn(s).", kindLair},
		{"Every lair has fallen. Victory!", kindOutcome},
		{"The last hero has fallen.", kindOutcome},
		{"Knight moves to (2,1).", kindNarration},
		{"", kindNarration},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"Guardians rise around the lair at (20,10)!", 20,
			"Guardians rise\naround the lair at\n(20,10)!"},
		{"", 80, ""},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestHistory_PrevNext(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("e")
	h.Push("attack")

	for _, want := range []string{"attack", "e", "look", "look"} {
		if got, ok := h.Prev(); !ok || got != want {
			t.Errorf("Prev = %q (ok=%v), want %q", got, ok, want)
		}
	}
	if got, ok := h.Next(); !ok || got != "e" {
		t.Errorf("Next = %q (ok=%v), want e", got, ok)
	}
	h.Next() // attack
	if _, ok := h.Next(); ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c") // "a" evicted

	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}
	h.Prev()
	if prev, _ := h.Prev(); prev != "b" {
		t.Errorf("oldest = %q, want b", prev)
	}
}

func TestHistory_RepeatMovesToNewest(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("end")
	h.Push("look")

	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
	if prev, _ := h.Prev(); prev != "look" {
		t.Errorf("newest = %q, want look", prev)
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("end")

	h.Prev()
	h.Prev()
	h.ResetCursor()

	if prev, ok := h.Prev(); !ok || prev != "end" {
		t.Errorf("expected 'end' after reset, got %q", prev)
	}
}

// testDefs returns a small arena with two knights and a distant rat.
func testDefs() *state.Defs {
	return &state.Defs{
		Game: state.GameDef{
			Title:   "Test Game",
			Author:  "Test",
			Version: "1.0",
			Intro:   "Welcome to the test.",
			Width:   10,
			Height:  10,
		},
		Templates: map[string]state.Template{
			"knight": {Name: "Knight", Role: types.RoleHero, HP: 20, Abilities: []types.Ability{
				{Name: "Cut", Effect: "target['hp'] -= 2", Target: "enemy"},
			}},
			"squire":   {Name: "Squire", Role: types.RoleHero, HP: 12},
			"rat":      {Name: "Rat", Role: types.RoleEnemy, HP: 3},
			"skeleton": {Name: "Skeleton", Role: types.RoleEnemy, HP: 5},
		},
		Heroes: []state.Placement{
			{Template: "knight", Cell: types.Cell{X: 1, Y: 1}},
			{Template: "squire", Cell: types.Cell{X: 1, Y: 3}},
		},
		Enemies: []state.Placement{{Template: "rat", Cell: types.Cell{X: 8, Y: 1}}},
		Lairs:   []state.LairDef{{Cell: types.Cell{X: 8, Y: 8}, GuardiansNeeded: 2, Guardian: "skeleton", Roamer: "rat"}},
		Blocked: path.NewSet(types.Cell{X: 5, Y: 5}),
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 2
	cfg.TileSize = 100
	cfg.MoveSpeed = 50 // two ticks per cell
	cfg.SaveDir = t.TempDir()
	defs := testDefs()
	m := New(engine.New(defs, cfg), defs, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// submit types a command and presses enter.
func submit(t *testing.T, m Model, input string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

// drain feeds ticks until the model stops asking for them.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if !m.ticking {
			return m
		}
		next, _ := m.Update(tickMsg(time.Now()))
		m = next.(Model)
	}
	t.Fatal("tick loop never settled")
	return m
}

func logText(m Model) string {
	var b strings.Builder
	for _, rl := range m.rawLines {
		b.WriteString(rl.text)
		b.WriteString("\n")
	}
	return b.String()
}

func TestUpdate_StepAnimatesWithTicks(t *testing.T) {
	m := newTestModel(t)

	m, cmd := submit(t, m, "e")
	if cmd == nil || !m.ticking {
		t.Fatal("expected the tick loop to start after a move")
	}
	hero := m.engine.ActiveHero()
	if !hero.IsMoving() {
		t.Fatal("hero should still be walking before any tick")
	}

	m = drain(t, m)
	if hero.Cell != (types.Cell{X: 2, Y: 1}) || hero.IsMoving() {
		t.Errorf("hero at %s moving=%v, want settled at (2,1)", hero.Cell, hero.IsMoving())
	}
	if !strings.Contains(logText(m), "> e\nKnight moves to (2,1).") {
		t.Errorf("log missing move narration:\n%s", logText(m))
	}
}

func TestUpdate_EndTurnRunsEnemies(t *testing.T) {
	m := newTestModel(t)

	m, _ = submit(t, m, "end")
	if m.engine.Phase == types.PlayerTurn {
		t.Fatal("expected the enemy phase after end")
	}
	m = drain(t, m)
	if m.engine.Phase != types.PlayerTurn || m.engine.World.Turn != 1 {
		t.Errorf("phase = %s turn = %d, want player_turn 1", m.engine.Phase, m.engine.World.Turn)
	}
	if !strings.Contains(logText(m), "Turn 1. Your move.") {
		t.Error("expected turn narration from ticks")
	}
}

func TestUpdate_RefusedCommandIsError(t *testing.T) {
	m := newTestModel(t)

	m, cmd := submit(t, m, "move 5 5")
	if m.ticking || cmd != nil {
		t.Error("a refused move should not start ticking")
	}
	last := m.rawLines[len(m.rawLines)-2]
	if !last.isError {
		t.Errorf("line %q should be styled as an error", last.text)
	}
}

func TestUpdate_TabCyclesHeroes(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if got := m.engine.ActiveHero().Name; got != "Squire" {
		t.Errorf("active = %s, want Squire", got)
	}
}

func TestUpdate_HistoryKeys(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "status")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if m.input.Value() != "status" {
		t.Errorf("input = %q, want status", m.input.Value())
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.input.Value() != "" {
		t.Errorf("input = %q, want empty", m.input.Value())
	}
}

func TestUpdate_AgainRepeats(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "again")
	if !strings.Contains(logText(m), "Nothing to repeat.") {
		t.Error("expected 'Nothing to repeat'")
	}

	m, _ = submit(t, m, "e")
	m = drain(t, m)
	m, _ = submit(t, m, "g")
	m = drain(t, m)
	if got := m.engine.ActiveHero().Cell; got != (types.Cell{X: 3, Y: 1}) {
		t.Errorf("hero at %s, want (3,1)", got)
	}
}

func TestUpdate_CtrlCQuits(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !next.(Model).quitting || cmd == nil {
		t.Error("ctrl+c should quit")
	}
	if next.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestView_MapAndStatusBar(t *testing.T) {
	m := newTestModel(t)
	out := m.View()

	for _, want := range []string{"@", "L", "#", "Your turn", "Knight (1,1) hp 20/20 ap 3/3", "T:0"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestView_NotReady(t *testing.T) {
	defs := testDefs()
	m := New(engine.New(defs, config.Default()), defs, nil)
	if m.View() != "Loading..." {
		t.Errorf("View = %q", m.View())
	}
}

func TestPhaseLabel(t *testing.T) {
	if got := phaseLabel(types.EnemyMoving, types.Ongoing); got != "Enemy turn" {
		t.Errorf("got %q", got)
	}
	if got := phaseLabel(types.PlayerTurn, types.Defeat); got != "DEFEAT" {
		t.Errorf("got %q", got)
	}
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newTestModel(t)

	if _, quit := m.handleMeta("/quit"); !quit {
		t.Error("expected quit=true for /quit")
	}
	if _, quit := m.handleMeta("/exit"); !quit {
		t.Error("expected quit=true for /exit")
	}
}

func TestHandleMeta_SaveSlotsLoad(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "e")
	m = drain(t, m)

	output, quit := m.handleMeta("/save test")
	if quit {
		t.Error("save should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Game saved") {
		t.Fatalf("expected save confirmation, got %v", output)
	}

	output, _ = m.handleMeta("/slots")
	if len(output) != 1 || output[0] != "test" {
		t.Errorf("slots = %v", output)
	}

	// Move again, then load back to (2,1).
	m, _ = submit(t, m, "e")
	m = drain(t, m)
	output, _ = m.handleMeta("/load test")
	if len(output) == 0 || !strings.Contains(output[0], "Game loaded from test (turn 0)") {
		t.Fatalf("expected load confirmation, got %v", output)
	}
	if got := m.engine.ActiveHero().Cell; got != (types.Cell{X: 2, Y: 1}) {
		t.Errorf("hero at %s after load, want (2,1)", got)
	}

	output, _ = m.handleMeta("/delete test")
	if !strings.Contains(output[0], "Deleted test") {
		t.Errorf("delete output = %v", output)
	}
}

func TestHandleMeta_LoadNonexistent(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/load nonexistent")
	if quit {
		t.Error("load should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Load failed") {
		t.Errorf("expected load failure, got %v", output)
	}
}

func TestHandleMeta_Help(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/help")
	if quit {
		t.Error("help should not quit")
	}
	joined := strings.Join(output, "\n")
	for _, expected := range []string{"/save", "/load", "/sheet", "/quit", "look", "Tab for next hero"} {
		if !strings.Contains(joined, expected) {
			t.Errorf("expected %q in help output", expected)
		}
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := newTestModel(t)

	output, _ := m.handleMeta("/trace")
	if !m.trace {
		t.Error("expected trace to be enabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "enabled") {
		t.Errorf("expected enabled message, got %v", output)
	}

	m, _ = submit(t, m, "status")
	if !strings.Contains(logText(m), "[trace] ok=true reason=ok") {
		t.Error("expected trace lines after a command")
	}

	output, _ = m.handleMeta("/trace")
	if m.trace {
		t.Error("expected trace to be disabled")
	}
	if len(output) == 0 || !strings.Contains(output[0], "disabled") {
		t.Errorf("expected disabled message, got %v", output)
	}
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/bogus")
	if quit {
		t.Error("unknown command should not quit")
	}
	if len(output) == 0 || !strings.Contains(output[0], "Unknown command") {
		t.Errorf("expected unknown command message, got %v", output)
	}
}

func TestHandleMeta_State(t *testing.T) {
	m := newTestModel(t)

	output, _ := m.handleMeta("/state")
	joined := strings.Join(output, "\n")
	for _, want := range []string{"Turn: 0", "Phase: player_turn", "Knight", "Rat"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in state output", want)
		}
	}
}
