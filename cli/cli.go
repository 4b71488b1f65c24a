// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the lairgrid engine.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/lairgrid/engine"
	"github.com/nathoo/lairgrid/engine/save"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/sheet"
	"github.com/nathoo/lairgrid/storage"
	"github.com/nathoo/lairgrid/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	Store     *storage.Store // nil: saves are JSON files under SaveDir
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) *CLI {
	return &CLI{
		Engine:  eng,
		Defs:    defs,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: eng.Config.SaveDir,
	}
}

// Run starts the game loop. It shows the intro and the map, then loops:
// prompt, input, dispatch, settle, output.
func (c *CLI) Run() {
	if c.Defs.Game.Intro != "" {
		c.printLine(c.Defs.Game.Intro)
		c.printLine("")
	}

	c.printResult(c.Engine.Step("look"))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.play(input)
		c.printResult(result)
		if c.Trace {
			c.printTrace(result)
		}
	}
}

// play runs one command and, when it started movement or the enemy turn,
// ticks the engine until the world is at rest again.
func (c *CLI) play(input string) types.Result {
	result := c.Engine.Step(input)
	if c.Engine.Phase != types.PlayerTurn || c.Engine.Moving() {
		settled := c.Engine.Settle(0)
		result.Events = append(result.Events, settled.Events...)
		result.Output = append(result.Output, settled.Output...)
		if !settled.OK {
			result.Output = append(result.Output, "[The world did not come to rest.]")
		}
	}
	return result
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/slots":
		c.cmdSlots()

	case "/delete":
		c.cmdDelete(arg)

	case "/sheet":
		c.cmdSheet(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}
	if err := SaveGame(context.Background(), c.Engine, c.Store, c.SaveDir, name); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}
	turn, err := LoadGame(context.Background(), c.Engine, c.Store, c.SaveDir, name)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", name, turn))
	c.printResult(c.Engine.Step("look"))
}

func (c *CLI) cmdSlots() {
	names, err := ListSaves(context.Background(), c.Store, c.SaveDir)
	if err != nil {
		c.printSystem(fmt.Sprintf("Listing saves failed: %v", err))
		return
	}
	if len(names) == 0 {
		c.printSystem("No saves yet.")
		return
	}
	for _, n := range names {
		c.printLine("  " + n)
	}
}

func (c *CLI) cmdDelete(name string) {
	if name == "" {
		c.printSystem("Usage: /delete <name>")
		return
	}
	if err := DeleteSave(context.Background(), c.Store, c.SaveDir, name); err != nil {
		c.printSystem(fmt.Sprintf("Delete failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Deleted %s.", name))
}

func (c *CLI) cmdSheet(file string) {
	if file == "" {
		file = "party.pdf"
	}
	if err := WriteSheet(c.Engine, file); err != nil {
		c.printSystem(fmt.Sprintf("Sheet failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Party sheet written to %s.", file))
}

func (c *CLI) cmdHelp() {
	for _, line := range HelpLines() {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	e := c.Engine
	c.printSystem(fmt.Sprintf("Turn: %d", e.World.Turn))
	c.printSystem(fmt.Sprintf("Phase: %s", e.Phase))
	c.printSystem(fmt.Sprintf("Status: %s", e.Status()))
	c.printSystem(fmt.Sprintf("RNG: seed %d, position %d", e.RNG.Seed(), e.RNG.Position()))
	for _, ent := range e.World.Entities {
		c.printSystem(engine.DescribeEntity(ent))
	}
}

func (c *CLI) printTrace(result types.Result) {
	c.printSystem(fmt.Sprintf("[trace] ok=%t reason=%s", result.OK, result.Reason))
	if result.Err != nil {
		c.printSystem(fmt.Sprintf("[trace] err: %v", result.Err))
	}
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}

// HelpLines is the command reference shared by the CLI and TUI.
func HelpLines() []string {
	return []string{
		"System:",
		"  /save [name]    Save game (default: quicksave)",
		"  /load [name]    Load game (default: quicksave)",
		"  /slots          List saved games",
		"  /delete <name>  Delete a saved game",
		"  /sheet [file]   Write a PDF party sheet (default: party.pdf)",
		"  /quit           Exit game",
		"  /help           Show this help",
		"  /state          Debug: dump current state",
		"  /trace          Toggle debug trace output",
		"",
		"Game commands:",
		"  look (l, map)              Show the map and lairs",
		"  status (st)                Turn, phase and active hero",
		"  heroes / enemies           List combatants",
		"  examine <id|name> (x)      Show every stat and effect",
		"  abilities                  List the active hero's abilities",
		"  select <n|name>            Select an ability",
		"  attack [target]            Use the selected ability",
		"  cast <ability> on <target> Select and use in one go",
		"  move <x> <y>               Walk to a cell",
		"  n / s / e / w              Step one cell",
		"  next (tab)                 Switch to the next hero",
		"  wait (z)                   Spend the rest of this hero's moves",
		"  end (done)                 End the player turn",
		"  again (g)                  Repeat your last command",
	}
}

// ErrSaveName reports a save name that could escape the save directory.
var ErrSaveName = errors.New("invalid save name")

// checkSaveName rejects names with path separators or "..".
func checkSaveName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w %q", ErrSaveName, name)
	}
	return nil
}

// SaveGame snapshots the engine into the slot store, or into a JSON file
// under dir when no store is open.
func SaveGame(ctx context.Context, e *engine.Engine, store *storage.Store, dir, name string) error {
	if err := checkSaveName(name); err != nil {
		return err
	}
	sd, err := e.Snapshot()
	if err != nil {
		return err
	}
	if store != nil {
		return store.SaveSlot(ctx, name, sd)
	}
	data, err := save.Save(sd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644)
}

// LoadGame restores a named save and returns its turn number.
func LoadGame(ctx context.Context, e *engine.Engine, store *storage.Store, dir, name string) (int, error) {
	if err := checkSaveName(name); err != nil {
		return 0, err
	}
	var sd *save.SaveData
	if store != nil {
		var err error
		if sd, err = store.LoadSlot(ctx, name); err != nil {
			return 0, err
		}
	} else {
		data, err := os.ReadFile(filepath.Join(dir, name+".json"))
		if err != nil {
			return 0, err
		}
		if sd, err = save.Load(data); err != nil {
			return 0, err
		}
	}
	if err := e.Restore(sd); err != nil {
		return 0, err
	}
	return sd.Turn, nil
}

// ListSaves returns save names with a short summary, newest first for the
// store and alphabetical for JSON files.
func ListSaves(ctx context.Context, store *storage.Store, dir string) ([]string, error) {
	if store != nil {
		slots, err := store.ListSlots(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(slots))
		for _, s := range slots {
			out = append(out, fmt.Sprintf("%-16s %s, turn %d, %d hero(es), %d enemies, %s",
				s.Name, s.Game, s.Turn, s.Heroes, s.Enemies, s.SavedAt.Format("2006-01-02 15:04")))
		}
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		if !ent.IsDir() && strings.HasSuffix(ent.Name(), ".json") {
			out = append(out, strings.TrimSuffix(ent.Name(), ".json"))
		}
	}
	sort.Strings(out)
	return out, nil
}

// DeleteSave removes a named save.
func DeleteSave(ctx context.Context, store *storage.Store, dir, name string) error {
	if err := checkSaveName(name); err != nil {
		return err
	}
	if store != nil {
		return store.DeleteSlot(ctx, name)
	}
	return os.Remove(filepath.Join(dir, name+".json"))
}

// WriteSheet renders the party sheet PDF to file.
func WriteSheet(e *engine.Engine, file string) error {
	pdf, err := sheet.Generate(e)
	if err != nil {
		return err
	}
	return os.WriteFile(file, pdf, 0o644)
}
