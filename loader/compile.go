// Package loader loads Lua game content into Go structs at load time.
// The Lua VM is discarded after loading; no Lua runs during play.
package loader

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/types"
)

// rawTemplate holds a template table before compilation.
type rawTemplate struct {
	id    string
	role  types.Role
	table *lua.LTable
}

// rawPlacement is one Place(...) call.
type rawPlacement struct {
	template string
	cell     rawCell
	line     string
}

type rawCell struct{ x, y int }

// rawHandler holds an event handler before compilation.
type rawHandler struct {
	eventType string
	say       string
	when      *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toCell reads a {x, y} pair.
func toCell(tbl *lua.LTable) (rawCell, bool) {
	x, okX := tbl.RawGetInt(1).(lua.LNumber)
	y, okY := tbl.RawGetInt(2).(lua.LNumber)
	if !okX || !okY {
		return rawCell{}, false
	}
	return rawCell{x: int(x), y: int(y)}, true
}

// tableToIntMap converts a Lua table of numbers to a map[string]int.
// Non-numeric values are skipped.
func tableToIntMap(tbl *lua.LTable) map[string]int {
	if tbl == nil {
		return nil
	}
	m := map[string]int{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		if n, ok := v.(lua.LNumber); ok {
			m[string(ks)] = int(n)
		}
	})
	return m
}

// tableToAnyMap converts a Lua table of scalars to a map. Nested tables and
// functions are skipped.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	if tbl == nil {
		return nil
	}
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch val := v.(type) {
		case lua.LString:
			m[string(ks)] = string(val)
		case lua.LNumber:
			m[string(ks)] = float64(val)
		case lua.LBool:
			m[string(ks)] = bool(val)
		}
	})
	return m
}

// scriptText accepts either a single script string or a list of statements
// joined with "; ".
func scriptText(v lua.LValue) string {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case *lua.LTable:
		parts := make([]string, 0, val.MaxN())
		for i := 1; i <= val.MaxN(); i++ {
			if s, ok := val.RawGetInt(i).(lua.LString); ok {
				parts = append(parts, string(s))
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func buffStatement(side, stat string, value, duration int) string {
	return fmt.Sprintf("buff('%s', '%s', %d, %d)", side, stat, value, duration)
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		Templates: map[string]state.Template{},
		Blocked:   path.NewSet(),
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.templates {
		if _, dup := defs.Templates[raw.id]; dup {
			return nil, fmt.Errorf("template %q defined twice", raw.id)
		}
		tmpl, err := compileTemplate(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling template %s: %w", raw.id, err)
		}
		defs.Templates[raw.id] = tmpl
	}

	// Templates may carry at = {x, y} as a shorthand for one Place call.
	for _, raw := range coll.templates {
		if at := getTable(raw.table, "at"); at != nil {
			c, ok := toCell(at)
			if !ok {
				return nil, fmt.Errorf("template %s: at must be {x, y}", raw.id)
			}
			coll.placements = append(coll.placements, rawPlacement{template: raw.id, cell: c, line: raw.id + ".at"})
		}
	}

	for _, p := range coll.placements {
		tmpl, ok := defs.Templates[p.template]
		if !ok {
			return nil, fmt.Errorf("%s Place: unknown template %q", p.line, p.template)
		}
		placement := state.Placement{Template: p.template, Cell: types.Cell{X: p.cell.x, Y: p.cell.y}}
		switch tmpl.Role {
		case types.RoleHero:
			defs.Heroes = append(defs.Heroes, placement)
		case types.RoleEnemy:
			defs.Enemies = append(defs.Enemies, placement)
		default:
			return nil, fmt.Errorf("%s Place: template %q is a %s; only heroes and enemies can be placed",
				p.line, p.template, tmpl.Role)
		}
	}

	for i, tbl := range coll.lairs {
		lair, err := compileLair(tbl)
		if err != nil {
			return nil, fmt.Errorf("compiling lair %d: %w", i+1, err)
		}
		defs.Lairs = append(defs.Lairs, lair)
	}

	for _, c := range coll.blocked {
		defs.Blocked.Add(types.Cell{X: c.x, Y: c.y})
	}

	for _, raw := range coll.handlers {
		defs.Handlers = append(defs.Handlers, state.Handler{
			EventType: raw.eventType,
			Say:       raw.say,
			When:      tableToAnyMap(raw.when),
		})
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) state.GameDef {
	return state.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Intro:   getString(tbl, "intro"),
		Width:   getInt(tbl, "width"),
		Height:  getInt(tbl, "height"),
	}
}

// compileTemplate compiles a raw template into a state.Template.
func compileTemplate(raw rawTemplate) (state.Template, error) {
	tbl := raw.table
	name := getString(tbl, "name")
	if name == "" {
		name = raw.id
	}
	tmpl := state.Template{
		Name:  name,
		Role:  raw.role,
		HP:    getInt(tbl, "hp"),
		Level: getInt(tbl, "level"),
		Stats: tableToIntMap(getTable(tbl, "stats")),
		Race:  scriptText(tbl.RawGetString("race")),
		Class: scriptText(tbl.RawGetString("class")),
		Boss:  getBool(tbl, "boss", false),
	}
	if tmpl.HP < 0 {
		return tmpl, fmt.Errorf("hp must not be negative, got %d", tmpl.HP)
	}

	if abTbl := getTable(tbl, "abilities"); abTbl != nil {
		for i := 1; i <= abTbl.MaxN(); i++ {
			at, ok := abTbl.RawGetInt(i).(*lua.LTable)
			if !ok {
				return tmpl, fmt.Errorf("ability %d is not a table", i)
			}
			ab := types.Ability{
				Name:        getString(at, "name"),
				Effect:      scriptText(at.RawGetString("effect")),
				Description: getString(at, "description"),
				Target:      getString(at, "target"),
			}
			if ab.Name == "" {
				ab.Name = fmt.Sprintf("Ability %d", i)
			}
			if ab.Target == "" {
				ab.Target = "enemy"
			}
			tmpl.Abilities = append(tmpl.Abilities, ab)
		}
	}
	return tmpl, nil
}

func compileLair(tbl *lua.LTable) (state.LairDef, error) {
	at := getTable(tbl, "at")
	if at == nil {
		return state.LairDef{}, fmt.Errorf("lair needs at = {x, y}")
	}
	c, ok := toCell(at)
	if !ok {
		return state.LairDef{}, fmt.Errorf("lair at must be {x, y}")
	}
	needed := getInt(tbl, "guardians")
	if tbl.RawGetString("guardians") == lua.LNil {
		needed = 6
	}
	return state.LairDef{
		Cell:            types.Cell{X: c.x, Y: c.y},
		GuardiansNeeded: needed,
		Guardian:        getString(tbl, "guardian"),
		Roamer:          getString(tbl, "roamer"),
		Roamers:         weightedTemplates(getTable(tbl, "roamers")),
	}, nil
}

// weightedTemplates reads a { name = weight } table, sorted by name so the
// spawn roll is stable across loads.
func weightedTemplates(tbl *lua.LTable) []state.WeightedTemplate {
	weights := tableToIntMap(tbl)
	if len(weights) == 0 {
		return nil
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]state.WeightedTemplate, len(names))
	for i, name := range names {
		out[i] = state.WeightedTemplate{Template: name, Weight: weights[name]}
	}
	return out
}

// sortedLuaFiles returns .lua files in a directory, with game.lua first
// and the rest sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
