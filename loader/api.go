package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/lairgrid/types"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerTemplates(L, coll)
	registerHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", width = 30, height = 20, ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Place("template", x, y) puts a template instance on the grid at start.
	L.SetGlobal("Place", L.NewFunction(func(L *lua.LState) int {
		coll.placements = append(coll.placements, rawPlacement{
			template: L.CheckString(1),
			cell:     rawCell{x: L.CheckInt(2), y: L.CheckInt(3)},
			line:     L.Where(1),
		})
		return 0
	}))

	// Lair { at = {x, y}, guardians = 6, guardian = "skeleton", roamer = "rat" }
	// Lair { at = {x, y}, guardian = "skeleton", roamers = { rat = 3, ghoul = 1 } }
	L.SetGlobal("Lair", L.NewFunction(func(L *lua.LState) int {
		coll.lairs = append(coll.lairs, L.CheckTable(1))
		return 0
	}))

	// Blocked { {x, y}, {x, y}, ... }
	L.SetGlobal("Blocked", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		for i := 1; i <= tbl.MaxN(); i++ {
			pair, ok := tbl.RawGetInt(i).(*lua.LTable)
			if !ok {
				L.ArgError(1, "Blocked expects a list of {x, y} pairs")
				return 0
			}
			c, ok := toCell(pair)
			if !ok {
				L.ArgError(1, "Blocked expects a list of {x, y} pairs")
				return 0
			}
			coll.blocked = append(coll.blocked, c)
		}
		return 0
	}))

	// Wall(x1, y1, x2, y2) blocks every cell of the inclusive rectangle.
	L.SetGlobal("Wall", L.NewFunction(func(L *lua.LState) int {
		x1, y1, x2, y2 := L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4)
		if x1 > x2 {
			x1, x2 = x2, x1
		}
		if y1 > y2 {
			y1, y2 = y2, y1
		}
		for x := x1; x <= x2; x++ {
			for y := y1; y <= y2; y++ {
				coll.blocked = append(coll.blocked, rawCell{x: x, y: y})
			}
		}
		return 0
	}))

	// On("event_type", "narration with {placeholders}" [, { key = value }])
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		coll.handlers = append(coll.handlers, rawHandler{
			eventType: L.CheckString(1),
			say:       L.CheckString(2),
			when:      L.OptTable(3, nil),
		})
		return 0
	}))
}

// registerTemplates installs the curried template constructors:
// Hero "id" { ... }, Enemy "id" { ... }, NPC "id" { ... }, Item "id" { ... }.
func registerTemplates(L *lua.LState, coll *collector) {
	for name, role := range map[string]types.Role{
		"Hero":  types.RoleHero,
		"Enemy": types.RoleEnemy,
		"NPC":   types.RoleNPC,
		"Item":  types.RoleItem,
	} {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				coll.templates = append(coll.templates, rawTemplate{id: id, role: role, table: L.CheckTable(1)})
				return 0
			}))
			return 1
		}))
	}
}

func registerHelpers(L *lua.LState) {
	// Ability { name = "...", effect = "...", description = "...", target = "self" }
	// Pass-through, returns the table.
	L.SetGlobal("Ability", L.NewFunction(func(L *lua.LState) int {
		L.Push(L.CheckTable(1))
		return 1
	}))

	// Buff("hero", "armor", 2, 3) builds a buff(...) script statement so
	// content can compose scripts without quoting.
	L.SetGlobal("Buff", L.NewFunction(func(L *lua.LState) int {
		side := L.CheckString(1)
		stat := L.CheckString(2)
		value := L.CheckInt(3)
		duration := L.CheckInt(4)
		L.Push(lua.LString(buffStatement(side, stat, value, duration)))
		return 1
	}))
}
