package engine

import (
	"fmt"
	"strings"

	"github.com/nathoo/lairgrid/engine/entity"
	"github.com/nathoo/lairgrid/engine/parser"
	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/engine/resolve"
	"github.com/nathoo/lairgrid/types"
)

// compass maps step directions to cell offsets. Y grows downward.
var compass = map[string]types.Cell{
	"north": {X: 0, Y: -1},
	"south": {X: 0, Y: 1},
	"east":  {X: 1, Y: 0},
	"west":  {X: -1, Y: 0},
}

// actionVerbs are refused once the encounter is decided.
var actionVerbs = map[string]bool{
	"use": true, "move": true, "step": true, "end": true, "wait": true, "select": true,
}

// Step processes one text command for the active hero and returns the
// result. It does not advance animation; callers tick with Update or Settle.
func (e *Engine) Step(input string) types.Result {
	intent := parser.Parse(input)
	if intent.Verb == "" {
		return types.Result{Output: []string{"What do you want to do?"}}
	}
	if e.Status() != types.Ongoing && actionVerbs[intent.Verb] {
		return types.Result{Output: []string{"The battle is over. Use /load to restore a save or /quit to exit."}}
	}

	hero := e.ActiveHero()
	switch intent.Verb {
	case "look":
		out := e.RenderMap()
		out = append(out, e.describeLairs()...)
		return types.Result{OK: true, Reason: types.ReasonOK, Output: out}

	case "status":
		return types.Result{OK: true, Reason: types.ReasonOK, Output: e.statusLines()}

	case "heroes":
		return types.Result{OK: true, Reason: types.ReasonOK, Output: describeAll(e.World.Heroes(), "No heroes remain.")}

	case "enemies":
		return types.Result{OK: true, Reason: types.ReasonOK, Output: describeAll(e.World.Enemies(), "No enemies in sight.")}

	case "abilities":
		if hero == nil {
			return fail(types.ReasonInvalidTarget, nil, "No heroes remain.")
		}
		return types.Result{OK: true, Reason: types.ReasonOK, Output: abilityLines(hero)}

	case "examine":
		ent, err := resolve.Resolve(e.World.Entities, intent.Object)
		if err != nil {
			return fail(types.ReasonInvalidTarget, err, capitalize(err.Error())+".")
		}
		out := append([]string{DescribeEntity(ent)}, DescribeStats(ent)...)
		return types.Result{OK: true, Reason: types.ReasonOK, Output: out}

	case "next":
		h := e.NextHero()
		if h == nil {
			return fail(types.ReasonInvalidTarget, nil, "No heroes remain.")
		}
		return types.Result{OK: true, Reason: types.ReasonOK, Output: []string{"Now acting: " + DescribeEntity(h)}}

	case "select":
		if intent.N > 0 {
			return e.SelectAbility(hero, intent.N-1)
		}
		return e.SelectAbility(hero, abilityIndex(hero, intent.Object))

	case "use":
		return e.use(hero, intent)

	case "move":
		if !intent.HasPos {
			return fail(types.ReasonInvalidTarget, nil, "Move where? Try: move <x> <y>")
		}
		return e.AttemptMove(hero, intent.Cell)

	case "step":
		if hero == nil {
			return fail(types.ReasonInvalidTarget, nil, "No heroes remain.")
		}
		d := compass[intent.Object]
		return e.AttemptMove(hero, types.Cell{X: hero.Cell.X + d.X, Y: hero.Cell.Y + d.Y})

	case "end":
		return e.EndPlayerTurn()

	case "wait":
		if e.Phase != types.PlayerTurn {
			return fail(types.ReasonNotPlayerTurn, nil, "It is not your turn.")
		}
		if hero == nil {
			return fail(types.ReasonInvalidTarget, nil, "No heroes remain.")
		}
		// Effective moves_left becomes zero even under a bonus.
		hero.Stats.SetBase("moves_left", -hero.Stats.Bonus("moves_left"))
		res := types.Result{OK: true, Reason: types.ReasonOK, Output: []string{hero.Name + " holds position."}}
		e.checkExhausted(&res)
		if e.Phase == types.PlayerTurn {
			if next := e.NextHero(); next != nil && next != hero {
				res.Output = append(res.Output, "Now acting: "+DescribeEntity(next))
			}
		}
		e.finish(&res)
		return res
	}

	return types.Result{Output: []string{"I don't understand that."}}
}

// use resolves "use", "attack" and "cast" forms:
//
//	attack            nearest enemy in range, selected ability
//	attack enemy-3    named target, selected ability
//	cast bolt on e-3  named ability, named target
func (e *Engine) use(hero *entity.Entity, intent types.Intent) types.Result {
	if hero == nil {
		return fail(types.ReasonInvalidTarget, nil, "No heroes remain.")
	}
	targetName := intent.Object
	if intent.Target != "" {
		idx := abilityIndex(hero, intent.Object)
		if r := e.SelectAbility(hero, idx); !r.OK {
			return r
		}
		targetName = intent.Target
	}

	var target *entity.Entity
	if targetName == "" {
		target = e.nearestEnemy(hero)
		if ab, ok := hero.SelectedAbility(); ok && ab.Target == "self" {
			target = hero
		}
		if target == nil {
			return fail(types.ReasonInvalidTarget, nil, "No enemy to target.")
		}
	} else {
		var err error
		if target, err = resolve.Resolve(e.World.Entities, targetName); err != nil {
			return fail(types.ReasonInvalidTarget, err, capitalize(err.Error())+".")
		}
	}
	return e.AttemptAbility(hero, target)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (e *Engine) nearestEnemy(from *entity.Entity) *entity.Entity {
	var best *entity.Entity
	bestDist := 0
	for _, en := range e.World.Enemies() {
		d := path.Manhattan(from.Cell, en.Cell)
		if best == nil || d < bestDist {
			best, bestDist = en, d
		}
	}
	return best
}

// abilityIndex returns the index of the named ability, or -1.
func abilityIndex(ent *entity.Entity, name string) int {
	if ent == nil {
		return -1
	}
	for i, ab := range ent.Abilities {
		if strings.EqualFold(ab.Name, name) {
			return i
		}
	}
	return -1
}

func (e *Engine) statusLines() []string {
	out := []string{fmt.Sprintf("Turn %d, %s.", e.World.Turn, e.Phase)}
	if hero := e.ActiveHero(); hero != nil {
		out = append(out, "Active: "+DescribeEntity(hero))
	}
	out = append(out, fmt.Sprintf("Heroes: %d  Enemies: %d  Lairs: %d",
		len(e.World.Heroes()), len(e.World.Enemies()), len(e.World.Lairs)))
	return out
}

func describeAll(ents []*entity.Entity, empty string) []string {
	if len(ents) == 0 {
		return []string{empty}
	}
	out := make([]string, 0, len(ents))
	for _, ent := range ents {
		out = append(out, DescribeEntity(ent))
	}
	return out
}

func abilityLines(hero *entity.Entity) []string {
	if len(hero.Abilities) == 0 {
		return []string{hero.Name + " has no abilities."}
	}
	out := make([]string, 0, len(hero.Abilities))
	for i, ab := range hero.Abilities {
		mark := " "
		if i == hero.Selected || (hero.Selected < 0 && i == 0) {
			mark = "*"
		}
		out = append(out, fmt.Sprintf("%s%d. %s: %s", mark, i+1, ab.Name, ab.Description))
	}
	return out
}
