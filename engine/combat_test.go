package engine

import (
	"errors"
	"testing"

	"github.com/nathoo/lairgrid/engine/events"
	"github.com/nathoo/lairgrid/engine/path"
	"github.com/nathoo/lairgrid/engine/script"
	"github.com/nathoo/lairgrid/engine/state"
	"github.com/nathoo/lairgrid/types"
)

var kick = types.Ability{Name: "Kick", Effect: "target['hp'] -= 5; buff('hero','hp',2,2)"}

func TestAttemptAbility_Kick(t *testing.T) {
	e := newTestEngine(t)
	h := addHero(e, 0, 0, map[string]int{"max_hp": 30, "dex": 2}, kick)
	en := addEnemy(e, 1, 0, map[string]int{"max_hp": 10})

	res := e.AttemptAbility(h, en)
	if !res.OK || res.Reason != types.ReasonOK {
		t.Fatalf("AttemptAbility: %+v", res)
	}
	if got := en.Stat("hp"); got != 5 {
		t.Errorf("enemy hp = %d, want 5", got)
	}
	if eff, bonus, base := h.Stats.Get("hp"); eff != 32 || bonus != 2 || base != 30 {
		t.Errorf("hero hp = (%d,%d,%d), want (32,2,30)", eff, bonus, base)
	}
	if got := h.Stat("moves_left"); got != 2 {
		t.Errorf("moves_left = %d, want 2", got)
	}
	if !hasEvent(res, events.AbilityUsed) {
		t.Error("missing ability_used event")
	}
	if e.Phase != types.PlayerTurn {
		t.Errorf("Phase = %v, want player_turn", e.Phase)
	}
}

func TestAttemptAbility_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(e *Engine) (src, tgt string)
		reason types.Reason
		err    error
	}{
		{
			name: "out of range",
			setup: func(e *Engine) (string, string) {
				h := addHero(e, 0, 0, nil, kick)
				en := addEnemy(e, 3, 0, nil)
				return h.ID, en.ID
			},
			reason: types.ReasonOutOfRange,
			err:    ErrOutOfRange,
		},
		{
			name: "no action points",
			setup: func(e *Engine) (string, string) {
				h := addHero(e, 0, 0, map[string]int{"max_hp": 30, "moves_left": 0}, kick)
				en := addEnemy(e, 1, 0, nil)
				return h.ID, en.ID
			},
			reason: types.ReasonNoActionPoints,
			err:    ErrNoActionPoints,
		},
		{
			name: "no abilities",
			setup: func(e *Engine) (string, string) {
				h := addHero(e, 0, 0, nil)
				en := addEnemy(e, 1, 0, nil)
				return h.ID, en.ID
			},
			reason: types.ReasonNoAbility,
		},
		{
			name: "hero target",
			setup: func(e *Engine) (string, string) {
				h := addHero(e, 0, 0, nil, kick)
				other := addHero(e, 1, 0, nil)
				return h.ID, other.ID
			},
			reason: types.ReasonInvalidTarget,
		},
		{
			name: "enemy source",
			setup: func(e *Engine) (string, string) {
				addHero(e, 5, 5, nil)
				en := addEnemy(e, 0, 0, nil, kick)
				other := addEnemy(e, 1, 0, nil)
				return en.ID, other.ID
			},
			reason: types.ReasonInvalidTarget,
		},
		{
			name: "enemy turn",
			setup: func(e *Engine) (string, string) {
				h := addHero(e, 0, 0, nil, kick)
				en := addEnemy(e, 1, 0, nil)
				e.Phase = types.EnemyDeciding
				return h.ID, en.ID
			},
			reason: types.ReasonNotPlayerTurn,
		},
		{
			name: "still moving",
			setup: func(e *Engine) (string, string) {
				h := addHero(e, 0, 0, nil, kick)
				en := addEnemy(e, 1, 0, nil)
				h.Queue = []types.Cell{{X: 0, Y: 1}}
				return h.ID, en.ID
			},
			reason: types.ReasonBusy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			srcID, tgtID := tt.setup(e)
			src, tgt := e.World.Find(srcID), e.World.Find(tgtID)
			hpBefore := tgt.Stat("hp")
			apBefore := src.Stat("moves_left")

			res := e.AttemptAbility(src, tgt)
			if res.OK {
				t.Fatal("expected rejection")
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.reason)
			}
			if tt.err != nil && !errors.Is(res.Err, tt.err) {
				t.Errorf("Err = %v, want %v", res.Err, tt.err)
			}
			if tgt.Stat("hp") != hpBefore || src.Stat("moves_left") != apBefore {
				t.Error("rejected ability changed state")
			}
			if len(res.Output) == 0 {
				t.Error("rejection should explain itself")
			}
		})
	}
}

func TestAttemptAbility_ScriptErrorRefunds(t *testing.T) {
	e := newTestEngine(t)
	h := addHero(e, 0, 0, nil, types.Ability{Name: "Broken", Effect: "target['hp'] -="})
	en := addEnemy(e, 1, 0, nil)

	res := e.AttemptAbility(h, en)
	if res.OK || res.Reason != types.ReasonScriptError {
		t.Fatalf("res = %+v, want script_error", res)
	}
	if !errors.Is(res.Err, script.ErrParse) {
		t.Errorf("Err = %v, want a parse error", res.Err)
	}
	if got := h.Stat("moves_left"); got != 3 {
		t.Errorf("moves_left = %d, want 3 after refund", got)
	}
	if got := en.Stat("hp"); got != 15 {
		t.Errorf("enemy hp = %d, want 15", got)
	}
	if !hasEvent(res, events.AbilityFailed) {
		t.Error("missing ability_failed event")
	}
}

func TestAttemptAbility_SelfTargetCapsHP(t *testing.T) {
	e := newTestEngine(t)
	heal := types.Ability{Name: "Mend", Effect: "hero['hp'] += 50", Target: "self"}
	h := addHero(e, 0, 0, map[string]int{"max_hp": 30, "hp": 20}, heal)
	far := addEnemy(e, 15, 15, nil)

	res := e.AttemptAbility(h, far)
	if !res.OK {
		t.Fatalf("self ability rejected: %+v", res)
	}
	if got := h.Stat("hp"); got != 30 {
		t.Errorf("hp = %d, want 30 (capped)", got)
	}
	if got := far.Stat("hp"); got != 15 {
		t.Errorf("enemy hp = %d, want untouched 15", got)
	}
}

func TestAttemptAbility_SelectedAbility(t *testing.T) {
	e := newTestEngine(t)
	h := addHero(e, 0, 0, nil,
		types.Ability{Name: "Poke", Effect: "target['hp'] -= 1"},
		types.Ability{Name: "Slam", Effect: "target['hp'] -= 6"})
	en := addEnemy(e, 1, 0, nil)

	if res := e.SelectAbility(h, 5); res.OK || res.Reason != types.ReasonNoAbility {
		t.Errorf("SelectAbility(5) = %+v", res)
	}
	if res := e.SelectAbility(en, 0); res.OK {
		t.Error("enemies cannot select abilities")
	}
	e.SelectAbility(h, 1)
	e.AttemptAbility(h, en)
	if got := en.Stat("hp"); got != 9 {
		t.Errorf("enemy hp = %d, want 9", got)
	}
}

func TestAttemptAbility_KillRemovesEnemy(t *testing.T) {
	e := newTestEngine(t)
	h := addHero(e, 0, 0, nil, kick)
	en := addEnemy(e, 1, 0, map[string]int{"max_hp": 4})

	res := e.AttemptAbility(h, en)
	if !hasEvent(res, events.EntityDied) {
		t.Error("missing entity_died event")
	}
	if e.World.Find(en.ID) != nil {
		t.Error("dead enemy still in world")
	}
}

func TestSweep_GuardianClaimsNearestLair(t *testing.T) {
	e := newTestEngine(t)
	e.Defs.Lairs = []state.LairDef{{Cell: types.Cell{X: 5, Y: 5}}, {Cell: types.Cell{X: 15, Y: 5}}}
	near := &state.Lair{Cell: types.Cell{X: 5, Y: 5}, GuardiansNeeded: 2, GuardiansSpawned: true, SpawnTimer: 5}
	far := &state.Lair{Cell: types.Cell{X: 15, Y: 5}, GuardiansNeeded: 1, GuardiansSpawned: true, SpawnTimer: 5}
	e.World.Lairs = []*state.Lair{near, far}

	h := addHero(e, 8, 5, nil, kick)
	g := addEnemy(e, 7, 5, map[string]int{"max_hp": 1})
	g.Enemy.Guardian = true

	e.AttemptAbility(h, g)
	if near.GuardiansNeeded != 1 {
		t.Errorf("near lair needs %d, want 1", near.GuardiansNeeded)
	}
	if far.GuardiansNeeded != 1 {
		t.Errorf("far lair needs %d, want 1", far.GuardiansNeeded)
	}

	// A non-guardian kill leaves lairs alone.
	rat := addEnemy(e, 9, 5, map[string]int{"max_hp": 1})
	e.AttemptAbility(h, rat)
	if near.GuardiansNeeded != 1 {
		t.Errorf("roamer death changed lair count to %d", near.GuardiansNeeded)
	}
}

func TestSweep_ClearedLairNoLongerClaims(t *testing.T) {
	e := newTestEngine(t)
	e.Defs.Lairs = []state.LairDef{{Cell: types.Cell{X: 5, Y: 5}}, {Cell: types.Cell{X: 12, Y: 5}}}
	a := &state.Lair{Cell: types.Cell{X: 5, Y: 5}, GuardiansNeeded: 1, GuardiansSpawned: true, SpawnTimer: 5}
	b := &state.Lair{Cell: types.Cell{X: 12, Y: 5}, GuardiansNeeded: 2, GuardiansSpawned: true, SpawnTimer: 5}
	e.World.Lairs = []*state.Lair{a, b}

	h := addHero(e, 7, 5, nil, kick)
	g1 := addEnemy(e, 6, 5, map[string]int{"max_hp": 1})
	g1.Enemy.Guardian = true
	g2 := addEnemy(e, 8, 5, map[string]int{"max_hp": 1})
	g2.Enemy.Guardian = true

	e.AttemptAbility(h, g1)
	if a.GuardiansNeeded != 0 || b.GuardiansNeeded != 2 {
		t.Fatalf("after first kill: a=%d b=%d, want 0 and 2", a.GuardiansNeeded, b.GuardiansNeeded)
	}

	// (8,5) is nearer the cleared lair, but only b can still claim it.
	e.AttemptAbility(h, g2)
	if a.GuardiansNeeded != 0 {
		t.Errorf("cleared lair needs %d, want 0", a.GuardiansNeeded)
	}
	if b.GuardiansNeeded != 1 {
		t.Errorf("live lair needs %d, want 1", b.GuardiansNeeded)
	}
}

func TestVictory_LastGuardianClearsLair(t *testing.T) {
	e := newTestEngine(t)
	e.Defs.Lairs = []state.LairDef{{Cell: types.Cell{X: 5, Y: 5}}}
	e.World.Lairs = []*state.Lair{{Cell: types.Cell{X: 5, Y: 5}, GuardiansNeeded: 1, GuardiansSpawned: true, SpawnTimer: 5}}

	h := addHero(e, 5, 7, nil, kick)
	g := addEnemy(e, 5, 6, map[string]int{"max_hp": 1})
	g.Enemy.Guardian = true

	res := e.AttemptAbility(h, g)
	if !hasEvent(res, events.Victory) {
		t.Fatalf("missing victory event: %v", res.Events)
	}
	if e.Status() != types.Victory {
		t.Errorf("Status = %v, want Victory", e.Status())
	}

	// Victory is raised once; the cleared lair is removed at rollover.
	e.EndPlayerTurn()
	settled := e.Settle(0)
	if hasEvent(settled, events.Victory) {
		t.Error("victory raised twice")
	}
	if !hasEvent(settled, events.LairCleared) {
		t.Error("missing lair_cleared event")
	}
	if len(e.World.Lairs) != 0 {
		t.Errorf("lairs = %d, want 0", len(e.World.Lairs))
	}
	if e.Status() != types.Victory {
		t.Errorf("Status after removal = %v, want Victory", e.Status())
	}
}

func TestExhaustion_WaitsForEveryHero(t *testing.T) {
	e := newTestEngine(t)
	a := addHero(e, 0, 0, nil, types.Ability{Name: "Tap", Effect: "target['hp'] -= 1"})
	b := addHero(e, 10, 10, map[string]int{"max_hp": 30, "moves_left": 1})
	en := addEnemy(e, 1, 0, map[string]int{"max_hp": 50})

	for i := 0; i < 3; i++ {
		if res := e.AttemptAbility(a, en); !res.OK {
			t.Fatalf("attack %d: %+v", i, res)
		}
	}
	if e.Phase != types.PlayerTurn {
		t.Fatal("phase changed while a hero still had points")
	}
	if res := e.AttemptAbility(a, en); res.Reason != types.ReasonNoActionPoints {
		t.Errorf("fourth attack Reason = %q", res.Reason)
	}

	res := e.AttemptMove(b, types.Cell{X: 10, Y: 11})
	if !res.OK {
		t.Fatalf("move: %+v", res)
	}
	if e.Phase != types.EnemyDeciding {
		t.Errorf("Phase = %v, want enemy_deciding", e.Phase)
	}
	if !hasEvent(res, events.EnemyPhase) {
		t.Error("missing enemy_phase event")
	}
}

func TestEndPlayerTurn(t *testing.T) {
	e := newTestEngine(t)
	addHero(e, 0, 0, nil)
	if res := e.EndPlayerTurn(); !res.OK || e.Phase != types.EnemyDeciding {
		t.Fatalf("EndPlayerTurn: %+v phase %v", res, e.Phase)
	}
	if res := e.EndPlayerTurn(); res.OK || res.Reason != types.ReasonNotPlayerTurn {
		t.Errorf("second EndPlayerTurn = %+v", res)
	}
}

func TestAttemptMove(t *testing.T) {
	e := newTestEngine(t)
	h := addHero(e, 0, 0, nil)

	res := e.AttemptMove(h, types.Cell{X: 2, Y: 0})
	if !res.OK {
		t.Fatalf("AttemptMove: %+v", res)
	}
	want := []types.Cell{{X: 1, Y: 0}, {X: 2, Y: 0}}
	if len(h.Queue) != 2 || h.Queue[0] != want[0] || h.Queue[1] != want[1] {
		t.Errorf("Queue = %v, want %v", h.Queue, want)
	}
	if got := h.Stat("moves_left"); got != 2 {
		t.Errorf("moves_left = %d, want 2", got)
	}
	if !hasEvent(res, events.EntityMoved) {
		t.Error("missing entity_moved event")
	}
	if res := e.AttemptMove(h, types.Cell{X: 3, Y: 0}); res.Reason != types.ReasonBusy {
		t.Errorf("move while moving Reason = %q, want busy", res.Reason)
	}

	if res := e.Settle(0); !res.OK {
		t.Fatalf("Settle: %+v", res)
	}
	if h.Cell != (types.Cell{X: 2, Y: 0}) || h.IsMoving() {
		t.Errorf("after settle cell = %v moving = %v", h.Cell, h.IsMoving())
	}
}

func TestAttemptMove_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		hero   types.Cell
		stats  map[string]int
		dest   types.Cell
		reason types.Reason
	}{
		{"same cell", types.Cell{X: 3, Y: 1}, nil, types.Cell{X: 3, Y: 1}, types.ReasonInvalidTarget},
		{"off grid", types.Cell{X: 0, Y: 0}, nil, types.Cell{X: -1, Y: 0}, types.ReasonBlocked},
		{"blocked cell", types.Cell{X: 1, Y: 3}, nil, types.Cell{X: 2, Y: 3}, types.ReasonBlocked},
		{"occupied", types.Cell{X: 9, Y: 8}, nil, types.Cell{X: 9, Y: 9}, types.ReasonBlocked},
		{"beyond move range", types.Cell{X: 0, Y: 10}, nil, types.Cell{X: 5, Y: 10}, types.ReasonOutOfRange},
		{"enclosed goal", types.Cell{X: 3, Y: 1}, nil, types.Cell{X: 3, Y: 3}, types.ReasonPathNotFound},
		{"detour too long", types.Cell{X: 10, Y: 0}, map[string]int{"max_hp": 30, "move_range": 2}, types.Cell{X: 12, Y: 0}, types.ReasonOutOfRange},
		{"no action points", types.Cell{X: 0, Y: 15}, map[string]int{"max_hp": 30, "moves_left": 0}, types.Cell{X: 1, Y: 15}, types.ReasonNoActionPoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.Defs.Blocked = path.NewSet(
				// ring around (3,3)
				types.Cell{X: 2, Y: 3}, types.Cell{X: 4, Y: 3}, types.Cell{X: 3, Y: 2}, types.Cell{X: 3, Y: 4},
				// wall east of (10,0)
				types.Cell{X: 11, Y: 0}, types.Cell{X: 11, Y: 1},
			)
			addEnemy(e, 9, 9, nil)
			h := addHero(e, tt.hero.X, tt.hero.Y, tt.stats)

			res := e.AttemptMove(h, tt.dest)
			if res.OK {
				t.Fatal("expected rejection")
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.reason)
			}
			if h.IsMoving() || h.Cell != tt.hero {
				t.Error("rejected move changed position")
			}
		})
	}
}

func TestAttemptMove_RoutesAroundEntities(t *testing.T) {
	e := newTestEngine(t)
	h := addHero(e, 0, 0, nil)
	addEnemy(e, 1, 0, nil)

	res := e.AttemptMove(h, types.Cell{X: 2, Y: 0})
	if !res.OK {
		t.Fatalf("AttemptMove: %+v", res)
	}
	for _, c := range h.Queue {
		if c == (types.Cell{X: 1, Y: 0}) {
			t.Errorf("route %v walks through the enemy", h.Queue)
		}
	}
	if len(h.Queue) != 4 {
		t.Errorf("route length = %d, want 4", len(h.Queue))
	}
}
