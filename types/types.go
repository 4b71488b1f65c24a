// Package types defines the shared data structures for the LairGrid engine.
// This package contains only type definitions and trivial helpers, no game logic.
package types

import "fmt"

// Cell is an integer grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Vec is a continuous world coordinate. Only used for movement animation;
// pathing and range checks work on cells.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Role is the closed set of combat participant kinds.
type Role int

const (
	RoleHero Role = iota
	RoleEnemy
	RoleNPC
	RoleItem
)

var roleNames = [...]string{"hero", "enemy", "npc", "item"}

func (r Role) String() string {
	if int(r) < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// ParseRole converts a role name into a Role. Returns false for unknown names.
func ParseRole(name string) (Role, bool) {
	for i, n := range roleNames {
		if n == name {
			return Role(i), true
		}
	}
	return 0, false
}

// Ability is a named ability effect script.
type Ability struct {
	Name        string `json:"name"`
	Effect      string `json:"effect"`
	Description string `json:"description"`
	Target      string `json:"target,omitempty"` // "enemy" or "self"; informational
}

// Phase is the turn state of the combat controller.
type Phase int

const (
	PlayerTurn Phase = iota
	EnemyDeciding
	EnemyMoving
)

var phaseNames = [...]string{"player_turn", "enemy_deciding", "enemy_moving"}

func (p Phase) String() string {
	if int(p) < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Status is the encounter outcome as seen by the core.
type Status int

const (
	Ongoing Status = iota
	Victory
	Defeat
)

func (s Status) String() string {
	switch s {
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	}
	return "ongoing"
}

// Reason is the machine-readable code attached to a command result.
type Reason string

const (
	ReasonOK             Reason = "ok"
	ReasonNotPlayerTurn  Reason = "not_player_turn"
	ReasonNoActionPoints Reason = "no_action_points"
	ReasonOutOfRange     Reason = "out_of_range"
	ReasonNoAbility      Reason = "no_ability"
	ReasonInvalidTarget  Reason = "invalid_target"
	ReasonPathNotFound   Reason = "path_not_found"
	ReasonBusy           Reason = "busy"
	ReasonScriptError    Reason = "script_error"
	ReasonBlocked        Reason = "blocked"
)

// Event is emitted by the controller whenever something observable happens.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single command or tick.
type Result struct {
	OK     bool
	Reason Reason
	Err    error
	Events []Event
	Output []string
}

// Intent is a parsed text command. Coordinates and ability numbers are only
// meaningful for the verbs that take them.
type Intent struct {
	Verb   string
	Object string
	Target string
	Cell   Cell
	HasPos bool
	N      int // 1-based ability number for "select", 0 when absent
}
