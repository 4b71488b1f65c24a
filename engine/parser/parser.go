// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strconv"
	"strings"

	"github.com/nathoo/lairgrid/types"
)

// Compass shortcuts step the active hero one cell. Y grows downward.
var directionExpansions = map[string]string{
	"n": "north",
	"s": "south",
	"e": "east",
	"w": "west",
}

var directionNames = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
}

var verbAliases = map[string]string{
	// Look
	"l":       "look",
	"map":     "look",
	"m":       "look",
	"x":       "examine",
	"inspect": "examine",
	"check":   "examine",

	// Movement
	"go":   "move",
	"walk": "move",
	"run":  "move",
	"mv":   "move",

	// Abilities
	"attack":  "use",
	"hit":     "use",
	"fight":   "use",
	"strike":  "use",
	"cast":    "use",
	"u":       "use",
	"sel":     "select",
	"pick":    "select",
	"ability": "select",

	// Turn control
	"done": "end",
	"pass": "end",
	"tab":  "next",
	"z":    "wait",

	// Lists
	"stats":  "status",
	"st":     "status",
	"party":  "heroes",
	"foes":   "enemies",
	"skills": "abilities",
	"ab":     "abilities",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true, "against": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Direction shortcut: bare "n", "south", etc. → step <direction>
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Intent{Verb: "step", Object: dir}
		}
		if directionNames[words[0]] {
			return types.Intent{Verb: "step", Object: words[0]}
		}
	}

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])

	switch verb {
	case "move":
		// "move 3 4", "move 3,4", "move (3, 4)" or "move north".
		if cell, ok := parseCell(rest); ok {
			return types.Intent{Verb: "move", Cell: cell, HasPos: true}
		}
		if len(rest) == 1 {
			if dir, ok := directionExpansions[rest[0]]; ok {
				return types.Intent{Verb: "step", Object: dir}
			}
			if directionNames[rest[0]] {
				return types.Intent{Verb: "step", Object: rest[0]}
			}
		}
		return types.Intent{Verb: "move", Object: strings.Join(rest, " ")}

	case "select":
		if len(rest) == 1 {
			if n, err := strconv.Atoi(rest[0]); err == nil {
				return types.Intent{Verb: "select", N: n}
			}
		}
		return types.Intent{Verb: "select", Object: strings.Join(rest, " ")}
	}

	// Use the first preposition as a delimiter between object and target.
	object, target := splitOnPreposition(rest)

	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
	}
}

// parseCell reads two integers, tolerating commas and parentheses.
func parseCell(words []string) (types.Cell, bool) {
	joined := strings.Join(words, " ")
	joined = strings.NewReplacer(",", " ", "(", " ", ")", " ").Replace(joined)
	parts := strings.Fields(joined)
	if len(parts) != 2 {
		return types.Cell{}, false
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return types.Cell{}, false
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return types.Cell{}, false
	}
	return types.Cell{X: x, Y: y}, true
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition splits words on the first preposition.
// Words before the preposition become the object, words after become the target.
// If no preposition is found, all words become the object.
func splitOnPreposition(words []string) (object, target string) {
	for i, w := range words {
		if prepositions[w] {
			object = strings.Join(words[:i], " ")
			target = strings.Join(words[i+1:], " ")
			return object, target
		}
	}
	return strings.Join(words, " "), ""
}
