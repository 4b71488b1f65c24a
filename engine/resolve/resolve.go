// Package resolve maps names typed by the player to entities on the grid.
package resolve

import (
	"fmt"
	"strings"

	"github.com/nathoo/lairgrid/engine/entity"
)

// AmbiguityError indicates multiple entities matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// NotFoundError indicates no entity matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("there is no %q here", e.Name)
}

// Resolve finds the one entity in ents that name refers to. An exact ID
// wins outright; otherwise names match case-insensitively, either whole or
// by a single word ("rat" matches "Giant Rat").
func Resolve(ents []*entity.Entity, name string) (*entity.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &NotFoundError{Name: name}
	}
	for _, ent := range ents {
		if strings.EqualFold(ent.ID, name) {
			return ent, nil
		}
	}

	lower := strings.ToLower(name)
	var exact, partial []*entity.Entity
	for _, ent := range ents {
		switch matchName(ent.Name, lower) {
		case matchExact:
			exact = append(exact, ent)
		case matchWord:
			partial = append(partial, ent)
		}
	}

	// A whole-name match beats word matches: "rat" picks "Rat" over "Giant Rat".
	matches := exact
	if len(matches) == 0 {
		matches = partial
	}
	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return nil, &AmbiguityError{Name: name, Candidates: ids}
}

type match int

const (
	matchNone match = iota
	matchWord
	matchExact
)

func matchName(entityName, query string) match {
	nameLower := strings.ToLower(entityName)
	if nameLower == query || strings.ReplaceAll(nameLower, " ", "_") == query {
		return matchExact
	}
	for _, word := range strings.Fields(nameLower) {
		if word == query {
			return matchWord
		}
	}
	return matchNone
}
