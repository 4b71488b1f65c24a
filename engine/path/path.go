// Package path finds shortest 4-connected routes on a bounded grid.
package path

import "github.com/nathoo/lairgrid/types"

// Set is a set of grid cells.
type Set map[types.Cell]struct{}

// NewSet returns a set holding the given cells.
func NewSet(cells ...types.Cell) Set {
	s := make(Set, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Add(c types.Cell)    { s[c] = struct{}{} }
func (s Set) Remove(c types.Cell) { delete(s, c) }

func (s Set) Has(c types.Cell) bool {
	_, ok := s[c]
	return ok
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Neighbour expansion order is fixed so equal-length paths are reproducible.
var directions = [4]types.Cell{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// Find runs a breadth-first search from start to goal inside [0,width) x
// [0,height), never entering a cell in obstacles. The result lists the cells
// after start up to and including goal. It is empty when goal is unreachable
// or equal to start. The caller must leave start out of obstacles.
func Find(start, goal types.Cell, width, height int, obstacles Set) []types.Cell {
	if start == goal {
		return nil
	}
	cameFrom := map[types.Cell]types.Cell{start: start}
	queue := []types.Cell{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == goal {
			break
		}
		for _, d := range directions {
			next := types.Cell{X: cur.X + d.X, Y: cur.Y + d.Y}
			if next.X < 0 || next.X >= width || next.Y < 0 || next.Y >= height {
				continue
			}
			if _, seen := cameFrom[next]; seen {
				continue
			}
			if obstacles.Has(next) {
				continue
			}
			cameFrom[next] = cur
			queue = append(queue, next)
		}
	}

	if _, ok := cameFrom[goal]; !ok {
		return nil
	}
	var route []types.Cell
	for c := goal; c != start; c = cameFrom[c] {
		route = append(route, c)
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}

// Manhattan returns the grid distance between two cells.
func Manhattan(a, b types.Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
