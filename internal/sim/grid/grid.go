// Package grid is the cell-occupancy service: a square board of cells, each with
// at most one occupant, a multiset of percept tags and a visibility flag.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"wumpusworld.ai/internal/sim/geom"
)

var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrEmpty       = errors.New("cell empty")
)

type Cell struct {
	Occupant Entity
	Percepts []Tag
	Visible  bool
}

type Grid struct {
	size  int
	cells []Cell
}

func New(size int) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", size)
	}
	return &Grid{size: size, cells: make([]Cell, size*size)}, nil
}

func (g *Grid) Size() int { return g.size }

func (g *Grid) index(p geom.Pos) (int, error) {
	if !geom.InBounds(p, g.size) {
		return 0, fmt.Errorf("%w: %s on %dx%d grid", ErrOutOfBounds, p, g.size, g.size)
	}
	return p.X*g.size + p.Y, nil
}

// CellAt returns a copy of the cell; mutating it does not affect the grid.
func (g *Grid) CellAt(p geom.Pos) (Cell, error) {
	i, err := g.index(p)
	if err != nil {
		return Cell{}, err
	}
	c := g.cells[i]
	c.Percepts = sortedTags(c.Percepts)
	return c, nil
}

func (g *Grid) Occupant(p geom.Pos) Entity {
	i, err := g.index(p)
	if err != nil {
		return nil
	}
	return g.cells[i].Occupant
}

// Percepts returns the tags present at p in a stable order.
func (g *Grid) Percepts(p geom.Pos) []Tag {
	i, err := g.index(p)
	if err != nil {
		return nil
	}
	return sortedTags(g.cells[i].Percepts)
}

func (g *Grid) Visible(p geom.Pos) bool {
	i, err := g.index(p)
	if err != nil {
		return false
	}
	return g.cells[i].Visible
}

func (g *Grid) Neighbors4(p geom.Pos) []geom.Pos { return geom.Neighbors4(p, g.size) }
func (g *Grid) Neighbors8(p geom.Pos) []geom.Pos { return geom.Neighbors8(p, g.size) }

// NeighborsRadius returns the Neumann neighbourhood of range r.
func (g *Grid) NeighborsRadius(p geom.Pos, r int) []geom.Pos { return geom.Neumann(p, g.size, r) }

func (g *Grid) Reveal(p geom.Pos) error {
	i, err := g.index(p)
	if err != nil {
		return err
	}
	g.cells[i].Visible = true
	return nil
}

// Place puts a freshly created entity at p. It is SetOccupant for callers that
// build a board from a layout.
func (g *Grid) Place(p geom.Pos, e Entity) error { return g.SetOccupant(p, e) }

// SetOccupant places e at p and spreads its percept.
func (g *Grid) SetOccupant(p geom.Pos, e Entity) error {
	i, err := g.index(p)
	if err != nil {
		return err
	}
	if g.cells[i].Occupant != nil {
		return fmt.Errorf("%w: %s holds %s", ErrOccupied, p, g.cells[i].Occupant.Kind())
	}
	g.cells[i].Occupant = e
	g.emit(p, e)
	return nil
}

// RemoveOccupant clears p and withdraws the occupant's percept.
func (g *Grid) RemoveOccupant(p geom.Pos) (Entity, error) {
	i, err := g.index(p)
	if err != nil {
		return nil, err
	}
	e := g.cells[i].Occupant
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, p)
	}
	g.withdraw(p, e)
	g.cells[i].Occupant = nil
	return e, nil
}

// Move reassigns the occupant of from to the empty cell to.
func (g *Grid) Move(from, to geom.Pos) error {
	fi, err := g.index(from)
	if err != nil {
		return err
	}
	ti, err := g.index(to)
	if err != nil {
		return err
	}
	e := g.cells[fi].Occupant
	if e == nil {
		return fmt.Errorf("%w: %s", ErrEmpty, from)
	}
	if g.cells[ti].Occupant != nil {
		return fmt.Errorf("%w: %s holds %s", ErrOccupied, to, g.cells[ti].Occupant.Kind())
	}
	g.withdraw(from, e)
	g.cells[fi].Occupant = nil
	g.cells[ti].Occupant = e
	g.emit(to, e)
	return nil
}

// Ignite turns on the glow of the gold at p.
func (g *Grid) Ignite(p geom.Pos) error {
	gold, ok := g.Occupant(p).(*Gold)
	if !ok {
		return fmt.Errorf("no gold at %s", p)
	}
	if gold.Glowing {
		return nil
	}
	g.withdraw(p, gold)
	gold.Glowing = true
	g.emit(p, gold)
	return nil
}

func (g *Grid) emit(p geom.Pos, e Entity) {
	tag, r, ok := emission(e)
	if !ok {
		return
	}
	for _, q := range geom.Neumann(p, g.size, r) {
		i := q.X*g.size + q.Y
		g.cells[i].Percepts = append(g.cells[i].Percepts, tag)
	}
}

func (g *Grid) withdraw(p geom.Pos, e Entity) {
	tag, r, ok := emission(e)
	if !ok {
		return
	}
	for _, q := range geom.Neumann(p, g.size, r) {
		i := q.X*g.size + q.Y
		g.cells[i].Percepts = removeOne(g.cells[i].Percepts, tag)
	}
}

// Each visits every occupied cell in X-major order.
func (g *Grid) Each(fn func(p geom.Pos, e Entity)) {
	for i, c := range g.cells {
		if c.Occupant == nil {
			continue
		}
		fn(geom.Pos{X: i / g.size, Y: i % g.size}, c.Occupant)
	}
}

func removeOne(tags []Tag, t Tag) []Tag {
	for i, v := range tags {
		if v == t {
			return append(tags[:i], tags[i+1:]...)
		}
	}
	return tags
}

func sortedTags(tags []Tag) []Tag {
	if len(tags) == 0 {
		return nil
	}
	out := append([]Tag(nil), tags...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
