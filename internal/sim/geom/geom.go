// Package geom holds grid coordinates, facing directions and the neighbourhood
// shapes shared by the grid, the belief engine and message delivery.
package geom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidDirection = errors.New("invalid direction")

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func P(x, y int) Pos { return Pos{X: x, Y: y} }

// String renders the coordinate in wire form, "(x, y)".
func (p Pos) String() string { return fmt.Sprintf("(%d, %d)", p.X, p.Y) }

func (p Pos) Add(d Pos) Pos { return Pos{X: p.X + d.X, Y: p.Y + d.Y} }

func (p Pos) Sub(o Pos) Pos { return Pos{X: p.X - o.X, Y: p.Y - o.Y} }

// Less orders positions by X then Y.
func (p Pos) Less(o Pos) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

func (p Pos) ToArray() [2]int { return [2]int{p.X, p.Y} }

// ParsePos strips parentheses and splits on the comma. Spaces around either
// component are ignored.
func ParsePos(s string) (Pos, error) {
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Pos{}, fmt.Errorf("coordinate %q: missing comma", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Pos{}, fmt.Errorf("coordinate x: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Pos{}, fmt.Errorf("coordinate y: %w", err)
	}
	return Pos{X: x, Y: y}, nil
}

func InBounds(p Pos, size int) bool {
	return p.X >= 0 && p.X < size && p.Y >= 0 && p.Y < size
}

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func Manhattan(a, b Pos) int {
	return AbsInt(a.X-b.X) + AbsInt(a.Y-b.Y)
}
