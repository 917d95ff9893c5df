package geom

import "fmt"

// Direction is an absolute facing. Front is +Y, Back is -Y, Right is +X, Left is -X.
type Direction uint8

const (
	DirNone Direction = iota
	Front
	Back
	Left
	Right
)

var directionNames = [...]string{
	DirNone: "none",
	Front:   "front",
	Back:    "back",
	Left:    "left",
	Right:   "right",
}

var directionDeltas = map[Direction]Pos{
	Front: {X: 0, Y: 1},
	Back:  {X: 0, Y: -1},
	Left:  {X: -1, Y: 0},
	Right: {X: 1, Y: 0},
}

// Directions lists the four valid facings in a fixed order.
var Directions = [4]Direction{Front, Back, Left, Right}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

func (d Direction) Valid() bool {
	_, ok := directionDeltas[d]
	return ok
}

func (d Direction) Delta() (Pos, bool) {
	v, ok := directionDeltas[d]
	return v, ok
}

func ParseDirection(s string) (Direction, error) {
	for _, d := range Directions {
		if directionNames[d] == s {
			return d, nil
		}
	}
	return DirNone, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Step returns the neighbouring position in direction d. Bounds are not checked.
func (p Pos) Step(d Direction) (Pos, error) {
	delta, ok := d.Delta()
	if !ok {
		return p, fmt.Errorf("%w: %s", ErrInvalidDirection, d)
	}
	return p.Add(delta), nil
}

// DirectionBetween maps a unit orthogonal delta from -> to onto a facing.
func DirectionBetween(from, to Pos) (Direction, error) {
	delta := to.Sub(from)
	for _, d := range Directions {
		if directionDeltas[d] == delta {
			return d, nil
		}
	}
	return DirNone, fmt.Errorf("%w: delta (%d, %d)", ErrInvalidDirection, delta.X, delta.Y)
}
