package geom

// Neumann returns the axis-aligned cells within range r of p (the centre excluded),
// clipped to a size x size grid.
func Neumann(p Pos, size, r int) []Pos {
	out := make([]Pos, 0, 4*r)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if (dx == 0 && dy == 0) || (dx != 0 && dy != 0) {
				continue
			}
			q := Pos{X: p.X + dx, Y: p.Y + dy}
			if InBounds(q, size) {
				out = append(out, q)
			}
		}
	}
	return out
}

// Moore returns every cell of the (2r+1)^2 square around p except p itself,
// clipped to the grid.
func Moore(p Pos, size, r int) []Pos {
	out := make([]Pos, 0, (2*r+1)*(2*r+1)-1)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			q := Pos{X: p.X + dx, Y: p.Y + dy}
			if InBounds(q, size) {
				out = append(out, q)
			}
		}
	}
	return out
}

func Neighbors4(p Pos, size int) []Pos { return Neumann(p, size, 1) }

func Neighbors8(p Pos, size int) []Pos { return Moore(p, size, 1) }

// WhisperArea is the union of the radius-1 Moore ring and the radius-2 Neumann
// diamond around p.
func WhisperArea(p Pos, size int) []Pos {
	out := Moore(p, size, 1)
	seen := make(map[Pos]struct{}, len(out)+4)
	for _, q := range out {
		seen[q] = struct{}{}
	}
	for _, q := range Neumann(p, size, 2) {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
