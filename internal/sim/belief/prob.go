package belief

import (
	"encoding/json"
	"strconv"
)

// Prob is a hazard probability that is either Unknown or a value in [0, 1].
// The zero value is Unknown.
type Prob struct {
	known bool
	v     float64
}

var Unknown = Prob{}

// Value returns a known probability, clamped into [0, 1].
func Value(v float64) Prob {
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	return Prob{known: true, v: v}
}

func (p Prob) Known() bool { return p.known }

func (p Prob) Float() (float64, bool) { return p.v, p.known }

// Locked reports whether p is exactly 0 or exactly 1. Estimation never
// overwrites a locked probability.
func (p Prob) Locked() bool { return p.known && (p.v == 0 || p.v == 1) }

// Is reports whether p is known and equal to v.
func (p Prob) Is(v float64) bool { return p.known && p.v == v }

// Greater reports whether p ranks strictly above o. Unknown ranks below every
// known value.
func (p Prob) Greater(o Prob) bool {
	if !p.known {
		return false
	}
	if !o.known {
		return true
	}
	return p.v > o.v
}

func (p Prob) String() string {
	if !p.known {
		return "?"
	}
	return strconv.FormatFloat(p.v, 'g', 4, 64)
}

func (p Prob) MarshalJSON() ([]byte, error) {
	if !p.known {
		return []byte("null"), nil
	}
	return json.Marshal(p.v)
}

func (p *Prob) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Unknown
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Value(v)
	return nil
}
