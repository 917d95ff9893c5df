// Package scenario describes where everything starts on the board, either read
// from a JSON file or drawn at random from the tuning.
package scenario

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/tuning"
)

//go:embed scenario.schema.json
var schemaJSON string

var ErrInvalid = errors.New("invalid scenario")

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("scenario.schema.json", schemaJSON)
})

type AgentSpec struct {
	ID        string   `json:"id"`
	Pos       geom.Pos `json:"pos"`
	Direction string   `json:"direction,omitempty"`
	// Auto defaults to true. Manual agents wait for explicit actions.
	Auto *bool `json:"auto,omitempty"`
}

func (a AgentSpec) IsAuto() bool { return a.Auto == nil || *a.Auto }

type Layout struct {
	Name   string      `json:"name,omitempty"`
	Size   int         `json:"size"`
	Pits   []geom.Pos  `json:"pits,omitempty"`
	Wumpus []geom.Pos  `json:"wumpus,omitempty"`
	Gold   []geom.Pos  `json:"gold,omitempty"`
	Agents []AgentSpec `json:"agents"`
}

func Load(path string) (Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	l, err := Parse(raw)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse validates raw against the scenario schema and then checks what the
// schema cannot: bounds, overlaps and duplicate ids.
func Parse(raw []byte) (Layout, error) {
	schema, err := compiled()
	if err != nil {
		return Layout{}, fmt.Errorf("compile scenario schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var l Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := l.Check(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Check reports out-of-grid or doubly occupied cells and duplicate agent ids.
func (l Layout) Check() error {
	seen := map[geom.Pos]string{}
	claim := func(what string, p geom.Pos) error {
		if !geom.InBounds(p, l.Size) {
			return fmt.Errorf("%w: %s at %s is outside the %dx%d grid", ErrInvalid, what, p, l.Size, l.Size)
		}
		if prev, ok := seen[p]; ok {
			return fmt.Errorf("%w: %s and %s share %s", ErrInvalid, prev, what, p)
		}
		seen[p] = what
		return nil
	}
	groups := []struct {
		what string
		at   []geom.Pos
	}{{"wumpus", l.Wumpus}, {"gold", l.Gold}, {"pit", l.Pits}}
	for _, g := range groups {
		for _, p := range g.at {
			if err := claim(g.what, p); err != nil {
				return err
			}
		}
	}
	ids := map[string]struct{}{}
	for _, a := range l.Agents {
		if _, dup := ids[a.ID]; dup {
			return fmt.Errorf("%w: duplicate agent id %q", ErrInvalid, a.ID)
		}
		ids[a.ID] = struct{}{}
		if err := claim("agent "+a.ID, a.Pos); err != nil {
			return err
		}
		if a.Direction != "" {
			if _, err := geom.ParseDirection(a.Direction); err != nil {
				return fmt.Errorf("%w: agent %s: %v", ErrInvalid, a.ID, err)
			}
		}
	}
	return nil
}

// Generate draws a random layout: wumpus first, then gold, pits and agents,
// each on a free cell picked uniformly.
func Generate(t tuning.Tuning, rng *rand.Rand) (Layout, error) {
	if err := t.Validate(); err != nil {
		return Layout{}, err
	}
	l := Layout{Size: t.GridSize}
	taken := map[geom.Pos]bool{}
	free := func() geom.Pos {
		for {
			p := geom.P(rng.IntN(t.GridSize), rng.IntN(t.GridSize))
			if !taken[p] {
				taken[p] = true
				return p
			}
		}
	}
	for i := 0; i < t.Wumpus; i++ {
		l.Wumpus = append(l.Wumpus, free())
	}
	for i := 0; i < t.Gold; i++ {
		l.Gold = append(l.Gold, free())
	}
	for i := 0; i < t.Pits; i++ {
		l.Pits = append(l.Pits, free())
	}
	for i := 0; i < t.Agents; i++ {
		l.Agents = append(l.Agents, AgentSpec{ID: fmt.Sprintf("agent-%d", i+1), Pos: free(), Direction: "front"})
	}
	return l, nil
}
