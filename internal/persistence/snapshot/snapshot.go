// Package snapshot stores everything needed to rebuild an episode from its
// first tick: the board layout, the episode config and the tuning it came from.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/scenario"
	"wumpusworld.ai/internal/sim/tuning"
	"wumpusworld.ai/internal/sim/world"
)

const Version = 1

type Header struct {
	Version   int    `json:"version"`
	EpisodeID string `json:"episode_id"`
	Seed      uint64 `json:"seed"`
	Tick      uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Config world.Config  `json:"config"`
	Layout LayoutV1      `json:"layout"`
	Tuning tuning.Tuning `json:"tuning"`
}

type LayoutV1 struct {
	Name   string    `json:"name,omitempty"`
	Size   int       `json:"size"`
	Pits   [][2]int  `json:"pits,omitempty"`
	Wumpus [][2]int  `json:"wumpus,omitempty"`
	Gold   [][2]int  `json:"gold,omitempty"`
	Agents []AgentV1 `json:"agents"`
}

type AgentV1 struct {
	ID        string `json:"id"`
	Pos       [2]int `json:"pos"`
	Direction string `json:"direction,omitempty"`
	Manual    bool   `json:"manual,omitempty"`
}

func exportPositions(ps []geom.Pos) [][2]int {
	var out [][2]int
	for _, p := range ps {
		out = append(out, p.ToArray())
	}
	return out
}

func importPositions(ps [][2]int) []geom.Pos {
	var out []geom.Pos
	for _, p := range ps {
		out = append(out, geom.P(p[0], p[1]))
	}
	return out
}

func ExportLayout(l scenario.Layout) LayoutV1 {
	out := LayoutV1{
		Name:   l.Name,
		Size:   l.Size,
		Pits:   exportPositions(l.Pits),
		Wumpus: exportPositions(l.Wumpus),
		Gold:   exportPositions(l.Gold),
	}
	for _, a := range l.Agents {
		out.Agents = append(out.Agents, AgentV1{ID: a.ID, Pos: a.Pos.ToArray(), Direction: a.Direction, Manual: !a.IsAuto()})
	}
	return out
}

func (l LayoutV1) Import() scenario.Layout {
	out := scenario.Layout{
		Name:   l.Name,
		Size:   l.Size,
		Pits:   importPositions(l.Pits),
		Wumpus: importPositions(l.Wumpus),
		Gold:   importPositions(l.Gold),
	}
	for _, a := range l.Agents {
		spec := scenario.AgentSpec{ID: a.ID, Pos: geom.P(a.Pos[0], a.Pos[1]), Direction: a.Direction}
		if a.Manual {
			auto := false
			spec.Auto = &auto
		}
		out.Agents = append(out.Agents, spec)
	}
	return out
}

// FromWorld captures a freshly built world. t is the tuning the config was
// derived from and is kept for reference only.
func FromWorld(w *world.World, t tuning.Tuning) SnapshotV1 {
	cfg := w.Config()
	return SnapshotV1{
		Header: Header{
			Version:   Version,
			EpisodeID: cfg.EpisodeID,
			Seed:      cfg.Seed,
			Tick:      w.CurrentTick(),
		},
		Config: cfg,
		Layout: ExportLayout(w.Layout()),
		Tuning: t,
	}
}

// Path is where an episode's snapshot lives under dir.
func Path(dir, episode string) string {
	return filepath.Join(dir, "snapshots", episode+".snap.zst")
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// Restore builds a new world at the snapshot's starting tick.
func (s SnapshotV1) Restore(logger logrus.FieldLogger) (*world.World, error) {
	if s.Header.Tick != 0 {
		return nil, fmt.Errorf("snapshot at tick %d: only episode-start snapshots can be restored", s.Header.Tick)
	}
	return world.New(s.Config, s.Layout.Import(), logger)
}
