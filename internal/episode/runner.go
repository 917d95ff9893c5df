// Package episode runs one Wumpus episode end to end: layout, world, tick log,
// snapshot, index rows, live feeds and the final archive.
package episode

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/persistence/archive"
	"wumpusworld.ai/internal/persistence/indexdb"
	persistlog "wumpusworld.ai/internal/persistence/log"
	"wumpusworld.ai/internal/persistence/snapshot"
	"wumpusworld.ai/internal/sim/scenario"
	"wumpusworld.ai/internal/sim/tuning"
	"wumpusworld.ai/internal/sim/world"
)

// Feed is a live consumer of ticks that follows the runner from episode to
// episode (observer hub, pilot server).
type Feed interface {
	world.TickSink
	Attach(w *world.World)
}

// Finisher is implemented by feeds that want the final outcome.
type Finisher interface {
	Finish(out world.Outcome)
}

type Runner struct {
	Tuning tuning.Tuning
	// Layout pins the board. Nil draws a fresh board from the seed.
	Layout *scenario.Layout
	// DataDir receives tick logs, snapshots and archives. Empty keeps
	// everything in memory.
	DataDir string
	// Realtime paces ticks at the tuning's tick rate.
	Realtime bool
	Index    *indexdb.SQLiteIndex
	Feeds    []Feed
	Logger   logrus.FieldLogger
}

type Result struct {
	Outcome      world.Outcome
	Seed         uint64
	Digest       string
	SnapshotPath string
	EventsPath   string
	ArchiveDir   string
}

func NewID() string { return uuid.NewString() }

// LayoutRNG is the stream boards are drawn from. It is separate from the
// world's episode stream so a pinned layout and a drawn one replay alike.
func LayoutRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(^seed, seed))
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

// Build prepares the world for one episode without running it.
func (r *Runner) Build(id string, seed uint64) (*world.World, error) {
	var layout scenario.Layout
	if r.Layout != nil {
		layout = *r.Layout
	} else {
		var err error
		if layout, err = scenario.Generate(r.Tuning, LayoutRNG(seed)); err != nil {
			return nil, fmt.Errorf("generate layout: %w", err)
		}
	}
	cfg, err := world.ConfigFromTuning(r.Tuning, id, seed)
	if err != nil {
		return nil, err
	}
	return world.New(cfg, layout, r.logger())
}

// Run plays one episode to its end or until ctx is done.
func (r *Runner) Run(ctx context.Context, seed uint64) (Result, error) {
	id := NewID()
	log := r.logger().WithFields(logrus.Fields{"episode": id, "seed": seed})
	w, err := r.Build(id, seed)
	if err != nil {
		return Result{}, err
	}
	res := Result{Seed: seed}

	snap := snapshot.FromWorld(w, r.Tuning)
	var tickLog *persistlog.TickLogger
	if r.DataDir != "" {
		res.SnapshotPath = snapshot.Path(r.DataDir, id)
		if err := snapshot.WriteSnapshot(res.SnapshotPath, snap); err != nil {
			return res, fmt.Errorf("write snapshot: %w", err)
		}
		tickLog = persistlog.NewTickLogger(r.DataDir, id)
		res.EventsPath = tickLog.Path()
		w.AddTickSink(tickLog)
	}
	if r.Index != nil {
		r.Index.RecordEpisode(indexdb.EpisodeFromSnapshot(snap, res.SnapshotPath, res.EventsPath))
		w.AddTickSink(r.Index)
	}
	for _, f := range r.Feeds {
		f.Attach(w)
		w.AddTickSink(f)
	}
	digest := sinkDigest(w)
	log.WithField("size", w.Size()).Infof("episode started with %d agents", len(w.Agents()))

	runErr := r.play(ctx, w)

	res.Outcome = w.Outcome()
	if !w.Over() {
		res.Outcome.Reason = world.ReasonInterrupted
	}
	res.Digest = *digest
	if r.Index != nil {
		r.Index.RecordOutcome(res.Outcome)
	}
	for _, f := range r.Feeds {
		if fin, ok := f.(Finisher); ok {
			fin.Finish(res.Outcome)
		}
	}
	if tickLog != nil {
		if err := tickLog.Close(); err != nil {
			return res, fmt.Errorf("close tick log: %w", err)
		}
		dir, err := archive.ArchiveEpisode(r.DataDir, res.SnapshotPath, res.EventsPath, seed, res.Outcome)
		if err != nil {
			log.Warnf("archive: %v", err)
		}
		res.ArchiveDir = dir
	}
	log.WithFields(logrus.Fields{"reason": res.Outcome.Reason, "tick": res.Outcome.Tick}).
		Infof("episode finished, total score %d", res.Outcome.TotalScore())
	return res, runErr
}

func (r *Runner) play(ctx context.Context, w *world.World) error {
	if r.Realtime {
		err := w.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	for !w.Over() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		w.StepOnce(nil)
	}
	return nil
}

type digestSink struct{ last *string }

func (d digestSink) WriteTick(e world.TickLogEntry) error {
	*d.last = e.Digest
	return nil
}

func sinkDigest(w *world.World) *string {
	var s string
	w.AddTickSink(digestSink{last: &s})
	return &s
}
