package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"wumpusworld.ai/internal/logging"
	"wumpusworld.ai/internal/persistence/archive"
	tlog "wumpusworld.ai/internal/persistence/log"
	"wumpusworld.ai/internal/persistence/snapshot"
	"wumpusworld.ai/internal/sim/world"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst")
		eventsPath = flag.String("events", "", "path to events-*.jsonl.zst (optional)")
		archiveDir = flag.String("archive", "", "archived episode dir; replaces -snapshot and -events")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *archiveDir != "" {
		meta, err := archive.ReadMeta(*archiveDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read archive:", err)
			os.Exit(1)
		}
		*snapPath = filepath.Join(*archiveDir, meta.Snapshot)
		if meta.Events != "" {
			*eventsPath = filepath.Join(*archiveDir, meta.Events)
		}
	}
	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot or -archive")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d episode=%s tick=%d seed=%d size=%d agents=%d pits=%d wumpus=%d gold=%d\n",
		snap.Header.Version, snap.Header.EpisodeID, snap.Header.Tick, snap.Header.Seed, snap.Layout.Size,
		len(snap.Layout.Agents), len(snap.Layout.Pits), len(snap.Layout.Wumpus), len(snap.Layout.Gold))

	if *eventsPath == "" {
		return
	}

	w, err := snap.Restore(logging.Discard())
	if err != nil {
		fmt.Fprintln(os.Stderr, "restore:", err)
		os.Exit(1)
	}
	entries, err := tlog.ReadTicks(*eventsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read events:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no ticks in", *eventsPath)
		os.Exit(1)
	}
	if *toTick != 0 {
		entries = truncate(entries, *toTick)
	}

	checked, err := world.Replay(w, entries)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks", checked)
	if w.Over() {
		out := w.Outcome()
		fmt.Printf(" reason=%s end_tick=%d total_score=%d", out.Reason, out.Tick, out.TotalScore())
	}
	fmt.Println()
}

func truncate(entries []world.TickLogEntry, to uint64) []world.TickLogEntry {
	for i, e := range entries {
		if e.Tick > to {
			return entries[:i]
		}
	}
	return entries
}
