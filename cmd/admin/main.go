package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"wumpusworld.ai/internal/persistence/archive"
	"wumpusworld.ai/internal/persistence/indexdb"
	"wumpusworld.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "episodes":
			episodesCmd(os.Args[2:])
			return
		case "show":
			showCmd(os.Args[2:])
			return
		case "messages":
			messagesCmd(os.Args[2:])
			return
		case "digest":
			digestCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the archived episodes found on disk.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	if err := listArchives(os.Stdout, *dataDir); err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
}

func listArchives(out io.Writer, dataDir string) error {
	base := filepath.Join(dataDir, "archives")
	entries, err := os.ReadDir(base)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EPISODE\tSEED\tREASON\tTICK\tSCORE\tCREATED")
	for _, name := range names {
		meta, err := archive.ReadMeta(filepath.Join(base, name))
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\tunreadable: %v\t\t\t\n", name, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s\n", meta.Episode, meta.Seed, meta.Outcome.Reason, meta.Outcome.Tick, meta.TotalScore, meta.CreatedAt)
	}
	return tw.Flush()
}

func openIndex(dataDir string) *indexdb.SQLiteIndex {
	path := filepath.Join(dataDir, "index", "episodes.sqlite")
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	return idx
}

func episodesCmd(args []string) {
	fs := flag.NewFlagSet("episodes", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	limit := fs.Int("limit", 50, "max rows")
	_ = fs.Parse(args)

	idx := openIndex(*dataDir)
	defer idx.Close()

	rows, err := idx.ListEpisodes(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "episodes:", err)
		os.Exit(1)
	}
	printEpisodes(os.Stdout, rows)
}

func printEpisodes(out io.Writer, rows []indexdb.EpisodeRow) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EPISODE\tSEED\tSIZE\tAGENTS\tREASON\tTICK\tSCORE\tSTARTED")
	for _, r := range rows {
		reason := r.Reason
		if reason == "" {
			reason = "running"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%d\t%d\t%s\n", r.EpisodeID, r.Seed, r.Size, r.Agents, reason, r.EndTick, r.TotalScore, r.StartedAt)
	}
	_ = tw.Flush()
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	id := fs.String("episode", "", "episode id")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		fmt.Fprintln(os.Stderr, "missing -episode")
		os.Exit(2)
	}

	idx := openIndex(*dataDir)
	defer idx.Close()
	ctx := context.Background()

	row, err := idx.Episode(ctx, *id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "episode:", err)
		os.Exit(1)
	}
	results, err := idx.AgentResults(ctx, *id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "agent results:", err)
		os.Exit(1)
	}
	ticks, err := idx.TickCount(ctx, *id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ticks:", err)
		os.Exit(1)
	}

	printEpisodes(os.Stdout, []indexdb.EpisodeRow{row})
	fmt.Printf("\nticks indexed=%d wumpus_left=%d gold_left=%d terminated_by=%s\n", ticks, row.WumpusLeft, row.GoldLeft, row.TerminatedBy)
	fmt.Printf("snapshot=%s events=%s\n\n", row.SnapshotPath, row.EventsPath)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tALIVE\tSCORE\tARROWS\tPOS\tVISITED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t(%d,%d)\t%d\n", r.AgentID, r.Alive, r.Score, r.ArrowsLeft, r.X, r.Y, r.Visited)
	}
	_ = tw.Flush()
}

func messagesCmd(args []string) {
	fs := flag.NewFlagSet("messages", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	id := fs.String("episode", "", "episode id")
	from := fs.String("from", "", "only messages sent by this agent (optional)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		fmt.Fprintln(os.Stderr, "missing -episode")
		os.Exit(2)
	}

	idx := openIndex(*dataDir)
	defer idx.Close()

	rows, err := idx.Messages(context.Background(), *id, *from)
	if err != nil {
		fmt.Fprintln(os.Stderr, "messages:", err)
		os.Exit(1)
	}
	for _, m := range rows {
		fmt.Printf("%6d %-10s %-7s %-40s -> %s\n", m.Tick, m.From, m.Scope, m.Text, strings.Join(m.Recipients, ","))
	}
}

func digestCmd(args []string) {
	fs := flag.NewFlagSet("digest", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	id := fs.String("episode", "", "episode id")
	tick := fs.Uint64("tick", 0, "tick")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		fmt.Fprintln(os.Stderr, "missing -episode")
		os.Exit(2)
	}

	idx := openIndex(*dataDir)
	defer idx.Close()

	d, err := idx.Digest(context.Background(), *id, *tick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "digest:", err)
		os.Exit(1)
	}
	fmt.Println(d)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	path := fs.String("path", "", "snapshot path")
	asJSON := fs.Bool("json", false, "print the whole snapshot as json")
	_ = fs.Parse(args)
	if strings.TrimSpace(*path) == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return
	}
	printSnapshot(os.Stdout, snap)
}

func printSnapshot(out io.Writer, snap snapshot.SnapshotV1) {
	l := snap.Layout
	fmt.Fprintf(out, "snapshot v%d episode=%s seed=%d tick=%d\n", snap.Header.Version, snap.Header.EpisodeID, snap.Header.Seed, snap.Header.Tick)
	fmt.Fprintf(out, "layout %q size=%d pits=%v wumpus=%v gold=%v\n", l.Name, l.Size, l.Pits, l.Wumpus, l.Gold)
	for _, a := range l.Agents {
		mode := "auto"
		if a.Manual {
			mode = "manual"
		}
		fmt.Fprintf(out, "  %s at (%d,%d) facing %s %s\n", a.ID, a.Pos[0], a.Pos[1], a.Direction, mode)
	}
}
