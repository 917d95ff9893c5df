package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"wumpusworld.ai/internal/episode"
	"wumpusworld.ai/internal/logging"
	"wumpusworld.ai/internal/persistence/indexdb"
	"wumpusworld.ai/internal/sim/scenario"
	"wumpusworld.ai/internal/sim/tuning"
)

func main() {
	var (
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		scenarioPath = flag.String("scenario", "", "fixed scenario file (default: draw a board per episode)")
		seed         = flag.Uint64("seed", 1, "seed of the first episode")
		n            = flag.Int("n", 20, "episodes to run")
		dataDir      = flag.String("data", "", "persist logs, snapshots and archives here (default: in memory)")
		index        = flag.Bool("index", false, "index episodes into <data>/index/episodes.sqlite")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fail("load .env", err)
	}
	tune, err := tuning.Resolve(*tuningPath)
	if err != nil {
		fail("load tuning", err)
	}
	logger, err := logging.New(tune.LogLevel, tune.LogFormat, nil)
	if err != nil {
		fail("logger", err)
	}

	runner := &episode.Runner{Tuning: tune, DataDir: *dataDir, Logger: logger}
	if p := strings.TrimSpace(*scenarioPath); p != "" {
		layout, err := scenario.Load(p)
		if err != nil {
			fail("load scenario", err)
		}
		runner.Layout = &layout
	}
	if *index {
		if *dataDir == "" {
			fmt.Fprintln(os.Stderr, "-index needs -data")
			os.Exit(2)
		}
		idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "episodes.sqlite"))
		if err != nil {
			fail("open index", err)
		}
		defer idx.Close()
		runner.Index = idx
	}

	results := make([]episode.Result, 0, *n)
	for i := 0; i < *n; i++ {
		res, err := runner.Run(context.Background(), *seed+uint64(i))
		if err != nil {
			fail(fmt.Sprintf("episode seed=%d", *seed+uint64(i)), err)
		}
		results = append(results, res)
	}
	printResults(os.Stdout, results)
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

type summary struct {
	Episodes   int
	ByReason   map[string]int
	MeanScore  float64
	MeanTicks  float64
	Survivors  int
	AgentCount int
}

func summarize(results []episode.Result) summary {
	s := summary{Episodes: len(results), ByReason: map[string]int{}}
	if len(results) == 0 {
		return s
	}
	var score, ticks int
	for _, r := range results {
		s.ByReason[string(r.Outcome.Reason)]++
		score += r.Outcome.TotalScore()
		ticks += int(r.Outcome.Tick)
		for _, a := range r.Outcome.Agents {
			s.AgentCount++
			if a.Alive {
				s.Survivors++
			}
		}
	}
	s.MeanScore = float64(score) / float64(len(results))
	s.MeanTicks = float64(ticks) / float64(len(results))
	return s
}

func printResults(out io.Writer, results []episode.Result) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tEPISODE\tREASON\tTICKS\tSCORE\tALIVE\tDIGEST")
	for _, r := range results {
		alive := 0
		for _, a := range r.Outcome.Agents {
			if a.Alive {
				alive++
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d/%d\t%.12s\n",
			r.Seed, r.Outcome.Episode, r.Outcome.Reason, r.Outcome.Tick, r.Outcome.TotalScore(),
			alive, len(r.Outcome.Agents), r.Digest)
	}
	_ = tw.Flush()

	s := summarize(results)
	reasons := make([]string, 0, len(s.ByReason))
	for k := range s.ByReason {
		reasons = append(reasons, k)
	}
	sort.Strings(reasons)
	fmt.Fprintf(out, "\nepisodes=%d mean_score=%.2f mean_ticks=%.1f survivors=%d/%d\n",
		s.Episodes, s.MeanScore, s.MeanTicks, s.Survivors, s.AgentCount)
	for _, k := range reasons {
		fmt.Fprintf(out, "  %s: %d\n", k, s.ByReason[k])
	}
}
