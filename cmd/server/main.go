package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/episode"
	"wumpusworld.ai/internal/logging"
	"wumpusworld.ai/internal/persistence/indexdb"
	"wumpusworld.ai/internal/sim/scenario"
	"wumpusworld.ai/internal/sim/tuning"
	"wumpusworld.ai/internal/transport/observer"
	"wumpusworld.ai/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		scenarioPath = flag.String("scenario", "", "fixed scenario file (default: draw a board per episode)")
		seed         = flag.Uint64("seed", 1337, "seed of the first episode; later episodes count up")
		episodes     = flag.Int("episodes", 0, "stop after this many episodes (0 = run until interrupted)")
		pause        = flag.Duration("pause", 2*time.Second, "pause between episodes")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Fatalf("load .env: %v", err)
	}
	tune, err := tuning.Resolve(*tuningPath)
	if err != nil {
		logrus.Fatalf("load tuning: %v", err)
	}
	logger, err := logging.New(tune.LogLevel, tune.LogFormat, nil)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}
	log := logger.WithField("component", "server")

	runner := &episode.Runner{
		Tuning:   tune,
		DataDir:  tune.DataDir,
		Realtime: true,
		Logger:   logger,
	}
	if p := strings.TrimSpace(*scenarioPath); p != "" {
		layout, err := scenario.Load(p)
		if err != nil {
			log.Fatalf("load scenario: %v", err)
		}
		runner.Layout = &layout
	}

	var idx *indexdb.SQLiteIndex
	if !tune.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(tune.DataDir, "index", "episodes.sqlite"))
		if err != nil {
			log.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		runner.Index = idx
	}

	obsSrv := observer.NewServer(logger)
	pilotSrv := ws.NewServer(logger)
	runner.Feeds = []episode.Feed{obsSrv, pilotSrv}

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(obsSrv, pilotSrv, idx),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	go func() {
		defer cancel()
		runEpisodes(ctx, runner, *seed, *episodes, *pause, log)
	}()

	log.Infof("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe: %v", err)
	}
}

func runEpisodes(ctx context.Context, r *episode.Runner, seed uint64, limit int, pause time.Duration, log logrus.FieldLogger) {
	for n := 0; limit <= 0 || n < limit; n++ {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.Run(ctx, seed+uint64(n)); err != nil {
			log.Errorf("episode: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pause):
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
