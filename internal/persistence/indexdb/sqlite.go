package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"wumpusworld.ai/internal/persistence/snapshot"
	"wumpusworld.ai/internal/sim/world"
)

var ErrNotFound = errors.New("not found")

// SQLiteIndex is a queryable secondary index of episodes. Writes are queued
// to a single writer goroutine; the tick log stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick    atomic.Uint64
	dropEpisode atomic.Uint64
	dropOutcome atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEpisode
	reqOutcome
	reqFlush
)

type req struct {
	kind reqKind

	tick    world.TickLogEntry
	episode EpisodeRow
	outcome world.Outcome
	done    chan struct{}
}

// EpisodeRow is one line of the episodes table.
type EpisodeRow struct {
	EpisodeID    string
	Seed         uint64
	Size         int
	Agents       int
	Scenario     string
	SnapshotPath string
	EventsPath   string
	StartedAt    string

	Reason       string
	EndTick      uint64
	TerminatedBy string
	TotalScore   int
	WumpusLeft   int
	GoldLeft     int
	FinishedAt   string
}

// EpisodeFromSnapshot fills the start-of-episode columns.
func EpisodeFromSnapshot(snap snapshot.SnapshotV1, snapPath, eventsPath string) EpisodeRow {
	return EpisodeRow{
		EpisodeID:    snap.Header.EpisodeID,
		Seed:         snap.Header.Seed,
		Size:         snap.Layout.Size,
		Agents:       len(snap.Layout.Agents),
		Scenario:     snap.Layout.Name,
		SnapshotPath: snapPath,
		EventsPath:   eventsPath,
	}
}

type AgentResultRow struct {
	EpisodeID  string
	AgentID    string
	Alive      bool
	Score      int
	ArrowsLeft int
	X, Y       int
	Visited    int
}

type Stats struct {
	QueueDepth       int
	QueueCapacity    int
	DropTickTotal    uint64
	DropEpisodeTotal uint64
	DropOutcomeTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
		`CREATE TABLE IF NOT EXISTS episodes (
			episode_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			size INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			scenario TEXT NOT NULL DEFAULT '',
			snapshot_path TEXT NOT NULL DEFAULT '',
			events_path TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			end_tick INTEGER NOT NULL DEFAULT 0,
			terminated_by TEXT NOT NULL DEFAULT '',
			total_score INTEGER NOT NULL DEFAULT 0,
			wumpus_left INTEGER NOT NULL DEFAULT 0,
			gold_left INTEGER NOT NULL DEFAULT 0,
			finished_at TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			episode_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			actions INTEGER NOT NULL,
			messages INTEGER NOT NULL,
			events INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (episode_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			episode_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			from_id TEXT NOT NULL,
			scope TEXT NOT NULL,
			text TEXT NOT NULL,
			recipients TEXT NOT NULL,
			PRIMARY KEY (episode_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(episode_id, from_id, tick);`,
		`CREATE TABLE IF NOT EXISTS agent_results (
			episode_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			alive INTEGER NOT NULL,
			score INTEGER NOT NULL,
			arrows_left INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			visited INTEGER NOT NULL,
			PRIMARY KEY (episode_id, agent_id)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropTickTotal:    s.dropTick.Load(),
		DropEpisodeTotal: s.dropEpisode.Load(),
		DropOutcomeTotal: s.dropOutcome.Load(),
	}
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

// WriteTick indexes a tick entry. It never blocks the simulation; entries are
// dropped when the writer falls behind.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqTick, tick: entry}, &s.dropTick)
	return nil
}

func (s *SQLiteIndex) RecordEpisode(row EpisodeRow) {
	if s == nil || s.closed.Load() || row.EpisodeID == "" {
		return
	}
	if row.StartedAt == "" {
		row.StartedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	s.enqueue(req{kind: reqEpisode, episode: row}, &s.dropEpisode)
}

func (s *SQLiteIndex) RecordOutcome(o world.Outcome) {
	if s == nil || s.closed.Load() || o.Episode == "" {
		return
	}
	s.enqueue(req{kind: reqOutcome, outcome: o}, &s.dropOutcome)
}

// Flush waits until everything queued so far is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		var (
			n   int
			err error
		)
		switch r.kind {
		case reqTick:
			n, err = writeTick(tx, r.tick)
		case reqEpisode:
			n, err = writeEpisode(tx, r.episode)
		case reqOutcome:
			n, err = writeOutcome(tx, r.outcome)
		}
		if err != nil {
			rollback()
			continue
		}
		opCount += n
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func writeTick(tx *sql.Tx, e world.TickLogEntry) (int, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO ticks(episode_id,tick,digest,actions,messages,events,raw_json) VALUES(?,?,?,?,?,?,?)`,
		e.Episode, int64(e.Tick), e.Digest, len(e.Actions), len(e.Messages), len(e.Events), string(raw),
	); err != nil {
		return 0, err
	}
	n := 1
	for i, m := range e.Messages {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO messages(episode_id,tick,seq,from_id,scope,text,recipients) VALUES(?,?,?,?,?,?,?)`,
			e.Episode, int64(e.Tick), i, m.From, m.Scope, m.Text, strings.Join(m.To, ","),
		); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func writeEpisode(tx *sql.Tx, r EpisodeRow) (int, error) {
	_, err := tx.Exec(
		`INSERT INTO episodes(episode_id,seed,size,agents,scenario,snapshot_path,events_path,started_at) VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(episode_id) DO UPDATE SET seed=excluded.seed, size=excluded.size, agents=excluded.agents,
			scenario=excluded.scenario, snapshot_path=excluded.snapshot_path, events_path=excluded.events_path`,
		r.EpisodeID, int64(r.Seed), r.Size, r.Agents, r.Scenario, r.SnapshotPath, r.EventsPath, r.StartedAt,
	)
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func writeOutcome(tx *sql.Tx, o world.Outcome) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	// The episode row may not exist when only the outcome is indexed.
	if _, err := tx.Exec(
		`INSERT INTO episodes(episode_id,seed,size,agents,started_at) VALUES(?,0,0,?,?) ON CONFLICT(episode_id) DO NOTHING`,
		o.Episode, len(o.Agents), now,
	); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		`UPDATE episodes SET reason=?, end_tick=?, terminated_by=?, total_score=?, wumpus_left=?, gold_left=?, finished_at=? WHERE episode_id=?`,
		string(o.Reason), int64(o.Tick), o.TerminatedBy, o.TotalScore(), o.WumpusLeft, o.GoldLeft, now, o.Episode,
	); err != nil {
		return 0, err
	}
	n := 2
	for _, a := range o.Agents {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO agent_results(episode_id,agent_id,alive,score,arrows_left,x,y,visited) VALUES(?,?,?,?,?,?,?,?)`,
			o.Episode, a.ID, boolInt(a.Alive), a.Score, a.ArrowsLeft, a.Pos.X, a.Pos.Y, a.Visited,
		); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
