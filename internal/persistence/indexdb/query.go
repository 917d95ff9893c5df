package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const episodeColumns = `episode_id,seed,size,agents,scenario,snapshot_path,events_path,started_at,
	reason,end_tick,terminated_by,total_score,wumpus_left,gold_left,finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(r rowScanner) (EpisodeRow, error) {
	var (
		e       EpisodeRow
		seed    int64
		endTick int64
	)
	err := r.Scan(&e.EpisodeID, &seed, &e.Size, &e.Agents, &e.Scenario, &e.SnapshotPath, &e.EventsPath, &e.StartedAt,
		&e.Reason, &endTick, &e.TerminatedBy, &e.TotalScore, &e.WumpusLeft, &e.GoldLeft, &e.FinishedAt)
	e.Seed = uint64(seed)
	e.EndTick = uint64(endTick)
	return e, err
}

// Episode reads one episode row after flushing pending writes.
func (s *SQLiteIndex) Episode(ctx context.Context, id string) (EpisodeRow, error) {
	if err := s.Flush(ctx); err != nil {
		return EpisodeRow{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE episode_id=?`, id)
	e, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return EpisodeRow{}, fmt.Errorf("episode %q: %w", id, ErrNotFound)
	}
	return e, err
}

// ListEpisodes returns the most recently started episodes first.
func (s *SQLiteIndex) ListEpisodes(ctx context.Context, limit int) ([]EpisodeRow, error) {
	if limit <= 0 {
		limit = 50
	}
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+episodeColumns+` FROM episodes ORDER BY started_at DESC, episode_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeRow
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) AgentResults(ctx context.Context, episode string) ([]AgentResultRow, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode_id,agent_id,alive,score,arrows_left,x,y,visited FROM agent_results WHERE episode_id=? ORDER BY agent_id`, episode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AgentResultRow
	for rows.Next() {
		var (
			r     AgentResultRow
			alive int
		)
		if err := rows.Scan(&r.EpisodeID, &r.AgentID, &alive, &r.Score, &r.ArrowsLeft, &r.X, &r.Y, &r.Visited); err != nil {
			return nil, err
		}
		r.Alive = alive != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// TickCount and Digest support spot checks against the tick log.
func (s *SQLiteIndex) TickCount(ctx context.Context, episode string) (int, error) {
	if err := s.Flush(ctx); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticks WHERE episode_id=?`, episode).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) Digest(ctx context.Context, episode string, tick uint64) (string, error) {
	if err := s.Flush(ctx); err != nil {
		return "", err
	}
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM ticks WHERE episode_id=? AND tick=?`, episode, int64(tick)).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("episode %q tick %d: %w", episode, tick, ErrNotFound)
	}
	return d, err
}

type MessageRow struct {
	Tick       uint64
	From       string
	Scope      string
	Text       string
	Recipients []string
}

// Messages lists what an agent said over an episode. An empty from lists
// every sender.
func (s *SQLiteIndex) Messages(ctx context.Context, episode, from string) ([]MessageRow, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	q := `SELECT tick,from_id,scope,text,recipients FROM messages WHERE episode_id=?`
	args := []any{episode}
	if from != "" {
		q += ` AND from_id=?`
		args = append(args, from)
	}
	q += ` ORDER BY tick, seq`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var (
			m    MessageRow
			tick int64
			to   string
		)
		if err := rows.Scan(&tick, &m.From, &m.Scope, &m.Text, &to); err != nil {
			return nil, err
		}
		m.Tick = uint64(tick)
		if to != "" {
			m.Recipients = strings.Split(to, ",")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
