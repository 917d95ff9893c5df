package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/world"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestArchiveEpisode(t *testing.T) {
	data := t.TempDir()
	snap := filepath.Join(data, "snapshots", "ep-1.snap.zst")
	events := filepath.Join(data, "events", "events-ep-1.jsonl.zst")
	writeFile(t, snap, "snapshot-bytes")
	writeFile(t, events, "event-bytes")

	out := world.Outcome{
		Episode: "ep-1",
		Reason:  world.ReasonConsensus,
		Tick:    41,
		Agents: []world.AgentResult{
			{ID: "agent-1", Alive: true, Score: 1000, Pos: geom.P(1, 1)},
			{ID: "agent-2", Alive: false, Score: 100},
		},
	}
	dir, err := ArchiveEpisode(data, snap, events, 7, out)
	require.NoError(t, err)
	assert.Equal(t, Dir(data, "ep-1"), dir)

	b, err := os.ReadFile(filepath.Join(dir, "ep-1.snap.zst"))
	require.NoError(t, err)
	assert.Equal(t, "snapshot-bytes", string(b))
	b, err = os.ReadFile(filepath.Join(dir, "events-ep-1.jsonl.zst"))
	require.NoError(t, err)
	assert.Equal(t, "event-bytes", string(b))

	meta, err := ReadMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), meta.Seed)
	assert.Equal(t, 1100, meta.TotalScore)
	assert.Equal(t, out, meta.Outcome)
}

func TestArchiveEpisodeWithoutEvents(t *testing.T) {
	data := t.TempDir()
	snap := filepath.Join(data, "s.snap.zst")
	writeFile(t, snap, "x")

	dir, err := ArchiveEpisode(data, snap, "", 1, world.Outcome{Episode: "ep-2", Reason: world.ReasonMaxTicks})
	require.NoError(t, err)
	meta, err := ReadMeta(dir)
	require.NoError(t, err)
	assert.Empty(t, meta.Events)
}

func TestArchiveEpisodeErrors(t *testing.T) {
	data := t.TempDir()
	_, err := ArchiveEpisode(data, "missing", "", 1, world.Outcome{})
	require.Error(t, err)
	_, err = ArchiveEpisode(data, filepath.Join(data, "missing"), "", 1, world.Outcome{Episode: "ep-3"})
	require.Error(t, err)
}
