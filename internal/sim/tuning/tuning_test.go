package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_size: 5\nforget_scope: receiver_neighbors\nnegative_evidence: false\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, got.GridSize)
	assert.Equal(t, "receiver_neighbors", got.ForgetScope)
	assert.False(t, got.NegativeEvidence)
	assert.Equal(t, 20, got.StagnationWindow)
	assert.Equal(t, 2, got.Arrows)
	require.NoError(t, got.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_size: [1"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tuning.yaml")
}

func TestRepoTuningFileIsValid(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	require.NoError(t, err)
	require.NoError(t, got.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("WUMPUS_GRID_SIZE", "7")
	t.Setenv("WUMPUS_LOG_FORMAT", "json")
	t.Setenv("WUMPUS_DISABLE_DB", "true")

	got := Defaults()
	require.NoError(t, got.ApplyEnv())
	assert.Equal(t, 7, got.GridSize)
	assert.Equal(t, "json", got.LogFormat)
	assert.True(t, got.DisableDB)
	assert.Equal(t, 3, got.Agents, "unset variables keep their value")
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("WUMPUS_MAX_TICKS", "many")
	got := Defaults()
	err := got.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidate(t *testing.T) {
	bad := Defaults()
	bad.GridSize = 2
	bad.ForgetScope = "everywhere"
	bad.TickRateHz = 0
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not fit")
	assert.Contains(t, err.Error(), "forget_scope")
	assert.Contains(t, err.Error(), "tick_rate_hz")
}

func TestResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_size: 6\nagents: 2\n"), 0o644))
	t.Setenv("WUMPUS_AGENTS", "4")

	got, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, 6, got.GridSize)
	assert.Equal(t, 4, got.Agents, "environment wins over the file")

	t.Setenv("WUMPUS_FORGET_SCOPE", "nowhere")
	_, err = Resolve(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tuning")

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}
