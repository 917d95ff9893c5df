package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/episode"
	"wumpusworld.ai/internal/logging"
	"wumpusworld.ai/internal/persistence/indexdb"
	"wumpusworld.ai/internal/sim/tuning"
	"wumpusworld.ai/internal/transport/observer"
	"wumpusworld.ai/internal/transport/ws"
)

func TestMuxHealthz(t *testing.T) {
	mux := newMux(observer.NewServer(logging.Discard()), ws.NewServer(logging.Discard()), nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/episodes", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMuxEpisodes(t *testing.T) {
	dir := t.TempDir()
	idx, err := indexdb.OpenSQLite(filepath.Join(dir, "index", "episodes.sqlite"))
	require.NoError(t, err)
	defer idx.Close()

	tune := tuning.Defaults()
	tune.GridSize = 4
	tune.Agents = 2
	tune.Pits = 1
	tune.MaxTicks = 15
	r := &episode.Runner{Tuning: tune, DataDir: dir, Index: idx, Logger: logging.Discard()}
	res, err := r.Run(context.Background(), 3)
	require.NoError(t, err)

	mux := newMux(observer.NewServer(logging.Discard()), ws.NewServer(logging.Discard()), idx)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/episodes?limit=5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []episodeJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, res.Outcome.Episode, list[0].EpisodeID)
	assert.Equal(t, uint64(3), list[0].Seed)
	assert.Equal(t, string(res.Outcome.Reason), list[0].Reason)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/episodes?id="+res.Outcome.Episode, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var one episodeJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &one))
	assert.Len(t, one.Results, 2)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/episodes?id=nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/episodes", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
