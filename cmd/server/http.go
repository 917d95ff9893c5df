package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"wumpusworld.ai/internal/persistence/indexdb"
	"wumpusworld.ai/internal/transport/observer"
	"wumpusworld.ai/internal/transport/ws"
)

type episodeJSON struct {
	EpisodeID    string                   `json:"episode_id"`
	Seed         uint64                   `json:"seed"`
	Size         int                      `json:"size"`
	Agents       int                      `json:"agents"`
	Scenario     string                   `json:"scenario,omitempty"`
	StartedAt    string                   `json:"started_at"`
	Reason       string                   `json:"reason,omitempty"`
	EndTick      uint64                   `json:"end_tick"`
	TerminatedBy string                   `json:"terminated_by,omitempty"`
	TotalScore   int                      `json:"total_score"`
	Results      []indexdb.AgentResultRow `json:"results,omitempty"`
}

func toJSON(e indexdb.EpisodeRow) episodeJSON {
	return episodeJSON{
		EpisodeID:    e.EpisodeID,
		Seed:         e.Seed,
		Size:         e.Size,
		Agents:       e.Agents,
		Scenario:     e.Scenario,
		StartedAt:    e.StartedAt,
		Reason:       e.Reason,
		EndTick:      e.EndTick,
		TerminatedBy: e.TerminatedBy,
		TotalScore:   e.TotalScore,
	}
}

func newMux(obs *observer.Server, pilot *ws.Server, idx *indexdb.SQLiteIndex) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/v1/observe", obs.WSHandler())
	mux.HandleFunc("/v1/pilot", pilot.Handler())
	mux.HandleFunc("/v1/episodes", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if idx == nil {
			http.Error(rw, "index disabled", http.StatusNotFound)
			return
		}
		if id := r.URL.Query().Get("id"); id != "" {
			e, err := idx.Episode(r.Context(), id)
			if err != nil {
				http.Error(rw, err.Error(), http.StatusNotFound)
				return
			}
			out := toJSON(e)
			if out.Results, err = idx.AgentResults(r.Context(), id); err != nil {
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(rw, out)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := idx.ListEpisodes(r.Context(), limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]episodeJSON, 0, len(rows))
		for _, e := range rows {
			out = append(out, toJSON(e))
		}
		writeJSON(rw, out)
	})
	return mux
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}
