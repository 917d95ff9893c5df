package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"wumpusworld.ai/internal/sim/world"
)

type EpisodeArchiveMeta struct {
	Episode    string        `json:"episode"`
	Seed       uint64        `json:"seed"`
	Snapshot   string        `json:"snapshot"`
	Events     string        `json:"events,omitempty"`
	CreatedAt  string        `json:"created_at"`
	Outcome    world.Outcome `json:"outcome"`
	TotalScore int           `json:"total_score"`
}

// Dir is where a finished episode is archived under dataDir.
func Dir(dataDir, episode string) string {
	return filepath.Join(dataDir, "archives", episode)
}

// ArchiveEpisode copies a finished episode's snapshot and tick log into
// dataDir/archives/<episode>/ next to a meta.json describing the outcome. An
// empty eventsPath archives the snapshot alone.
func ArchiveEpisode(dataDir, snapshotPath, eventsPath string, seed uint64, out world.Outcome) (string, error) {
	if out.Episode == "" {
		return "", fmt.Errorf("archive: outcome has no episode id")
	}
	dir := Dir(dataDir, out.Episode)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	meta := EpisodeArchiveMeta{
		Episode:    out.Episode,
		Seed:       seed,
		Snapshot:   filepath.Base(snapshotPath),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Outcome:    out,
		TotalScore: out.TotalScore(),
	}
	if err := copyFile(snapshotPath, filepath.Join(dir, meta.Snapshot)); err != nil {
		return "", fmt.Errorf("archive snapshot: %w", err)
	}
	if eventsPath != "" {
		meta.Events = filepath.Base(eventsPath)
		if err := copyFile(eventsPath, filepath.Join(dir, meta.Events)); err != nil {
			return "", fmt.Errorf("archive events: %w", err)
		}
	}

	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

func ReadMeta(dir string) (EpisodeArchiveMeta, error) {
	var meta EpisodeArchiveMeta
	b, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(b, &meta)
	return meta, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
