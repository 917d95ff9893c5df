package world

import (
	"wumpusworld.ai/internal/sim/agent"
	"wumpusworld.ai/internal/sim/tuning"
)

type Config struct {
	EpisodeID  string
	Seed       uint64
	MaxTicks   int
	TickRateHz int

	Agent agent.Config
}

func (c *Config) applyDefaults() {
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.Agent.StagnationWindow <= 0 {
		c.Agent.StagnationWindow = agent.DefaultConfig().StagnationWindow
	}
}

// ConfigFromTuning builds an episode config from validated tuning.
func ConfigFromTuning(t tuning.Tuning, episodeID string, seed uint64) (Config, error) {
	scope, err := agent.ParseForgetScope(t.ForgetScope)
	if err != nil {
		return Config{}, err
	}
	return Config{
		EpisodeID:  episodeID,
		Seed:       seed,
		MaxTicks:   t.MaxTicks,
		TickRateHz: t.TickRateHz,
		Agent: agent.Config{
			StagnationWindow: t.StagnationWindow,
			Arrows:           t.Arrows,
			NegativeEvidence: t.NegativeEvidence,
			ForgetScope:      scope,
		},
	}, nil
}
