package tuning

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "WUMPUS_"

type Tuning struct {
	GridSize int `yaml:"grid_size" env:"GRID_SIZE"`
	Agents   int `yaml:"agents" env:"AGENTS"`
	Pits     int `yaml:"pits" env:"PITS"`
	Wumpus   int `yaml:"wumpus" env:"WUMPUS"`
	Gold     int `yaml:"gold" env:"GOLD"`
	Arrows   int `yaml:"arrows" env:"ARROWS"`

	StagnationWindow int  `yaml:"stagnation_window" env:"STAGNATION_WINDOW"`
	NegativeEvidence bool `yaml:"negative_evidence" env:"NEGATIVE_EVIDENCE"`
	// ForgetScope is "target" or "receiver_neighbors".
	ForgetScope string `yaml:"forget_scope" env:"FORGET_SCOPE"`

	MaxTicks   int `yaml:"max_ticks" env:"MAX_TICKS"`
	TickRateHz int `yaml:"tick_rate_hz" env:"TICK_RATE_HZ"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
	DataDir   string `yaml:"data_dir" env:"DATA_DIR"`
	DisableDB bool   `yaml:"disable_db" env:"DISABLE_DB"`
}

func Defaults() Tuning {
	return Tuning{
		GridSize:         10,
		Agents:           3,
		Pits:             3,
		Wumpus:           1,
		Gold:             1,
		Arrows:           2,
		StagnationWindow: 20,
		NegativeEvidence: true,
		ForgetScope:      "target",
		MaxTicks:         500,
		TickRateHz:       5,
		LogLevel:         "info",
		LogFormat:        "text",
		DataDir:          "./data",
	}
}

// Load reads a yaml file over the defaults. An empty path yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// ApplyEnv overrides fields from WUMPUS_* environment variables that are set.
func (t *Tuning) ApplyEnv() error {
	if err := env.ParseWithOptions(t, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.GridSize <= 0 {
		errs = append(errs, fmt.Errorf("grid_size must be positive, got %d", t.GridSize))
	}
	if t.Agents <= 0 {
		errs = append(errs, fmt.Errorf("agents must be positive, got %d", t.Agents))
	}
	for name, n := range map[string]int{"pits": t.Pits, "wumpus": t.Wumpus, "gold": t.Gold, "arrows": t.Arrows} {
		if n < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, n))
		}
	}
	if cells := t.GridSize * t.GridSize; t.GridSize > 0 && t.Agents+t.Pits+t.Wumpus+t.Gold > cells {
		errs = append(errs, fmt.Errorf("%d entities do not fit on %d cells", t.Agents+t.Pits+t.Wumpus+t.Gold, cells))
	}
	if t.StagnationWindow <= 0 {
		errs = append(errs, fmt.Errorf("stagnation_window must be positive, got %d", t.StagnationWindow))
	}
	if t.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("max_ticks must not be negative, got %d", t.MaxTicks))
	}
	if t.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz))
	}
	switch t.ForgetScope {
	case "target", "receiver_neighbors":
	default:
		errs = append(errs, fmt.Errorf("forget_scope %q is not target or receiver_neighbors", t.ForgetScope))
	}
	switch t.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q is not text or json", t.LogFormat))
	}
	return errors.Join(errs...)
}

// Resolve is what the binaries use: the yaml file, then the environment, then
// validation.
func Resolve(path string) (Tuning, error) {
	t, err := Load(path)
	if err != nil {
		return t, err
	}
	if err := t.ApplyEnv(); err != nil {
		return t, err
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}
