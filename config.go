package quizpilot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	PreferredModel string       `yaml:"preferred_model"`
	Quota          QuotaConfig  `yaml:"quota"`
	Ledger         LedgerConfig `yaml:"ledger"`
	Bank           BankConfig   `yaml:"bank"`
	Source         SourceConfig `yaml:"source"`
	Topics         []Topic      `yaml:"topics"`
}

// QuotaConfig tunes the quota estimator.
type QuotaConfig struct {
	// NearLimitThreshold is the used/ceiling ratio at which remote
	// attempts stop. Zero means DefaultNearLimitThreshold.
	NearLimitThreshold float64 `yaml:"near_limit_threshold"`

	// SafetyMargin optionally scales the learned ceiling down (e.g. 0.7).
	// Zero disables it.
	SafetyMargin float64 `yaml:"safety_margin"`
}

// LedgerConfig selects the usage ledger backend.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // "file", "sqlite" or "memory"
	Path    string `yaml:"path"`
}

// BankConfig locates the local question corpus.
type BankConfig struct {
	Path string `yaml:"path"` // JSONL, one question per line
}

// SourceConfig selects and authenticates the remote source.
type SourceConfig struct {
	Kind    string `yaml:"kind"` // "gemini", "openai" or "none"
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// LoadConfig reads and parses a YAML config file. Environment variables in
// the format ${VAR} are expanded before parsing.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("quizpilot: read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("quizpilot: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the config for required fields and consistency.
func (c Config) Validate() error {
	if c.Quota.NearLimitThreshold < 0 || c.Quota.NearLimitThreshold > 1 {
		return fmt.Errorf("quizpilot: config: near_limit_threshold must be in [0,1]")
	}
	if m := c.Quota.SafetyMargin; m != 0 && (m < 0 || m >= 1) {
		return fmt.Errorf("quizpilot: config: safety_margin must be in (0,1)")
	}

	switch c.Ledger.Backend {
	case "", "memory":
	case "file", "sqlite":
		if c.Ledger.Path == "" {
			return fmt.Errorf("quizpilot: config: ledger.path is required for backend %q", c.Ledger.Backend)
		}
	default:
		return fmt.Errorf("quizpilot: config: unknown ledger backend %q", c.Ledger.Backend)
	}

	switch c.Source.Kind {
	case "", "none":
	case "gemini", "openai":
		if c.Source.APIKey == "" {
			return fmt.Errorf("quizpilot: config: source.api_key is required for %q", c.Source.Kind)
		}
	default:
		return fmt.Errorf("quizpilot: config: unknown source kind %q", c.Source.Kind)
	}

	ids := make(map[string]bool, len(c.Topics))
	for i, t := range c.Topics {
		if t.ID == "" {
			return fmt.Errorf("quizpilot: config: topics[%d]: id is required", i)
		}
		if ids[t.ID] {
			return fmt.Errorf("quizpilot: config: duplicate topic id %q", t.ID)
		}
		ids[t.ID] = true
	}

	return nil
}
