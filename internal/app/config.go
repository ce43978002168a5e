package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPath string // hcl file describing variables, ops, and strategy

	CheckpointDir string // optional; pre-seed/save persistent variables
	Iterations    int    // number of Run calls to drive
	Fetch         []string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}
	if cfg.Iterations < 1 {
		cfg.Iterations = 1
	}
	return &cfg, nil
}
