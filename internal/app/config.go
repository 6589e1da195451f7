package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	FlowPath string // path to a single .flow.hcl file
	FlowName string // flow block to execute; empty selects the first
	RunDir   string // working directory handed to every task

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, errors.New("FlowPath is a required configuration field and cannot be empty")
	}
	if cfg.RunDir == "" {
		cfg.RunDir = "."
	}
	return &cfg, nil
}
