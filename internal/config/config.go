// Package config loads a job's YAML manifest and holds the ordered
// command-line arguments the controller distributes to workers, grounded on
// internal/config/config.go's yaml.v3 load-then-validate style and on the
// original's Configuration class, whose GetArgs() the controller logs and
// packs for REQUEST_CMDLINE_ARGS replies.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is a job's top-level YAML configuration.
type Manifest struct {
	Version      string   `yaml:"version"`
	InstanceName string   `yaml:"instance_name"`
	RedisURL     string   `yaml:"redis_url"`
	MinProcesses int      `yaml:"min_processes"`
	RunLogRoot   string   `yaml:"run_log_root,omitempty"`
	WorkerArgs   []string `yaml:"worker_args,omitempty"`
}

// Validate checks that a Manifest has the fields every role needs to
// start.
func (m *Manifest) Validate() error {
	if m.InstanceName == "" {
		return fmt.Errorf("instance_name is required")
	}
	if m.RedisURL == "" {
		return fmt.Errorf("redis_url is required")
	}
	if m.MinProcesses < 2 {
		return fmt.Errorf("min_processes must be >= 2 (controller + blackboard), got %d", m.MinProcesses)
	}
	return nil
}

// Load reads and validates a job manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &m, nil
}

// Configuration holds the ordered command-line-style arguments the
// controller hands out on request (TagRequestCmdLineArgs), matching the
// original's Configuration::GetArgs() (program name at index 0 is already
// stripped by the time Controller.cpp logs or packs these).
type Configuration struct {
	Args []string
}

// NewConfiguration builds a Configuration from a manifest's WorkerArgs.
func NewConfiguration(m *Manifest) *Configuration {
	return &Configuration{Args: append([]string(nil), m.WorkerArgs...)}
}
