// Package config loads and validates the timelens run configuration.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Default values applied before the config file and env vars are read.
const (
	// DefaultOutput is where the temporal document is written.
	DefaultOutput = "dist/temporal-data.json"

	// DefaultClickFile is the tracked file path within a project.
	DefaultClickFile = "click.md"

	// DefaultWorkers bounds the per-project extraction pool.
	DefaultWorkers = 4

	// DefaultProjectTimeout aborts a single project's extraction.
	DefaultProjectTimeout = 2 * time.Minute

	// DefaultLogLevel is the minimum level emitted to stderr.
	DefaultLogLevel = "info"
)

// Validation errors.
var (
	// ErrNoOutput indicates an empty output path.
	ErrNoOutput = errors.New("output path must not be empty")

	// ErrProjectName indicates a project without a name.
	ErrProjectName = errors.New("project name must not be empty")

	// ErrProjectRepo indicates a project without a repository location.
	ErrProjectRepo = errors.New("project repo must not be empty")

	// ErrDuplicateProject indicates two projects sharing a name.
	ErrDuplicateProject = errors.New("duplicate project name")

	// ErrBadWorkers indicates a non-positive worker count.
	ErrBadWorkers = errors.New("workers must be positive")
)

// Config is the top-level configuration struct for timelens.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Output         string          `mapstructure:"output"`
	AssetsDir      string          `mapstructure:"assets_dir"`
	Workers        int             `mapstructure:"workers"`
	ProjectTimeout time.Duration   `mapstructure:"project_timeout"`
	Log            LogConfig       `mapstructure:"log"`
	OTLP           OTLPConfig      `mapstructure:"otlp"`
	Projects       []ProjectConfig `mapstructure:"projects"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// OTLPConfig holds telemetry export settings. An empty endpoint disables
// export entirely.
type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// ProjectConfig identifies one repository to extract. Repo is the
// repository root (a local path or an already-cloned external checkout);
// ClickFile is the tracked file path relative to that root. An empty
// Branch means HEAD.
type ProjectConfig struct {
	Name      string `mapstructure:"name"`
	Repo      string `mapstructure:"repo"`
	ClickFile string `mapstructure:"click_file"`
	Branch    string `mapstructure:"branch"`
	Auth      bool   `mapstructure:"auth"`
}

// Validate checks cross-field constraints after unmarshalling.
func (c *Config) Validate() error {
	if c.Output == "" {
		return ErrNoOutput
	}

	if c.Workers <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadWorkers, c.Workers)
	}

	seen := make(map[string]struct{}, len(c.Projects))

	for i := range c.Projects {
		project := &c.Projects[i]

		if project.Name == "" {
			return fmt.Errorf("%w: project %d", ErrProjectName, i)
		}

		if project.Repo == "" {
			return fmt.Errorf("%w: project %q", ErrProjectRepo, project.Name)
		}

		if _, dup := seen[project.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateProject, project.Name)
		}

		seen[project.Name] = struct{}{}

		if project.ClickFile == "" {
			project.ClickFile = DefaultClickFile
		}
	}

	return nil
}
