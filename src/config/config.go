package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".slipway.yml"

// Config is the top-level slipway configuration.
type Config struct {
	Trigger   TriggerConfig   `yaml:"trigger"`
	Image     ImageConfig     `yaml:"image"`
	Preflight PreflightConfig `yaml:"preflight"`

	// Timeout bounds the whole pipeline run. Zero = no deadline.
	Timeout Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from Go duration strings
// ("30m", "1h30m"). yaml.v3 only decodes durations as integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// PreflightConfig controls the pre-build gates that run after checkout.
type PreflightConfig struct {
	// Secrets enables the gitleaks scan of the build context. On by default.
	Secrets *bool `yaml:"secrets"`
}

// SecretsEnabled reports whether the preflight secret scan should run.
func (p PreflightConfig) SecretsEnabled() bool {
	return p.Secrets == nil || *p.Secrets
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist; an explicitly named
// file that is missing is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Trigger: DefaultTriggerConfig(),
		Image:   DefaultImageConfig(),
	}
}
