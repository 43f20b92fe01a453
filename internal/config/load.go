package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Load reads a YAML file over Default, so omitted keys keep their defaults.
func Load(path string) (*Config, error) {
	// read raw YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// expand $(ENV_VAR) placeholders
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings a pass cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Container.Root == "" {
		errs = append(errs, errors.New("container root not specified"))
	}
	if c.State.Root == "" {
		errs = append(errs, errors.New("state root not specified"))
	}
	if c.Retention.AccessAge < 0 || c.Retention.DeployAge < 0 {
		errs = append(errs, errors.New("retention ages must not be negative"))
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("invalid cron schedule %q: %w", c.Schedule.Cron, err))
		}
	}
	if c.Schedule.OnLogRotation && c.Schedule.PollInterval <= 0 {
		errs = append(errs, errors.New("schedule pollInterval must be positive"))
	}
	return errors.Join(errs...)
}
