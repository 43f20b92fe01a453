package config

import (
	"path/filepath"
	"time"
)

type Config struct {
	Container ContainerConfig `yaml:"container"`
	State     StateConfig     `yaml:"state"`
	Retention RetentionConfig `yaml:"retention"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ContainerConfig struct {
	Root            string `yaml:"root"`            // tomcat home
	WebappsDir      string `yaml:"webappsDir"`      // relative to root unless absolute
	LogsDir         string `yaml:"logsDir"`         // relative to root unless absolute
	AccessLogMarker string `yaml:"accessLogMarker"` // substring identifying access logs
}

type StateConfig struct {
	Root       string `yaml:"root"`
	File       string `yaml:"file"`
	IgnoreFile string `yaml:"ignoreFile"`
}

type RetentionConfig struct {
	AccessAge             time.Duration `yaml:"accessAge"` // 0 disables the rule
	DeployAge             time.Duration `yaml:"deployAge"` // 0 disables the rule
	CleanupOrphanArchives bool          `yaml:"cleanupOrphanArchives"`
	PruneStaleState       bool          `yaml:"pruneStaleState"`
	DryRun                bool          `yaml:"dryRun"`
}

type ScheduleConfig struct {
	Cron          string        `yaml:"cron"`          // e.g. "0 3 * * *"
	OnLogRotation bool          `yaml:"onLogRotation"` // run when a new access log appears
	PollInterval  time.Duration `yaml:"pollInterval"`  // rotation polling when fsnotify is unusable
	RunOnStart    bool          `yaml:"runOnStart"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
	File   string `yaml:"file"`   // appended to, relative to the state root; "" means stderr
}

type MetricsConfig struct {
	Listen   string `yaml:"listen"`   // daemon /metrics address, e.g. ":9464"
	Textfile string `yaml:"textfile"` // node_exporter textfile written after each pass
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Container: ContainerConfig{
			WebappsDir:      "webapps",
			LogsDir:         "logs",
			AccessLogMarker: "_access_log.",
		},
		State: StateConfig{
			File:       "retrificator-state.json",
			IgnoreFile: "ignore-apps.txt",
		},
		Retention: RetentionConfig{
			AccessAge:             48 * time.Hour,
			DeployAge:             30 * 24 * time.Hour,
			CleanupOrphanArchives: true,
			PruneStaleState:       true,
		},
		Schedule: ScheduleConfig{
			PollInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "retrificator-log.txt",
		},
	}
}

func (c ContainerConfig) WebappsPath() string { return under(c.Root, c.WebappsDir) }
func (c ContainerConfig) LogsPath() string    { return under(c.Root, c.LogsDir) }

func (s StateConfig) FilePath() string       { return under(s.Root, s.File) }
func (s StateConfig) IgnoreFilePath() string { return under(s.Root, s.IgnoreFile) }

// LogFilePath returns the log file path, or "" when logging goes to stderr.
func (c Config) LogFilePath() string {
	if c.Logging.File == "" {
		return ""
	}
	return under(c.State.Root, c.Logging.File)
}

func under(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
