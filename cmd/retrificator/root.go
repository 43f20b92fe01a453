package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/raoulx24/retrificator/internal/config"
	"github.com/raoulx24/retrificator/internal/logging"
)

var rootFlags struct {
	cfgFile          string
	tomcatRoot       string
	retrificatorRoot string
	verbose          bool
	accessAge        time.Duration
	deployAge        time.Duration
	dryRun           bool
}

var rootCmd = &cobra.Command{
	Use:   "retrificator",
	Short: "Archive stale web applications deployed in Tomcat",
	Long: `Retrificator archives web applications that are no longer used.

It mines the container's access logs for the last access of every
application and archives those not accessed within the access age, as
well as those deployed longer ago than the deploy age. Archiving renames
<name>.war to <name>.war.retro so the container undeploys the application.

Applications matching a pattern in <retrificator-root>/ignore-apps.txt are
never archived. An age of 0 disables the corresponding rule.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	d := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.cfgFile, "config", "c", "", "config file path (optional)")
	pf.StringVarP(&rootFlags.tomcatRoot, "tomcat-root", "t", "", "tomcat root (home) directory")
	pf.StringVarP(&rootFlags.retrificatorRoot, "retrificator-root", "r", "", "directory holding the state and ignore list")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "log every decision")
	rootFlags.accessAge = d.Retention.AccessAge
	rootFlags.deployAge = d.Retention.DeployAge
	pf.VarP((*ageValue)(&rootFlags.accessAge), "access-age", "a", "archive apps not accessed for this long, a duration or milliseconds (0 disables)")
	pf.VarP((*ageValue)(&rootFlags.deployAge), "deploy-age", "d", "archive apps deployed longer ago than this, a duration or milliseconds (0 disables)")
	pf.BoolVar(&rootFlags.dryRun, "dry-run", false, "log decisions without renaming, removing or saving anything")
}

// ageValue is a duration flag that also takes a bare integer as milliseconds.
type ageValue time.Duration

func (a *ageValue) Set(s string) error {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*a = ageValue(time.Duration(ms) * time.Millisecond)
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid age %q: want a duration such as 48h or milliseconds", s)
	}
	*a = ageValue(d)
	return nil
}

func (a *ageValue) String() string { return time.Duration(*a).String() }

func (a *ageValue) Type() string { return "age" }

// loadConfig reads the config file if one is given and applies the flags
// the user set explicitly on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if rootFlags.cfgFile != "" {
		loaded, err := config.Load(rootFlags.cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("tomcat-root") {
		cfg.Container.Root = rootFlags.tomcatRoot
	}
	if flags.Changed("retrificator-root") {
		cfg.State.Root = rootFlags.retrificatorRoot
	}
	if flags.Changed("access-age") {
		cfg.Retention.AccessAge = rootFlags.accessAge
	}
	if flags.Changed("deploy-age") {
		cfg.Retention.DeployAge = rootFlags.deployAge
	}
	if flags.Changed("dry-run") {
		cfg.Retention.DryRun = rootFlags.dryRun
	}
	if rootFlags.verbose {
		cfg.Logging.Level = "debug"
	}
	return &cfg, nil
}

// loadValidConfig is loadConfig for commands that run passes.
func loadValidConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg. The returned closer releases
// the log file, if any.
func newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	level := logging.ParseLevel(cfg.Logging.Level)
	path := cfg.LogFilePath()
	if path == "" {
		return logging.New(stderr, level, cfg.Logging.Format), func() error { return nil }, nil
	}

	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(f, level, cfg.Logging.Format), f.Close, nil
}
