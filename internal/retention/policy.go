package retention

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/raoulx24/retrificator/internal/config"
)

// Policy decides which applications a pass archives. A zero age disables
// the corresponding rule.
type Policy struct {
	// AccessAge archives live packages whose last recorded access is older.
	AccessAge time.Duration
	// DeployAge archives live packages deployed longer ago than this.
	DeployAge time.Duration
	// CleanupOrphanArchives removes archived packages of applications that
	// have a live package again.
	CleanupOrphanArchives bool
	// PruneStaleState forgets last-access entries of undeployed applications.
	PruneStaleState bool
	// DryRun logs decisions without touching files or saving state.
	DryRun bool
	// Ignore exempts applications whose name fully matches any pattern.
	Ignore []*regexp.Regexp
}

// DefaultPolicy has both cleanups on and both rules off.
func DefaultPolicy() Policy {
	return Policy{
		CleanupOrphanArchives: true,
		PruneStaleState:       true,
	}
}

// PolicyFromConfig builds a Policy from configuration and ignore patterns.
func PolicyFromConfig(cfg config.RetentionConfig, ignore []string) (Policy, error) {
	res, err := CompileIgnore(ignore)
	if err != nil {
		return Policy{}, err
	}
	return Policy{
		AccessAge:             cfg.AccessAge,
		DeployAge:             cfg.DeployAge,
		CleanupOrphanArchives: cfg.CleanupOrphanArchives,
		PruneStaleState:       cfg.PruneStaleState,
		DryRun:                cfg.DryRun,
		Ignore:                res,
	}, nil
}

// CompileIgnore compiles patterns so that each must match a whole name.
func CompileIgnore(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)$`)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// Ignored reports whether name is exempt from archival.
func (p Policy) Ignored(name string) bool {
	for _, re := range p.Ignore {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (p Policy) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("access_age", p.AccessAge),
		slog.Duration("deploy_age", p.DeployAge),
		slog.Bool("cleanup_orphans", p.CleanupOrphanArchives),
		slog.Bool("prune_state", p.PruneStaleState),
		slog.Bool("dry_run", p.DryRun),
		slog.Int("ignore_patterns", len(p.Ignore)),
	)
}
