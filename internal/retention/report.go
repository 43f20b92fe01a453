package retention

import (
	"time"

	"github.com/raoulx24/retrificator/internal/tracker"
)

// Report describes what a pass did. With DryRun set, Archived and
// OrphansRemoved list what would have been done.
type Report struct {
	RunID   string
	Started time.Time
	DryRun  bool

	Webapps        int
	OrphansRemoved []string
	PrunedState    []string
	Tracking       tracker.Result
	Protected      []string
	Archived       []string
	Failed         []string
	StateSaved     bool
}
