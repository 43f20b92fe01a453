package worker

import (
	"time"
)

// Job asks the worker for one retrification pass.
type Job struct {
	Trigger string // what requested the pass: "start", "cron", "rotation", ...
	At      time.Time
}
