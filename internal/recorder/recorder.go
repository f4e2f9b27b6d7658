package recorder

import (
	"time"

	"ConcentrationPanel/internal/pipeline"
)

// Run statuses stored with each fund run.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// RunSnapshot holds everything recorded for one fund in one run. Result is
// nil when the fund failed before producing one; Err is then set.
type RunSnapshot struct {
	RunID     string
	Fund      string
	StartedAt time.Time
	Result    *pipeline.Result
	Err       error
}

// Status returns StatusFailed when the fund produced no result.
func (s *RunSnapshot) Status() string {
	if s.Err != nil || s.Result == nil {
		return StatusFailed
	}
	return StatusOK
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(snap *RunSnapshot) error
	Close() error
}
