package gridsample

import (
	"time"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

// Status tells callers whether every grid point was processed.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
)

// Outcome classifies one probe.
type Outcome string

const (
	OutcomeHit       Outcome = "hit"
	OutcomeMiss      Outcome = "miss"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Probe records what happened at one grid point.
type Probe struct {
	Point    platform.Point      `yaml:"point"              json:"point"`
	Outcome  Outcome             `yaml:"outcome"            json:"outcome"`
	Identity model.Identity      `yaml:"id,omitempty"       json:"id,omitempty"`
	Added    int                 `yaml:"added,omitempty"    json:"added,omitempty"`
	Code     apperrors.ErrorCode `yaml:"code,omitempty"     json:"code,omitempty"`
	Error    string              `yaml:"error,omitempty"    json:"error,omitempty"`
	Duration time.Duration       `yaml:"duration"           json:"duration"`
}

// Result is the outcome of a sampling run.
type Result struct {
	Root       *model.Application          `yaml:"-"                     json:"-"`
	Status     Status                      `yaml:"status"                json:"status"`
	RunID      string                      `yaml:"run_id"                json:"run_id"`
	Points     int                         `yaml:"points"                json:"points"`
	Iterations int                         `yaml:"iterations"            json:"iterations"`
	Hits       int                         `yaml:"hits"                  json:"hits"`
	Misses     int                         `yaml:"misses"                json:"misses"`
	Duplicates int                         `yaml:"duplicates"            json:"duplicates"`
	Failures   map[apperrors.ErrorCode]int `yaml:"failures,omitempty"    json:"failures,omitempty"`
	Nodes      int                         `yaml:"nodes"                 json:"nodes"`
	Frame      platform.Rect               `yaml:"frame"                 json:"frame"`
	Probes     []Probe                     `yaml:"probes,omitempty"      json:"probes,omitempty"`
	Elapsed    time.Duration               `yaml:"elapsed"               json:"elapsed"`
	StopReason string                      `yaml:"stop_reason,omitempty" json:"stop_reason,omitempty"`
}

// Complete reports whether every grid point was processed.
func (r *Result) Complete() bool { return r.Status == StatusComplete }

// FailureCount returns the number of absorbed per-point failures.
func (r *Result) FailureCount() int {
	n := 0
	for _, c := range r.Failures {
		n += c
	}
	return n
}
