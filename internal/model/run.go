package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusDegraded StageStatus = "degraded"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult records the outcome of one pipeline state transition.
// Degraded stages carry the reason so the run record stays auditable
// without the error ever crossing a stage boundary.
type StageResult struct {
	State     string      `json:"state"`
	Status    StageStatus `json:"status"`
	Reason    string      `json:"reason,omitempty"`
	Fragments int         `json:"fragments"`
	Duration  int64       `json:"duration_ms"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Profile *ConsolidatedProfile `json:"profile,omitempty"`
	Stages  []StageResult        `json:"stages"`
	Error   string               `json:"error,omitempty"`
}

// Run represents a single enrichment run for a seed handle.
type Run struct {
	ID        string     `json:"id"`
	Handle    string     `json:"handle"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
