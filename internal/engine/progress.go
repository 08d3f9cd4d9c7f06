package engine

import (
	"sync"
	"time"
)

// Stage is one step of the coordinator's strictly sequential pipeline.
type Stage string

const (
	StageInitializing          Stage = "INITIALIZING"
	StageProcessingConstraints Stage = "PROCESSING_CONSTRAINTS"
	StageGeneratingAssignments Stage = "GENERATING_ASSIGNMENTS"
	StageOptimizingSchedule    Stage = "OPTIMIZING_SCHEDULE"
	StageValidatingConstraints Stage = "VALIDATING_CONSTRAINTS"
	StageFinalizing            Stage = "FINALIZING"
	StageComplete              Stage = "COMPLETE"
)

// stageOrder fixes the pipeline sequence; stages never branch back.
var stageOrder = []Stage{
	StageInitializing,
	StageProcessingConstraints,
	StageGeneratingAssignments,
	StageOptimizingSchedule,
	StageValidatingConstraints,
	StageFinalizing,
	StageComplete,
}

// StageIndex returns the position of a stage in the pipeline, or -1.
func StageIndex(stage Stage) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// Stages returns the pipeline sequence.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ProgressSnapshot is a point-in-time view of one run's progress, published
// for UI feedback rather than logged.
type ProgressSnapshot struct {
	Stage     Stage         `json:"stage"`
	Percent   int           `json:"percent"`
	Running   bool          `json:"running"`
	Failed    bool          `json:"failed"`
	Message   string        `json:"message,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"estimatedRemaining"`
}

// Tracker records pipeline progress for a single run. Safe for concurrent
// readers while the coordinator advances stages.
type Tracker struct {
	mu      sync.Mutex
	stage   Stage
	started time.Time
	done    bool
	failed  bool
	message string
}

// NewTracker starts a tracker at the first stage.
func NewTracker() *Tracker {
	return &Tracker{stage: StageInitializing, started: time.Now()}
}

// Advance moves the tracker forward. Moves to earlier stages are ignored so
// the published sequence stays monotonic.
func (t *Tracker) Advance(stage Stage) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done || t.failed {
		return
	}
	if StageIndex(stage) <= StageIndex(t.stage) && stage != t.stage {
		return
	}
	t.stage = stage
	if stage == StageComplete {
		t.done = true
	}
}

// Fail marks the run as failed at the current stage.
func (t *Tracker) Fail(message string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.failed = true
	t.message = message
}

// Snapshot returns the current progress view, estimating remaining time
// from the elapsed-per-percent rate so far.
func (t *Tracker) Snapshot() ProgressSnapshot {
	if t == nil {
		return ProgressSnapshot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := StageIndex(t.stage)
	percent := idx * 100 / (len(stageOrder) - 1)
	elapsed := time.Since(t.started)

	var remaining time.Duration
	if percent > 0 && percent < 100 {
		remaining = time.Duration(int64(elapsed) / int64(percent) * int64(100-percent))
	}

	return ProgressSnapshot{
		Stage:     t.stage,
		Percent:   percent,
		Running:   !t.done && !t.failed,
		Failed:    t.failed,
		Message:   t.message,
		Elapsed:   elapsed,
		Remaining: remaining,
	}
}
