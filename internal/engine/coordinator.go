package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
)

// DefaultDeadlineBuffer bounds everything outside the solver itself:
// validation, greedy fallback, gate checking, and cache writes.
const DefaultDeadlineBuffer = 3 * time.Minute

// Config is the engine's full configuration surface.
type Config struct {
	ComplexityThreshold int
	SolverPath          string
	SolverTimeout       time.Duration
	SolverGap           float64
	// Deadline is the overall per-request wall-clock budget. Zero derives
	// it from the solver timeout plus DefaultDeadlineBuffer.
	Deadline         time.Duration
	CacheTTL         time.Duration
	CacheMaxEntries  int
	SubjectWeights   map[string]int
	AllowUnqualified bool
}

// Coordinator orchestrates one scheduling request end to end: fingerprint
// and cache lookup, input validation, strategy selection, the chosen
// scheduler under the deadline budget, the constraint gate, and the cache
// write. Requests are independent; the cache is the only shared state.
type Coordinator struct {
	cfg       Config
	checker   Checker
	estimator Estimator
	greedy    GreedyScheduler
	lp        LPOptimizer
	cache     *Cache
	logger    *zap.Logger
}

// NewCoordinator wires the engine from configuration.
func NewCoordinator(cfg Config, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	checker := Checker{AllowUnqualified: cfg.AllowUnqualified}
	return &Coordinator{
		cfg:       cfg,
		checker:   checker,
		estimator: Estimator{Threshold: cfg.ComplexityThreshold},
		greedy:    GreedyScheduler{Checker: checker, Weights: cfg.SubjectWeights},
		lp: LPOptimizer{
			Checker:    checker,
			Weights:    cfg.SubjectWeights,
			SolverPath: cfg.SolverPath,
			Timeout:    cfg.SolverTimeout,
			Gap:        cfg.SolverGap,
			Logger:     logger,
		},
		cache:  NewCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		logger: logger,
	}
}

// Cache exposes the result cache for admin surfaces.
func (c *Coordinator) Cache() *Cache { return c.cache }

// Checker exposes the constraint checker shared by both strategies.
func (c *Coordinator) Checker() Checker { return c.checker }

// PlannedStrategy reports which strategy the estimator would pick, without
// running anything. A computed result may still differ after LP fallback.
func (c *Coordinator) PlannedStrategy(req ScheduleRequest) Strategy {
	return c.estimator.Select(req)
}

// Schedule computes (or recalls) the schedule for one request. The tracker
// may be nil; when given it publishes the pipeline stages for UI feedback.
func (c *Coordinator) Schedule(ctx context.Context, req ScheduleRequest, tracker *Tracker) (ScheduleResult, error) {
	tracker.Advance(StageInitializing)

	fingerprint := Fingerprint(req)
	if cached, ok := c.cache.Get(fingerprint); ok {
		cached.FromCache = true
		cached.Fingerprint = fingerprint
		tracker.Advance(StageComplete)
		c.logger.Debug("cache hit", zap.String("fingerprint", fingerprint[:8]))
		return cached, nil
	}

	tracker.Advance(StageProcessingConstraints)
	if err := ValidateRequest(req); err != nil {
		tracker.Fail(err.Error())
		return ScheduleResult{}, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, err.Error())
	}

	deadline := c.cfg.Deadline
	if deadline <= 0 {
		solverTimeout := c.cfg.SolverTimeout
		if solverTimeout <= 0 {
			solverTimeout = DefaultSolverTimeout
		}
		deadline = solverTimeout + DefaultDeadlineBuffer
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	strategy := c.estimator.Select(req)
	c.logger.Info("scheduling request",
		zap.String("fingerprint", fingerprint[:8]),
		zap.String("strategy", string(strategy)),
		zap.Int("teachers", len(req.Teachers)),
		zap.Int("rooms", len(req.Rooms)),
		zap.Int("classes", len(req.Classes)),
		zap.Int("occurrences", req.TotalOccurrences()),
	)

	tracker.Advance(StageGeneratingAssignments)
	result := c.runStrategy(runCtx, req, strategy, tracker)
	result.Fingerprint = fingerprint

	tracker.Advance(StageValidatingConstraints)
	if violations := c.checker.ValidateResult(req, result); len(violations) > 0 {
		// A scheduler emitting a violating result is a defect; never serve
		// it. The offenders travel with the rejection for diagnosis.
		c.logger.Error("constraint gate rejected result",
			zap.String("fingerprint", fingerprint[:8]),
			zap.String("strategy", string(result.Strategy)),
			zap.Int("violations", len(violations)),
		)
		result.Status = StatusInfeasible
		result.Assignments = nil
		result.Violations = violations
		tracker.Fail("constraint gate rejected generated schedule")
		return result, appErrors.Wrap(gateError(violations), appErrors.ErrInfeasible.Code, appErrors.ErrInfeasible.Status, "generated schedule violates hard constraints")
	}

	tracker.Advance(StageFinalizing)

	if runCtx.Err() != nil {
		// Deadline expired mid-run; surface whatever best-effort result
		// the schedulers produced without caching it.
		tracker.Fail("scheduling deadline exceeded")
		return result, appErrors.Wrap(runCtx.Err(), appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, fmt.Sprintf("scheduling exceeded the %s deadline", deadline))
	}

	if result.Status == StatusInfeasible {
		tracker.Fail("no feasible assignments")
		return result, appErrors.Clone(appErrors.ErrInfeasible, infeasibleMessage(result.Unassigned))
	}

	c.cache.Put(fingerprint, result)
	tracker.Advance(StageComplete)
	return result, nil
}

// runStrategy executes the selected scheduler. The LP path falls back to
// greedy on solver infeasibility or unavailability; "no solution" is never
// surfaced without a fallback attempt.
func (c *Coordinator) runStrategy(ctx context.Context, req ScheduleRequest, strategy Strategy, tracker *Tracker) ScheduleResult {
	if strategy == StrategyLP {
		tracker.Advance(StageOptimizingSchedule)
		result, err := c.lp.Schedule(ctx, req)
		if err == nil {
			return result
		}
		switch {
		case errors.Is(err, ErrModelInfeasible):
			c.logger.Warn("lp model infeasible, falling back to greedy", zap.Error(err))
		case errors.Is(err, ErrSolverUnavailable):
			c.logger.Warn("lp solver unavailable, falling back to greedy", zap.Error(err))
		default:
			c.logger.Warn("lp solve failed, falling back to greedy", zap.Error(err))
		}
		return c.greedy.Schedule(ctx, req)
	}

	result := c.greedy.Schedule(ctx, req)
	// Greedy has no separate optimization pass; the stage is a passthrough.
	tracker.Advance(StageOptimizingSchedule)
	return result
}

// ValidateRequest rejects malformed inputs before any scheduling attempt.
func ValidateRequest(req ScheduleRequest) error {
	if len(req.Teachers) == 0 {
		return errors.New("at least one teacher is required")
	}
	if len(req.Rooms) == 0 {
		return errors.New("at least one room is required")
	}
	if len(req.Classes) == 0 {
		return errors.New("at least one class is required")
	}
	if req.Limits.NumShifts < 0 || req.Limits.NumShifts > 3 {
		return fmt.Errorf("numShifts must be between 1 and 3, got %d", req.Limits.NumShifts)
	}
	if req.Limits.MaxPerDay < 0 || req.Limits.MaxPerWeek < 0 {
		return errors.New("hour ceilings must not be negative")
	}

	seenTeachers := make(map[string]bool, len(req.Teachers))
	for _, t := range req.Teachers {
		if t.ID == "" {
			return errors.New("teacher id must not be empty")
		}
		if seenTeachers[t.ID] {
			return fmt.Errorf("duplicate teacher id %q", t.ID)
		}
		seenTeachers[t.ID] = true
		if t.Major == "" {
			return fmt.Errorf("teacher %s has no major subject", t.ID)
		}
	}

	seenRooms := make(map[string]bool, len(req.Rooms))
	for _, r := range req.Rooms {
		if r.ID == "" {
			return errors.New("room id must not be empty")
		}
		if seenRooms[r.ID] {
			return fmt.Errorf("duplicate room id %q", r.ID)
		}
		seenRooms[r.ID] = true
		if r.Capacity <= 0 {
			return fmt.Errorf("room %s capacity must be positive", r.ID)
		}
	}

	seenClasses := make(map[string]bool, len(req.Classes))
	for _, cl := range req.Classes {
		if cl.ID == "" {
			return errors.New("class id must not be empty")
		}
		if seenClasses[cl.ID] {
			return fmt.Errorf("duplicate class id %q", cl.ID)
		}
		seenClasses[cl.ID] = true
		if cl.Subject == "" {
			return fmt.Errorf("class %s has no subject", cl.ID)
		}
		if cl.SessionsPerWeek < 1 {
			return fmt.Errorf("class %s must require at least one weekly session", cl.ID)
		}
		if cl.Duration < 0 {
			return fmt.Errorf("class %s duration must not be negative", cl.ID)
		}
	}
	return nil
}

func gateError(violations []Violation) error {
	kinds := make(map[string]int)
	for _, v := range violations {
		kinds[v.Kind]++
	}
	parts := make([]string, 0, len(kinds))
	for kind, count := range kinds {
		parts = append(parts, fmt.Sprintf("%s x%d", kind, count))
	}
	return fmt.Errorf("constraint gate found %d violations (%s)", len(violations), strings.Join(parts, ", "))
}

func infeasibleMessage(unassigned []OccurrenceRef) string {
	if len(unassigned) == 0 {
		return ""
	}
	classes := make([]string, 0, len(unassigned))
	seen := make(map[string]bool)
	for _, ref := range unassigned {
		if seen[ref.ClassID] {
			continue
		}
		seen[ref.ClassID] = true
		classes = append(classes, ref.ClassID)
	}
	return fmt.Sprintf("no feasible placement for classes: %s", strings.Join(classes, ", "))
}
