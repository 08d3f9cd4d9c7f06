package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sigasig-engine/internal/dto"
	"github.com/noah-isme/sigasig-engine/internal/engine"
	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
)

// ScheduleServiceConfig carries request-level defaults.
type ScheduleServiceConfig struct {
	DefaultMaxPerDay  int
	DefaultMaxPerWeek int
	JobTTL            time.Duration
}

// ScheduleService fronts the scheduling engine: payload validation, job
// bookkeeping for progress feedback, the optional shared cache layer, and
// metrics. All scheduling semantics live in the engine.
type ScheduleService struct {
	coordinator *engine.Coordinator
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScheduleServiceConfig
	jobs        *jobStore
}

// NewScheduleService wires the scheduling facade.
func NewScheduleService(
	coordinator *engine.Coordinator,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleServiceConfig,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultMaxPerDay <= 0 {
		cfg.DefaultMaxPerDay = 6
	}
	if cfg.DefaultMaxPerWeek <= 0 {
		cfg.DefaultMaxPerWeek = 30
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	return &ScheduleService{
		coordinator: coordinator,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		jobs:        newJobStore(cfg.JobTTL),
	}
}

// Generate runs one scheduling request through the engine. On timeout the
// returned response carries the best-effort partial result beside the error.
func (s *ScheduleService) Generate(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "invalid scheduling payload")
	}

	engineReq := s.toEngineRequest(req)
	jobID := uuid.NewString()
	tracker := engine.NewTracker()
	s.jobs.Save(jobID, tracker)

	fingerprint := engine.Fingerprint(engineReq)
	if result, ok := s.coordinator.Cache().Get(fingerprint); ok {
		s.metrics.RecordCacheOperation(true)
		tracker.Advance(engine.StageComplete)
		result.FromCache = true
		result.Fingerprint = fingerprint
		return s.toResponse(jobID, result), nil
	}
	if result, ok := s.cache.Get(ctx, fingerprint); ok {
		// Promote the shared entry so subsequent requests hit in memory.
		s.metrics.RecordCacheOperation(true)
		s.coordinator.Cache().Put(fingerprint, result)
		tracker.Advance(engine.StageComplete)
		result.FromCache = true
		result.Fingerprint = fingerprint
		return s.toResponse(jobID, result), nil
	}
	s.metrics.RecordCacheOperation(false)

	planned := s.coordinator.PlannedStrategy(engineReq)
	start := time.Now()
	result, err := s.coordinator.Schedule(ctx, engineReq, tracker)
	s.metrics.ObserveScheduleRun(string(result.Strategy), string(result.Status), time.Since(start))
	if planned == engine.StrategyLP && result.Strategy == engine.StrategyGreedy {
		s.metrics.RecordSolverFallback()
	}

	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Code == appErrors.ErrTimeout.Code && len(result.Assignments) > 0 {
			return s.toResponse(jobID, result), err
		}
		return nil, err
	}

	s.cache.Set(ctx, fingerprint, result)
	return s.toResponse(jobID, result), nil
}

// Progress reports pipeline progress for a job.
func (s *ScheduleService) Progress(jobID string) (*dto.ProgressResponse, error) {
	tracker, ok := s.jobs.Get(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found or expired")
	}
	snap := tracker.Snapshot()
	stages := engine.Stages()
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = string(stage)
	}
	return &dto.ProgressResponse{
		JobID:     jobID,
		Stage:     string(snap.Stage),
		Stages:    names,
		Percent:   snap.Percent,
		Running:   snap.Running,
		Failed:    snap.Failed,
		Message:   snap.Message,
		Elapsed:   snap.Elapsed,
		Remaining: snap.Remaining,
	}, nil
}

// CacheStatus summarises the in-memory result cache.
func (s *ScheduleService) CacheStatus() dto.CacheStatusResponse {
	cache := s.coordinator.Cache()
	return dto.CacheStatusResponse{
		Size:       cache.Len(),
		MaxSize:    cache.MaxSize(),
		TTLSeconds: int(cache.TTL().Seconds()),
		Entries:    cache.Keys(),
	}
}

// ClearCache drops the in-memory cache and, when enabled, the shared layer.
func (s *ScheduleService) ClearCache(ctx context.Context) {
	s.coordinator.Cache().Clear()
	s.cache.Clear(ctx)
	s.logger.Info("schedule cache cleared")
}

// CachedResult fetches a cached result by fingerprint for export surfaces.
func (s *ScheduleService) CachedResult(fingerprint string) (engine.ScheduleResult, bool) {
	return s.coordinator.Cache().Get(fingerprint)
}

func (s *ScheduleService) toEngineRequest(req dto.ScheduleRequest) engine.ScheduleRequest {
	out := engine.ScheduleRequest{
		Teachers: make([]engine.Teacher, 0, len(req.Teachers)),
		Rooms:    make([]engine.Room, 0, len(req.Rooms)),
		Classes:  make([]engine.ClassDemand, 0, len(req.Classes)),
		Limits: engine.Limits{
			MaxPerDay:  req.MaxPerDay,
			MaxPerWeek: req.MaxPerWeek,
			NumShifts:  req.NumShifts,
		},
	}
	if out.Limits.MaxPerDay <= 0 {
		out.Limits.MaxPerDay = s.cfg.DefaultMaxPerDay
	}
	if out.Limits.MaxPerWeek <= 0 {
		out.Limits.MaxPerWeek = s.cfg.DefaultMaxPerWeek
	}
	if out.Limits.NumShifts <= 0 {
		out.Limits.NumShifts = 1
	}

	for _, t := range req.Teachers {
		teacher := engine.Teacher{
			ID:              t.ID,
			Major:           t.Major,
			Minor:           t.Minor,
			MaxHoursPerDay:  t.MaxHoursPerDay,
			MaxHoursPerWeek: t.MaxHoursPerWeek,
		}
		for _, slot := range t.Unavailable {
			teacher.Unavailable = append(teacher.Unavailable, engine.Slot{Day: slot.Day, Period: slot.Period})
		}
		out.Teachers = append(out.Teachers, teacher)
	}
	for _, r := range req.Rooms {
		out.Rooms = append(out.Rooms, engine.Room{ID: r.ID, Capacity: r.Capacity, Shift: r.Shift})
	}
	for _, c := range req.Classes {
		duration := c.Duration
		if duration <= 0 {
			duration = 1
		}
		out.Classes = append(out.Classes, engine.ClassDemand{
			ID:              c.ID,
			Subject:         c.Subject,
			SessionsPerWeek: c.TimesPerWeek,
			Duration:        duration,
			Shift:           c.Shift,
			SectionSize:     c.SectionSize,
		})
	}
	return out
}

func (s *ScheduleService) toResponse(jobID string, result engine.ScheduleResult) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		JobID:       jobID,
		Fingerprint: result.Fingerprint,
		Status:      string(result.Status),
		Strategy:    string(result.Strategy),
		Cached:      result.FromCache,
		ElapsedMS:   result.Elapsed.Milliseconds(),
		Assignments: make([]dto.AssignmentView, 0, len(result.Assignments)),
	}
	for _, a := range result.Assignments {
		resp.Assignments = append(resp.Assignments, dto.AssignmentView{
			Teacher:    a.TeacherID,
			Class:      a.ClassID,
			Subject:    a.Subject,
			Room:       a.RoomID,
			Day:        engine.Days[a.Day],
			Period:     engine.PeriodLabel(a.Period),
			Duration:   a.Duration,
			Occurrence: a.Occurrence,
		})
	}
	for _, u := range result.Unassigned {
		resp.Unassigned = append(resp.Unassigned, dto.UnassignedView{
			Class:      u.ClassID,
			Subject:    u.Subject,
			Occurrence: u.Occurrence,
		})
	}
	return resp
}

// --- Job registry ---

type jobEntry struct {
	tracker *engine.Tracker
	created time.Time
}

// jobStore retains progress trackers for recently submitted jobs.
type jobStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]jobEntry
}

func newJobStore(ttl time.Duration) *jobStore {
	return &jobStore{ttl: ttl, items: make(map[string]jobEntry)}
}

func (s *jobStore) Save(id string, tracker *engine.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.items {
		if time.Since(entry.created) > s.ttl {
			delete(s.items, key)
		}
	}
	s.items[id] = jobEntry{tracker: tracker, created: time.Now()}
}

func (s *jobStore) Get(id string) (*engine.Tracker, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || time.Since(entry.created) > s.ttl {
		return nil, false
	}
	return entry.tracker, true
}
