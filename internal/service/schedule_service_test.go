package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sigasig-engine/internal/dto"
	"github.com/noah-isme/sigasig-engine/internal/engine"
	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
)

func newTestScheduleService(t *testing.T) *ScheduleService {
	t.Helper()
	coordinator := engine.NewCoordinator(engine.Config{
		ComplexityThreshold: 1, // force the greedy path, no solver binary needed
		CacheTTL:            time.Minute,
		CacheMaxEntries:     10,
	}, zap.NewNop())
	return NewScheduleService(coordinator, nil, NewMetricsService(), nil, zap.NewNop(), ScheduleServiceConfig{})
}

func validSchedulePayload() dto.ScheduleRequest {
	return dto.ScheduleRequest{
		Teachers: []dto.TeacherPayload{
			{ID: "t-math", Major: "Mathematics"},
			{ID: "t-sci", Major: "Science"},
			{ID: "t-eng", Major: "English"},
		},
		Rooms: []dto.RoomPayload{{ID: "r1", Capacity: 30}},
		Classes: []dto.ClassPayload{
			{ID: "7A-math", Subject: "Mathematics", TimesPerWeek: 2},
			{ID: "7A-sci", Subject: "Science", TimesPerWeek: 2},
			{ID: "7A-eng", Subject: "English", TimesPerWeek: 2},
		},
	}
}

func TestScheduleServiceGenerate(t *testing.T) {
	svc := newTestScheduleService(t)

	resp, err := svc.Generate(context.Background(), validSchedulePayload())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.JobID)
	assert.NotEmpty(t, resp.Fingerprint)
	assert.Equal(t, string(engine.StatusComplete), resp.Status)
	assert.Equal(t, string(engine.StrategyGreedy), resp.Strategy)
	assert.False(t, resp.Cached)
	assert.Len(t, resp.Assignments, 6)
	assert.Empty(t, resp.Unassigned)

	// Rendered views carry human-readable day and period labels.
	assert.Contains(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, resp.Assignments[0].Day)
	assert.Contains(t, resp.Assignments[0].Period, ":00-")
}

func TestScheduleServiceGenerateCacheHit(t *testing.T) {
	svc := newTestScheduleService(t)
	payload := validSchedulePayload()

	first, err := svc.Generate(context.Background(), payload)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Generate(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Assignments, second.Assignments)
	// A fresh job is registered even for cached responses.
	assert.NotEqual(t, first.JobID, second.JobID)
}

func TestScheduleServiceGenerateValidation(t *testing.T) {
	svc := newTestScheduleService(t)

	_, err := svc.Generate(context.Background(), dto.ScheduleRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRequest.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceProgress(t *testing.T) {
	svc := newTestScheduleService(t)

	resp, err := svc.Generate(context.Background(), validSchedulePayload())
	require.NoError(t, err)

	progress, err := svc.Progress(resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, resp.JobID, progress.JobID)
	assert.Equal(t, string(engine.StageComplete), progress.Stage)
	assert.Equal(t, 100, progress.Percent)
	assert.Len(t, progress.Stages, 7)
}

func TestScheduleServiceProgressUnknownJob(t *testing.T) {
	svc := newTestScheduleService(t)

	_, err := svc.Progress("nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCacheStatusAndClear(t *testing.T) {
	svc := newTestScheduleService(t)

	status := svc.CacheStatus()
	assert.Equal(t, 0, status.Size)
	assert.Equal(t, 10, status.MaxSize)
	assert.Equal(t, 60, status.TTLSeconds)

	resp, err := svc.Generate(context.Background(), validSchedulePayload())
	require.NoError(t, err)

	status = svc.CacheStatus()
	assert.Equal(t, 1, status.Size)
	require.Len(t, status.Entries, 1)
	assert.Equal(t, resp.Fingerprint, status.Entries[0])

	result, ok := svc.CachedResult(resp.Fingerprint)
	require.True(t, ok)
	assert.Len(t, result.Assignments, 6)

	svc.ClearCache(context.Background())
	assert.Equal(t, 0, svc.CacheStatus().Size)
}

func TestScheduleServiceDefaultsApplied(t *testing.T) {
	svc := newTestScheduleService(t)

	engineReq := svc.toEngineRequest(dto.ScheduleRequest{
		Teachers: []dto.TeacherPayload{{ID: "t1", Major: "Mathematics"}},
		Rooms:    []dto.RoomPayload{{ID: "r1", Capacity: 30}},
		Classes:  []dto.ClassPayload{{ID: "c1", Subject: "Mathematics", TimesPerWeek: 2}},
	})

	assert.Equal(t, 6, engineReq.Limits.MaxPerDay)
	assert.Equal(t, 30, engineReq.Limits.MaxPerWeek)
	assert.Equal(t, 1, engineReq.Limits.NumShifts)
	require.Len(t, engineReq.Classes, 1)
	assert.Equal(t, 1, engineReq.Classes[0].Duration)
	assert.Equal(t, 2, engineReq.Classes[0].SessionsPerWeek)
}

type fakeRemoteCache struct {
	entries map[string][]byte
	sets    int
}

func (f *fakeRemoteCache) Get(ctx context.Context, fingerprint string, dest interface{}) error {
	raw, ok := f.entries[fingerprint]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeRemoteCache) Set(ctx context.Context, fingerprint string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if f.entries == nil {
		f.entries = make(map[string][]byte)
	}
	f.entries[fingerprint] = raw
	f.sets++
	return nil
}

func (f *fakeRemoteCache) Clear(ctx context.Context) error {
	f.entries = nil
	return nil
}

func TestScheduleServiceSharedCachePromotion(t *testing.T) {
	remote := &fakeRemoteCache{}
	coordinator := engine.NewCoordinator(engine.Config{
		ComplexityThreshold: 1,
		CacheTTL:            time.Minute,
		CacheMaxEntries:     10,
	}, zap.NewNop())
	cacheSvc := NewCacheService(remote, time.Minute, zap.NewNop(), true)
	svc := NewScheduleService(coordinator, cacheSvc, NewMetricsService(), nil, zap.NewNop(), ScheduleServiceConfig{})

	payload := validSchedulePayload()
	first, err := svc.Generate(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.sets)

	// Drop the in-memory layer; the shared entry must still serve and be
	// promoted back into memory.
	coordinator.Cache().Clear()
	second, err := svc.Generate(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, 1, coordinator.Cache().Len())
}
