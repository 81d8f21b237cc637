package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeEventRepo struct {
	events []learning.CompletionEvent
	err    error
}

func (r *fakeEventRepo) Append(_ context.Context, e *learning.CompletionEvent) (*learning.AppendResult, error) {
	r.events = append(r.events, *e)
	return &learning.AppendResult{Created: true, Event: e}, nil
}

func (r *fakeEventRepo) GetByUser(_ context.Context, userID learning.UserID) ([]learning.CompletionEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []learning.CompletionEvent
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) GetByUserSince(ctx context.Context, userID learning.UserID, since time.Time) ([]learning.CompletionEvent, error) {
	all, err := r.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []learning.CompletionEvent
	for _, e := range all {
		if !e.CompletedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeStatsCache struct {
	mu      sync.Mutex
	entries map[learning.UserID][]learning.DomainStatistics
	gets    int
	sets    int
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{entries: make(map[learning.UserID][]learning.DomainStatistics)}
}

func (c *fakeStatsCache) Get(_ context.Context, userID learning.UserID) ([]learning.DomainStatistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	stats, ok := c.entries[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return stats, nil
}

func (c *fakeStatsCache) Set(_ context.Context, userID learning.UserID, stats []learning.DomainStatistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[userID] = stats
	return nil
}

func (c *fakeStatsCache) Invalidate(_ context.Context, userID learning.UserID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

type fakeCatalog struct {
	courses map[progress.CourseID]*progress.Course
}

func (c *fakeCatalog) GetCourse(_ context.Context, courseID progress.CourseID) (*progress.Course, error) {
	course, ok := c.courses[courseID]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return course, nil
}

type fakeCourseRepo struct {
	progress map[string]*progress.CourseProgress
}

func courseKey(userID learning.UserID, courseID progress.CourseID) string {
	return string(userID) + "/" + string(courseID)
}

func (r *fakeCourseRepo) GetByUserAndCourse(_ context.Context, userID learning.UserID, courseID progress.CourseID) (*progress.CourseProgress, error) {
	cp, ok := r.progress[courseKey(userID, courseID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cp, nil
}

func (r *fakeCourseRepo) Save(_ context.Context, p *progress.CourseProgress) error {
	if r.progress == nil {
		r.progress = make(map[string]*progress.CourseProgress)
	}
	r.progress[courseKey(p.UserID, p.CourseID)] = p
	return nil
}

type fakeAchievementRepo struct {
	achievements []progress.Achievement
}

func (r *fakeAchievementRepo) Award(_ context.Context, a progress.Achievement) (bool, error) {
	r.achievements = append(r.achievements, a)
	return true, nil
}

func (r *fakeAchievementRepo) GetByUser(_ context.Context, userID learning.UserID) ([]progress.Achievement, error) {
	var out []progress.Achievement
	for _, a := range r.achievements {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAchievementRepo) TypesByUser(_ context.Context, userID learning.UserID) (map[progress.AchievementType]bool, error) {
	out := make(map[progress.AchievementType]bool)
	for _, a := range r.achievements {
		if a.UserID == userID {
			out[a.Type] = true
		}
	}
	return out, nil
}

func testEvent(t *testing.T, id string, userID learning.UserID, resourceID learning.ResourceID, rt learning.ResourceType, domain learning.Domain, completedAt time.Time, duration int) learning.CompletionEvent {
	t.Helper()
	e, err := learning.NewCompletionEvent(id, userID, resourceID, rt, domain, completedAt, duration)
	require.NoError(t, err)
	return *e
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetDomainStats
// ─────────────────────────────────────────────────────────────────────────────

func TestGetDomainStats_ComputesFromEventLog(t *testing.T) {
	repo := &fakeEventRepo{events: []learning.CompletionEvent{
		testEvent(t, "evt-1", "user-1", "res-1", learning.ResourceVideo, "Go", utcDay(2026, 3, 1), 600),
		testEvent(t, "evt-2", "user-1", "res-2", learning.ResourceArticle, "Go", utcDay(2026, 3, 2), 0),
		testEvent(t, "evt-3", "user-1", "res-3", learning.ResourceVideo, "Rust", utcDay(2026, 3, 2), 300),
		testEvent(t, "evt-4", "user-2", "res-1", learning.ResourceVideo, "Go", utcDay(2026, 3, 1), 600),
	}}
	h := NewGetDomainStatsHandler(repo, nil, logger.New(logger.Options{Level: logger.LevelError}))

	result, err := h.Handle(context.Background(), GetDomainStatsQuery{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, result.Domains, 2)
	byDomain := make(map[string]DomainStatsDTO)
	for _, d := range result.Domains {
		byDomain[d.Domain] = d
	}
	assert.Equal(t, 2, byDomain["Go"].TotalCompleted)
	assert.Equal(t, 1, byDomain["Rust"].TotalCompleted)
	assert.InDelta(t, 600.0/3600.0, byDomain["Go"].TotalHours, 1e-9)
}

func TestGetDomainStats_DomainFilterWithNoActivityReturnsZeroStats(t *testing.T) {
	repo := &fakeEventRepo{}
	h := NewGetDomainStatsHandler(repo, nil, logger.New(logger.Options{Level: logger.LevelError}))

	result, err := h.Handle(context.Background(), GetDomainStatsQuery{UserID: "user-1", Domain: "Haskell"})
	require.NoError(t, err)

	require.Len(t, result.Domains, 1)
	assert.Equal(t, "Haskell", result.Domains[0].Domain)
	assert.Equal(t, 0, result.Domains[0].TotalCompleted)
}

func TestGetDomainStats_UsesCacheOnSecondRead(t *testing.T) {
	repo := &fakeEventRepo{events: []learning.CompletionEvent{
		testEvent(t, "evt-1", "user-1", "res-1", learning.ResourceVideo, "Go", utcDay(2026, 3, 1), 600),
	}}
	cache := newFakeStatsCache()
	h := NewGetDomainStatsHandler(repo, cache, logger.New(logger.Options{Level: logger.LevelError}))
	ctx := context.Background()

	first, err := h.Handle(ctx, GetDomainStatsQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	repo.err = errors.New("db down")
	second, err := h.Handle(ctx, GetDomainStatsQuery{UserID: "user-1"})
	require.NoError(t, err, "cache hit should not touch the event log")
	assert.Equal(t, first.Domains, second.Domains)
}

func TestGetDomainStats_RequiresUserID(t *testing.T) {
	h := NewGetDomainStatsHandler(&fakeEventRepo{}, nil, logger.New(logger.Options{Level: logger.LevelError}))

	_, err := h.Handle(context.Background(), GetDomainStatsQuery{})
	assert.True(t, shared.IsValidation(err))
}

func TestGetDomainStats_StoreFailureIsUnavailable(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("connection refused")}
	h := NewGetDomainStatsHandler(repo, nil, logger.New(logger.Options{Level: logger.LevelError}))

	_, err := h.Handle(context.Background(), GetDomainStatsQuery{UserID: "user-1"})
	assert.True(t, shared.IsUnavailable(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// GetActivityHeatmap
// ─────────────────────────────────────────────────────────────────────────────

func TestGetActivityHeatmap_DenseWindow(t *testing.T) {
	now := utcDay(2026, 3, 10)
	repo := &fakeEventRepo{events: []learning.CompletionEvent{
		testEvent(t, "evt-1", "user-1", "res-1", learning.ResourceVideo, "Go", utcDay(2026, 3, 8), 0),
		testEvent(t, "evt-2", "user-1", "res-2", learning.ResourceVideo, "Go", utcDay(2026, 3, 8), 0),
		testEvent(t, "evt-3", "user-1", "res-3", learning.ResourceArticle, "Go", utcDay(2026, 3, 10), 0),
	}}
	h := NewGetActivityHeatmapHandler(repo)

	result, err := h.Handle(context.Background(), GetActivityHeatmapQuery{
		UserID:     "user-1",
		WindowDays: 7,
		Now:        now,
	})
	require.NoError(t, err)

	require.Len(t, result.Days, 7, "window is dense: every day present")
	assert.Equal(t, "2026-03-04", result.Days[0].Day)
	assert.Equal(t, "2026-03-10", result.Days[6].Day)

	counts := make(map[string]int)
	for _, d := range result.Days {
		counts[d.Day] = d.Count
	}
	assert.Equal(t, 2, counts["2026-03-08"])
	assert.Equal(t, 1, counts["2026-03-10"])
	assert.Equal(t, 0, counts["2026-03-05"])
}

func TestGetActivityHeatmap_WindowClampedToYear(t *testing.T) {
	h := NewGetActivityHeatmapHandler(&fakeEventRepo{})

	result, err := h.Handle(context.Background(), GetActivityHeatmapQuery{
		UserID:     "user-1",
		WindowDays: 10000,
		Now:        utcDay(2026, 3, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultHeatmapWindowDays, result.WindowDays)
	assert.Len(t, result.Days, DefaultHeatmapWindowDays)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetTimeline
// ─────────────────────────────────────────────────────────────────────────────

func TestGetTimeline_NewestFirstStableOrder(t *testing.T) {
	ts := utcDay(2026, 3, 5)
	repo := &fakeEventRepo{events: []learning.CompletionEvent{
		testEvent(t, "evt-1", "user-1", "res-1", learning.ResourceVideo, "Go", utcDay(2026, 3, 1), 0),
		testEvent(t, "evt-2", "user-1", "res-2", learning.ResourceVideo, "Go", ts, 0),
		testEvent(t, "evt-3", "user-1", "res-3", learning.ResourceArticle, "Go", ts, 0),
	}}
	h := NewGetTimelineHandler(repo)

	result, err := h.Handle(context.Background(), GetTimelineQuery{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	// Ties keep insertion order.
	assert.Equal(t, "res-2", result.Entries[0].ResourceID)
	assert.Equal(t, "res-3", result.Entries[1].ResourceID)
	assert.Equal(t, "res-1", result.Entries[2].ResourceID)
}

func TestGetTimeline_LimitClamped(t *testing.T) {
	repo := &fakeEventRepo{}
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		repo.events = append(repo.events,
			testEvent(t, "evt-"+id, "user-1", learning.ResourceID("res-"+id), learning.ResourceVideo, "Go", utcDay(2026, 3, i+1), 0))
	}
	h := NewGetTimelineHandler(repo)

	result, err := h.Handle(context.Background(), GetTimelineQuery{UserID: "user-1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "res-e", result.Entries[0].ResourceID)
}

func TestGetTimeline_EmptyLog(t *testing.T) {
	h := NewGetTimelineHandler(&fakeEventRepo{})

	result, err := h.Handle(context.Background(), GetTimelineQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetUserStats
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserStatsRepo struct {
	stats map[learning.UserID]*progress.UserStats
}

func (r *fakeUserStatsRepo) GetByUser(_ context.Context, userID learning.UserID) (*progress.UserStats, error) {
	s, ok := r.stats[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *fakeUserStatsRepo) Save(_ context.Context, s *progress.UserStats) error {
	if r.stats == nil {
		r.stats = make(map[learning.UserID]*progress.UserStats)
	}
	r.stats[s.UserID] = s
	return nil
}

func TestGetUserStats_UnknownUserGetsZeroStats(t *testing.T) {
	h := NewGetUserStatsHandler(&fakeUserStatsRepo{})

	result, err := h.Handle(context.Background(), GetUserStatsQuery{UserID: "user-new"})
	require.NoError(t, err)

	assert.Equal(t, "user-new", result.UserID)
	assert.Equal(t, 0, result.TotalXP)
	assert.Equal(t, progress.LevelBeginner.String(), result.Level)
	assert.Zero(t, result.StreakDays)
	assert.Nil(t, result.LastActivityAt)
}

func TestGetUserStats_ReturnsStoredAggregate(t *testing.T) {
	stats := progress.NewUserStats("user-1")
	stats.TotalXP = 1500
	stats.DomainProgressPercent = 60
	stats.Level = progress.LevelFromPercent(stats.DomainProgressPercent)
	stats.StreakDays = 4
	stats.CompletedResources = 12
	stats.LastActivityAt = utcDay(2026, 3, 9)

	h := NewGetUserStatsHandler(&fakeUserStatsRepo{stats: map[learning.UserID]*progress.UserStats{"user-1": stats}})

	result, err := h.Handle(context.Background(), GetUserStatsQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, 1500, result.TotalXP)
	assert.Equal(t, 4, result.StreakDays)
	assert.Equal(t, 12, result.CompletedResources)
	require.NotNil(t, result.LastActivityAt)
	assert.Equal(t, utcDay(2026, 3, 9), *result.LastActivityAt)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetAchievements
// ─────────────────────────────────────────────────────────────────────────────

func TestGetAchievements_ListsAwarded(t *testing.T) {
	repo := &fakeAchievementRepo{achievements: []progress.Achievement{
		{UserID: "user-1", Type: progress.AchievementFirstResource, Title: "First Resource", XPAwarded: 25, UnlockedAt: utcDay(2026, 3, 1)},
		{UserID: "user-2", Type: progress.AchievementFirstResource, Title: "First Resource", XPAwarded: 25, UnlockedAt: utcDay(2026, 3, 2)},
	}}
	h := NewGetAchievementsHandler(repo)

	result, err := h.Handle(context.Background(), GetAchievementsQuery{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, result.Achievements, 1)
	assert.Equal(t, string(progress.AchievementFirstResource), result.Achievements[0].Type)
	assert.Equal(t, 25, result.Achievements[0].XPAwarded)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetCourseProgress
// ─────────────────────────────────────────────────────────────────────────────

func testCourse() *progress.Course {
	return &progress.Course{
		ID:    "course-go",
		Title: "Go Fundamentals",
		Modules: []progress.CourseModule{
			{ID: "mod-1", CourseID: "course-go", Title: "Basics", Position: 1},
			{ID: "mod-2", CourseID: "course-go", Title: "Concurrency", Position: 2},
		},
	}
}

func TestGetCourseProgress_UnknownCourse(t *testing.T) {
	h := NewGetCourseProgressHandler(&fakeCourseRepo{}, &fakeCatalog{})

	_, err := h.Handle(context.Background(), GetCourseProgressQuery{UserID: "user-1", CourseID: "nope"})
	assert.True(t, shared.IsNotFound(err))
}

func TestGetCourseProgress_NoActivityIsZeroProgress(t *testing.T) {
	catalog := &fakeCatalog{courses: map[progress.CourseID]*progress.Course{"course-go": testCourse()}}
	h := NewGetCourseProgressHandler(&fakeCourseRepo{}, catalog)

	result, err := h.Handle(context.Background(), GetCourseProgressQuery{UserID: "user-1", CourseID: "course-go"})
	require.NoError(t, err)

	assert.Equal(t, "Go Fundamentals", result.CourseTitle)
	assert.Equal(t, 2, result.TotalModules)
	assert.Empty(t, result.CompletedModules)
	assert.Equal(t, 0, result.PercentComplete)
	assert.False(t, result.Completed)
}

func TestGetCourseProgress_PartialAndComplete(t *testing.T) {
	catalog := &fakeCatalog{courses: map[progress.CourseID]*progress.Course{"course-go": testCourse()}}
	courseRepo := &fakeCourseRepo{}
	ctx := context.Background()

	cp, err := progress.NewCourseProgress("user-1", "course-go", 2)
	require.NoError(t, err)
	cp.ApplyModuleCompletion("mod-1", utcDay(2026, 3, 1))
	require.NoError(t, courseRepo.Save(ctx, cp))

	h := NewGetCourseProgressHandler(courseRepo, catalog)

	result, err := h.Handle(ctx, GetCourseProgressQuery{UserID: "user-1", CourseID: "course-go"})
	require.NoError(t, err)
	require.Len(t, result.CompletedModules, 1)
	assert.Equal(t, "mod-1", result.CompletedModules[0].ModuleID)
	assert.Equal(t, 50, result.PercentComplete)
	assert.False(t, result.Completed)

	cp.ApplyModuleCompletion("mod-2", utcDay(2026, 3, 2))
	require.NoError(t, courseRepo.Save(ctx, cp))

	result, err = h.Handle(ctx, GetCourseProgressQuery{UserID: "user-1", CourseID: "course-go"})
	require.NoError(t, err)
	assert.Equal(t, 100, result.PercentComplete)
	assert.True(t, result.Completed)
}
