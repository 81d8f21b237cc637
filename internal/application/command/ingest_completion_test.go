package command

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

type memEventRepo struct {
	mu     sync.Mutex
	events []learning.CompletionEvent
	byKey  map[learning.DedupKey]int
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{byKey: make(map[learning.DedupKey]int)}
}

func (r *memEventRepo) Append(_ context.Context, e *learning.CompletionEvent) (*learning.AppendResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byKey[e.Key()]; ok {
		if e.CompletedAt.After(r.events[idx].CompletedAt) {
			r.events[idx].CompletedAt = e.CompletedAt
		}
		stored := r.events[idx]
		return &learning.AppendResult{Created: false, Event: &stored}, nil
	}
	r.byKey[e.Key()] = len(r.events)
	r.events = append(r.events, *e)
	return &learning.AppendResult{Created: true, Event: e}, nil
}

func (r *memEventRepo) GetByUser(_ context.Context, userID learning.UserID) ([]learning.CompletionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []learning.CompletionEvent
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEventRepo) GetByUserSince(ctx context.Context, userID learning.UserID, since time.Time) ([]learning.CompletionEvent, error) {
	all, _ := r.GetByUser(ctx, userID)
	var out []learning.CompletionEvent
	for _, e := range all {
		if !e.CompletedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

type memStatsRepo struct {
	mu    sync.Mutex
	stats map[learning.UserID]progress.UserStats
}

func newMemStatsRepo() *memStatsRepo {
	return &memStatsRepo{stats: make(map[learning.UserID]progress.UserStats)}
}

func (r *memStatsRepo) GetByUser(_ context.Context, userID learning.UserID) (*progress.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := s
	return &copied, nil
}

func (r *memStatsRepo) Save(_ context.Context, s *progress.UserStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.stats[s.UserID]
	if ok && current.Version != s.Version-1 {
		return shared.ErrUserStatsConflict
	}
	if !ok && s.Version != 1 {
		return shared.ErrUserStatsConflict
	}
	r.stats[s.UserID] = *s
	return nil
}

// conflictOnceStatsRepo fails the first Save with a version conflict, as if
// another instance updated the aggregate between read and save.
type conflictOnceStatsRepo struct {
	*memStatsRepo
	conflicted bool
}

func (r *conflictOnceStatsRepo) Save(ctx context.Context, s *progress.UserStats) error {
	if !r.conflicted {
		r.conflicted = true
		return shared.ErrUserStatsConflict
	}
	return r.memStatsRepo.Save(ctx, s)
}

type memCourseRepo struct {
	mu       sync.Mutex
	progress map[string]*progress.CourseProgress
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{progress: make(map[string]*progress.CourseProgress)}
}

func (r *memCourseRepo) GetByUserAndCourse(_ context.Context, userID learning.UserID, courseID progress.CourseID) (*progress.CourseProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.progress[userID.String()+"/"+courseID.String()]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *memCourseRepo) Save(_ context.Context, p *progress.CourseProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[p.UserID.String()+"/"+p.CourseID.String()] = p
	return nil
}

type memAchievementRepo struct {
	mu      sync.Mutex
	awarded map[learning.UserID][]progress.Achievement
}

func newMemAchievementRepo() *memAchievementRepo {
	return &memAchievementRepo{awarded: make(map[learning.UserID][]progress.Achievement)}
}

func (r *memAchievementRepo) Award(_ context.Context, a progress.Achievement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.awarded[a.UserID] {
		if existing.Type == a.Type {
			return false, nil
		}
	}
	r.awarded[a.UserID] = append(r.awarded[a.UserID], a)
	return true, nil
}

func (r *memAchievementRepo) GetByUser(_ context.Context, userID learning.UserID) ([]progress.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]progress.Achievement(nil), r.awarded[userID]...), nil
}

func (r *memAchievementRepo) TypesByUser(_ context.Context, userID learning.UserID) (map[progress.AchievementType]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[progress.AchievementType]bool)
	for _, a := range r.awarded[userID] {
		out[a.Type] = true
	}
	return out, nil
}

type memCatalog struct {
	courses map[progress.CourseID]*progress.Course
}

func (c *memCatalog) GetCourse(_ context.Context, id progress.CourseID) (*progress.Course, error) {
	course, ok := c.courses[id]
	if !ok {
		return nil, shared.ErrCourseNotFound
	}
	return course, nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *memPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *memPublisher) PublishAll(events []shared.Event) error {
	for _, e := range events {
		_ = p.Publish(e)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

type ingestFixture struct {
	handler      *IngestCompletionHandler
	events       *memEventRepo
	stats        *memStatsRepo
	courses      *memCourseRepo
	achievements *memAchievementRepo
	catalog      *memCatalog
	publisher    *memPublisher
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		events:       newMemEventRepo(),
		stats:        newMemStatsRepo(),
		courses:      newMemCourseRepo(),
		achievements: newMemAchievementRepo(),
		publisher:    &memPublisher{},
	}
	f.catalog = &memCatalog{courses: map[progress.CourseID]*progress.Course{
		"course-go": {
			ID:    "course-go",
			Title: "Go from Scratch",
			Modules: []progress.CourseModule{
				{ID: "module-01", CourseID: "course-go", Position: 1},
				{ID: "module-02", CourseID: "course-go", Position: 2},
				{ID: "module-03", CourseID: "course-go", Position: 3},
				{ID: "module-04", CourseID: "course-go", Position: 4},
			},
		},
	}}
	f.handler = NewIngestCompletionHandler(
		f.events, f.stats, f.courses, f.achievements, f.catalog, f.publisher,
		logger.New(logger.Options{Level: logger.LevelError}),
	)
	return f
}

func videoCmd(resourceID string, completedAt time.Time) IngestCompletionCommand {
	return IngestCompletionCommand{
		UserID:       "user-1",
		ResourceID:   resourceID,
		ResourceType: "video",
		Domain:       "Go",
		CompletedAt:  completedAt,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestIngest_FirstEventAwardsXPAndFirstResource(t *testing.T) {
	f := newIngestFixture()

	result, err := f.handler.Handle(context.Background(), videoCmd("res-1", time.Now().UTC()))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Duplicate)
	// 75 for the video + 100 first-resource bonus.
	assert.Equal(t, 175, result.XPAwarded)
	assert.Equal(t, 175, result.TotalXP)
	assert.Equal(t, "Beginner", result.Level)
	assert.Equal(t, 1, result.StreakDays)
	require.Len(t, result.UnlockedAchievements, 1)
	assert.Equal(t, progress.AchievementFirstResource, result.UnlockedAchievements[0].Type)
}

func TestIngest_AchievementBonusSurvivesSaveConflict(t *testing.T) {
	f := newIngestFixture()
	flaky := &conflictOnceStatsRepo{memStatsRepo: f.stats}
	handler := NewIngestCompletionHandler(
		f.events, flaky, f.courses, f.achievements, f.catalog, f.publisher,
		logger.New(logger.Options{Level: logger.LevelError}),
	)

	result, err := handler.Handle(context.Background(), videoCmd("res-1", time.Now().UTC()))

	require.NoError(t, err)
	require.True(t, flaky.conflicted)
	// The first save attempt lost the version race after the award was already
	// persisted; the retry must still carry the 100 first-resource bonus on
	// top of 75 for the video and report the unlock.
	assert.Equal(t, 175, result.XPAwarded)
	assert.Equal(t, 175, result.TotalXP)
	require.Len(t, result.UnlockedAchievements, 1)
	assert.Equal(t, progress.AchievementFirstResource, result.UnlockedAchievements[0].Type)

	stats, err := f.stats.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, progress.XP(175), stats.TotalXP)

	unlocked, err := f.achievements.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
}

func TestIngest_DuplicateIsSuccessWithoutSideEffects(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	ts := time.Now().UTC()

	first, err := f.handler.Handle(ctx, videoCmd("res-1", ts))
	require.NoError(t, err)

	second, err := f.handler.Handle(ctx, videoCmd("res-1", ts))
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 0, second.XPAwarded)
	assert.Equal(t, first.TotalXP, second.TotalXP)
	assert.Empty(t, second.UnlockedAchievements)

	stats, err := f.stats.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedResources)
}

func TestIngest_XPConservation(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	var expected int
	for i, id := range []string{"res-1", "res-2", "res-3"} {
		result, err := f.handler.Handle(ctx, videoCmd(id, time.Now().UTC().Add(time.Duration(-i)*time.Hour)))
		require.NoError(t, err)
		expected += result.XPAwarded
	}

	stats, err := f.stats.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, progress.XP(expected), stats.TotalXP)
}

func TestIngest_FifthResourceMilestoneOnce(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	var explorerAwards int
	for i := 0; i < 6; i++ {
		result, err := f.handler.Handle(ctx, videoCmd("res-"+string(rune('a'+i)), time.Now().UTC()))
		require.NoError(t, err)
		for _, a := range result.UnlockedAchievements {
			if a.Type == progress.AchievementResourceExplorer {
				explorerAwards++
			}
		}
	}

	assert.Equal(t, 1, explorerAwards)
}

func TestIngest_ModuleEventsDriveCourseProgress(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	moduleCmd := func(module string) IngestCompletionCommand {
		return IngestCompletionCommand{
			UserID:       "user-1",
			ResourceID:   "course-go/" + module,
			ResourceType: "module",
			Domain:       "Go",
			CourseID:     "course-go",
			ModuleID:     module,
			CompletedAt:  time.Now().UTC(),
		}
	}

	for _, m := range []string{"module-01", "module-02", "module-03"} {
		result, err := f.handler.Handle(ctx, moduleCmd(m))
		require.NoError(t, err)
		assert.False(t, result.CourseCompleted)
	}

	result, err := f.handler.Handle(ctx, moduleCmd("module-04"))
	require.NoError(t, err)
	assert.True(t, result.CourseCompleted)

	cp, err := f.courses.GetByUserAndCourse(ctx, "user-1", "course-go")
	require.NoError(t, err)
	assert.Equal(t, 100, cp.PercentComplete)
	assert.True(t, cp.IsComplete())
}

func TestIngest_UnknownCourseRejected(t *testing.T) {
	f := newIngestFixture()

	cmd := IngestCompletionCommand{
		UserID:       "user-1",
		ResourceID:   "course-rust/module-01",
		ResourceType: "module",
		Domain:       "Rust",
		CourseID:     "course-rust",
		ModuleID:     "module-01",
	}

	_, err := f.handler.Handle(context.Background(), cmd)

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	// Nothing was recorded.
	events, _ := f.events.GetByUser(context.Background(), "user-1")
	assert.Empty(t, events)
}

func TestIngest_ModuleWithoutCourseIDRejected(t *testing.T) {
	f := newIngestFixture()

	cmd := IngestCompletionCommand{
		UserID:       "user-1",
		ResourceID:   "module-01",
		ResourceType: "module",
		Domain:       "Go",
	}

	_, err := f.handler.Handle(context.Background(), cmd)

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestIngest_InvalidResourceTypeRejected(t *testing.T) {
	f := newIngestFixture()

	cmd := videoCmd("res-1", time.Now().UTC())
	cmd.ResourceType = "podcast"

	_, err := f.handler.Handle(context.Background(), cmd)

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestIngest_PublishesDomainEvents(t *testing.T) {
	f := newIngestFixture()

	_, err := f.handler.Handle(context.Background(), videoCmd("res-1", time.Now().UTC()))
	require.NoError(t, err)

	var types []shared.EventType
	for _, e := range f.publisher.events {
		types = append(types, e.EventType())
	}
	assert.Contains(t, types, shared.EventCompletionRecorded)
	assert.Contains(t, types, shared.EventXPGained)
	assert.Contains(t, types, shared.EventAchievementUnlocked)
}
