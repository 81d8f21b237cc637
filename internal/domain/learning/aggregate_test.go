package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, id string, resourceID ResourceID, rt ResourceType, domain Domain, completedAt time.Time, duration int) CompletionEvent {
	t.Helper()
	e, err := NewCompletionEvent(id, "user-1", resourceID, rt, domain, completedAt, duration)
	require.NoError(t, err)
	return *e
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestDeduplicate_FirstWinsLatestTimestampRetained(t *testing.T) {
	t1 := day(2026, 1, 10)
	t2 := day(2026, 1, 12)

	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", t1, 300),
		mustEvent(t, "evt-2", "res-1", ResourceVideo, "Go", t2, 900),
		mustEvent(t, "evt-3", "res-2", ResourceArticle, "Go", t1, 0),
	}

	out := Deduplicate(events)

	require.Len(t, out, 2)
	// First submission survives with its own duration...
	assert.Equal(t, "evt-1", out[0].ID)
	assert.Equal(t, 300, out[0].DurationSeconds)
	// ...but the later CompletedAt is kept so last-activity stays fresh.
	assert.Equal(t, t2, out[0].CompletedAt)
	assert.Equal(t, "evt-3", out[1].ID)
}

func TestDeduplicate_SameResourceDifferentTypeBothCount(t *testing.T) {
	ts := day(2026, 1, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", ts, 0),
		mustEvent(t, "evt-2", "res-1", ResourceArticle, "Go", ts, 0),
	}

	assert.Len(t, Deduplicate(events), 2)
}

func TestAggregate_EmptyLog(t *testing.T) {
	stats := Aggregate(nil, "Go")

	assert.Equal(t, Domain("Go"), stats.Domain)
	assert.Equal(t, 0, stats.TotalCompleted)
	assert.Equal(t, 0.0, stats.TotalHours)
	assert.Equal(t, 0, stats.StreakDays)
	assert.True(t, stats.LastActivityAt.IsZero())
}

func TestAggregate_CountsScopedToDomain(t *testing.T) {
	ts := day(2026, 1, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", ts, 1800),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", ts, 1800),
		mustEvent(t, "evt-3", "res-3", ResourceTutorial, "Go", ts.Add(time.Hour), 3600),
		mustEvent(t, "evt-4", "res-4", ResourceArticle, "Rust", ts, 600),
	}

	stats := Aggregate(events, "Go")

	assert.Equal(t, 3, stats.TotalCompleted)
	assert.Equal(t, 2, stats.CountsByType[ResourceVideo])
	assert.Equal(t, 1, stats.CountsByType[ResourceTutorial])
	assert.Equal(t, 0, stats.CountsByType[ResourceArticle])
	assert.InDelta(t, 2.0, stats.TotalHours, 1e-9)
	assert.Equal(t, ts.Add(time.Hour), stats.LastActivityAt)
	assert.Equal(t, 3, stats.BestDayCount)
}

func TestAggregate_TotalMatchesTypeCounts(t *testing.T) {
	ts := day(2026, 1, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", ts, 0),
		mustEvent(t, "evt-2", "res-1", ResourceVideo, "Go", ts, 0), // duplicate
		mustEvent(t, "evt-3", "res-2", ResourceGithub, "Go", ts, 0),
	}

	stats := Aggregate(events, "Go")

	sum := 0
	for _, n := range stats.CountsByType {
		sum += n
	}
	assert.Equal(t, stats.TotalCompleted, sum)
	assert.Equal(t, 2, stats.TotalCompleted)
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", day(2026, 1, 1), 0),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", day(2026, 1, 2), 0),
		mustEvent(t, "evt-3", "res-3", ResourceVideo, "Go", day(2026, 1, 3), 0),
	}

	assert.Equal(t, 3, StreakDays(events))

	// Activity on Jan 5 breaks the run: the current streak restarts at 1.
	events = append(events, mustEvent(t, "evt-4", "res-4", ResourceVideo, "Go", day(2026, 1, 5), 0))
	assert.Equal(t, 1, StreakDays(events))
}

func TestStreak_MultipleEventsSameDayCountOnce(t *testing.T) {
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", day(2026, 1, 1).Add(time.Hour), 0),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", day(2026, 1, 1).Add(5*time.Hour), 0),
		mustEvent(t, "evt-3", "res-3", ResourceVideo, "Go", day(2026, 1, 2), 0),
	}

	assert.Equal(t, 2, StreakDays(events))
}

func TestStreak_DayBoundaryIsUTC(t *testing.T) {
	// 23:50 and next day 00:10 UTC are different days even though only
	// twenty minutes apart.
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", time.Date(2026, 1, 1, 23, 50, 0, 0, time.UTC), 0),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", time.Date(2026, 1, 2, 0, 10, 0, 0, time.UTC), 0),
	}

	assert.Equal(t, 2, StreakDays(events))
}

func TestTotalStudyHours_UnreportedDurationContributesNothing(t *testing.T) {
	ts := day(2026, 1, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", ts, 1800),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", ts, 0),
	}

	assert.InDelta(t, 0.5, TotalStudyHours(events), 1e-9)
}

func TestDomains_SortedDistinct(t *testing.T) {
	ts := day(2026, 1, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Rust", ts, 0),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", ts, 0),
		mustEvent(t, "evt-3", "res-3", ResourceVideo, "Go", ts, 0),
	}

	assert.Equal(t, []Domain{"Go", "Rust"}, Domains(events))
}

func TestHeatmap_DenseWindow(t *testing.T) {
	now := day(2026, 3, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", day(2026, 3, 9), 0),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", day(2026, 3, 9), 0),
		mustEvent(t, "evt-3", "res-3", ResourceVideo, "Go", day(2026, 3, 10), 0),
	}

	buckets := Heatmap(events, now, 7)

	require.Len(t, buckets, 7)
	// Oldest day first, every day present even with zero activity.
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), buckets[0].Day)
	assert.Equal(t, 0, buckets[0].Count)
	assert.Equal(t, 2, buckets[5].Count)
	assert.Equal(t, 1, buckets[6].Count)
}

func TestHeatmap_OldActivityOutsideWindowExcluded(t *testing.T) {
	now := day(2026, 3, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", day(2025, 1, 1), 0),
	}

	buckets := Heatmap(events, now, 7)

	require.Len(t, buckets, 7)
	for _, b := range buckets {
		assert.Equal(t, 0, b.Count)
	}
}

func TestTimeline_NewestFirstStable(t *testing.T) {
	ts := day(2026, 1, 10)
	events := []CompletionEvent{
		mustEvent(t, "evt-1", "res-1", ResourceVideo, "Go", ts, 0),
		mustEvent(t, "evt-2", "res-2", ResourceVideo, "Go", ts, 0), // same instant
		mustEvent(t, "evt-3", "res-3", ResourceVideo, "Go", ts.Add(time.Hour), 0),
	}

	timeline := Timeline(events, 10)

	require.Len(t, timeline, 3)
	assert.Equal(t, "evt-3", timeline[0].ID)
	// Equal timestamps keep insertion order.
	assert.Equal(t, "evt-1", timeline[1].ID)
	assert.Equal(t, "evt-2", timeline[2].ID)
}

func TestTimeline_LimitApplied(t *testing.T) {
	ts := day(2026, 1, 10)
	var events []CompletionEvent
	for i := 0; i < 5; i++ {
		suffix := string(rune('a' + i))
		events = append(events, mustEvent(t, "evt-"+suffix,
			ResourceID("res-"+suffix), ResourceVideo, "Go", ts.Add(time.Duration(i)*time.Minute), 0))
	}

	timeline := Timeline(events, 2)

	require.Len(t, timeline, 2)
	assert.Equal(t, "evt-e", timeline[0].ID)
	assert.Equal(t, "evt-d", timeline[1].ID)
}
