package learning

import (
	"sort"
	"time"

	"github.com/edusmart/progress-engine/pkg/timeutil"
)

// DomainStatistics is the derived per-domain view of a user's activity.
// It is always recomputable from the deduplicated event log; nothing here is a
// source of truth. Invariant: TotalCompleted == sum of CountsByType values.
type DomainStatistics struct {
	Domain         Domain
	TotalCompleted int
	CountsByType   map[ResourceType]int
	TotalHours     float64
	StreakDays     int
	BestDayCount   int
	LastActivityAt time.Time
}

// EmptyDomainStatistics returns the all-zero statistics for a domain.
// A user with no events gets this, not an error.
func EmptyDomainStatistics(domain Domain) DomainStatistics {
	return DomainStatistics{
		Domain:       domain,
		CountsByType: make(map[ResourceType]int),
	}
}

// Deduplicate collapses repeated submissions of the same (user, resource, type)
// into one countable event. The first occurrence wins; the latest CompletedAt
// among duplicates is retained so "last activity" stays fresh. Input order is
// preserved for the survivors.
func Deduplicate(events []CompletionEvent) []CompletionEvent {
	if len(events) == 0 {
		return nil
	}

	seen := make(map[DedupKey]int, len(events))
	out := make([]CompletionEvent, 0, len(events))

	for _, e := range events {
		key := e.Key()
		if idx, ok := seen[key]; ok {
			if e.CompletedAt.After(out[idx].CompletedAt) {
				out[idx].CompletedAt = e.CompletedAt
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, e)
	}

	return out
}

// Aggregate folds a user's events for one domain into DomainStatistics.
// Pure function: same events in, same statistics out. Events from other
// domains are ignored, so callers may pass the full log.
func Aggregate(events []CompletionEvent, domain Domain) DomainStatistics {
	stats := EmptyDomainStatistics(domain)

	var scoped []CompletionEvent
	for _, e := range events {
		if e.Domain == domain {
			scoped = append(scoped, e)
		}
	}
	scoped = Deduplicate(scoped)

	if len(scoped) == 0 {
		return stats
	}

	perDay := make(map[string]int)
	for _, e := range scoped {
		stats.TotalCompleted++
		stats.CountsByType[e.ResourceType]++
		stats.TotalHours += e.Hours()
		perDay[timeutil.DayKey(e.CompletedAt)]++

		if e.CompletedAt.After(stats.LastActivityAt) {
			stats.LastActivityAt = e.CompletedAt
		}
	}

	stats.StreakDays = streakDays(perDay)
	stats.BestDayCount = bestDayCount(perDay)

	return stats
}

// streakDays computes the length of the maximal run of consecutive UTC days
// ending at the most recent activity day. Multiple events on one day count as
// a single day. A broken run in the past is history, not the current streak.
func streakDays(perDay map[string]int) int {
	if len(perDay) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(perDay))
	for key := range perDay {
		day, err := timeutil.ParseDayKey(key)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})

	streak := 1
	for i := 1; i < len(days); i++ {
		if timeutil.DaysBetween(days[i], days[i-1]) == 1 {
			streak++
			continue
		}
		break
	}

	return streak
}

// bestDayCount returns the maximum number of events on any single UTC day.
func bestDayCount(perDay map[string]int) int {
	best := 0
	for _, count := range perDay {
		if count > best {
			best = count
		}
	}
	return best
}

// Domains returns the distinct domains present in the event set, sorted for
// deterministic output.
func Domains(events []CompletionEvent) []Domain {
	set := make(map[Domain]struct{})
	for _, e := range events {
		set[e.Domain] = struct{}{}
	}

	out := make([]Domain, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StreakDays computes the current consecutive-day streak over the given
// events regardless of domain. Used for the user-level streak; the per-domain
// streak lives in DomainStatistics.
func StreakDays(events []CompletionEvent) int {
	deduped := Deduplicate(events)
	perDay := make(map[string]int, len(deduped))
	for _, e := range deduped {
		perDay[timeutil.DayKey(e.CompletedAt)]++
	}
	return streakDays(perDay)
}

// TotalStudyHours sums reported durations over the deduplicated events,
// across all domains. Events without a duration contribute nothing.
func TotalStudyHours(events []CompletionEvent) float64 {
	total := 0.0
	for _, e := range Deduplicate(events) {
		total += e.Hours()
	}
	return total
}

// HeatmapBucket is one day of the activity heatmap.
type HeatmapBucket struct {
	Day   time.Time
	Count int
}

// Heatmap buckets deduplicated events into UTC days over the trailing window
// of windowDays ending at the day containing now. Days with zero events are
// present with count 0 so the caller can render a fixed-size grid.
func Heatmap(events []CompletionEvent, now time.Time, windowDays int) []HeatmapBucket {
	if windowDays <= 0 {
		return nil
	}

	deduped := Deduplicate(events)
	perDay := make(map[string]int, len(deduped))
	for _, e := range deduped {
		perDay[timeutil.DayKey(e.CompletedAt)]++
	}

	window := timeutil.DaysWindow(now, windowDays)
	buckets := make([]HeatmapBucket, 0, len(window))
	for _, day := range window {
		buckets = append(buckets, HeatmapBucket{
			Day:   day,
			Count: perDay[timeutil.DayKey(day)],
		})
	}

	return buckets
}

// Timeline returns the most recent limit events across all domains, newest
// first. Equal timestamps keep insertion order (stable sort), so retries and
// bulk imports render deterministically.
func Timeline(events []CompletionEvent, limit int) []CompletionEvent {
	deduped := Deduplicate(events)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].CompletedAt.After(deduped[j].CompletedAt)
	})

	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped
}
