package learning

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusmart/progress-engine/internal/domain/shared"
)

func TestNewCompletionEvent_Valid(t *testing.T) {
	completedAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	event, err := NewCompletionEvent(
		"evt-1",
		"user-1",
		"yt-goroutines-101",
		ResourceVideo,
		"Backend Development",
		completedAt,
		420,
	)

	require.NoError(t, err)
	assert.Equal(t, UserID("user-1"), event.UserID)
	assert.Equal(t, ResourceID("yt-goroutines-101"), event.ResourceID)
	assert.Equal(t, ResourceVideo, event.ResourceType)
	assert.Equal(t, completedAt, event.CompletedAt)
	assert.Equal(t, 420, event.DurationSeconds)
	assert.False(t, event.IsModule())
}

func TestNewCompletionEvent_DefaultsTimestampToNow(t *testing.T) {
	before := time.Now().UTC()
	event, err := NewCompletionEvent("evt-1", "user-1", "res-1", ResourceArticle, "Go", time.Time{}, 0)
	after := time.Now().UTC()

	require.NoError(t, err)
	assert.False(t, event.CompletedAt.Before(before))
	assert.False(t, event.CompletedAt.After(after))
}

func TestNewCompletionEvent_ValidationErrors(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name         string
		userID       UserID
		resourceID   ResourceID
		resourceType ResourceType
		domain       Domain
		completedAt  time.Time
		duration     int
		wantErr      error
	}{
		{"empty user", "", "res-1", ResourceVideo, "Go", now, 0, shared.ErrInvalidID},
		{"empty resource", "user-1", "", ResourceVideo, "Go", now, 0, shared.ErrInvalidID},
		{"unknown type", "user-1", "res-1", "podcast", "Go", now, 0, shared.ErrInvalidInput},
		{"empty domain", "user-1", "res-1", ResourceVideo, "", now, 0, shared.ErrEmptyValue},
		{"negative duration", "user-1", "res-1", ResourceVideo, "Go", now, -5, shared.ErrNegativeValue},
		{"future timestamp", "user-1", "res-1", ResourceVideo, "Go", now.Add(time.Hour), 0, shared.ErrFutureTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompletionEvent("evt-1", tt.userID, tt.resourceID, tt.resourceType, tt.domain, tt.completedAt, tt.duration)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestNewCompletionEvent_ClockSkewTolerated(t *testing.T) {
	// A few seconds ahead is client clock skew, not an error.
	event, err := NewCompletionEvent("evt-1", "user-1", "res-1", ResourceVideo, "Go",
		time.Now().UTC().Add(10*time.Second), 0)

	require.NoError(t, err)
	assert.NotNil(t, event)
}

func TestResourceType_IsValid(t *testing.T) {
	for _, rt := range AllResourceTypes() {
		assert.True(t, rt.IsValid(), "expected %s to be valid", rt)
	}
	assert.False(t, ResourceType("podcast").IsValid())
	assert.False(t, ResourceType("").IsValid())
	assert.False(t, ResourceType("Video").IsValid())
}

func TestDedupKey_IgnoresPlatformAndDuration(t *testing.T) {
	a, err := NewCompletionEvent("evt-1", "user-1", "res-1", ResourceVideo, "Go", time.Now().UTC(), 120)
	require.NoError(t, err)
	a.WithPlatform("youtube")

	b, err := NewCompletionEvent("evt-2", "user-1", "res-1", ResourceVideo, "Go", time.Now().UTC(), 999)
	require.NoError(t, err)
	b.WithPlatform("internal")

	assert.Equal(t, a.Key(), b.Key())
}

func TestWithModule(t *testing.T) {
	event, err := NewCompletionEvent("evt-1", "user-1", "course-webdev/module-03", ResourceModule, "Web Development", time.Now().UTC(), 0)
	require.NoError(t, err)

	event.WithModule("course-webdev", "module-03")

	assert.True(t, event.IsModule())
	assert.Equal(t, "course-webdev", event.CourseID)
	assert.Equal(t, "module-03", event.ModuleID)
}
