// Package learning contains domain entities and business logic for completion
// events: the immutable facts that a user finished a learning resource or a
// course module. This is a pure domain layer with zero external dependencies.
package learning

import (
	"fmt"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ClockSkewTolerance is how far in the future a client-supplied completedAt may
// be before ingestion rejects it.
const ClockSkewTolerance = time.Minute

// UserID represents a unique identifier for a learner.
type UserID string

// IsValid checks if the user ID is valid.
func (u UserID) IsValid() bool {
	return u != ""
}

// String returns the string representation of UserID.
func (u UserID) String() string {
	return string(u)
}

// ResourceID represents a unique identifier for a learning resource
// (e.g., "yt-goroutines-101", "course-webdev/module-03").
type ResourceID string

// IsValid checks if the resource ID is valid.
func (r ResourceID) IsValid() bool {
	return r != ""
}

// String returns the string representation of ResourceID.
func (r ResourceID) String() string {
	return string(r)
}

// Domain represents a subject-matter track (e.g., "Web Development").
type Domain string

// IsValid checks if the domain is non-empty.
func (d Domain) IsValid() bool {
	return d != ""
}

// String returns the string representation of Domain.
func (d Domain) String() string {
	return string(d)
}

// ResourceType classifies a completed resource. The set is closed: ingestion
// rejects anything else.
type ResourceType string

const (
	ResourceVideo         ResourceType = "video"
	ResourceArticle       ResourceType = "article"
	ResourceTutorial      ResourceType = "tutorial"
	ResourceDocumentation ResourceType = "documentation"
	ResourceGithub        ResourceType = "github"
	ResourceModule        ResourceType = "module"
)

// AllResourceTypes returns every valid resource type.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceVideo,
		ResourceArticle,
		ResourceTutorial,
		ResourceDocumentation,
		ResourceGithub,
		ResourceModule,
	}
}

// IsValid checks if the resource type is one of the closed enum.
func (rt ResourceType) IsValid() bool {
	switch rt {
	case ResourceVideo, ResourceArticle, ResourceTutorial,
		ResourceDocumentation, ResourceGithub, ResourceModule:
		return true
	}
	return false
}

// String returns the string representation of ResourceType.
func (rt ResourceType) String() string {
	return string(rt)
}

// CompletionEvent is an immutable fact: the user finished a resource.
// It is created once per user action and never mutated. The same resource may
// be submitted more than once (client retries); deduplication happens at the
// (UserID, ResourceID, ResourceType) boundary.
type CompletionEvent struct {
	ID           string
	UserID       UserID
	ResourceID   ResourceID
	ResourceType ResourceType
	Domain       Domain

	// Platform is the source platform ("youtube", "github", "internal", ...).
	// Informational only; never part of the dedup key.
	Platform string

	// CourseID/ModuleID are set only for ResourceModule events and drive
	// course progress. Empty for all other types.
	CourseID string
	ModuleID string

	CompletedAt time.Time

	// DurationSeconds is the time spent on the resource. Zero means the client
	// did not report a duration; such events still count toward totals but
	// contribute nothing to study hours.
	DurationSeconds int
}

// NewCompletionEvent creates a validated completion event. Validation failures
// happen before any state is touched.
func NewCompletionEvent(
	id string,
	userID UserID,
	resourceID ResourceID,
	resourceType ResourceType,
	domain Domain,
	completedAt time.Time,
	durationSeconds int,
) (*CompletionEvent, error) {
	if id == "" {
		return nil, shared.NewDomainError("learning", "NewCompletionEvent", shared.ErrInvalidID, "event ID is required")
	}
	if !userID.IsValid() {
		return nil, shared.ErrEmptyUserID
	}
	if !resourceID.IsValid() {
		return nil, shared.ErrEmptyResourceID
	}
	if !resourceType.IsValid() {
		return nil, shared.WrapError("learning", "NewCompletionEvent", shared.ErrInvalidInput,
			"unknown resource type", fmt.Errorf("resource type %q", resourceType))
	}
	if !domain.IsValid() {
		return nil, shared.ErrEmptyDomain
	}
	if durationSeconds < 0 {
		return nil, shared.ErrInvalidDuration
	}
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	if completedAt.After(time.Now().Add(ClockSkewTolerance)) {
		return nil, shared.ErrInvalidTimestamp
	}

	return &CompletionEvent{
		ID:              id,
		UserID:          userID,
		ResourceID:      resourceID,
		ResourceType:    resourceType,
		Domain:          domain,
		CompletedAt:     completedAt.UTC(),
		DurationSeconds: durationSeconds,
	}, nil
}

// WithPlatform annotates the event with its source platform.
func (e *CompletionEvent) WithPlatform(platform string) *CompletionEvent {
	e.Platform = platform
	return e
}

// WithModule attaches course/module identity. Only meaningful for
// ResourceModule events; ingestion enforces that.
func (e *CompletionEvent) WithModule(courseID, moduleID string) *CompletionEvent {
	e.CourseID = courseID
	e.ModuleID = moduleID
	return e
}

// IsModule reports whether this event advances course progress.
func (e *CompletionEvent) IsModule() bool {
	return e.ResourceType == ResourceModule
}

// DedupKey identifies the event for duplicate detection. First occurrence wins
// for counting; later submissions only refresh last-activity.
type DedupKey struct {
	UserID       UserID
	ResourceID   ResourceID
	ResourceType ResourceType
}

// Key returns the dedup key of the event.
func (e *CompletionEvent) Key() DedupKey {
	return DedupKey{
		UserID:       e.UserID,
		ResourceID:   e.ResourceID,
		ResourceType: e.ResourceType,
	}
}

// Hours converts the event's duration into fractional study hours.
func (e *CompletionEvent) Hours() float64 {
	return float64(e.DurationSeconds) / 3600.0
}
