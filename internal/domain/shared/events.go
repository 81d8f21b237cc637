// Package shared contains common domain types, errors, and events that are used
// across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven parts of the engine.
// Each event represents something significant that happened in the domain.
const (
	// Learning events
	EventCompletionRecorded EventType = "learning.completion_recorded"
	EventDuplicateIgnored   EventType = "learning.duplicate_ignored"

	// Progress events
	EventXPGained        EventType = "progress.xp_gained"
	EventLevelUp         EventType = "progress.level_up"
	EventCourseCompleted EventType = "progress.course_completed"
	EventStreakUpdated   EventType = "progress.streak_updated"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Learning Events
// ═══════════════════════════════════════════════════════════════════════════

// CompletionRecordedEvent is emitted when a new completion event is durably
// appended to a user's event log.
type CompletionRecordedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	ResourceID   string `json:"resource_id"`
	ResourceType string `json:"resource_type"`
	Domain       string `json:"domain"`
	XPEarned     int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e CompletionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"resource_id":   e.ResourceID,
		"resource_type": e.ResourceType,
		"domain":        e.Domain,
		"xp_earned":     e.XPEarned,
	}
}

// NewCompletionRecordedEvent creates a new CompletionRecordedEvent.
func NewCompletionRecordedEvent(userID, resourceID, resourceType, domain string, xpEarned int) CompletionRecordedEvent {
	return CompletionRecordedEvent{
		BaseEvent:    NewBaseEvent(EventCompletionRecorded, userID),
		UserID:       userID,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Domain:       domain,
		XPEarned:     xpEarned,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a user gains XP.
type XPGainedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	Amount     int    `json:"amount"`
	NewTotal   int    `json:"new_total"`
	Source     string `json:"source"` // e.g., "completion", "achievement"
	ResourceID string `json:"resource_id,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"amount":      e.Amount,
		"new_total":   e.NewTotal,
		"source":      e.Source,
		"resource_id": e.ResourceID,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID string, amount, newTotal int, source, resourceID string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent:  NewBaseEvent(EventXPGained, userID),
		UserID:     userID,
		Amount:     amount,
		NewTotal:   newTotal,
		Source:     source,
		ResourceID: resourceID,
	}
}

// LevelUpEvent is emitted when a user's level increases. Levels never go down,
// so there is no corresponding "level down" event.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel string `json:"old_level"`
	NewLevel string `json:"new_level"`
	XPBonus  int    `json:"xp_bonus"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"xp_bonus":  e.XPBonus,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID, oldLevel, newLevel string, xpBonus int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		XPBonus:   xpBonus,
	}
}

// CourseCompletedEvent is emitted when a course reaches 100% completion.
type CourseCompletedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	CourseID    string `json:"course_id"`
	ModuleCount int    `json:"module_count"`
}

// Payload implements Event interface.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"course_id":    e.CourseID,
		"module_count": e.ModuleCount,
	}
}

// NewCourseCompletedEvent creates a new CourseCompletedEvent.
func NewCourseCompletedEvent(userID, courseID string, moduleCount int) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent:   NewBaseEvent(EventCourseCompleted, userID),
		UserID:      userID,
		CourseID:    courseID,
		ModuleCount: moduleCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted at most once per (user, achievement type).
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID          string `json:"user_id"`
	AchievementType string `json:"achievement_type"`
	XPAwarded       int    `json:"xp_awarded"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":          e.UserID,
		"achievement_type": e.AchievementType,
		"xp_awarded":       e.XPAwarded,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementType string, xpAwarded int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:       NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:          userID,
		AchievementType: achievementType,
		XPAwarded:       xpAwarded,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
