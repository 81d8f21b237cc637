package learning

import (
	"context"
	"time"
)

// AppendResult reports what happened when an event was appended.
type AppendResult struct {
	// Created is false when the event was a duplicate of an existing
	// (user, resource, type) triple. Duplicates are success, not errors;
	// the caller surfaces the flag so clients can tell "already recorded"
	// from "newly recorded".
	Created bool

	// Event is the stored event: the new one when Created, otherwise the
	// original first occurrence with its last-activity timestamp refreshed.
	Event *CompletionEvent
}

// EventRepository defines the interface for the append-only completion log.
// Implemented by the infrastructure layer; the domain has no knowledge of the
// storage mechanism.
type EventRepository interface {
	// Append durably appends a completion event. If an event with the same
	// (UserID, ResourceID, ResourceType) already exists, no second countable
	// event is created; the stored event's CompletedAt is advanced to the
	// later of the two timestamps and Created=false is returned.
	Append(ctx context.Context, event *CompletionEvent) (*AppendResult, error)

	// GetByUser returns all of a user's events in insertion order.
	GetByUser(ctx context.Context, userID UserID) ([]CompletionEvent, error)

	// GetByUserSince returns a user's events with CompletedAt >= since, in
	// insertion order. Used for heatmap windows.
	GetByUserSince(ctx context.Context, userID UserID, since time.Time) ([]CompletionEvent, error)
}
