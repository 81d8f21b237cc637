package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION EVENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EventRepository implements learning.EventRepository for PostgreSQL.
type EventRepository struct {
	conn *Connection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(conn *Connection) *EventRepository {
	return &EventRepository{conn: conn}
}

const eventColumns = `id, user_id, resource_id, resource_type, domain, platform,
	   course_id, module_id, completed_at, duration_seconds`

// Append stores the event unless its dedup key already exists. On conflict the
// stored row only refreshes completed_at when the new submission is later;
// (xmax = 0) distinguishes a fresh insert from a conflict in one round trip.
func (r *EventRepository) Append(ctx context.Context, e *learning.CompletionEvent) (*learning.AppendResult, error) {
	query := `
		INSERT INTO completion_events (
			id, user_id, resource_id, resource_type, domain, platform,
			course_id, module_id, completed_at, duration_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, resource_id, resource_type)
		DO UPDATE SET completed_at = GREATEST(completion_events.completed_at, EXCLUDED.completed_at)
		RETURNING id, completed_at, (xmax = 0) AS created
	`

	var (
		storedID    string
		completedAt time.Time
		created     bool
	)
	err := r.conn.QueryRow(ctx, query,
		e.ID,
		e.UserID.String(),
		e.ResourceID.String(),
		e.ResourceType.String(),
		e.Domain.String(),
		e.Platform,
		e.CourseID,
		e.ModuleID,
		e.CompletedAt,
		e.DurationSeconds,
	).Scan(&storedID, &completedAt, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to append completion event: %w", err)
	}

	stored := *e
	stored.ID = storedID
	stored.CompletedAt = completedAt

	return &learning.AppendResult{Created: created, Event: &stored}, nil
}

// GetByUser returns the user's full event log, oldest first.
func (r *EventRepository) GetByUser(ctx context.Context, userID learning.UserID) ([]learning.CompletionEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM completion_events
		WHERE user_id = $1
		ORDER BY seq
	`, eventColumns)

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query completion events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByUserSince returns events completed at or after the given instant.
func (r *EventRepository) GetByUserSince(ctx context.Context, userID learning.UserID, since time.Time) ([]learning.CompletionEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM completion_events
		WHERE user_id = $1 AND completed_at >= $2
		ORDER BY seq
	`, eventColumns)

	rows, err := r.conn.Query(ctx, query, userID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanEvents(rows pgx.Rows) ([]learning.CompletionEvent, error) {
	var events []learning.CompletionEvent
	for rows.Next() {
		var (
			e                    learning.CompletionEvent
			userID, resourceID   string
			resourceType, domain string
		)
		err := rows.Scan(
			&e.ID,
			&userID,
			&resourceID,
			&resourceType,
			&domain,
			&e.Platform,
			&e.CourseID,
			&e.ModuleID,
			&e.CompletedAt,
			&e.DurationSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion event: %w", err)
		}
		e.UserID = learning.UserID(userID)
		e.ResourceID = learning.ResourceID(resourceID)
		e.ResourceType = learning.ResourceType(resourceType)
		e.Domain = learning.Domain(domain)
		e.CompletedAt = e.CompletedAt.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}
