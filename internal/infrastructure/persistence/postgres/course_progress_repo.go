package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseProgressRepository implements progress.CourseProgressRepository for
// PostgreSQL. The aggregate spans two tables: a summary row and one row per
// completed module, written together in a transaction.
type CourseProgressRepository struct {
	conn *Connection
}

// NewCourseProgressRepository creates a new CourseProgressRepository.
func NewCourseProgressRepository(conn *Connection) *CourseProgressRepository {
	return &CourseProgressRepository{conn: conn}
}

// GetByUserAndCourse returns a user's progress for one course.
func (r *CourseProgressRepository) GetByUserAndCourse(ctx context.Context, userID learning.UserID, courseID progress.CourseID) (*progress.CourseProgress, error) {
	query := `
		SELECT user_id, course_id, total_modules, percent_complete, completed_at, updated_at
		FROM course_progress
		WHERE user_id = $1 AND course_id = $2
	`

	var (
		p           progress.CourseProgress
		uid, cid    string
		completedAt sql.NullTime
	)
	err := r.conn.QueryRow(ctx, query, userID.String(), courseID.String()).Scan(
		&uid, &cid, &p.TotalModules, &p.PercentComplete, &completedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	p.UserID = learning.UserID(uid)
	p.CourseID = progress.CourseID(cid)
	if completedAt.Valid {
		p.CompletedAt = completedAt.Time.UTC()
	}

	rows, err := r.conn.Query(ctx, `
		SELECT module_id, completed_at
		FROM course_progress_modules
		WHERE user_id = $1 AND course_id = $2
	`, userID.String(), courseID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query completed modules: %w", err)
	}
	defer rows.Close()

	p.CompletedModules = make(map[progress.ModuleID]time.Time)
	for rows.Next() {
		var (
			moduleID string
			at       time.Time
		)
		if err := rows.Scan(&moduleID, &at); err != nil {
			return nil, fmt.Errorf("failed to scan completed module: %w", err)
		}
		p.CompletedModules[progress.ModuleID(moduleID)] = at.UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Save persists the aggregate: the summary row is upserted and module rows
// are inserted idempotently.
func (r *CourseProgressRepository) Save(ctx context.Context, p *progress.CourseProgress) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var completedAt *time.Time
		if !p.CompletedAt.IsZero() {
			completedAt = &p.CompletedAt
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO course_progress (
				user_id, course_id, total_modules, percent_complete, completed_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, course_id) DO UPDATE SET
				total_modules = EXCLUDED.total_modules,
				percent_complete = EXCLUDED.percent_complete,
				completed_at = EXCLUDED.completed_at,
				updated_at = EXCLUDED.updated_at
		`, p.UserID.String(), p.CourseID.String(), p.TotalModules, p.PercentComplete, completedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert course progress: %w", err)
		}

		for moduleID, at := range p.CompletedModules {
			_, err := tx.Exec(ctx, `
				INSERT INTO course_progress_modules (user_id, course_id, module_id, completed_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id, course_id, module_id) DO NOTHING
			`, p.UserID.String(), p.CourseID.String(), moduleID.String(), at)
			if err != nil {
				return fmt.Errorf("failed to insert completed module: %w", err)
			}
		}

		return nil
	})
}
