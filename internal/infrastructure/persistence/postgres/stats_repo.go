package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER STATS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserStatsRepository implements progress.UserStatsRepository for PostgreSQL.
type UserStatsRepository struct {
	conn *Connection
}

// NewUserStatsRepository creates a new UserStatsRepository.
func NewUserStatsRepository(conn *Connection) *UserStatsRepository {
	return &UserStatsRepository{conn: conn}
}

// GetByUser returns the stats aggregate for a user.
func (r *UserStatsRepository) GetByUser(ctx context.Context, userID learning.UserID) (*progress.UserStats, error) {
	query := `
		SELECT user_id, total_xp, level, progress_percent, completed_resources,
			   total_study_hours, streak_days, last_activity_at, version, updated_at
		FROM user_stats
		WHERE user_id = $1
	`

	var (
		s              progress.UserStats
		id, level      string
		xp             int
		lastActivityAt sql.NullTime
	)
	err := r.conn.QueryRow(ctx, query, userID.String()).Scan(
		&id,
		&xp,
		&level,
		&s.DomainProgressPercent,
		&s.CompletedResources,
		&s.TotalStudyHours,
		&s.StreakDays,
		&lastActivityAt,
		&s.Version,
		&s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	s.UserID = learning.UserID(id)
	s.TotalXP = progress.XP(xp)
	s.Level = progress.Level(level)
	if lastActivityAt.Valid {
		s.LastActivityAt = lastActivityAt.Time.UTC()
	}

	return &s, nil
}

// Save upserts the aggregate with a version check: the write only lands when
// the stored version is exactly one behind. A lost race surfaces as
// shared.ErrOptimisticLock so the caller can reload and retry.
func (r *UserStatsRepository) Save(ctx context.Context, s *progress.UserStats) error {
	query := `
		INSERT INTO user_stats (
			user_id, total_xp, level, progress_percent, completed_resources,
			total_study_hours, streak_days, last_activity_at, version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			total_xp = EXCLUDED.total_xp,
			level = EXCLUDED.level,
			progress_percent = EXCLUDED.progress_percent,
			completed_resources = EXCLUDED.completed_resources,
			total_study_hours = EXCLUDED.total_study_hours,
			streak_days = EXCLUDED.streak_days,
			last_activity_at = EXCLUDED.last_activity_at,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE user_stats.version = EXCLUDED.version - 1
	`

	var lastActivityAt *time.Time
	if !s.LastActivityAt.IsZero() {
		lastActivityAt = &s.LastActivityAt
	}

	tag, err := r.conn.Exec(ctx, query,
		s.UserID.String(),
		int(s.TotalXP),
		s.Level.String(),
		s.DomainProgressPercent,
		s.CompletedResources,
		s.TotalStudyHours,
		s.StreakDays,
		lastActivityAt,
		s.Version,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save user stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserStatsConflict
	}

	return nil
}
