package postgres

import (
	"context"
	"fmt"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements progress.AchievementRepository for
// PostgreSQL. The UNIQUE(user_id, achievement_type) index is the arbiter when
// two instances try to award the same achievement.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// Award inserts the achievement; returns false when it was already awarded.
func (r *AchievementRepository) Award(ctx context.Context, a progress.Achievement) (bool, error) {
	tag, err := r.conn.Exec(ctx, `
		INSERT INTO achievements (user_id, achievement_type, title, xp_awarded, unlocked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, achievement_type) DO NOTHING
	`, a.UserID.String(), string(a.Type), a.Title, int(a.XPAwarded), a.UnlockedAt)
	if err != nil {
		return false, fmt.Errorf("failed to award achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByUser returns a user's achievements, newest first.
func (r *AchievementRepository) GetByUser(ctx context.Context, userID learning.UserID) ([]progress.Achievement, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, achievement_type, title, xp_awarded, unlocked_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY unlocked_at DESC, id DESC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var out []progress.Achievement
	for rows.Next() {
		var (
			a        progress.Achievement
			uid, typ string
			xp       int
		)
		if err := rows.Scan(&uid, &typ, &a.Title, &xp, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		a.UserID = learning.UserID(uid)
		a.Type = progress.AchievementType(typ)
		a.XPAwarded = progress.XP(xp)
		a.UnlockedAt = a.UnlockedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// TypesByUser returns the set of already-awarded achievement types.
func (r *AchievementRepository) TypesByUser(ctx context.Context, userID learning.UserID) (map[progress.AchievementType]bool, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT achievement_type FROM achievements WHERE user_id = $1`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievement types: %w", err)
	}
	defer rows.Close()

	out := make(map[progress.AchievementType]bool)
	for rows.Next() {
		var typ string
		if err := rows.Scan(&typ); err != nil {
			return nil, fmt.Errorf("failed to scan achievement type: %w", err)
		}
		out[progress.AchievementType(typ)] = true
	}
	return out, rows.Err()
}
