package query

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATS QUERY
// Сводная статистика учащегося: XP, уровень, серия, часы, прогресс.
// Пользователь без единого события получает нулевую статистику уровня
// Beginner, а не ошибку.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserStatsQuery содержит параметры запроса.
type GetUserStatsQuery struct {
	// UserID - идентификатор учащегося (из сессии).
	UserID string
}

// Validate проверяет корректность параметров.
func (q *GetUserStatsQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrEmptyUserID
	}
	return nil
}

// UserStatsDTO - сводная статистика.
type UserStatsDTO struct {
	UserID             string     `json:"user_id"`
	TotalXP            int        `json:"total_xp"`
	Level              string     `json:"level"`
	ProgressPercent    int        `json:"progress_percent"`
	CompletedResources int        `json:"completed_resources"`
	TotalStudyHours    float64    `json:"total_study_hours"`
	StreakDays         int        `json:"streak_days"`
	LastActivityAt     *time.Time `json:"last_activity_at,omitempty"`
}

// GetUserStatsHandler обрабатывает GetUserStatsQuery.
type GetUserStatsHandler struct {
	statsRepo progress.UserStatsRepository
}

// NewGetUserStatsHandler создаёт обработчик.
func NewGetUserStatsHandler(statsRepo progress.UserStatsRepository) *GetUserStatsHandler {
	return &GetUserStatsHandler{statsRepo: statsRepo}
}

// Handle выполняет запрос.
func (h *GetUserStatsHandler) Handle(ctx context.Context, q GetUserStatsQuery) (*UserStatsDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	stats, err := h.statsRepo.GetByUser(ctx, learning.UserID(q.UserID))
	if err != nil {
		if shared.IsNotFound(err) {
			stats = progress.NewUserStats(learning.UserID(q.UserID))
		} else {
			return nil, shared.WrapError("progress", "get_user_stats", shared.ErrStoreUnavailable, "load user stats", err)
		}
	}

	dto := &UserStatsDTO{
		UserID:             q.UserID,
		TotalXP:            int(stats.TotalXP),
		Level:              stats.Level.String(),
		ProgressPercent:    stats.DomainProgressPercent,
		CompletedResources: stats.CompletedResources,
		TotalStudyHours:    stats.TotalStudyHours,
		StreakDays:         stats.StreakDays,
	}
	if !stats.LastActivityAt.IsZero() {
		at := stats.LastActivityAt
		dto.LastActivityAt = &at
	}

	return dto, nil
}
