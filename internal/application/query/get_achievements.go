package query

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Список выданных достижений учащегося, новые первыми.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery содержит параметры запроса.
type GetAchievementsQuery struct {
	// UserID - идентификатор учащегося (из сессии).
	UserID string
}

// Validate проверяет корректность параметров.
func (q *GetAchievementsQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrEmptyUserID
	}
	return nil
}

// AchievementDTO - одно достижение.
type AchievementDTO struct {
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	XPAwarded  int       `json:"xp_awarded"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AchievementsResultDTO - результат запроса.
type AchievementsResultDTO struct {
	UserID       string           `json:"user_id"`
	Achievements []AchievementDTO `json:"achievements"`
}

// GetAchievementsHandler обрабатывает GetAchievementsQuery.
type GetAchievementsHandler struct {
	achievementRepo progress.AchievementRepository
}

// NewGetAchievementsHandler создаёт обработчик.
func NewGetAchievementsHandler(achievementRepo progress.AchievementRepository) *GetAchievementsHandler {
	return &GetAchievementsHandler{achievementRepo: achievementRepo}
}

// Handle выполняет запрос.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) (*AchievementsResultDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	achievements, err := h.achievementRepo.GetByUser(ctx, learning.UserID(q.UserID))
	if err != nil {
		return nil, shared.WrapError("progress", "get_achievements", shared.ErrStoreUnavailable, "load achievements", err)
	}

	result := &AchievementsResultDTO{
		UserID:       q.UserID,
		Achievements: make([]AchievementDTO, 0, len(achievements)),
	}
	for _, a := range achievements {
		result.Achievements = append(result.Achievements, AchievementDTO{
			Type:       string(a.Type),
			Title:      a.Title,
			XPAwarded:  int(a.XPAwarded),
			UnlockedAt: a.UnlockedAt,
		})
	}

	return result, nil
}
