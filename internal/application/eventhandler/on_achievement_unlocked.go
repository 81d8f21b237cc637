package eventhandler

import (
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENT UNLOCKED HANDLER
// Аудит наград: каждое выданное достижение и повышение уровня попадает
// в структурированный лог. Отдельного notification-канала у движка нет -
// потребители читают события из шины.
// ═══════════════════════════════════════════════════════════════════════════

// OnAchievementUnlockedHandler логирует выдачу достижений и повышения уровня.
type OnAchievementUnlockedHandler struct {
	log *logger.Logger
}

// NewOnAchievementUnlockedHandler создаёт обработчик.
func NewOnAchievementUnlockedHandler(log *logger.Logger) *OnAchievementUnlockedHandler {
	return &OnAchievementUnlockedHandler{
		log: log.With(logger.Component("on_achievement_unlocked")),
	}
}

// Handle обрабатывает событие.
func (h *OnAchievementUnlockedHandler) Handle(event shared.Event) error {
	payload := event.Payload()

	switch event.EventType() {
	case shared.EventAchievementUnlocked:
		h.log.Info("achievement unlocked",
			logger.UserID(event.AggregateID()),
			logger.Any("achievement", payload["achievement_type"]),
			logger.Any("xp_awarded", payload["xp_awarded"]),
		)
	case shared.EventLevelUp:
		h.log.Info("level up",
			logger.UserID(event.AggregateID()),
			logger.Any("old_level", payload["old_level"]),
			logger.Any("new_level", payload["new_level"]),
		)
	}

	return nil
}
