// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они связывают запись событий
// с побочными эффектами вроде сброса кешей и аудита наград.
package eventhandler

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/application/query"
	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COMPLETION RECORDED HANDLER
// Новое событие меняет доменную разбивку пользователя, поэтому её
// кэшированная проекция сбрасывается. Следующее чтение пересчитает её
// из журнала.
// ═══════════════════════════════════════════════════════════════════════════

// OnCompletionRecordedHandler сбрасывает кэш статистики после записи
// нового события завершения.
type OnCompletionRecordedHandler struct {
	cache query.DomainStatsCache
	log   *logger.Logger
}

// NewOnCompletionRecordedHandler создаёт обработчик.
func NewOnCompletionRecordedHandler(cache query.DomainStatsCache, log *logger.Logger) *OnCompletionRecordedHandler {
	return &OnCompletionRecordedHandler{
		cache: cache,
		log:   log.With(logger.Component("on_completion_recorded")),
	}
}

// Handle обрабатывает событие.
func (h *OnCompletionRecordedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventCompletionRecorded {
		return nil
	}

	userID := learning.UserID(event.AggregateID())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.cache.Invalidate(ctx, userID); err != nil {
		// Кэш со своим TTL догонит сам; чтения и так пересчитывают из журнала.
		h.log.Debug("stats cache invalidation failed",
			logger.UserID(userID.String()),
			logger.Err(err),
		)
	}

	return nil
}
