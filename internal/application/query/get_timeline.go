package query

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TIMELINE QUERY
// Лента последних завершений, новые первыми. Порядок стабилен: события
// с одинаковым временем сохраняют порядок записи.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultTimelineLimit - размер ленты по умолчанию.
	DefaultTimelineLimit = 50

	// MaxTimelineLimit - верхняя граница размера ленты.
	MaxTimelineLimit = 200
)

// GetTimelineQuery содержит параметры запроса.
type GetTimelineQuery struct {
	// UserID - идентификатор учащегося (из сессии).
	UserID string

	// Limit - максимум событий в ответе.
	Limit int
}

// Validate проверяет корректность параметров.
func (q *GetTimelineQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrEmptyUserID
	}
	if q.Limit <= 0 {
		q.Limit = DefaultTimelineLimit
	}
	if q.Limit > MaxTimelineLimit {
		q.Limit = MaxTimelineLimit
	}
	return nil
}

// TimelineEntryDTO - одно событие ленты.
type TimelineEntryDTO struct {
	ResourceID      string    `json:"resource_id"`
	ResourceType    string    `json:"resource_type"`
	Domain          string    `json:"domain"`
	Platform        string    `json:"platform,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
}

// TimelineResultDTO - результат запроса.
type TimelineResultDTO struct {
	UserID  string             `json:"user_id"`
	Entries []TimelineEntryDTO `json:"entries"`
}

// GetTimelineHandler обрабатывает GetTimelineQuery.
type GetTimelineHandler struct {
	eventRepo learning.EventRepository
}

// NewGetTimelineHandler создаёт обработчик.
func NewGetTimelineHandler(eventRepo learning.EventRepository) *GetTimelineHandler {
	return &GetTimelineHandler{eventRepo: eventRepo}
}

// Handle выполняет запрос.
func (h *GetTimelineHandler) Handle(ctx context.Context, q GetTimelineQuery) (*TimelineResultDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	events, err := h.eventRepo.GetByUser(ctx, learning.UserID(q.UserID))
	if err != nil {
		return nil, shared.WrapError("learning", "get_timeline", shared.ErrStoreUnavailable, "load event log", err)
	}

	timeline := learning.Timeline(events, q.Limit)

	result := &TimelineResultDTO{
		UserID:  q.UserID,
		Entries: make([]TimelineEntryDTO, 0, len(timeline)),
	}
	for _, e := range timeline {
		result.Entries = append(result.Entries, TimelineEntryDTO{
			ResourceID:      e.ResourceID.String(),
			ResourceType:    e.ResourceType.String(),
			Domain:          e.Domain.String(),
			Platform:        e.Platform,
			CompletedAt:     e.CompletedAt,
			DurationSeconds: e.DurationSeconds,
		})
	}

	return result, nil
}
