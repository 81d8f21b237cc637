package query

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVITY HEATMAP QUERY
// Календарь активности в стиле GitHub: число завершений на каждый UTC-день
// скользящего окна. Окно плотное - дни без активности присутствуют с нулём.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultHeatmapWindowDays - окно по умолчанию (год).
const DefaultHeatmapWindowDays = 365

// GetActivityHeatmapQuery содержит параметры запроса.
type GetActivityHeatmapQuery struct {
	// UserID - идентификатор учащегося (из сессии).
	UserID string

	// WindowDays - размер окна в днях (по умолчанию 365).
	WindowDays int

	// Now переопределяет "сейчас" в тестах; ноль означает time.Now().
	Now time.Time
}

// Validate проверяет корректность параметров.
func (q *GetActivityHeatmapQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrEmptyUserID
	}
	if q.WindowDays <= 0 {
		q.WindowDays = DefaultHeatmapWindowDays
	}
	if q.WindowDays > DefaultHeatmapWindowDays {
		q.WindowDays = DefaultHeatmapWindowDays
	}
	if q.Now.IsZero() {
		q.Now = time.Now().UTC()
	}
	return nil
}

// HeatmapDayDTO - один день календаря.
type HeatmapDayDTO struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// HeatmapResultDTO - результат запроса.
type HeatmapResultDTO struct {
	UserID     string          `json:"user_id"`
	WindowDays int             `json:"window_days"`
	Days       []HeatmapDayDTO `json:"days"`
}

// GetActivityHeatmapHandler обрабатывает GetActivityHeatmapQuery.
type GetActivityHeatmapHandler struct {
	eventRepo learning.EventRepository
}

// NewGetActivityHeatmapHandler создаёт обработчик.
func NewGetActivityHeatmapHandler(eventRepo learning.EventRepository) *GetActivityHeatmapHandler {
	return &GetActivityHeatmapHandler{eventRepo: eventRepo}
}

// Handle выполняет запрос.
func (h *GetActivityHeatmapHandler) Handle(ctx context.Context, q GetActivityHeatmapQuery) (*HeatmapResultDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	since := timeutil.StartOfDay(timeutil.AddDays(q.Now, -(q.WindowDays - 1)))
	events, err := h.eventRepo.GetByUserSince(ctx, learning.UserID(q.UserID), since)
	if err != nil {
		return nil, shared.WrapError("learning", "get_activity_heatmap", shared.ErrStoreUnavailable, "load event log", err)
	}

	buckets := learning.Heatmap(events, q.Now, q.WindowDays)

	result := &HeatmapResultDTO{
		UserID:     q.UserID,
		WindowDays: q.WindowDays,
		Days:       make([]HeatmapDayDTO, 0, len(buckets)),
	}
	for _, b := range buckets {
		result.Days = append(result.Days, HeatmapDayDTO{
			Day:   timeutil.DayKey(b.Day),
			Count: b.Count,
		})
	}

	return result, nil
}
