// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DOMAIN STATS QUERY
// Разбивка активности учащегося по доменам (трекам): сколько ресурсов
// завершено, какие типы, сколько часов, какая серия. Всё выводится из
// журнала событий - это проекция, а не источник истины.
// ══════════════════════════════════════════════════════════════════════════════

// DomainStatsCache - кэш вычисленных доменных разбивок. Промах или отказ
// кэша никогда не является ошибкой запроса: ответ пересчитывается из
// журнала событий.
type DomainStatsCache interface {
	// Get возвращает кэшированную разбивку или shared.ErrNotFound.
	Get(ctx context.Context, userID learning.UserID) ([]learning.DomainStatistics, error)

	// Set сохраняет разбивку с TTL реализации.
	Set(ctx context.Context, userID learning.UserID, stats []learning.DomainStatistics) error

	// Invalidate сбрасывает кэш пользователя (после новых событий).
	Invalidate(ctx context.Context, userID learning.UserID) error
}

// GetDomainStatsQuery содержит параметры запроса доменной разбивки.
type GetDomainStatsQuery struct {
	// UserID - идентификатор учащегося (из сессии).
	UserID string

	// Domain - необязательный фильтр по одному домену.
	// Пустое значение означает все домены пользователя.
	Domain string
}

// Validate проверяет корректность параметров.
func (q *GetDomainStatsQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrEmptyUserID
	}
	return nil
}

// ResourceTypeCountDTO - счётчик по одному типу ресурса.
type ResourceTypeCountDTO struct {
	ResourceType string `json:"resource_type"`
	Count        int    `json:"count"`
}

// DomainStatsDTO - статистика одного домена.
type DomainStatsDTO struct {
	Domain         string                 `json:"domain"`
	TotalCompleted int                    `json:"total_completed"`
	CountsByType   []ResourceTypeCountDTO `json:"counts_by_type"`
	TotalHours     float64                `json:"total_hours"`
	StreakDays     int                    `json:"streak_days"`
	BestDayCount   int                    `json:"best_day_count"`
	LastActivityAt *time.Time             `json:"last_activity_at,omitempty"`
}

// DomainStatsResultDTO - результат запроса.
type DomainStatsResultDTO struct {
	UserID  string           `json:"user_id"`
	Domains []DomainStatsDTO `json:"domains"`
}

// GetDomainStatsHandler обрабатывает GetDomainStatsQuery.
type GetDomainStatsHandler struct {
	eventRepo learning.EventRepository
	cache     DomainStatsCache
	log       *logger.Logger
}

// NewGetDomainStatsHandler создаёт обработчик.
func NewGetDomainStatsHandler(eventRepo learning.EventRepository, cache DomainStatsCache, log *logger.Logger) *GetDomainStatsHandler {
	return &GetDomainStatsHandler{
		eventRepo: eventRepo,
		cache:     cache,
		log:       log.With(logger.Component("get_domain_stats")),
	}
}

// Handle выполняет запрос.
func (h *GetDomainStatsHandler) Handle(ctx context.Context, q GetDomainStatsQuery) (*DomainStatsResultDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	userID := learning.UserID(q.UserID)

	stats, err := h.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &DomainStatsResultDTO{
		UserID:  q.UserID,
		Domains: make([]DomainStatsDTO, 0, len(stats)),
	}

	for _, s := range stats {
		if q.Domain != "" && s.Domain.String() != q.Domain {
			continue
		}
		result.Domains = append(result.Domains, toDomainStatsDTO(s))
	}

	// Явный фильтр по домену без единого события - это нулевая
	// статистика, а не ошибка.
	if q.Domain != "" && len(result.Domains) == 0 {
		result.Domains = append(result.Domains, toDomainStatsDTO(
			learning.EmptyDomainStatistics(learning.Domain(q.Domain))))
	}

	return result, nil
}

// load возвращает разбивку из кэша либо пересчитывает из журнала.
func (h *GetDomainStatsHandler) load(ctx context.Context, userID learning.UserID) ([]learning.DomainStatistics, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, userID); err == nil {
			return cached, nil
		} else if !shared.IsNotFound(err) {
			h.log.Debug("stats cache unavailable, recomputing", logger.Err(err))
		}
	}

	events, err := h.eventRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("learning", "get_domain_stats", shared.ErrStoreUnavailable, "load event log", err)
	}

	deduped := learning.Deduplicate(events)
	domains := learning.Domains(deduped)
	stats := make([]learning.DomainStatistics, 0, len(domains))
	for _, d := range domains {
		stats = append(stats, learning.Aggregate(deduped, d))
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, userID, stats); err != nil {
			h.log.Debug("stats cache set failed", logger.Err(err))
		}
	}

	return stats, nil
}

func toDomainStatsDTO(s learning.DomainStatistics) DomainStatsDTO {
	dto := DomainStatsDTO{
		Domain:         s.Domain.String(),
		TotalCompleted: s.TotalCompleted,
		CountsByType:   make([]ResourceTypeCountDTO, 0, len(s.CountsByType)),
		TotalHours:     s.TotalHours,
		StreakDays:     s.StreakDays,
		BestDayCount:   s.BestDayCount,
	}
	if !s.LastActivityAt.IsZero() {
		at := s.LastActivityAt
		dto.LastActivityAt = &at
	}
	for _, rt := range learning.AllResourceTypes() {
		if n := s.CountsByType[rt]; n > 0 {
			dto.CountsByType = append(dto.CountsByType, ResourceTypeCountDTO{
				ResourceType: rt.String(),
				Count:        n,
			})
		}
	}
	return dto
}
