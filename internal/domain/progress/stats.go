package progress

import (
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// АГРЕГАТ: СТАТИСТИКА УЧАЩЕГОСЯ
// ══════════════════════════════════════════════════════════════════════════════

// UserStats - агрегат совокупной статистики учащегося: XP, уровень,
// доменный процент прогресса и серия активности. Version используется
// для оптимистичной блокировки при конкурентных обновлениях.
type UserStats struct {
	UserID                learning.UserID
	TotalXP               XP
	Level                 Level
	DomainProgressPercent int
	CompletedResources    int
	TotalStudyHours       float64
	StreakDays            int
	LastActivityAt        time.Time
	Version               int64
	UpdatedAt             time.Time
}

// NewUserStats создаёт статистику с начальными значениями.
// Учащийся без единого события - это Beginner с нулями, а не ошибка.
func NewUserStats(userID learning.UserID) *UserStats {
	now := time.Now().UTC()
	return &UserStats{
		UserID:    userID,
		TotalXP:   0,
		Level:     LevelBeginner,
		Version:   0,
		UpdatedAt: now,
	}
}

// Validate проверяет инварианты агрегата.
func (s *UserStats) Validate() error {
	if !s.UserID.IsValid() {
		return shared.ErrEmptyUserID
	}
	if !s.TotalXP.IsValid() {
		return shared.NewDomainError("progress", "validate", shared.ErrNegativeValue, "total XP cannot be negative")
	}
	if !s.Level.IsValid() {
		return shared.NewDomainError("progress", "validate", shared.ErrValidation, "unknown level")
	}
	if s.DomainProgressPercent < 0 || s.DomainProgressPercent > 100 {
		return shared.NewDomainError("progress", "validate", shared.ErrValueOutOfRange, "progress percent must be within [0, 100]")
	}
	return nil
}

// AddXP начисляет XP. Отрицательная дельта игнорируется:
// XP в этой системе никогда не отнимается.
func (s *UserStats) AddXP(delta XP) {
	if delta <= 0 {
		return
	}
	s.TotalXP = s.TotalXP.Add(delta)
	s.UpdatedAt = time.Now().UTC()
}

// Recalculate пересчитывает производные поля по новому состоянию журнала
// событий. Возвращает уровень, достигнутый этим пересчётом, и признак
// повышения. Уровень монотонен: если пересчитанный уровень ниже текущего,
// текущий сохраняется.
func (s *UserStats) Recalculate(completedResources int, studyHours float64, streakDays int, lastActivity time.Time) (newLevel Level, leveledUp bool) {
	s.CompletedResources = completedResources
	s.TotalStudyHours = studyHours
	s.StreakDays = streakDays
	if lastActivity.After(s.LastActivityAt) {
		s.LastActivityAt = lastActivity
	}
	s.DomainProgressPercent = DomainProgressPercent(completedResources)

	computed := LevelFromPercent(s.DomainProgressPercent)
	if computed.Above(s.Level) {
		s.Level = computed
		s.UpdatedAt = time.Now().UTC()
		return computed, true
	}
	return s.Level, false
}

// Touch увеличивает версию перед сохранением.
func (s *UserStats) Touch() {
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}
