package progress

import (
	"math"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ПРОГРЕСС ПО КУРСУ
// ══════════════════════════════════════════════════════════════════════════════

// CourseID идентифицирует курс в каталоге.
type CourseID string

// IsValid проверяет валидность идентификатора курса.
func (c CourseID) IsValid() bool {
	return len(c) > 0
}

// String возвращает строковое представление.
func (c CourseID) String() string {
	return string(c)
}

// ModuleID идентифицирует модуль внутри курса.
type ModuleID string

// IsValid проверяет валидность идентификатора модуля.
func (m ModuleID) IsValid() bool {
	return len(m) > 0
}

// String возвращает строковое представление.
func (m ModuleID) String() string {
	return string(m)
}

// CourseProgress - прогресс учащегося по конкретному курсу.
// Процент выводится из числа завершённых модулей и общего числа модулей
// курса; он монотонен - повторное событие по уже завершённому модулю
// ничего не меняет.
type CourseProgress struct {
	UserID           learning.UserID
	CourseID         CourseID
	CompletedModules map[ModuleID]time.Time
	TotalModules     int
	PercentComplete  int
	CompletedAt      time.Time
	UpdatedAt        time.Time
}

// NewCourseProgress создаёт пустой прогресс по курсу.
func NewCourseProgress(userID learning.UserID, courseID CourseID, totalModules int) (*CourseProgress, error) {
	if !userID.IsValid() {
		return nil, shared.ErrEmptyUserID
	}
	if !courseID.IsValid() {
		return nil, shared.NewDomainError("progress", "new_course_progress", shared.ErrEmptyValue, "course ID cannot be empty")
	}
	if totalModules <= 0 {
		return nil, shared.NewDomainError("progress", "new_course_progress", shared.ErrEmptyCourse, "course has no modules")
	}
	return &CourseProgress{
		UserID:           userID,
		CourseID:         courseID,
		CompletedModules: make(map[ModuleID]time.Time),
		TotalModules:     totalModules,
		UpdatedAt:        time.Now().UTC(),
	}, nil
}

// ApplyModuleCompletion отмечает модуль завершённым. Возвращает true,
// если модуль был завершён впервые, и признак завершения всего курса
// именно этим событием.
func (p *CourseProgress) ApplyModuleCompletion(moduleID ModuleID, completedAt time.Time) (applied bool, courseCompleted bool) {
	if _, done := p.CompletedModules[moduleID]; done {
		return false, false
	}
	p.CompletedModules[moduleID] = completedAt
	p.recalcPercent()
	p.UpdatedAt = time.Now().UTC()

	if p.IsComplete() && p.CompletedAt.IsZero() {
		p.CompletedAt = completedAt
		return true, true
	}
	return true, false
}

// IsComplete возвращает true, когда все модули курса завершены.
func (p *CourseProgress) IsComplete() bool {
	return len(p.CompletedModules) >= p.TotalModules
}

// recalcPercent пересчитывает процент: round(done/total*100), в [0, 100].
func (p *CourseProgress) recalcPercent() {
	if p.TotalModules <= 0 {
		p.PercentComplete = 0
		return
	}
	percent := int(math.Round(float64(len(p.CompletedModules)) / float64(p.TotalModules) * 100))
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	p.PercentComplete = percent
}

// ══════════════════════════════════════════════════════════════════════════════
// КАТАЛОГ КУРСОВ
// ══════════════════════════════════════════════════════════════════════════════

// Course - запись каталога: курс и его модули.
type Course struct {
	ID      CourseID
	Title   string
	Modules []CourseModule
}

// CourseModule - модуль курса.
type CourseModule struct {
	ID       ModuleID
	CourseID CourseID
	Title    string
	Position int
}

// ModuleCount возвращает число модулей курса.
func (c *Course) ModuleCount() int {
	return len(c.Modules)
}

// HasModule проверяет принадлежность модуля курсу.
func (c *Course) HasModule(moduleID ModuleID) bool {
	for _, m := range c.Modules {
		if m.ID == moduleID {
			return true
		}
	}
	return false
}
