package query

import (
	"context"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COURSE PROGRESS QUERY
// Прогресс учащегося по конкретному курсу: завершённые модули и процент.
// Запрос по существующему курсу без активности возвращает нулевой
// прогресс, запрос по несуществующему курсу - ошибку.
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseProgressQuery содержит параметры запроса.
type GetCourseProgressQuery struct {
	// UserID - идентификатор учащегося (из сессии).
	UserID string

	// CourseID - идентификатор курса.
	CourseID string
}

// Validate проверяет корректность параметров.
func (q *GetCourseProgressQuery) Validate() error {
	if q.UserID == "" {
		return shared.ErrEmptyUserID
	}
	if q.CourseID == "" {
		return shared.NewDomainError("progress", "get_course_progress", shared.ErrEmptyValue, "course_id is required")
	}
	return nil
}

// CompletedModuleDTO - завершённый модуль.
type CompletedModuleDTO struct {
	ModuleID    string    `json:"module_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// CourseProgressDTO - прогресс по курсу.
type CourseProgressDTO struct {
	UserID           string               `json:"user_id"`
	CourseID         string               `json:"course_id"`
	CourseTitle      string               `json:"course_title"`
	TotalModules     int                  `json:"total_modules"`
	CompletedModules []CompletedModuleDTO `json:"completed_modules"`
	PercentComplete  int                  `json:"percent_complete"`
	Completed        bool                 `json:"completed"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
}

// GetCourseProgressHandler обрабатывает GetCourseProgressQuery.
type GetCourseProgressHandler struct {
	courseRepo progress.CourseProgressRepository
	catalog    progress.CourseCatalog
}

// NewGetCourseProgressHandler создаёт обработчик.
func NewGetCourseProgressHandler(courseRepo progress.CourseProgressRepository, catalog progress.CourseCatalog) *GetCourseProgressHandler {
	return &GetCourseProgressHandler{courseRepo: courseRepo, catalog: catalog}
}

// Handle выполняет запрос.
func (h *GetCourseProgressHandler) Handle(ctx context.Context, q GetCourseProgressQuery) (*CourseProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	courseID := progress.CourseID(q.CourseID)

	// Сначала каталог: неизвестный курс - ошибка независимо от того,
	// есть ли у пользователя прогресс.
	course, err := h.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dto := &CourseProgressDTO{
		UserID:           q.UserID,
		CourseID:         q.CourseID,
		CourseTitle:      course.Title,
		TotalModules:     course.ModuleCount(),
		CompletedModules: make([]CompletedModuleDTO, 0),
	}

	cp, err := h.courseRepo.GetByUserAndCourse(ctx, learning.UserID(q.UserID), courseID)
	if err != nil {
		if shared.IsNotFound(err) {
			// Нет активности - нулевой прогресс.
			return dto, nil
		}
		return nil, shared.WrapError("progress", "get_course_progress", shared.ErrStoreUnavailable, "load course progress", err)
	}

	for _, m := range course.Modules {
		if at, done := cp.CompletedModules[m.ID]; done {
			dto.CompletedModules = append(dto.CompletedModules, CompletedModuleDTO{
				ModuleID:    m.ID.String(),
				CompletedAt: at,
			})
		}
	}
	dto.PercentComplete = cp.PercentComplete
	dto.Completed = cp.IsComplete()
	if !cp.CompletedAt.IsZero() {
		at := cp.CompletedAt
		dto.CompletedAt = &at
	}

	return dto, nil
}
