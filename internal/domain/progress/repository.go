package progress

import (
	"context"

	"github.com/edusmart/progress-engine/internal/domain/learning"
)

// ══════════════════════════════════════════════════════════════════════════════
// ИНТЕРФЕЙСЫ РЕПОЗИТОРИЕВ
// Реализации живут в слое infrastructure.
// ══════════════════════════════════════════════════════════════════════════════

// UserStatsRepository - хранилище агрегата статистики учащегося.
type UserStatsRepository interface {
	// GetByUser возвращает статистику учащегося.
	// Возвращает shared.ErrNotFound, если записи ещё нет.
	GetByUser(ctx context.Context, userID learning.UserID) (*UserStats, error)

	// Save сохраняет статистику с проверкой версии: запись обновляется,
	// только если версия в хранилище равна stats.Version-1.
	// При конфликте возвращает shared.ErrOptimisticLock.
	Save(ctx context.Context, stats *UserStats) error
}

// CourseProgressRepository - хранилище прогресса по курсам.
type CourseProgressRepository interface {
	// GetByUserAndCourse возвращает прогресс учащегося по курсу.
	// Возвращает shared.ErrNotFound, если прогресса ещё нет.
	GetByUserAndCourse(ctx context.Context, userID learning.UserID, courseID CourseID) (*CourseProgress, error)

	// Save сохраняет прогресс по курсу целиком.
	Save(ctx context.Context, p *CourseProgress) error
}

// AchievementRepository - хранилище выданных достижений.
type AchievementRepository interface {
	// Award записывает достижение. Возвращает false, если достижение
	// этого типа у пользователя уже есть (гонка между инстансами).
	Award(ctx context.Context, a Achievement) (bool, error)

	// GetByUser возвращает достижения учащегося, новые первыми.
	GetByUser(ctx context.Context, userID learning.UserID) ([]Achievement, error)

	// TypesByUser возвращает множество уже выданных типов достижений.
	TypesByUser(ctx context.Context, userID learning.UserID) (map[AchievementType]bool, error)
}

// CourseCatalog - каталог курсов и их модулей.
type CourseCatalog interface {
	// GetCourse возвращает курс с модулями.
	// Возвращает shared.ErrCourseNotFound, если курса нет.
	GetCourse(ctx context.Context, courseID CourseID) (*Course, error)
}
