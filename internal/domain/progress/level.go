// Package progress содержит доменную модель прогресса учащегося EduSmart:
// XP, уровни, прогресс по курсам и достижения.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package progress

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XP представляет очки опыта учащегося.
type XP int

// IsValid проверяет, что XP неотрицательный.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add складывает XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Level представляет уровень учащегося. Уровень - грубая монотонная
// классификация общего прогресса: он никогда не понижается автоматически,
// даже если прогресс пересчитан в меньшую сторону.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
	LevelExpert       Level = "Expert"
)

// levelRank задаёт порядок уровней для монотонного сравнения.
var levelRank = map[Level]int{
	LevelBeginner:     0,
	LevelIntermediate: 1,
	LevelAdvanced:     2,
	LevelExpert:       3,
}

// IsValid проверяет, что уровень известен.
func (l Level) IsValid() bool {
	_, ok := levelRank[l]
	return ok
}

// Rank возвращает порядковый номер уровня.
func (l Level) Rank() int {
	return levelRank[l]
}

// Above возвращает true, если уровень выше other.
func (l Level) Above(other Level) bool {
	return levelRank[l] > levelRank[other]
}

// String возвращает строковое представление уровня.
func (l Level) String() string {
	return string(l)
}

// LevelFromPercent вычисляет уровень по доменному проценту прогресса.
// Пороги: <30 Beginner, <60 Intermediate, <80 Advanced, иначе Expert.
func LevelFromPercent(percent int) Level {
	switch {
	case percent < 30:
		return LevelBeginner
	case percent < 60:
		return LevelIntermediate
	case percent < 80:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

// LevelBonusXP возвращает XP-бонус за достижение уровня.
func LevelBonusXP(l Level) XP {
	switch l {
	case LevelIntermediate:
		return 500
	case LevelAdvanced:
		return 750
	case LevelExpert:
		return 1000
	default:
		return 250
	}
}

// DomainProgressPercent вычисляет доменный процент прогресса:
// 5 процентных пунктов за каждый завершённый ресурс, максимум 100.
// Не путать с процентом прохождения курса (CourseProgress.PercentComplete) -
// это два разных показателя, и они намеренно не объединены.
func DomainProgressPercent(completedResources int) int {
	if completedResources < 0 {
		return 0
	}
	percent := completedResources * 5
	if percent > 100 {
		return 100
	}
	return percent
}
