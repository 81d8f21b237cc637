package progress

import (
	"math"

	"github.com/edusmart/progress-engine/internal/domain/learning"
)

// ══════════════════════════════════════════════════════════════════════════════
// НАЧИСЛЕНИЕ XP
// ══════════════════════════════════════════════════════════════════════════════

// BaseXP - базовое количество очков за завершение одного ресурса.
const BaseXP = 50

// durationBonusStep - шаг длительности (в секундах), за который
// начисляется 10% надбавки к базовому XP.
const durationBonusStep = 300

// typeMultipliers задаёт множитель XP для каждого типа ресурса.
// Неизвестный тип получает множитель 1.0, а не ошибку: начисление XP
// не должно отклонять событие, прошедшее валидацию.
var typeMultipliers = map[learning.ResourceType]float64{
	learning.ResourceVideo:         1.5,
	learning.ResourceArticle:       1.2,
	learning.ResourceTutorial:      2.0,
	learning.ResourceDocumentation: 1.3,
	learning.ResourceGithub:        1.8,
	learning.ResourceModule:        2.0,
}

// TypeMultiplier возвращает множитель XP для типа ресурса.
func TypeMultiplier(rt learning.ResourceType) float64 {
	if m, ok := typeMultipliers[rt]; ok {
		return m
	}
	return 1.0
}

// EventXP вычисляет XP за событие завершения:
//
//	XP = round(BaseXP * множитель * (1 + floor(длительность/300) * 0.1))
//
// Нулевая (незаявленная) длительность даёт коэффициент 1.0, то есть
// чистый базовый XP с множителем типа.
func EventXP(e learning.CompletionEvent) XP {
	mult := TypeMultiplier(e.ResourceType)
	steps := math.Floor(float64(e.DurationSeconds) / durationBonusStep)
	raw := BaseXP * mult * (1 + steps*0.1)
	return XP(math.Round(raw))
}
