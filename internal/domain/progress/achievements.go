package progress

import (
	"fmt"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/learning"
)

// ══════════════════════════════════════════════════════════════════════════════
// ДОСТИЖЕНИЯ
// ══════════════════════════════════════════════════════════════════════════════

// AchievementType - устойчивый ключ достижения. Ключ уникален на
// пользователя: одно и то же достижение никогда не выдаётся дважды.
type AchievementType string

const (
	AchievementFirstResource    AchievementType = "first-resource"
	AchievementResourceExplorer AchievementType = "resource-explorer"
	AchievementDedicatedLearner AchievementType = "dedicated-learner"
	AchievementStudyEnthusiast  AchievementType = "study-enthusiast"
)

// ReachedLevelAchievement строит ключ достижения за уровень,
// например "reached-intermediate".
func ReachedLevelAchievement(l Level) AchievementType {
	switch l {
	case LevelIntermediate:
		return "reached-intermediate"
	case LevelAdvanced:
		return "reached-advanced"
	case LevelExpert:
		return "reached-expert"
	default:
		return AchievementType(fmt.Sprintf("reached-%s", l))
	}
}

// Achievement - выданное учащемуся достижение.
type Achievement struct {
	UserID     learning.UserID
	Type       AchievementType
	Title      string
	XPAwarded  XP
	UnlockedAt time.Time
}

// milestoneDef описывает пороговое достижение.
type milestoneDef struct {
	typ       AchievementType
	title     string
	bonus     XP
	satisfied func(EvaluationInput) bool
}

// EvaluationInput - снимок состояния учащегося после применения события,
// по которому проверяются условия достижений.
type EvaluationInput struct {
	Event              learning.CompletionEvent
	CompletedResources int
	TotalStudyHours    float64
	ReachedLevel       Level
	LeveledUp          bool
}

// milestones - пороговые достижения за объём активности.
var milestones = []milestoneDef{
	{
		typ:   AchievementFirstResource,
		title: "First Resource",
		bonus: 100,
		satisfied: func(in EvaluationInput) bool {
			return in.CompletedResources >= 1
		},
	},
	{
		typ:   AchievementResourceExplorer,
		title: "Resource Explorer",
		bonus: 250,
		satisfied: func(in EvaluationInput) bool {
			return in.CompletedResources >= 5
		},
	},
	{
		typ:   AchievementDedicatedLearner,
		title: "Dedicated Learner",
		bonus: 500,
		satisfied: func(in EvaluationInput) bool {
			return in.CompletedResources >= 10
		},
	},
	{
		typ:   AchievementStudyEnthusiast,
		title: "Study Enthusiast",
		bonus: 300,
		satisfied: func(in EvaluationInput) bool {
			return in.TotalStudyHours >= 10
		},
	},
}

// levelTitles - человекочитаемые названия достижений за уровни.
var levelTitles = map[Level]string{
	LevelIntermediate: "Reached Intermediate",
	LevelAdvanced:     "Reached Advanced",
	LevelExpert:       "Reached Expert",
}

// Evaluator проверяет условия достижений относительно уже выданных.
// Проверка чистая: она не ходит в хранилище, множество выданных
// достижений передаётся снаружи.
type Evaluator struct{}

// NewEvaluator создаёт проверяющий достижений.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate возвращает достижения, которые должны быть выданы по данному
// снимку состояния и ещё не присутствуют в existing. Порядок
// детерминированный: сначала пороговые, затем уровневые.
func (e *Evaluator) Evaluate(in EvaluationInput, existing map[AchievementType]bool) []Achievement {
	var unlocked []Achievement
	now := time.Now().UTC()

	for _, def := range milestones {
		if existing[def.typ] {
			continue
		}
		if !def.satisfied(in) {
			continue
		}
		unlocked = append(unlocked, Achievement{
			UserID:     in.Event.UserID,
			Type:       def.typ,
			Title:      def.title,
			XPAwarded:  def.bonus,
			UnlockedAt: now,
		})
	}

	if in.LeveledUp && in.ReachedLevel != LevelBeginner {
		typ := ReachedLevelAchievement(in.ReachedLevel)
		if !existing[typ] {
			title, ok := levelTitles[in.ReachedLevel]
			if !ok {
				title = fmt.Sprintf("Reached %s", in.ReachedLevel)
			}
			unlocked = append(unlocked, Achievement{
				UserID:     in.Event.UserID,
				Type:       typ,
				Title:      title,
				XPAwarded:  LevelBonusXP(in.ReachedLevel),
				UnlockedAt: now,
			})
		}
	}

	return unlocked
}

// TotalBonusXP суммирует XP-бонусы пачки достижений.
func TotalBonusXP(achievements []Achievement) XP {
	var total XP
	for _, a := range achievements {
		total += a.XPAwarded
	}
	return total
}
