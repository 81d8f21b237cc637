package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusmart/progress-engine/internal/domain/learning"
)

func evalInput(completed int, hours float64) EvaluationInput {
	return EvaluationInput{
		Event:              eventOf(learning.ResourceVideo, 0),
		CompletedResources: completed,
		TotalStudyHours:    hours,
		ReachedLevel:       LevelBeginner,
	}
}

func typesOf(achievements []Achievement) []AchievementType {
	out := make([]AchievementType, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, a.Type)
	}
	return out
}

func TestEvaluate_FirstResource(t *testing.T) {
	evaluator := NewEvaluator()

	unlocked := evaluator.Evaluate(evalInput(1, 0), map[AchievementType]bool{})

	require.Len(t, unlocked, 1)
	assert.Equal(t, AchievementFirstResource, unlocked[0].Type)
	assert.Equal(t, XP(100), unlocked[0].XPAwarded)
}

func TestEvaluate_FifthResourceUnlocksExplorerOnce(t *testing.T) {
	evaluator := NewEvaluator()
	existing := map[AchievementType]bool{AchievementFirstResource: true}

	unlocked := evaluator.Evaluate(evalInput(5, 0), existing)

	require.Len(t, unlocked, 1)
	assert.Equal(t, AchievementResourceExplorer, unlocked[0].Type)
	assert.Equal(t, XP(250), unlocked[0].XPAwarded)

	// Once awarded, the sixth resource unlocks nothing.
	existing[AchievementResourceExplorer] = true
	assert.Empty(t, evaluator.Evaluate(evalInput(6, 0), existing))
}

func TestEvaluate_CatchesUpSkippedThresholds(t *testing.T) {
	// A bulk import can jump from 0 straight past several thresholds;
	// every satisfied milestone is granted in one pass.
	evaluator := NewEvaluator()

	unlocked := evaluator.Evaluate(evalInput(12, 0), map[AchievementType]bool{})

	assert.ElementsMatch(t, []AchievementType{
		AchievementFirstResource,
		AchievementResourceExplorer,
		AchievementDedicatedLearner,
	}, typesOf(unlocked))
}

func TestEvaluate_StudyEnthusiast(t *testing.T) {
	evaluator := NewEvaluator()

	unlocked := evaluator.Evaluate(evalInput(3, 10.5), map[AchievementType]bool{
		AchievementFirstResource: true,
	})

	assert.ElementsMatch(t, []AchievementType{AchievementStudyEnthusiast}, typesOf(unlocked))
	assert.Equal(t, XP(300), unlocked[0].XPAwarded)
}

func TestEvaluate_LevelUpBonusDedupedByType(t *testing.T) {
	evaluator := NewEvaluator()
	in := evalInput(6, 0)
	in.ReachedLevel = LevelIntermediate
	in.LeveledUp = true

	unlocked := evaluator.Evaluate(in, map[AchievementType]bool{
		AchievementFirstResource:    true,
		AchievementResourceExplorer: true,
	})

	require.Len(t, unlocked, 1)
	assert.Equal(t, AchievementType("reached-intermediate"), unlocked[0].Type)
	assert.Equal(t, XP(500), unlocked[0].XPAwarded)

	// The same level reached again (after a recompute) awards nothing.
	unlocked = evaluator.Evaluate(in, map[AchievementType]bool{
		AchievementFirstResource:    true,
		AchievementResourceExplorer: true,
		"reached-intermediate":      true,
	})
	assert.Empty(t, unlocked)
}

func TestEvaluate_NoLevelAchievementWithoutLevelUp(t *testing.T) {
	evaluator := NewEvaluator()
	in := evalInput(6, 0)
	in.ReachedLevel = LevelIntermediate
	in.LeveledUp = false

	unlocked := evaluator.Evaluate(in, map[AchievementType]bool{
		AchievementFirstResource:    true,
		AchievementResourceExplorer: true,
	})

	assert.Empty(t, unlocked)
}

func TestTotalBonusXP(t *testing.T) {
	achievements := []Achievement{
		{Type: AchievementFirstResource, XPAwarded: 100},
		{Type: AchievementResourceExplorer, XPAwarded: 250},
	}

	assert.Equal(t, XP(350), TotalBonusXP(achievements))
}
