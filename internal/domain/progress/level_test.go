package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromPercent(t *testing.T) {
	tests := []struct {
		percent int
		want    Level
	}{
		{0, LevelBeginner},
		{29, LevelBeginner},
		{30, LevelIntermediate},
		{59, LevelIntermediate},
		{60, LevelAdvanced},
		{79, LevelAdvanced},
		{80, LevelExpert},
		{100, LevelExpert},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromPercent(tt.percent), "percent=%d", tt.percent)
	}
}

func TestDomainProgressPercent_CapsAt100(t *testing.T) {
	assert.Equal(t, 0, DomainProgressPercent(0))
	assert.Equal(t, 25, DomainProgressPercent(5))
	assert.Equal(t, 100, DomainProgressPercent(20))
	assert.Equal(t, 100, DomainProgressPercent(50))
	assert.Equal(t, 0, DomainProgressPercent(-1))
}

func TestLevelBonusXP(t *testing.T) {
	assert.Equal(t, XP(500), LevelBonusXP(LevelIntermediate))
	assert.Equal(t, XP(750), LevelBonusXP(LevelAdvanced))
	assert.Equal(t, XP(1000), LevelBonusXP(LevelExpert))
	assert.Equal(t, XP(250), LevelBonusXP(LevelBeginner))
}

func TestUserStats_RecalculateLevelsUp(t *testing.T) {
	stats := NewUserStats("user-1")

	level, leveledUp := stats.Recalculate(6, 2.5, 3, time.Now().UTC())

	assert.Equal(t, LevelIntermediate, level)
	assert.True(t, leveledUp)
	assert.Equal(t, 30, stats.DomainProgressPercent)
	assert.Equal(t, 6, stats.CompletedResources)
	assert.Equal(t, 3, stats.StreakDays)
}

func TestUserStats_LevelNeverDrops(t *testing.T) {
	stats := NewUserStats("user-1")
	stats.Recalculate(16, 0, 0, time.Now().UTC()) // 80% -> Expert

	level, leveledUp := stats.Recalculate(2, 0, 0, time.Now().UTC())

	assert.Equal(t, LevelExpert, level)
	assert.False(t, leveledUp)
	assert.Equal(t, LevelExpert, stats.Level)
	// Derived fields still reflect the recomputed state.
	assert.Equal(t, 10, stats.DomainProgressPercent)
}

func TestUserStats_AddXPIgnoresNonPositive(t *testing.T) {
	stats := NewUserStats("user-1")

	stats.AddXP(120)
	stats.AddXP(0)
	stats.AddXP(-50)

	assert.Equal(t, XP(120), stats.TotalXP)
}

func TestUserStats_NewDefaults(t *testing.T) {
	stats := NewUserStats("user-1")

	assert.Equal(t, XP(0), stats.TotalXP)
	assert.Equal(t, LevelBeginner, stats.Level)
	assert.Equal(t, int64(0), stats.Version)
	assert.NoError(t, stats.Validate())
}
