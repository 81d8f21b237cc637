package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edusmart/progress-engine/internal/domain/learning"
)

func eventOf(rt learning.ResourceType, durationSeconds int) learning.CompletionEvent {
	return learning.CompletionEvent{
		ID:              "evt-1",
		UserID:          "user-1",
		ResourceID:      "res-1",
		ResourceType:    rt,
		Domain:          "Go",
		DurationSeconds: durationSeconds,
	}
}

func TestEventXP(t *testing.T) {
	tests := []struct {
		name     string
		rt       learning.ResourceType
		duration int
		want     XP
	}{
		// 50 * 2.0 * (1 + 2*0.1) = 120
		{"tutorial 10 minutes", learning.ResourceTutorial, 600, 120},
		// 50 * 1.5 * 1.0 = 75
		{"video no duration", learning.ResourceVideo, 0, 75},
		// 50 * 1.2 * (1 + 1*0.1) = 66
		{"article 5 minutes", learning.ResourceArticle, 300, 66},
		// floor(299/300) = 0, no bonus
		{"just under bonus step", learning.ResourceVideo, 299, 75},
		// 50 * 1.3 * 1.0 = 65
		{"documentation", learning.ResourceDocumentation, 0, 65},
		// 50 * 1.8 * 1.0 = 90
		{"github", learning.ResourceGithub, 0, 90},
		// 50 * 2.0 * 1.0 = 100
		{"module", learning.ResourceModule, 0, 100},
		// 50 * 1.5 * (1 + 12*0.1) = 165
		{"hour-long video", learning.ResourceVideo, 3600, 165},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventXP(eventOf(tt.rt, tt.duration)))
		})
	}
}

func TestTypeMultiplier_UnknownDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1.0, TypeMultiplier(learning.ResourceType("podcast")))
}

func TestEventXP_UnknownTypeStillBase(t *testing.T) {
	assert.Equal(t, XP(50), EventXP(eventOf("podcast", 0)))
}
