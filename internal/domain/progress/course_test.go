package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseProgress_FourModules(t *testing.T) {
	p, err := NewCourseProgress("user-1", "course-webdev", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PercentComplete)

	now := time.Now().UTC()

	applied, done := p.ApplyModuleCompletion("module-01", now)
	assert.True(t, applied)
	assert.False(t, done)
	assert.Equal(t, 25, p.PercentComplete)

	applied, done = p.ApplyModuleCompletion("module-02", now)
	assert.True(t, applied)
	assert.False(t, done)
	assert.Equal(t, 50, p.PercentComplete)

	p.ApplyModuleCompletion("module-03", now)
	applied, done = p.ApplyModuleCompletion("module-04", now)
	assert.True(t, applied)
	assert.True(t, done)
	assert.Equal(t, 100, p.PercentComplete)
	assert.True(t, p.IsComplete())
	assert.Equal(t, now, p.CompletedAt)
}

func TestCourseProgress_RepeatModuleIsNoop(t *testing.T) {
	p, err := NewCourseProgress("user-1", "course-webdev", 4)
	require.NoError(t, err)

	now := time.Now().UTC()
	p.ApplyModuleCompletion("module-01", now)

	applied, done := p.ApplyModuleCompletion("module-01", now.Add(time.Hour))

	assert.False(t, applied)
	assert.False(t, done)
	assert.Equal(t, 25, p.PercentComplete)
	assert.Len(t, p.CompletedModules, 1)
}

func TestCourseProgress_CompletionFiresOnce(t *testing.T) {
	p, err := NewCourseProgress("user-1", "course-go", 1)
	require.NoError(t, err)

	first := time.Now().UTC()
	_, done := p.ApplyModuleCompletion("module-01", first)
	assert.True(t, done)

	// A duplicate after completion must not re-fire course completion.
	_, done = p.ApplyModuleCompletion("module-01", first.Add(time.Hour))
	assert.False(t, done)
	assert.Equal(t, first, p.CompletedAt)
}

func TestNewCourseProgress_Validation(t *testing.T) {
	_, err := NewCourseProgress("", "course-go", 3)
	assert.Error(t, err)

	_, err = NewCourseProgress("user-1", "", 3)
	assert.Error(t, err)

	_, err = NewCourseProgress("user-1", "course-go", 0)
	assert.Error(t, err)
}

func TestCourse_HasModule(t *testing.T) {
	course := &Course{
		ID: "course-go",
		Modules: []CourseModule{
			{ID: "module-01", CourseID: "course-go", Position: 1},
			{ID: "module-02", CourseID: "course-go", Position: 2},
		},
	}

	assert.True(t, course.HasModule("module-01"))
	assert.False(t, course.HasModule("module-99"))
	assert.Equal(t, 2, course.ModuleCount())
}
