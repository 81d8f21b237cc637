// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edusmart/progress-engine/internal/domain/learning"
	"github.com/edusmart/progress-engine/internal/domain/progress"
	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// INGEST COMPLETION COMMAND
// The single write path of the engine: a learner finished a resource. One call
// records the event, recomputes derived progress, awards XP and achievements,
// and advances course progress for module events.
// ══════════════════════════════════════════════════════════════════════════════

// saveRetries bounds the optimistic-lock retry loop when another instance
// updated the same user's stats between read and save.
const saveRetries = 3

// IngestCompletionCommand contains the data of one completion submission.
type IngestCompletionCommand struct {
	// UserID is the authenticated learner. Always taken from the session,
	// never from the request body.
	UserID string

	// ResourceID identifies the finished resource.
	ResourceID string

	// ResourceType is one of the closed resource type set.
	ResourceType string

	// Domain is the subject-matter track the resource belongs to.
	Domain string

	// Platform is the source platform. Informational only.
	Platform string

	// CourseID/ModuleID are required for module completions and must be
	// absent otherwise.
	CourseID string
	ModuleID string

	// CompletedAt is when the learner finished (defaults to now if zero).
	CompletedAt time.Time

	// DurationSeconds is time spent; zero means unreported.
	DurationSeconds int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command shape before any domain object is built.
func (c IngestCompletionCommand) Validate() error {
	if c.UserID == "" {
		return shared.ErrEmptyUserID
	}
	if c.ResourceID == "" {
		return shared.ErrEmptyResourceID
	}
	if c.ResourceType == string(learning.ResourceModule) {
		if c.CourseID == "" || c.ModuleID == "" {
			return shared.NewDomainError("learning", "ingest", shared.ErrInvalidInput,
				"module completions require course_id and module_id")
		}
	} else if c.CourseID != "" || c.ModuleID != "" {
		return shared.NewDomainError("learning", "ingest", shared.ErrInvalidInput,
			"course_id/module_id are only valid for module completions")
	}
	return nil
}

// IngestCompletionResult contains the outcome of one ingestion.
type IngestCompletionResult struct {
	// Success is true for both fresh events and ignored duplicates.
	Success bool

	// Duplicate is true when the event matched an already-recorded
	// (user, resource, type) and was not counted again.
	Duplicate bool

	// EventID is the stored event's ID (the original one for duplicates).
	EventID string

	// XPAwarded is the XP granted for this event including achievement
	// bonuses. Zero for duplicates.
	XPAwarded int

	// TotalXP is the user's XP after this ingestion.
	TotalXP int

	// Level is the user's level after this ingestion.
	Level string

	// LeveledUp is true when this event pushed the user into a new level.
	LeveledUp bool

	// StreakDays is the current consecutive-day streak.
	StreakDays int

	// UnlockedAchievements lists achievements granted by this event.
	UnlockedAchievements []progress.Achievement

	// CourseCompleted is true when a module event finished its course.
	CourseCompleted bool

	// Events contains domain events generated.
	Events []shared.Event

	// RecordedAt is when the ingestion happened.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// IngestCompletionHandler handles the IngestCompletionCommand.
//
// Конкурентность: события одного пользователя сериализуются через
// полосатый мьютекс внутри инстанса, а между инстансами - через
// оптимистичную версию агрегата UserStats. Проверка достижений поэтому
// свободна от гонки check-then-award.
type IngestCompletionHandler struct {
	eventRepo       learning.EventRepository
	statsRepo       progress.UserStatsRepository
	courseRepo      progress.CourseProgressRepository
	achievementRepo progress.AchievementRepository
	catalog         progress.CourseCatalog
	evaluator       *progress.Evaluator
	eventPublisher  shared.EventPublisher
	log             *logger.Logger

	userLocks [64]sync.Mutex
}

// NewIngestCompletionHandler creates a new IngestCompletionHandler.
func NewIngestCompletionHandler(
	eventRepo learning.EventRepository,
	statsRepo progress.UserStatsRepository,
	courseRepo progress.CourseProgressRepository,
	achievementRepo progress.AchievementRepository,
	catalog progress.CourseCatalog,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *IngestCompletionHandler {
	return &IngestCompletionHandler{
		eventRepo:       eventRepo,
		statsRepo:       statsRepo,
		courseRepo:      courseRepo,
		achievementRepo: achievementRepo,
		catalog:         catalog,
		evaluator:       progress.NewEvaluator(),
		eventPublisher:  eventPublisher,
		log:             log.With(logger.Component("ingest_completion")),
	}
}

// Handle executes the ingest completion command.
func (h *IngestCompletionHandler) Handle(ctx context.Context, cmd IngestCompletionCommand) (*IngestCompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	event, err := learning.NewCompletionEvent(
		uuid.New().String(),
		learning.UserID(cmd.UserID),
		learning.ResourceID(cmd.ResourceID),
		learning.ResourceType(cmd.ResourceType),
		learning.Domain(cmd.Domain),
		cmd.CompletedAt,
		cmd.DurationSeconds,
	)
	if err != nil {
		return nil, err
	}
	event.WithPlatform(cmd.Platform)
	if event.IsModule() {
		event.WithModule(cmd.CourseID, cmd.ModuleID)
		// Reject unknown courses before touching any state.
		course, err := h.catalog.GetCourse(ctx, progress.CourseID(cmd.CourseID))
		if err != nil {
			return nil, err
		}
		if !course.HasModule(progress.ModuleID(cmd.ModuleID)) {
			return nil, shared.ErrModuleNotInCourse
		}
	}

	lock := h.lockFor(event.UserID)
	lock.Lock()
	defer lock.Unlock()

	appended, err := h.eventRepo.Append(ctx, event)
	if err != nil {
		return nil, shared.WrapError("learning", "ingest", shared.ErrStoreUnavailable, "append completion event", err)
	}

	result := &IngestCompletionResult{
		Success:    true,
		EventID:    appended.Event.ID,
		RecordedAt: time.Now().UTC(),
		Events:     make([]shared.Event, 0, 4),
	}

	if !appended.Created {
		// Already counted: the repository refreshed last-activity, nothing
		// else changes. Duplicates are a success, not an error.
		result.Duplicate = true
		h.log.Debug("duplicate completion ignored",
			logger.UserID(cmd.UserID),
			logger.ResourceID(cmd.ResourceID),
		)
		h.fillCurrentStats(ctx, event.UserID, result)
		return result, nil
	}

	if err := h.applyProgress(ctx, event, result); err != nil {
		return nil, err
	}

	if event.IsModule() {
		if err := h.advanceCourse(ctx, event, result); err != nil {
			return nil, err
		}
	}

	for _, e := range result.Events {
		if err := h.eventPublisher.Publish(e); err != nil {
			h.log.Warn("publish domain event failed",
				logger.String("event_type", string(e.EventType())),
				logger.Err(err),
			)
		}
	}

	h.log.Info("completion recorded",
		logger.UserID(cmd.UserID),
		logger.ResourceID(cmd.ResourceID),
		logger.LearningDomain(cmd.Domain),
		logger.XPAmount(result.XPAwarded),
	)

	return result, nil
}

// applyProgress recomputes the user's derived state after a fresh event and
// persists it under optimistic locking.
func (h *IngestCompletionHandler) applyProgress(ctx context.Context, event *learning.CompletionEvent, result *IngestCompletionResult) error {
	log, err := h.eventRepo.GetByUser(ctx, event.UserID)
	if err != nil {
		return shared.WrapError("learning", "ingest", shared.ErrStoreUnavailable, "load event log", err)
	}
	deduped := learning.Deduplicate(log)

	completedResources := len(deduped)
	studyHours := learning.TotalStudyHours(deduped)
	streak := learning.StreakDays(deduped)

	eventXP := progress.EventXP(*event)

	// Достижения, выданные этим вызовом, переживают ретраи: после успешного
	// Award разблокировка уже в хранилище, и при повторном чтении Evaluate её
	// пропустит как существующую. Бонус поэтому копится вне цикла и заново
	// прибавляется к свежепрочитанному агрегату на каждой попытке.
	var bonus progress.XP
	var awarded []progress.Achievement

	for attempt := 0; ; attempt++ {
		stats, err := h.statsRepo.GetByUser(ctx, event.UserID)
		if err != nil {
			if !shared.IsNotFound(err) {
				return shared.WrapError("progress", "ingest", shared.ErrStoreUnavailable, "load user stats", err)
			}
			stats = progress.NewUserStats(event.UserID)
		}

		oldLevel := stats.Level
		stats.AddXP(eventXP)
		reached, leveledUp := stats.Recalculate(completedResources, studyHours, streak, event.CompletedAt)

		existing, err := h.achievementRepo.TypesByUser(ctx, event.UserID)
		if err != nil {
			return shared.WrapError("progress", "ingest", shared.ErrStoreUnavailable, "load achievements", err)
		}

		unlocked := h.evaluator.Evaluate(progress.EvaluationInput{
			Event:              *event,
			CompletedResources: completedResources,
			TotalStudyHours:    studyHours,
			ReachedLevel:       reached,
			LeveledUp:          leveledUp,
		}, existing)

		for _, a := range unlocked {
			ok, err := h.achievementRepo.Award(ctx, a)
			if err != nil {
				return shared.WrapError("progress", "ingest", shared.ErrStoreUnavailable, "award achievement", err)
			}
			if !ok {
				// Another instance won the race; its save carries the bonus.
				continue
			}
			bonus += a.XPAwarded
			awarded = append(awarded, a)
		}
		stats.AddXP(bonus)

		stats.Touch()
		if err := h.statsRepo.Save(ctx, stats); err != nil {
			if errors.Is(err, shared.ErrOptimisticLock) && attempt < saveRetries {
				continue
			}
			return shared.WrapError("progress", "ingest", shared.ErrStoreUnavailable, "save user stats", err)
		}

		result.XPAwarded = int(eventXP + bonus)
		result.TotalXP = int(stats.TotalXP)
		result.Level = stats.Level.String()
		result.LeveledUp = leveledUp
		result.StreakDays = stats.StreakDays
		result.UnlockedAchievements = awarded

		result.Events = append(result.Events, shared.NewCompletionRecordedEvent(
			event.UserID.String(), event.ResourceID.String(), event.ResourceType.String(),
			event.Domain.String(), int(eventXP)))
		result.Events = append(result.Events, shared.NewXPGainedEvent(
			event.UserID.String(), int(eventXP+bonus), int(stats.TotalXP),
			"completion", event.ResourceID.String()))
		if leveledUp {
			result.Events = append(result.Events, shared.NewLevelUpEvent(
				event.UserID.String(), oldLevel.String(), reached.String(), int(progress.LevelBonusXP(reached))))
		}
		for _, a := range awarded {
			result.Events = append(result.Events, shared.NewAchievementUnlockedEvent(
				a.UserID.String(), string(a.Type), int(a.XPAwarded)))
		}

		return nil
	}
}

// advanceCourse applies a module completion to the course progress projection.
func (h *IngestCompletionHandler) advanceCourse(ctx context.Context, event *learning.CompletionEvent, result *IngestCompletionResult) error {
	courseID := progress.CourseID(event.CourseID)
	moduleID := progress.ModuleID(event.ModuleID)

	cp, err := h.courseRepo.GetByUserAndCourse(ctx, event.UserID, courseID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return shared.WrapError("progress", "ingest", shared.ErrStoreUnavailable, "load course progress", err)
		}
		course, err := h.catalog.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		cp, err = progress.NewCourseProgress(event.UserID, courseID, course.ModuleCount())
		if err != nil {
			return err
		}
	}

	applied, completed := cp.ApplyModuleCompletion(moduleID, event.CompletedAt)
	if !applied {
		return nil
	}

	if err := h.courseRepo.Save(ctx, cp); err != nil {
		return shared.WrapError("progress", "ingest", shared.ErrStoreUnavailable, "save course progress", err)
	}

	if completed {
		result.CourseCompleted = true
		result.Events = append(result.Events, shared.NewCourseCompletedEvent(
			event.UserID.String(), courseID.String(), cp.TotalModules))
	}

	return nil
}

// fillCurrentStats populates the result with the user's unchanged stats so
// duplicate responses still show current totals.
func (h *IngestCompletionHandler) fillCurrentStats(ctx context.Context, userID learning.UserID, result *IngestCompletionResult) {
	stats, err := h.statsRepo.GetByUser(ctx, userID)
	if err != nil {
		return
	}
	result.TotalXP = int(stats.TotalXP)
	result.Level = stats.Level.String()
	result.StreakDays = stats.StreakDays
}

// lockFor returns the stripe mutex serializing one user's writes.
func (h *IngestCompletionHandler) lockFor(userID learning.UserID) *sync.Mutex {
	hash := fnv.New32a()
	fmt.Fprint(hash, userID.String())
	return &h.userLocks[hash.Sum32()%uint32(len(h.userLocks))]
}
