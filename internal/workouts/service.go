package workouts

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opServiceNew       = "workouts.service.new"
	opCreateWorkout    = "workouts.create_workout"
	opListWorkouts     = "workouts.list_workouts"
	opDeleteWorkout    = "workouts.delete_workout"
	opToggleWorkout    = "workouts.toggle_workout_completion"
	opToggleSet        = "workouts.toggle_set_completion"
	opCreateExercise   = "workouts.create_exercise"
	opCompletionStatus = "workouts.completion_status"
)

// ServiceConfig describes the dependencies of the workout engine.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns workout CRUD, the day-scoped completion state machine, the
// composite exercise creation path, and the status projection. All state
// lives in the store; the service itself holds no mutable state and is safe
// for concurrent use.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the workout service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// today resolves the current calendar day in the server reference timezone.
func (s *Service) today() (time.Time, string) {
	now := s.clock().UTC()
	return now, now.Format(dayLayout)
}

// CreateWorkout persists a named workout owned by the given user.
func (s *Service) CreateWorkout(ctx context.Context, userID uint, name string) (Workout, error) {
	if strings.TrimSpace(name) == "" {
		return Workout{}, newValidationError("workout name is required")
	}

	workout := Workout{UserID: userID, Name: strings.TrimSpace(name), CreatedAt: s.clock().UTC()}
	if err := s.db.WithContext(ctx).Create(&workout).Error; err != nil {
		s.logError(opCreateWorkout, "insert_failed", err, zap.Uint("user_id", userID))
		return Workout{}, newServiceError(opCreateWorkout, "insert_failed", err)
	}
	return workout, nil
}

// ListWorkouts returns the caller's workouts, newest first.
func (s *Service) ListWorkouts(ctx context.Context, userID uint) ([]Workout, error) {
	var result []Workout
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, workout_id DESC").
		Find(&result).Error
	if err != nil {
		s.logError(opListWorkouts, "query_failed", err, zap.Uint("user_id", userID))
		return nil, newServiceError(opListWorkouts, "query_failed", err)
	}
	return result, nil
}

// DeleteWorkout removes a workout owned by the caller. Exercises, sets, and
// completion records go with it through the cascading foreign keys.
func (s *Service) DeleteWorkout(ctx context.Context, userID, workoutID uint) error {
	result := s.db.WithContext(ctx).
		Where("workout_id = ? AND user_id = ?", workoutID, userID).
		Delete(&Workout{})
	if result.Error != nil {
		s.logError(opDeleteWorkout, "delete_failed", result.Error, zap.Uint("workout_id", workoutID))
		return newServiceError(opDeleteWorkout, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDeleteWorkout, "workout_not_found", ErrNotFound)
	}
	return nil
}

// ToggleWorkoutCompletion flips today's completion state for a workout.
// It returns true when the workout is now completed for today and false when
// today's record was removed. Records from earlier days stay untouched; each
// calendar day carries at most one independent record.
func (s *Service) ToggleWorkoutCompletion(ctx context.Context, workoutID uint) (bool, error) {
	now, day := s.today()

	var completed bool
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workout Workout
		if err := tx.Where("workout_id = ?", workoutID).Take(&workout).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newServiceError(opToggleWorkout, "workout_not_found", ErrNotFound)
			}
			return newServiceError(opToggleWorkout, "workout_select_failed", err)
		}

		var history []WorkoutCompletion
		if err := tx.Where("workout_id = ?", workoutID).Find(&history).Error; err != nil {
			return newServiceError(opToggleWorkout, "history_select_failed", err)
		}

		// Walk the full history before mutating anything. Records from
		// earlier days are immutable and never matched for deletion; a
		// record from a later day means this call is backdated and would
		// rewrite history, so it is rejected outright.
		var todays *WorkoutCompletion
		for i := range history {
			if history[i].CompletedOn > day {
				return newServiceError(opToggleWorkout, "past_date_immutable", ErrPastDateImmutable)
			}
			if history[i].CompletedOn == day {
				todays = &history[i]
			}
		}

		if todays != nil {
			if err := tx.Delete(&WorkoutCompletion{}, "completion_id = ?", todays.CompletionID).Error; err != nil {
				return newServiceError(opToggleWorkout, "delete_failed", err)
			}
			completed = false
			return nil
		}

		record := WorkoutCompletion{WorkoutID: workoutID, CompletedAt: now, CompletedOn: day}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newServiceError(opToggleWorkout, "duplicate_completion", ErrConflict)
			}
			return newServiceError(opToggleWorkout, "insert_failed", err)
		}
		completed = true
		return nil
	})

	if txErr != nil {
		s.logDomainError(opToggleWorkout, txErr, zap.Uint("workout_id", workoutID))
		return false, txErr
	}
	return completed, nil
}

// ToggleSetCompletion flips today's completion state for one exercise set.
// The set must exist and be owned by the claimed exercise and workout; a
// broken chain is reported separately from a missing set.
func (s *Service) ToggleSetCompletion(ctx context.Context, workoutID, exerciseID, setID uint) (bool, error) {
	now, day := s.today()

	var completed bool
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var set ExerciseSet
		if err := tx.Where("set_id = ?", setID).Take(&set).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newServiceError(opToggleSet, "set_not_found", ErrNotFound)
			}
			return newServiceError(opToggleSet, "set_select_failed", err)
		}

		if set.ExerciseID != exerciseID {
			return newServiceError(opToggleSet, "exercise_mismatch", ErrInvalidAssociation)
		}

		var exercise Exercise
		if err := tx.Where("exercise_id = ?", set.ExerciseID).Take(&exercise).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newServiceError(opToggleSet, "exercise_not_found", ErrNotFound)
			}
			return newServiceError(opToggleSet, "exercise_select_failed", err)
		}
		if exercise.WorkoutID != workoutID {
			return newServiceError(opToggleSet, "workout_mismatch", ErrInvalidAssociation)
		}

		var history []ExerciseSetCompletion
		if err := tx.Where("set_id = ? AND workout_id = ?", setID, workoutID).Find(&history).Error; err != nil {
			return newServiceError(opToggleSet, "history_select_failed", err)
		}

		// Same history rules as the workout toggle: earlier days are
		// immutable and skipped, later days reject the call.
		var todays *ExerciseSetCompletion
		for i := range history {
			if history[i].CompletedOn > day {
				return newServiceError(opToggleSet, "past_date_immutable", ErrPastDateImmutable)
			}
			if history[i].CompletedOn == day {
				todays = &history[i]
			}
		}

		if todays != nil {
			if err := tx.Delete(&ExerciseSetCompletion{}, "set_completion_id = ?", todays.SetCompletionID).Error; err != nil {
				return newServiceError(opToggleSet, "delete_failed", err)
			}
			completed = false
			return nil
		}

		record := ExerciseSetCompletion{SetID: setID, WorkoutID: workoutID, CompletedAt: now, CompletedOn: day}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newServiceError(opToggleSet, "duplicate_completion", ErrConflict)
			}
			return newServiceError(opToggleSet, "insert_failed", err)
		}
		completed = true
		return nil
	})

	if txErr != nil {
		s.logDomainError(opToggleSet, txErr,
			zap.Uint("workout_id", workoutID),
			zap.Uint("exercise_id", exerciseID),
			zap.Uint("set_id", setID))
		return false, txErr
	}
	return completed, nil
}

// CreateExercise creates an exercise together with all of its sets as one
// atomic unit. Shape violations fail before any store access; any failure
// inside the transaction rolls back the exercise row so a set-less exercise
// never becomes visible. The returned exercise carries the committed sets
// re-read in set-number order.
func (s *Service) CreateExercise(ctx context.Context, workoutID uint, name string, sets []SetInput) (Exercise, error) {
	if strings.TrimSpace(name) == "" {
		return Exercise{}, newValidationError("exercise name is required")
	}
	if len(sets) == 0 {
		return Exercise{}, newValidationError("at least one set is required")
	}
	for i, set := range sets {
		if set.SetNumber <= 0 {
			return Exercise{}, newValidationError("set %d: set number must be positive", i+1)
		}
		if set.Reps <= 0 {
			return Exercise{}, newValidationError("set %d: reps must be positive", i+1)
		}
		if set.Weight != nil && *set.Weight < 0 {
			return Exercise{}, newValidationError("set %d: weight must not be negative", i+1)
		}
	}

	var exercise Exercise
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workout Workout
		if err := tx.Where("workout_id = ?", workoutID).Take(&workout).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newServiceError(opCreateExercise, "workout_not_found", ErrNotFound)
			}
			return newServiceError(opCreateExercise, "workout_select_failed", err)
		}

		exercise = Exercise{WorkoutID: workoutID, Name: strings.TrimSpace(name)}
		if err := tx.Create(&exercise).Error; err != nil {
			return newServiceError(opCreateExercise, "exercise_insert_failed", err)
		}

		for _, set := range sets {
			row := ExerciseSet{
				ExerciseID: exercise.ExerciseID,
				SetNumber:  set.SetNumber,
				Reps:       set.Reps,
				Weight:     set.Weight,
			}
			if err := tx.Create(&row).Error; err != nil {
				return newServiceError(opCreateExercise, "set_insert_failed", err)
			}
		}

		// Return what was committed, not an echo of the input.
		if err := tx.Where("exercise_id = ?", exercise.ExerciseID).
			Order("set_number").
			Find(&exercise.Sets).Error; err != nil {
			return newServiceError(opCreateExercise, "set_select_failed", err)
		}
		return nil
	})

	if txErr != nil {
		s.logDomainError(opCreateExercise, txErr, zap.Uint("workout_id", workoutID))
		return Exercise{}, txErr
	}
	return exercise, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("workout service error", attrs...)
}

// logDomainError keeps expected domain outcomes out of the error log.
func (s *Service) logDomainError(operation string, err error, fields ...zap.Field) {
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidAssociation) ||
		errors.Is(err, ErrPastDateImmutable) ||
		errors.Is(err, ErrConflict) {
		return
	}
	var serviceErr *ServiceError
	reason := "transaction_failed"
	if errors.As(err, &serviceErr) {
		reason = serviceErr.Code()
	}
	s.logError(operation, reason, err, fields...)
}
