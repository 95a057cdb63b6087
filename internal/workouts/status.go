package workouts

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// statusRow is one flat row of the projection join.
type statusRow struct {
	ExerciseID   uint
	ExerciseName string
	SetID        uint
	SetNumber    int
	Reps         int
	Weight       *float64
	CompletionID *uint
}

// CompletionStatus folds today's completion records into a nested read-model
// for one workout. A workout without exercises has nothing to project and is
// reported as not found, the same as a missing workout.
func (s *Service) CompletionStatus(ctx context.Context, workoutID uint) (WorkoutStatus, error) {
	_, day := s.today()

	var workout Workout
	err := s.db.WithContext(ctx).Where("workout_id = ?", workoutID).Take(&workout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return WorkoutStatus{}, newServiceError(opCompletionStatus, "workout_not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opCompletionStatus, "workout_select_failed", err, zap.Uint("workout_id", workoutID))
		return WorkoutStatus{}, newServiceError(opCompletionStatus, "workout_select_failed", err)
	}

	var rows []statusRow
	err = s.db.WithContext(ctx).
		Table("exercises AS e").
		Select("e.exercise_id AS exercise_id, e.name AS exercise_name, "+
			"s.set_id AS set_id, s.set_number AS set_number, s.reps AS reps, s.weight AS weight, "+
			"c.set_completion_id AS completion_id").
		Joins("JOIN exercise_sets AS s ON s.exercise_id = e.exercise_id").
		Joins("LEFT JOIN exercise_set_completions AS c ON c.set_id = s.set_id AND c.workout_id = e.workout_id AND c.completed_on = ?", day).
		Where("e.workout_id = ?", workoutID).
		Order("e.exercise_id, s.set_number").
		Scan(&rows).Error
	if err != nil {
		s.logError(opCompletionStatus, "projection_query_failed", err, zap.Uint("workout_id", workoutID))
		return WorkoutStatus{}, newServiceError(opCompletionStatus, "projection_query_failed", err)
	}

	if len(rows) == 0 {
		return WorkoutStatus{}, newServiceError(opCompletionStatus, "no_exercises", ErrNotFound)
	}

	status := WorkoutStatus{WorkoutID: workout.WorkoutID, Name: workout.Name}
	index := map[uint]int{}
	for _, row := range rows {
		position, seen := index[row.ExerciseID]
		if !seen {
			position = len(status.Exercises)
			index[row.ExerciseID] = position
			status.Exercises = append(status.Exercises, ExerciseStatus{
				ExerciseID: row.ExerciseID,
				Name:       row.ExerciseName,
			})
		}
		status.Exercises[position].Sets = append(status.Exercises[position].Sets, SetStatus{
			SetID:     row.SetID,
			SetNumber: row.SetNumber,
			Reps:      row.Reps,
			Weight:    row.Weight,
			Completed: row.CompletionID != nil,
		})
	}

	return status, nil
}
