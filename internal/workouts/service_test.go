package workouts

import (
	"context"
	"errors"
	"testing"
)

func TestCreateWorkoutRequiresName(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateWorkout(context.Background(), 1, "   ")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateExerciseCommitsAllSetsInOrder(t *testing.T) {
	service, db, _ := newTestService(t)
	workout := seedWorkout(t, service, "Push Day")

	exercise, err := service.CreateExercise(context.Background(), workout.WorkoutID, "Bench Press", []SetInput{
		{SetNumber: 2, Reps: 8, Weight: weightOf(145)},
		{SetNumber: 1, Reps: 10, Weight: weightOf(135)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(exercise.Sets) != 2 {
		t.Fatalf("expected 2 committed sets, got %d", len(exercise.Sets))
	}
	if exercise.Sets[0].SetNumber != 1 || exercise.Sets[1].SetNumber != 2 {
		t.Fatalf("sets must come back in set-number order: %+v", exercise.Sets)
	}
	if exercise.Sets[0].Reps != 10 {
		t.Fatalf("set rows must reflect committed values, got %+v", exercise.Sets[0])
	}

	var setCount int64
	if err := db.Model(&ExerciseSet{}).Where("exercise_id = ?", exercise.ExerciseID).Count(&setCount).Error; err != nil {
		t.Fatalf("failed to count sets: %v", err)
	}
	if setCount != 2 {
		t.Fatalf("expected exactly 2 set rows, got %d", setCount)
	}
}

func TestCreateExerciseValidationFailsBeforeStorage(t *testing.T) {
	service, db, _ := newTestService(t)
	workout := seedWorkout(t, service, "Push Day")

	cases := []struct {
		name string
		sets []SetInput
	}{
		{name: "empty-set-list", sets: nil},
		{name: "missing-set-number", sets: []SetInput{{Reps: 10}}},
		{name: "missing-reps", sets: []SetInput{{SetNumber: 1}}},
		{name: "negative-weight", sets: []SetInput{{SetNumber: 1, Reps: 10, Weight: weightOf(-5)}}},
		{name: "bad-set-after-good", sets: []SetInput{{SetNumber: 1, Reps: 10}, {SetNumber: 2, Reps: 0}}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateExercise(context.Background(), workout.WorkoutID, "Bench Press", tt.sets)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}

			var exerciseCount int64
			if err := db.Model(&Exercise{}).Count(&exerciseCount).Error; err != nil {
				t.Fatalf("failed to count exercises: %v", err)
			}
			if exerciseCount != 0 {
				t.Fatalf("no exercise row may exist after a rejected creation, got %d", exerciseCount)
			}
		})
	}
}

func TestCreateExerciseUnknownWorkout(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateExercise(context.Background(), 42, "Bench Press", []SetInput{{SetNumber: 1, Reps: 10}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateExerciseNameRequired(t *testing.T) {
	service, _, _ := newTestService(t)
	workout := seedWorkout(t, service, "Push Day")

	_, err := service.CreateExercise(context.Background(), workout.WorkoutID, "", []SetInput{{SetNumber: 1, Reps: 10}})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListWorkoutsScopedToOwner(t *testing.T) {
	service, _, _ := newTestService(t)

	if _, err := service.CreateWorkout(context.Background(), 1, "Push Day"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.CreateWorkout(context.Background(), 2, "Leg Day"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mine, err := service.ListWorkouts(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "Push Day" {
		t.Fatalf("expected only the owner's workout, got %+v", mine)
	}
}

func TestDeleteWorkoutCascades(t *testing.T) {
	service, db, _ := newTestService(t)
	workout := seedWorkout(t, service, "Push Day")
	exercise := seedExercise(t, service, workout.WorkoutID, "Bench Press", []SetInput{
		{SetNumber: 1, Reps: 10},
	})

	if _, err := service.ToggleWorkoutCompletion(context.Background(), workout.WorkoutID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.ToggleSetCompletion(context.Background(), workout.WorkoutID, exercise.ExerciseID, exercise.Sets[0].SetID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := service.DeleteWorkout(context.Background(), 1, workout.WorkoutID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, model := range []interface{}{&Exercise{}, &ExerciseSet{}, &WorkoutCompletion{}, &ExerciseSetCompletion{}} {
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected cascade to remove %T rows, found %d", model, count)
		}
	}
}

func TestDeleteWorkoutChecksOwnership(t *testing.T) {
	service, _, _ := newTestService(t)
	workout := seedWorkout(t, service, "Push Day")

	if err := service.DeleteWorkout(context.Background(), 99, workout.WorkoutID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if err := service.DeleteWorkout(context.Background(), 1, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown workout, got %v", err)
	}
}
