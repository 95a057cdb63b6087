package workouts

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// testClock is a mutable clock so tests can cross day boundaries.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *testClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:workouts_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Workout{}, &Exercise{}, &ExerciseSet{}, &WorkoutCompletion{}, &ExerciseSetCompletion{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := &testClock{now: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	service, err := NewService(ServiceConfig{Database: db, Clock: clock.Now})
	if err != nil {
		t.Fatalf("failed to construct workout service: %v", err)
	}

	return service, db, clock
}

func seedWorkout(t *testing.T, service *Service, name string) Workout {
	t.Helper()
	workout, err := service.CreateWorkout(context.Background(), 1, name)
	if err != nil {
		t.Fatalf("failed to seed workout: %v", err)
	}
	return workout
}

func seedExercise(t *testing.T, service *Service, workoutID uint, name string, sets []SetInput) Exercise {
	t.Helper()
	exercise, err := service.CreateExercise(context.Background(), workoutID, name, sets)
	if err != nil {
		t.Fatalf("failed to seed exercise: %v", err)
	}
	return exercise
}

func weightOf(value float64) *float64 {
	return &value
}
