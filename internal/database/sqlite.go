package database

import (
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rangolabs/tracker/backend/internal/users"
	"github.com/rangolabs/tracker/backend/internal/workouts"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// Foreign keys are switched on so cascading deletes hold, and driver errors
// are translated so unique-constraint violations are recognizable upstream.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(withForeignKeys(path)), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&users.User{},
		&workouts.Workout{},
		&workouts.Exercise{},
		&workouts.ExerciseSet{},
		&workouts.WorkoutCompletion{},
		&workouts.ExerciseSetCompletion{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	applyMigrations(db, logger)

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

func withForeignKeys(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_pragma=foreign_keys(1)"
}
