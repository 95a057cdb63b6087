package database

import (
	"errors"
	"time"

	"github.com/rangolabs/tracker/backend/internal/workouts"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillCompletionDays = "2026-08-30_backfill_completion_days"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

// applyMigrations runs each unapplied migration in order. Setup is
// best-effort: a failing migration is logged and skipped so the remaining
// ones still run; it will be retried on the next start.
func applyMigrations(db *gorm.DB, logger *zap.Logger) {
	migrations := []migrationDefinition{
		{name: migrationBackfillCompletionDays, apply: backfillCompletionDays},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			if logger != nil {
				logger.Warn("migration lookup failed", zap.String("migration", migration.name), zap.Error(err))
			}
			continue
		}
		if err := migration.apply(db); err != nil {
			if logger != nil {
				logger.Warn("database migration failed", zap.String("migration", migration.name), zap.Error(err))
			}
			continue
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			if logger != nil {
				logger.Warn("migration record insert failed", zap.String("migration", migration.name), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
}

// backfillCompletionDays derives the calendar-day column for completion rows
// written before the per-day unique index existed.
func backfillCompletionDays(db *gorm.DB) error {
	if err := db.Model(&workouts.WorkoutCompletion{}).
		Where("completed_on = '' OR completed_on IS NULL").
		Update("completed_on", gorm.Expr("strftime('%Y-%m-%d', completed_at)")).Error; err != nil {
		return err
	}
	return db.Model(&workouts.ExerciseSetCompletion{}).
		Where("completed_on = '' OR completed_on IS NULL").
		Update("completed_on", gorm.Expr("strftime('%Y-%m-%d', completed_at)")).Error
}
