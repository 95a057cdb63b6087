package workouts

import "time"

// dayLayout renders the UTC calendar day a completion belongs to.
const dayLayout = "2006-01-02"

// Workout is a named program owned by a single user.
type Workout struct {
	WorkoutID   uint                    `gorm:"column:workout_id;primaryKey;autoIncrement"`
	UserID      uint                    `gorm:"column:user_id;not null;index"`
	Name        string                  `gorm:"column:name;size:255;not null"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	Exercises   []Exercise              `gorm:"foreignKey:WorkoutID;constraint:OnDelete:CASCADE"`
	Completions []WorkoutCompletion     `gorm:"foreignKey:WorkoutID;constraint:OnDelete:CASCADE"`
	SetRecords  []ExerciseSetCompletion `gorm:"foreignKey:WorkoutID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (Workout) TableName() string {
	return "workouts"
}

// Exercise belongs to a workout and carries its ordered sets.
type Exercise struct {
	ExerciseID uint          `gorm:"column:exercise_id;primaryKey;autoIncrement"`
	WorkoutID  uint          `gorm:"column:workout_id;not null;index"`
	Name       string        `gorm:"column:name;size:255;not null"`
	Sets       []ExerciseSet `gorm:"foreignKey:ExerciseID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (Exercise) TableName() string {
	return "exercises"
}

// ExerciseSet is one planned set. SetNumber is caller supplied and only used
// for display ordering; Weight is optional.
type ExerciseSet struct {
	SetID      uint                    `gorm:"column:set_id;primaryKey;autoIncrement"`
	ExerciseID uint                    `gorm:"column:exercise_id;not null;index"`
	SetNumber  int                     `gorm:"column:set_number;not null"`
	Reps       int                     `gorm:"column:reps;not null"`
	Weight     *float64                `gorm:"column:weight;type:decimal(5,2)"`
	Records    []ExerciseSetCompletion `gorm:"foreignKey:SetID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (ExerciseSet) TableName() string {
	return "exercise_sets"
}

// WorkoutCompletion records that a workout was marked done at an instant.
// CompletedOn denormalizes the UTC calendar day of CompletedAt; the unique
// index makes the one-record-per-day invariant a database constraint, so a
// racing duplicate insert fails instead of producing a second row.
type WorkoutCompletion struct {
	CompletionID uint      `gorm:"column:completion_id;primaryKey;autoIncrement"`
	WorkoutID    uint      `gorm:"column:workout_id;not null;uniqueIndex:idx_workout_completion_day,priority:1"`
	CompletedAt  time.Time `gorm:"column:completed_at;not null"`
	CompletedOn  string    `gorm:"column:completed_on;size:10;not null;uniqueIndex:idx_workout_completion_day,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (WorkoutCompletion) TableName() string {
	return "workout_completions"
}

// ExerciseSetCompletion records a single set done on a calendar day. The
// workout id is denormalized so per-workout projections avoid a join through
// exercises.
type ExerciseSetCompletion struct {
	SetCompletionID uint      `gorm:"column:set_completion_id;primaryKey;autoIncrement"`
	SetID           uint      `gorm:"column:set_id;not null;uniqueIndex:idx_set_completion_day,priority:1"`
	WorkoutID       uint      `gorm:"column:workout_id;not null;uniqueIndex:idx_set_completion_day,priority:2"`
	CompletedAt     time.Time `gorm:"column:completed_at;not null"`
	CompletedOn     string    `gorm:"column:completed_on;size:10;not null;uniqueIndex:idx_set_completion_day,priority:3"`
}

// TableName provides the explicit table binding for GORM.
func (ExerciseSetCompletion) TableName() string {
	return "exercise_set_completions"
}

// SetInput describes one set supplied to CreateExercise.
type SetInput struct {
	SetNumber int
	Reps      int
	Weight    *float64
}

// SetStatus is one set inside a completion-status projection.
type SetStatus struct {
	SetID     uint     `json:"set_id"`
	SetNumber int      `json:"set_number"`
	Reps      int      `json:"reps"`
	Weight    *float64 `json:"weight"`
	Completed bool     `json:"completed"`
}

// ExerciseStatus groups the sets of one exercise, in set-number order.
type ExerciseStatus struct {
	ExerciseID uint        `json:"exercise_id"`
	Name       string      `json:"exercise_name"`
	Sets       []SetStatus `json:"sets"`
}

// WorkoutStatus is the nested read-model for today's completion state.
// Exercises appear in ascending exercise-id order.
type WorkoutStatus struct {
	WorkoutID uint             `json:"workout_id"`
	Name      string           `json:"workout_name"`
	Exercises []ExerciseStatus `json:"exercises"`
}
