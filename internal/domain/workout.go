package domain

import "time"

// ExerciseSet is one performed set within an exercise. Order within the
// parent exercise is significant.
type ExerciseSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// PerformedExercise is one exercise within a workout, with its ordered sets.
type PerformedExercise struct {
	ExerciseID string        `json:"exerciseId"`
	Name       string        `json:"name"`
	Sets       []ExerciseSet `json:"sets"`
}

// Workout is a performed training session owned by UserID. ID is scoped to
// the owning user and immutable once assigned.
type Workout struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Name      string              `json:"name"`
	Exercises []PerformedExercise `json:"exercises"`
	Notes     string              `json:"notes,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// PlannedExercise is a template exercise inside a workout plan. It carries
// target numbers, no performance data.
type PlannedExercise struct {
	ExerciseID string `json:"exerciseId"`
	Name       string `json:"name"`
	TargetSets int    `json:"targetSets"`
	TargetReps int    `json:"targetReps"`
}

// WorkoutPlan is a reusable workout template owned by UserID.
type WorkoutPlan struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Name      string            `json:"name"`
	Exercises []PlannedExercise `json:"exercises"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
