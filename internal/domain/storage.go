package domain

import "context"

// Fixed, enumerable set of local storage keys. Each key holds all users'
// records for one entity type; records are filtered by userId at read time.
const (
	StorageKeyProfile       = "profile"
	StorageKeyWeightLog     = "weight-log"
	StorageKeyWorkouts      = "workout-history"
	StorageKeyWorkoutPlans  = "workout-plans"
	StorageKeyCacheMetadata = "cache-metadata"
)

// LocalStore is the durable key/value persistence contract. Both operations
// are idempotent. A missing key reads as the empty string with a nil error.
type LocalStore interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key string, value string) error
}
