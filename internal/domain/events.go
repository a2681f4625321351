package domain

import "time"

// Internal event bus topics.
const (
	EventSyncCompleted     = "sync:completed"
	EventFriendAccepted    = "friend:accepted"
	EventRemoteUnreachable = "remote:unreachable"
)

// SyncSummary is the payload published on EventSyncCompleted after a full
// data-set reconciliation pass.
type SyncSummary struct {
	UserID      string    `json:"userId"`
	Pushed      int       `json:"pushed"`
	Pulled      int       `json:"pulled"`
	CompletedAt time.Time `json:"completedAt"`
}

// FriendAccepted is the payload published on EventFriendAccepted.
type FriendAccepted struct {
	FromUID    string    `json:"fromUid"`
	ToUID      string    `json:"toUid"`
	AcceptedAt time.Time `json:"acceptedAt"`
}
