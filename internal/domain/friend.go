package domain

import "time"

// Friend request lifecycle. A request is one-directional until accepted and
// terminal once it leaves pending.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

// FriendRequest is the negotiation record between two users. Only the
// recipient (ToUID) may accept or reject it.
type FriendRequest struct {
	ID          string     `json:"id"`
	FromUID     string     `json:"fromUid"`
	ToUID       string     `json:"toUid"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

// Friend is one half of a symmetric friendship. Acceptance of a request
// materializes two of these, one per participant.
type Friend struct {
	UserID    string    `json:"userId"`
	FriendUID string    `json:"friendUid"`
	Username  string    `json:"username,omitempty"`
	Since     time.Time `json:"since"`
}
