package domain

import "time"

// UserProfile is the identity-carrying profile record. UID is assigned by the
// authentication layer and immutable once set.
type UserProfile struct {
	UID             string                 `json:"uid"`
	Email           string                 `json:"email"`
	Username        string                 `json:"username"`
	ProfileImageURL string                 `json:"profileImageUrl,omitempty"`
	Weight          float64                `json:"weight,omitempty"`
	Height          float64                `json:"height,omitempty"`
	Settings        map[string]interface{} `json:"settings,omitempty"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}
