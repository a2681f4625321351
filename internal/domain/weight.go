package domain

import "time"

// WeightDateLayout is the calendar-date format used for weight log entries.
const WeightDateLayout = "2006-01-02"

// WeightLogEntry is one body-weight measurement. The calendar date is the
// real identity: logging twice on the same date overwrites rather than
// duplicates, and the ID is derived from UserID and Date.
type WeightLogEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Weight    float64   `json:"weight"`
	Change    float64   `json:"change"`
	UpdatedAt time.Time `json:"updatedAt"`
}
