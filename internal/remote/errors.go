package remote

import "fmt"

// StatusError is a non-2xx response from the document store. Server-class
// and throttling responses are transient and eligible for retry; the rest
// are permanent.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %s for %s", e.Status, e.URL)
}

// Transient reports whether the failure is worth retrying.
func (e *StatusError) Transient() bool {
	switch {
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == 408, e.StatusCode == 429:
		return true
	default:
		return false
	}
}

// NotFound reports whether the failure was a missing document.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == 404
}
