package entities

import "strings"

// Status is the value of stores.onboarding_completed. It gates whether the
// onboarding UI is shown again.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

func ParseStatus(raw string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusSkipped:
		return status, true
	default:
		return "", false
	}
}

// StoredStatus reads a raw column value; a never-written column means not_started.
func StoredStatus(raw string) Status {
	if status, ok := ParseStatus(raw); ok {
		return status
	}
	return StatusNotStarted
}

// ShowsOnboarding reports whether the gating layer should route the merchant
// back into onboarding.
func (s Status) ShowsOnboarding() bool {
	return s != StatusCompleted && s != StatusSkipped
}

// StoreRef is the caller's store as seen by the status updater.
type StoreRef struct {
	StoreID string
	Status  Status
}
