package domain

import "strings"

// RequestStatus is the canonical, externally visible ticket status.
type RequestStatus string

const (
	StatusPending    RequestStatus = "Pending"
	StatusInProgress RequestStatus = "In Progress"
	StatusDone       RequestStatus = "Done"
)

var statusAliases = map[string]RequestStatus{
	"pending":         StatusPending,
	"not started":     StatusPending,
	"in progress":     StatusInProgress,
	"resolved":        StatusDone,
	"done":            StatusDone,
	"completed":       StatusDone,
	"unfixable":       StatusDone,
	"not able to fix": StatusDone,
}

// NormalizeStatus folds any raw status spelling into one of the three
// canonical values. Unknown or empty input maps to Pending.
func NormalizeStatus(raw string) RequestStatus {
	if status, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return StatusPending
}

// IsCanonical reports whether s is one of the three canonical values.
func (s RequestStatus) IsCanonical() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusDone
}
