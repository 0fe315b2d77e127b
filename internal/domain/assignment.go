package domain

import "time"

// Assignment is an immutable audit entry written on every assignment change.
// A nil TechnicianID records that the request was left unassigned.
type Assignment struct {
	ID           string
	RequestID    string
	TechnicianID *string
	AssignedBy   string
	AssignedAt   time.Time
}
