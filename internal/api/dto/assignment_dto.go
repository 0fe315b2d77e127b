package dto

import "time"

// AssignRequest payload for assign and reassign.
type AssignRequest struct {
	TechnicianID string `json:"technicianId"`
}

// AssignmentResponse is one assignment trail entry. A nil TechnicianID
// marks an unassigned entry.
type AssignmentResponse struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"requestId"`
	TechnicianID *string   `json:"technicianId"`
	AssignedBy   string    `json:"assignedBy"`
	AssignedAt   time.Time `json:"assignedAt"`
}
