package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated           EventType = "request_created"
	EventRequestUpdated           EventType = "request_updated"
	EventRequestStatusChanged     EventType = "request_status_changed"
	EventRequestAssigned          EventType = "request_assigned"
	EventRequestReassigned        EventType = "request_reassigned"
	EventRequestUnassigned        EventType = "request_unassigned"
	EventResolutionProposed       EventType = "resolution_proposed"
	EventResolutionDecided        EventType = "resolution_decided"
	EventRequestDeleted           EventType = "request_deleted"
	EventRequestDeletionRequested EventType = "request_deletion_requested"
	EventAssignmentDeleted        EventType = "assignment_deleted"
)

// Event is published after a mutation commits. Intents lists the side
// effects subscribers are asked to deliver.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	RequestID string          `json:"request_id"`
	ActorID   string          `json:"actor_id"`
	Timestamp time.Time       `json:"timestamp"`
	Intents   []domain.Intent `json:"intents"`
	Payload   any             `json:"payload,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// AssignmentPayload payload.
type AssignmentPayload struct {
	AssignmentID       string  `json:"assignment_id"`
	TechnicianID       *string `json:"technician_id,omitempty"`
	PreviousTechnician *string `json:"previous_technician_id,omitempty"`
}

// ResolutionPayload payload.
type ResolutionPayload struct {
	Outcome  domain.ResolutionOutcome `json:"outcome"`
	Decision domain.Decision          `json:"decision,omitempty"`
}
