package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MachineID   string `json:"machineId"`
	Priority    string `json:"priority"`
}

// UpdateRequestRequest payload. Omitted fields are left unchanged.
type UpdateRequestRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	MachineID   *string `json:"machineId"`
	Priority    *string `json:"priority"`
}

// UpdateStatusRequest payload. Any legacy spelling is accepted.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// DeletionRequestRequest payload.
type DeletionRequestRequest struct {
	Reason string `json:"reason"`
}

// ProposeResolutionRequest payload.
type ProposeResolutionRequest struct {
	Status string `json:"status"`
}

// DecisionRequest payload.
type DecisionRequest struct {
	Decision string `json:"decision"`
}

// PendingResolution is the legacy view of an open proposal.
type PendingResolution struct {
	Status domain.ResolutionOutcome `json:"status"`
	By     string                   `json:"by"`
	At     time.Time                `json:"at"`
}

// ResolutionResponse is the full audit view of the latest proposal.
type ResolutionResponse struct {
	Phase      domain.ResolutionPhase   `json:"phase"`
	Outcome    domain.ResolutionOutcome `json:"outcome"`
	ProposedBy string                   `json:"proposedBy"`
	ProposedAt time.Time                `json:"proposedAt"`
	DecidedBy  *string                  `json:"decidedBy"`
	DecidedAt  *time.Time               `json:"decidedAt"`
}

// RequestResponse provides full request info. PendingResolution,
// ResolutionRequestStatus and UserApproval are derived from Resolution.
type RequestResponse struct {
	ID                      string                  `json:"id"`
	Title                   string                  `json:"title"`
	Description             string                  `json:"description"`
	MachineID               string                  `json:"machineId"`
	Priority                domain.Priority         `json:"priority"`
	Status                  domain.RequestStatus    `json:"status"`
	CreatedBy               string                  `json:"createdBy"`
	AssignedTo              *string                 `json:"assignedTo"`
	AssignedBy              *string                 `json:"assignedBy"`
	Participants            []string                `json:"participants"`
	PendingResolution       *PendingResolution      `json:"pendingResolution"`
	ResolutionRequestStatus *domain.ResolutionPhase `json:"resolutionRequestStatus"`
	UserApproval            *string                 `json:"userApproval"`
	Resolution              *ResolutionResponse     `json:"resolution"`
	CreatedAt               time.Time               `json:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}

// IntentResponse echoes a side effect emitted by a mutation.
type IntentResponse struct {
	Type    domain.IntentType `json:"type"`
	Target  string            `json:"target"`
	Message string            `json:"message"`
}

// MutationResponse wraps the state after a lifecycle operation.
type MutationResponse struct {
	Request            *RequestResponse         `json:"request,omitempty"`
	Assignment         *AssignmentResponse      `json:"assignment,omitempty"`
	DeletionRequest    *DeletionRequestResponse `json:"deletionRequest,omitempty"`
	RemovedAssignments *int                     `json:"removedAssignments,omitempty"`
	Intents            []IntentResponse         `json:"intents"`
}

// DeletionRequestResponse response.
type DeletionRequestResponse struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId"`
	RequestedBy string    `json:"requestedBy"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryResponse is one audit log entry.
type HistoryResponse struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	ActorID   string    `json:"actorId"`
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
