package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// RequestService implements the core request lifecycle operations.
type RequestService struct {
	engine
	machines  repository.MachineRepository
	history   repository.HistoryRepository
	deletions repository.DeletionRequestRepository
}

// RequestDependencies wires the request service.
type RequestDependencies struct {
	EngineDependencies
	MachineRepo         repository.MachineRepository
	HistoryRepo         repository.HistoryRepository
	DeletionRequestRepo repository.DeletionRequestRepository
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		engine:    newEngine(deps.EngineDependencies),
		machines:  deps.MachineRepo,
		history:   deps.HistoryRepo,
		deletions: deps.DeletionRequestRepo,
	}
}

// CreateRequestInput defines fields for a new request.
type CreateRequestInput struct {
	Title       string
	Description string
	MachineID   string
	Priority    string
}

// UpdateRequestInput defines mutable request details. Nil fields are left
// unchanged.
type UpdateRequestInput struct {
	Title       *string
	Description *string
	MachineID   *string
	Priority    *string
}

// ListRequestsInput carries raw listing filters.
type ListRequestsInput struct {
	Status     string
	Priority   string
	AssignedTo string
	MachineID  string
	Limit      int
	Offset     int
}

// Create opens a new Pending request with the creator as its only
// participant, and records an unassigned placeholder assignment.
func (s *RequestService) Create(ctx context.Context, principal domain.Principal, input CreateRequestInput) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionCreateRequest, nil, ""); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	machineID := strings.TrimSpace(input.MachineID)
	if machineID == "" {
		return nil, apperrors.NewValidationError("machine is required", map[string]any{"field": "machineId"})
	}
	priority := domain.PriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		p, ok := domain.ParsePriority(input.Priority)
		if !ok {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
		}
		priority = p
	}
	if _, err := s.machines.GetByID(ctx, machineID); err != nil {
		return nil, notFoundOr(err, "machine", "machine_id", machineID)
	}

	now := s.now()
	req := &domain.Request{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		MachineID:    machineID,
		Priority:     priority,
		Status:       domain.StatusPending,
		CreatedBy:    principal.ID,
		Participants: []string{principal.ID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	placeholder := &domain.Assignment{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		AssignedBy: principal.ID,
		AssignedAt: now,
	}
	if err := s.requests.Create(ctx, req, placeholder); err != nil {
		return nil, apperrors.MapError(err)
	}

	intents := []domain.Intent{logIntent(req.ID, "request created")}
	s.emit(ctx, events.EventRequestCreated, req.ID, principal.ID, intents, nil)
	return &Outcome{Request: req, Assignment: placeholder, Intents: intents}, nil
}

// Get returns a request visible to principal.
func (s *RequestService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Request, error) {
	if err := s.authorize(principal, access.ActionViewRequest, nil, id); err != nil {
		return nil, err
	}
	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(principal, access.ActionViewRequest, req); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns requests matching the filters. Principals without
// viewAllRequests only see requests they participate in.
func (s *RequestService) List(ctx context.Context, principal domain.Principal, input ListRequestsInput) ([]domain.Request, error) {
	if err := s.authorize(principal, access.ActionViewRequest, nil, ""); err != nil {
		return nil, err
	}
	viewAll, err := s.check(principal, access.ActionViewAllRequests, nil, "")
	if err != nil {
		return nil, err
	}

	filter := repository.RequestFilter{Limit: input.Limit, Offset: input.Offset}
	if !viewAll {
		filter.ParticipantID = ptr(principal.ID)
	}
	if strings.TrimSpace(input.Status) != "" {
		filter.Status = ptr(domain.NormalizeStatus(input.Status))
	}
	if strings.TrimSpace(input.Priority) != "" {
		p, ok := domain.ParsePriority(input.Priority)
		if !ok {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
		}
		filter.Priority = &p
	}
	if input.AssignedTo != "" {
		filter.AssignedTo = ptr(input.AssignedTo)
	}
	if input.MachineID != "" {
		filter.MachineID = ptr(input.MachineID)
	}

	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reqs, nil
}

// UpdateDetails edits title, description, machine or priority.
func (s *RequestService) UpdateDetails(ctx context.Context, principal domain.Principal, id string, input UpdateRequestInput) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionUpdateRequest, nil, id); err != nil {
		return nil, err
	}

	var title string
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", map[string]any{"field": "title"})
		}
	}
	var priority domain.Priority
	if input.Priority != nil {
		p, ok := domain.ParsePriority(*input.Priority)
		if !ok {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		priority = p
	}
	if input.MachineID != nil {
		if _, err := s.machines.GetByID(ctx, *input.MachineID); err != nil {
			return nil, notFoundOr(err, "machine", "machine_id", *input.MachineID)
		}
	}

	req, _, err := s.mutate(ctx, id, func(_ repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		if input.Title != nil {
			req.Title = title
		}
		if input.Description != nil {
			req.Description = strings.TrimSpace(*input.Description)
		}
		if input.MachineID != nil {
			req.MachineID = *input.MachineID
		}
		if input.Priority != nil {
			req.Priority = priority
		}
		req.UpdatedAt = s.now()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	intents := []domain.Intent{logIntent(req.ID, "request details updated")}
	intents = append(intents, notifyAll(principal.ID, fmt.Sprintf("Request %q was updated", req.Title), req.CreatedBy, deref(req.AssignedTo))...)
	s.emit(ctx, events.EventRequestUpdated, req.ID, principal.ID, intents, nil)
	return &Outcome{Request: req, Intents: intents}, nil
}

// UpdateStatus moves a request to the normalized form of rawStatus.
// Callers holding only updateRequestStatus must be the current assignee and
// cannot close a request while a proposal awaits a decision. Closing with
// updateRequest settles a pending proposal as approved by the caller.
func (s *RequestService) UpdateStatus(ctx context.Context, principal domain.Principal, id, rawStatus string) (*Outcome, error) {
	canUpdate, err := s.check(principal, access.ActionUpdateRequest, nil, id)
	if err != nil {
		return nil, err
	}
	if !canUpdate {
		if err := s.authorize(principal, access.ActionUpdateRequestStatus, nil, id); err != nil {
			return nil, err
		}
	}

	status := domain.NormalizeStatus(rawStatus)
	var previous domain.RequestStatus
	req, _, err := s.mutate(ctx, id, func(_ repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		if !canUpdate && !req.IsAssignedTo(principal.ID) {
			return nil, apperrors.NewUnauthorized("only the assigned technician may change the status",
				details(access.ActionUpdateRequestStatus, req.ID))
		}
		if !canUpdate && status == domain.StatusDone && req.HasPendingResolution() {
			return nil, apperrors.NewConflict("a resolution proposal is awaiting a decision",
				map[string]any{"request_id": req.ID})
		}
		previous = req.Status
		now := s.now()
		if status == domain.StatusDone && req.HasPendingResolution() {
			req.Resolution.Phase = domain.ResolutionApproved
			req.Resolution.DecidedBy = ptr(principal.ID)
			req.Resolution.DecidedAt = ptr(now)
		}
		req.Status = status
		req.UpdatedAt = now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	var intents []domain.Intent
	if previous != status {
		intents = append(intents, logIntent(req.ID, fmt.Sprintf("status changed from %s to %s", previous, status)))
		intents = append(intents, notifyAll(principal.ID, fmt.Sprintf("Request %q is now %s", req.Title, status), req.CreatedBy, deref(req.AssignedTo))...)
		s.emit(ctx, events.EventRequestStatusChanged, req.ID, principal.ID, intents,
			events.StatusChangedPayload{OldStatus: previous, NewStatus: status})
	}
	return &Outcome{Request: req, Intents: intents}, nil
}

// Delete removes a request together with its assignment trail, deletion
// requests and history.
func (s *RequestService) Delete(ctx context.Context, principal domain.Principal, id string) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionDeleteRequest, nil, id); err != nil {
		return nil, err
	}
	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	removed, err := s.requests.Delete(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "request", "request_id", id)
	}

	intents := notifyAll(principal.ID, fmt.Sprintf("Request %q was deleted", req.Title), req.Participants...)
	s.emit(ctx, events.EventRequestDeleted, req.ID, principal.ID, intents, nil)
	return &Outcome{Request: req, RemovedAssignments: removed, Intents: intents}, nil
}

// RequestDeletion files a deletion request for admins to review.
func (s *RequestService) RequestDeletion(ctx context.Context, principal domain.Principal, id, reason string) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionRequestDeleteRequest, nil, id); err != nil {
		return nil, err
	}
	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(principal, access.ActionRequestDeleteRequest, req); err != nil {
		return nil, err
	}

	deletion := &domain.DeletionRequest{
		ID:          uuid.NewString(),
		RequestID:   req.ID,
		RequestedBy: principal.ID,
		Reason:      strings.TrimSpace(reason),
		CreatedAt:   s.now(),
	}
	if err := s.deletions.Create(ctx, deletion); err != nil {
		return nil, apperrors.MapError(err)
	}

	intents := []domain.Intent{
		logIntent(req.ID, "deletion requested"),
		{Type: domain.IntentNotify, Target: domain.TargetAdmins, Message: fmt.Sprintf("Deletion requested for %q", req.Title)},
	}
	s.emit(ctx, events.EventRequestDeletionRequested, req.ID, principal.ID, intents, nil)
	return &Outcome{Request: req, DeletionRequest: deletion, Intents: intents}, nil
}

// ListDeletionRequests returns pending deletion requests for reviewers.
func (s *RequestService) ListDeletionRequests(ctx context.Context, principal domain.Principal, limit, offset int) ([]domain.DeletionRequest, error) {
	if err := s.authorize(principal, access.ActionDeleteRequest, nil, ""); err != nil {
		return nil, err
	}
	items, err := s.deletions.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// History returns the audit log of a request visible to principal.
func (s *RequestService) History(ctx context.Context, principal domain.Principal, id string, limit, offset int) ([]domain.RequestHistory, error) {
	if err := s.authorize(principal, access.ActionViewHistory, nil, id); err != nil {
		return nil, err
	}
	req, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(principal, access.ActionViewHistory, req); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByRequest(ctx, id, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}
