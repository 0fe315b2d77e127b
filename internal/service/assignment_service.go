package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// AssignmentService assigns technicians to requests and exposes the
// append-only assignment trail.
type AssignmentService struct {
	engine
	assignments repository.AssignmentRepository
	users       repository.UserRepository
}

// AssignmentDependencies wires the assignment service.
type AssignmentDependencies struct {
	EngineDependencies
	AssignmentRepo repository.AssignmentRepository
	UserRepo       repository.UserRepository
}

// NewAssignmentService constructs the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		engine:      newEngine(deps.EngineDependencies),
		assignments: deps.AssignmentRepo,
		users:       deps.UserRepo,
	}
}

// ListAssignmentsInput carries listing filters.
type ListAssignmentsInput struct {
	RequestID    string
	TechnicianID string
	Limit        int
	Offset       int
}

// Assign hands an unassigned request to a technician. Assigning the current
// assignee again only appends another trail entry.
func (s *AssignmentService) Assign(ctx context.Context, principal domain.Principal, requestID, technicianID string) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionAssignTask, nil, requestID); err != nil {
		return nil, err
	}
	tech, err := s.technician(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	req, assignment, err := s.mutate(ctx, requestID, func(scope repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		if err := stillAssignable(scope, tech.ID); err != nil {
			return nil, err
		}
		if req.AssignedTo != nil && *req.AssignedTo != tech.ID {
			return nil, apperrors.NewConflict("request is already assigned; reassign it instead",
				map[string]any{"request_id": req.ID, "assigned_to": *req.AssignedTo})
		}
		now := s.now()
		req.AssignedTo = ptr(tech.ID)
		req.AssignedBy = ptr(principal.ID)
		req.AddParticipants(req.CreatedBy, tech.ID)
		req.UpdatedAt = now
		return s.entry(req.ID, ptr(tech.ID), principal.ID), nil
	})
	if err != nil {
		return nil, err
	}

	intents := []domain.Intent{logIntent(req.ID, fmt.Sprintf("assigned to %s", tech.Name))}
	intents = append(intents, notifyAll(principal.ID, fmt.Sprintf("You were assigned to %q", req.Title), tech.ID)...)
	intents = append(intents, notifyAll(principal.ID, fmt.Sprintf("Request %q was assigned to %s", req.Title, tech.Name), req.CreatedBy)...)
	s.emit(ctx, events.EventRequestAssigned, req.ID, principal.ID, intents,
		events.AssignmentPayload{AssignmentID: assignment.ID, TechnicianID: assignment.TechnicianID})
	return &Outcome{Request: req, Assignment: assignment, Intents: intents}, nil
}

// Reassign moves an assigned request to a different technician. The
// previous assignee stays a participant.
func (s *AssignmentService) Reassign(ctx context.Context, principal domain.Principal, requestID, technicianID string) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionReassignTask, nil, requestID); err != nil {
		return nil, err
	}
	tech, err := s.technician(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	var previous string
	req, assignment, err := s.mutate(ctx, requestID, func(scope repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		if err := stillAssignable(scope, tech.ID); err != nil {
			return nil, err
		}
		if req.AssignedTo == nil {
			return nil, apperrors.NewConflict("request is not assigned; assign it instead", map[string]any{"request_id": req.ID})
		}
		if *req.AssignedTo == tech.ID {
			return nil, apperrors.NewConflict("request is already assigned to this technician",
				map[string]any{"request_id": req.ID, "technician_id": tech.ID})
		}
		if req.HasPendingResolution() {
			return nil, apperrors.NewConflict("a resolution proposal is awaiting a decision", map[string]any{"request_id": req.ID})
		}
		previous = *req.AssignedTo
		req.AssignedTo = ptr(tech.ID)
		req.AssignedBy = ptr(principal.ID)
		req.AddParticipants(tech.ID)
		req.UpdatedAt = s.now()
		return s.entry(req.ID, ptr(tech.ID), principal.ID), nil
	})
	if err != nil {
		return nil, err
	}

	intents := []domain.Intent{logIntent(req.ID, fmt.Sprintf("reassigned to %s", tech.Name))}
	intents = append(intents, notifyAll(principal.ID, fmt.Sprintf("You were assigned to %q", req.Title), tech.ID)...)
	intents = append(intents, notifyAll(principal.ID, fmt.Sprintf("Request %q was reassigned", req.Title), previous, req.CreatedBy)...)
	s.emit(ctx, events.EventRequestReassigned, req.ID, principal.ID, intents,
		events.AssignmentPayload{AssignmentID: assignment.ID, TechnicianID: assignment.TechnicianID, PreviousTechnician: ptr(previous)})
	return &Outcome{Request: req, Assignment: assignment, Intents: intents}, nil
}

// Unassign clears the current assignee and records an unassigned entry.
func (s *AssignmentService) Unassign(ctx context.Context, principal domain.Principal, requestID string) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionUnassignTask, nil, requestID); err != nil {
		return nil, err
	}

	var previous string
	req, assignment, err := s.mutate(ctx, requestID, func(_ repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		if req.AssignedTo == nil {
			return nil, apperrors.NewConflict("request is not assigned", map[string]any{"request_id": req.ID})
		}
		if req.HasPendingResolution() {
			return nil, apperrors.NewConflict("a resolution proposal is awaiting a decision", map[string]any{"request_id": req.ID})
		}
		previous = *req.AssignedTo
		req.AssignedTo = nil
		req.AssignedBy = nil
		req.RemoveParticipant(previous)
		req.UpdatedAt = s.now()
		return s.entry(req.ID, nil, principal.ID), nil
	})
	if err != nil {
		return nil, err
	}

	intents := []domain.Intent{logIntent(req.ID, "unassigned")}
	intents = append(intents, notifyAll(principal.ID, fmt.Sprintf("You were unassigned from %q", req.Title), previous)...)
	s.emit(ctx, events.EventRequestUnassigned, req.ID, principal.ID, intents,
		events.AssignmentPayload{AssignmentID: assignment.ID, PreviousTechnician: ptr(previous)})
	return &Outcome{Request: req, Assignment: assignment, Intents: intents}, nil
}

// List returns trail entries across all requests.
func (s *AssignmentService) List(ctx context.Context, principal domain.Principal, input ListAssignmentsInput) ([]domain.Assignment, error) {
	if err := s.authorize(principal, access.ActionGetAllAssignments, nil, ""); err != nil {
		return nil, err
	}
	filter := repository.AssignmentFilter{Limit: input.Limit, Offset: input.Offset}
	if input.RequestID != "" {
		filter.RequestID = ptr(input.RequestID)
	}
	if input.TechnicianID != "" {
		filter.TechnicianID = ptr(input.TechnicianID)
	}
	items, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Get returns one trail entry. Technicians may only read their own.
func (s *AssignmentService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Assignment, error) {
	if err := s.authorize(principal, access.ActionViewAssignment, nil, id); err != nil {
		return nil, err
	}
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "assignment", "assignment_id", id)
	}
	resource := &access.Resource{TechnicianID: deref(assignment.TechnicianID)}
	if err := s.authorize(principal, access.ActionViewAssignment, resource, id); err != nil {
		return nil, err
	}
	return assignment, nil
}

// ListForTechnician returns the trail entries naming technicianID.
func (s *AssignmentService) ListForTechnician(ctx context.Context, principal domain.Principal, technicianID string, limit, offset int) ([]domain.Assignment, error) {
	resource := &access.Resource{TechnicianID: technicianID}
	if err := s.authorize(principal, access.ActionViewAssignmentsByTechnician, resource, technicianID); err != nil {
		return nil, err
	}
	items, err := s.assignments.List(ctx, repository.AssignmentFilter{
		TechnicianID: ptr(technicianID),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Delete removes a historical trail entry. The request's latest entry
// cannot be removed while it names the current assignee.
func (s *AssignmentService) Delete(ctx context.Context, principal domain.Principal, id string) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionDeleteAssignment, nil, id); err != nil {
		return nil, err
	}
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "assignment", "assignment_id", id)
	}

	req, err := s.requests.GetByID(ctx, assignment.RequestID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.MapError(err)
		}
		req = nil
	}
	if req != nil && assignment.TechnicianID != nil && req.IsAssignedTo(*assignment.TechnicianID) {
		latest, err := s.assignments.Latest(ctx, req.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.MapError(err)
		}
		if latest != nil && latest.ID == assignment.ID {
			return nil, apperrors.NewConflict("assignment backs the current assignee; unassign first",
				map[string]any{"assignment_id": id, "request_id": req.ID})
		}
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, "assignment", "assignment_id", id)
	}

	var intents []domain.Intent
	if req != nil {
		intents = append(intents, logIntent(req.ID, "assignment entry removed"))
	}
	s.emit(ctx, events.EventAssignmentDeleted, assignment.RequestID, principal.ID, intents,
		events.AssignmentPayload{AssignmentID: assignment.ID, TechnicianID: assignment.TechnicianID})
	return &Outcome{Request: req, Assignment: assignment, Intents: intents}, nil
}

// technician loads an account that can receive assignments.
func (s *AssignmentService) technician(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("technician is required", map[string]any{"field": "technicianId"})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "technician", "technician_id", id)
	}
	if !user.Assignable() {
		return nil, apperrors.NewConflict("user cannot receive assignments",
			map[string]any{"technician_id": id, "role": string(user.Role), "active": user.Active})
	}
	return user, nil
}

// stillAssignable repeats the technician check inside the mutation, so a
// deactivation or role change that lands after the first check aborts the
// write.
func stillAssignable(scope repository.MutationScope, id string) error {
	user, err := scope.User(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewConflict("technician was removed", map[string]any{"technician_id": id})
		}
		return err
	}
	if !user.Assignable() {
		return apperrors.NewConflict("technician can no longer receive assignments",
			map[string]any{"technician_id": id, "role": string(user.Role), "active": user.Active})
	}
	return nil
}

func (s *AssignmentService) entry(requestID string, technicianID *string, assignedBy string) *domain.Assignment {
	return &domain.Assignment{
		ID:           uuid.NewString(),
		RequestID:    requestID,
		TechnicianID: technicianID,
		AssignedBy:   assignedBy,
		AssignedAt:   s.now(),
	}
}
