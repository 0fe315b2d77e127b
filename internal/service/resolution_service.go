package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// ResolutionService drives the propose/approve sub-state of a request.
type ResolutionService struct {
	engine
}

// NewResolutionService constructs the service.
func NewResolutionService(deps EngineDependencies) *ResolutionService {
	return &ResolutionService{engine: newEngine(deps)}
}

// Propose records the assignee's claimed outcome. At most one proposal can
// be pending per request; concurrent proposals past the first get CONFLICT.
func (s *ResolutionService) Propose(ctx context.Context, principal domain.Principal, requestID, rawOutcome string) (*Outcome, error) {
	if err := s.authorize(principal, access.ActionProposeResolution, nil, requestID); err != nil {
		return nil, err
	}
	outcome, ok := domain.ParseResolutionOutcome(rawOutcome)
	if !ok {
		return nil, apperrors.NewValidationError("unknown resolution outcome", map[string]any{"outcome": rawOutcome})
	}

	req, _, err := s.mutate(ctx, requestID, func(_ repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		if !req.IsAssignedTo(principal.ID) {
			return nil, apperrors.NewUnauthorized("only the assigned technician may propose a resolution",
				details(access.ActionProposeResolution, req.ID))
		}
		if req.HasPendingResolution() {
			return nil, apperrors.NewConflict("a resolution proposal is already pending", map[string]any{"request_id": req.ID})
		}
		if req.Status == domain.StatusDone {
			return nil, apperrors.NewConflict("request is already closed", map[string]any{"request_id": req.ID})
		}
		now := s.now()
		req.Resolution = &domain.Resolution{
			Phase:      domain.ResolutionPending,
			Outcome:    outcome,
			ProposedBy: principal.ID,
			ProposedAt: now,
		}
		req.UpdatedAt = now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	intents := []domain.Intent{logIntent(req.ID, fmt.Sprintf("resolution proposed: %s", outcome))}
	intents = append(intents, notifyAll(principal.ID,
		fmt.Sprintf("A resolution (%s) was proposed for %q and awaits approval", outcome, req.Title), req.CreatedBy)...)
	s.emit(ctx, events.EventResolutionProposed, req.ID, principal.ID, intents, events.ResolutionPayload{Outcome: outcome})
	return &Outcome{Request: req, Intents: intents}, nil
}

// Decide approves or rejects the pending proposal. Supervisors holding
// approveResolution may decide on any request; otherwise the creator may
// decide through userApproveResolution. Approval closes the request,
// rejection reopens it as Pending.
func (s *ResolutionService) Decide(ctx context.Context, principal domain.Principal, requestID, rawDecision string) (*Outcome, error) {
	supervisor, err := s.check(principal, access.ActionApproveResolution, nil, requestID)
	if err != nil {
		return nil, err
	}
	if !supervisor {
		if err := s.authorize(principal, access.ActionUserApproveResolution, nil, requestID); err != nil {
			return nil, err
		}
	}
	decision, ok := domain.ParseDecision(rawDecision)
	if !ok {
		return nil, apperrors.NewValidationError("decision must be approved or rejected", map[string]any{"decision": rawDecision})
	}

	var proposedBy string
	var outcome domain.ResolutionOutcome
	req, _, err := s.mutate(ctx, requestID, func(_ repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		if !supervisor && req.CreatedBy != principal.ID {
			return nil, apperrors.NewUnauthorized("only the request creator may approve this resolution",
				details(access.ActionUserApproveResolution, req.ID))
		}
		if !req.HasPendingResolution() {
			return nil, apperrors.NewConflict("no resolution is awaiting a decision", map[string]any{"request_id": req.ID})
		}
		now := s.now()
		res := req.Resolution
		proposedBy = res.ProposedBy
		outcome = res.Outcome
		res.DecidedBy = ptr(principal.ID)
		res.DecidedAt = ptr(now)
		if decision == domain.DecisionApproved {
			res.Phase = domain.ResolutionApproved
			req.Status = domain.StatusDone
		} else {
			res.Phase = domain.ResolutionRejected
			req.Status = domain.StatusPending
		}
		req.UpdatedAt = now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	intents := []domain.Intent{logIntent(req.ID, fmt.Sprintf("resolution %s: %s", decision, outcome))}
	intents = append(intents, notifyAll(principal.ID,
		fmt.Sprintf("Your proposed resolution for %q was %s", req.Title, decision), proposedBy)...)
	intents = append(intents, notifyAll(principal.ID,
		fmt.Sprintf("Request %q is now %s", req.Title, req.Status), req.CreatedBy)...)
	s.emit(ctx, events.EventResolutionDecided, req.ID, principal.ID, intents,
		events.ResolutionPayload{Outcome: outcome, Decision: decision})
	return &Outcome{Request: req, Intents: intents}, nil
}
