package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// Outcome is returned by every successful lifecycle operation. Intents have
// already been handed to the dispatcher by the time the caller sees them.
type Outcome struct {
	Request            *domain.Request
	Assignment         *domain.Assignment
	DeletionRequest    *domain.DeletionRequest
	RemovedAssignments int
	Intents            []domain.Intent
}

// EngineDependencies bundles what every lifecycle service needs.
type EngineDependencies struct {
	Gate       *access.Gate
	Requests   repository.RequestRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// guard wraps the gate so denials and configuration defects become stable
// outcome codes.
type guard struct {
	gate   *access.Gate
	logger *zap.Logger
}

func (g guard) authorize(principal domain.Principal, action access.Action, resource *access.Resource, resourceID string) error {
	ok, err := g.check(principal, action, resource, resourceID)
	if err != nil {
		return err
	}
	if !ok {
		return deny(action, resourceID)
	}
	return nil
}

// check reports the gate decision, turning an unknown action into a
// CONFIGURATION_ERROR.
func (g guard) check(principal domain.Principal, action access.Action, resource *access.Resource, resourceID string) (bool, error) {
	ok, err := g.gate.CanPerform(principal, action, resource)
	if err != nil {
		g.logger.Warn("permission table has no rule for action",
			zap.String("action", string(action)),
			zap.String("role", string(principal.Role)),
			zap.Error(err))
		return false, apperrors.NewConfigurationError("permission check misconfigured", details(action, resourceID), err)
	}
	return ok, nil
}

func deny(action access.Action, resourceID string) error {
	return apperrors.NewUnauthorized(fmt.Sprintf("not allowed to %s", action), details(action, resourceID))
}

func details(action access.Action, resourceID string) map[string]any {
	d := map[string]any{"action": string(action)}
	if resourceID != "" {
		d["resource_id"] = resourceID
	}
	return d
}

// engine is the shared core of the request lifecycle services.
type engine struct {
	guard
	requests   repository.RequestRepository
	dispatcher events.Dispatcher
	clock      func() time.Time
}

func newEngine(deps EngineDependencies) engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return engine{
		guard:      guard{gate: deps.Gate, logger: logger},
		requests:   deps.Requests,
		dispatcher: deps.Dispatcher,
		clock:      clock,
	}
}

func (e *engine) now() time.Time {
	return e.clock()
}

func (e *engine) loadRequest(ctx context.Context, id string) (*domain.Request, error) {
	req, err := e.requests.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "request", "request_id", id)
	}
	return req, nil
}

// mutate runs fn against the freshest copy of the request inside the
// store's transaction primitive.
func (e *engine) mutate(ctx context.Context, id string, fn repository.MutateFunc) (*domain.Request, *domain.Assignment, error) {
	var appended *domain.Assignment
	req, err := e.requests.Mutate(ctx, id, func(scope repository.MutationScope, req *domain.Request) (*domain.Assignment, error) {
		a, err := fn(scope, req)
		appended = a
		return a, err
	})
	if err != nil {
		return nil, nil, notFoundOr(err, "request", "request_id", id)
	}
	return req, appended, nil
}

// visible reports whether principal may see req: participants always can,
// others need viewAllRequests.
func (e *engine) visible(principal domain.Principal, req *domain.Request) (bool, error) {
	if req.IsParticipant(principal.ID) {
		return true, nil
	}
	return e.check(principal, access.ActionViewAllRequests, nil, req.ID)
}

func (e *engine) requireVisible(principal domain.Principal, action access.Action, req *domain.Request) error {
	ok, err := e.visible(principal, req)
	if err != nil {
		return err
	}
	if !ok {
		return deny(action, req.ID)
	}
	return nil
}

// emit publishes intents after commit. Delivery failures are logged and
// never reach the caller.
func (e *engine) emit(ctx context.Context, eventType events.EventType, requestID, actorID string, intents []domain.Intent, payload any) {
	if e.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		ActorID:   actorID,
		Timestamp: e.now(),
		Intents:   intents,
		Payload:   payload,
	}
	if err := e.dispatcher.Publish(ctx, event); err != nil {
		e.logger.Warn("side effect delivery failed",
			zap.String("event_type", string(eventType)),
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

func notFoundOr(err error, resource, key, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{key: id})
	}
	return apperrors.MapError(err)
}

// notifyAll builds notify intents for every distinct target except the
// actor.
func notifyAll(actorID, message string, targets ...string) []domain.Intent {
	seen := map[string]bool{actorID: true, "": true}
	var intents []domain.Intent
	for _, target := range targets {
		if seen[target] {
			continue
		}
		seen[target] = true
		intents = append(intents, domain.Intent{Type: domain.IntentNotify, Target: target, Message: message})
	}
	return intents
}

func logIntent(requestID, message string) domain.Intent {
	return domain.Intent{Type: domain.IntentLog, Target: requestID, Message: message}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr[T any](v T) *T {
	return &v
}
