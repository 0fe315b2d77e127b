package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// MachineService manages the equipment requests are filed against.
type MachineService struct {
	guard
	machines repository.MachineRepository
	requests repository.RequestRepository
	clock    func() time.Time
}

// MachineDependencies wires the machine service.
type MachineDependencies struct {
	Gate        *access.Gate
	Logger      *zap.Logger
	MachineRepo repository.MachineRepository
	RequestRepo repository.RequestRepository
	Clock       func() time.Time
}

// NewMachineService constructs the service.
func NewMachineService(deps MachineDependencies) *MachineService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &MachineService{
		guard:    guard{gate: deps.Gate, logger: logger},
		machines: deps.MachineRepo,
		requests: deps.RequestRepo,
		clock:    clock,
	}
}

// MachineInput carries machine fields. Nil fields are left unchanged on
// update.
type MachineInput struct {
	Name        *string
	Location    *string
	Description *string
}

// List returns machines ordered by name.
func (s *MachineService) List(ctx context.Context, principal domain.Principal, limit, offset int) ([]domain.Machine, error) {
	if err := s.authorize(principal, access.ActionViewMachines, nil, ""); err != nil {
		return nil, err
	}
	items, err := s.machines.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// Create registers a machine.
func (s *MachineService) Create(ctx context.Context, principal domain.Principal, input MachineInput) (*domain.Machine, error) {
	if err := s.authorize(principal, access.ActionCreateMachine, nil, ""); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(deref(input.Name))
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	now := s.clock()
	machine := &domain.Machine{
		ID:          uuid.NewString(),
		Name:        name,
		Location:    strings.TrimSpace(deref(input.Location)),
		Description: strings.TrimSpace(deref(input.Description)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.machines.Create(ctx, machine); err != nil {
		return nil, apperrors.MapError(err)
	}
	return machine, nil
}

// Update edits a machine.
func (s *MachineService) Update(ctx context.Context, principal domain.Principal, id string, input MachineInput) (*domain.Machine, error) {
	if err := s.authorize(principal, access.ActionUpdateMachine, nil, id); err != nil {
		return nil, err
	}
	machine, err := s.machines.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "machine", "machine_id", id)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", map[string]any{"field": "name"})
		}
		machine.Name = name
	}
	if input.Location != nil {
		machine.Location = strings.TrimSpace(*input.Location)
	}
	if input.Description != nil {
		machine.Description = strings.TrimSpace(*input.Description)
	}
	machine.UpdatedAt = s.clock()
	if err := s.machines.Update(ctx, machine); err != nil {
		return nil, notFoundOr(err, "machine", "machine_id", id)
	}
	return machine, nil
}

// Delete removes a machine no request refers to.
func (s *MachineService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	if err := s.authorize(principal, access.ActionDeleteMachine, nil, id); err != nil {
		return err
	}
	if _, err := s.machines.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "machine", "machine_id", id)
	}
	refs, err := s.requests.List(ctx, repository.RequestFilter{MachineID: &id, Limit: 1})
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(refs) > 0 {
		return apperrors.NewConflict("machine is referenced by requests", map[string]any{"machine_id": id})
	}
	if err := s.machines.Delete(ctx, id); err != nil {
		return notFoundOr(err, "machine", "machine_id", id)
	}
	return nil
}
