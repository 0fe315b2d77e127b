package service

import (
	"context"
	"testing"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

func TestAssignIsIdempotentForParticipants(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.openRequest(t)

	for i := 0; i < 2; i++ {
		if _, err := h.assignments.Assign(ctx, h.lead, req.ID, h.tech.ID); err != nil {
			t.Fatalf("assign #%d: %v", i+1, err)
		}
	}

	got := h.fetch(t, req.ID)
	if len(got.Participants) != 2 {
		t.Fatalf("expected creator and technician, got %v", got.Participants)
	}
	trail, err := h.assignments.List(ctx, h.lead, ListAssignmentsInput{RequestID: req.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("expected placeholder plus two entries, got %d", len(trail))
	}
	if trail[0].TechnicianID != nil {
		t.Fatalf("placeholder should be unassigned, got %v", *trail[0].TechnicianID)
	}
}

func TestAssignRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)

	_, err := h.assignments.Assign(ctx, h.lead, req.ID, h.tech2.ID)
	expectCode(t, err, apperrors.CodeConflict)

	_, err = h.assignments.Assign(ctx, h.lead, req.ID, h.operator.ID)
	expectCode(t, err, apperrors.CodeConflict)

	_, err = h.assignments.Assign(ctx, h.lead, req.ID, "ghost")
	expectCode(t, err, apperrors.CodeNotFound)

	_, err = h.assignments.Assign(ctx, h.lead, "missing", h.tech.ID)
	expectCode(t, err, apperrors.CodeNotFound)

	_, err = h.assignments.Assign(ctx, h.tech, req.ID, h.tech.ID)
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestReassignKeepsPreviousParticipant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)

	out, err := h.assignments.Reassign(ctx, h.lead, req.ID, h.tech2.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if !out.Request.IsAssignedTo(h.tech2.ID) {
		t.Fatalf("expected tech-2, got %v", deref(out.Request.AssignedTo))
	}
	if !out.Request.IsParticipant(h.tech.ID) || !out.Request.IsParticipant(h.tech2.ID) {
		t.Fatalf("participants %v", out.Request.Participants)
	}

	_, err = h.assignments.Reassign(ctx, h.lead, req.ID, h.tech2.ID)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestReassignBlockedByPendingProposal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)
	if _, err := h.resolutions.Propose(ctx, h.tech, req.ID, "Resolved"); err != nil {
		t.Fatalf("propose: %v", err)
	}

	_, err := h.assignments.Reassign(ctx, h.lead, req.ID, h.tech2.ID)
	expectCode(t, err, apperrors.CodeConflict)
	_, err = h.assignments.Unassign(ctx, h.lead, req.ID)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestUnassign(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)

	out, err := h.assignments.Unassign(ctx, h.lead, req.ID)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if out.Request.AssignedTo != nil || out.Request.IsParticipant(h.tech.ID) {
		t.Fatalf("technician still attached: %+v", out.Request)
	}
	if !out.Request.IsParticipant(h.operator.ID) {
		t.Fatal("creator must stay a participant")
	}
	if out.Assignment.TechnicianID != nil {
		t.Fatal("unassign entry should carry no technician")
	}

	_, err = h.assignments.Unassign(ctx, h.lead, req.ID)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestAssignmentTechnicianScope(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	out := h.assignedRequest(t)
	trail, err := h.assignments.ListForTechnician(ctx, h.tech, h.tech.ID, 0, 0)
	if err != nil {
		t.Fatalf("own list: %v", err)
	}
	if len(trail) != 1 || trail[0].RequestID != out.ID {
		t.Fatalf("unexpected trail %+v", trail)
	}

	if _, err := h.assignments.Get(ctx, h.tech, trail[0].ID); err != nil {
		t.Fatalf("own entry: %v", err)
	}
	_, err = h.assignments.Get(ctx, h.tech2, trail[0].ID)
	expectCode(t, err, apperrors.CodeUnauthorized)
	_, err = h.assignments.ListForTechnician(ctx, h.tech2, h.tech.ID, 0, 0)
	expectCode(t, err, apperrors.CodeUnauthorized)
	_, err = h.assignments.Get(ctx, h.operator, trail[0].ID)
	expectCode(t, err, apperrors.CodeUnauthorized)

	if _, err := h.assignments.Get(ctx, h.lead, trail[0].ID); err != nil {
		t.Fatalf("lead read: %v", err)
	}
}

func TestDeleteAssignment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)
	if _, err := h.assignments.Reassign(ctx, h.lead, req.ID, h.tech2.ID); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	current, err := h.assignments.ListForTechnician(ctx, h.admin, h.tech2.ID, 0, 0)
	if err != nil || len(current) != 1 {
		t.Fatalf("current entry: %v %v", current, err)
	}
	_, err = h.assignments.Delete(ctx, h.admin, current[0].ID)
	expectCode(t, err, apperrors.CodeConflict)

	previous, err := h.assignments.ListForTechnician(ctx, h.admin, h.tech.ID, 0, 0)
	if err != nil || len(previous) != 1 {
		t.Fatalf("previous entry: %v %v", previous, err)
	}
	_, err = h.assignments.Delete(ctx, h.lead, previous[0].ID)
	expectCode(t, err, apperrors.CodeUnauthorized)
	if _, err := h.assignments.Delete(ctx, h.admin, previous[0].ID); err != nil {
		t.Fatalf("delete historical entry: %v", err)
	}
	_, err = h.assignments.Get(ctx, h.admin, previous[0].ID)
	expectCode(t, err, apperrors.CodeNotFound)
}

// interleavedRequests runs before between the service's own checks and the
// commit, standing in for a concurrent writer.
type interleavedRequests struct {
	repository.RequestRepository
	before func()
}

func (r interleavedRequests) Mutate(ctx context.Context, id string, fn repository.MutateFunc) (*domain.Request, error) {
	if r.before != nil {
		r.before()
	}
	return r.RequestRepository.Mutate(ctx, id, fn)
}

func TestAssignRevalidatesTechnicianBeforeCommit(t *testing.T) {
	type op func(s *AssignmentService, h *harness, req *domain.Request) error
	assign := func(s *AssignmentService, h *harness, req *domain.Request) error {
		_, err := s.Assign(context.Background(), h.lead, req.ID, h.tech.ID)
		return err
	}
	reassign := func(s *AssignmentService, h *harness, req *domain.Request) error {
		_, err := s.Reassign(context.Background(), h.lead, req.ID, h.tech2.ID)
		return err
	}
	remove := func(h *harness, id string) error {
		_, err := h.users.Remove(context.Background(), h.admin, id)
		return err
	}
	demote := func(h *harness, id string) error {
		_, err := h.users.ElevateRole(context.Background(), h.admin, id, "operator")
		return err
	}

	cases := map[string]struct {
		assigned bool
		run      op
		target   func(h *harness) string
		race     func(h *harness, id string) error
	}{
		"assign then removed":   {run: assign, target: func(h *harness) string { return h.tech.ID }, race: remove},
		"assign then demoted":   {run: assign, target: func(h *harness) string { return h.tech.ID }, race: demote},
		"reassign then removed": {assigned: true, run: reassign, target: func(h *harness) string { return h.tech2.ID }, race: remove},
		"reassign then demoted": {assigned: true, run: reassign, target: func(h *harness) string { return h.tech2.ID }, race: demote},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			var req *domain.Request
			if tc.assigned {
				req = h.assignedRequest(t)
			} else {
				req = h.openRequest(t)
			}
			before := h.fetch(t, req.ID)
			trailBefore, err := h.assignments.List(ctx, h.lead, ListAssignmentsInput{RequestID: req.ID})
			if err != nil {
				t.Fatalf("list: %v", err)
			}

			svc := NewAssignmentService(AssignmentDependencies{
				EngineDependencies: EngineDependencies{
					Gate:       access.NewGate(access.DefaultTable()),
					Dispatcher: h.dispatcher,
					Requests: interleavedRequests{
						RequestRepository: h.store.Requests(),
						before: func() {
							if err := tc.race(h, tc.target(h)); err != nil {
								t.Errorf("concurrent user change: %v", err)
							}
						},
					},
				},
				AssignmentRepo: h.store.Assignments(),
				UserRepo:       h.store.Users(),
			})

			expectCode(t, tc.run(svc, h, req), apperrors.CodeConflict)

			after := h.fetch(t, req.ID)
			if deref(after.AssignedTo) != deref(before.AssignedTo) {
				t.Fatalf("assignee changed from %q to %q", deref(before.AssignedTo), deref(after.AssignedTo))
			}
			if after.IsParticipant(tc.target(h)) {
				t.Fatalf("rejected technician joined participants: %v", after.Participants)
			}
			trailAfter, err := h.assignments.List(ctx, h.lead, ListAssignmentsInput{RequestID: req.ID})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(trailAfter) != len(trailBefore) {
				t.Fatalf("trail grew from %d to %d", len(trailBefore), len(trailAfter))
			}
		})
	}
}

func TestDeleteDuplicateAssignmentEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)
	if _, err := h.assignments.Assign(ctx, h.lead, req.ID, h.tech.ID); err != nil {
		t.Fatalf("repeat assign: %v", err)
	}

	entries, err := h.assignments.ListForTechnician(ctx, h.admin, h.tech.ID, 0, 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("entries: %v %v", entries, err)
	}
	older, latest := entries[0], entries[1]

	if _, err := h.assignments.Delete(ctx, h.admin, older.ID); err != nil {
		t.Fatalf("delete superseded duplicate: %v", err)
	}
	_, err = h.assignments.Delete(ctx, h.admin, latest.ID)
	expectCode(t, err, apperrors.CodeConflict)
}
