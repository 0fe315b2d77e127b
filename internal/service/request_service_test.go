package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateRequestInput
		code  string
	}{
		{name: "missing title", input: CreateRequestInput{MachineID: h.machine}, code: apperrors.CodeValidation},
		{name: "missing machine", input: CreateRequestInput{Title: "x"}, code: apperrors.CodeValidation},
		{name: "bad priority", input: CreateRequestInput{Title: "x", MachineID: h.machine, Priority: "urgent"}, code: apperrors.CodeValidation},
		{name: "unknown machine", input: CreateRequestInput{Title: "x", MachineID: "nope"}, code: apperrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.requests.Create(ctx, h.operator, tc.input)
			expectCode(t, err, tc.code)
		})
	}
}

func TestVisibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.openRequest(t)

	if _, err := h.requests.Get(ctx, h.operator, req.ID); err != nil {
		t.Fatalf("creator get: %v", err)
	}
	if _, err := h.requests.Get(ctx, h.lead, req.ID); err != nil {
		t.Fatalf("lead get: %v", err)
	}
	_, err := h.requests.Get(ctx, h.other, req.ID)
	expectCode(t, err, apperrors.CodeUnauthorized)
	_, err = h.requests.Get(ctx, h.tech, req.ID)
	expectCode(t, err, apperrors.CodeUnauthorized)

	mine, err := h.requests.List(ctx, h.other, ListRequestsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("non-participant saw %d requests", len(mine))
	}
	all, err := h.requests.List(ctx, h.admin, ListRequestsInput{Status: "not started"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(all))
	}
}

func TestUpdateStatusNormalizesAndGuards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)

	_, err := h.requests.UpdateStatus(ctx, h.operator, req.ID, "Done")
	expectCode(t, err, apperrors.CodeUnauthorized)

	_, err = h.requests.UpdateStatus(ctx, h.tech2, req.ID, "Done")
	expectCode(t, err, apperrors.CodeUnauthorized)

	cases := []struct {
		raw  string
		want domain.RequestStatus
	}{
		{raw: "in progress", want: domain.StatusInProgress},
		{raw: "Not Started", want: domain.StatusPending},
		{raw: "bogus", want: domain.StatusPending},
		{raw: "completed", want: domain.StatusDone},
	}
	for _, tc := range cases {
		out, err := h.requests.UpdateStatus(ctx, h.tech, req.ID, tc.raw)
		if err != nil {
			t.Fatalf("update %q: %v", tc.raw, err)
		}
		if out.Request.Status != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.raw, tc.want, out.Request.Status)
		}
	}
}

func TestClosingSettlesPendingProposal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)

	if _, err := h.resolutions.Propose(ctx, h.tech, req.ID, "Resolved"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	out, err := h.requests.UpdateStatus(ctx, h.lead, req.ID, "Done")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if out.Request.HasPendingResolution() || out.Request.Resolution.Phase != domain.ResolutionApproved {
		t.Fatalf("proposal not settled: %+v", out.Request.Resolution)
	}
}

func TestAssigneeCannotCloseOwnPendingProposal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)

	if _, err := h.resolutions.Propose(ctx, h.tech, req.ID, "Resolved"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	_, err := h.requests.UpdateStatus(ctx, h.tech, req.ID, "resolved")
	expectCode(t, err, apperrors.CodeConflict)

	got := h.fetch(t, req.ID)
	if !got.HasPendingResolution() || got.Status != domain.StatusPending {
		t.Fatalf("self-close leaked: status=%s resolution=%+v", got.Status, got.Resolution)
	}

	out, err := h.requests.UpdateStatus(ctx, h.tech, req.ID, "in progress")
	if err != nil {
		t.Fatalf("move in progress: %v", err)
	}
	if !out.Request.HasPendingResolution() {
		t.Fatal("non-closing update must not settle the proposal")
	}
}

func TestUpdateDetails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.openRequest(t)

	title := "Press leaking hydraulic fluid"
	priority := "critical"
	out, err := h.requests.UpdateDetails(ctx, h.lead, req.ID, UpdateRequestInput{Title: &title, Priority: &priority})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Request.Title != title || out.Request.Priority != domain.PriorityCritical {
		t.Fatalf("unexpected request %+v", out.Request)
	}

	_, err = h.requests.UpdateDetails(ctx, h.operator, req.ID, UpdateRequestInput{Title: &title})
	expectCode(t, err, apperrors.CodeUnauthorized)

	empty := " "
	_, err = h.requests.UpdateDetails(ctx, h.lead, req.ID, UpdateRequestInput{Title: &empty})
	expectCode(t, err, apperrors.CodeValidation)
}

func TestDeleteCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assignedRequest(t)
	if _, err := h.requests.RequestDeletion(ctx, h.operator, req.ID, "duplicate"); err != nil {
		t.Fatalf("request deletion: %v", err)
	}

	_, err := h.requests.Delete(ctx, h.lead, req.ID)
	expectCode(t, err, apperrors.CodeUnauthorized)

	out, err := h.requests.Delete(ctx, h.admin, req.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out.RemovedAssignments != 2 {
		t.Fatalf("expected placeholder and assignment removed, got %d", out.RemovedAssignments)
	}

	_, err = h.requests.Get(ctx, h.admin, req.ID)
	expectCode(t, err, apperrors.CodeNotFound)

	pending, err := h.requests.ListDeletionRequests(ctx, h.admin, 0, 0)
	if err != nil {
		t.Fatalf("list deletion requests: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("deletion requests survived: %d", len(pending))
	}
	trail, err := h.assignments.List(ctx, h.admin, ListAssignmentsInput{RequestID: req.ID})
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(trail) != 0 {
		t.Fatalf("assignments survived: %d", len(trail))
	}
}

func TestRequestDeletionNotifiesAdmins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.openRequest(t)

	out, err := h.requests.RequestDeletion(ctx, h.operator, req.ID, "opened twice")
	if err != nil {
		t.Fatalf("request deletion: %v", err)
	}
	if out.DeletionRequest.Reason != "opened twice" || out.DeletionRequest.RequestedBy != h.operator.ID {
		t.Fatalf("unexpected record %+v", out.DeletionRequest)
	}

	inbox, err := h.notifications.List(ctx, h.admin, true, 0, 0)
	if err != nil {
		t.Fatalf("admin inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].RequestID != req.ID {
		t.Fatalf("expected one admin notification, got %+v", inbox)
	}

	_, err = h.requests.RequestDeletion(ctx, h.admin, req.ID, "")
	expectCode(t, err, apperrors.CodeUnauthorized)
}

func TestSideEffectFailureKeepsMutation(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.Subscribe(events.EventRequestAssigned, func(context.Context, events.Event) error {
		return errors.New("mail relay down")
	})
	req := h.openRequest(t)

	out, err := h.assignments.Assign(context.Background(), h.lead, req.ID, h.tech.ID)
	if err != nil {
		t.Fatalf("assign must succeed despite delivery failure: %v", err)
	}
	if len(out.Intents) == 0 {
		t.Fatal("expected intents in outcome")
	}
	if !h.fetch(t, req.ID).IsAssignedTo(h.tech.ID) {
		t.Fatal("mutation rolled back")
	}
}
