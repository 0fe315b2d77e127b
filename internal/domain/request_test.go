package domain

import (
	"slices"
	"testing"
	"time"
)

func TestParticipantsHaveSetSemantics(t *testing.T) {
	req := &Request{CreatedBy: "op", Participants: []string{"op"}}
	req.AddParticipants("tech", "op")
	req.AddParticipants("tech", "")

	if want := []string{"op", "tech"}; !slices.Equal(req.Participants, want) {
		t.Fatalf("participants = %v, want %v", req.Participants, want)
	}

	req.RemoveParticipant("op")
	if !req.IsParticipant("op") {
		t.Error("creator removed from participants")
	}
	req.RemoveParticipant("tech")
	if req.IsParticipant("tech") {
		t.Error("technician still a participant after removal")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	tech := "tech"
	decided := time.Now()
	by := "lead"
	orig := &Request{
		ID:           "r1",
		Participants: []string{"op"},
		AssignedTo:   &tech,
		Resolution:   &Resolution{Phase: ResolutionApproved, DecidedBy: &by, DecidedAt: &decided},
	}
	cp := orig.Clone()
	cp.Participants[0] = "changed"
	*cp.AssignedTo = "other"
	cp.Resolution.Phase = ResolutionRejected
	*cp.Resolution.DecidedBy = "admin"

	if orig.Participants[0] != "op" || *orig.AssignedTo != "tech" {
		t.Error("clone aliases participants or assignee")
	}
	if orig.Resolution.Phase != ResolutionApproved || *orig.Resolution.DecidedBy != "lead" {
		t.Error("clone aliases resolution")
	}
	if (*Request)(nil).Clone() != nil {
		t.Error("nil clone should be nil")
	}
}
