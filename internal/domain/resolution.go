package domain

import (
	"strings"
	"time"
)

// ResolutionOutcome is what a technician claims about a ticket.
type ResolutionOutcome string

const (
	OutcomeResolved     ResolutionOutcome = "Resolved"
	OutcomeNotAbleToFix ResolutionOutcome = "NotAbleToFix"
)

// ParseResolutionOutcome accepts the canonical names plus the legacy
// "Not Able to Fix"/"Unfixable" spellings.
func ParseResolutionOutcome(raw string) (ResolutionOutcome, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(raw), "")) {
	case "resolved":
		return OutcomeResolved, true
	case "notabletofix", "unfixable":
		return OutcomeNotAbleToFix, true
	}
	return "", false
}

// ResolutionPhase is the proposal sub-state of a request.
type ResolutionPhase string

const (
	ResolutionPending  ResolutionPhase = "pending_approval"
	ResolutionApproved ResolutionPhase = "approved"
	ResolutionRejected ResolutionPhase = "rejected"
)

// Decision is the verdict on a pending proposal.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ParseDecision accepts approved/approve and rejected/reject.
func ParseDecision(raw string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "approve":
		return DecisionApproved, true
	case "rejected", "reject":
		return DecisionRejected, true
	}
	return "", false
}

// Resolution holds the latest proposal and its verdict. A nil Resolution on
// a Request means no proposal was ever made.
type Resolution struct {
	Phase      ResolutionPhase
	Outcome    ResolutionOutcome
	ProposedBy string
	ProposedAt time.Time
	DecidedBy  *string
	DecidedAt  *time.Time
}
