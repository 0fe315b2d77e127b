package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority enumerates request urgency.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// ParsePriority maps a case-insensitive priority name to a Priority.
func ParsePriority(raw string) (Priority, bool) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		if strings.EqualFold(strings.TrimSpace(raw), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Request is the maintenance ticket aggregate.
type Request struct {
	ID           string
	Title        string
	Description  string
	MachineID    string
	Priority     Priority
	Status       RequestStatus
	CreatedBy    string
	AssignedTo   *string
	AssignedBy   *string
	Participants []string
	Resolution   *Resolution
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsParticipant reports whether principalID has visibility into the request.
func (r *Request) IsParticipant(principalID string) bool {
	return slices.Contains(r.Participants, principalID)
}

// AddParticipants unions ids into the participant set, keeping order of
// first appearance.
func (r *Request) AddParticipants(ids ...string) {
	for _, id := range ids {
		if id == "" || r.IsParticipant(id) {
			continue
		}
		r.Participants = append(r.Participants, id)
	}
}

// RemoveParticipant drops id from the participant set. The creator is never
// removed.
func (r *Request) RemoveParticipant(id string) {
	if id == r.CreatedBy {
		return
	}
	r.Participants = slices.DeleteFunc(r.Participants, func(p string) bool { return p == id })
}

// IsAssignedTo reports whether the request is currently assigned to id.
func (r *Request) IsAssignedTo(id string) bool {
	return r.AssignedTo != nil && *r.AssignedTo == id
}

// HasPendingResolution reports whether a proposal is awaiting a decision.
func (r *Request) HasPendingResolution() bool {
	return r.Resolution != nil && r.Resolution.Phase == ResolutionPending
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Participants = slices.Clone(r.Participants)
	cp.AssignedTo = cloneString(r.AssignedTo)
	cp.AssignedBy = cloneString(r.AssignedBy)
	if r.Resolution != nil {
		res := *r.Resolution
		res.DecidedBy = cloneString(r.Resolution.DecidedBy)
		if r.Resolution.DecidedAt != nil {
			at := *r.Resolution.DecidedAt
			res.DecidedAt = &at
		}
		cp.Resolution = &res
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
