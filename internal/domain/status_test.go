package domain

import "testing"

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want RequestStatus
	}{
		{"Pending", StatusPending},
		{"pending", StatusPending},
		{"NOT STARTED", StatusPending},
		{"Not Started", StatusPending},
		{"In Progress", StatusInProgress},
		{"IN PROGRESS", StatusInProgress},
		{"  in progress  ", StatusInProgress},
		{"Resolved", StatusDone},
		{"done", StatusDone},
		{"Completed", StatusDone},
		{"Unfixable", StatusDone},
		{"Not Able to Fix", StatusDone},
		{"", StatusPending},
		{"in-progress", StatusPending},
		{"archived", StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeStatus(tt.raw)
			if got != tt.want {
				t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if !got.IsCanonical() {
				t.Errorf("NormalizeStatus(%q) produced non-canonical %q", tt.raw, got)
			}
		})
	}
}

func TestParseResolutionOutcome(t *testing.T) {
	tests := []struct {
		raw  string
		want ResolutionOutcome
		ok   bool
	}{
		{"Resolved", OutcomeResolved, true},
		{"resolved", OutcomeResolved, true},
		{"NotAbleToFix", OutcomeNotAbleToFix, true},
		{"Not Able to Fix", OutcomeNotAbleToFix, true},
		{"Unfixable", OutcomeNotAbleToFix, true},
		{"Done", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseResolutionOutcome(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseResolutionOutcome(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseRoleAndPriority(t *testing.T) {
	if role, ok := ParseRole(" Technician "); !ok || role != RoleTechnician {
		t.Errorf("ParseRole = (%q, %v)", role, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Error("ParseRole accepted an unknown role")
	}
	if p, ok := ParsePriority("critical"); !ok || p != PriorityCritical {
		t.Errorf("ParsePriority = (%q, %v)", p, ok)
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("ParsePriority accepted an unknown priority")
	}
}
