package access

import (
	"errors"
	"testing"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func principal(id string, role domain.Role) domain.Principal {
	return domain.Principal{ID: id, Role: role}
}

func TestCanPerformTable(t *testing.T) {
	gate := NewGate(DefaultTable())

	tests := []struct {
		name     string
		role     domain.Role
		action   Action
		resource *Resource
		want     bool
	}{
		{"operator creates", domain.RoleOperator, ActionCreateRequest, nil, true},
		{"operator cannot assign", domain.RoleOperator, ActionAssignTask, nil, false},
		{"technician cannot assign", domain.RoleTechnician, ActionAssignTask, nil, false},
		{"lead assigns", domain.RoleLead, ActionAssignTask, nil, true},
		{"admin reassigns", domain.RoleAdmin, ActionReassignTask, nil, true},
		{"lead cannot delete", domain.RoleLead, ActionDeleteRequest, nil, false},
		{"admin deletes", domain.RoleAdmin, ActionDeleteRequest, nil, true},
		{"operator asks for deletion", domain.RoleOperator, ActionRequestDeleteRequest, nil, true},
		{"admin does not ask for deletion", domain.RoleAdmin, ActionRequestDeleteRequest, nil, false},
		{"technician proposes", domain.RoleTechnician, ActionProposeResolution, nil, true},
		{"operator cannot propose", domain.RoleOperator, ActionProposeResolution, nil, false},
		{"lead approves", domain.RoleLead, ActionApproveResolution, nil, true},
		{"operator cannot approve", domain.RoleOperator, ActionApproveResolution, nil, false},
		{"operator user-approves", domain.RoleOperator, ActionUserApproveResolution, nil, true},
		{"operator cannot list all", domain.RoleOperator, ActionViewAllRequests, nil, false},
		{"admin elevates", domain.RoleAdmin, ActionElevateRole, nil, true},
		{"lead cannot elevate", domain.RoleLead, ActionElevateRole, nil, false},
		{"technician views machines", domain.RoleTechnician, ActionViewMachines, nil, true},
		{"technician cannot delete machine", domain.RoleTechnician, ActionDeleteMachine, nil, false},
		{"technician views own assignment", domain.RoleTechnician, ActionViewAssignment, &Resource{TechnicianID: "tech-1"}, true},
		{"technician views other assignment", domain.RoleTechnician, ActionViewAssignment, &Resource{TechnicianID: "tech-2"}, false},
		{"technician updates other assignment", domain.RoleTechnician, ActionUpdateAssignment, &Resource{TechnicianID: "tech-2"}, false},
		{"technician without resource", domain.RoleTechnician, ActionViewAssignment, nil, true},
		{"lead views any assignment", domain.RoleLead, ActionViewAssignment, &Resource{TechnicianID: "tech-2"}, true},
		{"operator cannot view assignment", domain.RoleOperator, ActionViewAssignment, &Resource{TechnicianID: "tech-1"}, false},
		{"unknown role", domain.Role("guest"), ActionViewRequest, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gate.CanPerform(principal("tech-1", tt.role), tt.action, tt.resource)
			if err != nil {
				t.Fatalf("CanPerform returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanPerform(%s, %s) = %v, want %v", tt.role, tt.action, got, tt.want)
			}
		})
	}
}

func TestCanPerformDeniesRolesOutsideAllowList(t *testing.T) {
	table := DefaultTable()
	gate := NewGate(table)
	for action, rule := range table {
		allowed := map[domain.Role]bool{}
		for _, role := range rule.Roles {
			allowed[role] = true
		}
		for _, role := range domain.Roles {
			got, err := gate.CanPerform(principal("someone", role), action, nil)
			if err != nil {
				t.Fatalf("%s: unexpected error %v", action, err)
			}
			if got != allowed[role] {
				t.Errorf("CanPerform(%s, %s) = %v, want %v", role, action, got, allowed[role])
			}
		}
	}
}

func TestCanPerformUnknownAction(t *testing.T) {
	gate := NewGate(DefaultTable())
	for _, role := range domain.Roles {
		ok, err := gate.CanPerform(principal("p", role), Action("doSomethingUndefined"), nil)
		if ok {
			t.Errorf("role %s: unknown action allowed", role)
		}
		if !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("role %s: err = %v, want ErrUnknownAction", role, err)
		}
		var unknown *UnknownActionError
		if !errors.As(err, &unknown) || unknown.Action != "doSomethingUndefined" {
			t.Errorf("role %s: err does not carry the action name: %v", role, err)
		}
		if gate.Allowed(principal("p", role), Action("doSomethingUndefined"), nil) {
			t.Errorf("role %s: Allowed returned true", role)
		}
	}
}

func TestGateIsIsolatedFromTableMutation(t *testing.T) {
	table := DefaultTable()
	gate := NewGate(table)
	table[ActionDeleteRequest] = Rule{Roles: []domain.Role{domain.RoleOperator}}
	delete(table, ActionViewRequest)

	if gate.Allowed(principal("o", domain.RoleOperator), ActionDeleteRequest, nil) {
		t.Error("gate picked up a mutation of its source table")
	}
	if !gate.Allowed(principal("o", domain.RoleOperator), ActionViewRequest, nil) {
		t.Error("gate lost an action deleted from its source table")
	}
}

func TestRequiredActionsPresent(t *testing.T) {
	gate := NewGate(DefaultTable())
	required := []Action{
		"createRequest", "viewRequest", "viewAllRequests", "updateRequest", "deleteRequest",
		"requestDeleteRequest", "proposeResolution", "approveResolution", "userApproveResolution",
		"assignTask", "reassignTask", "unassignTask", "deleteAssignment", "getAllAssignments",
		"viewMachines", "createMachine", "updateMachine", "deleteMachine", "viewUsers",
		"elevateRole", "removeUser", "viewNotifications", "updateNotifications",
		"deleteNotifications", "viewHistory", "viewDashboard",
	}
	for _, action := range required {
		if len(gate.RolesFor(action)) == 0 {
			t.Errorf("action %s missing from default table", action)
		}
	}
	if got := len(gate.Actions()); got != len(DefaultTable()) {
		t.Errorf("Actions() returned %d entries, want %d", got, len(DefaultTable()))
	}
}
