package access

import "github.com/spec-kit/maintenance-service/internal/domain"

// Scope adds a resource condition on top of role membership.
type Scope string

const (
	// ScopeNone grants on role membership alone.
	ScopeNone Scope = ""
	// ScopeOwnAssignment limits technicians to assignment resources that
	// name them when a resource is supplied.
	ScopeOwnAssignment Scope = "own-assignment"
)

// Rule lists the roles allowed to attempt an action.
type Rule struct {
	Roles []domain.Role
	Scope Scope
}

// Table maps every known action to its rule.
type Table map[Action]Rule

var (
	everyone   = []domain.Role{domain.RoleOperator, domain.RoleTechnician, domain.RoleLead, domain.RoleAdmin}
	staff      = []domain.Role{domain.RoleTechnician, domain.RoleLead, domain.RoleAdmin}
	supervisor = []domain.Role{domain.RoleLead, domain.RoleAdmin}
	adminOnly  = []domain.Role{domain.RoleAdmin}
)

// DefaultTable returns a fresh copy of the built-in permission table.
func DefaultTable() Table {
	return Table{
		ActionCreateRequest:         {Roles: everyone},
		ActionViewRequest:           {Roles: everyone},
		ActionViewAllRequests:       {Roles: supervisor},
		ActionUpdateRequest:         {Roles: supervisor},
		ActionUpdateRequestStatus:   {Roles: staff},
		ActionDeleteRequest:         {Roles: adminOnly},
		ActionRequestDeleteRequest:  {Roles: []domain.Role{domain.RoleOperator, domain.RoleTechnician, domain.RoleLead}},
		ActionProposeResolution:     {Roles: []domain.Role{domain.RoleTechnician}},
		ActionApproveResolution:     {Roles: supervisor},
		ActionUserApproveResolution: {Roles: everyone},

		ActionAssignTask:                  {Roles: supervisor},
		ActionReassignTask:                {Roles: supervisor},
		ActionUnassignTask:                {Roles: supervisor},
		ActionDeleteAssignment:            {Roles: adminOnly},
		ActionGetAllAssignments:           {Roles: supervisor},
		ActionViewAssignment:              {Roles: staff, Scope: ScopeOwnAssignment},
		ActionViewAssignmentsByTechnician: {Roles: staff, Scope: ScopeOwnAssignment},
		ActionUpdateAssignment:            {Roles: staff, Scope: ScopeOwnAssignment},
		ActionUpdateAssignmentStatus:      {Roles: staff, Scope: ScopeOwnAssignment},

		ActionViewMachines:  {Roles: everyone},
		ActionCreateMachine: {Roles: supervisor},
		ActionUpdateMachine: {Roles: supervisor},
		ActionDeleteMachine: {Roles: adminOnly},

		ActionViewUsers:   {Roles: supervisor},
		ActionCreateUser:  {Roles: adminOnly},
		ActionElevateRole: {Roles: adminOnly},
		ActionRemoveUser:  {Roles: adminOnly},

		ActionViewNotifications:   {Roles: everyone},
		ActionUpdateNotifications: {Roles: everyone},
		ActionDeleteNotifications: {Roles: everyone},
		ActionViewHistory:         {Roles: everyone},
		ActionViewDashboard:       {Roles: supervisor},
	}
}
