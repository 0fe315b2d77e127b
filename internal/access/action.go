package access

// Action names a capability checked by the gate.
type Action string

// Request lifecycle.
const (
	ActionCreateRequest         Action = "createRequest"
	ActionViewRequest           Action = "viewRequest"
	ActionViewAllRequests       Action = "viewAllRequests"
	ActionUpdateRequest         Action = "updateRequest"
	ActionUpdateRequestStatus   Action = "updateRequestStatus"
	ActionDeleteRequest         Action = "deleteRequest"
	ActionRequestDeleteRequest  Action = "requestDeleteRequest"
	ActionProposeResolution     Action = "proposeResolution"
	ActionApproveResolution     Action = "approveResolution"
	ActionUserApproveResolution Action = "userApproveResolution"
)

// Assignments.
const (
	ActionAssignTask                  Action = "assignTask"
	ActionReassignTask                Action = "reassignTask"
	ActionUnassignTask                Action = "unassignTask"
	ActionDeleteAssignment            Action = "deleteAssignment"
	ActionGetAllAssignments           Action = "getAllAssignments"
	ActionViewAssignment              Action = "viewAssignment"
	ActionViewAssignmentsByTechnician Action = "viewAssignmentsByTechnician"
	ActionUpdateAssignment            Action = "updateAssignment"
	ActionUpdateAssignmentStatus      Action = "updateAssignmentStatus"
)

// Machines.
const (
	ActionViewMachines  Action = "viewMachines"
	ActionCreateMachine Action = "createMachine"
	ActionUpdateMachine Action = "updateMachine"
	ActionDeleteMachine Action = "deleteMachine"
)

// Users.
const (
	ActionViewUsers   Action = "viewUsers"
	ActionCreateUser  Action = "createUser"
	ActionElevateRole Action = "elevateRole"
	ActionRemoveUser  Action = "removeUser"
)

// Notifications, history and dashboards.
const (
	ActionViewNotifications   Action = "viewNotifications"
	ActionUpdateNotifications Action = "updateNotifications"
	ActionDeleteNotifications Action = "deleteNotifications"
	ActionViewHistory         Action = "viewHistory"
	ActionViewDashboard       Action = "viewDashboard"
)
