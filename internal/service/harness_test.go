package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/maintenance-service/internal/access"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository/memory"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

type harness struct {
	store         *memory.Store
	dispatcher    events.Dispatcher
	requests      *RequestService
	assignments   *AssignmentService
	resolutions   *ResolutionService
	notifications *NotificationService
	users         *UserService
	machines      *MachineService

	operator domain.Principal
	other    domain.Principal
	lead     domain.Principal
	admin    domain.Principal
	tech     domain.Principal
	tech2    domain.Principal
	machine  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithTable(t, access.DefaultTable())
}

func newHarnessWithTable(t *testing.T, table access.Table) *harness {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	gate := access.NewGate(table)

	var mu sync.Mutex
	tick := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
	engine := EngineDependencies{
		Gate:       gate,
		Requests:   store.Requests(),
		Dispatcher: dispatcher,
		Clock:      clock,
	}

	h := &harness{
		store:      store,
		dispatcher: dispatcher,
		requests: NewRequestService(RequestDependencies{
			EngineDependencies:  engine,
			MachineRepo:         store.Machines(),
			HistoryRepo:         store.History(),
			DeletionRequestRepo: store.DeletionRequests(),
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			EngineDependencies: engine,
			AssignmentRepo:     store.Assignments(),
			UserRepo:           store.Users(),
		}),
		resolutions: NewResolutionService(engine),
		notifications: NewNotificationService(NotificationDependencies{
			Gate:             gate,
			Dispatcher:       dispatcher,
			NotificationRepo: store.Notifications(),
			HistoryRepo:      store.History(),
			UserRepo:         store.Users(),
			Clock:            clock,
		}),
		users: NewUserService(UserDependencies{
			Gate:       gate,
			UserRepo:   store.Users(),
			BcryptCost: 4,
		}),
		machines: NewMachineService(MachineDependencies{
			Gate:        gate,
			MachineRepo: store.Machines(),
			RequestRepo: store.Requests(),
		}),
	}
	h.notifications.RegisterHandlers()

	h.operator = h.seedUser(t, "operator-1", domain.RoleOperator)
	h.other = h.seedUser(t, "operator-2", domain.RoleOperator)
	h.lead = h.seedUser(t, "lead-1", domain.RoleLead)
	h.admin = h.seedUser(t, "admin-1", domain.RoleAdmin)
	h.tech = h.seedUser(t, "tech-1", domain.RoleTechnician)
	h.tech2 = h.seedUser(t, "tech-2", domain.RoleTechnician)

	machine := &domain.Machine{ID: "press-7", Name: "Hydraulic press", Location: "Hall B"}
	if err := store.Machines().Create(context.Background(), machine); err != nil {
		t.Fatalf("seed machine: %v", err)
	}
	h.machine = machine.ID
	return h
}

func (h *harness) seedUser(t *testing.T, id string, role domain.Role) domain.Principal {
	t.Helper()
	user := &domain.User{ID: id, Name: id, Email: id + "@plant.example", Role: role, Active: true}
	if err := h.store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user.Principal()
}

// openRequest creates a request as the operator.
func (h *harness) openRequest(t *testing.T) *domain.Request {
	t.Helper()
	out, err := h.requests.Create(context.Background(), h.operator, CreateRequestInput{
		Title:     "Press leaking oil",
		MachineID: h.machine,
		Priority:  "high",
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return out.Request
}

// assignedRequest creates a request and assigns it to tech.
func (h *harness) assignedRequest(t *testing.T) *domain.Request {
	t.Helper()
	req := h.openRequest(t)
	out, err := h.assignments.Assign(context.Background(), h.lead, req.ID, h.tech.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	return out.Request
}

func (h *harness) fetch(t *testing.T, id string) *domain.Request {
	t.Helper()
	req, err := h.store.Requests().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("fetch %s: %v", id, err)
	}
	return req
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}
