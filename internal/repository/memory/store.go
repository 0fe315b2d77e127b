// Package memory is an in-process record store with the same semantics as
// the Postgres repositories. Every mutation runs under a single lock, which
// gives Mutate and Delete the atomicity of a database transaction.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

// Store holds every collection behind one mutex.
type Store struct {
	mu               sync.RWMutex
	requests         map[string]*domain.Request
	assignments      map[string]*domain.Assignment
	users            map[string]*domain.User
	machines         map[string]*domain.Machine
	history          []domain.RequestHistory
	notifications    map[string]*domain.Notification
	deletionRequests []domain.DeletionRequest
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		requests:      make(map[string]*domain.Request),
		assignments:   make(map[string]*domain.Assignment),
		users:         make(map[string]*domain.User),
		machines:      make(map[string]*domain.Machine),
		notifications: make(map[string]*domain.Notification),
	}
}

func (s *Store) Requests() repository.RequestRepository { return requestRepo{s} }

func (s *Store) Assignments() repository.AssignmentRepository { return assignmentRepo{s} }

func (s *Store) Users() repository.UserRepository { return userRepo{s} }

func (s *Store) Machines() repository.MachineRepository { return machineRepo{s} }

func (s *Store) History() repository.HistoryRepository { return historyRepo{s} }

func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }

func (s *Store) DeletionRequests() repository.DeletionRequestRepository {
	return deletionRequestRepo{s}
}

func page[T any](items []T, limit, offset, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func sortedBy[T any](items []T, less func(a, b T) bool) []T {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	return items
}

func cloneAssignment(a *domain.Assignment) domain.Assignment {
	cp := *a
	if a.TechnicianID != nil {
		id := *a.TechnicianID
		cp.TechnicianID = &id
	}
	return cp
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
