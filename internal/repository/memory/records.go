package memory

import (
	"context"
	"fmt"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

type assignmentRepo struct{ s *Store }

func (r assignmentRepo) GetByID(_ context.Context, id string) (*domain.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := cloneAssignment(a)
	return &cp, nil
}

func (r assignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]domain.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := []domain.Assignment{}
	for _, a := range r.s.assignments {
		if filter.RequestID != nil && a.RequestID != *filter.RequestID {
			continue
		}
		if filter.TechnicianID != nil && (a.TechnicianID == nil || *a.TechnicianID != *filter.TechnicianID) {
			continue
		}
		matched = append(matched, cloneAssignment(a))
	}
	sortedBy(matched, func(a, b domain.Assignment) bool {
		if a.AssignedAt.Equal(b.AssignedAt) {
			return a.ID < b.ID
		}
		return a.AssignedAt.Before(b.AssignedAt)
	})
	return page(matched, filter.Limit, filter.Offset, 100), nil
}

func (r assignmentRepo) Latest(_ context.Context, requestID string) (*domain.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *domain.Assignment
	for _, a := range r.s.assignments {
		if a.RequestID != requestID {
			continue
		}
		if latest == nil || a.AssignedAt.After(latest.AssignedAt) ||
			(a.AssignedAt.Equal(latest.AssignedAt) && a.ID > latest.ID) {
			latest = a
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := cloneAssignment(latest)
	return &cp, nil
}

func (r assignmentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.assignments, id)
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if equalFold(existing.Email, user.Email) {
			return fmt.Errorf("email %s already registered", user.Email)
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if equalFold(user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := []domain.User{}
	for _, user := range r.s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		matched = append(matched, *user)
	}
	sortedBy(matched, func(a, b domain.User) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return page(matched, filter.Limit, filter.Offset, 50), nil
}

type machineRepo struct{ s *Store }

func (r machineRepo) Create(_ context.Context, m *domain.Machine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.machines[m.ID] = &cp
	return nil
}

func (r machineRepo) Update(_ context.Context, m *domain.Machine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.machines[m.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *m
	r.s.machines[m.ID] = &cp
	return nil
}

func (r machineRepo) GetByID(_ context.Context, id string) (*domain.Machine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.machines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r machineRepo) List(_ context.Context, limit, offset int) ([]domain.Machine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]domain.Machine, 0, len(r.s.machines))
	for _, m := range r.s.machines {
		all = append(all, *m)
	}
	sortedBy(all, func(a, b domain.Machine) bool {
		if a.Name == b.Name {
			return a.ID < b.ID
		}
		return a.Name < b.Name
	})
	return page(all, limit, offset, 50), nil
}

func (r machineRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.machines[id]; !ok {
		return repository.ErrNotFound
	}
	for _, req := range r.s.requests {
		if req.MachineID == id {
			return fmt.Errorf("machine %s is referenced by request %s", id, req.ID)
		}
	}
	delete(r.s.machines, id)
	return nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, entry *domain.RequestHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r historyRepo) ListByRequest(_ context.Context, requestID string, limit, offset int) ([]domain.RequestHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := []domain.RequestHistory{}
	for _, h := range r.s.history {
		if h.RequestID == requestID {
			matched = append(matched, h)
		}
	}
	sortedBy(matched, func(a, b domain.RequestHistory) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return page(matched, limit, offset, 100), nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *n
	r.s.notifications[n.ID] = &cp
	return nil
}

func (r notificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r notificationRepo) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := []domain.Notification{}
	for _, n := range r.s.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.Read) {
			continue
		}
		matched = append(matched, *n)
	}
	sortedBy(matched, func(a, b domain.Notification) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return page(matched, limit, offset, 50), nil
}

func (r notificationRepo) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Read = true
	return nil
}

func (r notificationRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

type deletionRequestRepo struct{ s *Store }

func (r deletionRequestRepo) Create(_ context.Context, d *domain.DeletionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deletionRequests = append(r.s.deletionRequests, *d)
	return nil
}

func (r deletionRequestRepo) List(_ context.Context, limit, offset int) ([]domain.DeletionRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := append([]domain.DeletionRequest{}, r.s.deletionRequests...)
	sortedBy(all, func(a, b domain.DeletionRequest) bool { return a.CreatedAt.After(b.CreatedAt) })
	return page(all, limit, offset, 50), nil
}
