package memory

import (
	"context"
	"fmt"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

type requestRepo struct{ s *Store }

func (r requestRepo) Create(_ context.Context, req *domain.Request, placeholder *domain.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.requests[req.ID]; exists {
		return fmt.Errorf("request %s already exists", req.ID)
	}
	stored := req.Clone()
	stored.Status = domain.NormalizeStatus(string(stored.Status))
	r.s.requests[req.ID] = stored
	if placeholder != nil {
		a := cloneAssignment(placeholder)
		r.s.assignments[a.ID] = &a
	}
	return nil
}

func (r requestRepo) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return req.Clone(), nil
}

func (r requestRepo) List(_ context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := []domain.Request{}
	for _, req := range r.s.requests {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && req.Priority != *filter.Priority {
			continue
		}
		if filter.AssignedTo != nil && !req.IsAssignedTo(*filter.AssignedTo) {
			continue
		}
		if filter.MachineID != nil && req.MachineID != *filter.MachineID {
			continue
		}
		if filter.ParticipantID != nil && !req.IsParticipant(*filter.ParticipantID) {
			continue
		}
		matched = append(matched, *req.Clone())
	}
	sortedBy(matched, func(a, b domain.Request) bool {
		if a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.ID < b.ID
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
	return page(matched, filter.Limit, filter.Offset, 20), nil
}

func (r requestRepo) Mutate(_ context.Context, id string, fn repository.MutateFunc) (*domain.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := current.Clone()
	assignment, err := fn(lockedScope{r.s}, working)
	if err != nil {
		return nil, err
	}
	working.Status = domain.NormalizeStatus(string(working.Status))
	r.s.requests[id] = working
	if assignment != nil {
		a := cloneAssignment(assignment)
		r.s.assignments[a.ID] = &a
	}
	return working.Clone(), nil
}

func (r requestRepo) Delete(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[id]; !ok {
		return 0, repository.ErrNotFound
	}
	removed := 0
	for key, a := range r.s.assignments {
		if a.RequestID == id {
			delete(r.s.assignments, key)
			removed++
		}
	}
	kept := r.s.deletionRequests[:0]
	for _, d := range r.s.deletionRequests {
		if d.RequestID != id {
			kept = append(kept, d)
		}
	}
	r.s.deletionRequests = kept
	history := r.s.history[:0]
	for _, h := range r.s.history {
		if h.RequestID != id {
			history = append(history, h)
		}
	}
	r.s.history = history
	delete(r.s.requests, id)
	return removed, nil
}

// lockedScope reads under the lock already held by Mutate.
type lockedScope struct{ s *Store }

func (l lockedScope) User(id string) (*domain.User, error) {
	user, ok := l.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}
