package store

import (
	"context"
	"sort"
	"sync"

	"clubroster/internal/roles/models"
	"clubroster/pkg/platform/sentinel"
)

// Memory keeps role history in memory.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Role
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, byID: make(map[int64]models.Role)}
}

func (s *Memory) Create(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	role.ID = s.nextID
	s.nextID++
	s.byID[role.ID] = *role
	return nil
}

func (s *Memory) Update(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[role.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[role.ID] = *role
	return nil
}

func (s *Memory) FindByID(_ context.Context, id int64) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if role, ok := s.byID[id]; ok {
		out := role
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByMember returns a member's full role history, most recent start first.
func (s *Memory) ListByMember(_ context.Context, memberID int64) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Role
	for _, role := range s.byID {
		if role.MemberID == memberID {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

// ListCurrent returns every open role across all members.
func (s *Memory) ListCurrent(_ context.Context) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Role
	for _, role := range s.byID {
		if role.IsCurrent {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoleName != out[j].RoleName {
			return out[i].RoleName < out[j].RoleName
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out, nil
}

func (s *Memory) DeleteByMember(_ context.Context, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, role := range s.byID {
		if role.MemberID == memberID {
			delete(s.byID, id)
		}
	}
	return nil
}
