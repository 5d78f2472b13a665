package store

import (
	"context"
	"sort"
	"sync"

	"clubroster/internal/dues/models"
	"clubroster/pkg/platform/sentinel"
)

// Memory keeps dues payments in memory, indexed by id.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Payment
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, byID: make(map[int64]models.Payment)}
}

func (s *Memory) Create(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.MemberID == payment.MemberID && existing.Year == payment.Year {
			return sentinel.ErrAlreadyUsed
		}
	}
	payment.ID = s.nextID
	s.nextID++
	s.byID[payment.ID] = *payment
	return nil
}

func (s *Memory) Update(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[payment.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.byID {
		if id != payment.ID && existing.MemberID == payment.MemberID && existing.Year == payment.Year {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.byID[payment.ID] = *payment
	return nil
}

func (s *Memory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id int64) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if payment, ok := s.byID[id]; ok {
		out := payment
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindByMemberAndYear(_ context.Context, memberID int64, year int) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, payment := range s.byID {
		if payment.MemberID == memberID && payment.Year == year {
			out := payment
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ListByMember returns a member's payments, most recent year first.
func (s *Memory) ListByMember(_ context.Context, memberID int64) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Payment
	for _, payment := range s.byID {
		if payment.MemberID == memberID {
			out = append(out, payment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (s *Memory) ListByYear(_ context.Context, year int) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Payment
	for _, payment := range s.byID {
		if payment.Year == year {
			out = append(out, payment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

// ListRecent returns the most recently dated payments, newest first.
func (s *Memory) ListRecent(_ context.Context, limit int) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Payment, 0, len(s.byID))
	for _, payment := range s.byID {
		out = append(out, payment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) DeleteByMember(_ context.Context, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, payment := range s.byID {
		if payment.MemberID == memberID {
			delete(s.byID, id)
		}
	}
	return nil
}
