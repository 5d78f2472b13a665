package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clubroster/internal/member/models"
	"clubroster/pkg/platform/sentinel"
)

// Memory keeps members in memory. It favors clarity over performance and is
// the store of record for unit tests and local development.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Member
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, byID: make(map[int64]models.Member)}
}

func (s *Memory) Create(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.CallSign == member.CallSign {
			return sentinel.ErrAlreadyUsed
		}
	}
	member.ID = s.nextID
	s.nextID++
	s.byID[member.ID] = *member
	return nil
}

func (s *Memory) Update(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[member.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.byID {
		if id != member.ID && existing.CallSign == member.CallSign {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.byID[member.ID] = *member
	return nil
}

func (s *Memory) FindByID(_ context.Context, id int64) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if member, ok := s.byID[id]; ok {
		out := member
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindByCallSign(_ context.Context, callSign string) (*models.Member, error) {
	canonical := models.CanonicalCallSign(callSign)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, member := range s.byID {
		if member.CallSign == canonical {
			out := member
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	needle := strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, member := range s.byID {
		if strings.ToLower(member.Email) == needle {
			out := member
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns members ordered by call sign. An empty search returns
// everyone; otherwise call sign, names and email are matched
// case-insensitively.
func (s *Memory) List(_ context.Context, search string) ([]models.Member, error) {
	needle := strings.ToLower(strings.TrimSpace(search))
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Member, 0, len(s.byID))
	for _, member := range s.byID {
		if needle != "" && !matches(member, needle) {
			continue
		}
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallSign < out[j].CallSign })
	return out, nil
}

func matches(member models.Member, needle string) bool {
	for _, field := range []string{member.CallSign, member.FirstName, member.LastName, member.Email} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *Memory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Delete removes the member row only; the command layer performs the
// ordered cascade over dependent stores inside one transaction.
func (s *Memory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
