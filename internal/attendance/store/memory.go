package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"clubroster/internal/attendance/models"
	"clubroster/pkg/platform/sentinel"
)

// Memory keeps attendance records in memory. ReplaceForDate holds the write
// lock for the whole delete-and-insert so partial batches are never visible.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Record
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, byID: make(map[int64]models.Record)}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ReplaceForDate deletes every record for the given date and inserts the new
// set in one step.
func (s *Memory) ReplaceForDate(_ context.Context, meetingDate time.Time, records []*models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.byID {
		if sameDate(existing.MeetingDate, meetingDate) {
			delete(s.byID, id)
		}
	}
	for _, record := range records {
		record.ID = s.nextID
		s.nextID++
		s.byID[record.ID] = *record
	}
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

func (s *Memory) DeleteForDate(_ context.Context, meetingDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.byID {
		if sameDate(existing.MeetingDate, meetingDate) {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *Memory) FindByID(_ context.Context, id int64) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.byID[id]; ok {
		out := record
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByMember returns a member's records, most recent date first.
func (s *Memory) ListByMember(_ context.Context, memberID int64) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Record
	for _, record := range s.byID {
		if record.MemberID == memberID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeetingDate.After(out[j].MeetingDate) })
	return out, nil
}

func (s *Memory) ListByDate(_ context.Context, meetingDate time.Time) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Record
	for _, record := range s.byID {
		if sameDate(record.MeetingDate, meetingDate) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

// ListRecentDates summarizes the most recent dates with attendance, newest
// first, up to limit.
func (s *Memory) ListRecentDates(_ context.Context, limit int) ([]models.DateSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate := make(map[string]*models.DateSummary)
	for _, record := range s.byID {
		key := record.MeetingDate.Format("2006-01-02")
		summary, ok := byDate[key]
		if !ok {
			summary = &models.DateSummary{
				MeetingDate: record.MeetingDate,
				EventType:   record.EventType,
				EventName:   record.EventName,
			}
			byDate[key] = summary
		}
		summary.Attendees++
	}

	out := make([]models.DateSummary, 0, len(byDate))
	for _, summary := range byDate {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeetingDate.After(out[j].MeetingDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) DeleteByMember(_ context.Context, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, record := range s.byID {
		if record.MemberID == memberID {
			delete(s.byID, id)
		}
	}
	return nil
}
