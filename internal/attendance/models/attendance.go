package models

import (
	"strings"
	"time"

	dErrors "clubroster/pkg/domain-errors"
)

// Record marks one member present at one meeting or event. Absence is
// represented by the absence of a record, so Attended is always true on rows
// that exist.
//
// Uniqueness of (member, meeting date) is maintained by the replace-for-date
// batch operation rather than a hard constraint: re-recording a date deletes
// the previous rows for that date and inserts the new set atomically.
type Record struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	MeetingDate time.Time `json:"meeting_date"`
	Attended    bool      `json:"attended"`
	EventType   EventType `json:"event_type"`
	EventName   string    `json:"event_name,omitempty"`
	Notes       string    `json:"notes,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	RecordedBy string    `json:"recorded_by"` // call sign of the recording admin
}

// EventType enumerates the kinds of gatherings attendance is tracked for.
type EventType string

const (
	EventMeeting EventType = "Meeting"
	EventEvent   EventType = "Event"
	EventOther   EventType = "Other"
)

var eventTypes = map[EventType]struct{}{
	EventMeeting: {},
	EventEvent:   {},
	EventOther:   {},
}

// ParseEventType validates an event type string, defaulting empty input to
// Meeting.
func ParseEventType(s string) (EventType, error) {
	if strings.TrimSpace(s) == "" {
		return EventMeeting, nil
	}
	et := EventType(s)
	if _, ok := eventTypes[et]; !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", s)
	}
	return et, nil
}

// DateSummary aggregates the attendance rows recorded for one date, used by
// the admin views listing recent meetings.
type DateSummary struct {
	MeetingDate time.Time `json:"meeting_date"`
	EventType   EventType `json:"event_type"`
	EventName   string    `json:"event_name,omitempty"`
	Attendees   int       `json:"attendees"`
}
