package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	attendancestore "clubroster/internal/attendance/store"
	"clubroster/internal/audit"
	auditmemory "clubroster/internal/audit/store/memory"
	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	memberstore "clubroster/internal/member/store"
	"clubroster/internal/platform/database"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/requestcontext"
)

type AttendanceServiceSuite struct {
	suite.Suite

	ctx        context.Context
	now        time.Time
	meeting    time.Time
	records    *attendancestore.Memory
	members    *memberstore.Memory
	auditStore *auditmemory.Store
	service    *Service
	acting     identity.Acting

	alice *membermodels.Member
	bob   *membermodels.Member
	carol *membermodels.Member
}

func TestAttendanceServiceSuite(t *testing.T) {
	suite.Run(t, new(AttendanceServiceSuite))
}

func (s *AttendanceServiceSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.meeting = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.records = attendancestore.NewMemory()
	s.members = memberstore.NewMemory()
	s.auditStore = auditmemory.New()
	s.acting = identity.Acting{CallSign: "K6ADM", IsAdmin: true}
	s.service = New(s.records, s.members, database.NewMemoryTx(), audit.NewRecorder(s.auditStore))

	s.alice = s.addMember("W6AAA")
	s.bob = s.addMember("W6BBB")
	s.carol = s.addMember("W6CCC")
}

func (s *AttendanceServiceSuite) addMember(callSign string) *membermodels.Member {
	member, err := membermodels.NewMember(callSign, membermodels.ProfileFields{
		FirstName: "Test",
		LastName:  "Member",
		Email:     callSign + "@example.com",
	}, membermodels.MembershipIndividual, s.now, "hash", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Create(s.ctx, member))
	return member
}

func (s *AttendanceServiceSuite) TestRecordBatch() {
	records, err := s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.alice.ID, s.bob.ID},
	})
	s.Require().NoError(err)
	s.Len(records, 2)
	s.True(records[0].Attended)
	s.Equal("Meeting", string(records[0].EventType)) // empty type defaults
	s.Equal("K6ADM", records[0].RecordedBy)

	entries, err := s.auditStore.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("Recorded meeting attendance", entries[0].Action)
	s.Equal("Date: 2024-06-10, Type: Meeting, Attendees: 2", entries[0].Details)
}

func (s *AttendanceServiceSuite) TestRecordBatchReplacesDate() {
	_, err := s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.alice.ID, s.bob.ID},
	})
	s.Require().NoError(err)

	_, err = s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.carol.ID},
	})
	s.Require().NoError(err)

	remaining, err := s.service.ListByDate(s.ctx, s.meeting)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(s.carol.ID, remaining[0].MemberID)
}

func (s *AttendanceServiceSuite) TestRecordBatchUnknownMemberLeavesDateIntact() {
	_, err := s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.alice.ID},
	})
	s.Require().NoError(err)
	logged := s.auditStore.Len()

	_, err = s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.bob.ID, 404},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(logged, s.auditStore.Len())

	remaining, err := s.service.ListByDate(s.ctx, s.meeting)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(s.alice.ID, remaining[0].MemberID)
}

func (s *AttendanceServiceSuite) TestRecordBatchRequiresDate() {
	_, err := s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MemberIDs: []int64{s.alice.ID},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidDate))
}

func (s *AttendanceServiceSuite) TestRemoveAttendee() {
	records, err := s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.alice.ID, s.bob.ID},
	})
	s.Require().NoError(err)

	var aliceRecord int64
	for _, record := range records {
		if record.MemberID == s.alice.ID {
			aliceRecord = record.ID
		}
	}
	s.Require().NoError(s.service.RemoveAttendee(s.ctx, s.acting, aliceRecord))

	remaining, err := s.service.ListByDate(s.ctx, s.meeting)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(s.bob.ID, remaining[0].MemberID)

	entries, err := s.auditStore.ListByTarget(s.ctx, "W6AAA")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("Removed attendee from event", entries[0].Action)

	err = s.service.RemoveAttendee(s.ctx, s.acting, aliceRecord)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AttendanceServiceSuite) TestDeleteForDate() {
	_, err := s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.alice.ID, s.bob.ID},
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteForDate(s.ctx, s.acting, s.meeting))

	remaining, err := s.service.ListByDate(s.ctx, s.meeting)
	s.Require().NoError(err)
	s.Empty(remaining)
}

func (s *AttendanceServiceSuite) TestRecentDates() {
	earlier := s.meeting.AddDate(0, 0, -7)
	_, err := s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: earlier,
		EventType:   "Event",
		EventName:   "Field Day",
		MemberIDs:   []int64{s.alice.ID},
	})
	s.Require().NoError(err)
	_, err = s.service.RecordBatch(s.ctx, s.acting, RecordBatchInput{
		MeetingDate: s.meeting,
		MemberIDs:   []int64{s.alice.ID, s.bob.ID},
	})
	s.Require().NoError(err)

	summaries, err := s.service.RecentDates(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(summaries, 2)
	s.Equal(s.meeting, summaries[0].MeetingDate)
	s.Equal(2, summaries[0].Attendees)
	s.Equal("Field Day", summaries[1].EventName)
	s.Equal(1, summaries[1].Attendees)
}
