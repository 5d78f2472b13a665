package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	attendancestore "clubroster/internal/attendance/store"
	"clubroster/internal/audit"
	auditmemory "clubroster/internal/audit/store/memory"
	"clubroster/internal/credential"
	duesstore "clubroster/internal/dues/store"
	memberstore "clubroster/internal/member/store"
	memberservice "clubroster/internal/member/service"
	"clubroster/internal/platform/database"
	rolesstore "clubroster/internal/roles/store"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/requestcontext"
)

const header = "call_sign,first_name,last_name,email,phone,address,city,state,zip,fcc_class,membership_type,join_date,emergency_name,emergency_phone,emergency_relationship\n"

type ImporterSuite struct {
	suite.Suite

	ctx        context.Context
	members    *memberstore.Memory
	auditStore *auditmemory.Store
	importer   *Importer
}

func TestImporterSuite(t *testing.T) {
	suite.Run(t, new(ImporterSuite))
}

func (s *ImporterSuite) SetupTest() {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.members = memberstore.NewMemory()
	s.auditStore = auditmemory.New()
	members := memberservice.New(
		s.members,
		duesstore.NewMemory(),
		attendancestore.NewMemory(),
		rolesstore.NewMemory(),
		database.NewMemoryTx(),
		audit.NewRecorder(s.auditStore),
		credential.NewBcryptHasher(),
	)
	s.importer = New(members, s.members)
}

func (s *ImporterSuite) run(rows string) *Summary {
	summary, err := s.importer.Run(s.ctx, strings.NewReader(header+rows))
	s.Require().NoError(err)
	return summary
}

func (s *ImporterSuite) TestImportsRows() {
	summary := s.run(
		"w6abc,Ada,Lovelace,ada@example.com,555-0100,,,,,Extra,Individual,2020-01-15,,,\n" +
			"K6XYZ,Charles,Babbage,charles@example.com,,,,,,General,Family,2021-06-01,,,\n")

	s.Equal(2, summary.Imported)
	s.Equal(0, summary.Skipped)
	s.Equal(0, summary.Errors)

	member, err := s.members.FindByCallSign(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.Equal("Ada", member.FirstName)
	s.Equal(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), member.JoinDate)
	s.True(member.PasswordIsTemporary)
	s.True(member.IsActive)
	s.False(member.IsAdmin)

	// Imported members are audited under the SYSTEM actor.
	entries, err := s.auditStore.ListByTarget(s.ctx, "W6ABC")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("SYSTEM", entries[0].AdminCallSign)
	s.Equal("Added new member", entries[0].Action)
}

func (s *ImporterSuite) TestSkipsDuplicateCallSign() {
	s.run("W6ABC,Ada,Lovelace,ada@example.com,,,,,,,,2020-01-15,,,\n")

	summary := s.run("w6abc,Someone,Else,else@example.com,,,,,,,,2021-01-01,,,\n")
	s.Equal(0, summary.Imported)
	s.Equal(1, summary.Skipped)
	s.Require().Len(summary.Rows, 1)
	s.Equal(RowSkipped, summary.Rows[0].Status)
	s.Equal("already exists", summary.Rows[0].Reason)
}

func (s *ImporterSuite) TestSkipsDuplicateEmail() {
	s.run("W6ABC,Ada,Lovelace,ada@example.com,,,,,,,,2020-01-15,,,\n")

	summary := s.run("K6XYZ,Other,Person,ada@example.com,,,,,,,,2021-01-01,,,\n")
	s.Equal(1, summary.Skipped)
	s.Contains(summary.Rows[0].Reason, "already in use")

	_, err := s.members.FindByCallSign(s.ctx, "K6XYZ")
	s.Error(err)
}

func (s *ImporterSuite) TestInvalidDateIsRowError() {
	summary := s.run(
		"W6ABC,Ada,Lovelace,ada@example.com,,,,,,,,01/15/2020,,,\n" +
			"K6XYZ,Charles,Babbage,charles@example.com,,,,,,,,2021-06-01,,,\n")

	s.Equal(1, summary.Imported)
	s.Equal(1, summary.Errors)
	s.Equal(RowError, summary.Rows[0].Status)
	s.Contains(summary.Rows[0].Reason, "invalid date format")
}

func (s *ImporterSuite) TestMissingColumnAborts() {
	_, err := s.importer.Run(s.ctx, strings.NewReader("call_sign,first_name\nW6ABC,Ada\n"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
