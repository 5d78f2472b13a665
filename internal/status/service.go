package status

import (
	"context"
	"errors"
	"time"

	attendancemodels "clubroster/internal/attendance/models"
	duesmodels "clubroster/internal/dues/models"
	membermodels "clubroster/internal/member/models"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/sentinel"
	"clubroster/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

// Filter selects a standing slice of the member list.
type Filter string

const (
	// FilterAll keeps every non-disabled account.
	FilterAll Filter = "all"
	// FilterActive keeps truly-active members: dues current plus recent
	// attendance.
	FilterActive Filter = "active"
	// FilterInactive keeps members whose dues are current but who have no
	// recent attendance.
	FilterInactive Filter = "inactive"
	// FilterExpired keeps members whose dues are not current.
	FilterExpired Filter = "expired"
	// FilterDisabled keeps deactivated accounts.
	FilterDisabled Filter = "disabled"
)

// ParseFilter validates a filter string, defaulting empty input to all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterInactive, FilterExpired, FilterDisabled:
		return Filter(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown status filter %q", s)
	}
}

// MemberStore supplies the member reads the status service needs.
type MemberStore interface {
	FindByID(ctx context.Context, id int64) (*membermodels.Member, error)
	List(ctx context.Context, search string) ([]membermodels.Member, error)
	Count(ctx context.Context) (int, error)
}

// PaymentStore supplies payment history reads.
type PaymentStore interface {
	ListByMember(ctx context.Context, memberID int64) ([]duesmodels.Payment, error)
	ListRecent(ctx context.Context, limit int) ([]duesmodels.Payment, error)
}

// AttendanceStore supplies attendance history reads.
type AttendanceStore interface {
	ListByMember(ctx context.Context, memberID int64) ([]attendancemodels.Record, error)
	ListRecentDates(ctx context.Context, limit int) ([]attendancemodels.DateSummary, error)
}

// Service computes read-side status views with the derivation engine.
type Service struct {
	members    MemberStore
	payments   PaymentStore
	attendance AttendanceStore
}

func NewService(members MemberStore, payments PaymentStore, attendance AttendanceStore) *Service {
	return &Service{members: members, payments: payments, attendance: attendance}
}

// MemberStatus is the derived standing of one member at a reference date.
type MemberStatus struct {
	MemberID           int64  `json:"member_id"`
	CallSign           string `json:"call_sign"`
	DuesYear           int    `json:"dues_year"`
	DuesCurrent        bool   `json:"dues_current"`
	RecentActivity     bool   `json:"recent_activity"`
	TrulyActive        bool   `json:"truly_active"`
	MembershipDuration string `json:"membership_duration"`
}

// MemberStatus derives one member's standing as of the request time.
func (s *Service) MemberStatus(ctx context.Context, memberID int64) (*MemberStatus, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find member")
	}
	today := requestcontext.Now(ctx)
	return s.statusOf(ctx, member, today)
}

func (s *Service) statusOf(ctx context.Context, member *membermodels.Member, today time.Time) (*MemberStatus, error) {
	payments, err := s.payments.ListByMember(ctx, member.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list payments")
	}
	records, err := s.attendance.ListByMember(ctx, member.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list attendance")
	}
	duesCurrent := DuesCurrent(payments, today)
	recentActivity := RecentActivity(records, today, DefaultActivityWindowMonths)
	return &MemberStatus{
		MemberID:           member.ID,
		CallSign:           member.CallSign,
		DuesYear:           DuesYear(today),
		DuesCurrent:        duesCurrent,
		RecentActivity:     recentActivity,
		TrulyActive:        duesCurrent && recentActivity,
		MembershipDuration: MembershipDuration(member.JoinDate, today),
	}, nil
}

// ListMembers returns members matching the search term, sliced by standing.
// Every filter except disabled operates over active accounts only.
func (s *Service) ListMembers(ctx context.Context, search string, filter Filter) ([]membermodels.Member, error) {
	members, err := s.members.List(ctx, search)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list members")
	}
	today := requestcontext.Now(ctx)

	out := make([]membermodels.Member, 0, len(members))
	for i := range members {
		member := members[i]
		if filter == FilterDisabled {
			if !member.IsActive {
				out = append(out, member)
			}
			continue
		}
		if !member.IsActive {
			continue
		}
		if filter == FilterAll {
			out = append(out, member)
			continue
		}
		st, err := s.statusOf(ctx, &member, today)
		if err != nil {
			return nil, err
		}
		switch filter {
		case FilterActive:
			if st.TrulyActive {
				out = append(out, member)
			}
		case FilterInactive:
			if st.DuesCurrent && !st.RecentActivity {
				out = append(out, member)
			}
		case FilterExpired:
			if !st.DuesCurrent {
				out = append(out, member)
			}
		}
	}
	return out, nil
}

// Dashboard aggregates the admin landing-page numbers.
type Dashboard struct {
	TotalMembers     int                             `json:"total_members"`
	DuesCurrentCount int                             `json:"dues_current_count"`
	TrulyActiveCount int                             `json:"truly_active_count"`
	ExpiredDues      []membermodels.Member           `json:"expired_dues"`
	ExpiringSoon     []membermodels.Member           `json:"expiring_soon"`
	RecentMeetings   []attendancemodels.DateSummary  `json:"recent_meetings"`
	RecentPayments   []duesmodels.Payment            `json:"recent_payments"`
}

const dashboardRecentLimit = 10

// Dashboard computes the admin overview: totals, standing counts, the
// expired-dues list, and the December expiring-soon list (dues-current
// members whose payment lapses at year end).
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	total, err := s.members.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count members")
	}
	members, err := s.members.List(ctx, "")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list members")
	}
	today := requestcontext.Now(ctx)

	dashboard := &Dashboard{TotalMembers: total}
	for i := range members {
		member := members[i]
		if !member.IsActive {
			continue
		}
		st, err := s.statusOf(ctx, &member, today)
		if err != nil {
			return nil, err
		}
		if st.DuesCurrent {
			dashboard.DuesCurrentCount++
			if today.Month() == time.December {
				dashboard.ExpiringSoon = append(dashboard.ExpiringSoon, member)
			}
		} else {
			dashboard.ExpiredDues = append(dashboard.ExpiredDues, member)
		}
		if st.TrulyActive {
			dashboard.TrulyActiveCount++
		}
	}

	dashboard.RecentMeetings, err = s.attendance.ListRecentDates(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list attendance dates")
	}
	dashboard.RecentPayments, err = s.payments.ListRecent(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list recent payments")
	}
	return dashboard, nil
}
