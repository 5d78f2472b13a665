// Package status derives membership standing from dues and attendance
// history.
//
// Every function here is deterministic and side-effect free: the reference
// date is an explicit parameter, never a live clock. Callers that serve HTTP
// requests obtain "today" from requestcontext.Now so tests can pin it.
package status

import (
	"fmt"
	"time"

	attendancemodels "clubroster/internal/attendance/models"
	duesmodels "clubroster/internal/dues/models"
)

// DefaultActivityWindowMonths is the trailing window used by the
// truly-active check.
const DefaultActivityWindowMonths = 6

// daysPerMonth and daysPerYear preserve the fixed-length approximations the
// club has always used: a month is exactly 30 days and a year exactly 365.
// Known quirk, kept deliberately for behavioral compatibility; do not switch
// to calendar arithmetic without a policy decision.
const (
	daysPerMonth = 30
	daysPerYear  = 365
)

// DuesYear returns the year a payment must exist for at the given reference
// date.
//
// Grace window: January 1 through February 28, the prior year's payment still
// counts, so the year to check is last year. From March 1 the current year's
// payment is required. The cutoff is the literal 28th even in leap years —
// February 29 falls outside the window. Known quirk, preserved deliberately.
func DuesYear(today time.Time) int {
	if inGraceWindow(today) {
		return today.Year() - 1
	}
	return today.Year()
}

func inGraceWindow(today time.Time) bool {
	switch today.Month() {
	case time.January:
		return true
	case time.February:
		return today.Day() <= 28
	default:
		return false
	}
}

// DuesCurrent reports whether the payment history satisfies the grace-window
// rule at the reference date. Any payment record for the required year
// counts; the amount is not inspected.
func DuesCurrent(payments []duesmodels.Payment, today time.Time) bool {
	required := DuesYear(today)
	for i := range payments {
		if payments[i].Year == required {
			return true
		}
	}
	return false
}

// RecentActivity reports whether any attendance record falls on or after
// today minus monthsWindow months, where a month is the fixed 30-day
// approximation. With the default window of 6 months the boundary sits at
// exactly 180 days.
func RecentActivity(records []attendancemodels.Record, today time.Time, monthsWindow int) bool {
	cutoff := today.AddDate(0, 0, -monthsWindow*daysPerMonth)
	for i := range records {
		if !records[i].MeetingDate.Before(cutoff) {
			return true
		}
	}
	return false
}

// TrulyActive combines the dues and activity checks: a member is truly
// active when dues are current and they attended something inside the
// default trailing window.
func TrulyActive(payments []duesmodels.Payment, records []attendancemodels.Record, today time.Time) bool {
	return DuesCurrent(payments, today) && RecentActivity(records, today, DefaultActivityWindowMonths)
}

// MembershipDuration renders how long a member has belonged to the club,
// using the fixed 365-day-year / 30-day-month approximation with floor
// division. A zero join date yields "Unknown".
func MembershipDuration(joinDate, today time.Time) string {
	if joinDate.IsZero() {
		return "Unknown"
	}
	days := int(today.Sub(joinDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	years := days / daysPerYear
	months := (days % daysPerYear) / daysPerMonth

	if years > 0 {
		return fmt.Sprintf("%d %s, %d %s", years, plural(years, "year"), months, plural(months, "month"))
	}
	return fmt.Sprintf("%d %s", months, plural(months, "month"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
