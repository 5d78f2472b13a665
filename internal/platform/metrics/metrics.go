// Package metrics defines the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters incremented by the command services.
type Metrics struct {
	MembersCreated    prometheus.Counter
	MembersDeleted    prometheus.Counter
	PaymentsRecorded  prometheus.Counter
	AttendanceBatches prometheus.Counter
	RolesAssigned     prometheus.Counter
	Logins            prometheus.Counter
	LoginFailures     prometheus.Counter
	RowsImported      prometheus.Counter
}

// New registers the instruments with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_members_created_total",
			Help: "Members created by admin action or import.",
		}),
		MembersDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_members_deleted_total",
			Help: "Members deleted, including their cascaded records.",
		}),
		PaymentsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_dues_payments_recorded_total",
			Help: "Dues payments recorded.",
		}),
		AttendanceBatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_attendance_batches_total",
			Help: "Attendance replace-for-date batches applied.",
		}),
		RolesAssigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_roles_assigned_total",
			Help: "Leadership roles assigned.",
		}),
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_logins_total",
			Help: "Successful logins.",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_login_failures_total",
			Help: "Rejected login attempts.",
		}),
		RowsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubroster_import_rows_total",
			Help: "Roster CSV rows imported as members.",
		}),
	}
}

// NewNop returns instruments bound to a throwaway registry, for tests and
// callers that do not export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
