// Package importer loads members in bulk from roster CSV files.
//
// Each row becomes a CreateMember command with the SYSTEM identity, so
// imported members get the same defaults and audit entries as members added
// by hand: temporary password equal to the call sign, active, non-admin.
// Rows with an already-known call sign or email are skipped, not failed.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"clubroster/internal/identity"
	membermodels "clubroster/internal/member/models"
	memberservice "clubroster/internal/member/service"
	"clubroster/internal/platform/metrics"
	dErrors "clubroster/pkg/domain-errors"
	"clubroster/pkg/platform/sentinel"
)

const dateFormat = "2006-01-02"

var requiredColumns = []string{"call_sign", "first_name", "last_name", "email", "join_date"}

// MemberCreator is the command used to persist each row.
type MemberCreator interface {
	CreateMember(ctx context.Context, acting identity.Acting, in memberservice.CreateMemberInput) (*membermodels.Member, error)
}

// EmailLookup supports the import-only duplicate-email skip.
type EmailLookup interface {
	FindByEmail(ctx context.Context, email string) (*membermodels.Member, error)
}

// Importer runs roster CSV imports.
type Importer struct {
	creator MemberCreator
	emails  EmailLookup

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Importer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) { i.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Importer) { i.metrics = m }
}

func New(creator MemberCreator, emails EmailLookup, opts ...Option) *Importer {
	i := &Importer{
		creator: creator,
		emails:  emails,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// RowStatus classifies the outcome of one CSV row.
type RowStatus string

const (
	RowImported RowStatus = "imported"
	RowSkipped  RowStatus = "skipped"
	RowError    RowStatus = "error"
)

// RowResult reports what happened to one CSV row. Row numbers are
// 1-based file line numbers; the header is line 1.
type RowResult struct {
	Row      int
	CallSign string
	Status   RowStatus
	Reason   string
}

// Summary aggregates an import run.
type Summary struct {
	Imported int
	Skipped  int
	Errors   int
	Rows     []RowResult
}

// Run reads the CSV and imports every row it can. A malformed file or
// missing header column aborts; per-row problems only mark that row and the
// run continues.
func (i *Importer) Run(ctx context.Context, r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "read csv header")
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(name)] = idx
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "csv is missing required column %q", name)
		}
	}

	summary := &Summary{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("read csv row %d", line))
		}
		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}
		result := i.importRow(ctx, line, field)
		summary.Rows = append(summary.Rows, result)
		switch result.Status {
		case RowImported:
			summary.Imported++
			i.metrics.RowsImported.Inc()
		case RowSkipped:
			summary.Skipped++
		case RowError:
			summary.Errors++
		}
	}

	i.logger.InfoContext(ctx, "import finished",
		"imported", summary.Imported, "skipped", summary.Skipped, "errors", summary.Errors)
	return summary, nil
}

func (i *Importer) importRow(ctx context.Context, line int, field func(string) string) RowResult {
	callSign := membermodels.CanonicalCallSign(field("call_sign"))
	result := RowResult{Row: line, CallSign: callSign}

	email := field("email")
	if email != "" {
		if _, err := i.emails.FindByEmail(ctx, email); err == nil {
			result.Status = RowSkipped
			result.Reason = fmt.Sprintf("email %s already in use", email)
			return result
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			result.Status = RowError
			result.Reason = err.Error()
			return result
		}
	}

	joinDate, err := time.Parse(dateFormat, field("join_date"))
	if err != nil {
		result.Status = RowError
		result.Reason = fmt.Sprintf("invalid date format: %s", field("join_date"))
		return result
	}

	_, err = i.creator.CreateMember(ctx, identity.System(), memberservice.CreateMemberInput{
		CallSign: callSign,
		Profile: membermodels.ProfileFields{
			FirstName:                    field("first_name"),
			LastName:                     field("last_name"),
			Email:                        email,
			Phone:                        field("phone"),
			Address:                      field("address"),
			City:                         field("city"),
			State:                        field("state"),
			ZipCode:                      field("zip"),
			FCCLicenseClass:              field("fcc_class"),
			EmergencyContactName:         field("emergency_name"),
			EmergencyContactPhone:        field("emergency_phone"),
			EmergencyContactRelationship: field("emergency_relationship"),
		},
		MembershipType: field("membership_type"),
		JoinDate:       joinDate,
	})
	switch {
	case err == nil:
		result.Status = RowImported
	case dErrors.HasCode(err, dErrors.CodeDuplicateCallSign):
		result.Status = RowSkipped
		result.Reason = "already exists"
	default:
		result.Status = RowError
		result.Reason = err.Error()
	}
	return result
}
