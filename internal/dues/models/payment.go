package models

import (
	"strings"
	"time"

	dErrors "clubroster/pkg/domain-errors"
)

// Payment records a single dues payment for one (member, year) pair.
//
// Invariants:
//   - Year is a plausible calendar year
//   - Amount is non-negative (a $0 record still counts as paid)
//   - At most one payment exists per (member, year); the service checks
//     before insert and the store's uniqueness constraint backstops races
type Payment struct {
	ID            int64         `json:"id"`
	MemberID      int64         `json:"member_id"`
	Year          int           `json:"year"`
	Amount        float64       `json:"amount"`
	PaymentDate   time.Time     `json:"payment_date"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Notes         string        `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"` // call sign of the recording admin
}

// PaymentMethod enumerates how dues were collected.
type PaymentMethod string

const (
	MethodPayPal PaymentMethod = "PayPal"
	MethodCash   PaymentMethod = "Cash"
	MethodCheck  PaymentMethod = "Check"
	MethodOther  PaymentMethod = "Other"
)

var paymentMethods = map[PaymentMethod]struct{}{
	MethodPayPal: {},
	MethodCash:   {},
	MethodCheck:  {},
	MethodOther:  {},
}

// ParsePaymentMethod validates a payment method string, defaulting empty
// input to PayPal.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if strings.TrimSpace(s) == "" {
		return MethodPayPal, nil
	}
	pm := PaymentMethod(s)
	if _, ok := paymentMethods[pm]; !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown payment method %q", s)
	}
	return pm, nil
}

// NewPayment validates and constructs a payment record.
func NewPayment(memberID int64, year int, amount float64, paymentDate time.Time, method PaymentMethod, notes, createdBy string, now time.Time) (*Payment, error) {
	if memberID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "member id is required")
	}
	if year < 1900 || year > 3000 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "implausible dues year %d", year)
	}
	if amount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount cannot be negative")
	}
	if paymentDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidDate, "payment date is required")
	}
	return &Payment{
		MemberID:      memberID,
		Year:          year,
		Amount:        amount,
		PaymentDate:   paymentDate,
		PaymentMethod: method,
		Notes:         strings.TrimSpace(notes),
		CreatedAt:     now,
		CreatedBy:     createdBy,
	}, nil
}
