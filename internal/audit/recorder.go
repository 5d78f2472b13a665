// Package audit persists the administrative action trail.
package audit

import (
	"context"

	"github.com/google/uuid"

	"clubroster/internal/identity"
	"clubroster/pkg/requestcontext"
)

// Store is the persistence boundary for admin-log entries. Append must honor
// a transaction carried in ctx so entries commit atomically with the mutation
// they describe.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	ListByTarget(ctx context.Context, targetCallSign string) ([]Entry, error)
}

// Recorder builds and appends admin-log entries. Services call it exactly
// once per successful mutation; failed commands never reach it.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one entry describing an action by the given identity. The
// origin address falls back to the request context when the identity carries
// none.
func (r *Recorder) Record(ctx context.Context, acting identity.Acting, action, targetCallSign, details string) error {
	ip := acting.IPAddress
	if ip == "" {
		ip = requestcontext.ClientIP(ctx)
	}
	return r.store.Append(ctx, Entry{
		ID:             uuid.New(),
		AdminCallSign:  acting.Actor(),
		Action:         action,
		TargetCallSign: targetCallSign,
		Details:        details,
		IPAddress:      ip,
		CreatedAt:      requestcontext.Now(ctx),
	})
}

// ListRecent returns the most recent entries, newest first.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return r.store.ListRecent(ctx, limit)
}

// ListByTarget returns entries referencing a member's call sign, newest first.
func (r *Recorder) ListByTarget(ctx context.Context, targetCallSign string) ([]Entry, error) {
	return r.store.ListByTarget(ctx, targetCallSign)
}
