// Package identity carries the acting admin's identity into commands.
//
// Commands take an explicit Acting value rather than reading ambient session
// state, so the command layer stays a pure function of (identity, request,
// stores).
package identity

import "context"

// SystemCallSign is the sentinel actor recorded for automated actions (bulk
// import, maintenance jobs) that have no logged-in admin behind them.
const SystemCallSign = "SYSTEM"

// Acting identifies who is performing a command and from where.
type Acting struct {
	CallSign  string
	IsAdmin   bool
	IPAddress string
}

// System returns the identity used for automated, non-interactive actions.
func System() Acting {
	return Acting{CallSign: SystemCallSign, IsAdmin: true}
}

// Actor returns the call sign to record in the admin log, defaulting to the
// SYSTEM sentinel when the identity is empty.
func (a Acting) Actor() string {
	if a.CallSign == "" {
		return SystemCallSign
	}
	return a.CallSign
}

type actingKey struct{}

var contextKeyActing = actingKey{}

// WithActing injects the authenticated identity into a request context.
func WithActing(ctx context.Context, acting Acting) context.Context {
	return context.WithValue(ctx, contextKeyActing, acting)
}

// FromContext retrieves the authenticated identity, if any.
func FromContext(ctx context.Context) (Acting, bool) {
	acting, ok := ctx.Value(contextKeyActing).(Acting)
	return acting, ok
}
