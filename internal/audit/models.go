package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only admin-log row. Entries are written in the same
// transaction as the mutation they describe and are never updated or deleted
// by the application.
//
// TargetCallSign is a denormalized back-reference: it intentionally has no
// foreign key so entries survive member deletion.
type Entry struct {
	ID             uuid.UUID `json:"id"`
	AdminCallSign  string    `json:"admin_call_sign"`
	Action         string    `json:"action"`
	TargetCallSign string    `json:"target_call_sign,omitempty"`
	Details        string    `json:"details,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
