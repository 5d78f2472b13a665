package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	txcontext "clubroster/pkg/platform/tx"
)

// Tx runs functions inside a PostgreSQL transaction. The transaction is
// carried in ctx so every store touched by fn joins it.
type Tx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTx(db *sql.DB, timeout time.Duration) *Tx {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Tx{db: db, timeout: timeout}
}

func (t *Tx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// MemoryTx serializes in-memory mutations behind one mutex. There is no
// rollback; tests arrange state so fn either fully succeeds or leaves
// nothing behind worth rolling back.
type MemoryTx struct {
	mu sync.Mutex
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
