package service

import (
	"context"
	"database/sql"
	"time"

	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// StoreTx provides the transactional boundary for the create and update
// paths: the header write and the history append must commit together.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// inMemoryStoreTx is the no-op boundary used with memory stores, which are
// individually mutex-guarded and have no cross-store atomicity to offer.
type inMemoryStoreTx struct{}

func newInMemoryStoreTx() *inMemoryStoreTx { return &inMemoryStoreTx{} }

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// PostgresTx runs the callback inside a SQL transaction carried via context,
// so the postgres stores pick it up transparently.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
