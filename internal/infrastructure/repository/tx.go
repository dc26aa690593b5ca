package repository

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
)

type txKey struct{}

// querier is the subset of pgx shared by pools and transactions
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queryerFrom resolves the transaction embedded in ctx, falling back to the
// pool for standalone reads.
func queryerFrom(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// txBeginner opens transactions; satisfied by *pgxpool.Pool
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager runs functions inside PostgreSQL transactions. The open
// transaction travels in the context, so repositories called from fn
// automatically join it, and nested WithTx calls reuse it rather than
// opening a second one.
type TxManager struct {
	db         txBeginner
	maxRetries int
}

// NewTxManager creates a transaction manager over the pool
func NewTxManager(db txBeginner, maxRetries int) *TxManager {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TxManager{db: db, maxRetries: maxRetries}
}

// WithTx executes fn inside a transaction, committing on nil and rolling
// back on error. Serialization failures and deadlocks are retried a bounded
// number of times before surfacing as a retryable conflict.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return errors.NewTransientConflictError("transaction conflicted with concurrent bids").WithCause(lastErr)
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return errors.NewInternalError("failed to begin transaction").WithCause(err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return err
		}
		return errors.NewInternalError("failed to commit transaction").WithCause(err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
