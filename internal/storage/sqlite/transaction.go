package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type ctxKey string

const txKey ctxKey = "tx"

type TransactionManager struct {
	db    *sqlx.DB
	retry *Retryer
}

func NewTransactionManager(db *sqlx.DB, retry *Retryer) *TransactionManager {
	return &TransactionManager{db: db, retry: retry}
}

func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// BeginTxx acquires the write lock; another process may hold it.
	var tx *sqlx.Tx
	err := tm.retry.Do(ctx, func() error {
		var err error
		tx, err = tm.db.BeginTxx(ctx, nil)
		return err
	})
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}

	// A failed Commit finalizes the Tx, so it cannot go through the
	// retryer; the write lock was already acquired by the statements
	// inside fn, which are individually retried.
	return tx.Commit()
}

func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

func GetExecutor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := GetTxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
