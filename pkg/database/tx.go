package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Executor is the subset of pgx operations repositories use. Both the pool
// and a transaction satisfy it, so repository methods run standalone or
// inside WithTx/WithSerializableTx unchanged.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// WithTx runs fn inside a read-committed transaction. The transaction is
// attached to the context so repository calls made by fn share it.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.runTx(ctx, pgx.TxOptions{}, fn)
}

// WithSerializableTx runs fn inside a serializable transaction. Finalization
// uses this so the readiness recomputation, hash, and snapshot commit cannot
// race a concurrent fact writer.
func (db *DB) WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.runTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func (db *DB) runTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	tx, err := db.Pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Runner returns the executor bound to ctx: the attached transaction when
// one exists, the pool otherwise.
func (db *DB) Runner(ctx context.Context) Executor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}
