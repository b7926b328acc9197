// Package services implements the incident lifecycle, SLA derivation,
// quarter readiness, finalization and enrichment engines.
package services

import "context"

// TxRunner runs a function inside a storage transaction. Satisfied by
// database.DB; tests substitute a passthrough.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error
}
