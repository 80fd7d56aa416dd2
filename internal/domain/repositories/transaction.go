package repositories

import "context"

// TxFn is the unit of work run by a TransactionManager.
type TxFn func(ctx context.Context) error

// TransactionManager runs a unit of work atomically. Only the postgres
// hierarchy store has one; the mongo and memory stores write each document
// on its own.
type TransactionManager interface {
	// ExecTx commits when fn returns nil and rolls back otherwise.
	ExecTx(ctx context.Context, fn TxFn) error
}

// RunInTx runs fn through tm, or directly when the store has no
// transactions.
func RunInTx(ctx context.Context, tm TransactionManager, fn TxFn) error {
	if tm == nil {
		return fn(ctx)
	}
	return tm.ExecTx(ctx, fn)
}
