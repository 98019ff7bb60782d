package memory

import (
	"context"

	"plume/internal/domain/repositories"
)

// undoLog collects compensations for writes made inside a transaction.
type undoLog struct {
	steps []func()
}

type txKey struct{}

// TransactionManager gives the in-memory repositories rollback semantics:
// writes made through the transaction context are undone if fn fails.
type TransactionManager struct{}

// NewTransactionManager creates a transaction manager for memory repositories.
func NewTransactionManager() repositories.TransactionManager {
	return &TransactionManager{}
}

func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	log := &undoLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		for i := len(log.steps) - 1; i >= 0; i-- {
			log.steps[i]()
		}
		return err
	}
	return nil
}

// onRollback registers undo if ctx carries a transaction.
func onRollback(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(txKey{}).(*undoLog); ok {
		log.steps = append(log.steps, undo)
	}
}
