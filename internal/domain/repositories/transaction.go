package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs fn atomically: if fn returns an error every
// repository write made through ctx is rolled back.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
