package shared

import "context"

// TransactionManager runs a unit of work atomically. The transaction is
// carried through the context so every repository call inside fn joins the
// same transaction; fn returning an error rolls back all prior steps.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
