package ports

import "context"

// TxManager runs a function inside one control-plane transaction. Used for
// closed units of work (flag toggles, batch bookkeeping); the provisioning
// saga manages its two transactions by hand through the store Begin methods.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
