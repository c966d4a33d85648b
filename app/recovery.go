package app

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ tokenvault.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (Recovery) Check(ctx tokenvault.Context, store tokenvault.KVStore, tx tokenvault.Tx, next tokenvault.Checker) (_ *tokenvault.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (Recovery) Deliver(ctx tokenvault.Context, store tokenvault.KVStore, tx tokenvault.Tx, next tokenvault.Deliverer) (_ *tokenvault.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}
