package app

import (
	"reflect"

	tokenvault "github.com/iov-one/tokenvault"
)

// Decorators is an ordered list of decorators waiting for the handler they
// wrap. The first decorator is the outermost one and sees a transaction
// first.
//
// The vault node builds its stack as
//
//	app.ChainDecorators(
//		app.NewLogging(),
//		app.NewRecovery(),
//		sigs.NewDecorator(),
//	).WithHandler(router)
type Decorators struct {
	chain []tokenvault.Decorator
}

// ChainDecorators returns the given decorators in execution order. Nil
// decorators are skipped so that optional ones can be passed without a
// condition.
func ChainDecorators(ds ...tokenvault.Decorator) Decorators {
	return Decorators{}.Chain(ds...)
}

// Chain returns a copy with the decorators appended after the existing ones.
func (d Decorators) Chain(ds ...tokenvault.Decorator) Decorators {
	chain := make([]tokenvault.Decorator, 0, len(d.chain)+len(ds))
	chain = append(chain, d.chain...)
	for _, dec := range ds {
		if !isNilDecorator(dec) {
			chain = append(chain, dec)
		}
	}
	return Decorators{chain: chain}
}

// isNilDecorator also catches typed nil pointers stored in the interface.
func isNilDecorator(d tokenvault.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler returns a handler running every decorator around h.
func (d Decorators) WithHandler(h tokenvault.Handler) tokenvault.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = decorated{dec: d.chain[i], next: h}
	}
	return h
}

// decorated is a handler calling dec with next as the rest of the stack.
type decorated struct {
	dec  tokenvault.Decorator
	next tokenvault.Handler
}

var _ tokenvault.Handler = decorated{}

func (s decorated) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	return s.dec.Check(ctx, db, tx, s.next)
}

func (s decorated) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	return s.dec.Deliver(ctx, db, tx, s.next)
}
