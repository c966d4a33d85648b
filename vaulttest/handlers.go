package vaulttest

import tokenvault "github.com/iov-one/tokenvault"

// Handler is a mock implementing tokenvault.Handler interface that counts
// the calls and returns configured results.
type Handler struct {
	checkCall   int
	CheckResult tokenvault.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult tokenvault.DeliverResult
	DeliverErr    error
}

var _ tokenvault.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// WriteHandler writes the key value pair to the store and returns the
// configured error. It is useful to test that a failed operation does not
// leave partial writes behind.
type WriteHandler struct {
	Key   []byte
	Value []byte
	Err   error
}

var _ tokenvault.Handler = (*WriteHandler)(nil)

func (h *WriteHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	if h.Err != nil {
		return nil, h.Err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h *WriteHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	if h.Err != nil {
		return nil, h.Err
	}
	return &tokenvault.DeliverResult{}, nil
}

// PanicHandler panics when called.
type PanicHandler struct {
	Msg string
}

var _ tokenvault.Handler = PanicHandler{}

func (h PanicHandler) Check(tokenvault.Context, tokenvault.KVStore, tokenvault.Tx) (*tokenvault.CheckResult, error) {
	panic(h.Msg)
}

func (h PanicHandler) Deliver(tokenvault.Context, tokenvault.KVStore, tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	panic(h.Msg)
}
