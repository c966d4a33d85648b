package cash

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r tokenvault.Registry, auth x.Authenticator, control Controller) {
	r.Handle(&SendMsg{}, migration.SchemaMigratingHandler("cash", NewSendHandler(auth, control)))
}

// SendHandler will handle sending coins
type SendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ tokenvault.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg
func NewSendHandler(auth x.Authenticator, control Controller) SendHandler {
	return SendHandler{
		auth:    auth,
		control: control,
	}
}

// Check just verifies it is properly formed and signed by the source.
func (h SendHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

// Deliver moves the tokens from source to receiver if
// all preconditions are met
func (h SendHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(db, msg.Source, msg.Destination, *msg.Amount); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

func (h SendHandler) validate(ctx tokenvault.Context, tx tokenvault.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireAddress(ctx, h.auth, msg.Source); err != nil {
		return nil, errors.Wrap(err, "account owner signature missing")
	}
	return &msg, nil
}
