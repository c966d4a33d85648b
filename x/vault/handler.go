package vault

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/x"
)

// RegisterRoutes will instantiate and register all handlers in this
// package. Handlers of a feature introduced by a version are unreachable
// until the vault is upgraded to that version.
func RegisterRoutes(r tokenvault.Registry, auth x.Authenticator, mover AssetMover) {
	l := NewLedger(mover)

	r.Handle(&InitializeMsg{}, InitializeHandler{})
	r.Handle(&UpgradeMsg{}, route(V1, 0, UpgradeHandler{auth: auth}))
	r.Handle(&SetPausedMsg{}, route(V1, 0, SetPausedHandler{auth: auth}))
	r.Handle(&SetDepositFeeMsg{}, route(V1, 0, SetDepositFeeHandler{auth: auth}))
	r.Handle(&DepositMsg{}, route(V1, 0, DepositHandler{auth: auth, ledger: l}))
	r.Handle(&WithdrawMsg{}, route(V1, V2, WithdrawHandler{auth: auth, ledger: l}))

	r.Handle(&SetYieldRateMsg{}, route(V2, 0, SetYieldRateHandler{auth: auth}))
	r.Handle(&ClaimYieldMsg{}, route(V2, 0, ClaimYieldHandler{auth: auth, ledger: l}))

	r.Handle(&SetWithdrawalDelayMsg{}, route(V3, 0, SetWithdrawalDelayHandler{auth: auth}))
	r.Handle(&RequestWithdrawalMsg{}, route(V3, 0, RequestWithdrawalHandler{auth: auth, ledger: l}))
	r.Handle(&ExecuteWithdrawalMsg{}, route(V3, 0, ExecuteWithdrawalHandler{auth: auth, ledger: l}))
	r.Handle(&CancelWithdrawalMsg{}, route(V3, 0, CancelWithdrawalHandler{auth: auth, ledger: l}))
	r.Handle(&EmergencyWithdrawMsg{}, route(V3, 0, EmergencyWithdrawHandler{auth: auth, ledger: l}))
}

// route gates the handler to the versions [min, max] and migrates incoming
// messages to the current schema.
func route(min, max uint32, h tokenvault.Handler) tokenvault.Handler {
	h = migration.SchemaMigratingHandler(packageName, h)
	return migration.SchemaGatedHandler(packageName, min, max, h)
}

// requireAdmin returns ErrUnauthorized unless the administrator signed the
// transaction.
func requireAdmin(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore, auth x.Authenticator) error {
	c, err := loadConfig(db)
	if err != nil {
		return err
	}
	if err := x.RequireAddress(ctx, auth, c.Admin); err != nil {
		return errors.Wrap(err, "administrator")
	}
	return nil
}

// InitializeHandler rejects all initialization attempts. A vault is
// initialized only once, when it is created (see Initialize and the genesis
// Initializer).
type InitializeHandler struct{}

var _ tokenvault.Handler = InitializeHandler{}

func (InitializeHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	return nil, errors.Wrap(errors.ErrAlreadyInitialized, "initializers are disabled")
}

func (InitializeHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	return nil, errors.Wrap(errors.ErrAlreadyInitialized, "initializers are disabled")
}

// UpgradeHandler activates the next version of the vault logic.
type UpgradeHandler struct {
	auth x.Authenticator
}

var _ tokenvault.Handler = UpgradeHandler{}

func (h UpgradeHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h UpgradeHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := Upgrade(ctx, db, msg.Version); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{Log: "upgraded to " + VersionName(msg.Version)}, nil
}

func (h UpgradeHandler) validate(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*UpgradeMsg, error) {
	var msg UpgradeMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := requireAdmin(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetPausedHandler pauses and resumes the vault.
type SetPausedHandler struct {
	auth x.Authenticator
}

var _ tokenvault.Handler = SetPausedHandler{}

func (h SetPausedHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h SetPausedHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := SetPaused(ctx, db, msg.Paused); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

func (h SetPausedHandler) validate(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*SetPausedMsg, error) {
	var msg SetPausedMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := requireAdmin(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetDepositFeeHandler changes the deposit fee rate.
type SetDepositFeeHandler struct {
	auth x.Authenticator
}

var _ tokenvault.Handler = SetDepositFeeHandler{}

func (h SetDepositFeeHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h SetDepositFeeHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := SetDepositFee(ctx, db, msg.FeeBps); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

func (h SetDepositFeeHandler) validate(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*SetDepositFeeMsg, error) {
	var msg SetDepositFeeMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := requireAdmin(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetYieldRateHandler changes the yield rate.
type SetYieldRateHandler struct {
	auth x.Authenticator
}

var _ tokenvault.Handler = SetYieldRateHandler{}

func (h SetYieldRateHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h SetYieldRateHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := SetYieldRate(ctx, db, msg.RateBps); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

func (h SetYieldRateHandler) validate(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*SetYieldRateMsg, error) {
	var msg SetYieldRateMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := requireAdmin(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetWithdrawalDelayHandler changes the withdrawal delay.
type SetWithdrawalDelayHandler struct {
	auth x.Authenticator
}

var _ tokenvault.Handler = SetWithdrawalDelayHandler{}

func (h SetWithdrawalDelayHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h SetWithdrawalDelayHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := SetWithdrawalDelay(ctx, db, msg.Delay); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

func (h SetWithdrawalDelayHandler) validate(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*SetWithdrawalDelayMsg, error) {
	var msg SetWithdrawalDelayMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := requireAdmin(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DepositHandler credits deposits of the signer.
type DepositHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ tokenvault.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h DepositHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, signer, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	net, err := h.ledger.Deposit(ctx, db, signer, *msg.Amount)
	if err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{Log: "credited " + net.String()}, nil
}

func (h DepositHandler) validate(ctx tokenvault.Context, tx tokenvault.Tx) (*DepositMsg, tokenvault.Address, error) {
	var msg DepositMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	return &msg, signer, nil
}

// WithdrawHandler immediately withdraws funds of the signer.
type WithdrawHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ tokenvault.Handler = WithdrawHandler{}

func (h WithdrawHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h WithdrawHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, signer, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.Withdraw(ctx, db, signer, *msg.Amount); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

func (h WithdrawHandler) validate(ctx tokenvault.Context, tx tokenvault.Tx) (*WithdrawMsg, tokenvault.Address, error) {
	var msg WithdrawMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	return &msg, signer, nil
}

// ClaimYieldHandler credits the accrued yield of the signer.
type ClaimYieldHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ tokenvault.Handler = ClaimYieldHandler{}

func (h ClaimYieldHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := signerOf(ctx, tx, h.auth, &ClaimYieldMsg{}); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h ClaimYieldHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	signer, err := signerOf(ctx, tx, h.auth, &ClaimYieldMsg{})
	if err != nil {
		return nil, err
	}
	claimed, err := h.ledger.ClaimYield(ctx, db, signer)
	if err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{Log: "claimed " + claimed.String()}, nil
}

// RequestWithdrawalHandler starts a delayed withdrawal of the signer.
type RequestWithdrawalHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ tokenvault.Handler = RequestWithdrawalHandler{}

func (h RequestWithdrawalHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h RequestWithdrawalHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	msg, signer, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ledger.RequestWithdrawal(ctx, db, signer, *msg.Amount); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

func (h RequestWithdrawalHandler) validate(ctx tokenvault.Context, tx tokenvault.Tx) (*RequestWithdrawalMsg, tokenvault.Address, error) {
	var msg RequestWithdrawalMsg
	if err := tokenvault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	signer, err := x.MainSignerAddress(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	return &msg, signer, nil
}

// ExecuteWithdrawalHandler pays out a matured withdrawal request of the
// signer.
type ExecuteWithdrawalHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ tokenvault.Handler = ExecuteWithdrawalHandler{}

func (h ExecuteWithdrawalHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := signerOf(ctx, tx, h.auth, &ExecuteWithdrawalMsg{}); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h ExecuteWithdrawalHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	signer, err := signerOf(ctx, tx, h.auth, &ExecuteWithdrawalMsg{})
	if err != nil {
		return nil, err
	}
	paid, err := h.ledger.ExecuteWithdrawal(ctx, db, signer)
	if err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{Log: "withdrawn " + paid.String()}, nil
}

// CancelWithdrawalHandler drops the pending withdrawal request of the
// signer.
type CancelWithdrawalHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ tokenvault.Handler = CancelWithdrawalHandler{}

func (h CancelWithdrawalHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := signerOf(ctx, tx, h.auth, &CancelWithdrawalMsg{}); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h CancelWithdrawalHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	signer, err := signerOf(ctx, tx, h.auth, &CancelWithdrawalMsg{})
	if err != nil {
		return nil, err
	}
	if err := h.ledger.CancelWithdrawal(ctx, db, signer); err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{}, nil
}

// EmergencyWithdrawHandler withdraws the whole balance of the signer.
type EmergencyWithdrawHandler struct {
	auth   x.Authenticator
	ledger *Ledger
}

var _ tokenvault.Handler = EmergencyWithdrawHandler{}

func (h EmergencyWithdrawHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if _, err := signerOf(ctx, tx, h.auth, &EmergencyWithdrawMsg{}); err != nil {
		return nil, err
	}
	return &tokenvault.CheckResult{}, nil
}

func (h EmergencyWithdrawHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	signer, err := signerOf(ctx, tx, h.auth, &EmergencyWithdrawMsg{})
	if err != nil {
		return nil, err
	}
	paid, err := h.ledger.EmergencyWithdraw(ctx, db, signer)
	if err != nil {
		return nil, err
	}
	return &tokenvault.DeliverResult{Log: "withdrawn " + paid.String()}, nil
}

// signerOf loads a message that carries no data beside the metadata and
// returns the address of the main signer.
func signerOf(ctx tokenvault.Context, tx tokenvault.Tx, auth x.Authenticator, msg tokenvault.Msg) (tokenvault.Address, error) {
	if err := tokenvault.LoadMsg(tx, msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return x.MainSignerAddress(ctx, auth)
}
