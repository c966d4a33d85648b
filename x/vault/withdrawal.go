package vault

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
)

// A withdrawal request is either absent (no pending withdrawal) or present
// (requested). Executing, bypassing or cancelling a request removes it.

// pendingRequest returns the withdrawal request of the account or nil.
func (l *Ledger) pendingRequest(db tokenvault.ReadOnlyKVStore, addr tokenvault.Address) (*WithdrawalRequest, error) {
	var r WithdrawalRequest
	switch err := l.requests.One(db, addr, &r); {
	case err == nil:
		return &r, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, errors.Wrapf(err, "withdrawal request %s", addr)
	}
}

// RequestWithdrawal records the intent to withdraw amount. No funds move
// until the request is executed. Only one request per account can be
// pending.
func (l *Ledger) RequestWithdrawal(ctx tokenvault.Context, db tokenvault.KVStore, addr tokenvault.Address, amount coin.Coin) (*WithdrawalRequest, error) {
	c, err := loadConfig(db)
	if err != nil {
		return nil, err
	}
	if err := c.checkAmount(amount); err != nil {
		return nil, err
	}
	if err := checkNotPaused(c); err != nil {
		return nil, err
	}
	now, err := tokenvault.BlockUnixTime(ctx)
	if err != nil {
		return nil, err
	}

	switch r, err := l.pendingRequest(db, addr); {
	case err != nil:
		return nil, err
	case r != nil:
		return nil, errors.Wrapf(errors.ErrRequestAlreadyPending, "%s requested at %s", r.Amount, r.RequestedAt)
	}

	a, err := l.account(db, c, addr)
	if err != nil {
		return nil, err
	}
	if !a.Balance.IsGTE(amount) {
		return nil, errors.Wrapf(errors.ErrInsufficientBalance, "balance %s, requested %s", a.Balance, amount)
	}

	r := &WithdrawalRequest{
		Metadata:    &tokenvault.Metadata{},
		Amount:      amount.Clone(),
		RequestedAt: now,
	}
	if err := l.requests.Put(db, addr, r); err != nil {
		return nil, errors.Wrap(err, "save request")
	}
	tokenvault.GetLogger(ctx).Debug("withdrawal requested",
		"account", addr, "amount", amount, "matures", r.MaturesAt(c.WithdrawalDelay))
	return r, nil
}

// ExecuteWithdrawal pays out the pending request once the withdrawal delay
// has passed. The delay currently configured applies, also to requests
// created before it was changed.
func (l *Ledger) ExecuteWithdrawal(ctx tokenvault.Context, db tokenvault.KVStore, addr tokenvault.Address) (coin.Coin, error) {
	c, err := loadConfig(db)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := checkNotPaused(c); err != nil {
		return coin.Coin{}, err
	}
	now, err := tokenvault.BlockUnixTime(ctx)
	if err != nil {
		return coin.Coin{}, err
	}

	r, err := l.pendingRequest(db, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	if r == nil {
		return coin.Coin{}, errors.Wrap(errors.ErrNoPendingRequest, "nothing to execute")
	}
	if matures := r.MaturesAt(c.WithdrawalDelay); now < matures {
		return coin.Coin{}, errors.Wrapf(errors.ErrWithdrawalDelayNotPassed, "matures at %s", matures)
	}

	a, err := l.account(db, c, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := l.requests.Delete(db, addr); err != nil {
		return coin.Coin{}, errors.Wrap(err, "clear request")
	}
	if err := l.payout(ctx, db, c, addr, a, *r.Amount); err != nil {
		return coin.Coin{}, err
	}
	tokenvault.GetLogger(ctx).Debug("withdrawal executed", "account", addr, "amount", r.Amount)
	return *r.Amount, nil
}

// CancelWithdrawal removes the pending request without moving any funds.
func (l *Ledger) CancelWithdrawal(ctx tokenvault.Context, db tokenvault.KVStore, addr tokenvault.Address) error {
	switch r, err := l.pendingRequest(db, addr); {
	case err != nil:
		return err
	case r == nil:
		return errors.Wrap(errors.ErrNoPendingRequest, "nothing to cancel")
	}
	if err := l.requests.Delete(db, addr); err != nil {
		return errors.Wrap(err, "clear request")
	}
	tokenvault.GetLogger(ctx).Debug("withdrawal cancelled", "account", addr)
	return nil
}

// EmergencyWithdraw pays out the whole balance of the account immediately,
// regardless of the withdrawal delay and of the vault being paused. Any
// pending request is cleared. Unclaimed yield stays with the account.
func (l *Ledger) EmergencyWithdraw(ctx tokenvault.Context, db tokenvault.KVStore, addr tokenvault.Address) (coin.Coin, error) {
	c, err := loadConfig(db)
	if err != nil {
		return coin.Coin{}, err
	}
	switch r, err := l.pendingRequest(db, addr); {
	case err != nil:
		return coin.Coin{}, err
	case r != nil:
		if err := l.requests.Delete(db, addr); err != nil {
			return coin.Coin{}, errors.Wrap(err, "clear request")
		}
	}

	a, err := l.account(db, c, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	amount := *a.Balance.Clone()
	if amount.IsZero() {
		return amount, nil
	}
	if err := l.payout(ctx, db, c, addr, a, amount); err != nil {
		return coin.Coin{}, err
	}
	tokenvault.GetLogger(ctx).Info("emergency withdrawal", "account", addr, "amount", amount)
	return amount, nil
}
