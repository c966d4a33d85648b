package vault

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/orm"
)

// AssetMover transfers the underlying asset between addresses. It is the
// only way the vault moves value and it must fail if the source does not
// hold enough.
type AssetMover interface {
	MoveCoins(db tokenvault.KVStore, src, dest tokenvault.Address, amount coin.Coin) error
}

// ReserveCondition owns all assets deposited into the vault.
var ReserveCondition = tokenvault.NewCondition("vault", "reserve", nil)

// ReserveAddress returns the address of the vault reserve wallet.
func ReserveAddress() tokenvault.Address {
	return ReserveCondition.Address()
}

// Ledger keeps the balance of every depositor. Inflows pull the asset into
// the reserve before anything is credited. Outflows debit the state before
// the asset is pushed out.
type Ledger struct {
	accounts orm.ModelBucket
	requests orm.ModelBucket
	schema   *migration.SchemaBucket
	mover    AssetMover
}

// NewLedger returns a ledger moving assets with given mover.
func NewLedger(mover AssetMover) *Ledger {
	return &Ledger{
		accounts: NewAccountBucket(),
		requests: NewWithdrawalRequestBucket(),
		schema:   migration.NewSchemaBucket(),
		mover:    mover,
	}
}

func (l *Ledger) version(db tokenvault.ReadOnlyKVStore) (uint32, error) {
	return l.schema.CurrentSchema(db, packageName)
}

// account returns the account of given address or a new, empty one.
func (l *Ledger) account(db tokenvault.ReadOnlyKVStore, c *Configuration, addr tokenvault.Address) (*Account, error) {
	var a Account
	switch err := l.accounts.One(db, addr, &a); {
	case err == nil:
		return &a, nil
	case errors.ErrNotFound.Is(err):
		balance := coin.Zero(c.Token)
		return &Account{
			Metadata: &tokenvault.Metadata{},
			Balance:  &balance,
		}, nil
	default:
		return nil, errors.Wrapf(err, "account %s", addr)
	}
}

// settle checkpoints the account yield if the current version accrues
// yield.
func (l *Ledger) settle(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore, c *Configuration, a *Account) error {
	ver, err := l.version(db)
	if err != nil {
		return err
	}
	if ver < V2 {
		return nil
	}
	now, err := tokenvault.BlockUnixTime(ctx)
	if err != nil {
		return err
	}
	return settleYield(a, c, now)
}

func checkNotPaused(c *Configuration) error {
	if c.Paused {
		return errors.Wrap(errors.ErrPaused, "vault is paused")
	}
	return nil
}

// Deposit pulls gross from the account wallet into the reserve and credits
// the amount left after the deposit fee.
func (l *Ledger) Deposit(ctx tokenvault.Context, db tokenvault.KVStore, addr tokenvault.Address, gross coin.Coin) (coin.Coin, error) {
	c, err := loadConfig(db)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := c.checkAmount(gross); err != nil {
		return coin.Coin{}, err
	}
	if err := checkNotPaused(c); err != nil {
		return coin.Coin{}, err
	}

	if err := l.mover.MoveCoins(db, addr, ReserveAddress(), gross); err != nil {
		return coin.Coin{}, errors.Wrap(err, "pull deposit")
	}

	// The mover may have changed the state, load everything again.
	if c, err = loadConfig(db); err != nil {
		return coin.Coin{}, err
	}
	a, err := l.account(db, c, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := l.settle(ctx, db, c, a); err != nil {
		return coin.Coin{}, errors.Wrap(err, "settle yield")
	}

	net, fee, err := ApplyFee(gross, c.DepositFeeRateBps)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := credit(c, a, net); err != nil {
		return coin.Coin{}, err
	}
	fees, err := c.CollectedFees.Add(fee)
	if err != nil {
		return coin.Coin{}, errors.Wrap(err, "collected fees")
	}
	c.CollectedFees = &fees

	if err := l.accounts.Put(db, addr, a); err != nil {
		return coin.Coin{}, errors.Wrap(err, "save account")
	}
	if err := saveConfig(db, c); err != nil {
		return coin.Coin{}, errors.Wrap(err, "save configuration")
	}
	tokenvault.GetLogger(ctx).Debug("deposit",
		"account", addr, "gross", gross, "net", net, "fee", fee)
	return net, nil
}

// Withdraw debits the account and pushes the amount out of the reserve.
func (l *Ledger) Withdraw(ctx tokenvault.Context, db tokenvault.KVStore, addr tokenvault.Address, amount coin.Coin) error {
	c, err := loadConfig(db)
	if err != nil {
		return err
	}
	if err := c.checkAmount(amount); err != nil {
		return err
	}
	if err := checkNotPaused(c); err != nil {
		return err
	}
	a, err := l.account(db, c, addr)
	if err != nil {
		return err
	}
	if err := l.payout(ctx, db, c, addr, a, amount); err != nil {
		return err
	}
	tokenvault.GetLogger(ctx).Debug("withdraw", "account", addr, "amount", amount)
	return nil
}

// payout debits the account, persists the state and only then pushes the
// amount out of the reserve.
func (l *Ledger) payout(ctx tokenvault.Context, db tokenvault.KVStore, c *Configuration, addr tokenvault.Address, a *Account, amount coin.Coin) error {
	if err := l.settle(ctx, db, c, a); err != nil {
		return errors.Wrap(err, "settle yield")
	}
	if err := debit(c, a, amount); err != nil {
		return err
	}
	if err := l.accounts.Put(db, addr, a); err != nil {
		return errors.Wrap(err, "save account")
	}
	if err := saveConfig(db, c); err != nil {
		return errors.Wrap(err, "save configuration")
	}
	if err := l.mover.MoveCoins(db, ReserveAddress(), addr, amount); err != nil {
		return errors.Wrap(err, "push withdrawal")
	}
	return nil
}

// ClaimYield credits all yield earned by the account so far to its
// balance and returns the claimed amount.
func (l *Ledger) ClaimYield(ctx tokenvault.Context, db tokenvault.KVStore, addr tokenvault.Address) (coin.Coin, error) {
	c, err := loadConfig(db)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := checkNotPaused(c); err != nil {
		return coin.Coin{}, err
	}
	a, err := l.account(db, c, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	if err := l.settle(ctx, db, c, a); err != nil {
		return coin.Coin{}, errors.Wrap(err, "settle yield")
	}
	claimed := a.pending()
	if err := credit(c, a, claimed); err != nil {
		return coin.Coin{}, err
	}
	zero := coin.Zero(c.Token)
	a.PendingYield = &zero

	if err := l.accounts.Put(db, addr, a); err != nil {
		return coin.Coin{}, errors.Wrap(err, "save account")
	}
	if err := saveConfig(db, c); err != nil {
		return coin.Coin{}, errors.Wrap(err, "save configuration")
	}
	tokenvault.GetLogger(ctx).Debug("claim yield", "account", addr, "amount", claimed)
	return claimed, nil
}

// credit adds amount to the account balance and to the total deposits.
func credit(c *Configuration, a *Account, amount coin.Coin) error {
	balance, err := a.Balance.Add(amount)
	if err != nil {
		return errors.Wrap(err, "balance")
	}
	total, err := c.TotalDeposits.Add(amount)
	if err != nil {
		return errors.Wrap(err, "total deposits")
	}
	a.Balance = &balance
	c.TotalDeposits = &total
	return nil
}

// debit subtracts amount from the account balance and from the total
// deposits. ErrInsufficientBalance is returned if the account holds less.
func debit(c *Configuration, a *Account, amount coin.Coin) error {
	if !a.Balance.IsGTE(amount) {
		return errors.Wrapf(errors.ErrInsufficientBalance, "balance %s, requested %s", a.Balance, amount)
	}
	balance, err := a.Balance.Subtract(amount)
	if err != nil {
		return errors.Wrap(err, "balance")
	}
	total, err := c.TotalDeposits.Subtract(amount)
	if err != nil {
		return errors.Wrap(errors.ErrState, "total deposits lower than an account balance")
	}
	a.Balance = &balance
	c.TotalDeposits = &total
	return nil
}
