package cash

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/orm"
)

// Controller is the functionality needed by cash.Handler and cash.Decorator.
// BaseController should work plenty fine, but you can add other logic if
// so desired.
type Controller interface {
	CoinMover
	Balance(tokenvault.ReadOnlyKVStore, tokenvault.Address) (coin.Coins, error)
	CoinMint(tokenvault.KVStore, tokenvault.Address, coin.Coin) error
}

// CoinMover is an interface for moving coins between accounts.
type CoinMover interface {
	// MoveCoins removes funds from the source account and adds them to the
	// destination account. This operation is atomic.
	MoveCoins(tokenvault.KVStore, tokenvault.Address, tokenvault.Address, coin.Coin) error
}

// BaseController is a simple implementation of controller wallet must
// return a Wallet bucket.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns base controller implementation.
func NewController(bucket orm.ModelBucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the coins held by given address. An unknown address holds
// nothing.
func (c BaseController) Balance(db tokenvault.ReadOnlyKVStore, addr tokenvault.Address) (coin.Coins, error) {
	w, err := loadWallet(db, c.bucket, addr)
	if err != nil {
		return nil, err
	}
	return coin.Coins(w.Coins), nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(db tokenvault.KVStore, src, dest tokenvault.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}

	sender, err := loadWallet(db, c.bucket, src)
	if err != nil {
		return err
	}
	if !coin.Coins(sender.Coins).Contains(amount) {
		return errors.Wrapf(errors.ErrAmount, "%s holds less than %s", src, amount)
	}
	sent, err := coin.Coins(sender.Coins).Subtract(amount)
	if err != nil {
		return errors.Wrap(err, "subtract")
	}
	sender.Coins = sent
	if err := c.bucket.Put(db, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}

	// Loaded after the sender is saved so that moving to self is a noop.
	recipient, err := loadWallet(db, c.bucket, dest)
	if err != nil {
		return err
	}
	received, err := coin.Coins(recipient.Coins).Add(amount)
	if err != nil {
		return errors.Wrap(err, "add")
	}
	recipient.Coins = received
	if err := c.bucket.Put(db, dest, recipient); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}

// CoinMint attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) CoinMint(db tokenvault.KVStore, dest tokenvault.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	w, err := loadWallet(db, c.bucket, dest)
	if err != nil {
		return err
	}
	minted, err := coin.Coins(w.Coins).Add(amount)
	if err != nil {
		return errors.Wrap(err, "add")
	}
	w.Coins = minted
	return c.bucket.Put(db, dest, w)
}
