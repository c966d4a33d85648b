package vault

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
)

// CheckConservation returns ErrState if the total deposits are not equal
// to the sum of all account balances.
func CheckConservation(db tokenvault.ReadOnlyKVStore) error {
	c, err := loadConfig(db)
	if err != nil {
		return err
	}
	it, err := NewAccountBucket().PrefixScan(db, nil, false)
	if err != nil {
		return errors.Wrap(err, "scan accounts")
	}
	defer it.Release()

	sum := coin.Zero(c.Token)
	for {
		var a Account
		switch key, err := it.LoadNext(&a); {
		case err == nil:
			if sum, err = sum.Add(*a.Balance); err != nil {
				return errors.Wrapf(err, "account %X", key)
			}
		case errors.ErrIteratorDone.Is(err):
			if !sum.Equals(*c.TotalDeposits) {
				return errors.Wrapf(errors.ErrState, "total deposits %s, sum of balances %s", c.TotalDeposits, sum)
			}
			return nil
		default:
			return errors.Wrap(err, "load account")
		}
	}
}
