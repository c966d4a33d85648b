package vault

import (
	"math/big"

	"github.com/holiman/uint256"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
)

// SecondsPerYear is the length of the year used for the yield accrual.
const SecondsPerYear = 365 * 24 * 60 * 60

// indexUnit is the fixed point precision of the accrual index. With 36
// decimals the per step floor of the index loses less than one base unit
// for any principal below 10^36 base units.
var indexUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)

// accrueIndex returns the index advanced by the given rate over elapsed
// seconds. Each basis point per year adds
// floor(rate * elapsed * 1e36 / (10000 * SecondsPerYear)).
func accrueIndex(index *uint256.Int, rateBps uint32, elapsed int64) (*uint256.Int, error) {
	if rateBps == 0 || elapsed <= 0 {
		return index.Clone(), nil
	}
	delta := new(big.Int).SetUint64(uint64(rateBps))
	delta.Mul(delta, big.NewInt(elapsed))
	delta.Mul(delta, indexUnit)
	delta.Quo(delta, big.NewInt(MaxBasisPoints*SecondsPerYear))

	next := new(big.Int).Add(index.ToBig(), delta)
	res, overflow := uint256.FromBig(next)
	if overflow {
		return nil, errors.Wrap(errors.ErrOverflow, "yield index")
	}
	return res, nil
}

// currentIndex returns the global index at given time without modifying the
// configuration.
func currentIndex(c *Configuration, now tokenvault.UnixTime) (*uint256.Int, error) {
	return accrueIndex(c.index(), c.YieldRateBps, int64(now-c.YieldCheckpoint))
}

// checkpointIndex accrues the global index with the current rate up to now.
// It must be called before the rate changes so that the new rate is never
// applied to the past.
func checkpointIndex(c *Configuration, now tokenvault.UnixTime) error {
	if now <= c.YieldCheckpoint {
		return nil
	}
	idx, err := currentIndex(c, now)
	if err != nil {
		return err
	}
	c.YieldIndex = encodeIndex(idx)
	c.YieldCheckpoint = now
	return nil
}

// accrued returns the yield earned by principal while the index moved from
// one value to another.
func accrued(principal coin.Coin, from, to *uint256.Int) (coin.Coin, error) {
	if !to.Gt(from) {
		return coin.Zero(principal.Ticker), nil
	}
	diff := new(uint256.Int).Sub(to, from)
	return principal.MulDiv(diff.ToBig(), indexUnit)
}

// projectYield returns the total unclaimed yield of the account at given
// time. The account is not modified.
func projectYield(a *Account, c *Configuration, now tokenvault.UnixTime) (coin.Coin, error) {
	idx, err := currentIndex(c, now)
	if err != nil {
		return coin.Coin{}, err
	}
	earned, err := accrued(*a.Balance, a.index(), idx)
	if err != nil {
		return coin.Coin{}, err
	}
	return a.pending().Add(earned)
}

// settleYield moves the yield earned since the last checkpoint of the
// account into its pending yield. It must be called before the account
// principal changes.
func settleYield(a *Account, c *Configuration, now tokenvault.UnixTime) error {
	idx, err := currentIndex(c, now)
	if err != nil {
		return err
	}
	earned, err := accrued(*a.Balance, a.index(), idx)
	if err != nil {
		return errors.Wrap(err, "accrued yield")
	}
	pending, err := a.pending().Add(earned)
	if err != nil {
		return errors.Wrap(err, "pending yield")
	}
	a.PendingYield = &pending
	a.YieldIndex = encodeIndex(idx)
	a.LastAccrual = now
	return nil
}

func encodeIndex(idx *uint256.Int) []byte {
	if idx.IsZero() {
		return nil
	}
	return idx.Bytes()
}
