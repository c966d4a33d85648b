package vault

import (
	"math/big"

	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
)

// MaxBasisPoints is 100%. Rates are expressed in basis points.
const MaxBasisPoints = 10000

var maxBps = big.NewInt(MaxBasisPoints)

// ApplyFee splits a gross deposit into the net amount credited to the
// depositor and the fee kept by the vault. The fee is rounded down.
func ApplyFee(gross coin.Coin, bps uint32) (net, fee coin.Coin, err error) {
	if err := validateBps(bps); err != nil {
		return net, fee, err
	}
	fee, err = gross.MulDiv(new(big.Int).SetUint64(uint64(bps)), maxBps)
	if err != nil {
		return net, fee, errors.Wrap(err, "fee")
	}
	net, err = gross.Subtract(fee)
	if err != nil {
		return net, fee, errors.Wrap(err, "net")
	}
	return net, fee, nil
}

func validateBps(bps uint32) error {
	if bps > MaxBasisPoints {
		return errors.Wrapf(errors.ErrInvalidParameter, "%d basis points exceeds %d", bps, MaxBasisPoints)
	}
	return nil
}
