package vault

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Administrator operations. Authorization is enforced by the handlers.

// SetDepositFee changes the fee rate applied to all future deposits.
func SetDepositFee(ctx tokenvault.Context, db tokenvault.KVStore, bps uint32) error {
	if err := validateBps(bps); err != nil {
		return err
	}
	return updateConfig(db, func(c *Configuration) error {
		c.DepositFeeRateBps = bps
		tokenvault.GetLogger(ctx).Info("deposit fee changed", "bps", bps)
		return nil
	})
}

// SetYieldRate changes the yearly yield rate. Yield accrued so far is
// checkpointed with the previous rate.
func SetYieldRate(ctx tokenvault.Context, db tokenvault.KVStore, bps uint32) error {
	if err := validateBps(bps); err != nil {
		return err
	}
	now, err := tokenvault.BlockUnixTime(ctx)
	if err != nil {
		return err
	}
	return updateConfig(db, func(c *Configuration) error {
		if err := checkpointIndex(c, now); err != nil {
			return errors.Wrap(err, "checkpoint")
		}
		c.YieldRateBps = bps
		tokenvault.GetLogger(ctx).Info("yield rate changed", "bps", bps)
		return nil
	})
}

// SetWithdrawalDelay changes the time a withdrawal request must wait before
// it can be executed. The new delay applies to pending requests as well.
func SetWithdrawalDelay(ctx tokenvault.Context, db tokenvault.KVStore, delay tokenvault.UnixDuration) error {
	if err := validateDelay(delay); err != nil {
		return err
	}
	return updateConfig(db, func(c *Configuration) error {
		c.WithdrawalDelay = delay
		tokenvault.GetLogger(ctx).Info("withdrawal delay changed", "seconds", int64(delay))
		return nil
	})
}

// SetPaused pauses or resumes the vault. A paused vault allows only
// emergency withdrawals, cancellations and administrator operations.
func SetPaused(ctx tokenvault.Context, db tokenvault.KVStore, paused bool) error {
	return updateConfig(db, func(c *Configuration) error {
		c.Paused = paused
		tokenvault.GetLogger(ctx).Info("pause changed", "paused", paused)
		return nil
	})
}

func updateConfig(db tokenvault.KVStore, fn func(*Configuration) error) error {
	c, err := loadConfig(db)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return saveConfig(db, c)
}
