package vault

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
)

// Read only queries. None of them modifies the state.

// BalanceOf returns the credited balance of the account. Unclaimed yield is
// not included.
func BalanceOf(db tokenvault.ReadOnlyKVStore, addr tokenvault.Address) (coin.Coin, error) {
	c, err := loadConfig(db)
	if err != nil {
		return coin.Coin{}, err
	}
	a, err := NewLedger(nil).account(db, c, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	return *a.Balance, nil
}

// TotalDeposits returns the sum of all account balances.
func TotalDeposits(db tokenvault.ReadOnlyKVStore) (coin.Coin, error) {
	c, err := loadConfig(db)
	if err != nil {
		return coin.Coin{}, err
	}
	return *c.TotalDeposits, nil
}

// DepositFee returns the deposit fee rate in basis points.
func DepositFee(db tokenvault.ReadOnlyKVStore) (uint32, error) {
	c, err := loadConfig(db)
	if err != nil {
		return 0, err
	}
	return c.DepositFeeRateBps, nil
}

// YieldRate returns the yearly yield rate in basis points.
func YieldRate(db tokenvault.ReadOnlyKVStore) (uint32, error) {
	c, err := configSince(db, V2)
	if err != nil {
		return 0, err
	}
	return c.YieldRateBps, nil
}

// UserYield returns the yield the account would claim at the time of the
// context block.
func UserYield(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore, addr tokenvault.Address) (coin.Coin, error) {
	c, err := configSince(db, V2)
	if err != nil {
		return coin.Coin{}, err
	}
	now, err := tokenvault.BlockUnixTime(ctx)
	if err != nil {
		return coin.Coin{}, err
	}
	a, err := NewLedger(nil).account(db, c, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	return projectYield(a, c, now)
}

// WithdrawalDelay returns the delay of withdrawal requests.
func WithdrawalDelay(db tokenvault.ReadOnlyKVStore) (tokenvault.UnixDuration, error) {
	c, err := configSince(db, V3)
	if err != nil {
		return 0, err
	}
	return c.WithdrawalDelay, nil
}

// WithdrawalRequestOf returns the pending withdrawal request of the
// account or nil if there is none.
func WithdrawalRequestOf(db tokenvault.ReadOnlyKVStore, addr tokenvault.Address) (*WithdrawalRequest, error) {
	if _, err := configSince(db, V3); err != nil {
		return nil, err
	}
	return NewLedger(nil).pendingRequest(db, addr)
}

// ImplementationVersion returns the name of the active logic version.
func ImplementationVersion(db tokenvault.ReadOnlyKVStore) (string, error) {
	ver, err := migration.NewSchemaBucket().CurrentSchema(db, packageName)
	if err != nil {
		return "", err
	}
	return VersionName(ver), nil
}

// Info is a summary of the vault state.
type Info struct {
	ImplementationVersion string                  `json:"implementation_version"`
	InitializedVersion    string                  `json:"initialized_version"`
	Token                 string                  `json:"token"`
	Admin                 tokenvault.Address      `json:"admin"`
	Reserve               tokenvault.Address      `json:"reserve"`
	DepositFeeRateBps     uint32                  `json:"deposit_fee_rate_bps"`
	TotalDeposits         coin.Coin               `json:"total_deposits"`
	CollectedFees         coin.Coin               `json:"collected_fees"`
	Paused                bool                    `json:"paused"`
	YieldRateBps          uint32                  `json:"yield_rate_bps"`
	WithdrawalDelay       tokenvault.UnixDuration `json:"withdrawal_delay"`
}

// LoadInfo returns the summary of the vault state.
func LoadInfo(db tokenvault.ReadOnlyKVStore) (*Info, error) {
	impl, err := ImplementationVersion(db)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(db)
	if err != nil {
		return nil, err
	}
	return &Info{
		ImplementationVersion: impl,
		InitializedVersion:    VersionName(c.InitializedVersion),
		Token:                 c.Token,
		Admin:                 c.Admin,
		Reserve:               ReserveAddress(),
		DepositFeeRateBps:     c.DepositFeeRateBps,
		TotalDeposits:         *c.TotalDeposits,
		CollectedFees:         *c.CollectedFees,
		Paused:                c.Paused,
		YieldRateBps:          c.YieldRateBps,
		WithdrawalDelay:       c.WithdrawalDelay,
	}, nil
}

// configSince returns the configuration if the vault runs at least the
// given version.
func configSince(db tokenvault.ReadOnlyKVStore, version uint32) (*Configuration, error) {
	c, err := loadConfig(db)
	if err != nil {
		return nil, err
	}
	if c.Metadata.Schema < version {
		return nil, errors.Wrapf(errors.ErrSchema, "requires %s", VersionName(version))
	}
	return c, nil
}
