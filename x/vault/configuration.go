package vault

import (
	proto "github.com/gogo/protobuf/proto"
	"github.com/holiman/uint256"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/gconf"
	"github.com/iov-one/tokenvault/migration"
)

func init() {
	// The configuration is migrated eagerly by the upgrade, see upgradeConfig.
	migration.MustRegister(V1, &Configuration{}, migration.NoModification)
	migration.MustRegister(V2, &Configuration{}, migration.NoModification)
	migration.MustRegister(V3, &Configuration{}, migration.NoModification)
}

// MaxWithdrawalDelay is the longest withdrawal delay an administrator can
// configure.
const MaxWithdrawalDelay = tokenvault.UnixDuration(365 * 24 * 60 * 60)

// Configuration is the global state of the vault, stored as a singleton.
type Configuration struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// Token is the ticker of the only asset the vault accepts.
	Token string `protobuf:"bytes,2,opt,name=token,proto3" json:"token,omitempty"`
	// Admin is the only address allowed to change the configuration and
	// upgrade the vault.
	Admin             tokenvault.Address `protobuf:"bytes,3,opt,name=admin,proto3,casttype=github.com/iov-one/tokenvault.Address" json:"admin,omitempty"`
	DepositFeeRateBps uint32             `protobuf:"varint,4,opt,name=deposit_fee_rate_bps,json=depositFeeRateBps,proto3" json:"deposit_fee_rate_bps,omitempty"`
	// TotalDeposits is always the sum of all account balances.
	TotalDeposits      *coin.Coin `protobuf:"bytes,5,opt,name=total_deposits,json=totalDeposits,proto3" json:"total_deposits,omitempty"`
	CollectedFees      *coin.Coin `protobuf:"bytes,6,opt,name=collected_fees,json=collectedFees,proto3" json:"collected_fees,omitempty"`
	InitializedVersion uint32     `protobuf:"varint,7,opt,name=initialized_version,json=initializedVersion,proto3" json:"initialized_version,omitempty"`
	Paused             bool       `protobuf:"varint,8,opt,name=paused,proto3" json:"paused,omitempty"`

	YieldRateBps uint32 `protobuf:"varint,9,opt,name=yield_rate_bps,json=yieldRateBps,proto3" json:"yield_rate_bps,omitempty" schema:"2"`
	// YieldIndex is the global accrual index at YieldCheckpoint, 1e36 fixed
	// point, big endian.
	YieldIndex      []byte              `protobuf:"bytes,10,opt,name=yield_index,json=yieldIndex,proto3" json:"yield_index,omitempty" schema:"2"`
	YieldCheckpoint tokenvault.UnixTime `protobuf:"varint,11,opt,name=yield_checkpoint,json=yieldCheckpoint,proto3,casttype=github.com/iov-one/tokenvault.UnixTime" json:"yield_checkpoint,omitempty" schema:"2"`

	WithdrawalDelay tokenvault.UnixDuration `protobuf:"varint,12,opt,name=withdrawal_delay,json=withdrawalDelay,proto3,casttype=github.com/iov-one/tokenvault.UnixDuration" json:"withdrawal_delay,omitempty" schema:"3"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) GetMetadata() *tokenvault.Metadata {
	return c.Metadata
}

// ReservedSlots returns the number of storage positions reserved for the
// configuration. It must never change.
func (*Configuration) ReservedSlots() uint32 { return 32 }

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	if !coin.IsCC(c.Token) {
		errs = errors.AppendField(errs, "Token", errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", c.Token))
	}
	errs = errors.AppendField(errs, "Admin", c.Admin.Validate())
	errs = errors.AppendField(errs, "DepositFeeRateBps", validateBps(c.DepositFeeRateBps))
	errs = errors.AppendField(errs, "TotalDeposits", c.validateAmount(c.TotalDeposits))
	errs = errors.AppendField(errs, "CollectedFees", c.validateAmount(c.CollectedFees))
	if c.InitializedVersion < V1 {
		errs = errors.AppendField(errs, "InitializedVersion", errors.Wrap(errors.ErrModel, "version must be greater than zero"))
	}
	errs = errors.AppendField(errs, "YieldRateBps", validateBps(c.YieldRateBps))
	if len(c.YieldIndex) > 32 {
		errs = errors.AppendField(errs, "YieldIndex", errors.Wrap(errors.ErrOverflow, "index exceeds 256 bits"))
	}
	if err := c.YieldCheckpoint.Validate(); err != nil {
		errs = errors.AppendField(errs, "YieldCheckpoint", err)
	}
	errs = errors.AppendField(errs, "WithdrawalDelay", validateDelay(c.WithdrawalDelay))
	return errs
}

func (c *Configuration) validateAmount(amount *coin.Coin) error {
	if amount == nil {
		return errors.ErrEmpty
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.Ticker != c.Token {
		return errors.Wrapf(errors.ErrCurrency, "must be %s", c.Token)
	}
	return nil
}

func (c *Configuration) index() *uint256.Int {
	return new(uint256.Int).SetBytes(c.YieldIndex)
}

// checkAmount returns ErrInvalidParameter unless the amount is a positive
// value of the vault token.
func (c *Configuration) checkAmount(amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrInvalidParameter, "amount must be positive")
	}
	if amount.Ticker != c.Token {
		return errors.Wrapf(errors.ErrInvalidParameter, "vault accepts only %s, got %s", c.Token, amount.Ticker)
	}
	return nil
}

func validateDelay(d tokenvault.UnixDuration) error {
	if d < 0 || d > MaxWithdrawalDelay {
		return errors.Wrapf(errors.ErrInvalidParameter, "delay must be between 0 and %d seconds", MaxWithdrawalDelay)
	}
	return nil
}

// loadConfig returns the vault configuration. ErrNotFound is returned if
// the vault was never initialized. A configuration written by a schema newer
// than the current one is rejected.
func loadConfig(db tokenvault.ReadOnlyKVStore) (*Configuration, error) {
	var c Configuration
	if err := gconf.Load(db, packageName, &c); err != nil {
		return nil, errors.Wrap(err, "vault configuration")
	}
	if err := migration.Migrate(db, packageName, &c); err != nil {
		return nil, errors.Wrap(err, "migrate configuration")
	}
	return &c, nil
}

func saveConfig(db tokenvault.KVStore, c *Configuration) error {
	return gconf.Save(db, packageName, c)
}
