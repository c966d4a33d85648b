package vault

import (
	proto "github.com/gogo/protobuf/proto"
	"github.com/holiman/uint256"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/orm"
)

func init() {
	migration.MustRegister(V1, &Account{}, migration.NoModification)
	migration.MustRegister(V2, &Account{}, migrateAccountV2)
	migration.MustRegister(V3, &Account{}, migration.NoModification)

	// Withdrawal requests exist since V3, older migrations are never used.
	migration.MustRegister(V1, &WithdrawalRequest{}, migration.NoModification)
	migration.MustRegister(V2, &WithdrawalRequest{}, migration.NoModification)
	migration.MustRegister(V3, &WithdrawalRequest{}, migration.NoModification)
}

const (
	accountBucketName = "vaultacc"
	requestBucketName = "vaultwreq"
)

// Account is the entitlement of a single depositor, keyed by the depositor
// address. An account is created on the first deposit and never deleted.
type Account struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// Balance is the credited entitlement. Future yield is never included.
	Balance *coin.Coin `protobuf:"bytes,2,opt,name=balance,proto3" json:"balance,omitempty"`
	// YieldIndex is the value of the global accrual index at the last
	// checkpoint of this account, 1e36 fixed point, big endian.
	YieldIndex []byte `protobuf:"bytes,3,opt,name=yield_index,json=yieldIndex,proto3" json:"yield_index,omitempty" schema:"2"`
	// PendingYield is settled at the checkpoint but not yet claimed.
	PendingYield *coin.Coin `protobuf:"bytes,4,opt,name=pending_yield,json=pendingYield,proto3" json:"pending_yield,omitempty" schema:"2"`
	// LastAccrual is the time of the last checkpoint.
	LastAccrual tokenvault.UnixTime `protobuf:"varint,5,opt,name=last_accrual,json=lastAccrual,proto3,casttype=github.com/iov-one/tokenvault.UnixTime" json:"last_accrual,omitempty" schema:"2"`
}

func (m *Account) Reset()         { *m = Account{} }
func (m *Account) String() string { return proto.CompactTextString(m) }
func (*Account) ProtoMessage()    {}

func (a *Account) GetMetadata() *tokenvault.Metadata {
	return a.Metadata
}

// ReservedSlots returns the number of storage positions reserved for the
// account. It must never change.
func (*Account) ReservedSlots() uint32 { return 16 }

func (a *Account) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", a.Metadata.Validate())
	if a.Balance == nil {
		errs = errors.AppendField(errs, "Balance", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Balance", a.Balance.Validate())
	}
	if a.Metadata.GetSchema() < V2 {
		return errs
	}
	if len(a.YieldIndex) > 32 {
		errs = errors.AppendField(errs, "YieldIndex", errors.Wrap(errors.ErrOverflow, "index exceeds 256 bits"))
	}
	if a.PendingYield != nil {
		if err := a.PendingYield.Validate(); err != nil {
			errs = errors.AppendField(errs, "PendingYield", err)
		} else if a.Balance != nil && !a.PendingYield.SameType(*a.Balance) {
			errs = errors.AppendField(errs, "PendingYield", errors.Wrap(errors.ErrCurrency, "must match balance"))
		}
	}
	if err := a.LastAccrual.Validate(); err != nil {
		errs = errors.AppendField(errs, "LastAccrual", err)
	}
	return errs
}

// index returns the account yield index checkpoint.
func (a *Account) index() *uint256.Int {
	return new(uint256.Int).SetBytes(a.YieldIndex)
}

// pending returns the settled yield, zero if none.
func (a *Account) pending() coin.Coin {
	if a.PendingYield == nil {
		return coin.Zero(a.Balance.Ticker)
	}
	return *a.PendingYield
}

// migrateAccountV2 starts yield accounting of an account that was created
// before yield existed. A zero index checkpoint matches the global index at
// the moment of the upgrade, so accrual starts with the upgrade.
func migrateAccountV2(db tokenvault.ReadOnlyKVStore, m migration.Migratable) error {
	a, ok := m.(*Account)
	if !ok {
		return errors.Wrapf(errors.ErrModel, "%T is not an account", m)
	}
	a.YieldIndex = nil
	a.LastAccrual = 0
	if a.Balance != nil {
		p := coin.Zero(a.Balance.Ticker)
		a.PendingYield = &p
	}
	return nil
}

// WithdrawalRequest is a pending delayed withdrawal of an account. There is
// at most one request per account, keyed by the account address.
type WithdrawalRequest struct {
	Metadata    *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Amount      *coin.Coin           `protobuf:"bytes,2,opt,name=amount,proto3" json:"amount,omitempty"`
	RequestedAt tokenvault.UnixTime  `protobuf:"varint,3,opt,name=requested_at,json=requestedAt,proto3,casttype=github.com/iov-one/tokenvault.UnixTime" json:"requested_at,omitempty"`
}

func (m *WithdrawalRequest) Reset()         { *m = WithdrawalRequest{} }
func (m *WithdrawalRequest) String() string { return proto.CompactTextString(m) }
func (*WithdrawalRequest) ProtoMessage()    {}

func (r *WithdrawalRequest) GetMetadata() *tokenvault.Metadata {
	return r.Metadata
}

func (*WithdrawalRequest) ReservedSlots() uint32 { return 8 }

func (r *WithdrawalRequest) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	if coin.IsEmpty(r.Amount) {
		errs = errors.AppendField(errs, "Amount", errors.Wrap(errors.ErrInvalidParameter, "must be positive"))
	} else {
		errs = errors.AppendField(errs, "Amount", r.Amount.Validate())
	}
	if err := r.RequestedAt.Validate(); err != nil {
		errs = errors.AppendField(errs, "RequestedAt", err)
	}
	return errs
}

// MaturesAt returns the earliest time the request can be executed with
// given delay.
func (r *WithdrawalRequest) MaturesAt(delay tokenvault.UnixDuration) tokenvault.UnixTime {
	return r.RequestedAt.AddDuration(delay)
}

// NewAccountBucket returns a bucket storing accounts. Accounts are migrated
// to the current schema on read.
func NewAccountBucket() orm.ModelBucket {
	b := orm.NewModelBucket(accountBucketName, &Account{})
	return migration.NewModelBucket(packageName, b)
}

// NewWithdrawalRequestBucket returns a bucket storing withdrawal requests.
func NewWithdrawalRequestBucket() orm.ModelBucket {
	b := orm.NewModelBucket(requestBucketName, &WithdrawalRequest{})
	return migration.NewModelBucket(packageName, b)
}
