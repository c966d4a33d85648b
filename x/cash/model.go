package cash

import (
	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/orm"
)

func init() {
	migration.MustRegister(1, &Wallet{}, migration.NoModification)
}

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the coins owned by a single address. Coins are kept in the
// normalized form, sorted by ticker and with no zero values.
type Wallet struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Coins    []*coin.Coin         `protobuf:"bytes,2,rep,name=coins,proto3" json:"coins,omitempty"`
}

func (m *Wallet) Reset()         { *m = Wallet{} }
func (m *Wallet) String() string { return proto.CompactTextString(m) }
func (*Wallet) ProtoMessage()    {}

func (w *Wallet) GetMetadata() *tokenvault.Metadata {
	return w.Metadata
}

// Validate requires that all coins are in alphabetical order and positive.
func (w *Wallet) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", w.Metadata.Validate())
	errs = errors.AppendField(errs, "Coins", coin.Coins(w.Coins).Validate())
	return errs
}

// NewWalletBucket returns a bucket for storing wallets, keyed by the owner
// address. Wallets are migrated to the current schema of the package on
// read.
func NewWalletBucket() orm.ModelBucket {
	b := orm.NewModelBucket(BucketName, &Wallet{})
	return migration.NewModelBucket("cash", b)
}

// loadWallet returns the wallet of given address or an empty one if the
// address holds nothing yet.
func loadWallet(db tokenvault.ReadOnlyKVStore, b orm.ModelBucket, addr tokenvault.Address) (*Wallet, error) {
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{Metadata: &tokenvault.Metadata{}}, nil
	default:
		return nil, errors.Wrapf(err, "wallet %s", addr)
	}
}
