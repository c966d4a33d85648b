package sigs

import (
	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/crypto"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/orm"
)

func init() {
	migration.MustRegister(1, &UserData{}, migration.NoModification)
}

// BucketName is where we store the signer sequences.
const BucketName = "sigs"

// maxSequence is the greatest sequence value a signer can reach.
const maxSequence = (1 << 53) - 1

// UserData is the signing state of a single public key, stored under the
// key address.
type UserData struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Pubkey   *crypto.PublicKey    `protobuf:"bytes,2,opt,name=pubkey,proto3" json:"pubkey,omitempty"`
	Sequence int64                `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

func (m *UserData) Reset()         { *m = UserData{} }
func (m *UserData) String() string { return proto.CompactTextString(m) }
func (*UserData) ProtoMessage()    {}

func (u *UserData) GetMetadata() *tokenvault.Metadata {
	return u.Metadata
}

func (u *UserData) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", u.Metadata.Validate())
	errs = errors.AppendField(errs, "Pubkey", u.Pubkey.Validate())
	if u.Sequence < 0 || u.Sequence > maxSequence {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	}
	return errs
}

// CheckAndIncrementSequence increments the sequence if it equals the
// expected value.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	if u.Sequence >= maxSequence {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence++
	return nil
}

// NewBucket returns a bucket storing user data keyed by the public key
// address.
func NewBucket() orm.ModelBucket {
	b := orm.NewModelBucket(BucketName, &UserData{})
	return migration.NewModelBucket("sigs", b)
}

// loadUser returns the stored user data of the key or a new one starting
// at sequence zero.
func loadUser(db tokenvault.ReadOnlyKVStore, pubkey *crypto.PublicKey) (*UserData, error) {
	var u UserData
	switch err := NewBucket().One(db, pubkey.Address(), &u); {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{Metadata: &tokenvault.Metadata{Schema: 1}, Pubkey: pubkey}, nil
	default:
		return nil, errors.Wrap(err, "signer")
	}
}

// NextNonce returns the sequence the next signature of the signer must
// use. Counting starts with zero.
func NextNonce(db tokenvault.ReadOnlyKVStore, signer tokenvault.Address) (int64, error) {
	var u UserData
	switch err := NewBucket().One(db, signer, &u); {
	case err == nil:
		return u.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "signer")
	}
}
