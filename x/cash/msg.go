package cash

import (
	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
)

func init() {
	migration.MustRegister(1, &SendMsg{}, migration.NoModification)
}

const maxMemoSize int = 128

// SendMsg moves coins from the source to the destination wallet.
type SendMsg struct {
	Metadata    *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Source      tokenvault.Address   `protobuf:"bytes,2,opt,name=source,proto3,casttype=github.com/iov-one/tokenvault.Address" json:"source,omitempty"`
	Destination tokenvault.Address   `protobuf:"bytes,3,opt,name=destination,proto3,casttype=github.com/iov-one/tokenvault.Address" json:"destination,omitempty"`
	Amount      *coin.Coin           `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount,omitempty"`
	Memo        string               `protobuf:"bytes,5,opt,name=memo,proto3" json:"memo,omitempty"`
}

func (m *SendMsg) Reset()         { *m = SendMsg{} }
func (m *SendMsg) String() string { return proto.CompactTextString(m) }
func (*SendMsg) ProtoMessage()    {}

var _ tokenvault.Msg = (*SendMsg)(nil)

func (m *SendMsg) GetMetadata() *tokenvault.Metadata {
	return m.Metadata
}

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if coin.IsEmpty(m.Amount) {
		errs = errors.AppendField(errs, "Amount", errors.Wrap(errors.ErrAmount, "must be positive"))
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.Wrap(errors.ErrState, "memo too long"))
	}
	return errs
}
