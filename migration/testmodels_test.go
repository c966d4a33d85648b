package migration

import (
	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

type MyModel struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3"`
	Content  string               `protobuf:"bytes,2,opt,name=content,proto3"`
	Extra    string               `protobuf:"bytes,3,opt,name=extra,proto3" schema:"2"`
}

func (m *MyModel) Reset()                            { *m = MyModel{} }
func (m *MyModel) String() string                    { return proto.CompactTextString(m) }
func (*MyModel) ProtoMessage()                       {}
func (m *MyModel) GetMetadata() *tokenvault.Metadata { return m.Metadata }
func (*MyModel) ReservedSlots() uint32               { return 8 }

func (m *MyModel) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Content == "invalid" {
		return errors.Wrap(errors.ErrModel, "invalid content")
	}
	return nil
}
