package tokenvault

import (
	proto "github.com/gogo/protobuf/proto"

	"github.com/iov-one/tokenvault/errors"
)

// Metadata is present on every persisted model and every message. It
// carries the schema version the entity was written with.
type Metadata struct {
	Schema uint32 `protobuf:"varint,1,opt,name=schema,proto3" json:"schema,omitempty"`
}

func (m *Metadata) Reset()         { *m = Metadata{} }
func (m *Metadata) String() string { return proto.CompactTextString(m) }
func (*Metadata) ProtoMessage()    {}

// GetSchema returns the schema version or zero for a nil metadata.
func (m *Metadata) GetSchema() uint32 {
	if m == nil {
		return 0
	}
	return m.Schema
}

// Validate returns an error if the metadata is missing or carries an
// invalid schema version.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "nil")
	}
	if m.Schema < 1 {
		return errors.Field("Schema", errors.ErrMetadata, "schema must be greater than zero")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when implementing
// orm.CloneableData interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
