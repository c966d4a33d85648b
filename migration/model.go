package migration

import (
	"encoding/binary"

	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/orm"
)

// Schema declares the version of the data model used by a package. Each
// version bump creates a new record, the highest one is the current.
type Schema struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Pkg      string               `protobuf:"bytes,2,opt,name=pkg,proto3" json:"pkg,omitempty"`
	Version  uint32               `protobuf:"varint,3,opt,name=version,proto3" json:"version,omitempty"`
}

func (m *Schema) Reset()         { *m = Schema{} }
func (m *Schema) String() string { return proto.CompactTextString(m) }
func (*Schema) ProtoMessage()    {}

func (s *Schema) GetMetadata() *tokenvault.Metadata {
	return s.Metadata
}

func (s *Schema) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", s.Metadata.Validate())
	if s.Version < 1 {
		errs = errors.AppendField(errs, "Version", errors.Wrap(errors.ErrModel, "version must be greater than zero"))
	}
	if s.Pkg == "" {
		errs = errors.AppendField(errs, "Pkg", errors.Wrap(errors.ErrModel, "pkg is required"))
	}
	return errs
}

// schemaID returns a deterministic ID of this schema instance. Created IDs
// can be sorted using lexicographical order from the lowest to the highest
// version.
func schemaID(pkg string, version uint32) []byte {
	raw := make([]byte, len(pkg)+5)
	copy(raw, pkg)
	raw[len(pkg)] = '/'
	binary.BigEndian.PutUint32(raw[len(pkg)+1:], version)
	return raw
}

// SchemaBucket keeps track of the schema version of every package.
type SchemaBucket struct {
	b orm.ModelBucket
}

// NewSchemaBucket returns a bucket for managing schema versions. It is
// using the plain orm implementation as the schema entities cannot depend
// on the schema versioning themselves.
func NewSchemaBucket() *SchemaBucket {
	return &SchemaBucket{
		b: orm.NewModelBucket("schema", &Schema{}),
	}
}

// MustInitPkg initialize schema versioning for given package names. This
// registers a version one schema.
// This function panics if not successful. It is safe to call this function
// many times as duplicate registrations are ignored.
func MustInitPkg(db tokenvault.KVStore, packageNames ...string) {
	for _, name := range packageNames {
		err := NewSchemaBucket().Create(db, &Schema{
			Metadata: &tokenvault.Metadata{Schema: 1},
			Pkg:      name,
			Version:  1,
		})
		// Duplicated initializations are ignored.
		if err != nil && !errors.ErrDuplicate.Is(err) {
			panic(errors.Wrap(err, name))
		}
	}
}

// CurrentSchema returns the current version of the schema for a given package.
// It returns ErrNotFound if no schema version was registered for this package.
// Minimum schema version is 1.
func (b *SchemaBucket) CurrentSchema(db tokenvault.ReadOnlyKVStore, packageName string) (uint32, error) {
	it, err := b.b.PrefixScan(db, []byte(packageName+"/"), true)
	if err != nil {
		return 0, errors.Wrap(err, "schema scan")
	}
	defer it.Release()

	var s Schema
	switch _, err := it.LoadNext(&s); {
	case err == nil:
		return s.Version, nil
	case errors.ErrIteratorDone.Is(err):
		return 0, errors.Wrapf(errors.ErrNotFound, "%q not initialized", packageName)
	default:
		return 0, errors.Wrap(err, "load schema")
	}
}

// Create adds given schema instance to the store. Only the next version
// following the current one can be created.
func (b *SchemaBucket) Create(db tokenvault.KVStore, s *Schema) error {
	if err := b.validateNextSchema(db, s); err != nil {
		return err
	}
	return b.b.Put(db, schemaID(s.Pkg, s.Version), s)
}

// Bump creates the next schema version of given package and returns it.
func (b *SchemaBucket) Bump(db tokenvault.KVStore, packageName string) (uint32, error) {
	ver, err := b.CurrentSchema(db, packageName)
	if err != nil {
		return 0, err
	}
	next := &Schema{
		Metadata: &tokenvault.Metadata{Schema: 1},
		Pkg:      packageName,
		Version:  ver + 1,
	}
	if err := b.Create(db, next); err != nil {
		return 0, err
	}
	return next.Version, nil
}

// validateNextSchema returns an error if given Schema instance is does not
// represent the next valid schema version.
func (b *SchemaBucket) validateNextSchema(db tokenvault.ReadOnlyKVStore, next *Schema) error {
	ver, err := b.CurrentSchema(db, next.Pkg)
	if err != nil {
		if !errors.ErrNotFound.Is(err) {
			return errors.Wrap(err, "current schema")
		}
		if next.Version != 1 {
			return errors.Wrap(errors.ErrSchema, "schema not initialized with version 1")
		}
		return nil
	}
	if next.Version <= ver {
		return errors.Wrapf(errors.ErrDuplicate, "current schema is %d", ver)
	}
	if ver+1 != next.Version {
		// Schema versioning is sequential and the numbers must be incrementing.
		return errors.Wrapf(errors.ErrSchema, "current schema is %d, cannot skip to %d", ver, next.Version)
	}
	return nil
}
