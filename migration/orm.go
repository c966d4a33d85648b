package migration

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/orm"
)

// Model is a schema versioned entity that can be stored in the ModelBucket.
type Model interface {
	orm.Model
	GetMetadata() *tokenvault.Metadata
}

// ModelBucket implements the orm.ModelBucket interface and provides the same
// functionality with additional model schema migration. Models are migrated
// on the fly to the current schema version of the package before being
// returned. Models are never written in a format other than the current
// schema version.
type ModelBucket struct {
	orm.ModelBucket
	packageName string
	schema      *SchemaBucket
	migrations  *register
}

var _ orm.ModelBucket = (*ModelBucket)(nil)

// NewModelBucket returns a schema aware bucket. Package name is used to
// track the schema version.
func NewModelBucket(packageName string, b orm.ModelBucket) *ModelBucket {
	return &ModelBucket{
		ModelBucket: b,
		packageName: packageName,
		schema:      NewSchemaBucket(),
		migrations:  reg,
	}
}

// useRegister will update this bucket to use a custom register instance
// instead of the global one. This is a private method meant to be used for
// tests only.
func (m *ModelBucket) useRegister(r *register) {
	m.migrations = r
}

func (m *ModelBucket) One(db tokenvault.ReadOnlyKVStore, key []byte, dest orm.Model) error {
	if err := m.ModelBucket.One(db, key, dest); err != nil {
		return err
	}
	if err := m.migrate(db, dest); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}

func (m *ModelBucket) Put(db tokenvault.KVStore, key []byte, model orm.Model) error {
	if err := m.migrate(db, model); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return m.ModelBucket.Put(db, key, model)
}

func (m *ModelBucket) PrefixScan(db tokenvault.ReadOnlyKVStore, prefix []byte, reverse bool) (orm.ModelIterator, error) {
	it, err := m.ModelBucket.PrefixScan(db, prefix, reverse)
	if err != nil {
		return nil, err
	}
	return &migratingIterator{ModelIterator: it, bucket: m, db: db}, nil
}

func (m *ModelBucket) migrate(db tokenvault.ReadOnlyKVStore, model orm.Model) error {
	return migrate(m.migrations, m.schema, m.packageName, db, model)
}

type migratingIterator struct {
	orm.ModelIterator
	bucket *ModelBucket
	db     tokenvault.ReadOnlyKVStore
}

func (it *migratingIterator) LoadNext(dest orm.Model) ([]byte, error) {
	key, err := it.ModelIterator.LoadNext(dest)
	if err != nil {
		return nil, err
	}
	if err := it.bucket.migrate(it.db, dest); err != nil {
		return nil, errors.Wrapf(err, "migrate %X", key)
	}
	return key, nil
}

func migrate(
	migrations *register,
	schema *SchemaBucket,
	packageName string,
	db tokenvault.ReadOnlyKVStore,
	value interface{},
) error {
	m, ok := value.(Migratable)
	if !ok {
		return errors.Wrapf(errors.ErrModel, "%T cannot be migrated", value)
	}
	currSchemaVer, err := schema.CurrentSchema(db, packageName)
	if err != nil {
		return errors.Wrapf(err, "current schema version of package %q", packageName)
	}

	meta := m.GetMetadata()
	if meta == nil {
		return errors.Wrapf(errors.ErrMetadata, "%T metadata is nil", m)
	}

	// In case of schema not being set we assume the code is expecting the
	// current version. We can therefore set the default to current schema
	// version.
	if meta.Schema == 0 {
		meta.Schema = currSchemaVer
		return nil
	}

	if meta.Schema > currSchemaVer {
		return errors.Wrapf(errors.ErrSchema, "%T schema %d higher than %d", m, meta.Schema, currSchemaVer)
	}

	// Migration is applied in place, directly modifying the instance.
	if err := migrations.Apply(db, m, currSchemaVer); err != nil {
		return errors.Wrap(err, "schema migration")
	}
	return nil
}

// Migrate will query the current schema of the named package and attempt
// to Migrate the passed value up to the current value.
//
// Returns an error if the passed value is not Migratable,
// not registered with migrations, missing Metadata, has a Schema
// higher than currentSchema, if the final migrated value is invalid,
// or other such conditions.
//
// If this returns no error, you can safely use the contents of value in
// code working with the currentSchema.
func Migrate(db tokenvault.ReadOnlyKVStore, packageName string, value interface{}) error {
	return migrate(reg, NewSchemaBucket(), packageName, db, value)
}
