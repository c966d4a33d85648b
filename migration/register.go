package migration

import (
	"reflect"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Migratable is implemented by both messages and models that support
// schema versioning.
type Migratable interface {
	GetMetadata() *tokenvault.Metadata
	Validate() error
}

// Migrator is a function that migrates in place an entity of a single
// type from version N-1 to version N.
type Migrator func(db tokenvault.ReadOnlyKVStore, m Migratable) error

// NoModification is a migration function that migrates data that requires no
// change. It should be used to register migrations that do not require any
// modifications.
func NoModification(db tokenvault.ReadOnlyKVStore, m Migratable) error {
	return nil
}

func newRegister() *register {
	return &register{
		handlers: make(map[payloadVersion]Migrator),
	}
}

type register struct {
	handlers map[payloadVersion]Migrator
}

// payloadVersion references a message or a model at a given schema version.
type payloadVersion struct {
	payload reflect.Type
	version uint32
}

func (r *register) MustRegister(migrationTo uint32, m Migratable, fn Migrator) {
	if err := r.Register(migrationTo, m, fn); err != nil {
		panic(err)
	}
}

// Register registers a migration function for a given version of a type.
// Migrations must be registered in a sequence, starting from version one.
func (r *register) Register(migrationTo uint32, m Migratable, fn Migrator) error {
	if migrationTo < 1 {
		return errors.Wrap(errors.ErrInput, "minimal allowed version is 1")
	}
	tp, err := structType(m)
	if err != nil {
		return err
	}

	for v := uint32(1); v < migrationTo; v++ {
		if _, ok := r.handlers[payloadVersion{payload: tp, version: v}]; !ok {
			return errors.Wrapf(errors.ErrInput, "missing %d version migration", v)
		}
	}

	pv := payloadVersion{
		version: migrationTo,
		payload: tp,
	}
	if _, ok := r.handlers[pv]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "already registered: %s.%s:%d", tp.PkgPath(), tp.Name(), migrationTo)
	}
	r.handlers[pv] = fn
	return nil
}

// Apply updates an entity by applying all missing migrations. The metadata
// schema version is updated after each successful step.
func (r *register) Apply(db tokenvault.ReadOnlyKVStore, m Migratable, migrateTo uint32) error {
	if migrateTo < 1 {
		return errors.Wrap(errors.ErrInput, "minimal allowed version is 1")
	}
	tp, err := structType(m)
	if err != nil {
		return err
	}

	meta := m.GetMetadata()
	if meta == nil {
		return errors.Wrap(errors.ErrMetadata, "nil")
	}
	if meta.Schema > migrateTo {
		return errors.Wrapf(errors.ErrSchema, "%T schema %d is higher than %d", m, meta.Schema, migrateTo)
	}

	for v := meta.Schema + 1; v <= migrateTo; v++ {
		migrate, ok := r.handlers[payloadVersion{payload: tp, version: v}]
		if !ok {
			return errors.Wrapf(errors.ErrSchema, "migration to version %d missing", v)
		}
		if err := migrate(db, m); err != nil {
			return errors.Wrapf(err, "migration to version %d", v)
		}
		meta.Schema = v
	}

	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "validation")
	}
	return nil
}

func structType(m Migratable) (reflect.Type, error) {
	tp := reflect.TypeOf(m)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInput, "only struct can be migrated, got %T", m)
	}
	return tp, nil
}

// reg is a globally available register instance that must be used during the
// runtime to register migration handlers.
// Register is declared as a separate type so that it can be tested without
// worrying about the global state.
var reg = newRegister()

// MustRegister registers a migration function for a given version of a type
// in the global register.
func MustRegister(migrationTo uint32, m Migratable, fn Migrator) {
	reg.MustRegister(migrationTo, m, fn)
}

// Apply updates a payload by applying all missing data migrations. Even a no
// modification migration is updating the metadata to point to the latest data
// format version.
//
// Because changes are applied directly on the passed payload, even if this
// function fails some of the data migrations might be applied.
//
// Validation method is called only on the final version of the payload.
func Apply(db tokenvault.ReadOnlyKVStore, m Migratable, migrateTo uint32) error {
	return reg.Apply(db, m, migrateTo)
}
