package migration

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// SchemaMigratingHandler returns a handler that will ensure incoming
// messages are in the current schema version format. If a message in older
// schema is handled then it is first being migrated. Messages that cannot be
// migrated to current schema version are returning migration error. Messages
// declaring a schema higher than the current one are rejected. This
// functionality is executed before the decorated handler and it is completely
// transparent to the wrapped handler.
func SchemaMigratingHandler(packageName string, h tokenvault.Handler) tokenvault.Handler {
	return &schemaMigratingHandler{
		handler:     h,
		packageName: packageName,
		schema:      NewSchemaBucket(),
		migrations:  reg,
	}
}

type schemaMigratingHandler struct {
	handler     tokenvault.Handler
	packageName string
	schema      *SchemaBucket
	migrations  *register
}

func (h *schemaMigratingHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if err := h.migrate(db, tx); err != nil {
		return nil, errors.Wrap(err, "migration")
	}
	return h.handler.Check(ctx, db, tx)
}

func (h *schemaMigratingHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	if err := h.migrate(db, tx); err != nil {
		return nil, errors.Wrap(err, "migration")
	}
	return h.handler.Deliver(ctx, db, tx)
}

func (h *schemaMigratingHandler) migrate(db tokenvault.ReadOnlyKVStore, tx tokenvault.Tx) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "get msg")
	}
	return migrate(h.migrations, h.schema, h.packageName, db, msg)
}

// SchemaGatedHandler returns a handler that is reachable only when the
// current schema version of the package is within [minVersion, maxVersion].
// Zero maxVersion means there is no upper bound. Any other schema version
// results in ErrSchema and the wrapped handler is not called.
func SchemaGatedHandler(packageName string, minVersion, maxVersion uint32, h tokenvault.Handler) tokenvault.Handler {
	return &schemaGatedHandler{
		handler:     h,
		packageName: packageName,
		min:         minVersion,
		max:         maxVersion,
		schema:      NewSchemaBucket(),
	}
}

type schemaGatedHandler struct {
	handler     tokenvault.Handler
	packageName string
	min, max    uint32
	schema      *SchemaBucket
}

func (h *schemaGatedHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if err := h.gate(db); err != nil {
		return nil, err
	}
	return h.handler.Check(ctx, db, tx)
}

func (h *schemaGatedHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	if err := h.gate(db); err != nil {
		return nil, err
	}
	return h.handler.Deliver(ctx, db, tx)
}

func (h *schemaGatedHandler) gate(db tokenvault.ReadOnlyKVStore) error {
	ver, err := h.schema.CurrentSchema(db, h.packageName)
	if err != nil {
		return errors.Wrap(err, "current schema")
	}
	if ver < h.min {
		return errors.Wrapf(errors.ErrSchema, "requires schema %d, current is %d", h.min, ver)
	}
	if h.max != 0 && ver > h.max {
		return errors.Wrapf(errors.ErrSchema, "not available since schema %d, current is %d", h.max+1, ver)
	}
	return nil
}
