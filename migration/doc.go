/*
Package migration provides tooling necessary for working with schema versioned
entities. Functionality provided here can be applied both to messages and
models.

Every package that is using schema versioning has its current version stored
in the SchemaBucket. Versions are sequential, start with one and can only be
increased by one at a time.

Extension integration.

1. Every schema versioned message and model must carry a metadata as its
first field. For example:

	type MyModel struct {
		Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3"`
		...
	}

Make sure that whenever you create a new entity, metadata attribute is provided
as `nil` metadata value is not valid. Zero schema value is replaced with the
current schema version of the package.

2. Register a migration function for every version of every versioned type,
starting with version one. Use NoModification if nothing has to change.

	func init() {
		migration.MustRegister(1, &MyModel{}, migration.NoModification)
		migration.MustRegister(2, &MyModel{}, migrateMyModelTo2)
	}

3. Use ModelBucket to access models. Older models are migrated on the fly
when read. Use SchemaMigratingHandler and SchemaGatedHandler to migrate
messages and to make handlers reachable only with certain schema versions.

Storage layout.

Protobuf field numbers are the storage positions of a model. A field declares
the schema version it was introduced in using the `schema:"N"` struct tag.
LayoutOf computes the layout of a model at a given version and CheckLayout
verifies that a new layout only appends to the previous one. LayoutBucket
keeps the layout of every model as it was last written, so that an upgrade
can be verified against what is actually stored.
*/
package migration
