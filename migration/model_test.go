package migration

import (
	"testing"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/store"
)

func TestSchemaVersioning(t *testing.T) {
	db := store.MemStore()
	b := NewSchemaBucket()

	if _, err := b.CurrentSchema(db, "vault"); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found error, got %+v", err)
	}

	// Initialization is idempotent.
	MustInitPkg(db, "vault", "cash")
	MustInitPkg(db, "vault")

	// A package with a name sharing the prefix must not interfere.
	MustInitPkg(db, "vaultx")
	if _, err := b.Bump(db, "vaultx"); err != nil {
		t.Fatalf("cannot bump vaultx: %s", err)
	}

	if ver, err := b.CurrentSchema(db, "vault"); err != nil || ver != 1 {
		t.Fatalf("want version 1, got %d, %v", ver, err)
	}

	err := b.Create(db, &Schema{Metadata: &tokenvault.Metadata{Schema: 1}, Pkg: "vault", Version: 3})
	if !errors.ErrSchema.Is(err) {
		t.Fatalf("version skip must be rejected, got %+v", err)
	}
	err = b.Create(db, &Schema{Metadata: &tokenvault.Metadata{Schema: 1}, Pkg: "vault", Version: 1})
	if !errors.ErrDuplicate.Is(err) {
		t.Fatalf("duplicated version must be rejected, got %+v", err)
	}
	err = b.Create(db, &Schema{Metadata: &tokenvault.Metadata{Schema: 1}, Pkg: "other", Version: 2})
	if !errors.ErrSchema.Is(err) {
		t.Fatalf("first version must be one, got %+v", err)
	}

	for want := uint32(2); want <= 300; want++ {
		ver, err := b.Bump(db, "vault")
		if err != nil {
			t.Fatalf("cannot bump to %d: %s", want, err)
		}
		if ver != want {
			t.Fatalf("want version %d, got %d", want, ver)
		}
	}
	if ver, err := b.CurrentSchema(db, "vault"); err != nil || ver != 300 {
		t.Fatalf("want version 300, got %d, %v", ver, err)
	}
	if ver, err := b.CurrentSchema(db, "cash"); err != nil || ver != 1 {
		t.Fatalf("want cash version 1, got %d, %v", ver, err)
	}
}

func TestGenesisInitializeSchemaVersions(t *testing.T) {
	opts := tokenvault.Options{
		"initialize_schema": []byte(`["c", "b", "a"]`),
	}

	db := store.MemStore()
	var ini Initializer
	if err := ini.FromGenesis(nil, opts, db); err != nil {
		t.Fatalf("cannot load genesis: %s", err)
	}

	for _, pkgName := range []string{"a", "b", "c"} {
		ver, err := NewSchemaBucket().CurrentSchema(db, pkgName)
		if err != nil {
			t.Fatalf("cannot get current schema for %q package: %s", pkgName, err)
		}
		if ver != 1 {
			t.Fatalf("unexpected schema version for %q package: %d", pkgName, ver)
		}
	}
}
