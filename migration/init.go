package migration

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ tokenvault.Initializer = Initializer{}

// FromGenesis initializes the schema version of all packages listed under
// the "initialize_schema" key.
func (Initializer) FromGenesis(ctx tokenvault.Context, opts tokenvault.Options, db tokenvault.KVStore) error {
	var pkgs []string
	if err := opts.ReadOptions("initialize_schema", &pkgs); err != nil {
		return errors.Wrap(err, "cannot load initialize_schema")
	}
	b := NewSchemaBucket()
	for _, name := range pkgs {
		err := b.Create(db, &Schema{
			Metadata: &tokenvault.Metadata{Schema: 1},
			Pkg:      name,
			Version:  1,
		})
		if err != nil {
			return errors.Wrapf(err, "initialize %q schema", name)
		}
	}
	return nil
}
