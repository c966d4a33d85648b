package vault

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Genesis is the vault section of the genesis file.
type Genesis struct {
	Token         string             `json:"token"`
	Admin         tokenvault.Address `json:"admin"`
	DepositFeeBps uint32             `json:"deposit_fee_bps"`
}

// Initializer fulfils the Initializer interface to create the vault from
// the genesis file.
type Initializer struct{}

var _ tokenvault.Initializer = Initializer{}

// FromGenesis initializes the vault if the genesis file contains the
// "vault" section.
func (Initializer) FromGenesis(ctx tokenvault.Context, opts tokenvault.Options, db tokenvault.KVStore) error {
	var g *Genesis
	if err := opts.ReadOptions(packageName, &g); err != nil {
		return err
	}
	if g == nil {
		return nil
	}
	if err := Initialize(ctx, db, g.Token, g.Admin, g.DepositFeeBps); err != nil {
		return errors.Wrap(err, "initialize vault")
	}
	return nil
}
