package cash

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
// use tokenvault.Address, so address in hex, not base64
type GenesisAccount struct {
	Address tokenvault.Address `json:"address"`
	Coins   []coin.Coin        `json:"coins"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ tokenvault.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(ctx tokenvault.Context, opts tokenvault.Options, db tokenvault.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	ctrl := NewController(NewWalletBucket())
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		for _, c := range acct.Coins {
			if err := ctrl.CoinMint(db, acct.Address, c); err != nil {
				return errors.Wrapf(err, "account %d", i)
			}
		}
	}
	return nil
}
