package app

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Genesis file format.
type Genesis struct {
	ChainID    string             `json:"chain_id"`
	AppOptions tokenvault.Options `json:"app_options"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (*Genesis, error) {
	fd, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot read genesis file: %s", err)
	}
	defer fd.Close()
	return ReadGenesis(fd)
}

// ReadGenesis decodes a JSON serialized genesis.
func ReadGenesis(r io.Reader) (*Genesis, error) {
	var gen Genesis
	if err := json.NewDecoder(r).Decode(&gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot parse genesis: %s", err)
	}
	if !tokenvault.IsValidChainID(gen.ChainID) {
		return nil, errors.Wrapf(errors.ErrInput, "invalid chain id %q", gen.ChainID)
	}
	return &gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...tokenvault.Initializer) tokenvault.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []tokenvault.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(ctx tokenvault.Context, opts tokenvault.Options, kv tokenvault.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(ctx, opts, kv); err != nil {
			return err
		}
	}
	return nil
}

const chainIDKey = "_wv:chainID"

// loadChainID returns the chain id stored if any
func loadChainID(kv tokenvault.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv tokenvault.KVStore, chainID string) error {
	if !tokenvault.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	switch exists, err := kv.Has(k); {
	case err != nil:
		return errors.Wrap(err, "chain id")
	case exists:
		return errors.Wrap(errors.ErrDuplicate, "chain id already set")
	}
	return kv.Set(k, []byte(chainID))
}

const blockTimeKey = "_wv:blockTime"

// loadBlockTime returns the time of the last committed block, zero if no
// block was committed yet.
func loadBlockTime(kv tokenvault.ReadOnlyKVStore) (tokenvault.UnixTime, error) {
	v, err := kv.Get([]byte(blockTimeKey))
	switch {
	case err != nil:
		return 0, errors.Wrap(err, "block time")
	case v == nil:
		return 0, nil
	case len(v) != 8:
		return 0, errors.Wrapf(errors.ErrDatabase, "block time of %d bytes", len(v))
	}
	return tokenvault.UnixTime(binary.BigEndian.Uint64(v)), nil
}

// saveBlockTime stores the time of the block being committed.
func saveBlockTime(kv tokenvault.KVStore, t tokenvault.UnixTime) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(t))
	return kv.Set([]byte(blockTimeKey), v)
}
