package sigs

import (
	"bytes"
	"testing"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/crypto"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/store"
	"github.com/iov-one/tokenvault/vaulttest"
)

const testChainID = "sigs-test"

// signedTx carries a fixed payload and its signatures.
type signedTx struct {
	payload    []byte
	signatures []*StdSignature
}

var _ SignedTx = (*signedTx)(nil)

func (tx *signedTx) GetMsg() (tokenvault.Msg, error) {
	return &vaulttest.Msg{RoutePath: "test/signed"}, nil
}

func (tx *signedTx) GetSignBytes() ([]byte, error) {
	return tx.payload, nil
}

func (tx *signedTx) GetSignatures() []*StdSignature {
	return tx.signatures
}

func newStore(t testing.TB) store.CacheableKVStore {
	t.Helper()
	db := store.MemStore()
	migration.MustInitPkg(db, "sigs")
	return db
}

func key(seed byte) *crypto.PrivateKey {
	return crypto.PrivKeyEd25519FromSeed(bytes.Repeat([]byte{seed}, 32))
}

func sign(t testing.TB, signer crypto.Signer, tx *signedTx, chainID string, seq int64) *StdSignature {
	t.Helper()
	sig, err := SignTx(signer, tx, chainID, seq)
	if err != nil {
		t.Fatalf("cannot sign: %+v", err)
	}
	return sig
}
