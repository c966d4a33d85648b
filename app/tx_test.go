package app

import (
	"bytes"
	"testing"
	"time"

	proto "github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/crypto"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/store/iavl"
	"github.com/iov-one/tokenvault/x/sigs"
)

// noteMsg is a signable message used to test transaction signing.
type noteMsg struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Text     string               `protobuf:"bytes,2,opt,name=text,proto3" json:"text,omitempty"`
}

func (m *noteMsg) Reset()         { *m = noteMsg{} }
func (m *noteMsg) String() string { return proto.CompactTextString(m) }
func (*noteMsg) ProtoMessage()    {}
func (*noteMsg) Path() string     { return "test/note" }
func (*noteMsg) Validate() error  { return nil }

// requireSigner accepts only transactions signed by the configured key.
type requireSigner struct {
	signer tokenvault.Address
}

func (h requireSigner) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	if !(sigs.Authenticate{}).HasAddress(ctx, h.signer) {
		return nil, errors.ErrUnauthorized
	}
	return &tokenvault.CheckResult{}, nil
}

func (h requireSigner) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	if !(sigs.Authenticate{}).HasAddress(ctx, h.signer) {
		return nil, errors.ErrUnauthorized
	}
	return &tokenvault.DeliverResult{}, nil
}

// initSigs initializes the schema of the sigs package.
type initSigs struct{}

func (initSigs) FromGenesis(ctx tokenvault.Context, opts tokenvault.Options, db tokenvault.KVStore) error {
	migration.MustInitPkg(db, "sigs")
	return nil
}

func TestSignedTxThroughExecutor(t *testing.T) {
	now := time.Date(2021, time.March, 3, 10, 0, 0, 0, time.UTC)
	admin := crypto.PrivKeyEd25519FromSeed(bytes.Repeat([]byte{1}, 32))
	mallory := crypto.PrivKeyEd25519FromSeed(bytes.Repeat([]byte{2}, 32))

	router := NewRouter()
	router.Handle(&noteMsg{}, requireSigner{signer: admin.PublicKey().Address()})
	stack := ChainDecorators(sigs.NewDecorator()).WithHandler(router)
	e, err := NewExecutor(iavl.NewMemCommitStore(), stack, log.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, e.InitChain(now, &Genesis{ChainID: "test-chain"}, initSigs{}))

	signed := func(signer crypto.Signer, chainID string, seq int64, text string) *Tx {
		tx := NewTx(&noteMsg{Metadata: &tokenvault.Metadata{Schema: 1}, Text: text})
		require.NoError(t, tx.Sign(signer, chainID, seq))
		return tx
	}

	cases := map[string]struct {
		tx      func() *Tx
		wantErr *errors.Error
	}{
		"unsigned": {
			tx:      func() *Tx { return NewTx(&noteMsg{Metadata: &tokenvault.Metadata{Schema: 1}}) },
			wantErr: errors.ErrUnauthorized,
		},
		"signed by another key": {
			tx:      func() *Tx { return signed(mallory, "test-chain", 0, "pause") },
			wantErr: errors.ErrUnauthorized,
		},
		"admin public key with another signature": {
			tx: func() *Tx {
				tx := signed(mallory, "test-chain", 0, "pause")
				tx.Signatures[0].Pubkey = admin.PublicKey()
				return tx
			},
			wantErr: errors.ErrUnauthorized,
		},
		"message changed after signing": {
			tx: func() *Tx {
				tx := signed(admin, "test-chain", 0, "pause")
				tx.Msg = &noteMsg{Metadata: &tokenvault.Metadata{Schema: 1}, Text: "upgrade"}
				return tx
			},
			wantErr: errors.ErrUnauthorized,
		},
		"signed for another chain": {
			tx:      func() *Tx { return signed(admin, "other-chain", 0, "pause") },
			wantErr: errors.ErrUnauthorized,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if _, err := e.Deliver(now, tc.tx()); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}

	tx := signed(admin, "test-chain", 0, "pause")
	_, err = e.Deliver(now, tx)
	require.NoError(t, err)
	if _, err := e.Deliver(now, tx); !sigs.ErrInvalidSequence.Is(err) {
		t.Fatalf("want replay rejected, got %+v", err)
	}
	_, err = e.Deliver(now, signed(admin, "test-chain", 1, "pause"))
	require.NoError(t, err)
}

func TestTxSignBytes(t *testing.T) {
	a, err := NewTx(&noteMsg{Text: "a"}).GetSignBytes()
	require.NoError(t, err)
	b, err := NewTx(&noteMsg{Text: "b"}).GetSignBytes()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, bytes.HasPrefix(a, []byte("test/note\x00")))

	if _, err := (&Tx{}).GetSignBytes(); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %+v", err)
	}
}
