package sigs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/vaulttest"
)

// signersHandler records the conditions granted to the last call.
type signersHandler struct {
	signers []tokenvault.Condition
}

func (h *signersHandler) Check(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.CheckResult, error) {
	h.signers = Authenticate{}.GetConditions(ctx)
	return &tokenvault.CheckResult{}, nil
}

func (h *signersHandler) Deliver(ctx tokenvault.Context, db tokenvault.KVStore, tx tokenvault.Tx) (*tokenvault.DeliverResult, error) {
	h.signers = Authenticate{}.GetConditions(ctx)
	return &tokenvault.DeliverResult{}, nil
}

func TestDecorator(t *testing.T) {
	ctx := tokenvault.WithChainID(context.Background(), testChainID)
	alice := key(2)

	signed := &signedTx{payload: []byte("vault/deposit")}
	signed.signatures = []*StdSignature{sign(t, alice, signed, testChainID, 0)}
	unsigned := &signedTx{payload: []byte("vault/deposit")}

	cases := map[string]struct {
		decorator   Decorator
		tx          tokenvault.Tx
		wantErr     *errors.Error
		wantSigners []tokenvault.Condition
	}{
		"signed": {
			decorator:   NewDecorator(),
			tx:          signed,
			wantSigners: []tokenvault.Condition{alice.PublicKey().Condition()},
		},
		"no signatures": {
			decorator: NewDecorator(),
			tx:        unsigned,
			wantErr:   errors.ErrUnauthorized,
		},
		"not a signed transaction": {
			decorator: NewDecorator(),
			tx:        &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test"}},
			wantErr:   errors.ErrUnauthorized,
		},
		"missing signatures allowed": {
			decorator: NewDecorator().AllowMissingSigs(),
			tx:        unsigned,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := newStore(t)
			h := &signersHandler{}

			_, err := tc.decorator.Check(ctx, db.CacheWrap(), tc.tx, h)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			_, err = tc.decorator.Deliver(ctx, db, tc.tx, h)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, tc.wantSigners, h.signers)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	alice := key(2).PublicKey().Condition()
	ctx := withSigners(context.Background(), []tokenvault.Condition{alice})

	var auth Authenticate
	assert.True(t, auth.HasAddress(ctx, alice.Address()))
	assert.False(t, auth.HasAddress(ctx, key(3).PublicKey().Address()))
	require.Equal(t, []tokenvault.Condition{alice}, auth.GetConditions(ctx))
	assert.Nil(t, auth.GetConditions(context.Background()))
}
