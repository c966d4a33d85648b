package app

import (
	"context"
	"testing"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/store"
	"github.com/iov-one/tokenvault/vaulttest"
	"github.com/stretchr/testify/assert"
)

func TestRouter(t *testing.T) {
	r := NewRouter()

	good := &vaulttest.Handler{}
	bad := &vaulttest.Handler{
		CheckErr:   errors.ErrState,
		DeliverErr: errors.ErrState,
	}
	r.Handle(&vaulttest.Msg{RoutePath: "good"}, good)
	r.Handle(&vaulttest.Msg{RoutePath: "x/bad"}, bad)

	ctx := context.Background()
	db := store.MemStore()

	cases := map[string]struct {
		tx      tokenvault.Tx
		wantErr *errors.Error
	}{
		"registered path": {
			tx: &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "good"}},
		},
		"handler failure": {
			tx:      &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "x/bad"}},
			wantErr: errors.ErrState,
		},
		"unknown path": {
			tx:      &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "missing"}},
			wantErr: errors.ErrNotFound,
		},
		"broken transaction": {
			tx:      &vaulttest.Tx{Err: errors.ErrInput},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if _, err := r.Check(ctx, db, tc.tx); !tc.wantErr.Is(err) {
				t.Fatalf("check: want %+v error, got %+v", tc.wantErr, err)
			}
			if _, err := r.Deliver(ctx, db, tc.tx); !tc.wantErr.Is(err) {
				t.Fatalf("deliver: want %+v error, got %+v", tc.wantErr, err)
			}
		})
	}

	assert.Equal(t, 2, good.CallCount())
	assert.Equal(t, 2, bad.CallCount())
	assert.ElementsMatch(t, []string{"good", "x/bad"}, r.Paths())
}

func TestRouterRejectsInvalidRoutes(t *testing.T) {
	r := NewRouter()
	r.Handle(&vaulttest.Msg{RoutePath: "vault/deposit"}, &vaulttest.Handler{})

	assert.Panics(t, func() {
		r.Handle(&vaulttest.Msg{RoutePath: "vault/deposit"}, &vaulttest.Handler{})
	}, "duplicated route")
	assert.Panics(t, func() {
		r.Handle(&vaulttest.Msg{RoutePath: "vault deposit"}, &vaulttest.Handler{})
	}, "invalid characters")
}
