package cash

import (
	"testing"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/store"
	"github.com/iov-one/tokenvault/vaulttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t testing.TB) tokenvault.CacheableKVStore {
	t.Helper()
	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	return db
}

func TestCoinMint(t *testing.T) {
	db := newStore(t)
	ctrl := NewController(NewWalletBucket())
	addr := vaulttest.NewCondition().Address()
	addr2 := vaulttest.NewCondition().Address()

	balance, err := ctrl.Balance(db, addr)
	require.NoError(t, err)
	assert.True(t, balance.IsEmpty())

	require.NoError(t, ctrl.CoinMint(db, addr, coin.NewCoin(500, "FOO")))
	require.NoError(t, ctrl.CoinMint(db, addr, coin.NewCoin(100, "FOO")))
	require.NoError(t, ctrl.CoinMint(db, addr, coin.NewCoin(1, "BAR")))

	balance, err = ctrl.Balance(db, addr)
	require.NoError(t, err)
	assert.True(t, coin.NewCoin(600, "FOO").Equals(balance.Balance("FOO")))
	assert.True(t, coin.NewCoin(1, "BAR").Equals(balance.Balance("BAR")))

	balance, err = ctrl.Balance(db, addr2)
	require.NoError(t, err)
	assert.True(t, balance.IsEmpty())

	if err := ctrl.CoinMint(db, addr, coin.NewCoin(1, "foo")); !errors.ErrCurrency.Is(err) {
		t.Fatalf("want currency error, got %v", err)
	}
}

func TestMoveCoins(t *testing.T) {
	src := vaulttest.NewCondition().Address()
	dest := vaulttest.NewCondition().Address()

	cases := map[string]struct {
		minted   coin.Coin
		amount   coin.Coin
		wantErr  *errors.Error
		wantSrc  coin.Coin
		wantDest coin.Coin
	}{
		"move part": {
			minted:   coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(30, "ETH"),
			wantSrc:  coin.NewCoin(70, "ETH"),
			wantDest: coin.NewCoin(30, "ETH"),
		},
		"move everything": {
			minted:   coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(100, "ETH"),
			wantSrc:  coin.NewCoin(0, "ETH"),
			wantDest: coin.NewCoin(100, "ETH"),
		},
		"insufficient funds": {
			minted:   coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(101, "ETH"),
			wantErr:  errors.ErrAmount,
			wantSrc:  coin.NewCoin(100, "ETH"),
			wantDest: coin.NewCoin(0, "ETH"),
		},
		"other currency": {
			minted:   coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(1, "DAI"),
			wantErr:  errors.ErrAmount,
			wantSrc:  coin.NewCoin(100, "ETH"),
			wantDest: coin.NewCoin(0, "ETH"),
		},
		"zero amount": {
			minted:   coin.NewCoin(100, "ETH"),
			amount:   coin.NewCoin(0, "ETH"),
			wantErr:  errors.ErrAmount,
			wantSrc:  coin.NewCoin(100, "ETH"),
			wantDest: coin.NewCoin(0, "ETH"),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := newStore(t)
			ctrl := NewController(NewWalletBucket())
			require.NoError(t, ctrl.CoinMint(db, src, tc.minted))

			err := ctrl.MoveCoins(db, src, dest, tc.amount)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("want %s, got %v", tc.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("cannot move: %s", err)
			}

			srcBalance, err := ctrl.Balance(db, src)
			require.NoError(t, err)
			assert.True(t, tc.wantSrc.Equals(srcBalance.Balance("ETH")), "source %s", srcBalance)

			destBalance, err := ctrl.Balance(db, dest)
			require.NoError(t, err)
			assert.True(t, tc.wantDest.Equals(destBalance.Balance("ETH")), "destination %s", destBalance)
		})
	}
}

func TestMoveCoinsToSelf(t *testing.T) {
	db := newStore(t)
	ctrl := NewController(NewWalletBucket())
	addr := vaulttest.NewCondition().Address()

	require.NoError(t, ctrl.CoinMint(db, addr, coin.NewCoin(10, "ETH")))
	require.NoError(t, ctrl.MoveCoins(db, addr, addr, coin.NewCoin(4, "ETH")))

	balance, err := ctrl.Balance(db, addr)
	require.NoError(t, err)
	assert.True(t, coin.NewCoin(10, "ETH").Equals(balance.Balance("ETH")))
}
