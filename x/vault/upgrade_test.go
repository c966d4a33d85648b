package vault

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

func TestInitialize(t *testing.T) {
	admin := vaulttest.NewCondition().Address()

	cases := map[string]struct {
		token   string
		admin   tokenvault.Address
		feeBps  uint32
		wantErr *errors.Error
	}{
		"valid": {
			token:  "ETH",
			admin:  admin,
			feeBps: 500,
		},
		"invalid token": {
			token:   "eth",
			admin:   admin,
			wantErr: errors.ErrInvalidParameter,
		},
		"missing admin": {
			token:   "ETH",
			wantErr: errors.ErrInvalidParameter,
		},
		"fee above one hundred percent": {
			token:   "ETH",
			admin:   admin,
			feeBps:  10001,
			wantErr: errors.ErrInvalidParameter,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			err := Initialize(at(0), db, tc.token, tc.admin, tc.feeBps)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %+v error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				if _, err := loadConfig(db); !errors.ErrNotFound.Is(err) {
					t.Fatalf("want no configuration, got %+v", err)
				}
				return
			}
			info, err := LoadInfo(db)
			require.NoError(t, err)
			assert.Equal(t, "V1", info.ImplementationVersion)
			assert.Equal(t, "V1", info.InitializedVersion)
			assert.Equal(t, tc.token, info.Token)
			assert.Equal(t, tc.admin, info.Admin)
			assert.Equal(t, tc.feeBps, info.DepositFeeRateBps)
			assert.True(t, info.TotalDeposits.IsZero())
			assert.False(t, info.Paused)
		})
	}
}

func TestInitializeOnlyOnce(t *testing.T) {
	v := newTestVault(t, 500)

	err := Initialize(at(1), v.db, "BTC", vaulttest.NewCondition().Address(), 0)
	if !errors.ErrAlreadyInitialized.Is(err) {
		t.Fatalf("want already initialized, got %+v", err)
	}
	fee, err := DepositFee(v.db)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), fee)

	// An upgraded vault cannot be initialized again either.
	v.upgradeTo(t, at(2), LatestVersion)
	err = Initialize(at(3), v.db, "ETH", v.admin.Address(), 0)
	if !errors.ErrAlreadyInitialized.Is(err) {
		t.Fatalf("want already initialized, got %+v", err)
	}
}

func TestInitializeAtNewerSchema(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, packageName)
	_, err := migration.NewSchemaBucket().Bump(db, packageName)
	require.NoError(t, err)

	require.NoError(t, Initialize(at(0), db, "ETH", vaulttest.NewCondition().Address(), 0))
	info, err := LoadInfo(db)
	require.NoError(t, err)
	assert.Equal(t, "V2", info.ImplementationVersion)
	assert.Equal(t, "V2", info.InitializedVersion)

	rate, err := YieldRate(db)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), rate)
}

func TestUpgradePreservesBalances(t *testing.T) {
	v := newTestVault(t, 500)
	alice := v.depositor(t, 100)
	_, err := v.ledger.Deposit(at(1), v.db, alice.Address(), coin.NewCoin(100, "ETH"))
	require.NoError(t, err)

	for _, version := range []uint32{V2, V3} {
		require.NoError(t, Upgrade(at(10), v.db, version))

		impl, err := ImplementationVersion(v.db)
		require.NoError(t, err)
		assert.Equal(t, VersionName(version), impl)

		assert.True(t, coin.NewCoin(95, "ETH").Equals(v.balanceOf(t, alice.Address())))
		total, err := TotalDeposits(v.db)
		require.NoError(t, err)
		assert.True(t, coin.NewCoin(95, "ETH").Equals(total))
		fee, err := DepositFee(v.db)
		require.NoError(t, err)
		assert.Equal(t, uint32(500), fee)
		v.assertConserved(t)
	}

	info, err := LoadInfo(v.db)
	require.NoError(t, err)
	assert.Equal(t, "V1", info.InitializedVersion)
	assert.Equal(t, tokenvault.UnixDuration(0), info.WithdrawalDelay)
	assert.Equal(t, v.admin.Address(), info.Admin)

	// Yield starts accruing with the upgrade, never before.
	require.NoError(t, SetYieldRate(at(10), v.db, 1000))
	yield, err := UserYield(at(10+SecondsPerYear), v.db, alice.Address())
	require.NoError(t, err)
	assert.True(t, coin.NewCoin(9, "ETH").Equals(yield), "got %s", yield)
}

func TestUpgradeSequence(t *testing.T) {
	v := newTestVault(t, 0)

	cases := []struct {
		version uint32
		wantErr *errors.Error
	}{
		{version: V1, wantErr: errors.ErrSchema},
		{version: V3, wantErr: errors.ErrSchema},
		{version: V2},
		{version: V2, wantErr: errors.ErrSchema},
		{version: V3},
		{version: LatestVersion + 1, wantErr: errors.ErrSchema},
	}
	for i, tc := range cases {
		if err := Upgrade(at(int64(i)), v.db, tc.version); !tc.wantErr.Is(err) {
			t.Fatalf("%d: upgrade to %d: want %+v error, got %+v", i, tc.version, tc.wantErr, err)
		}
	}

	impl, err := ImplementationVersion(v.db)
	require.NoError(t, err)
	assert.Equal(t, "V3", impl)
}

func TestUpgradeRequiresInitializedVault(t *testing.T) {
	db := store.MemStore()
	migration.MustInitPkg(db, packageName)
	if err := Upgrade(at(0), db, V2); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found error, got %+v", err)
	}
	ver, err := migration.NewSchemaBucket().CurrentSchema(db, packageName)
	require.NoError(t, err)
	assert.Equal(t, V1, ver)
}

func TestLayoutsAreSafeExtensions(t *testing.T) {
	for _, model := range layoutModels(LatestVersion) {
		for ver := V1; ver < LatestVersion; ver++ {
			prev, err := migration.LayoutOf(model, ver)
			require.NoError(t, err)
			next, err := migration.LayoutOf(model, ver+1)
			require.NoError(t, err)
			if err := migration.CheckLayout(prev, next); err != nil {
				t.Errorf("%T from %d to %d: %s", model, ver, ver+1, err)
			}
		}
	}
}

// reorderedAccount declares the yield index at the position of the
// balance. Such a layout would corrupt all stored accounts.
type reorderedAccount struct {
	Metadata     *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	YieldIndex   []byte               `protobuf:"bytes,2,opt,name=yield_index,json=yieldIndex,proto3" json:"yield_index,omitempty"`
	Balance      *coin.Coin           `protobuf:"bytes,3,opt,name=balance,proto3" json:"balance,omitempty"`
	PendingYield *coin.Coin           `protobuf:"bytes,4,opt,name=pending_yield,json=pendingYield,proto3" json:"pending_yield,omitempty" schema:"2"`
}

func (reorderedAccount) ReservedSlots() uint32 { return 16 }

// shrunkAccount keeps the field order but reserves less space.
type shrunkAccount struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Balance  *coin.Coin           `protobuf:"bytes,2,opt,name=balance,proto3" json:"balance,omitempty"`
}

func (shrunkAccount) ReservedSlots() uint32 { return 8 }

func TestLayoutRejectsIncompatibleAccount(t *testing.T) {
	prev, err := migration.LayoutOf(&Account{}, V1)
	require.NoError(t, err)

	cases := map[string]interface{}{
		"reordered fields": &reorderedAccount{},
		"changed capacity": &shrunkAccount{},
	}
	for testName, model := range cases {
		t.Run(testName, func(t *testing.T) {
			next, err := migration.LayoutOf(model, V2)
			require.NoError(t, err)
			next.Model = prev.Model
			if err := migration.CheckLayout(prev, next); !errors.ErrSchema.Is(err) {
				t.Fatalf("want schema error, got %+v", err)
			}
		})
	}
}
