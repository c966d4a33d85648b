package vault

import (
	"testing"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/vaulttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meta() *tokenvault.Metadata {
	return &tokenvault.Metadata{Schema: 1}
}

func TestInitializeMsgIsRejected(t *testing.T) {
	v := newTestVault(t, 0)
	r := newRouter(v)

	msg := &InitializeMsg{
		Metadata:      meta(),
		Token:         "BTC",
		Admin:         v.admin.Address(),
		DepositFeeBps: 0,
	}
	if err := r.deliver(at(1), v.db, v.admin, msg); !errors.ErrAlreadyInitialized.Is(err) {
		t.Fatalf("want already initialized, got %+v", err)
	}
	info, err := LoadInfo(v.db)
	require.NoError(t, err)
	assert.Equal(t, "ETH", info.Token)
}

func TestAdministratorOnly(t *testing.T) {
	stranger := vaulttest.NewCondition()

	cases := map[string]tokenvault.Msg{
		"set deposit fee":      &SetDepositFeeMsg{Metadata: meta(), FeeBps: 100},
		"set yield rate":       &SetYieldRateMsg{Metadata: meta(), RateBps: 100},
		"set withdrawal delay": &SetWithdrawalDelayMsg{Metadata: meta(), Delay: 60},
		"set paused":           &SetPausedMsg{Metadata: meta(), Paused: true},
	}

	for testName, msg := range cases {
		t.Run(testName, func(t *testing.T) {
			v := newTestVault(t, 500)
			v.upgradeTo(t, at(0), LatestVersion)
			r := newRouter(v)

			if err := r.deliver(at(1), v.db, stranger, msg); !errors.ErrUnauthorized.Is(err) {
				t.Fatalf("want unauthorized, got %+v", err)
			}
			info, err := LoadInfo(v.db)
			require.NoError(t, err)
			assert.Equal(t, uint32(500), info.DepositFeeRateBps)
			assert.Equal(t, uint32(0), info.YieldRateBps)
			assert.Equal(t, tokenvault.UnixDuration(0), info.WithdrawalDelay)
			assert.False(t, info.Paused)

			if err := r.deliver(at(1), v.db, v.admin, msg); err != nil {
				t.Fatalf("administrator cannot deliver: %+v", err)
			}
		})
	}
}

func TestUpgradeMsg(t *testing.T) {
	v := newTestVault(t, 0)
	r := newRouter(v)
	stranger := vaulttest.NewCondition()

	err := r.deliver(at(1), v.db, stranger, &UpgradeMsg{Metadata: meta(), Version: V2})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}
	require.NoError(t, r.deliver(at(1), v.db, v.admin, &UpgradeMsg{Metadata: meta(), Version: V2}))

	err = r.deliver(at(2), v.db, v.admin, &UpgradeMsg{Metadata: meta(), Version: V2})
	if !errors.ErrSchema.Is(err) {
		t.Fatalf("want schema error, got %+v", err)
	}
	impl, err := ImplementationVersion(v.db)
	require.NoError(t, err)
	assert.Equal(t, "V2", impl)
}

func TestVersionGating(t *testing.T) {
	amount := coin.NewCoinp(10, "ETH")

	cases := map[string]struct {
		version uint32
		msg     tokenvault.Msg
		wantErr *errors.Error
	}{
		"withdraw in V1": {
			version: V1,
			msg:     &WithdrawMsg{Metadata: meta(), Amount: amount},
		},
		"withdraw in V2": {
			version: V2,
			msg:     &WithdrawMsg{Metadata: meta(), Amount: amount},
		},
		"withdraw in V3": {
			version: V3,
			msg:     &WithdrawMsg{Metadata: meta(), Amount: amount},
			wantErr: errors.ErrSchema,
		},
		"claim yield in V1": {
			version: V1,
			msg:     &ClaimYieldMsg{Metadata: meta()},
			wantErr: errors.ErrSchema,
		},
		"claim yield in V2": {
			version: V2,
			msg:     &ClaimYieldMsg{Metadata: meta()},
		},
		"request withdrawal in V2": {
			version: V2,
			msg:     &RequestWithdrawalMsg{Metadata: meta(), Amount: amount},
			wantErr: errors.ErrSchema,
		},
		"request withdrawal in V3": {
			version: V3,
			msg:     &RequestWithdrawalMsg{Metadata: meta(), Amount: amount},
		},
		"emergency withdrawal in V2": {
			version: V2,
			msg:     &EmergencyWithdrawMsg{Metadata: meta()},
			wantErr: errors.ErrSchema,
		},
		"emergency withdrawal in V3": {
			version: V3,
			msg:     &EmergencyWithdrawMsg{Metadata: meta()},
		},
		"deposit in V3": {
			version: V3,
			msg:     &DepositMsg{Metadata: meta(), Amount: amount},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			v := newTestVault(t, 0)
			alice := v.depositor(t, 100)
			_, err := v.ledger.Deposit(at(0), v.db, alice.Address(), coin.NewCoin(50, "ETH"))
			require.NoError(t, err)
			v.upgradeTo(t, at(0), tc.version)

			r := newRouter(v)
			if err := r.deliver(at(1), v.db, alice, tc.msg); !tc.wantErr.Is(err) {
				t.Fatalf("want %+v error, got %+v", tc.wantErr, err)
			}
			v.assertConserved(t)
		})
	}
}

func TestDepositAndWithdrawMsg(t *testing.T) {
	v := newTestVault(t, 500)
	alice := v.depositor(t, 100)
	r := newRouter(v)

	require.NoError(t, r.deliver(at(1), v.db, alice, &DepositMsg{Metadata: meta(), Amount: coin.NewCoinp(100, "ETH")}))
	assert.True(t, coin.NewCoin(95, "ETH").Equals(v.balanceOf(t, alice.Address())))

	// An unsigned transaction has no depositor.
	_, err := r.handlers["vault/withdraw"].Deliver(at(2), v.db, &vaulttest.Tx{
		Msg: &WithdrawMsg{Metadata: meta(), Amount: coin.NewCoinp(95, "ETH")},
	})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}

	require.NoError(t, r.deliver(at(2), v.db, alice, &WithdrawMsg{Metadata: meta(), Amount: coin.NewCoinp(95, "ETH")}))
	assert.True(t, v.balanceOf(t, alice.Address()).IsZero())
	assert.True(t, coin.NewCoin(95, "ETH").Equals(v.walletOf(t, alice.Address())))
	v.assertConserved(t)
}

func TestPausedVault(t *testing.T) {
	v := newTestVault(t, 0)
	alice := v.depositor(t, 100)
	_, err := v.ledger.Deposit(at(0), v.db, alice.Address(), coin.NewCoin(60, "ETH"))
	require.NoError(t, err)
	v.upgradeTo(t, at(0), LatestVersion)
	r := newRouter(v)

	require.NoError(t, r.deliver(at(1), v.db, v.admin, &SetPausedMsg{Metadata: meta(), Paused: true}))

	blocked := []tokenvault.Msg{
		&DepositMsg{Metadata: meta(), Amount: coin.NewCoinp(10, "ETH")},
		&RequestWithdrawalMsg{Metadata: meta(), Amount: coin.NewCoinp(10, "ETH")},
		&ClaimYieldMsg{Metadata: meta()},
	}
	for _, msg := range blocked {
		if err := r.deliver(at(2), v.db, alice, msg); !errors.ErrPaused.Is(err) {
			t.Fatalf("%s: want paused error, got %+v", msg.Path(), err)
		}
	}

	require.NoError(t, r.deliver(at(3), v.db, alice, &EmergencyWithdrawMsg{Metadata: meta()}))
	assert.True(t, coin.NewCoin(100, "ETH").Equals(v.walletOf(t, alice.Address())))

	require.NoError(t, r.deliver(at(4), v.db, v.admin, &SetPausedMsg{Metadata: meta(), Paused: false}))
	require.NoError(t, r.deliver(at(5), v.db, alice, &DepositMsg{Metadata: meta(), Amount: coin.NewCoinp(10, "ETH")}))
	v.assertConserved(t)
}
