package vault

import (
	"testing"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/x/cash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeposit(t *testing.T) {
	cases := map[string]struct {
		feeBps     uint32
		minted     uint64
		amount     coin.Coin
		wantErr    *errors.Error
		wantNet    coin.Coin
		wantWallet coin.Coin
	}{
		"deposit with a fee": {
			feeBps:     500,
			minted:     100,
			amount:     coin.NewCoin(100, "ETH"),
			wantNet:    coin.NewCoin(95, "ETH"),
			wantWallet: coin.NewCoin(0, "ETH"),
		},
		"deposit without a fee": {
			feeBps:     0,
			minted:     100,
			amount:     coin.NewCoin(40, "ETH"),
			wantNet:    coin.NewCoin(40, "ETH"),
			wantWallet: coin.NewCoin(60, "ETH"),
		},
		"zero amount": {
			minted:     100,
			amount:     coin.NewCoin(0, "ETH"),
			wantErr:    errors.ErrInvalidParameter,
			wantNet:    coin.NewCoin(0, "ETH"),
			wantWallet: coin.NewCoin(100, "ETH"),
		},
		"wrong token": {
			minted:     100,
			amount:     coin.NewCoin(10, "BTC"),
			wantErr:    errors.ErrInvalidParameter,
			wantNet:    coin.NewCoin(0, "ETH"),
			wantWallet: coin.NewCoin(100, "ETH"),
		},
		"wallet does not hold enough": {
			minted:     100,
			amount:     coin.NewCoin(101, "ETH"),
			wantErr:    errors.ErrAmount,
			wantNet:    coin.NewCoin(0, "ETH"),
			wantWallet: coin.NewCoin(100, "ETH"),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			v := newTestVault(t, tc.feeBps)
			alice := v.depositor(t, tc.minted)

			net, err := v.ledger.Deposit(at(10), v.db, alice.Address(), tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %+v error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr == nil && !net.Equals(tc.wantNet) {
				t.Fatalf("want %s credited, got %s", tc.wantNet, net)
			}
			if got := v.balanceOf(t, alice.Address()); !got.Equals(tc.wantNet) {
				t.Fatalf("want %s balance, got %s", tc.wantNet, got)
			}
			if got := v.walletOf(t, alice.Address()); !got.Equals(tc.wantWallet) {
				t.Fatalf("want %s in the wallet, got %s", tc.wantWallet, got)
			}
			v.assertConserved(t)
		})
	}
}

func TestDepositAccountsFees(t *testing.T) {
	v := newTestVault(t, 500)
	alice := v.depositor(t, 100)
	bob := v.depositor(t, 1000)

	_, err := v.ledger.Deposit(at(1), v.db, alice.Address(), coin.NewCoin(100, "ETH"))
	require.NoError(t, err)
	_, err = v.ledger.Deposit(at(2), v.db, bob.Address(), coin.NewCoin(1000, "ETH"))
	require.NoError(t, err)

	info, err := LoadInfo(v.db)
	require.NoError(t, err)
	assert.Equal(t, coin.NewCoin(1045, "ETH").String(), info.TotalDeposits.String())
	assert.Equal(t, coin.NewCoin(55, "ETH").String(), info.CollectedFees.String())

	// The reserve holds the deposits together with the fees.
	assert.True(t, coin.NewCoin(1100, "ETH").Equals(v.walletOf(t, ReserveAddress())))
	v.assertConserved(t)
}

func TestWithdraw(t *testing.T) {
	cases := map[string]struct {
		amount      coin.Coin
		paused      bool
		wantErr     *errors.Error
		wantBalance coin.Coin
		wantWallet  coin.Coin
	}{
		"withdraw part": {
			amount:      coin.NewCoin(45, "ETH"),
			wantBalance: coin.NewCoin(50, "ETH"),
			wantWallet:  coin.NewCoin(45, "ETH"),
		},
		"withdraw everything": {
			amount:      coin.NewCoin(95, "ETH"),
			wantBalance: coin.NewCoin(0, "ETH"),
			wantWallet:  coin.NewCoin(95, "ETH"),
		},
		"more than the balance": {
			amount:      coin.NewCoin(96, "ETH"),
			wantErr:     errors.ErrInsufficientBalance,
			wantBalance: coin.NewCoin(95, "ETH"),
			wantWallet:  coin.NewCoin(0, "ETH"),
		},
		"zero amount": {
			amount:      coin.NewCoin(0, "ETH"),
			wantErr:     errors.ErrInvalidParameter,
			wantBalance: coin.NewCoin(95, "ETH"),
			wantWallet:  coin.NewCoin(0, "ETH"),
		},
		"paused vault": {
			amount:      coin.NewCoin(10, "ETH"),
			paused:      true,
			wantErr:     errors.ErrPaused,
			wantBalance: coin.NewCoin(95, "ETH"),
			wantWallet:  coin.NewCoin(0, "ETH"),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			v := newTestVault(t, 500)
			alice := v.depositor(t, 100)
			_, err := v.ledger.Deposit(at(1), v.db, alice.Address(), coin.NewCoin(100, "ETH"))
			require.NoError(t, err)
			require.NoError(t, SetPaused(at(2), v.db, tc.paused))

			err = v.ledger.Withdraw(at(3), v.db, alice.Address(), tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %+v error, got %+v", tc.wantErr, err)
			}
			if got := v.balanceOf(t, alice.Address()); !got.Equals(tc.wantBalance) {
				t.Fatalf("want %s balance, got %s", tc.wantBalance, got)
			}
			if got := v.walletOf(t, alice.Address()); !got.Equals(tc.wantWallet) {
				t.Fatalf("want %s in the wallet, got %s", tc.wantWallet, got)
			}
			v.assertConserved(t)
		})
	}
}

func TestWithdrawNeverExceedsBalance(t *testing.T) {
	v := newTestVault(t, 0)
	alice := v.depositor(t, 100)
	bob := v.depositor(t, 100)
	_, err := v.ledger.Deposit(at(1), v.db, alice.Address(), coin.NewCoin(100, "ETH"))
	require.NoError(t, err)
	_, err = v.ledger.Deposit(at(1), v.db, bob.Address(), coin.NewCoin(100, "ETH"))
	require.NoError(t, err)

	// The reserve holds enough, but alice is entitled only to her part.
	err = v.ledger.Withdraw(at(2), v.db, alice.Address(), coin.NewCoin(101, "ETH"))
	if !errors.ErrInsufficientBalance.Is(err) {
		t.Fatalf("want insufficient balance, got %+v", err)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, v.ledger.Withdraw(at(3), v.db, alice.Address(), coin.NewCoin(10, "ETH")))
	}
	err = v.ledger.Withdraw(at(4), v.db, alice.Address(), coin.NewCoin(1, "ETH"))
	if !errors.ErrInsufficientBalance.Is(err) {
		t.Fatalf("want insufficient balance, got %+v", err)
	}
	assert.True(t, coin.NewCoin(100, "ETH").Equals(v.balanceOf(t, bob.Address())))
	v.assertConserved(t)
}

// reentrantMover moves the coins and then calls back into the vault, the
// way a token with transfer hooks could.
type reentrantMover struct {
	cash.BaseController
	reenter func(db tokenvault.KVStore) error
	err     error
}

func (m *reentrantMover) MoveCoins(db tokenvault.KVStore, src, dest tokenvault.Address, amount coin.Coin) error {
	if err := m.BaseController.MoveCoins(db, src, dest, amount); err != nil {
		return err
	}
	if fn := m.reenter; fn != nil {
		m.reenter = nil
		m.err = fn(db)
	}
	return nil
}

func TestReentrantDeposit(t *testing.T) {
	v := newTestVault(t, 500)
	alice := v.depositor(t, 200)
	mover := &reentrantMover{BaseController: v.wallet}
	ledger := NewLedger(mover)
	mover.reenter = func(db tokenvault.KVStore) error {
		_, err := ledger.Deposit(at(1), db, alice.Address(), coin.NewCoin(100, "ETH"))
		return err
	}

	net, err := ledger.Deposit(at(1), v.db, alice.Address(), coin.NewCoin(100, "ETH"))
	require.NoError(t, err)
	require.NoError(t, mover.err)
	assert.True(t, coin.NewCoin(95, "ETH").Equals(net))

	// Both deposits are credited, none overwrites the other.
	assert.True(t, coin.NewCoin(190, "ETH").Equals(v.balanceOf(t, alice.Address())))
	total, err := TotalDeposits(v.db)
	require.NoError(t, err)
	assert.True(t, coin.NewCoin(190, "ETH").Equals(total))
	v.assertConserved(t)
}

func TestReentrantWithdraw(t *testing.T) {
	v := newTestVault(t, 500)
	alice := v.depositor(t, 100)
	_, err := v.ledger.Deposit(at(1), v.db, alice.Address(), coin.NewCoin(100, "ETH"))
	require.NoError(t, err)

	mover := &reentrantMover{BaseController: v.wallet}
	ledger := NewLedger(mover)
	mover.reenter = func(db tokenvault.KVStore) error {
		return ledger.Withdraw(at(2), db, alice.Address(), coin.NewCoin(95, "ETH"))
	}

	require.NoError(t, ledger.Withdraw(at(2), v.db, alice.Address(), coin.NewCoin(95, "ETH")))
	if !errors.ErrInsufficientBalance.Is(mover.err) {
		t.Fatalf("want the nested withdrawal to fail, got %+v", mover.err)
	}
	assert.True(t, coin.NewCoin(95, "ETH").Equals(v.walletOf(t, alice.Address())))
	assert.True(t, coin.NewCoin(5, "ETH").Equals(v.walletOf(t, ReserveAddress())))
	v.assertConserved(t)
}

func TestCheckConservation(t *testing.T) {
	v := newTestVault(t, 100)
	for i := 0; i < 5; i++ {
		d := v.depositor(t, 1000)
		_, err := v.ledger.Deposit(at(1), v.db, d.Address(), coin.NewCoin(1000, "ETH"))
		require.NoError(t, err)
		require.NoError(t, v.ledger.Withdraw(at(2), v.db, d.Address(), coin.NewCoin(uint64(i*100+1), "ETH")))
	}
	v.assertConserved(t)

	// Modifying an account directly breaks the accounting.
	cheater := v.depositor(t, 0)
	balance := coin.NewCoin(1, "ETH")
	acc := &Account{Metadata: &tokenvault.Metadata{Schema: 1}, Balance: &balance}
	require.NoError(t, NewAccountBucket().Put(v.db, cheater.Address(), acc))
	if err := CheckConservation(v.db); !errors.ErrState.Is(err) {
		t.Fatalf("want state error, got %+v", err)
	}
}
