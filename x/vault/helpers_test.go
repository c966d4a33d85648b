package vault

import (
	"testing"
	"time"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/store"
	"github.com/iov-one/tokenvault/vaulttest"
	"github.com/iov-one/tokenvault/x/cash"
)

// genesisTime is the block time at which every test vault is created.
var genesisTime = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

func genesisTimeUnix() tokenvault.UnixTime {
	return tokenvault.AsUnixTime(genesisTime)
}

// at returns a context with the block time set to given number of seconds
// after the genesis time.
func at(seconds int64) tokenvault.Context {
	return vaulttest.Context(genesisTime.Add(time.Duration(seconds)*time.Second), 1+seconds/5)
}

// testVault is a vault of the ETH token backed by the cash wallets.
type testVault struct {
	db     tokenvault.CacheableKVStore
	wallet cash.BaseController
	ledger *Ledger
	admin  tokenvault.Condition
}

func newTestVault(t testing.TB, feeBps uint32) *testVault {
	t.Helper()

	db := store.MemStore()
	migration.MustInitPkg(db, "cash")
	wallet := cash.NewController(cash.NewWalletBucket())
	admin := vaulttest.NewCondition()
	if err := Initialize(at(0), db, "ETH", admin.Address(), feeBps); err != nil {
		t.Fatalf("cannot initialize: %s", err)
	}
	return &testVault{
		db:     db,
		wallet: wallet,
		ledger: NewLedger(wallet),
		admin:  admin,
	}
}

// upgradeTo upgrades the vault one version at a time.
func (v *testVault) upgradeTo(t testing.TB, ctx tokenvault.Context, version uint32) {
	t.Helper()
	for {
		current, err := migration.NewSchemaBucket().CurrentSchema(v.db, packageName)
		if err != nil {
			t.Fatalf("current schema: %s", err)
		}
		if current >= version {
			return
		}
		if err := Upgrade(ctx, v.db, current+1); err != nil {
			t.Fatalf("cannot upgrade to %s: %s", VersionName(current+1), err)
		}
	}
}

// depositor returns a new depositor that holds given amount of ETH units
// in its wallet.
func (v *testVault) depositor(t testing.TB, units uint64) tokenvault.Condition {
	t.Helper()
	c := vaulttest.NewCondition()
	if units == 0 {
		return c
	}
	if err := v.wallet.CoinMint(v.db, c.Address(), coin.NewCoin(units, "ETH")); err != nil {
		t.Fatalf("cannot mint: %s", err)
	}
	return c
}

// walletOf returns the ETH units held by the address outside of the vault.
func (v *testVault) walletOf(t testing.TB, addr tokenvault.Address) coin.Coin {
	t.Helper()
	coins, err := v.wallet.Balance(v.db, addr)
	if err != nil {
		t.Fatalf("cannot get wallet balance: %s", err)
	}
	return coins.Balance("ETH")
}

// balanceOf returns the vault balance of the address.
func (v *testVault) balanceOf(t testing.TB, addr tokenvault.Address) coin.Coin {
	t.Helper()
	b, err := BalanceOf(v.db, addr)
	if err != nil {
		t.Fatalf("cannot get vault balance: %s", err)
	}
	return b
}

func (v *testVault) assertConserved(t testing.TB) {
	t.Helper()
	if err := CheckConservation(v.db); err != nil {
		t.Fatalf("total deposits not conserved: %s", err)
	}
}

// router is a minimal registry collecting handlers by message path. The
// signer of a delivered message is passed using the context.
type router struct {
	handlers map[string]tokenvault.Handler
	auth     *vaulttest.CtxAuth
}

func newRouter(v *testVault) *router {
	r := &router{
		handlers: make(map[string]tokenvault.Handler),
		auth:     &vaulttest.CtxAuth{Key: "signers"},
	}
	RegisterRoutes(r, r.auth, v.wallet)
	return r
}

func (r *router) Handle(m tokenvault.Msg, h tokenvault.Handler) {
	r.handlers[m.Path()] = h
}

// deliver routes the message signed by the signer to its handler.
func (r *router) deliver(ctx tokenvault.Context, db tokenvault.KVStore, signer tokenvault.Condition, msg tokenvault.Msg) error {
	h, ok := r.handlers[msg.Path()]
	if !ok {
		panic("no handler for " + msg.Path())
	}
	ctx = r.auth.SetConditions(ctx, signer)
	_, err := h.Deliver(ctx, db, &vaulttest.Tx{Msg: msg})
	return err
}
