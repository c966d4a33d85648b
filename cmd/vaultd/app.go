package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/app"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/migration"
	"github.com/iov-one/tokenvault/store/iavl"
	"github.com/iov-one/tokenvault/x/cash"
	"github.com/iov-one/tokenvault/x/sigs"
	"github.com/iov-one/tokenvault/x/vault"
)

// dbName is the name of the database created in the home directory.
const dbName = "vault"

// Router returns a router with all messages supported by the application.
func Router() *app.Router {
	r := app.NewRouter()
	auth := sigs.Authenticate{}
	wallets := cash.NewController(cash.NewWalletBucket())
	cash.RegisterRoutes(r, auth, wallets)
	vault.RegisterRoutes(r, auth, wallets)
	return r
}

// Stack wraps the router with the decorators every transaction is
// processed by. Handlers are granted only the conditions of verified
// signatures.
func Stack() tokenvault.Handler {
	return app.ChainDecorators(
		app.NewLogging(),
		app.NewRecovery(),
		sigs.NewDecorator(),
	).WithHandler(Router())
}

// Initializers returns the genesis initializers of all extensions.
func Initializers() tokenvault.Initializer {
	return app.ChainInitializers(
		migration.Initializer{},
		cash.Initializer{},
		vault.Initializer{},
	)
}

// nodeFlags are flags shared by all commands operating on the state.
type nodeFlags struct {
	home *string
	at   *string
}

func registerNodeFlags(fl *flag.FlagSet) nodeFlags {
	return nodeFlags{
		home: fl.String("home", conf.Home, "Directory of the vault database. Defaults to VAULTD_HOME."),
		at:   fl.String("at", "", "Block time in RFC3339 format. Current time is used if not provided."),
	}
}

// now returns the block time the command is executed at.
func (n nodeFlags) now() (time.Time, error) {
	if *n.at == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, *n.at)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInput, "block time: %s", err)
	}
	return t, nil
}

// open returns an executor on top of the state found in the home
// directory. Returned function must be called to release the database.
func (n nodeFlags) open() (*app.Executor, func(), error) {
	if err := os.MkdirAll(*n.home, 0700); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrDatabase, "home directory: %s", err)
	}
	logger, err := newLogger(os.Stderr, conf.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	store := iavl.NewCommitStore(filepath.Clean(*n.home), dbName)
	exec, err := app.NewExecutor(store, Stack(), logger.With("module", "vaultd"))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	exec.WithDebug(conf.Debug)
	if id := exec.ChainID(); conf.ChainID != "" && id != "" && id != conf.ChainID {
		store.Close()
		return nil, nil, errors.Wrapf(errors.ErrState, "state belongs to chain %q, not %q", id, conf.ChainID)
	}
	return exec, store.Close, nil
}
