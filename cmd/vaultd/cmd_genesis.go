package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/app"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/x/cash"
	"github.com/iov-one/tokenvault/x/vault"
)

func cmdGenesis(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Create a genesis declaring the vault and the initial wallet balances. The
result can be edited or loaded directly using the init command.
		`)
		fl.PrintDefaults()
	}
	var mints mintFlag
	var (
		chainFl = fl.String("chain-id", conf.ChainID, "Chain ID of the state. Defaults to VAULTD_CHAIN_ID.")
		tokenFl = fl.String("token", "ETH", "Ticker of the token held by the vault.")
		adminFl = fl.String("admin", "", "Signer name or address of the vault administrator.")
		feeFl   = fl.Uint("fee", 0, "Deposit fee in basis points.")
	)
	fl.Var(&mints, "mint", "Initial wallet balance as <signer or address>=<amount>. Can be repeated.")
	fl.Parse(args)

	if *chainFl == "" {
		*chainFl = "tokenvault-local"
	}
	admin, err := resolveAddress(*adminFl)
	if err != nil {
		return errors.Wrap(err, "admin")
	}

	wallets := make(map[string]*cash.GenesisAccount)
	var order []string
	for _, m := range mints {
		addr, err := resolveAddress(m.owner)
		if err != nil {
			return errors.Wrapf(err, "mint owner %q", m.owner)
		}
		acc, ok := wallets[addr.String()]
		if !ok {
			acc = &cash.GenesisAccount{Address: addr}
			wallets[addr.String()] = acc
			order = append(order, addr.String())
		}
		acc.Coins = append(acc.Coins, m.amount)
	}
	accounts := make([]cash.GenesisAccount, 0, len(order))
	for _, key := range order {
		accounts = append(accounts, *wallets[key])
	}

	opts := map[string]interface{}{
		"initialize_schema": []string{"cash", "sigs"},
		"cash":              accounts,
		"vault": vault.Genesis{
			Token:         *tokenFl,
			Admin:         admin,
			DepositFeeBps: uint32(*feeFl),
		},
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	gen := app.Genesis{
		ChainID:    *chainFl,
		AppOptions: tokenvault.Options{},
	}
	if err := json.Unmarshal(raw, &gen.AppOptions); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	pretty, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	_, err = fmt.Fprintln(output, string(pretty))
	return err
}

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Initialize a new state from a genesis. The genesis is read from the standard
input unless a file is provided.
		`)
		fl.PrintDefaults()
	}
	var (
		node      = registerNodeFlags(fl)
		genesisFl = fl.String("genesis", "", "Path to the genesis file. Read from stdin if not provided.")
	)
	fl.Parse(args)

	var (
		gen *app.Genesis
		err error
	)
	if *genesisFl != "" {
		gen, err = app.LoadGenesis(*genesisFl)
	} else {
		gen, err = app.ReadGenesis(input)
	}
	if err != nil {
		return err
	}
	if conf.ChainID != "" && gen.ChainID != conf.ChainID {
		return errors.Wrapf(errors.ErrInput, "genesis chain id %q, expected %q", gen.ChainID, conf.ChainID)
	}
	now, err := node.now()
	if err != nil {
		return err
	}

	exec, done, err := node.open()
	if err != nil {
		return err
	}
	defer done()
	if err := exec.InitChain(now, gen, Initializers()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "chain %s initialized at height %d\n", exec.ChainID(), exec.Height())
	return err
}

