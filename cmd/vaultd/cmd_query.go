package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/x/cash"
	"github.com/iov-one/tokenvault/x/vault"
)

// query runs fn on the committed state.
func query(node nodeFlags, fn func(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore) error) error {
	now, err := node.now()
	if err != nil {
		return err
	}
	exec, done, err := node.open()
	if err != nil {
		return err
	}
	defer done()
	return exec.Query(now, fn)
}

func writeJSON(output io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	_, err = fmt.Fprintln(output, string(raw))
	return err
}

func cmdInfo(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Print the vault configuration and totals.
		`)
		fl.PrintDefaults()
	}
	node := registerNodeFlags(fl)
	fl.Parse(args)

	return query(node, func(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore) error {
		info, err := vault.LoadInfo(db)
		if err != nil {
			return err
		}
		return writeJSON(output, info)
	})
}

// balanceReport is the account view printed by the balance command.
// Fields of features not available in the active version are omitted.
type balanceReport struct {
	Address    tokenvault.Address       `json:"address"`
	Deposit    coin.Coin                `json:"deposit"`
	Wallet     coin.Coin                `json:"wallet"`
	Yield      *coin.Coin               `json:"yield,omitempty"`
	Withdrawal *vault.WithdrawalRequest `json:"withdrawal,omitempty"`
}

func cmdBalance(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Print the vault deposit, wallet balance, claimable yield and pending
withdrawal request of an account.
		`)
		fl.PrintDefaults()
	}
	var (
		node      = registerNodeFlags(fl)
		accountFl = fl.String("account", "", "Signer name or address of the account.")
	)
	fl.Parse(args)

	addr, err := resolveAddress(*accountFl)
	if err != nil {
		return errors.Wrap(err, "account")
	}
	return query(node, func(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore) error {
		deposit, err := vault.BalanceOf(db, addr)
		if err != nil {
			return err
		}
		wallets, err := cash.NewController(cash.NewWalletBucket()).Balance(db, addr)
		if err != nil {
			return err
		}
		report := balanceReport{
			Address: addr,
			Deposit: deposit,
			Wallet:  wallets.Balance(deposit.Ticker),
		}

		switch y, err := vault.UserYield(ctx, db, addr); {
		case err == nil:
			report.Yield = &y
		case !errors.ErrSchema.Is(err):
			return err
		}
		switch req, err := vault.WithdrawalRequestOf(db, addr); {
		case err == nil:
			report.Withdrawal = req
		case !errors.ErrSchema.Is(err):
			return err
		}
		return writeJSON(output, report)
	})
}

func cmdAudit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Verify that the total deposits equal the sum of all account balances.
		`)
		fl.PrintDefaults()
	}
	node := registerNodeFlags(fl)
	fl.Parse(args)

	return query(node, func(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore) error {
		if err := vault.CheckConservation(db); err != nil {
			return err
		}
		total, err := vault.TotalDeposits(db)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(output, "ok: total deposits %s\n", total)
		return err
	})
}

func cmdAddress(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Print the address of a named signer key or of the vault reserve.
		`)
		fl.PrintDefaults()
	}
	var (
		nameFl    = fl.String("name", "", "Signer name.")
		reserveFl = fl.Bool("reserve", false, "Print the vault reserve address instead.")
		hrpFl     = fl.String("hrp", "tvault", "Human readable part of the bech32 encoding.")
	)
	fl.Parse(args)

	var addr tokenvault.Address
	switch {
	case *reserveFl:
		addr = vault.ReserveAddress()
	case *nameFl != "":
		key, err := loadKey(*nameFl)
		if err != nil {
			return err
		}
		addr = key.PublicKey().Address()
	default:
		return errors.Wrap(errors.ErrEmpty, "signer name or -reserve is required")
	}
	b32, err := addr.Bech32(*hrpFl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(output, "%s\n%s\n", addr, b32)
	return err
}
