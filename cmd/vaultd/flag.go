package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/coin"
	"github.com/iov-one/tokenvault/errors"
)

// resolveAddress accepts either a signer key name or any address encoding
// understood by tokenvault.ParseAddress.
func resolveAddress(nameOrAddress string) (tokenvault.Address, error) {
	if nameOrAddress == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "address")
	}
	if addr, err := tokenvault.ParseAddress(nameOrAddress); err == nil {
		return addr, nil
	}
	if strings.Contains(nameOrAddress, ":") {
		return nil, errors.Wrapf(errors.ErrInput, "invalid address %q", nameOrAddress)
	}
	key, err := loadKey(nameOrAddress)
	if err != nil {
		return nil, err
	}
	return key.PublicKey().Address(), nil
}

// flCoin returns a value that is being initialized with given default value
// and optionally overwritten by a command line argument if provided. This
// function follows Go's flag package convention.
// If given value cannot be deserialized to required type, process is
// terminated.
func flCoin(fl *flag.FlagSet, name, defaultVal, usage string) *coin.Coin {
	var c coin.Coin
	if defaultVal != "" {
		var err error
		c, err = coin.ParseHumanFormat(defaultVal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot parse %q coin.Coin flag value. %s", name, err)
			os.Exit(2)
		}
	}
	fl.Var(&c, name, usage)
	return &c
}

// mintFlag collects "<signer or address>=<amount>" declarations.
type mintFlag []mint

type mint struct {
	owner  string
	amount coin.Coin
}

func (m *mintFlag) String() string {
	parts := make([]string, 0, len(*m))
	for _, v := range *m {
		parts = append(parts, v.owner+"="+v.amount.String())
	}
	return strings.Join(parts, ",")
}

func (m *mintFlag) Set(raw string) error {
	chunks := strings.SplitN(raw, "=", 2)
	if len(chunks) != 2 {
		return errors.Wrapf(errors.ErrInput, "expected <owner>=<amount>, got %q", raw)
	}
	amount, err := coin.ParseHumanFormat(chunks[1])
	if err != nil {
		return err
	}
	*m = append(*m, mint{owner: chunks[0], amount: amount})
	return nil
}
