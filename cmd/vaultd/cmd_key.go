package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/iov-one/tokenvault/crypto"
	"github.com/iov-one/tokenvault/errors"
)

var isKeyName = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`).MatchString

// keyPath returns the path of the private key file of a named signer.
func keyPath(name string) (string, error) {
	if !isKeyName(name) {
		return "", errors.Wrapf(errors.ErrInput, "invalid key name %q", name)
	}
	return filepath.Join(conf.Keys, name+".key"), nil
}

// loadKey reads the private key of a named signer from the key directory.
func loadKey(name string) (*crypto.PrivateKey, error) {
	path, err := keyPath(name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, errors.Wrapf(errors.ErrNotFound, "no key %q, create it with the keygen command", name)
	case err != nil:
		return nil, errors.Wrapf(errors.ErrInput, "cannot read private key file: %s", err)
	}
	key := &crypto.PrivateKey{Ed25519: raw}
	if err := key.Validate(); err != nil {
		return nil, errors.Wrapf(err, "private key file %q", path)
	}
	return key, nil
}

func cmdKeygen(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Generate a new private key for a named signer and print its address.

The key is written as a binary file into the key directory (VAULTD_KEYS).
This command fails if a key with the same name already exists.
		`)
		fl.PrintDefaults()
	}
	var (
		nameFl = fl.String("name", "", "Signer name.")
	)
	fl.Parse(args)

	path, err := keyPath(*nameFl)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(conf.Keys, 0700); err != nil {
		return errors.Wrapf(errors.ErrInput, "key directory: %s", err)
	}
	key, err := crypto.GenPrivKeyEd25519()
	if err != nil {
		return err
	}
	// O_EXCL so that an existing key is never overwritten.
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if os.IsExist(err) {
		return errors.Wrapf(errors.ErrDuplicate, "private key file %q already exists", path)
	}
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create private key file: %s", err)
	}
	defer fd.Close()
	if _, err := fd.Write(key.Ed25519); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot write private key: %s", err)
	}
	if err := fd.Close(); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot close private key file: %s", err)
	}
	_, err = fmt.Fprintln(output, key.PublicKey().Address())
	return err
}
