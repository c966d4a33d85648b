package main

import (
	"io"

	"github.com/caarlos0/env/v11"
	"github.com/tendermint/tendermint/libs/log"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Config is the process configuration read from the environment. Values
// are used as flag defaults so that each can be overwritten per command.
// Keys is the directory holding the private key files of named signers.
type Config struct {
	Home     string `env:"VAULTD_HOME,expand" envDefault:"${HOME}/.vaultd"`
	Keys     string `env:"VAULTD_KEYS,expand" envDefault:"${HOME}/.vaultd-keys"`
	LogLevel string `env:"VAULTD_LOG_LEVEL" envDefault:"info"`
	// ChainID when set must match the chain id of the opened state.
	ChainID string `env:"VAULTD_CHAIN_ID"`
	// Debug exposes internal error details, including recovered panics.
	Debug bool `env:"VAULTD_DEBUG" envDefault:"false"`
}

// conf is the configuration used by all commands. It is loaded once
// before a command is executed.
var conf = Config{
	Home:     ".vaultd",
	Keys:     ".vaultd-keys",
	LogLevel: "info",
}

func loadConfig() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return c, errors.Wrapf(errors.ErrInput, "parse environment: %s", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	var errs error
	if c.Home == "" {
		errs = errors.AppendField(errs, "VAULTD_HOME", errors.ErrEmpty)
	}
	if c.Keys == "" {
		errs = errors.AppendField(errs, "VAULTD_KEYS", errors.ErrEmpty)
	}
	if _, err := log.AllowLevel(c.LogLevel); err != nil {
		errs = errors.AppendField(errs, "VAULTD_LOG_LEVEL", errors.Wrap(errors.ErrInput, err.Error()))
	}
	if c.ChainID != "" && !tokenvault.IsValidChainID(c.ChainID) {
		errs = errors.AppendField(errs, "VAULTD_CHAIN_ID", errors.Wrapf(errors.ErrInput, "invalid chain id %q", c.ChainID))
	}
	return errs
}

// newLogger returns a logger writing to given output all messages of at
// least the configured level.
func newLogger(out io.Writer, level string) (log.Logger, error) {
	allow, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	logger := log.NewTMLogger(log.NewSyncWriter(out))
	return log.NewFilter(logger, allow), nil
}
