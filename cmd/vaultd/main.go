package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// When a cmd function is called it is given stdin, stdout and command line
// arguments except the program name and this command name. It is the
// responsibility of the command function to parse the arguments. Use os.Stderr
// to write error messages.
//
// Commands that need a state open the vault database found in the home
// directory. A genesis can be created and loaded in one pipeline:
//
//   $ vaultd keygen -name alice
//   $ vaultd genesis -admin alice -mint alice=1000ETH | vaultd init
//
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"address":              cmdAddress,
	"audit":                cmdAudit,
	"balance":              cmdBalance,
	"cancel-withdrawal":    cmdCancelWithdrawal,
	"claim-yield":          cmdClaimYield,
	"deposit":              cmdDeposit,
	"emergency-withdraw":   cmdEmergencyWithdraw,
	"execute-withdrawal":   cmdExecuteWithdrawal,
	"genesis":              cmdGenesis,
	"info":                 cmdInfo,
	"init":                 cmdInit,
	"keygen":               cmdKeygen,
	"request-withdrawal":   cmdRequestWithdrawal,
	"send-tokens":          cmdSendTokens,
	"set-deposit-fee":      cmdSetDepositFee,
	"set-paused":           cmdSetPaused,
	"set-withdrawal-delay": cmdSetWithdrawalDelay,
	"set-yield-rate":       cmdSetYieldRate,
	"upgrade":              cmdUpgrade,
	"version":              cmdVersion,
	"withdraw":             cmdWithdraw,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s operates a custodial token vault stored in a local database.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	c, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(2)
	}
	conf = c

	// Skip two first arguments. Second argument is the command name that
	// we just consumed.
	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		code, log := errors.Info(err, conf.Debug)
		fmt.Fprintf(os.Stderr, "Error %d: %s\n", code, log)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	_, err := fmt.Fprintln(out, tokenvault.Version())
	return err
}
