package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/app"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/x/cash"
	"github.com/iov-one/tokenvault/x/sigs"
	"github.com/iov-one/tokenvault/x/vault"
)

// deliver signs a single message with the key of the named signer,
// executes it and commits the result.
func deliver(node nodeFlags, output io.Writer, signer string, msg tokenvault.Msg) error {
	if signer == "" {
		return errors.Wrap(errors.ErrEmpty, "signer is required")
	}
	key, err := loadKey(signer)
	if err != nil {
		return err
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

	var seq int64
	err = exec.Query(now, func(ctx tokenvault.Context, db tokenvault.ReadOnlyKVStore) error {
		var err error
		seq, err = sigs.NextNonce(db, key.PublicKey().Address())
		return err
	})
	if err != nil {
		return err
	}
	tx := app.NewTx(msg)
	if err := tx.Sign(key, exec.ChainID(), seq); err != nil {
		return errors.Wrap(err, "sign")
	}

	res, err := exec.Deliver(now, tx)
	if err != nil {
		return errors.Wrapf(err, "%s", msg.Path())
	}
	log := res.Log
	if log == "" {
		log = "ok"
	}
	_, err = fmt.Fprintf(output, "%s at height %d: %s\n", msg.Path(), exec.Height(), log)
	return err
}

func meta() *tokenvault.Metadata {
	return &tokenvault.Metadata{Schema: 1}
}

func cmdDeposit(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Deposit tokens from the signer wallet into the vault. The deposit fee is
transferred to the vault reserve.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer depositing.")
		amountFl = flCoin(fl, "amount", "", "Amount to deposit.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.DepositMsg{Metadata: meta(), Amount: amountFl})
}

func cmdWithdraw(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Withdraw tokens from the vault into the signer wallet. Direct withdrawals are
available only before the vault is upgraded to V3.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer withdrawing.")
		amountFl = flCoin(fl, "amount", "", "Amount to withdraw.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.WithdrawMsg{Metadata: meta(), Amount: amountFl})
}

func cmdClaimYield(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Transfer the yield accrued by the signer deposit from the vault reserve into
the signer wallet.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer claiming.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.ClaimYieldMsg{Metadata: meta()})
}

func cmdRequestWithdrawal(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Request a delayed withdrawal. The request can be executed once the withdrawal
delay has passed.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer requesting.")
		amountFl = flCoin(fl, "amount", "", "Amount to withdraw.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.RequestWithdrawalMsg{Metadata: meta(), Amount: amountFl})
}

func cmdExecuteWithdrawal(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Execute the pending withdrawal request of the signer.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer executing.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.ExecuteWithdrawalMsg{Metadata: meta()})
}

func cmdCancelWithdrawal(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Cancel the pending withdrawal request of the signer.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer cancelling.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.CancelWithdrawalMsg{Metadata: meta()})
}

func cmdEmergencyWithdraw(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Withdraw the whole signer balance immediately, ignoring the withdrawal delay
and the paused state. Any pending request is dropped.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer withdrawing.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.EmergencyWithdrawMsg{Metadata: meta()})
}

func cmdSetDepositFee(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Change the deposit fee. Only the administrator can execute this operation.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the administrator.")
		feeFl    = fl.Uint("bps", 0, "Deposit fee in basis points.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.SetDepositFeeMsg{Metadata: meta(), FeeBps: uint32(*feeFl)})
}

func cmdSetYieldRate(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Change the yearly yield rate. Yield accrued so far is not affected. Only the
administrator can execute this operation.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the administrator.")
		rateFl   = fl.Uint("bps", 0, "Yearly yield rate in basis points.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.SetYieldRateMsg{Metadata: meta(), RateBps: uint32(*rateFl)})
}

func cmdSetWithdrawalDelay(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Change the delay of withdrawal requests. The new delay applies to pending
requests as well. Only the administrator can execute this operation.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the administrator.")
		delayFl  = fl.Duration("delay", time.Hour, "Withdrawal delay.")
	)
	fl.Parse(args)
	msg := &vault.SetWithdrawalDelayMsg{
		Metadata: meta(),
		Delay:    tokenvault.AsUnixDuration(*delayFl),
	}
	return deliver(node, output, *signerFl, msg)
}

func cmdSetPaused(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Pause or resume the vault. A paused vault accepts only emergency withdrawals
and administrative operations.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the administrator.")
		pausedFl = fl.Bool("paused", true, "Whether the vault is paused.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.SetPausedMsg{Metadata: meta(), Paused: *pausedFl})
}

func cmdUpgrade(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Upgrade the vault logic to the given version. Only the administrator can
execute this operation.
		`)
		fl.PrintDefaults()
	}
	var (
		node      = registerNodeFlags(fl)
		signerFl  = fl.String("signer", "", "Name of the administrator.")
		versionFl = fl.Uint("version", 0, "Version to upgrade to. Versions are activated one at a time.")
	)
	fl.Parse(args)
	return deliver(node, output, *signerFl, &vault.UpgradeMsg{Metadata: meta(), Version: uint32(*versionFl)})
}

func cmdSendTokens(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), `
Transfer tokens from the signer wallet to another wallet. Use it to fund the
vault reserve that pays the yield.
		`)
		fl.PrintDefaults()
	}
	var (
		node     = registerNodeFlags(fl)
		signerFl = fl.String("signer", "", "Name of the signer sending the tokens.")
		dstFl    = fl.String("dst", "", "Signer name or address of the recipient.")
		amountFl = flCoin(fl, "amount", "", "Amount to transfer.")
		memoFl   = fl.String("memo", "", "A short message attached to the transfer.")
	)
	fl.Parse(args)

	if *signerFl == "" {
		return errors.Wrap(errors.ErrEmpty, "signer is required")
	}
	src, err := loadKey(*signerFl)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	dst, err := resolveAddress(*dstFl)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	msg := &cash.SendMsg{
		Metadata:    meta(),
		Source:      src.PublicKey().Address(),
		Destination: dst,
		Amount:      amountFl,
		Memo:        *memoFl,
	}
	return deliver(node, output, *signerFl, msg)
}
