package app

import (
	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/crypto"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/x/sigs"
)

// Tx is a transaction processed by the Executor. It carries a single
// message and the signatures of everyone authorizing it. Handlers see only
// the signers whose signature was verified by the sigs.Decorator.
type Tx struct {
	Msg        tokenvault.Msg
	Signatures []*sigs.StdSignature
}

var _ tokenvault.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx returns an unsigned transaction carrying msg.
func NewTx(msg tokenvault.Msg) *Tx {
	return &Tx{Msg: msg}
}

// GetMsg returns the transaction message.
func (tx *Tx) GetMsg() (tokenvault.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrInput, "no message")
	}
	return tx.Msg, nil
}

// GetSignatures returns all signatures of the transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the message path, a zero byte and the protobuf
// serialized message.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	pm, ok := msg.(proto.Message)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T cannot be signed", msg)
	}
	raw, err := proto.Marshal(pm)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot serialize message: %s", err)
	}
	bz := make([]byte, 0, len(msg.Path())+1+len(raw))
	bz = append(bz, msg.Path()...)
	bz = append(bz, 0)
	return append(bz, raw...), nil
}

// Sign appends a signature created by signer for given chain and signer
// sequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}
