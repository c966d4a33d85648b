package vaulttest

import tokenvault "github.com/iov-one/tokenvault"

// Tx represents a transaction carrying a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg tokenvault.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ tokenvault.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (tokenvault.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg represents a message with a configurable path.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Metadata is returned by GetMetadata so the message can be schema
	// versioned.
	Metadata *tokenvault.Metadata
	// Err if set is returned by any method call.
	Err error
}

var _ tokenvault.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}

func (m *Msg) GetMetadata() *tokenvault.Metadata {
	return m.Metadata
}
