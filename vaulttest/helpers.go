package vaulttest

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"time"

	tokenvault "github.com/iov-one/tokenvault"
)

var counter uint64

// NewCondition returns a new and unique condition. Each call returns a
// condition that was never returned before.
func NewCondition() tokenvault.Condition {
	return tokenvault.NewCondition("test", "seq", SequenceID(atomic.AddUint64(&counter, 1)))
}

// SequenceID returns an 8 byte big endian representation of given number.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// Context returns a context with given block time and height set.
func Context(now time.Time, height int64) tokenvault.Context {
	ctx := context.Background()
	ctx = tokenvault.WithHeight(ctx, height)
	ctx = tokenvault.WithBlockTime(ctx, now)
	return ctx
}
