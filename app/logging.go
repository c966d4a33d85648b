package app

import (
	"time"

	tokenvault "github.com/iov-one/tokenvault"
)

// Logging is a decorator to log messages as they pass through
type Logging struct{}

var _ tokenvault.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> info, success -> debug
func (Logging) Check(ctx tokenvault.Context, store tokenvault.KVStore, tx tokenvault.Tx, next tokenvault.Checker) (*tokenvault.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	logDuration(ctx, start, "check", err)
	return res, err
}

// Deliver logs error -> info, success -> debug
func (Logging) Deliver(ctx tokenvault.Context, store tokenvault.KVStore, tx tokenvault.Tx, next tokenvault.Deliverer) (*tokenvault.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	var msg string
	if res != nil {
		msg = res.Log
	}
	logDuration(ctx, start, msg, err)
	return res, err
}

// logDuration writes information about the time and result to the logger
func logDuration(ctx tokenvault.Context, start time.Time, msg string, err error) {
	delta := time.Since(start)
	logger := tokenvault.GetLogger(ctx).With("duration", delta/time.Microsecond)
	if err != nil {
		logger = logger.With("err", err)
		logger.Info(msg)
	} else {
		logger.Debug(msg)
	}
}
