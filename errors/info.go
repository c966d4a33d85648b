package errors

import (
	stderrors "errors"
	"fmt"
)

const (
	// SuccessCode is returned for a nil error.
	SuccessCode uint32 = 0

	// All unclassified errors that do not provide a code are clubbed
	// under an internal error code and a generic message instead of
	// detailed error string.
	internalCode uint32 = 1
	internalLog         = "internal error"
)

// Code returns the code of the root error that given error wraps. Errors
// that do not wrap any registered root error are internal and return code 1.
func Code(err error) uint32 {
	if isNilErr(err) {
		return SuccessCode
	}

	for {
		if c, ok := err.(coder); ok {
			return c.Code()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalCode
		}
	}
}

type coder interface {
	Code() uint32
}

// Info returns the code and the message that can be exposed to the caller.
// When not running in a debug mode all messages of errors that do not
// provide code information are replaced with generic "internal error".
func Info(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessCode, ""
	}

	code := Code(err)
	if debug {
		return code, fmt.Sprintf("%+v", err)
	}
	if code == internalCode || code == ErrPanic.code {
		return code, internalLog
	}
	return code, err.Error()
}

// Redact replace all errors that do not initialize with a registered error
// with a generic internal error instance. Panic errors are always redacted.
//
// This is a no-operation function when running in debug mode.
func Redact(err error, debug bool) error {
	if debug || isNilErr(err) {
		return err
	}
	if ErrPanic.Is(err) {
		return stderrors.New(internalLog)
	}
	if Code(err) == internalCode {
		return stderrors.New(internalLog)
	}
	return err
}
