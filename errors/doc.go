/*
Package errors implements the error model used across tokenvault.

Every failure returned by a handler wraps one of the root errors declared
in this package. Root errors carry a numeric code so that a caller (the
vaultd command, a client library) can tell apart an insufficient balance
from a premature withdrawal without parsing messages.

Extensions that need a custom root error must use Register during program
startup. Reuse of a code panics.

Use Wrap or Wrapf to add context. The innermost wrap attaches a stack trace
(github.com/pkg/errors). Format an error with

	%s  just the error message
	%+v the message followed by the stack trace

Use Is to test the kind of an error:

	if errors.ErrInsufficientBalance.Is(err) {
		...
	}
*/
package errors
