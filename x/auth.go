package x

import (
	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
)

// Authenticator extracts authentication information from the context. It
// is passed to handler constructors so that the signature scheme can be
// replaced without touching the extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(tokenvault.Context) []tokenvault.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(tokenvault.Context, tokenvault.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx tokenvault.Context) []tokenvault.Condition {
	var res []tokenvault.Condition
	for _, impl := range m.impls {
		res = append(res, impl.GetConditions(ctx)...)
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx tokenvault.Context, addr tokenvault.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx tokenvault.Context, auth Authenticator) []tokenvault.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]tokenvault.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first permission if any, otherwise nil
func MainSigner(ctx tokenvault.Context, auth Authenticator) tokenvault.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// MainSignerAddress returns the address of the first signer. Vault
// operations always act on behalf of this address. ErrUnauthorized is
// returned when the transaction is not signed.
func MainSignerAddress(ctx tokenvault.Context, auth Authenticator) (tokenvault.Address, error) {
	signer := MainSigner(ctx, auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return signer.Address(), nil
}

// RequireAddress returns ErrUnauthorized unless the given address signed
// the transaction.
func RequireAddress(ctx tokenvault.Context, auth Authenticator, addr tokenvault.Address) error {
	if len(addr) == 0 || !auth.HasAddress(ctx, addr) {
		return errors.Wrapf(errors.ErrUnauthorized, "signature of %s required", addr)
	}
	return nil
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx tokenvault.Context, auth Authenticator, required []tokenvault.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}
