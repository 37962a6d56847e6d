package idsite

import "context"

// Outcome is the final, immutable result of a verified callback.
type Outcome struct {
	Account *Account

	// State is the opaque value supplied when the redirect was built, nil
	// when none was supplied.
	State *string

	// IsNewAccount reports whether the account was created during this
	// hosted-login round trip.
	IsNewAccount bool
}

// Finalize resolves the account referenced by a verified assertion and
// assembles the callback outcome. This is the only point the account store
// is consulted; lookup failures surface as account_resolution_failed rather
// than an empty result.
func Finalize(ctx context.Context, assertion *Assertion, accounts AccountResolver) (*Outcome, error) {
	account, err := accounts.ResolveAccount(ctx, assertion.Subject)
	if err != nil {
		return nil, newError(ErrCodeAccountResolution, err)
	}
	return &Outcome{
		Account:      account,
		State:        assertion.State,
		IsNewAccount: assertion.IsNewSubject,
	}, nil
}

// HandleCallback runs the full inbound pipeline: token extraction,
// verification, and account resolution.
func (v *Verifier) HandleCallback(ctx context.Context, callbackURL string, accounts AccountResolver) (*Outcome, error) {
	assertion, err := v.VerifyCallback(ctx, callbackURL)
	if err != nil {
		return nil, err
	}
	return Finalize(ctx, assertion, accounts)
}
