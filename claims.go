package idsite

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claim names carried in signed assertions. These are wire-level names shared
// with the hosted login page and must not be renamed.
const (
	claimCallbackURI  = "cb_uri"
	claimPath         = "path"
	claimState        = "state"
	claimIsNewSubject = "isNewSub"
	claimRequestID    = "irt"
)

// Assertion represents the verified claim set exchanged with the hosted
// login page. Optional claims are nil pointers when absent from the token.
type Assertion struct {
	Subject  string
	Issuer   string
	Audience string
	IssuedAt time.Time

	// ExpiresAt is zero when the token carries no expiry.
	ExpiresAt time.Time

	// TokenID is the single-use identifier: the inbound "irt" claim, or the
	// "jti" claim on tokens that never left the issuing process.
	TokenID string

	CallbackURI  string
	Path         *string
	State        *string
	IsNewSubject bool
}

// assertionFromToken normalizes a parsed token into an Assertion. Presence
// checks are the verifier's job; this only copies what exists.
func assertionFromToken(token jwt.Token) *Assertion {
	assertion := &Assertion{
		Subject:   token.Subject(),
		Issuer:    token.Issuer(),
		IssuedAt:  token.IssuedAt(),
		ExpiresAt: token.Expiration(),
		TokenID:   token.JwtID(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		assertion.Audience = aud[0]
	}
	if s, ok := stringClaim(token, claimRequestID); ok {
		assertion.TokenID = s
	}
	if s, ok := stringClaim(token, claimCallbackURI); ok {
		assertion.CallbackURI = s
	}
	if s, ok := stringClaim(token, claimPath); ok {
		assertion.Path = &s
	}
	if s, ok := stringClaim(token, claimState); ok {
		assertion.State = &s
	}
	if v, ok := token.Get(claimIsNewSubject); ok {
		if b, ok := v.(bool); ok {
			assertion.IsNewSubject = b
		}
	}
	return assertion
}

// stringClaim returns a private string claim. A claim that is present but
// null or non-string reports absent, matching how the hosted login page
// encodes omitted optional values.
func stringClaim(token jwt.Token, name string) (string, bool) {
	v, ok := token.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
