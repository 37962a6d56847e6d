package idsite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier checks callback tokens returned by the hosted login page. It is
// safe for concurrent use; the nonce store is the only shared mutable state.
type Verifier struct {
	cfg    Config
	keys   KeyResolver
	nonces NonceStore
}

// NewVerifier builds a Verifier from the given configuration and
// collaborators. Both collaborators are required.
func NewVerifier(cfg Config, keys KeyResolver, nonces NonceStore) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("key resolver is required")
	}
	if nonces == nil {
		return nil, errors.New("nonce store is required")
	}
	cfg.normalize()
	return &Verifier{cfg: cfg, keys: keys, nonces: nonces}, nil
}

// ExtractToken pulls the raw response token out of a callback URL.
func (v *Verifier) ExtractToken(callbackURL string) (string, error) {
	parsed, err := url.Parse(callbackURL)
	if err != nil {
		return "", newError(ErrCodeMalformedCallback, err)
	}
	token := parsed.Query().Get(v.cfg.ResponseParam)
	if token == "" {
		return "", newError(ErrCodeMalformedCallback, fmt.Errorf("missing %q query parameter", v.cfg.ResponseParam))
	}
	return token, nil
}

// Verify authenticates a raw callback token and enforces single use. The
// steps run in a fixed order: an untrusted read of the audience claim picks
// the verification key, the signature and expiry are checked against that
// key with the pinned algorithm, required claims are checked, and only then
// is the token id consumed in the nonce store, so forged tokens can never
// write nonces.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Assertion, error) {
	// Untrusted pre-read. Nothing from this pass is used beyond key
	// selection.
	unverified, err := jwt.ParseInsecure([]byte(rawToken))
	if err != nil {
		return nil, newError(ErrCodeMalformedToken, err)
	}
	audience := unverified.Audience()
	if len(audience) == 0 || audience[0] == "" {
		return nil, newError(ErrCodeMissingAudience, nil)
	}

	key, found, err := v.keys.LookupKey(ctx, audience[0])
	if err != nil {
		return nil, newError(ErrCodeKeyResolutionFailed, err)
	}
	if !found {
		return nil, newError(ErrCodeUnknownSigner, fmt.Errorf("no key for client id %q", audience[0]))
	}

	verified, err := jwt.Parse([]byte(rawToken),
		jwt.WithKey(signingAlgorithm, []byte(key.Secret)),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, newError(ErrCodeBadSignature, err)
	}
	if err := jwt.Validate(verified, jwt.WithAcceptableSkew(v.cfg.ClockSkew)); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, newError(ErrCodeExpired, err)
		}
		return nil, newError(ErrCodeMalformedToken, err)
	}

	assertion := assertionFromToken(verified)
	if name, ok := missingClaim(verified, assertion); !ok {
		return nil, newError(ErrCodeMissingClaim, fmt.Errorf("claim %q", name))
	}

	fresh, err := v.nonces.CheckAndSet(ctx, assertion.TokenID, assertion.TokenID, v.nonceTTL(assertion))
	if err != nil {
		return nil, newError(ErrCodeNonceStoreUnavailable, err)
	}
	if !fresh {
		return nil, newError(ErrCodeReplayed, fmt.Errorf("token id %q already consumed", assertion.TokenID))
	}

	return assertion, nil
}

// VerifyCallback extracts the token from a callback URL and verifies it.
func (v *Verifier) VerifyCallback(ctx context.Context, callbackURL string) (*Assertion, error) {
	rawToken, err := v.ExtractToken(callbackURL)
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, rawToken)
}

// missingClaim reports the first required claim absent from the token.
func missingClaim(token jwt.Token, assertion *Assertion) (string, bool) {
	switch {
	case assertion.TokenID == "":
		return claimRequestID, false
	case assertion.Issuer == "":
		return "iss", false
	case assertion.Subject == "":
		return "sub", false
	}
	if v, ok := token.Get(claimIsNewSubject); !ok {
		return claimIsNewSubject, false
	} else if _, ok := v.(bool); !ok {
		return claimIsNewSubject, false
	}
	return "", true
}

// nonceTTL bounds nonce retention by the token's remaining validity window,
// or by the configured cap for tokens without an expiry.
func (v *Verifier) nonceTTL(assertion *Assertion) time.Duration {
	if assertion.ExpiresAt.IsZero() {
		return v.cfg.NonceTTL
	}
	ttl := time.Until(assertion.ExpiresAt) + v.cfg.ClockSkew
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
