package idsite

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// signingAlgorithm is pinned for both issuance and verification. It is never
// negotiated from token headers.
const signingAlgorithm = jwa.HS256

// RedirectBuilder constructs signed redirect URLs to the hosted login page.
type RedirectBuilder struct {
	cfg Config
}

// NewRedirectBuilder builds a RedirectBuilder from the given configuration.
func NewRedirectBuilder(cfg Config) (*RedirectBuilder, error) {
	cfg.normalize()
	if err := cfg.validateForRedirect(); err != nil {
		return nil, err
	}
	return &RedirectBuilder{cfg: cfg}, nil
}

type buildParams struct {
	path      *string
	state     *string
	expiresIn time.Duration
}

// BuildOption customizes a single Build call.
type BuildOption func(*buildParams)

// WithPath sets the UI route the hosted login page should open, for example
// "/#/register" or "/#/forgot".
func WithPath(path string) BuildOption {
	return func(p *buildParams) {
		p.path = &path
	}
}

// WithState attaches opaque caller state that the hosted login page echoes
// back verbatim on the callback.
func WithState(state string) BuildOption {
	return func(p *buildParams) {
		p.state = &state
	}
}

// WithExpiresIn bounds the redirect assertion's validity. Without it the
// assertion carries no expiry claim.
func WithExpiresIn(d time.Duration) BuildOption {
	return func(p *buildParams) {
		p.expiresIn = d
	}
}

// Build signs an assertion of intent and returns the redirect URL carrying
// it. The assertion gets a fresh unique token id each call; optional claims
// are omitted entirely when not supplied. Build performs no I/O.
func (b *RedirectBuilder) Build(key APIKey, callbackURI string, opts ...BuildOption) (string, error) {
	if callbackURI == "" {
		return "", errors.New("callback URI is required")
	}
	if key.ID == "" || key.Secret == "" {
		return "", errors.New("signing key id and secret are required")
	}

	var params buildParams
	for _, opt := range opts {
		opt(&params)
	}

	now := time.Now().UTC()
	builder := jwt.NewBuilder().
		IssuedAt(now).
		JwtID(uuid.NewString()).
		Issuer(key.ID).
		Audience([]string{key.ID}).
		Subject(b.cfg.SubjectHref).
		Claim(claimCallbackURI, callbackURI).
		Claim(claimIsNewSubject, false)
	if params.path != nil {
		builder = builder.Claim(claimPath, *params.path)
	}
	if params.state != nil {
		builder = builder.Claim(claimState, *params.state)
	}
	if params.expiresIn > 0 {
		builder = builder.Expiration(now.Add(params.expiresIn))
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build assertion: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(signingAlgorithm, []byte(key.Secret)))
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}

	login, err := url.Parse(b.cfg.LoginURL)
	if err != nil {
		return "", fmt.Errorf("parse login URL: %w", err)
	}
	query := login.Query()
	query.Set(b.cfg.RequestParam, string(signed))
	login.RawQuery = query.Encode()
	return login.String(), nil
}
