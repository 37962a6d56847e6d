package idsite

import (
	"errors"
	"net/url"
	"time"
)

const (
	defaultClockSkew     = 30 * time.Second
	defaultNonceTTL      = time.Hour
	defaultRequestParam  = "jwtRequest"
	defaultResponseParam = "jwtResponse"
)

// Config describes a single application's hosted-login integration.
type Config struct {
	// LoginURL is the hosted login endpoint users are redirected to.
	LoginURL string

	// SubjectHref identifies the application issuing redirects. It becomes
	// the "sub" claim of outbound assertions.
	SubjectHref string

	// RequestParam and ResponseParam are the query parameter names carrying
	// the outbound and inbound tokens. The defaults match what the hosted
	// login page expects; override only against a page configured to match.
	RequestParam  string
	ResponseParam string

	// ClockSkew is the leeway applied when checking token expiry.
	ClockSkew time.Duration

	// NonceTTL caps how long a consumed token identifier is remembered when
	// the token itself carries no expiry. Tokens with an "exp" claim pin the
	// nonce lifetime to their remaining validity window instead.
	NonceTTL time.Duration
}

// normalize sets default values for optional fields.
func (c *Config) normalize() {
	if c.RequestParam == "" {
		c.RequestParam = defaultRequestParam
	}
	if c.ResponseParam == "" {
		c.ResponseParam = defaultResponseParam
	}
	if c.ClockSkew <= 0 {
		c.ClockSkew = defaultClockSkew
	}
	if c.NonceTTL <= 0 {
		c.NonceTTL = defaultNonceTTL
	}
}

// validateForRedirect ensures the configuration can build redirect URLs.
func (c Config) validateForRedirect() error {
	if c.LoginURL == "" {
		return errors.New("login URL is required")
	}
	parsed, err := url.Parse(c.LoginURL)
	if err != nil {
		return err
	}
	if !parsed.IsAbs() {
		return errors.New("login URL must be absolute")
	}
	if c.SubjectHref == "" {
		return errors.New("subject href is required")
	}
	return nil
}
