// Package restapi implements the key and account collaborators over the
// hosted service's REST API.
package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loginwire/idsite"
)

const (
	defaultMaxRetries  = 4
	defaultHTTPTimeout = 10 * time.Second
	maxBackoff         = 20 * time.Second
	defaultUserAgent   = "idsite-go/1.0"
)

// Config describes how to reach the hosted service API.
type Config struct {
	// BaseURL is the root of the hosted service API.
	BaseURL string

	// APIKeyID and APIKeySecret authenticate this client to the API.
	APIKeyID     string
	APIKeySecret string

	UserAgent   string
	MaxRetries  int
	HTTPTimeout time.Duration

	// Logger receives request-level debug logging. Defaults to the standard
	// logrus logger.
	Logger logrus.FieldLogger
}

// Client resolves signing keys and accounts against the hosted service API.
// It retries throttled (429) and 5xx responses with capped exponential
// backoff. It implements idsite.KeyResolver and idsite.AccountResolver.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	userAgent  string
	maxRetries int
	httpClient *http.Client
	log        logrus.FieldLogger
}

// New builds a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.APIKeyID == "" || cfg.APIKeySecret == "" {
		return nil, errors.New("API credentials are required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      cfg.APIKeyID,
		keySecret:  cfg.APIKeySecret,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		log:        cfg.Logger,
	}, nil
}

// LookupKey implements idsite.KeyResolver. A 404 means the client id has no
// key; transport and server errors are reported as lookup failures.
func (c *Client) LookupKey(ctx context.Context, clientID string) (*idsite.APIKey, bool, error) {
	var key idsite.APIKey
	status, err := c.get(ctx, c.resolveURL("/apiKeys/"+clientID), &key)
	if err != nil {
		return nil, false, err
	}
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	return &key, true, nil
}

// ResolveAccount implements idsite.AccountResolver.
func (c *Client) ResolveAccount(ctx context.Context, href string) (*idsite.Account, error) {
	var account idsite.Account
	status, err := c.get(ctx, c.resolveURL(href), &account)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("account %q not found", href)
	}
	return &account, nil
}

// get fetches a resource as JSON. It returns the final status code for 2xx
// and 404 responses and an error for everything else.
func (c *Client) get(ctx context.Context, url string, out any) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return 0, err
			}
		}

		status, retryable, err := c.doGet(ctx, url, out)
		if err == nil {
			return status, nil
		}
		lastErr = err
		if !retryable {
			return 0, err
		}
		c.log.WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt + 1,
		}).Warnf("retryable API error: %v", err)
	}
	return 0, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) doGet(ctx context.Context, url string, out any) (status int, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, true, err
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"url":    url,
		"status": resp.StatusCode,
	}).Debug("API request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return 0, true, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	case resp.StatusCode >= 400:
		return 0, false, apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, false, fmt.Errorf("decode response from %s: %w", url, err)
	}
	return resp.StatusCode, false, nil
}

// resolveURL accepts either an absolute href or a path relative to the API
// root, mirroring how resources reference each other.
func (c *Client) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + "/" + strings.TrimLeft(href, "/")
}

// sleepBackoff waits 2^attempt scaled by a jittered ~500ms factor, capped at
// 20s, honoring context cancellation.
func sleepBackoff(ctx context.Context, attempt int) error {
	scale := time.Duration(500+rand.Intn(100)) * time.Millisecond
	delay := scale << uint(attempt)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return fmt.Errorf("API error %d: %s", resp.StatusCode, payload.Message)
	}
	return fmt.Errorf("API error %d", resp.StatusCode)
}
