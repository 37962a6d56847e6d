package idsite

import "fmt"

// ErrorCode represents redirect/callback error categories.
type ErrorCode string

const (
	ErrCodeMalformedCallback     ErrorCode = "malformed_callback"
	ErrCodeMalformedToken        ErrorCode = "malformed_token"
	ErrCodeMissingAudience       ErrorCode = "missing_audience"
	ErrCodeUnknownSigner         ErrorCode = "unknown_signer"
	ErrCodeKeyResolutionFailed   ErrorCode = "key_resolution_failed"
	ErrCodeBadSignature          ErrorCode = "bad_signature"
	ErrCodeExpired               ErrorCode = "token_expired"
	ErrCodeMissingClaim          ErrorCode = "missing_claim"
	ErrCodeReplayed              ErrorCode = "token_replayed"
	ErrCodeNonceStoreUnavailable ErrorCode = "nonce_store_unavailable"
	ErrCodeAccountResolution     ErrorCode = "account_resolution_failed"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeMalformedCallback:     "Malformed callback URL",
	ErrCodeMalformedToken:        "Malformed token",
	ErrCodeMissingAudience:       "Missing audience claim",
	ErrCodeUnknownSigner:         "Unknown signer",
	ErrCodeKeyResolutionFailed:   "Key resolution failed",
	ErrCodeBadSignature:          "Bad signature",
	ErrCodeExpired:               "Token expired",
	ErrCodeMissingClaim:          "Missing required claim",
	ErrCodeReplayed:              "Token already used",
	ErrCodeNonceStoreUnavailable: "Nonce store unavailable",
	ErrCodeAccountResolution:     "Account resolution failed",
}

// Error wraps redirect/callback errors with a stable code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}
