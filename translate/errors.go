package translate

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failed translator call. The kind decides whether a
// chunk gets its single retry.
type ErrorKind string

const (
	// KindRateLimited: the provider returned 429.
	KindRateLimited ErrorKind = "rate-limited"
	// KindTimeout: the call exceeded its deadline.
	KindTimeout ErrorKind = "timeout"
	// KindServer: the provider returned a 5xx response.
	KindServer ErrorKind = "server"
	// KindAuth: the provider rejected the credentials (401/403).
	KindAuth ErrorKind = "auth"
	// KindMalformedResponse: the response could not be decoded, or the
	// returned key set does not match the request.
	KindMalformedResponse ErrorKind = "malformed-response"
	// KindUnknown: anything else.
	KindUnknown ErrorKind = "unknown"
)

// Transient reports whether a failure of this kind is worth one retry.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindServer:
		return true
	}
	return false
}

// Error is a classified translator failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	// RetryAfter is the provider-suggested wait from a 429 body, when known.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from any error produced by this package.
// Errors without a kind are KindUnknown.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// KeyNotFoundError reports a requested key that does not exist in the
// catalog. It aborts the whole request before any translation work.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found in catalog", e.Key)
}

// ErrConfig marks invalid engine configuration (chunk size, concurrency,
// rate delay, temperature). Configuration errors abort before dispatch.
var ErrConfig = errors.New("invalid configuration")
