package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Class separates errors a different key or model can fix from those it cannot.
type Class int

const (
	ClassFatal Class = iota
	ClassRetryable
)

func (c Class) String() string {
	if c == ClassRetryable {
		return "retryable"
	}
	return "fatal"
}

// Kind names the reason behind a provider failure.
type Kind string

const (
	KindRateLimit   Kind = "rate_limit"
	KindQuota       Kind = "quota"
	KindAuth        Kind = "auth"
	KindTimeout     Kind = "timeout"
	KindUnavailable Kind = "unavailable"
	KindSafety      Kind = "safety"
	KindBadRequest  Kind = "bad_request"
	KindUnknown     Kind = "unknown"
)

// ProviderError is produced by provider adapters. The gateway never looks at
// raw message text, only at Class.
type ProviderError struct {
	Class    Class
	Kind     Kind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s error (%s): %v", e.Provider, e.Class, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewRetryable(provider string, kind Kind, err error) error {
	return &ProviderError{Class: ClassRetryable, Kind: kind, Provider: provider, Err: err}
}

func NewFatal(provider string, kind Kind, err error) error {
	return &ProviderError{Class: ClassFatal, Kind: kind, Provider: provider, Err: err}
}

// IsRetryable reports whether err is a provider error another credential,
// model or tier may succeed on. Untyped errors are not retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Class == ClassRetryable
}

// IsFatal reports whether err is a classified non-retryable provider error.
func IsFatal(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Class == ClassFatal
}

// retryableSignatures is the vocabulary providers use in error bodies for
// quota, rate and key problems.
var retryableSignatures = []struct {
	needle string
	kind   Kind
}{
	{"resource_exhausted", KindQuota},
	{"quota", KindQuota},
	{"exceeded", KindQuota},
	{"rate limit", KindRateLimit},
	{"rate_limit", KindRateLimit},
	{"too many requests", KindRateLimit},
	{"limit", KindRateLimit},
	{"api key not valid", KindAuth},
	{"api_key_invalid", KindAuth},
	{"invalid api key", KindAuth},
	{"invalid key", KindAuth},
	{"permission_denied", KindAuth},
	{"unauthenticated", KindAuth},
}

var safetySignatures = []string{"safety", "blocked", "prohibited_content", "recitation"}

// ClassifyStatus maps an HTTP status and response body to a ProviderError.
// This is the single place where provider error text is inspected.
func ClassifyStatus(provider string, status int, body string) error {
	err := fmt.Errorf("status %d: %s", status, body)
	lower := strings.ToLower(body)

	switch {
	case status == http.StatusTooManyRequests:
		if strings.Contains(lower, "quota") {
			return NewRetryable(provider, KindQuota, err)
		}
		return NewRetryable(provider, KindRateLimit, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewRetryable(provider, KindAuth, err)
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return NewRetryable(provider, KindUnavailable, err)
	}

	for _, s := range safetySignatures {
		if strings.Contains(lower, s) {
			return NewFatal(provider, KindSafety, err)
		}
	}
	for _, s := range retryableSignatures {
		if strings.Contains(lower, s.needle) {
			return NewRetryable(provider, s.kind, err)
		}
	}

	if status >= 400 && status < 500 {
		return NewFatal(provider, KindBadRequest, err)
	}
	return NewFatal(provider, KindUnknown, err)
}

// ClassifyTransport wraps a failure that happened before any HTTP status was
// received. Timeouts rotate; caller cancellation does not.
func ClassifyTransport(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return NewFatal(provider, KindUnknown, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewRetryable(provider, KindTimeout, err)
	}
	return NewRetryable(provider, KindUnavailable, err)
}
