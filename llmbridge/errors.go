package llmbridge

import (
	"errors"
	"fmt"
)

// MissingCredentialError is returned when a provider requires an API key and
// the credential provider has none. It is recoverable: the caller is expected
// to prompt for a key and retry.
type MissingCredentialError struct {
	Provider string
}

// Error returns the message key "APIKey.<provider>.Missing". The embedding
// application resolves it to user-facing text; the provider identity rides
// inside the key.
func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("APIKey.%s.Missing", e.Provider)
}

// UnsupportedProviderError is returned for a provider id no adapter exists
// for. This is a configuration or programming error, fatal to the call.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.Provider)
}

// ClientInitError wraps a failure to construct a backend client: malformed
// configuration or an SDK-level rejection. Recoverable by fixing the
// configuration and retrying.
type ClientInitError struct {
	Provider string
	Cause    error
}

func (e *ClientInitError) Error() string {
	return fmt.Sprintf("failed to initialize %s client: %v", e.Provider, e.Cause)
}

func (e *ClientInitError) Unwrap() error { return e.Cause }

// TransportError is a backend stream failure after the client was
// successfully constructed. It propagates to the caller unchanged; only the
// diagnostic sink sees it on the way out.
type TransportError struct {
	Provider   string
	StatusCode int // zero when the failure never produced an HTTP status
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s (status=%d)", e.Provider, e.Message, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Provider, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// statusError builds a TransportError from a non-200 HTTP response.
func statusError(provider string, statusCode int, body []byte) *TransportError {
	return &TransportError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("request failed: %s", string(body)),
	}
}

// IsRetryable reports whether an error is safe to retry. Credential,
// configuration and construction errors never are; transport errors are
// when the status class suggests a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		switch te.StatusCode {
		case 0:
			// Network-level failure with no status; assume transient.
			return true
		case 408, 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}
	return false
}
