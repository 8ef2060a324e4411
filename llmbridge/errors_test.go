package llmbridge

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMissingCredentialErrorIsMessageKey(t *testing.T) {
	err := &MissingCredentialError{Provider: "anthropic"}
	if err.Error() != "APIKey.anthropic.Missing" {
		t.Errorf("Error() = %q", err.Error())
	}

	// The key shape holds even for providers nothing knows about.
	err = &MissingCredentialError{Provider: "X"}
	if err.Error() != "APIKey.X.Missing" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClientInitErrorUnwraps(t *testing.T) {
	cause := errors.New("bad endpoint")
	err := &ClientInitError{Provider: "ollama", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ClientInitError should unwrap to its cause")
	}

	wrapped := fmt.Errorf("context: %w", err)
	var initErr *ClientInitError
	if !errors.As(wrapped, &initErr) {
		t.Error("ClientInitError not found through wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network failure, no status", &TransportError{Provider: "openai", Message: "dial failed"}, true},
		{"rate limited", &TransportError{Provider: "openai", StatusCode: 429}, true},
		{"server error", &TransportError{Provider: "gemini", StatusCode: 503}, true},
		{"timeout", &TransportError{Provider: "anthropic", StatusCode: 408}, true},
		{"bad request", &TransportError{Provider: "anthropic", StatusCode: 400}, false},
		{"unauthorized", &TransportError{Provider: "openai", StatusCode: 401}, false},
		{"missing credential", &MissingCredentialError{Provider: "openai"}, false},
		{"unsupported provider", &UnsupportedProviderError{Provider: "X"}, false},
		{"init failure", &ClientInitError{Provider: "ollama", Cause: errors.New("x")}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestTransportErrorMessageIncludesStatus(t *testing.T) {
	err := statusError("anthropic", 529, []byte("overloaded"))
	if err.StatusCode != 529 {
		t.Errorf("StatusCode = %d", err.StatusCode)
	}
	if msg := err.Error(); !strings.Contains(msg, "529") || !strings.Contains(msg, "overloaded") {
		t.Errorf("Error() = %q", msg)
	}
}
