package ai

import (
	"errors"
	"fmt"
)

// Classified completion failures. Both carry the same generic remediation
// because remote error payloads are not pattern-matched.
var (
	ErrAuthentication = errors.New("completion API rejected the request: check your API key")
	ErrTransport      = errors.New("completion API unreachable: check your API key")
)

// CompletionError wraps a failed completion call with its classification.
// Response bodies are never part of the message; they only go to the log.
type CompletionError struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf names the classification of err for diagnostics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unclassified"
	}
}

func authenticationError(status int) error {
	return &CompletionError{Kind: ErrAuthentication, StatusCode: status, Err: fmt.Errorf("unexpected status %d", status)}
}

func transportError(err error) error {
	return &CompletionError{Kind: ErrTransport, Err: err}
}
