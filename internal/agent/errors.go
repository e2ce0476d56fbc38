package agent

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

var (
	// ErrInvalidInput is returned for an empty user message.
	ErrInvalidInput = errors.New("agent: message is required")

	// ErrProviderRateLimited means the model API rejected the call with 429.
	ErrProviderRateLimited = errors.New("agent: provider rate limited")

	// ErrProviderOverloaded means the model API answered 503.
	ErrProviderOverloaded = errors.New("agent: provider overloaded")

	// ErrProviderUnavailable covers every other failure of the model call.
	ErrProviderUnavailable = errors.New("agent: provider unavailable")
)

// ProviderError wraps a failed model call with its classification.
// errors.Is matches both Kind and the underlying error.
type ProviderError struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func classifyProviderError(err error) *ProviderError {
	code, status := apiErrorStatus(err)

	kind := ErrProviderUnavailable
	switch {
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		kind = ErrProviderRateLimited
	case code == http.StatusServiceUnavailable || status == "UNAVAILABLE":
		kind = ErrProviderOverloaded
	}

	return &ProviderError{Kind: kind, StatusCode: code, Err: err}
}

// apiErrorStatus finds a genai.APIError in err's chain.
func apiErrorStatus(err error) (int, string) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := any(e).(type) {
		case genai.APIError:
			return v.Code, v.Status
		case *genai.APIError:
			if v != nil {
				return v.Code, v.Status
			}
		}
	}
	return 0, ""
}
