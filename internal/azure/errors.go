package azure

import (
	"errors"
	"fmt"

	"github.com/mshnjffr/azure-openai/internal/retry"
)

// APIError is a non-2xx response from the service, surfaced after the
// transport has already exhausted any retries it was entitled to.
// Callers branch on Kind rather than parsing the message.
type APIError struct {
	StatusCode int
	Kind       retry.Kind
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("azure openai: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("azure openai: %s (status %d)", e.Message, e.StatusCode)
}

// ErrorKind extracts the retry.Kind from err. Transport-level failures
// that never produced a response classify as transient; nil errors as
// KindNone.
func ErrorKind(err error) retry.Kind {
	if err == nil {
		return retry.KindNone
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return retry.ClassifyErr(err)
}
