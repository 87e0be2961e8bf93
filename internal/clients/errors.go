// internal/clients/errors.go
package clients

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrMissingCredentials = errors.New("missing API credentials")
	ErrNotFound           = errors.New("remote resource not found")
)

// APIError is a non-2xx answer from a remote service.
type APIError struct {
	Service string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status code: %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Service, e.Message, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// errorMessage pulls the human-readable message out of the error payloads
// of the three remote APIs.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error_description", "errors.0.detail", "message", "error"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
