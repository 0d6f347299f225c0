package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/utils"
)

// NetworkMessage is reported by Messages when the backend was never reached
const NetworkMessage = "Unable to reach the server. Check your connection and try again."

// APIError is a non-2xx response from the backend
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Messages   []string
	ErrorName  string
	Body       []byte
}

func (e *APIError) Error() string {
	msg := http.StatusText(e.StatusCode)
	if len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, "; ")
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return apperrors.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return apperrors.ErrConflict
	case e.StatusCode >= 500:
		return apperrors.ErrInternal
	default:
		return apperrors.ErrInvalidRequest
	}
}

// newAPIError reads {message: string|string[], statusCode, error?}
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status, Body: body}

	var payload struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(UnwrapEnvelope(body), &payload); err != nil {
		return apiErr
	}
	apiErr.ErrorName = payload.Error
	switch msg := payload.Message.(type) {
	case string:
		if msg != "" {
			apiErr.Messages = []string{msg}
		}
	case []any:
		apiErr.Messages = utils.ToStringSlice(msg)
	}
	return apiErr
}

// NetworkError is a request that produced no response: connection failures,
// timeouts and cancellations.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{apperrors.ErrNetwork, e.Err}
}

// Messages returns user-facing messages for err. Validation failures carry one
// message per field; anything without a usable message yields fallback.
func Messages(err error, fallback string) []string {
	var apiErr *APIError
	if apperrors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return apiErr.Messages
	}
	var netErr *NetworkError
	if apperrors.As(err, &netErr) {
		return []string{NetworkMessage}
	}
	return []string{fallback}
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if apperrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
