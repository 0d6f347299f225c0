package errors

import (
	"errors"
	"fmt"
)

// Common error types for the admin client
var (
	// Transport errors
	ErrNetwork = errors.New("network failure")

	// Authentication errors
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrRefreshFailed       = errors.New("refresh failed")
	ErrNoRefreshCredential = errors.New("no refresh credential")
	ErrUnpairedCredentials = errors.New("access and refresh credentials must be set together")

	// Tenant errors
	ErrNoCurrentCompany = errors.New("no current company")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
