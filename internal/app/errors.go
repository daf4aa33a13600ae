package app

import (
	"errors"
	"fmt"

	"github.com/stoop-politics/stoop/internal/ports"
)

var (
	ErrNotFound = ports.ErrNotFound
	ErrConflict = ports.ErrConflict
)

var (
	// ErrBanned : l'email est bloqué, aucune mutation n'est faite.
	ErrBanned             = errors.New("email blocked")
	ErrRateLimited        = errors.New("rate limited")
	ErrEmailNotConfigured = errors.New("email service not configured")
	ErrAllSendsFailed     = errors.New("all emails failed")
)

// ValidationError signale une entrée invalide (HTTP 400).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// CodedError permet aux executors de renvoyer un code d'erreur stable,
// persisté dans Job.errorCode.
//
// Exemples de codes: invalid_params, not_configured, all_failed, store_error.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CodedError) Unwrap() error { return e.Err }
