package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidImage     = errors.New("invalid encoded image")
	ErrTooManyImages    = errors.New("too many images")
	ErrNoImagesUploaded = errors.New("no images were uploaded")
	ErrSubmitInProgress = errors.New("submission already in progress")

	// ErrConfiguration is fatal and never retried.
	ErrConfiguration      = errors.New("storage is not configured")
	ErrMissingCredential  = configError("storage credential is missing")
	ErrCredentialRejected = configError("storage credential was rejected")
)

type configErr struct {
	msg string
}

func configError(msg string) error {
	return configErr{msg}
}

func (e configErr) Error() string {
	return e.msg
}

func (e configErr) Is(target error) bool {
	return target == ErrConfiguration
}

type FieldError struct {
	Field   string
	Message string
}

// A ValidationError collects every failed field of a record.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{field, msg})
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
