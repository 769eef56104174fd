// Package domain defines the error taxonomy shared by repositories, services
// and handlers. Handlers translate these types into HTTP statuses; the
// other layers only construct and wrap them.
package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

// ConflictError signals a uniqueness violation or dependent records that
// block the operation.
type ConflictError struct {
	Resource string
	Msg      string
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	}
	return "conflict"
}

// NotFoundError is returned when no record exists for an id.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// AuthError covers bad credentials and missing/invalid/expired tokens.
type AuthError struct {
	Msg string
}

func (e AuthError) Error() string {
	if e.Msg == "" {
		return "unauthorized"
	}
	return e.Msg
}

// ForbiddenError is returned when the caller does not own the record.
type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

// InternalError wraps a storage or infrastructure failure. Its message is
// never shown to API consumers.
type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target AuthError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

// Invalid is shorthand for a ValidationError on one field.
func Invalid(field, msg string) error {
	return ValidationError{Field: field, Msg: msg}
}
