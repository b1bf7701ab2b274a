// Package apperr defines the error taxonomy shared by every request path.
//
// Each failure is tagged with a Category that decides the HTTP status and the
// `error` string of the JSON failure body. Wrapped causes stay reachable via
// errors.Is and errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies a failure
type Category string

const (
	CategoryValidation       Category = "validation_error"
	CategoryUnsupportedMedia Category = "unsupported_media_type"
	CategoryUpstreamFetch    Category = "upstream_fetch_error"
	CategoryUpstreamTimeout  Category = "upstream_timeout"
	CategoryConfiguration    Category = "configuration_error"
	CategorySync             Category = "sync_failure"
	CategoryNotFound         Category = "not_found"
	CategoryUnauthorized     Category = "unauthorized"
	CategoryForbidden        Category = "forbidden"
	CategoryInternal         Category = "internal_error"
)

// HTTPStatus maps a category to its response status
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case CategoryUpstreamFetch:
		return http.StatusBadGateway
	case CategoryUpstreamTimeout:
		return http.StatusGatewayTimeout
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorized failure
type Error struct {
	Category Category
	Message  string
	Err      error
}

// New creates a categorized error
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Newf creates a categorized error with a formatted message
func Newf(category Category, format string, args ...interface{}) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a category and message to cause
func Wrap(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation is shorthand for a validation error
func Validation(format string, args ...interface{}) *Error {
	return Newf(CategoryValidation, format, args...)
}

// Configuration is shorthand for a configuration error
func Configuration(format string, args ...interface{}) *Error {
	return Newf(CategoryConfiguration, format, args...)
}

// CategoryOf returns the category of err, or CategoryInternal when err
// carries none
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

// Is reports whether err carries the given category
func Is(err error, category Category) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == category
}
