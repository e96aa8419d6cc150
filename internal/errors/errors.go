// Package errors provides typed domain errors for the ingestion pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates an input validation error (bad URL, bad payload)
	TypeInput Type = "INPUT_ERROR"

	// TypeConfigNotFound indicates the grid configuration fragment was absent
	TypeConfigNotFound Type = "CONFIG_NOT_FOUND"

	// TypeConfigParse indicates the repaired configuration failed to parse
	TypeConfigParse Type = "CONFIG_PARSE_ERROR"

	// TypeSchema indicates the extracted schema lacks a required dimension
	TypeSchema Type = "SCHEMA_ERROR"

	// TypeUpstream indicates a network/HTTP failure against the portal
	TypeUpstream Type = "UPSTREAM_ERROR"

	// TypeCatalog indicates the indicator could not be located in the catalog
	TypeCatalog Type = "CATALOG_MISS"

	// TypeStorage indicates a transaction-level storage failure
	TypeStorage Type = "STORAGE_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType checks if an error (or any error it wraps) is of a specific type
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the domain type of err, or TypeInternal for untyped errors.
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// ConfigNotFound creates a config-not-found error
func ConfigNotFound(message string) *Error {
	return New(TypeConfigNotFound, message)
}

// ConfigParse creates a config parse error
func ConfigParse(message string, cause error) *Error {
	return Wrap(TypeConfigParse, message, cause)
}

// Schema creates a schema error
func Schema(message string) *Error {
	return New(TypeSchema, message)
}

// Upstream creates an upstream request error
func Upstream(message string, cause error) *Error {
	return Wrap(TypeUpstream, message, cause)
}

// CatalogMiss creates a catalog lookup error for an indicator name
func CatalogMiss(name string) *Error {
	return Newf(TypeCatalog, "indicator not in catalog: %s", name)
}

// Storage creates a storage error
func Storage(message string, cause error) *Error {
	return Wrap(TypeStorage, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
