/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists is returned when inserting a document whose id is taken within its partition
	ErrAlreadyExists = errors.New("document already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingIdentifier is returned when a write or read is attempted without an id or partition key
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrMalformedPredicate is returned when a clause is rendered before it is fully specified
	ErrMalformedPredicate = errors.New("malformed predicate")

	// ErrAmbiguousComposition is returned when a disjunction is given both a pair and a list
	ErrAmbiguousComposition = errors.New("must have either a pair or a list, but not both")

	// ErrPaginationConflict is returned when top and paginate are combined
	ErrPaginationConflict = errors.New("pagination conflict")

	// ErrParameterMismatch is returned when bound parameters do not match the query text
	ErrParameterMismatch = errors.New("parameter mismatch")

	// ErrStorageUnavailable is returned when provisioning or a client call fails
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUnsupportedQuery is returned when a backend cannot express a query construct
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// NotFoundError represents an error when a document is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a document already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MissingIdentifierError is raised before any store call when a record lacks its id or partition key.
type MissingIdentifierError struct {
	Operation string
	Field     string
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("%s: record must contain a string %q", e.Operation, e.Field)
}

func (e *MissingIdentifierError) Is(target error) bool {
	return target == ErrMissingIdentifier
}

// MalformedPredicateError describes a clause that cannot be rendered.
type MalformedPredicateError struct {
	Clause string
	Reason string
}

func (e *MalformedPredicateError) Error() string {
	if e.Clause != "" {
		return fmt.Sprintf("malformed predicate on %q: %s", e.Clause, e.Reason)
	}
	return fmt.Sprintf("malformed predicate: %s", e.Reason)
}

func (e *MalformedPredicateError) Is(target error) bool {
	return target == ErrMalformedPredicate
}

// PaginationConflictError is raised when a row limit is requested in two incompatible ways.
type PaginationConflictError struct {
	Existing  string
	Attempted string
}

func (e *PaginationConflictError) Error() string {
	return fmt.Sprintf("pagination error: cannot add %s if %s already set", e.Attempted, e.Existing)
}

func (e *PaginationConflictError) Is(target error) bool {
	return target == ErrPaginationConflict
}

// ParameterMismatchError lists the tokens that break the one-to-one mapping
// between placeholders in the query text and bound parameters.
type ParameterMismatchError struct {
	Missing   []string
	Extra     []string
	Duplicate []string
}

func (e *ParameterMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing parameters: key:value map associated with %q", strings.Join(e.Missing, ",")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("extra key:values: %q not found in query", strings.Join(e.Extra, ",")))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, fmt.Sprintf("parameters bound more than once: %q", strings.Join(e.Duplicate, ",")))
	}
	return strings.Join(parts, "; ")
}

func (e *ParameterMismatchError) Is(target error) bool {
	return target == ErrParameterMismatch
}

// StorageError wraps a failure reported by the underlying document-store client.
type StorageError struct {
	Operation string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// UnsupportedQueryError names a query construct a backend cannot execute.
type UnsupportedQueryError struct {
	Construct string
}

func (e *UnsupportedQueryError) Error() string {
	return fmt.Sprintf("unsupported query construct: %s", e.Construct)
}

func (e *UnsupportedQueryError) Is(target error) bool {
	return target == ErrUnsupportedQuery
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewMissingIdentifierError creates a new MissingIdentifierError
func NewMissingIdentifierError(operation, field string) error {
	return &MissingIdentifierError{Operation: operation, Field: field}
}

// NewMalformedPredicateError creates a new MalformedPredicateError
func NewMalformedPredicateError(clause, reason string) error {
	return &MalformedPredicateError{Clause: clause, Reason: reason}
}

// NewPaginationConflictError creates a new PaginationConflictError
func NewPaginationConflictError(existing, attempted string) error {
	return &PaginationConflictError{Existing: existing, Attempted: attempted}
}

// NewStorageError wraps err as a StorageError. Not-found and already-exists
// errors are domain outcomes rather than outages and are returned unchanged.
func NewStorageError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsAlreadyExists(err) {
		return err
	}
	return &StorageError{Operation: operation, Err: err}
}

// NewUnsupportedQueryError creates a new UnsupportedQueryError
func NewUnsupportedQueryError(construct string) error {
	return &UnsupportedQueryError{Construct: construct}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMissingIdentifier checks if an error is a missing identifier error
func IsMissingIdentifier(err error) bool {
	return errors.Is(err, ErrMissingIdentifier)
}

// IsMalformedPredicate checks if an error is a malformed predicate error
func IsMalformedPredicate(err error) bool {
	return errors.Is(err, ErrMalformedPredicate)
}

// IsAmbiguousComposition checks if an error is an ambiguous composition error
func IsAmbiguousComposition(err error) bool {
	return errors.Is(err, ErrAmbiguousComposition)
}

// IsPaginationConflict checks if an error is a pagination conflict
func IsPaginationConflict(err error) bool {
	return errors.Is(err, ErrPaginationConflict)
}

// IsParameterMismatch checks if an error is a parameter mismatch
func IsParameterMismatch(err error) bool {
	return errors.Is(err, ErrParameterMismatch)
}

// IsStorageUnavailable checks if an error came from a failing store call
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsUnsupportedQuery checks if an error is an unsupported query error
func IsUnsupportedQuery(err error) bool {
	return errors.Is(err, ErrUnsupportedQuery)
}
