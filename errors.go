package postgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors.
var (
	// ErrInvalidSchema is returned when a schema can not be built from an inventory.
	ErrInvalidSchema = errors.New("postgraph: invalid schema")

	// ErrDuplicateField is returned when an object type already declares a field with the same name.
	ErrDuplicateField = errors.New("postgraph: duplicate field")

	// ErrInvalidPaginator is returned when a paginator can not back the requested field.
	ErrInvalidPaginator = errors.New("postgraph: invalid paginator")

	// ErrCursorMismatch is returned when a cursor was produced by another ordering.
	ErrCursorMismatch = errors.New("postgraph: cursor does not match ordering")

	// ErrMalformedCursor is returned when a cursor token can not be decoded.
	ErrMalformedCursor = errors.New("postgraph: malformed cursor")

	// ErrInvalidArgument is returned when a field argument has the wrong shape.
	ErrInvalidArgument = errors.New("postgraph: invalid argument")

	// ErrInvalidNodeID is returned when a global node id can not be resolved.
	ErrInvalidNodeID = errors.New("postgraph: invalid node id")

	// ErrNotFound is returned when a keyed row does not exist.
	ErrNotFound = errors.New("postgraph: row not found")

	// ErrInvariant is returned when a collaborator breaks an internal contract.
	ErrInvariant = errors.New("postgraph: invariant violated")
)

// SchemaError describes a build-time failure.
type SchemaError struct {
	Type    string // Name of the offending type
	Field   string // Optional field name
	Message string
	Cause   error
}

// Error returns the error string.
func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("postgraph: schema")
	if e.Type != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Type)
		if e.Field != "" {
			sb.WriteString(".")
			sb.WriteString(e.Field)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Is reports whether the target error matches SchemaError.
// This allows errors.Is(schemaErr, ErrInvalidSchema) to return true.
func (e *SchemaError) Is(err error) bool {
	return err == ErrInvalidSchema
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// NewSchemaError returns a new SchemaError for the given type.
func NewSchemaError(typ, message string) *SchemaError {
	return &SchemaError{Type: typ, Message: message}
}

// IsSchemaError returns true if the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidSchema)
}

// CursorError represents a cursor token that could not be decoded.
type CursorError struct {
	Cursor string // The raw token
	Err    error  // Optional decoding error
}

// Error returns the error string.
func (e *CursorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("postgraph: malformed cursor %q: %v", e.Cursor, e.Err)
	}
	return fmt.Sprintf("postgraph: malformed cursor %q", e.Cursor)
}

// Is reports whether the target error matches CursorError.
func (e *CursorError) Is(err error) bool {
	return err == ErrMalformedCursor
}

// Unwrap returns the underlying error.
func (e *CursorError) Unwrap() error {
	return e.Err
}

// NewCursorError returns a new CursorError.
func NewCursorError(cursor string, err error) *CursorError {
	return &CursorError{Cursor: cursor, Err: err}
}

// IsCursorError returns true if the error is a CursorError.
func IsCursorError(err error) bool {
	if err == nil {
		return false
	}
	var e *CursorError
	return errors.As(err, &e) || errors.Is(err, ErrMalformedCursor)
}

// CursorMismatchError is returned when a `before` or `after` cursor was
// produced by a different ordering than the one selected.
type CursorMismatchError struct {
	Arg string // "before" or "after"
}

// Error returns the error string. The message is part of the public API.
func (e *CursorMismatchError) Error() string {
	return fmt.Sprintf("`%s` cursor can not be used for this `orderBy` value.", e.Arg)
}

// Is reports whether the target error matches CursorMismatchError.
func (e *CursorMismatchError) Is(err error) bool {
	return err == ErrCursorMismatch
}

// NewCursorMismatchError returns a new CursorMismatchError for the argument.
func NewCursorMismatchError(arg string) *CursorMismatchError {
	return &CursorMismatchError{Arg: arg}
}

// ArgumentError represents a field argument with an invalid value.
type ArgumentError struct {
	Name    string // Argument name
	Message string
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("postgraph: argument %q %s", e.Name, e.Message)
}

// Is reports whether the target error matches ArgumentError.
func (e *ArgumentError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// NewArgumentError returns a new ArgumentError.
func NewArgumentError(name, message string) *ArgumentError {
	return &ArgumentError{Name: name, Message: message}
}

// NotFoundError represents a keyed row that does not exist.
type NotFoundError struct {
	label string
	key   any // Optional: the key that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.key != nil {
		return fmt.Sprintf("postgraph: %s not found (key=%v)", e.label, e.key)
	}
	return fmt.Sprintf("postgraph: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the collection label.
func (e *NotFoundError) Label() string {
	return e.label
}

// Key returns the key that was searched for, if available.
func (e *NotFoundError) Key() any {
	return e.key
}

// NewNotFoundError returns a new NotFoundError with the key that was searched for.
func NewNotFoundError(label string, key any) *NotFoundError {
	return &NotFoundError{label: label, key: key}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// InvariantError signals a collaborator bug, e.g. a resolver running without
// a request context. It is returned, never panicked.
type InvariantError struct {
	Message string
}

// Error returns the error string.
func (e *InvariantError) Error() string {
	return "postgraph: invariant violated: " + e.Message
}

// Is reports whether the target error matches InvariantError.
func (e *InvariantError) Is(err error) bool {
	return err == ErrInvariant
}

// NewInvariantError returns a new InvariantError.
func NewInvariantError(format string, args ...any) *InvariantError {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// IsInvariantError returns true if the error is an InvariantError.
func IsInvariantError(err error) bool {
	if err == nil {
		return false
	}
	var e *InvariantError
	return errors.As(err, &e) || errors.Is(err, ErrInvariant)
}

// RangeError is returned when a range literal does not match the range grammar.
type RangeError struct {
	Literal string
}

// Error returns the error string.
func (e *RangeError) Error() string {
	return fmt.Sprintf("postgraph: failed to parse range literal %q", e.Literal)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("postgraph: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during a schema build.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "postgraph: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("postgraph: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a storage error with the collection and operation that
// issued it. The wrapped error stays reachable through errors.Is and errors.As.
type QueryError struct {
	Entity string // Collection or procedure being queried
	Op     string // Operation (e.g., "page", "count", "read", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("postgraph: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("postgraph: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}
