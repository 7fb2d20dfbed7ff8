// Package errors defines the error taxonomy shared by the reference engine,
// the project service and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
)

// Reference resolution failures.
var (
	// ErrUnknownBook indicates no book alias matched the leading book token.
	ErrUnknownBook = errors.New("unknown book")
	// ErrMalformedRange indicates the chapter/verse remainder has an unrecognized shape.
	ErrMalformedRange = errors.New("malformed range")
	// ErrVerseOutOfRange indicates a chapter or verse number outside the book metadata.
	ErrVerseOutOfRange = errors.New("verse out of range")
	// ErrNotRendered indicates a verse has no coordinates on the rendered page.
	ErrNotRendered = errors.New("verse not rendered")
	// ErrNoReferencesResolved indicates a submission produced zero verses.
	ErrNoReferencesResolved = errors.New("no references resolved")
)

// Generic failures.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Kind names a reference failure class for reporting.
type Kind string

const (
	KindUnknownBook    Kind = "unknown_book"
	KindMalformedRange Kind = "malformed_range"
	KindOutOfRange     Kind = "verse_out_of_range"
)

// ReferenceError describes why one candidate line could not be resolved.
type ReferenceError struct {
	Source  int    // zero-based input source (0 = uploaded file, 1 = pasted text)
	Line    int    // 1-based line within the source
	Text    string // candidate text verbatim
	Message string
	Err     error // one of the reference sentinels
}

func (e *ReferenceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Message)
	}
	return fmt.Sprintf("%q: %s", e.Text, e.Message)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// Kind reports the failure class of the wrapped sentinel.
func (e *ReferenceError) Kind() Kind {
	switch {
	case errors.Is(e.Err, ErrUnknownBook):
		return KindUnknownBook
	case errors.Is(e.Err, ErrVerseOutOfRange):
		return KindOutOfRange
	default:
		return KindMalformedRange
	}
}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string // e.g. "project", "image"
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents a rejected request field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents a failed filesystem or storage operation.
type IOError struct {
	Operation string // "read", "write", "open", ...
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ConfigError reports inconsistent static data, such as book metadata or
// alias tables. These are fatal at startup.
type ConfigError struct {
	Source  string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("invalid %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewReference creates a ReferenceError for a single candidate.
func NewReference(sentinel error, text, format string, args ...any) *ReferenceError {
	return &ReferenceError{
		Text:    text,
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewConfig creates a ConfigError
func NewConfig(source, format string, args ...any) *ConfigError {
	return &ConfigError{Source: source, Message: fmt.Sprintf(format, args...)}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join wraps errors.Join for convenience
func Join(errs ...error) error {
	return errors.Join(errs...)
}
