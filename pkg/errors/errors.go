// Package errors provides the error taxonomy shared by the training and
// inference pipelines. It is built on cockroachdb/errors so that every error
// carries a stack trace, and every structured type knows how to marshal
// itself into a zerolog event.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Lifecycle errors
//
// ===========================================================================

// NotFittedError is returned when Transform is invoked on a preprocessor
// whose Fit has never been called.
type NotFittedError struct {
	Component string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("obesity: %s: not fitted yet. Call Fit() before using %s()", e.Component, e.Method)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("component", e.Component).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(component, method string) error {
	err := &NotFittedError{Component: component, Method: method}
	return errors.WithStack(err)
}

// NotTrainedError is returned when Predict or Save is invoked on a trainer
// whose Train has never been called.
type NotTrainedError struct {
	ModelName string
	Method    string
}

func (e *NotTrainedError) Error() string {
	return fmt.Sprintf("obesity: %s: model is not trained yet. Call Train() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotTrainedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotTrainedError")
}

// NewNotTrainedError creates a NotTrainedError with a stack trace attached.
func NewNotTrainedError(modelName, method string) error {
	err := &NotTrainedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Schema and validation errors
//
// ===========================================================================

// SchemaError reports missing or malformed columns in a table, or invalid
// fields in an inbound record. Fields lists every offending column or field
// so a single error covers the whole record.
type SchemaError struct {
	Op     string
	Fields []string
	Reason string
}

func (e *SchemaError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("obesity: %s: schema violation on [%s]: %s", e.Op, strings.Join(e.Fields, ", "), e.Reason)
	}
	return fmt.Sprintf("obesity: %s: schema violation: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("fields", e.Fields).
		Str("reason", e.Reason).
		Str("type", "SchemaError")
}

// NewSchemaError creates a SchemaError with a stack trace attached.
func NewSchemaError(op, reason string, fields ...string) error {
	err := &SchemaError{Op: op, Fields: fields, Reason: reason}
	return errors.WithStack(err)
}

// DimensionError is returned when the shape of an input matrix does not
// match what was seen during fitting or training.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("obesity: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Artifact errors
//
// ===========================================================================

// ArtifactNotFoundError is returned when a model or preprocessor file is
// missing at its expected path.
type ArtifactNotFoundError struct {
	Path string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("obesity: artifact not found at %q", e.Path)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ArtifactNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("type", "ArtifactNotFoundError")
}

// NewArtifactNotFoundError creates an ArtifactNotFoundError with a stack
// trace attached.
func NewArtifactNotFoundError(path string) error {
	err := &ArtifactNotFoundError{Path: path}
	return errors.WithStack(err)
}

// CorruptArtifactError is returned when a persisted artifact fails to
// deserialize or decodes into structurally invalid state. Loading never
// partially restores state; callers see either a full artifact or this error.
type CorruptArtifactError struct {
	Path string
	Err  error
}

func (e *CorruptArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("obesity: corrupt artifact at %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("obesity: corrupt artifact at %q", e.Path)
}

func (e *CorruptArtifactError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *CorruptArtifactError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		AnErr("cause", e.Err).
		Str("type", "CorruptArtifactError")
}

// NewCorruptArtifactError creates a CorruptArtifactError with a stack trace
// attached.
func NewCorruptArtifactError(path string, cause error) error {
	err := &CorruptArtifactError{Path: path, Err: cause}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Comparison errors
//
// ===========================================================================

// EmptyTrainerSetError is returned when the comparator is given zero
// trainers to benchmark.
type EmptyTrainerSetError struct{}

func (e *EmptyTrainerSetError) Error() string {
	return "obesity: comparator requires at least one trainer"
}

// NewEmptyTrainerSetError creates an EmptyTrainerSetError with a stack trace
// attached.
func NewEmptyTrainerSetError() error {
	return errors.WithStack(&EmptyTrainerSetError{})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches the target error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// GetReportableStackTrace extracts a printable stack trace from err, if any.
func GetReportableStackTrace(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) > 0 {
		return details[0]
	}
	return ""
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty table or matrix is supplied.
	ErrEmptyData = New("empty data")
)
