package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
)

// Specific errors.
var (
	ErrUnknownCRS        = fmt.Errorf("crs: %w", ErrNotFound)
	ErrInvalidCoordinate = fmt.Errorf("coordinate: %w", ErrInvalidInput)
	ErrInvalidSRID       = fmt.Errorf("srid: %w", ErrInvalidInput)
	ErrInvalidDefinition = fmt.Errorf("crs definition: %w", ErrInvalidInput)
)

// Kind classifies an engine error. Every Kind is itself an error, so callers
// can test for it with errors.Is(err, domain.PoleProjection).
type Kind int

// Construction-time validation errors.
const (
	MissingParameter Kind = iota + 1
	UnknownParameter
	LatitudeOutOfRange
	LongitudeOutOfRange
	ParameterOutOfRange
	IllegalArgument
	IllegalCsDimension
	ColinearAxis
	BursaWolfParametersRequired
	NonAngularUnit
	NonLinearUnit
)

// Path-resolution errors.
const (
	NoTransformationPath Kind = iota + 100
	NoTransformForClassification
	MismatchedDimension
	IllegalMismatchedDimension
	CantReduceToTwoDimensions
)

// Runtime numeric errors.
const (
	AngleOverflow Kind = iota + 200
	AntipodeLatitudes
	PoleProjection
	NoConvergence
	NonInvertibleTransform
	MatrixNotRegular
	NotAnAffineTransform
	NonFiniteCoordinate
)

var kindNames = map[Kind]string{
	MissingParameter:             "MissingParameter",
	UnknownParameter:             "UnknownParameter",
	LatitudeOutOfRange:           "LatitudeOutOfRange",
	LongitudeOutOfRange:          "LongitudeOutOfRange",
	ParameterOutOfRange:          "ParameterOutOfRange",
	IllegalArgument:              "IllegalArgument",
	IllegalCsDimension:           "IllegalCsDimension",
	ColinearAxis:                 "ColinearAxis",
	BursaWolfParametersRequired:  "BursaWolfParametersRequired",
	NonAngularUnit:               "NonAngularUnit",
	NonLinearUnit:                "NonLinearUnit",
	NoTransformationPath:         "NoTransformationPath",
	NoTransformForClassification: "NoTransformForClassification",
	MismatchedDimension:          "MismatchedDimension",
	IllegalMismatchedDimension:   "IllegalMismatchedDimension",
	CantReduceToTwoDimensions:    "CantReduceToTwoDimensions",
	AngleOverflow:                "AngleOverflow",
	AntipodeLatitudes:            "AntipodeLatitudes",
	PoleProjection:               "PoleProjection",
	NoConvergence:                "NoConvergence",
	NonInvertibleTransform:       "NonInvertibleTransform",
	MatrixNotRegular:             "MatrixNotRegular",
	NotAnAffineTransform:         "NotAnAffineTransform",
	NonFiniteCoordinate:          "NonFiniteCoordinate",
}

// String returns the stable identifier of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error implements the error interface.
func (k Kind) Error() string {
	return k.String()
}

// Category returns the base sentinel error the kind belongs to.
func (k Kind) Category() error {
	switch {
	case k == NoConvergence || k == MatrixNotRegular:
		return ErrInternal
	case k >= NoTransformationPath && k < AngleOverflow:
		return ErrUnsupported
	default:
		return ErrInvalidInput
	}
}

// Templates maps each Kind to a fmt template. A Templates value is the
// formatting context handed to Error.Format; there is no global locale.
type Templates map[Kind]string

var defaultTemplates = Templates{
	MissingParameter:             "missing parameter %q",
	UnknownParameter:             "parameter %q is not known to %q",
	LatitudeOutOfRange:           "latitude %v is out of range [-90°, 90°]",
	LongitudeOutOfRange:          "longitude %v is out of range [-180°, 180°]",
	ParameterOutOfRange:          "parameter %q has illegal value %v",
	IllegalArgument:              "illegal argument %q: %v",
	IllegalCsDimension:           "coordinate system %q has illegal dimension %d",
	ColinearAxis:                 "axes %q and %q are colinear",
	BursaWolfParametersRequired:  "datum %q needs Bursa-Wolf parameters to shift to %q",
	NonAngularUnit:               "unit %q is not an angular unit",
	NonLinearUnit:                "unit %q is not a linear unit",
	NoTransformationPath:         "no transformation path from %q to %q",
	NoTransformForClassification: "no transform registered for classification %q",
	MismatchedDimension:          "dimension mismatch: %q has %d dimensions, expected %d",
	IllegalMismatchedDimension:   "cannot concatenate: step %d has target dimension %d but step %d has source dimension %d",
	CantReduceToTwoDimensions:    "cannot reduce %d dimensions of %q to two",
	AngleOverflow:                "angle %v is too large",
	AntipodeLatitudes:            "points (%v, %v) and (%v, %v) are antipodal",
	PoleProjection:               "cannot project latitude %v at a pole",
	NoConvergence:                "no convergence after %d iterations",
	NonInvertibleTransform:       "transform is not invertible",
	MatrixNotRegular:             "matrix is not regular",
	NotAnAffineTransform:         "transform is not affine",
	NonFiniteCoordinate:          "coordinate %v is not finite",
}

// DefaultTemplates returns a copy of the built-in English templates.
func DefaultTemplates() Templates {
	t := make(Templates, len(defaultTemplates))
	for k, v := range defaultTemplates {
		t[k] = v
	}
	return t
}

// Error is an engine error of a given Kind, carrying the template arguments
// and an optional cause.
type Error struct {
	Kind Kind  // Error classification
	Args []any // Template arguments
	Err  error // Underlying error (optional)
}

// NewError creates an error of the given kind.
func NewError(kind Kind, args ...any) *Error {
	return &Error{Kind: kind, Args: args}
}

// WrapError creates an error of the given kind caused by err.
func WrapError(kind Kind, err error, args ...any) *Error {
	return &Error{Kind: kind, Args: args, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Format(defaultTemplates)
}

// Format renders the error with the given templates, falling back to the
// kind name when a template is missing.
func (e *Error) Format(t Templates) string {
	var b strings.Builder
	if tmpl, ok := t[e.Kind]; ok {
		b.WriteString(fmt.Sprintf(tmpl, e.Args...))
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the kind, its category and the cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind, e.Kind.Category()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the first Kind found in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return 0, false
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}

// DefinitionError represents an invalid CRS definition.
type DefinitionError struct {
	Code int   // CRS code of the definition
	Err  error // Underlying error
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition of crs %d: %v", e.Code, e.Err)
}

// Unwrap returns the underlying errors.
func (e *DefinitionError) Unwrap() []error {
	return []error{ErrInvalidDefinition, e.Err}
}
