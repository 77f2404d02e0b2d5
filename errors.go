package chartpreset

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeMalformed  ErrorType = "malformed"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeMetadata   ErrorType = "metadata"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeInternal   ErrorType = "internal"
)

// PresetError is the structured error returned by preset loading, validation
// and resolution.
type PresetError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Preset  string         `json:"preset,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *PresetError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	switch {
	case e.Preset != "" && e.Field != "":
		return fmt.Sprintf("[%s:%s] preset %s field '%s': %s", e.Type, e.Code, e.Preset, e.Field, msg)
	case e.Preset != "":
		return fmt.Sprintf("[%s:%s] preset %s: %s", e.Type, e.Code, e.Preset, msg)
	case e.Field != "":
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, msg)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, msg)
}

func (e *PresetError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to a PresetError
func (e *PresetError) WithDetail(key string, value any) *PresetError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a PresetError
func (e *PresetError) WithCause(cause error) *PresetError {
	e.Cause = cause
	return e
}

// WithPreset names the preset the error belongs to
func (e *PresetError) WithPreset(name string) *PresetError {
	e.Preset = name
	return e
}

// WithField adds field context to a PresetError
func (e *PresetError) WithField(field string) *PresetError {
	e.Field = field
	return e
}

// Error codes
const (
	ErrCodeMalformedPreset     = "MALFORMED_PRESET"
	ErrCodePresetNotFound      = "PRESET_NOT_FOUND"
	ErrCodePresetInvalid       = "PRESET_INVALID"
	ErrCodeDuplicatePreset     = "DUPLICATE_PRESET"
	ErrCodeInvalidColumnTypes  = "INVALID_COLUMN_TYPES"
	ErrCodeDatasetUnsupported  = "DATASET_UNSUPPORTED"
	ErrCodeProfileFailed       = "PROFILE_FAILED"
	ErrCodeProfilerUnavailable = "PROFILER_UNAVAILABLE"
	ErrCodeProfileTimeout      = "PROFILE_TIMEOUT"
	ErrCodeSourceUnavailable   = "SOURCE_UNAVAILABLE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// NewPresetError creates a new PresetError
func NewPresetError(errorType ErrorType, code, message string) *PresetError {
	return &PresetError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewMalformedPresetError reports a preset document whose shape the engine
// cannot read. These are programmer errors, not data errors.
func NewMalformedPresetError(preset, message string) *PresetError {
	return &PresetError{
		Type:    ErrorTypeMalformed,
		Code:    ErrCodeMalformedPreset,
		Message: message,
		Preset:  preset,
	}
}

// NewPresetNotFoundError creates a preset not found error
func NewPresetNotFoundError(name string) *PresetError {
	return &PresetError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodePresetNotFound,
		Message: fmt.Sprintf("preset '%s' not found", name),
		Details: map[string]any{
			"preset_name": name,
		},
	}
}

// NewPresetValidationError reports a preset rejected by schema validation
func NewPresetValidationError(preset string, cause error) *PresetError {
	return &PresetError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodePresetInvalid,
		Message: "preset failed validation",
		Preset:  preset,
		Cause:   cause,
	}
}

// NewInvalidColumnTypesError reports missing or malformed column metadata
func NewInvalidColumnTypesError(message string) *PresetError {
	return &PresetError{
		Type:    ErrorTypeMalformed,
		Code:    ErrCodeInvalidColumnTypes,
		Message: message,
	}
}

// NewMetadataError reports a failure while profiling a dataset
func NewMetadataError(code, dataset, message string, cause error) *PresetError {
	return &PresetError{
		Type:    ErrorTypeMetadata,
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: map[string]any{
			"dataset": dataset,
		},
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *PresetError {
	return &PresetError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// ValidationErrors
// ============================================================================

// ValidationErrors collects per-preset errors found while loading a source
type ValidationErrors struct {
	Errors []*PresetError `json:"errors"`
}

// Error implements the error interface for ValidationErrors
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "no validation errors"
	}
	if len(ve.Errors) == 1 {
		return ve.Errors[0].Error()
	}
	return fmt.Sprintf("multiple validation errors: %d errors found, first: %s", len(ve.Errors), ve.Errors[0].Error())
}

// Add adds a new error to the collection
func (ve *ValidationErrors) Add(err *PresetError) {
	ve.Errors = append(ve.Errors, err)
}

// HasErrors returns true if there are any errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToError returns the ValidationErrors as an error if there are any errors, nil otherwise
func (ve *ValidationErrors) ToError() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// NewValidationErrors creates a new ValidationErrors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*PresetError, 0),
	}
}

// ============================================================================
// Error checking utilities
// ============================================================================

func asPresetError(err error) (*PresetError, bool) {
	var pe *PresetError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsNotFoundError checks if an error is a preset not found error
func IsNotFoundError(err error) bool {
	if pe, ok := asPresetError(err); ok {
		return pe.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	if pe, ok := asPresetError(err); ok {
		return pe.Type == ErrorTypeValidation
	}
	return false
}

// IsMalformedError checks if an error comes from a malformed preset or
// malformed column metadata
func IsMalformedError(err error) bool {
	if pe, ok := asPresetError(err); ok {
		return pe.Type == ErrorTypeMalformed
	}
	return false
}

// IsMetadataError checks if an error comes from dataset profiling
func IsMetadataError(err error) bool {
	if pe, ok := asPresetError(err); ok {
		return pe.Type == ErrorTypeMetadata || pe.Type == ErrorTypeTimeout
	}
	return false
}
