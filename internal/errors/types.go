// Package errors defines the structured error taxonomy shared by the
// hotsnip packages: argument errors, template parse failures, hotkey
// registration conflicts and environment failures.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeParse       ErrorType = "parse"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeEnvironment ErrorType = "environment"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeInternal    ErrorType = "internal"
)

// HotsnipError is a structured error type with context.
type HotsnipError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *HotsnipError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *HotsnipError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *HotsnipError) Is(target error) bool {
	var t *HotsnipError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *HotsnipError) WithContext(key string, value interface{}) *HotsnipError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile records the file the error relates to.
func (e *HotsnipError) WithFile(filePath string) *HotsnipError {
	e.FilePath = filePath

	return e
}

// WithComponent adds component context.
func (e *HotsnipError) WithComponent(component string) *HotsnipError {
	e.Component = component

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *HotsnipError {
	return &HotsnipError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewParseError creates a template parse error. Parse errors are reported
// and never escalated.
func NewParseError(code, message string, cause error) *HotsnipError {
	return &HotsnipError{
		Type:        ErrorTypeParse,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConflictError creates a hotkey registration conflict.
func NewConflictError(code, message string, cause error) *HotsnipError {
	return &HotsnipError{
		Type:        ErrorTypeConflict,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewEnvironmentError creates an environment error. The affected feature
// stays disabled for the lifetime of the process.
func NewEnvironmentError(code, message string, cause error) *HotsnipError {
	return &HotsnipError{
		Type:        ErrorTypeEnvironment,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *HotsnipError {
	return &HotsnipError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *HotsnipError {
	return &HotsnipError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *HotsnipError {
	return &HotsnipError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var he *HotsnipError
	if errors.As(err, &he) {
		return he.Recoverable
	}

	return false
}

// IsConflict checks if an error is a hotkey registration conflict.
func IsConflict(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsEnvironment checks if an error is an environment failure.
func IsEnvironment(err error) bool {
	return isType(err, ErrorTypeEnvironment)
}

// IsParse checks if an error is a template parse failure.
func IsParse(err error) bool {
	return isType(err, ErrorTypeParse)
}

func isType(err error, t ErrorType) bool {
	var he *HotsnipError
	if errors.As(err, &he) {
		return he.Type == t
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level chosen from its type. Per-file failures
// are warnings; everything else is an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error, fields ...interface{}) {
	if err == nil || h.logger == nil {
		return
	}

	var he *HotsnipError
	if !errors.As(err, &he) {
		h.logger.Error(ctx, err, "Unhandled error occurred", fields...)
		return
	}

	fields = append(fields, "type", string(he.Type), "code", he.Code)
	if he.FilePath != "" && !hasField(fields, "path") {
		fields = append(fields, "path", he.FilePath)
	}

	switch he.Type {
	case ErrorTypeParse:
		h.logger.Warn(ctx, err, "Template could not be parsed", fields...)
	case ErrorTypeConflict:
		h.logger.Warn(ctx, err, "Hotkey registration rejected", fields...)
	case ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Validation error occurred", fields...)
	case ErrorTypeEnvironment:
		h.logger.Error(ctx, err, "Environment error, feature disabled", fields...)
	default:
		h.logger.Error(ctx, err, "Error occurred", fields...)
	}
}

func hasField(fields []interface{}, key string) bool {
	for i := 0; i+1 < len(fields); i += 2 {
		if k, ok := fields[i].(string); ok && k == key {
			return true
		}
	}
	return false
}

// Common error codes.
const (
	ErrCodeInvalidArgument = "ERR_INVALID_ARGUMENT"
	ErrCodeInvalidKey      = "ERR_INVALID_KEY"
	ErrCodeFrontMatter     = "ERR_FRONT_MATTER"
	ErrCodeHotkeyConflict  = "ERR_HOTKEY_CONFLICT"
	ErrCodeUnsupportedKey  = "ERR_UNSUPPORTED_KEY"
	ErrCodeBackend         = "ERR_HOTKEY_BACKEND"
	ErrCodeFolderMissing   = "ERR_FOLDER_MISSING"
	ErrCodeFileUnreadable  = "ERR_FILE_UNREADABLE"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeInternalError   = "ERR_INTERNAL"
)

// Helper functions for common errors

// ErrFolderMissing creates the environment error for an absent template folder.
func ErrFolderMissing(folder string, cause error) *HotsnipError {
	return NewEnvironmentError(
		ErrCodeFolderMissing,
		"template folder does not exist",
		cause,
	).WithFile(folder)
}

// ErrHotkeyConflict creates a registration conflict for a key combination.
func ErrHotkeyConflict(combo string, cause error) *HotsnipError {
	return NewConflictError(
		ErrCodeHotkeyConflict,
		"hotkey already bound: "+combo,
		cause,
	).WithContext("key", combo)
}

// ErrFileUnreadable creates the I/O error for a template that could not be read.
func ErrFileUnreadable(path string, cause error) *HotsnipError {
	return NewIOError(ErrCodeFileUnreadable, "template file unreadable", cause).WithFile(path)
}
