package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile       ErrorCategory = "file"
	CategoryParse      ErrorCategory = "parse"
	CategoryValidation ErrorCategory = "validation"
	CategoryMerge      ErrorCategory = "merge"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileEmpty      ErrorCode = "file_empty"
	CodeDirectoryError ErrorCode = "directory_error"

	// Parse errors
	CodeNoTableHeader ErrorCode = "no_table_header"
	CodeNoInvoiceNo   ErrorCode = "no_invoice_number"
	CodeNoRows        ErrorCode = "no_rows"
	CodeInvalidFormat ErrorCode = "invalid_format"

	// Validation errors
	CodeMissingColumn        ErrorCode = "missing_column"
	CodeUnsupportedExtension ErrorCode = "unsupported_extension"

	// Merge errors
	CodeNoCombinedData ErrorCode = "no_combined_data"
	CodeNoInputFiles   ErrorCode = "no_input_files"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// PipelineError is the base error type for all application errors
type PipelineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *PipelineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryMerge, CategoryInternal:
		return 4
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *PipelineError) WithSuggestion(suggestion string) *PipelineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PipelineError
func New(category ErrorCategory, code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with PipelineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}

	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileEmpty:
		message = fmt.Sprintf("file is empty: %s", path)
		suggestion = "check that the uploaded file contains data"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is writable"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, source string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeNoTableHeader:
		message = fmt.Sprintf("no shipment table header found in %s", source)
		suggestion = "verify the page contains a CARTONS / STYLE / PIECES table"
	case CodeNoInvoiceNo:
		message = fmt.Sprintf("no invoice number found in %s", source)
		suggestion = "verify the page carries a BILL OF LADING header with an invoice number"
	case CodeNoRows:
		message = fmt.Sprintf("no shipment rows extracted from %s", source)
		suggestion = "check the document layout against the expected BOL template"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in %s", source)
		suggestion = "check the file format and data integrity"
	default:
		message = fmt.Sprintf("parse error in %s", source)
		suggestion = "check the file format and data integrity"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("required column '%s' is missing", field)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeUnsupportedExtension:
		message = fmt.Sprintf("unsupported file extension: %v", value)
		suggestion = "upload a .csv, .xlsx or .xls file"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// MergeError creates a merge/combine-related error
func MergeError(code ErrorCode, operation string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeNoCombinedData:
		message = fmt.Sprintf("no combined dataset available for %s", operation)
		suggestion = "process a PDF before uploading reconciliation data"
	case CodeNoInputFiles:
		message = fmt.Sprintf("no input files found for %s", operation)
		suggestion = "verify the workspace contains per-invoice CSV files"
	default:
		message = fmt.Sprintf("merge error during %s", operation)
		suggestion = "review the data and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryMerge, code, message)
	} else {
		result = New(CategoryMerge, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *PipelineError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*PipelineError      `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*PipelineError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsPipelineError checks if an error is a PipelineError
func IsPipelineError(err error) bool {
	_, ok := err.(*PipelineError)
	return ok
}

// AsPipelineError extracts a PipelineError from an error chain
func AsPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a PipelineError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}

	if pipelineErr, ok := AsPipelineError(err); ok {
		return pipelineErr
	}

	return Wrap(err, category, code, message)
}
