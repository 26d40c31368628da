package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"bol-processing-service/pkg/errors"
	"bol-processing-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly message for err and returns the process
// exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if summary, ok := err.(*errors.ErrorSummary); ok {
		return h.handleErrorSummary(summary)
	}

	if pipelineErr, ok := errors.AsPipelineError(err); ok {
		return h.handlePipelineError(pipelineErr)
	}

	return h.handleGenericError(err)
}

// handleErrorSummary handles a batch of accumulated errors, printing each one
// and the help for every category represented.
func (h *CLIErrorHandler) handleErrorSummary(summary *errors.ErrorSummary) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", summary.Error())

	for i, err := range summary.Errors {
		fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, err.Message)
	}

	for _, category := range []errors.ErrorCategory{
		errors.CategoryFile,
		errors.CategoryParse,
		errors.CategoryValidation,
		errors.CategoryMerge,
	} {
		if summary.HasCategory(category) {
			fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(category))
		}
	}

	return summary.GetExitCode()
}

// handlePipelineError handles PipelineError with detailed context
func (h *CLIErrorHandler) handlePipelineError(err *errors.PipelineError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-PipelineError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(os.Stderr, "Error: Insufficient disk space\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nRun with --verbose for more detail\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure the workspace root is writable`

	case errors.CategoryParse:
		return `Parse error help:
• Verify the document is a text-based bill of lading, not a scanned image
• Check that page files contain the shipment table header
• Use 'bolproc process --help' for input format details`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that the external file carries the Invoice No., Style, Cartons
  and Pieces columns
• Supported external formats are .csv, .xlsx and .xls`

	case errors.CategoryMerge:
		return `Merge error help:
• Run 'bolproc process' before 'bolproc merge' so the session has a
  combined CSV
• Verify the session ID and workspace root are correct`

	default:
		return `For more help:
• Use 'bolproc --help' for general help
• Use 'bolproc process --help' or 'bolproc merge --help' for command help`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full")
}
