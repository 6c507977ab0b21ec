// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/algods/internal/algo"
	"github.com/jeranaias/algods/internal/algod"
	"github.com/jeranaias/algods/internal/config"
	"github.com/jeranaias/algods/internal/contract"
	"github.com/jeranaias/algods/internal/kmd"
	"github.com/jeranaias/algods/internal/orchestrator"
	"github.com/jeranaias/algods/internal/sandbox"
	"github.com/jeranaias/algods/internal/security"
	"github.com/jeranaias/algods/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates a rejected algod or kmd token
	ExitAuthError = 4
	// ExitNetworkError indicates the node or kmd could not be reached
	ExitNetworkError = 5
	// ExitSecurityError indicates a key custody failure
	ExitSecurityError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "createapp")
	Action  string // Action being performed (e.g., "compile")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "config key")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError wraps a failure to load or save the config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ErrMissingArgument reports a required flag that was not given.
func ErrMissingArgument(argName, example string) error {
	if example != "" {
		return NewValidationErrorWithExample(argName, "", "required", example)
	}
	return NewValidationError(argName, "", "required")
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err for the user. In JSON mode the error envelope
// goes to stdout so scripts see one document; otherwise a styled message
// and an optional hint go to w.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Print()
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(w, "%s %s\n", DimStyle.Render("hint:"), hint)
	}
}

func errorHint(err error) string {
	switch {
	case algod.IsNotRunning(err), errors.Is(err, kmd.ErrNotRunning):
		return "start the network with: algods startnet"
	case errors.Is(err, sandbox.ErrSandboxNotFound):
		return "set sandbox.path with: algods config set sandbox.path <dir>"
	case errors.Is(err, orchestrator.ErrNoSigningKey):
		return "only accounts created with createaccount can sign"
	case errors.Is(err, security.ErrDecryptionFailed):
		return "check the passphrase environment variable (security.passphrase_env)"
	case errors.Is(err, algod.ErrUnauthorized):
		return "check node.algod_token in the config"
	}
	return ""
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	var cfgErrs config.ValidateErrors
	if errors.As(err, &cfgErrs) {
		return ExitConfigError
	}
	var buildErr *contract.BuildError
	if errors.As(err, &buildErr) {
		return ExitGeneralError
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		algod.IsTimeout(err),
		errors.Is(err, algod.ErrConfirmationTimeout),
		errors.Is(err, sandbox.ErrNotReady):
		return ExitTimeoutError

	case algod.IsNotRunning(err), errors.Is(err, kmd.ErrNotRunning):
		return ExitNetworkError

	case errors.Is(err, algod.ErrUnauthorized), errors.Is(err, kmd.ErrUnauthorized):
		return ExitAuthError

	case errors.Is(err, algo.ErrInvalidAddress),
		errors.Is(err, orchestrator.ErrInvalidArgument),
		errors.Is(err, orchestrator.ErrZeroAmount),
		errors.Is(err, algo.ErrSchemaTooLarge):
		return ExitUsageError

	case errors.Is(err, orchestrator.ErrAccountNotFound),
		errors.Is(err, orchestrator.ErrAppNotFound),
		errors.Is(err, orchestrator.ErrAssetNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, contract.ErrContractNotFound),
		errors.Is(err, contract.ErrNoTEAL),
		errors.Is(err, kmd.ErrWalletNotFound),
		algod.IsNotFound(err):
		return ExitNotFoundError

	case errors.Is(err, orchestrator.ErrNoSigningKey),
		errors.Is(err, security.ErrDecryptionFailed),
		errors.Is(err, security.ErrInvalidCiphertext):
		return ExitSecurityError

	case errors.Is(err, sandbox.ErrSandboxNotFound):
		return ExitConfigError
	}
	return ExitGeneralError
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFoundError reports whether err is a NotFoundError.
func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}
