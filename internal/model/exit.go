package model

import (
	"errors"
	"fmt"
)

// ExitCode defines the process exit codes of the hgbuf CLI. Scripts can
// use them to tell a failed hg command apart from a configuration problem.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitCommandFailed indicates the hg process failed.
	ExitCommandFailed ExitCode = 2

	// ExitNoOutput indicates the hg process succeeded without output
	// where output was required.
	ExitNoOutput ExitCode = 3

	// ExitStaleSource indicates a surface outlived its source.
	ExitStaleSource ExitCode = 4

	// ExitNameExhausted indicates no unique surface name could be found.
	ExitNameExhausted ExitCode = 5

	// ExitUserCancelled indicates the user aborted, e.g. an empty commit
	// message.
	ExitUserCancelled ExitCode = 6
)

// CLIError is an error that carries an exit code, so the CLI layer can
// translate domain errors into process exit statuses.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeFor maps an error from the domain packages onto an exit code.
// A CLIError anywhere in the chain wins; nil maps to ExitSuccess.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	switch {
	case errors.Is(err, ErrNoOutput):
		return ExitNoOutput
	case errors.Is(err, ErrCommandFailed):
		return ExitCommandFailed
	case errors.Is(err, ErrStaleSource):
		return ExitStaleSource
	case errors.Is(err, ErrNameCollisionExhausted):
		return ExitNameExhausted
	case errors.Is(err, ErrEmptyCommitMessage):
		return ExitUserCancelled
	default:
		return ExitGeneralError
	}
}
