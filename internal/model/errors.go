package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Typed errors below unwrap to
// one of these so callers can branch with errors.Is.
var (
	// ErrCommandFailed means the external process exited non-zero (and the
	// invocation did not tolerate it) or could not be started at all.
	ErrCommandFailed = errors.New("command failed")

	// ErrNoOutput means the process succeeded but printed nothing. Some
	// commands only have side effects, so callers should re-check the
	// source state instead of assuming an error.
	ErrNoOutput = errors.New("no output")

	// ErrStaleSource means a surface refers to a source that no longer exists.
	ErrStaleSource = errors.New("original source no longer exists")

	// ErrNameCollisionExhausted means no unique surface name was found
	// within the suffix limit.
	ErrNameCollisionExhausted = errors.New("surface name collision limit exceeded")

	// ErrEmptyCommitMessage aborts a commit whose message is empty after
	// comment lines are stripped.
	ErrEmptyCommitMessage = errors.New("empty commit message")
)

// ExecutionError reports a failed external command.
type ExecutionError struct {
	// CommandLine is the command line as it was run.
	CommandLine string

	// Reason is ErrCommandFailed or ErrNoOutput.
	Reason error

	// ExitCode is the process exit status, or -1 if it never started.
	ExitCode int

	// Detail is the captured stderr (or stdout when stderr is empty).
	Detail string

	// Err is the underlying exec error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.CommandLine, e.Reason)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap exposes both the reason and the exec error to errors.Is/As.
func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// StaleReferenceError is returned when a surface's back-reference to its
// source no longer resolves.
type StaleReferenceError struct {
	Handle SourceHandle
}

// Error satisfies the error interface.
func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Handle, ErrStaleSource)
}

// Unwrap returns ErrStaleSource.
func (e *StaleReferenceError) Unwrap() error {
	return ErrStaleSource
}
