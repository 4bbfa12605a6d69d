// Package model defines the domain types and value objects for the hgbuf
// CLI.
//
// This package contains pure data structures with no external
// dependencies: command kinds, source handles, invocations, the failure
// taxonomy (ExecutionError, StaleReferenceError and their sentinels) and
// the exit codes (ExitCode, CLIError) used for OS process exit handling.
package model
