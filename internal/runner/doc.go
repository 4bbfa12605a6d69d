// Package runner executes external command lines for hgbuf.
//
// All hg operations are performed via os/exec rather than through a
// Mercurial library. The runner is deliberately generic: it knows nothing
// about hg subcommands. Callers that expect a non-zero exit on success
// (hg diff) opt in per call with toleratesNonZeroExit.
//
// Failures are returned as *model.ExecutionError values that unwrap to
// model.ErrCommandFailed or model.ErrNoOutput.
package runner
