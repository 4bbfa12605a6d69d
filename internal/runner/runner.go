package runner

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/shinji-kodama/hgbuf/internal/model"
)

// Output is the captured result of a successful run.
type Output struct {
	// CommandLine is the command line as it was run.
	CommandLine string

	// Stdout is the captured standard output. It is never empty on success.
	Stdout string

	// Stderr is the captured standard error, kept for diagnostics.
	Stderr string

	// ExitCode is the process exit status. It is non-zero only when the
	// caller tolerated a non-zero exit.
	ExitCode int
}

// Runner executes external command lines synchronously.
//
// A Runner holds no per-call state, so one value can serve a whole
// session. Calls never overlap: Run blocks until the process exits.
type Runner struct {
	// Dir is the working directory for every command. Empty means the
	// current process directory.
	Dir string

	logger *zap.Logger
}

// New creates a Runner that runs commands in dir and logs through logger.
// A nil logger disables logging.
func New(dir string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Dir: dir, logger: logger}
}

// Run executes commandLine and captures its output.
//
// The command line is split into words with POSIX shell quoting rules;
// no shell is involved, so callers must quote arguments containing spaces.
//
// Outcomes:
//   - exit 0 (or any exit with toleratesNonZeroExit) and non-empty stdout:
//     the Output is returned.
//   - non-zero exit without toleratesNonZeroExit, or a process that cannot
//     be started: *model.ExecutionError wrapping model.ErrCommandFailed.
//   - empty stdout: *model.ExecutionError wrapping model.ErrNoOutput.
func (r *Runner) Run(commandLine string, toleratesNonZeroExit bool) (*Output, error) {
	argv, err := shellquote.Split(commandLine)
	if err != nil {
		return nil, &model.ExecutionError{
			CommandLine: commandLine,
			Reason:      model.ErrCommandFailed,
			ExitCode:    -1,
			Detail:      "malformed command line",
			Err:         err,
		}
	}
	if len(argv) == 0 {
		return nil, &model.ExecutionError{
			CommandLine: commandLine,
			Reason:      model.ErrCommandFailed,
			ExitCode:    -1,
			Detail:      "empty command line",
		}
	}

	// #nosec G204 -- argv comes from the hg command layer, not from a shell.
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.Dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Binary not found, permission denied and similar.
			r.logger.Debug("command did not start",
				zap.String("command", commandLine), zap.Error(runErr))
			return nil, &model.ExecutionError{
				CommandLine: commandLine,
				Reason:      model.ErrCommandFailed,
				ExitCode:    -1,
				Detail:      fmt.Sprintf("cannot run %s", argv[0]),
				Err:         runErr,
			}
		}
		exitCode = exitErr.ExitCode()
	}

	r.logger.Debug("command finished",
		zap.String("command", commandLine),
		zap.String("dir", r.Dir),
		zap.Int("exit", exitCode),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Bool("tolerate_nonzero", toleratesNonZeroExit))

	if exitCode != 0 && !toleratesNonZeroExit {
		return nil, &model.ExecutionError{
			CommandLine: commandLine,
			Reason:      model.ErrCommandFailed,
			ExitCode:    exitCode,
			Detail:      failureDetail(stdout.String(), stderr.String()),
			Err:         runErr,
		}
	}

	if stdout.Len() == 0 {
		return nil, &model.ExecutionError{
			CommandLine: commandLine,
			Reason:      model.ErrNoOutput,
			ExitCode:    exitCode,
			Detail:      strings.TrimSpace(stderr.String()),
		}
	}

	return &Output{
		CommandLine: commandLine,
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
		ExitCode:    exitCode,
	}, nil
}

// failureDetail prefers stderr, which is where hg writes "abort:" messages,
// and falls back to stdout.
func failureDetail(stdout, stderr string) string {
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	return strings.TrimSpace(stdout)
}

// CommandLine joins an executable, a subcommand and pre-quoted arguments
// into a single command line.
func CommandLine(executable, subcommand string, args ...string) string {
	parts := make([]string, 0, len(args)+2)
	parts = append(parts, executable)
	if subcommand != "" {
		parts = append(parts, subcommand)
	}
	for _, a := range args {
		if a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}

// Quote quotes words for inclusion in a command line.
func Quote(words ...string) string {
	return shellquote.Join(words...)
}
