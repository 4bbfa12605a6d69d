// Package cli implements the cobra-based CLI commands for hgbuf.
//
// Commands are grouped by what they do with their output: view.go holds
// the commands that display hg output (status, log, annotate, diff,
// review), change.go the commands that modify the repository (add,
// revert, update, commit), and compare.go and info.go the comparison and
// label queries. This file defines the root command, the global flags and
// error handling.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shinji-kodama/hgbuf/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose lowers the log level to debug, which logs every hg command
	// line and surface lifecycle event to stderr.
	verbose bool

	// configPath overrides the global option file location.
	configPath string

	// optionAssignments holds repeated -o name=value flags. They form the
	// window scope of the option set.
	optionAssignments []string

	// logger is built in PersistentPreRunE. It discards everything until
	// then so helpers are safe to call from tests.
	logger = zap.NewNop()
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action. It provides help
// text, the global flags and logger setup for the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hgbuf",
		Short: "Run Mercurial commands into managed result surfaces",
		Long: `hgbuf runs hg commands against a file and shows their output as
named result surfaces.

Where a surface goes (replacing the current view, a split, or reusing an
existing surface) is decided by layered options: per-command flags, -o
assignments, the repository's .hgbuf.jsonc and the global config file.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVar(&configPath, "config", "", "Global option file (default $XDG_CONFIG_HOME/hgbuf/config.yaml)")
	flags.StringArrayVarP(&optionAssignments, "option", "o", nil, "Set an option for this run, e.g. -o split=vertical (repeatable)")

	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewLogCommand())
	rootCmd.AddCommand(NewAnnotateCommand())
	rootCmd.AddCommand(NewDiffCommand())
	rootCmd.AddCommand(NewReviewCommand())
	rootCmd.AddCommand(NewAddCommand())
	rootCmd.AddCommand(NewRevertCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewCommitCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewInfoCommand())

	return rootCmd
}

// newLogger builds the production zap logger on stderr. Verbose mode
// lowers the level to debug.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// Errors are mapped onto exit codes with model.ExitCodeFor, so a failed
// hg command, an empty output and a stale source are distinguishable by
// scripts.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		code := model.ExitCodeFor(err)
		if code == model.ExitSuccess {
			code = model.ExitGeneralError
		}
		printError(os.Stderr, err)
		os.Exit(int(code))
	}
}

// printError outputs an error in the appropriate format (JSON or text)
// based on the --json global flag. Errors always go to stderr because
// stdout is reserved for command output.
func printError(w io.Writer, err error) {
	message := err.Error()
	var detail string
	if cliErr, ok := err.(*model.CLIError); ok {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message":  message,
				"exitCode": int(model.ExitCodeFor(err)),
			},
		}
		if detail != "" {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = detail
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if detail != "" {
		fmt.Fprintf(w, "Error: %s: %s\n", message, detail)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// VerboseLog logs a debug message. It is only visible with --verbose.
func VerboseLog(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
