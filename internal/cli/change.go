// change.go implements the commands that modify the
// repository: add, revert, update and commit.
//
// These hg commands usually print nothing. An empty output is therefore
// not an error: the file's revision, branch and status are re-read and
// printed instead. When hg does print something it is shown as a result
// surface like any other command output.

package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/hgbuf/internal/hg"
	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/options"
)

// changeFunc runs one side-effect command through the hg client.
type changeFunc func(a *app, h model.SourceHandle, call options.Layer) (*hg.Result, error)

// NewAddCommand creates the "add" cobra command.
func NewAddCommand() *cobra.Command {
	overrides := &overrideFlags{}
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Schedule a file for addition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(cmd, "add", args[0], overrides,
				func(a *app, h model.SourceHandle, call options.Layer) (*hg.Result, error) {
					return a.client.Add(h, call)
				})
		},
	}
	overrides.register(cmd)
	return cmd
}

// NewRevertCommand creates the "revert" cobra command.
func NewRevertCommand() *cobra.Command {
	overrides := &overrideFlags{}
	cmd := &cobra.Command{
		Use:   "revert <file>",
		Short: "Restore a file to its checked-out state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(cmd, "revert", args[0], overrides,
				func(a *app, h model.SourceHandle, call options.Layer) (*hg.Result, error) {
					return a.client.Revert(h, call)
				})
		},
	}
	overrides.register(cmd)
	return cmd
}

// NewUpdateCommand creates the "update" cobra command.
func NewUpdateCommand() *cobra.Command {
	overrides := &overrideFlags{}
	var rev string
	cmd := &cobra.Command{
		Use:   "update <file>",
		Short: "Update the working directory and show the file's new state",
		Long: `Update the working directory to a revision (default: the branch tip).

The update affects the whole repository; the file argument selects whose
labels are printed afterwards and where the output surface belongs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(cmd, "update", args[0], overrides,
				func(a *app, h model.SourceHandle, call options.Layer) (*hg.Result, error) {
					return a.client.Update(h, rev, call)
				})
		},
	}
	cmd.Flags().StringVarP(&rev, "rev", "r", "", "Revision to update to")
	overrides.register(cmd)
	return cmd
}

// commitFlags holds the flag values for the commit command.
type commitFlags struct {
	// message is the commit message. When empty the message is read from
	// logfile, or edited interactively.
	message string

	// logfile is a file to read the commit message from.
	logfile string
}

// NewCommitCommand creates the "commit" cobra command.
func NewCommitCommand() *cobra.Command {
	overrides := &overrideFlags{}
	flags := &commitFlags{}
	cmd := &cobra.Command{
		Use:   "commit <file>",
		Short: "Commit the changes to a file",
		Long: `Commit the changes to a file.

Without -m or -l an editor ($HGEDITOR, $VISUAL, $EDITOR, then vi) is
opened on a message template. Lines starting with "HG:" are removed; an
empty message aborts the commit.

Examples:
  hgbuf commit -m "Fix parser" bar.txt
  hgbuf commit bar.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(cmd, "commit", args[0], overrides,
				func(a *app, h model.SourceHandle, call options.Layer) (*hg.Result, error) {
					msg, err := commitMessage(a, h, call, flags)
					if err != nil {
						return nil, err
					}
					return a.client.Commit(h, msg, call)
				})
		},
	}
	cmd.Flags().StringVarP(&flags.message, "message", "m", "", "Commit message")
	cmd.Flags().StringVarP(&flags.logfile, "logfile", "l", "", "Read the commit message from a file")
	overrides.register(cmd)
	return cmd
}

// runChange is the shared logic of the side-effect commands.
func runChange(cmd *cobra.Command, name, path string, overrides *overrideFlags, fn changeFunc) error {
	call, err := overrides.layer(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := fn(a, a.source(path), call)
	if err != nil {
		return commandError(name, err)
	}

	if IsJSONOutput() {
		return printJSON(a.out, changeJSON{
			Execution: newExecutionJSON(res.Execution),
			Info:      res.Info,
		})
	}
	_, err = fmt.Fprintln(a.out, FormatInfo(res.Info))
	return err
}

// commitMessage returns the message from -m or -l, or lets the user edit
// a template.
func commitMessage(a *app, h model.SourceHandle, call options.Layer, flags *commitFlags) (string, error) {
	if flags.message != "" {
		return flags.message, nil
	}
	if flags.logfile != "" {
		data, err := os.ReadFile(flags.logfile)
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to read commit message", err)
		}
		return string(data), nil
	}

	info, err := a.client.Info(h, call)
	if err != nil {
		VerboseLog("Commit template without labels: %v", err)
	}
	return editMessage(hg.CommitTemplate(info), editorCommand(os.Getenv))
}

// editorCommand picks the editor the same way hg does.
func editorCommand(getenv func(string) string) string {
	for _, name := range []string{"HGEDITOR", "VISUAL", "EDITOR"} {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return "vi"
}

// editMessage writes template to a temporary file, opens editor on it and
// returns the edited text. The editor command may carry arguments, e.g.
// "code --wait".
func editMessage(template, editor string) (string, error) {
	argv, err := shellquote.Split(editor)
	if err != nil || len(argv) == 0 {
		return "", model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("invalid editor command %q", editor))
	}

	f, err := os.CreateTemp("", "hgbuf-commit-*.txt")
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to create commit message file", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.WriteString(template); err != nil {
		_ = f.Close()
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to write commit message file", err)
	}
	if err := f.Close(); err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to write commit message file", err)
	}

	VerboseLog("Editing commit message with %s", editor)

	// #nosec G204 -- the editor comes from the user's own environment.
	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", model.WrapCLIError(model.ExitUserCancelled, "editor exited with an error", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to read commit message file", err)
	}
	return string(data), nil
}
