// view.go implements the commands that display hg output:
// status, log, annotate, diff and review.
//
// Each command runs one hg command against a file and shows the output as
// a result surface. The placement and naming of the surface follow the
// option layers; --placement and --named override them for one run.

package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/hgbuf/internal/hg"
	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/options"
	"github.com/shinji-kodama/hgbuf/internal/session"
)

// viewFunc runs one display command through the hg client.
type viewFunc func(c *hg.Client, h model.SourceHandle, call options.Layer) (*session.Execution, error)

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	overrides := &overrideFlags{}
	cmd := &cobra.Command{
		Use:   "status <file>",
		Short: "Show the working-copy status of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, "status", args[0], overrides,
				func(c *hg.Client, h model.SourceHandle, call options.Layer) (*session.Execution, error) {
					return c.Status(h, call)
				})
		},
	}
	overrides.register(cmd)
	return cmd
}

// NewLogCommand creates the "log" cobra command.
func NewLogCommand() *cobra.Command {
	overrides := &overrideFlags{}
	var rev string
	cmd := &cobra.Command{
		Use:   "log <file>",
		Short: "Show the revision history of a file",
		Long: `Show the revision history of a file.

Examples:
  hgbuf log bar.txt
  hgbuf log -r 3 bar.txt
  hgbuf log -r 'tip:0' --placement vertical bar.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, "log", args[0], overrides,
				func(c *hg.Client, h model.SourceHandle, call options.Layer) (*session.Execution, error) {
					return c.Log(h, rev, call)
				})
		},
	}
	cmd.Flags().StringVarP(&rev, "rev", "r", "", "Revision or revision range to show")
	overrides.register(cmd)
	return cmd
}

// NewAnnotateCommand creates the "annotate" cobra command.
func NewAnnotateCommand() *cobra.Command {
	overrides := &overrideFlags{}
	var rev string
	cmd := &cobra.Command{
		Use:     "annotate <file>",
		Aliases: []string{"blame"},
		Short:   "Show the revision and author of each line of a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, "annotate", args[0], overrides,
				func(c *hg.Client, h model.SourceHandle, call options.Layer) (*session.Execution, error) {
					return c.Annotate(h, rev, call)
				})
		},
	}
	cmd.Flags().StringVarP(&rev, "rev", "r", "", "Annotate the file as of this revision")
	overrides.register(cmd)
	return cmd
}

// NewDiffCommand creates the "diff" cobra command.
func NewDiffCommand() *cobra.Command {
	overrides := &overrideFlags{}
	var revs []string
	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Show changes to a file",
		Long: `Show changes to a file.

With no -r the working copy is compared to its parent. One -r compares
the working copy to that revision; two compare the revisions. Extra
options for hg diff come from the diff_opt option.

Examples:
  hgbuf diff bar.txt
  hgbuf diff -r 3 -r 5 bar.txt
  hgbuf -o diff_opt=-w diff bar.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev1, rev2, err := diffRevisions(revs)
			if err != nil {
				return err
			}
			return runView(cmd, "diff", args[0], overrides,
				func(c *hg.Client, h model.SourceHandle, call options.Layer) (*session.Execution, error) {
					return c.Diff(h, rev1, rev2, call)
				})
		},
	}
	cmd.Flags().StringArrayVarP(&revs, "rev", "r", nil, "Revision to compare (at most twice)")
	overrides.register(cmd)
	return cmd
}

// NewReviewCommand creates the "review" cobra command.
func NewReviewCommand() *cobra.Command {
	overrides := &overrideFlags{}
	var rev string
	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Show a file as of a revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, "review", args[0], overrides,
				func(c *hg.Client, h model.SourceHandle, call options.Layer) (*session.Execution, error) {
					return c.Review(h, rev, call)
				})
		},
	}
	cmd.Flags().StringVarP(&rev, "rev", "r", "", "Revision to show (default: working directory parent)")
	overrides.register(cmd)
	return cmd
}

// runView is the shared logic of the display commands. In text mode the
// terminal presenter has already printed the surface when fn returns.
func runView(cmd *cobra.Command, name, path string, overrides *overrideFlags, fn viewFunc) error {
	call, err := overrides.layer(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	exe, err := fn(a.client, a.source(path), call)
	if err != nil {
		return commandError(name, err)
	}
	VerboseLog("%s: %s -> %s", exe.ID, exe.CommandLine, exe.State)

	if IsJSONOutput() {
		return printJSON(a.out, newExecutionJSON(exe))
	}
	return nil
}

// diffRevisions splits the repeated -r flag of diff into its two
// revisions.
func diffRevisions(revs []string) (rev1, rev2 string, err error) {
	switch len(revs) {
	case 0:
		return "", "", nil
	case 1:
		return revs[0], "", nil
	case 2:
		return revs[0], revs[1], nil
	default:
		return "", "", model.NewCLIError(model.ExitGeneralError, "diff accepts at most two revisions")
	}
}
