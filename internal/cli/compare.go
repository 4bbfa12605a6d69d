// compare.go implements the "hgbuf compare" command.
//
// The compare command starts a comparison of a file and shows it at each
// given revision in its own surface, placed by the diff_split option. All
// surfaces of a comparison are disposed of together.

package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/hgbuf/internal/display"
	"github.com/shinji-kodama/hgbuf/internal/session"
	"github.com/shinji-kodama/hgbuf/internal/surface"
)

// NewCompareCommand creates the "compare" cobra command.
func NewCompareCommand() *cobra.Command {
	overrides := &overrideFlags{}
	cmd := &cobra.Command{
		Use:     "compare <file> [rev...]",
		Aliases: []string{"vimdiff"},
		Short:   "Show a file side by side at several revisions",
		Long: `Show a file at several revisions, one surface per revision.

With no revision the working directory parent is shown. A summary table
of the comparison is printed after the surfaces.

Examples:
  hgbuf compare a.txt 3 5
  hgbuf -o diff_split=horizontal compare a.txt tip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0], args[1:], overrides)
		},
	}
	overrides.register(cmd)
	return cmd
}

func runCompare(cmd *cobra.Command, path string, revs []string, overrides *overrideFlags) error {
	call, err := overrides.layer(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	h := a.source(path)
	exes, err := a.client.Compare(h, revs, call)
	if err != nil {
		return commandError("compare", err)
	}

	if IsJSONOutput() {
		out := make([]executionJSON, 0, len(exes))
		for _, exe := range exes {
			out = append(out, newExecutionJSON(exe))
		}
		return printJSON(a.out, map[string]interface{}{"comparison": out})
	}
	return display.WriteSurfaceTable(a.out, comparisonSurfaces(a.session), time.Now())
}

// comparisonSurfaces returns the live members of the active comparison.
func comparisonSurfaces(s *session.Session) []*surface.Surface {
	c, ok := s.Registry().Comparison()
	if !ok {
		return nil
	}
	var out []*surface.Surface
	for _, id := range c.Members() {
		if surf, ok := s.Registry().Get(id); ok {
			out = append(out, surf)
		}
	}
	return out
}
