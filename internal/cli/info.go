// info.go implements the "hgbuf info" command, which prints
// the revision, branch and status labels of a file without creating any
// result surface.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the "info" cobra command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the revision, branch and status of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(os.Stdout)
			if err != nil {
				return err
			}
			defer a.close()

			info, err := a.client.Info(a.source(args[0]), nil)
			if err != nil {
				return commandError("info", err)
			}

			if IsJSONOutput() {
				return printJSON(a.out, info)
			}
			_, err = fmt.Fprintln(a.out, FormatInfo(info))
			return err
		},
	}
}
