package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shinji-kodama/hgbuf/internal/hg"
	"github.com/shinji-kodama/hgbuf/internal/session"
	"github.com/shinji-kodama/hgbuf/internal/surface"
)

// executionJSON is the JSON output structure for one command execution.
type executionJSON struct {
	ID      string           `json:"id"`
	Command string           `json:"command"`
	State   string           `json:"state"`
	Exit    int              `json:"exitCode"`
	Surface *surface.Surface `json:"surface,omitempty"`
}

// changeJSON is the JSON output structure for a side-effect command.
type changeJSON struct {
	Execution executionJSON `json:"execution"`
	Info      hg.Info       `json:"info"`
}

func newExecutionJSON(exe *session.Execution) executionJSON {
	out := executionJSON{
		ID:      exe.ID,
		Command: exe.CommandLine,
		State:   string(exe.State),
		Surface: exe.Surface,
	}
	if exe.Output != nil {
		out.Exit = exe.Output.ExitCode
	}
	return out
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// FormatInfo renders the labels of a source for text output.
//
// Example:
//
//	bar.txt: r42 default modified
//	new.txt: (not tracked)
func FormatInfo(info hg.Info) string {
	label := info.Label()
	if label == "" || info.Status == "unknown" {
		label = "(not tracked)"
	}
	return fmt.Sprintf("%s: %s", info.Path, label)
}
