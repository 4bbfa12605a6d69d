// cli_test.go contains unit tests for the pure helpers of
// the CLI: option loading, flag translation, and output formatting.
//
// These tests do not run hg.

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/hgbuf/internal/hg"
	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/options"
	"github.com/shinji-kodama/hgbuf/internal/runner"
	"github.com/shinji-kodama/hgbuf/internal/session"
)

// TestFormatInfo verifies the text rendering of source labels.
func TestFormatInfo(t *testing.T) {
	tests := []struct {
		name string
		info hg.Info
		want string
	}{
		{
			name: "tracked file",
			info: hg.Info{Path: "bar.txt", Revision: "42", Branch: "default", Status: "modified"},
			want: "bar.txt: r42 default modified",
		},
		{
			name: "unknown file",
			info: hg.Info{Path: "new.txt", Branch: "default", Status: "unknown"},
			want: "new.txt: (not tracked)",
		},
		{
			name: "no labels",
			info: hg.Info{Path: "gone.txt"},
			want: "gone.txt: (not tracked)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatInfo(tt.info))
		})
	}
}

func TestDiffRevisions(t *testing.T) {
	rev1, rev2, err := diffRevisions(nil)
	require.NoError(t, err)
	assert.Equal(t, "", rev1)
	assert.Equal(t, "", rev2)

	rev1, rev2, err = diffRevisions([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, "3", rev1)
	assert.Equal(t, "", rev2)

	rev1, rev2, err = diffRevisions([]string{"3", "5"})
	require.NoError(t, err)
	assert.Equal(t, "3", rev1)
	assert.Equal(t, "5", rev2)

	_, _, err = diffRevisions([]string{"1", "2", "3"})
	assert.Equal(t, model.ExitGeneralError, model.ExitCodeFor(err))
}

func TestParseAssignments(t *testing.T) {
	layer, err := parseAssignments([]string{"split=vertical", "diff_opt=-w -B", "split=horizontal", "exec="})
	require.NoError(t, err)
	assert.Equal(t, options.Layer{
		options.Split:   "horizontal",
		options.DiffOpt: "-w -B",
		options.Exec:    "",
	}, layer)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestOverrideFlags(t *testing.T) {
	newCmd := func() (*cobra.Command, *overrideFlags) {
		f := &overrideFlags{}
		cmd := &cobra.Command{Use: "test"}
		f.register(cmd)
		return cmd, f
	}

	cmd, f := newCmd()
	layer, err := f.layer(cmd)
	require.NoError(t, err)
	assert.Empty(t, layer, "unset flags do not mask lower scopes")

	cmd, f = newCmd()
	require.NoError(t, cmd.Flags().Set("placement", "vertical"))
	require.NoError(t, cmd.Flags().Set("named", "false"))
	layer, err = f.layer(cmd)
	require.NoError(t, err)
	assert.Equal(t, options.Layer{
		options.Placement:          "split-vertical",
		options.NameResultSurfaces: "false",
	}, layer)

	cmd, f = newCmd()
	require.NoError(t, cmd.Flags().Set("placement", "sideways"))
	_, err = f.layer(cmd)
	assert.Error(t, err)
}

func TestLoadOptions(t *testing.T) {
	root := t.TempDir()
	global := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(global, []byte("edit: split\nsplit: horizontal\nname_result_surfaces: true\n"), 0o644))

	repo := filepath.Join(root, "repo")
	sub := filepath.Join(repo, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	local := `{
  // prefer vertical splits in this repository
  "split": "vertical",
  "exec": "/opt/hg/bin/hg",
}`
	require.NoError(t, os.WriteFile(filepath.Join(repo, options.LocalFileName), []byte(local), 0o644))

	set, err := loadOptions(sub, global, []string{"name_marker=*"})
	require.NoError(t, err)

	assert.Equal(t, "split", set.Resolve(options.Edit, ""))
	assert.Equal(t, "vertical", set.Resolve(options.Split, ""))
	assert.Equal(t, "/opt/hg/bin/hg", set.Resolve(options.Exec, options.DefaultExec))
	assert.Equal(t, "*", set.Resolve(options.NameMarker, options.DefaultNameMarker))
	assert.True(t, set.Bool(options.NameResultSurfaces, false))

	_, scope, ok := set.Lookup(options.Split)
	require.True(t, ok)
	assert.Equal(t, options.ScopeBuffer, scope)
}

func TestLoadOptions_MissingFilesAndBadAssignment(t *testing.T) {
	dir := t.TempDir()

	set, err := loadOptions(dir, filepath.Join(dir, "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, options.DefaultExec, set.Resolve(options.Exec, options.DefaultExec))

	_, err = loadOptions(dir, filepath.Join(dir, "absent.yaml"), []string{"oops"})
	assert.Error(t, err)
}

func TestLoadOptions_MalformedGlobal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(global, []byte("edit: [unterminated\n"), 0o644))

	_, err := loadOptions(dir, global, nil)
	require.Error(t, err)
	assert.Equal(t, model.ExitGeneralError, model.ExitCodeFor(err))
}

func TestEditorCommand(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	assert.Equal(t, "vi", editorCommand(getenv))

	env["EDITOR"] = "nano"
	assert.Equal(t, "nano", editorCommand(getenv))

	env["VISUAL"] = "code --wait"
	assert.Equal(t, "code --wait", editorCommand(getenv))

	env["HGEDITOR"] = "vim"
	assert.Equal(t, "vim", editorCommand(getenv))
}

func TestCommandError_KeepsExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want model.ExitCode
	}{
		{&model.ExecutionError{CommandLine: "hg status x", Reason: model.ErrCommandFailed, ExitCode: 255}, model.ExitCommandFailed},
		{&model.ExecutionError{CommandLine: "hg log x", Reason: model.ErrNoOutput}, model.ExitNoOutput},
		{&model.StaleReferenceError{}, model.ExitStaleSource},
		{model.ErrEmptyCommitMessage, model.ExitUserCancelled},
		{errors.New("boom"), model.ExitGeneralError},
	}

	for _, tt := range tests {
		err := commandError("status", tt.err)
		assert.Equal(t, tt.want, model.ExitCodeFor(err), "%v", tt.err)
		assert.True(t, errors.Is(err, tt.err))
	}
}

func TestPrintError(t *testing.T) {
	err := commandError("status", &model.ExecutionError{
		CommandLine: "hg status bar.txt",
		Reason:      model.ErrCommandFailed,
		ExitCode:    255,
		Detail:      "abort: no repository found",
	})

	var buf bytes.Buffer
	printError(&buf, err)
	assert.Equal(t, "Error: hg status failed: hg status bar.txt: command failed: abort: no repository found\n", buf.String())

	jsonOutput = true
	defer func() { jsonOutput = false }()

	buf.Reset()
	printError(&buf, err)

	var decoded struct {
		Error struct {
			Message  string `json:"message"`
			Detail   string `json:"detail"`
			ExitCode int    `json:"exitCode"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "hg status failed", decoded.Error.Message)
	assert.Contains(t, decoded.Error.Detail, "no repository found")
	assert.Equal(t, int(model.ExitCommandFailed), decoded.Error.ExitCode)
}

func TestNewExecutionJSON(t *testing.T) {
	exe := &session.Execution{
		ID:          "abc-1",
		CommandLine: "hg diff bar.txt",
		State:       session.StateFailedEmpty,
	}
	got := newExecutionJSON(exe)
	assert.Equal(t, executionJSON{ID: "abc-1", Command: "hg diff bar.txt", State: "failed-empty"}, got)

	exe.Output = &runner.Output{ExitCode: 1}
	assert.Equal(t, 1, newExecutionJSON(exe).Exit)

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, got))
	assert.NotContains(t, buf.String(), "surface", "a missing surface is omitted")
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"add", "annotate", "commit", "compare", "diff", "info",
		"log", "review", "revert", "status", "update",
	}, names)

	for _, flag := range []string{"json", "verbose", "config", "option"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}
