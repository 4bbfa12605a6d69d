package hg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/options"
)

// Info describes the repository state of one source: the labels an editor
// shows next to a file.
type Info struct {
	// Path is the location of the source as passed to hg.
	Path string `json:"path"`

	// Revision is the local revision number of the working directory
	// parent, e.g. "42". Empty for a file hg does not track.
	Revision string `json:"revision,omitempty"`

	// Branch is the name of the current branch.
	Branch string `json:"branch,omitempty"`

	// Status is the working-copy state, e.g. "modified" or "clean".
	Status string `json:"status,omitempty"`
}

// Label renders the info compactly, e.g. "r42 default modified".
func (i Info) Label() string {
	var parts []string
	if i.Revision != "" {
		parts = append(parts, "r"+i.Revision)
	}
	if i.Branch != "" {
		parts = append(parts, i.Branch)
	}
	if i.Status != "" {
		parts = append(parts, i.Status)
	}
	return strings.Join(parts, " ")
}

// statusNames maps the first column of `hg status` to a status label.
var statusNames = map[byte]string{
	'M': "modified",
	'A': "added",
	'R': "removed",
	'C': "clean",
	'!': "missing",
	'?': "unknown",
	'I': "ignored",
}

// Info queries the revision, branch and status of the source h without
// creating any surface.
//
//	hg status -A <path>
//	hg parents --template '{rev}' <path>
//	hg branch
//
// A query that prints nothing leaves its field empty; a failing query is
// returned as an error. hg aborts `parents` for a file that is not in the
// manifest, so the revision is not queried for untracked and added files.
func (c *Client) Info(h model.SourceHandle, call options.Layer) (Info, error) {
	path, err := c.path(h)
	if err != nil {
		return Info{}, err
	}
	src, _ := c.session.Sources().Get(h)
	info := Info{Path: src.Path}

	status, err := c.query(call, "status", "-A", path)
	if err != nil {
		return info, fmt.Errorf("reading status of %s: %w", src.Path, err)
	}
	info.Status = ParseStatus(status)

	if inManifest(info.Status) {
		rev, err := c.query(call, "parents", "--template", "'{rev}'", path)
		if err != nil {
			return info, fmt.Errorf("reading revision of %s: %w", src.Path, err)
		}
		info.Revision = firstLine(rev)
	}

	branch, err := c.query(call, "branch")
	if err != nil {
		return info, fmt.Errorf("reading branch: %w", err)
	}
	info.Branch = firstLine(branch)

	return info, nil
}

// query runs a command whose output is parsed. Empty output is not an
// error.
func (c *Client) query(call options.Layer, subcommand string, args ...string) (string, error) {
	out, err := c.session.Run(model.Invocation{Subcommand: subcommand, Args: args}, call)
	if errors.Is(err, model.ErrNoOutput) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// inManifest reports whether a file with the given status label has a
// revision in the working directory parent.
func inManifest(status string) bool {
	switch status {
	case "", "unknown", "ignored", "added":
		return false
	}
	return true
}

// ParseStatus converts the output of `hg status` for a single file into a
// status label. Unknown codes and empty output yield "".
//
//	M bar.txt -> "modified"
func ParseStatus(output string) string {
	line := firstLine(output)
	if line == "" {
		return ""
	}
	return statusNames[line[0]]
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimLeft(s, "\r\n"), "\n")
	return strings.TrimSpace(line)
}
