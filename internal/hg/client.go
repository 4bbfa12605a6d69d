package hg

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/options"
	"github.com/shinji-kodama/hgbuf/internal/runner"
	"github.com/shinji-kodama/hgbuf/internal/session"
)

// DefaultCompareRevision is compared when Compare is called without
// revisions: the parent of the working directory.
const DefaultCompareRevision = "."

// Client runs Mercurial commands against the sources of one session.
type Client struct {
	session *session.Session
	logger  *zap.Logger
}

// Result is the outcome of a side-effect command.
type Result struct {
	// Execution is the execution of the command. Its surface is nil when
	// the command printed nothing.
	Execution *session.Execution

	// Info is the source state re-read after the command.
	Info Info
}

// NewClient creates a Client on top of s. A nil logger disables logging.
func NewClient(s *session.Session, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{session: s, logger: logger}
}

// Session returns the session the client runs commands through.
func (c *Client) Session() *session.Session {
	return c.session
}

// Status shows the working-copy state of the source.
//
//	hg status <path>
func (c *Client) Status(h model.SourceHandle, call options.Layer) (*session.Execution, error) {
	path, err := c.path(h)
	if err != nil {
		return nil, err
	}
	return c.session.Execute(model.Invocation{
		Kind:       model.KindStatus,
		Subcommand: "status",
		Args:       []string{path},
		Source:     h,
	}, call)
}

// Log shows the history of the source, limited to rev when it is set.
//
//	hg log [-r <rev>] <path>
func (c *Client) Log(h model.SourceHandle, rev string, call options.Layer) (*session.Execution, error) {
	path, err := c.path(h)
	if err != nil {
		return nil, err
	}
	return c.session.Execute(model.Invocation{
		Kind:        model.KindLog,
		Subcommand:  "log",
		Args:        append(revArgs(rev), path),
		StatusLabel: rev,
		Source:      h,
	}, call)
}

// Annotate shows the revision and user of every line of the source.
//
//	hg annotate -n -u [-r <rev>] <path>
func (c *Client) Annotate(h model.SourceHandle, rev string, call options.Layer) (*session.Execution, error) {
	path, err := c.path(h)
	if err != nil {
		return nil, err
	}
	args := append([]string{"-n", "-u"}, revArgs(rev)...)
	return c.session.Execute(model.Invocation{
		Kind:        model.KindAnnotate,
		Subcommand:  "annotate",
		Args:        append(args, path),
		StatusLabel: rev,
		Source:      h,
	}, call)
}

// Diff shows the changes to the source. With no revisions the working copy
// is compared to its parent; with one, to rev1; with two, rev1 to rev2.
// The "diff_opt" option is inserted before the revisions.
//
//	hg diff [<diff_opt>] [-r <rev1>] [-r <rev2>] <path>
//
// Some hg extensions make diff exit non-zero when differences exist, so
// the invocation tolerates a non-zero exit.
func (c *Client) Diff(h model.SourceHandle, rev1, rev2 string, call options.Layer) (*session.Execution, error) {
	path, err := c.path(h)
	if err != nil {
		return nil, err
	}

	var args []string
	if opt := c.session.Options().WithOverride(call).Resolve(options.DiffOpt, ""); opt != "" {
		args = append(args, opt)
	}
	args = append(args, revArgs(rev1)...)
	label := rev1
	if rev1 != "" && rev2 != "" {
		args = append(args, revArgs(rev2)...)
		label = rev1 + ":" + rev2
	}

	return c.session.Execute(model.Invocation{
		Kind:                 model.KindDiff,
		Subcommand:           "diff",
		Args:                 append(args, path),
		StatusLabel:          label,
		Source:               h,
		ToleratesNonZeroExit: true,
	}, call)
}

// Review shows the content of the source at rev, or at the working
// directory parent when rev is empty.
//
//	hg cat [-r <rev>] <path>
func (c *Client) Review(h model.SourceHandle, rev string, call options.Layer) (*session.Execution, error) {
	path, err := c.path(h)
	if err != nil {
		return nil, err
	}
	return c.session.Execute(model.Invocation{
		Kind:        model.KindReview,
		Subcommand:  "cat",
		Args:        append(revArgs(rev), path),
		StatusLabel: rev,
		Source:      h,
	}, call)
}

// Compare starts a comparison of the source and shows it at every
// revision in revs, each in its own surface placed by the "diff_split"
// option. Any previous comparison is disposed of first.
//
// On error the executions that completed so far are returned alongside it.
func (c *Client) Compare(h model.SourceHandle, revs []string, call options.Layer) ([]*session.Execution, error) {
	path, err := c.path(h)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		revs = []string{DefaultCompareRevision}
	}

	if _, err := c.session.StartComparison(h); err != nil {
		return nil, err
	}

	executions := make([]*session.Execution, 0, len(revs))
	for _, rev := range revs {
		exe, err := c.session.ExecuteComparison(model.Invocation{
			Kind:        model.KindCompare,
			Subcommand:  "cat",
			Args:        []string{"-r", runner.Quote(rev), path},
			StatusLabel: rev,
			Source:      h,
		}, call)
		if err != nil {
			return executions, fmt.Errorf("comparing %s at %s: %w", path, rev, err)
		}
		executions = append(executions, exe)
	}
	return executions, nil
}

// Add schedules the source for addition.
//
//	hg add <path>
func (c *Client) Add(h model.SourceHandle, call options.Layer) (*Result, error) {
	return c.sideEffect(model.KindAdd, h, "", call, "add")
}

// Revert restores the source to its checked-out revision.
//
//	hg revert <path>
func (c *Client) Revert(h model.SourceHandle, call options.Layer) (*Result, error) {
	return c.sideEffect(model.KindRevert, h, "", call, "revert")
}

// Update moves the working directory to rev, or to the tip of the current
// branch when rev is empty. The surface is attached to h, but the update
// itself is repository-wide.
//
//	hg update [-r <rev>]
func (c *Client) Update(h model.SourceHandle, rev string, call options.Layer) (*Result, error) {
	return c.sideEffect(model.KindUpdate, h, rev, call, "update", revArgs(rev)...)
}

// Commit records the changes to the source with message. Lines starting
// with "HG:" are stripped first; a message that ends up empty aborts the
// commit with model.ErrEmptyCommitMessage.
//
//	hg commit -m <message> <path>
func (c *Client) Commit(h model.SourceHandle, message string, call options.Layer) (*Result, error) {
	msg, err := CleanCommitMessage(message)
	if err != nil {
		return nil, err
	}
	return c.sideEffect(model.KindCommit, h, "", call, "commit", "-m", runner.Quote(msg))
}

// sideEffect runs a command whose output is optional. The source path is
// appended to args except for update.
func (c *Client) sideEffect(kind model.CommandKind, h model.SourceHandle, label string, call options.Layer, subcommand string, args ...string) (*Result, error) {
	path, err := c.path(h)
	if err != nil {
		return nil, err
	}
	if kind != model.KindUpdate {
		args = append(args, path)
	}

	exe, err := c.session.Execute(model.Invocation{
		Kind:        kind,
		Subcommand:  subcommand,
		Args:        args,
		StatusLabel: label,
		Source:      h,
	}, call)
	if err != nil && !errors.Is(err, model.ErrNoOutput) {
		return &Result{Execution: exe}, err
	}

	info, err := c.Info(h, call)
	if err != nil {
		// The command itself succeeded; a failed refresh only leaves the
		// info incomplete.
		c.logger.Warn("refreshing source info failed",
			zap.String("kind", kind.String()), zap.Error(err))
	}
	return &Result{Execution: exe, Info: info}, nil
}

// path returns the quoted location of the source h.
func (c *Client) path(h model.SourceHandle) (string, error) {
	src, err := c.session.Sources().Get(h)
	if err != nil {
		return "", err
	}
	return runner.Quote(src.Path), nil
}

// revArgs returns "-r <rev>" or nothing for an empty rev.
func revArgs(rev string) []string {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return nil
	}
	return []string{"-r", runner.Quote(rev)}
}
