package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/hgbuf/internal/display"
	"github.com/shinji-kodama/hgbuf/internal/hg"
	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/options"
	"github.com/shinji-kodama/hgbuf/internal/placement"
	"github.com/shinji-kodama/hgbuf/internal/runner"
	"github.com/shinji-kodama/hgbuf/internal/session"
	"github.com/shinji-kodama/hgbuf/internal/surface"
)

// app bundles what one CLI invocation needs: a session wired to the hg
// runner and the terminal presenter.
type app struct {
	session  *session.Session
	client   *hg.Client
	terminal *display.Terminal
	out      io.Writer
}

// newApp loads the option layers for the current directory and starts a
// session. In JSON mode surfaces are not printed by the presenter; the
// command prints them as JSON instead.
func newApp(out io.Writer) (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to determine current directory", err)
	}

	set, err := loadOptions(cwd, configPath, optionAssignments)
	if err != nil {
		return nil, err
	}

	term := display.NewTerminal(out)
	var presenter surface.Presenter
	if !IsJSONOutput() {
		presenter = term
	}

	s := session.New(session.Config{
		Options:   set,
		Executor:  runner.New(cwd, logger),
		Presenter: presenter,
		Logger:    logger,
	})
	if err := s.Init(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to start session", err)
	}
	VerboseLog("Session %s started in %s", s.ID, cwd)

	return &app{
		session:  s,
		client:   hg.NewClient(s, logger),
		terminal: term,
		out:      out,
	}, nil
}

// close tears the session down, disposing of every surface.
func (a *app) close() {
	n := a.session.Teardown()
	logger.Debug("session closed", zap.String("session", a.session.ID), zap.Int("surfaces", n))
}

// source registers path as a source and returns its handle.
func (a *app) source(path string) model.SourceHandle {
	return a.session.Sources().Intern(path)
}

// loadOptions builds the option set: the global YAML file, the nearest
// .hgbuf.jsonc above dir, and the -o assignments as the window scope.
func loadOptions(dir, globalPath string, assignments []string) (options.Set, error) {
	var set options.Set

	if globalPath == "" {
		p, err := options.DefaultGlobalPath()
		if err != nil {
			VerboseLog("No global option file: %v", err)
		}
		globalPath = p
	}
	if globalPath != "" {
		layer, err := options.LoadGlobal(globalPath)
		if err != nil {
			return set, model.WrapCLIError(model.ExitGeneralError, "failed to load global options", err)
		}
		VerboseLog("Loaded %d global options from %s", len(layer), globalPath)
		set.Global = layer
	}

	if local := options.FindLocal(dir); local != "" {
		layer, err := options.LoadLocal(local)
		if err != nil {
			return set, model.WrapCLIError(model.ExitGeneralError, "failed to load repository options", err)
		}
		VerboseLog("Loaded %d repository options from %s", len(layer), local)
		set.Buffer = layer
	}

	window, err := parseAssignments(assignments)
	if err != nil {
		return set, err
	}
	set.Window = window
	return set, nil
}

// parseAssignments converts -o name=value flags into a layer. A later
// assignment of the same name wins.
func parseAssignments(assignments []string) (options.Layer, error) {
	layer := options.Layer{}
	for _, a := range assignments {
		name, value, ok := options.ParseAssignment(a)
		if !ok {
			return nil, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid option %q: expected name=value", a))
		}
		layer[name] = value
	}
	return layer, nil
}

// overrideFlags are the per-command flags. They form the override scope,
// which beats every other option layer.
type overrideFlags struct {
	// placement forces the placement directive.
	placement string

	// named enables or disables generated surface names.
	named bool
}

// register binds the override flags to cmd.
func (f *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.placement, "placement", "p", "",
		"Where to show the output: replace, horizontal, vertical, reuse")
	cmd.Flags().BoolVar(&f.named, "named", false, "Give the result surface a generated name")
}

// layer returns the override layer. Only flags set on the command line
// are included, so an unset --named does not mask lower scopes.
func (f *overrideFlags) layer(cmd *cobra.Command) (options.Layer, error) {
	layer := options.Layer{}
	if f.placement != "" {
		d, err := placement.ParseDirective(f.placement)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "invalid --placement", err)
		}
		layer[options.Placement] = d.String()
	}
	if cmd.Flags().Changed("named") {
		layer[options.NameResultSurfaces] = strconv.FormatBool(f.named)
	}
	return layer, nil
}

// commandError wraps an hg layer error in a CLIError carrying the exit
// code that matches its cause.
func commandError(name string, err error) error {
	return model.WrapCLIError(model.ExitCodeFor(err), fmt.Sprintf("hg %s failed", name), err)
}
