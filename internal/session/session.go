// Package session ties the runner, the option set, the source table and
// the surface registry together for one editor or CLI process.
//
// A Session replaces process-wide state: it owns the registry and the
// active comparison, is initialized and torn down explicitly, and runs
// every invocation through the idle -> running -> displayed state machine.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/options"
	"github.com/shinji-kodama/hgbuf/internal/placement"
	"github.com/shinji-kodama/hgbuf/internal/runner"
	"github.com/shinji-kodama/hgbuf/internal/source"
	"github.com/shinji-kodama/hgbuf/internal/surface"
)

// ErrNotActive is returned when a session is used before Init or after
// Teardown.
var ErrNotActive = errors.New("session is not active")

// Executor runs a command line. *runner.Runner implements it.
type Executor interface {
	Run(commandLine string, toleratesNonZeroExit bool) (*runner.Output, error)
}

// Config holds the collaborators of a Session.
type Config struct {
	// Options is the session-wide option set. Its override layer is
	// replaced on every call.
	Options options.Set

	// Executor runs commands. Defaults to a runner in the current
	// directory.
	Executor Executor

	// Presenter shows surfaces. Optional.
	Presenter surface.Presenter

	// Logger is optional.
	Logger *zap.Logger

	// Clock is optional and defaults to time.Now.
	Clock func() time.Time
}

type lifecycle int

const (
	lifecycleNew lifecycle = iota
	lifecycleActive
	lifecycleTornDown
)

// Session is the per-process context for running commands into result
// surfaces. It is not safe for concurrent use: invocations are strictly
// sequential.
type Session struct {
	// ID identifies the session in logs.
	ID string

	opts     options.Set
	exec     Executor
	sources  *source.Table
	registry *surface.Registry
	bus      *surface.Bus
	logger   *zap.Logger

	state      lifecycle
	seq        int
	executions map[string]*Execution
}

// New creates a Session. Call Init before executing anything.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exec := cfg.Executor
	if exec == nil {
		exec = runner.New("", logger)
	}

	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))

	sources := source.NewTable()
	bus := surface.NewBus()
	s := &Session{
		ID:      id,
		opts:    cfg.Options,
		exec:    exec,
		sources: sources,
		bus:     bus,
		logger:  logger,
		registry: surface.NewRegistry(surface.Config{
			Sources:   sources,
			Presenter: cfg.Presenter,
			Bus:       bus,
			Logger:    logger,
			Clock:     cfg.Clock,
		}),
		executions: make(map[string]*Execution),
	}
	bus.Subscribe(surface.EventSurfaceClosed, s.onSurfaceClosed)
	return s
}

// Init activates the session and fires EventSubsystemInitialized.
func (s *Session) Init() error {
	if s.state != lifecycleNew {
		return fmt.Errorf("session %s: already initialized", s.ID)
	}
	s.state = lifecycleActive
	s.logger.Debug("session initialized")
	s.bus.Emit(surface.EventSubsystemInitialized, nil)
	return nil
}

// Teardown closes every surface, ends any comparison and fires
// EventSubsystemTornDown. It returns the number of surfaces closed and is
// a no-op on an inactive session.
func (s *Session) Teardown() int {
	if s.state != lifecycleActive {
		return 0
	}
	n := s.registry.CloseAll()
	s.state = lifecycleTornDown
	s.logger.Debug("session torn down", zap.Int("closed", n))
	s.bus.Emit(surface.EventSubsystemTornDown, nil)
	return n
}

// Active reports whether the session is between Init and Teardown.
func (s *Session) Active() bool {
	return s.state == lifecycleActive
}

// Options returns the session-wide option set.
func (s *Session) Options() options.Set {
	return s.opts
}

// SetOption defines name in the window scope for the rest of the session.
func (s *Session) SetOption(name, value string) {
	if s.opts.Window == nil {
		s.opts.Window = options.Layer{}
	}
	s.opts.Window[name] = value
}

// Sources returns the session's source table.
func (s *Session) Sources() *source.Table {
	return s.sources
}

// Registry returns the session's surface registry.
func (s *Session) Registry() *surface.Registry {
	return s.registry
}

// Bus returns the lifecycle event bus.
func (s *Session) Bus() *surface.Bus {
	return s.bus
}

// CommandLine builds the command line for inv, resolving the executable
// through the option layers with call as the override layer.
func (s *Session) CommandLine(inv model.Invocation, call options.Layer) string {
	set := s.opts.WithOverride(call)
	exe := set.Resolve(options.Exec, options.DefaultExec)
	return runner.CommandLine(exe, inv.Subcommand, inv.Args...)
}

// Run executes inv without creating a surface. It is used for queries
// whose output is parsed rather than displayed.
func (s *Session) Run(inv model.Invocation, call options.Layer) (*runner.Output, error) {
	if !s.Active() {
		return nil, ErrNotActive
	}
	return s.exec.Run(s.CommandLine(inv, call), inv.ToleratesNonZeroExit)
}

// Execute runs inv and displays its output in a result surface.
//
// The returned Execution is never nil. On error it records how far the
// execution got: a stale source stops it in the idle state, a failed
// command in failed-exit or failed-empty.
func (s *Session) Execute(inv model.Invocation, call options.Layer) (*Execution, error) {
	return s.execute(inv, call, placement.FeatureResult)
}

// StartComparison begins a multi-way comparison of the source h, disposing
// of any previous comparison.
func (s *Session) StartComparison(h model.SourceHandle) (*surface.Comparison, error) {
	if !s.Active() {
		return nil, ErrNotActive
	}
	return s.registry.StartComparison(h)
}

// ExecuteComparison runs inv and adds the resulting surface to the active
// comparison of inv.Source. Placement uses the comparison-specific option.
func (s *Session) ExecuteComparison(inv model.Invocation, call options.Layer) (*Execution, error) {
	return s.execute(inv, call, placement.FeatureComparison)
}

func (s *Session) execute(inv model.Invocation, call options.Layer, feature placement.Feature) (*Execution, error) {
	s.seq++
	exe := &Execution{
		ID:          fmt.Sprintf("%s-%d", s.ID[:8], s.seq),
		Invocation:  inv,
		CommandLine: s.CommandLine(inv, call),
		State:       StateIdle,
	}
	log := s.logger.With(zap.String("execution", exe.ID), zap.String("kind", inv.Kind.String()))

	fail := func(err error) (*Execution, error) {
		exe.Err = err
		log.Debug("execution stopped", zap.String("state", string(exe.State)), zap.Error(err))
		return exe, err
	}

	if !s.Active() {
		return fail(ErrNotActive)
	}
	if _, err := s.sources.Get(inv.Source); err != nil {
		return fail(err)
	}

	s.must(exe, StateRunning)
	out, err := s.exec.Run(exe.CommandLine, inv.ToleratesNonZeroExit)
	if err != nil {
		if errors.Is(err, model.ErrNoOutput) {
			s.must(exe, StateFailedEmpty)
		} else {
			s.must(exe, StateFailedExit)
		}
		return fail(err)
	}
	exe.Output = out
	s.must(exe, StateSucceeded)

	set := s.opts.WithOverride(call)
	req := surface.Request{
		Invocation:  inv,
		Output:      out.Stdout,
		Placement:   placement.For(set, feature),
		Named:       set.Bool(options.NameResultSurfaces, false),
		Marker:      set.Resolve(options.NameMarker, options.DefaultNameMarker),
		AutoDispose: set.Bool(options.DeleteOnHide, false),
		Dedupe:      set.Bool(options.Dedupe, false),
		Comparison:  feature == placement.FeatureComparison,
	}

	surf, err := s.registry.CreateOrReuse(req)
	if err != nil {
		return fail(err)
	}
	exe.Surface = surf
	s.must(exe, StateDisplayed)

	// A refreshed surface is owned by its newest execution; the one it
	// supersedes is closed.
	if prev, ok := s.executions[surf.ID]; ok && prev != exe {
		s.must(prev, StateClosed)
	}
	s.executions[surf.ID] = exe

	log.Debug("execution displayed",
		zap.String("surface", surf.ID),
		zap.String("name", surf.Name),
		zap.String("placement", surf.Placement.String()))
	return exe, nil
}

// ExecutionFor returns the execution that currently owns surface id.
func (s *Session) ExecutionFor(id string) (*Execution, bool) {
	e, ok := s.executions[id]
	return e, ok
}

func (s *Session) onSurfaceClosed(_ surface.Event, surf *surface.Surface) {
	exe, ok := s.executions[surf.ID]
	if !ok {
		return
	}
	delete(s.executions, surf.ID)
	s.must(exe, StateClosed)
}

// must applies a transition driven by the session itself. An illegal
// transition is a session bug and is logged at warn level.
func (s *Session) must(exe *Execution, to State) {
	if err := exe.transition(to); err != nil {
		s.logger.Warn("state machine violation", zap.Error(err))
	}
}
