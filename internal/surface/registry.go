package surface

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/placement"
	"github.com/shinji-kodama/hgbuf/internal/source"
)

// MaxNameAttempts bounds the numeric suffixes tried when a generated name
// is taken.
const MaxNameAttempts = 10000

// ErrNotFound is returned for an ID that is not a live surface.
var ErrNotFound = errors.New("surface not found")

// ErrNoComparison is returned when a comparison surface is requested for a
// source that has no active comparison.
var ErrNoComparison = errors.New("no active comparison for source")

// Request describes a surface to create from a successful invocation.
type Request struct {
	// Invocation is the command that produced Output.
	Invocation model.Invocation

	// Output is the captured command output.
	Output string

	// Placement is the resolved placement directive.
	Placement placement.Directive

	// Named enables a generated name.
	Named bool

	// Marker surrounds the label in the generated name. Empty means "_".
	Marker string

	// AutoDispose is forwarded to the presenter.
	AutoDispose bool

	// Dedupe closes every live surface for the same (source, kind) first.
	Dedupe bool

	// Comparison adds the surface to the active comparison of its source.
	Comparison bool
}

// Config holds the collaborators of a Registry.
type Config struct {
	// Sources resolves back-references. Required.
	Sources *source.Table

	// Presenter shows surfaces. Optional.
	Presenter Presenter

	// Bus receives lifecycle events. Optional; a private bus is created.
	Bus *Bus

	// Logger is optional.
	Logger *zap.Logger

	// Clock is optional and defaults to time.Now.
	Clock func() time.Time
}

// Registry tracks the live result surfaces of a session.
//
// A surface is keyed by ID and, when named, by name; names are unique
// among live surfaces. Registry is not safe for concurrent use: it is
// mutated only by the thread that issues commands.
type Registry struct {
	sources   *source.Table
	presenter Presenter
	bus       *Bus
	logger    *zap.Logger
	now       func() time.Time

	surfaces map[string]*Surface
	names    map[string]string
	seq      uint64

	comparison *Comparison

	maxNameAttempts int
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		sources:         cfg.Sources,
		presenter:       cfg.Presenter,
		bus:             cfg.Bus,
		logger:          cfg.Logger,
		now:             cfg.Clock,
		surfaces:        make(map[string]*Surface),
		names:           make(map[string]string),
		maxNameAttempts: MaxNameAttempts,
	}
	if r.sources == nil {
		r.sources = source.NewTable()
	}
	if r.bus == nil {
		r.bus = NewBus()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Bus returns the event bus the registry notifies.
func (r *Registry) Bus() *Bus {
	return r.bus
}

// Sources returns the source table used to resolve back-references.
func (r *Registry) Sources() *source.Table {
	return r.sources
}

// CreateOrReuse registers a surface for req and presents it.
//
// The source is validated before anything is registered. With the
// ReuseExisting directive a live surface for the same (source, kind) is
// refreshed in place; if there is none a new surface is created with the
// Replace directive. Comparison requests never reuse: every revision gets
// its own member surface. With Dedupe the older surfaces for (source, kind)
// are closed only once the new surface has been presented. The created
// notification fires only after the surface is fully registered and
// presented.
func (r *Registry) CreateOrReuse(req Request) (*Surface, error) {
	inv := req.Invocation
	src, err := r.sources.Get(inv.Source)
	if err != nil {
		return nil, err
	}

	if req.Comparison && (r.comparison == nil || r.comparison.Origin != src.Handle) {
		return nil, fmt.Errorf("%w: %s", ErrNoComparison, src.Path)
	}

	if req.Placement == placement.ReuseExisting && req.Comparison {
		req.Placement = placement.SplitVertical
	}
	if req.Placement == placement.ReuseExisting {
		if existing := r.latest(src.Handle, inv.Kind); existing != nil {
			return r.refresh(existing, src, req)
		}
		req.Placement = placement.Replace
	}

	// Comparison surfaces are reset by StartComparison, not by Dedupe.
	var victims []*Surface
	if req.Dedupe && !req.Comparison {
		victims = r.collect(src.Handle, inv.Kind)
	}

	var name string
	if req.Named {
		name, err = r.uniqueName(BaseName(src.Path, inv.Label(), req.Marker), victims)
		if err != nil {
			return nil, err
		}
	}

	r.seq++
	s := &Surface{
		ID:          uuid.NewString(),
		Name:        name,
		Source:      src.Handle,
		Kind:        inv.Kind,
		StatusLabel: inv.StatusLabel,
		Output:      req.Output,
		Placement:   req.Placement,
		AutoDispose: req.AutoDispose,
		CreatedAt:   r.now(),
		Seq:         r.seq,
	}

	r.surfaces[s.ID] = s
	if name != "" {
		r.names[name] = s.ID
	}
	if req.Comparison {
		r.comparison.members = append(r.comparison.members, s.ID)
	}

	if r.presenter != nil {
		if err := r.presenter.Present(s.display()); err != nil {
			r.unregister(s)
			if req.Comparison {
				r.comparison.remove(s.ID)
			}
			// The new surface may have taken over a victim's name.
			for _, v := range victims {
				if v.Name != "" {
					if _, taken := r.names[v.Name]; !taken {
						r.names[v.Name] = v.ID
					}
				}
			}
			return nil, fmt.Errorf("presenting %s: %w", describe(s), err)
		}
	}

	r.closeAll(victims, src.Handle, inv.Kind)

	r.logger.Debug("surface created",
		zap.String("id", s.ID),
		zap.String("name", s.Name),
		zap.String("kind", s.Kind.String()),
		zap.Stringer("source", s.Source),
		zap.String("placement", s.Placement.String()))

	r.bus.Emit(EventSurfaceCreated, s)
	return s, nil
}

// refresh replaces the output of an existing surface and re-presents it.
// The surface keeps its ID and creation time. A named surface whose label
// changed is renamed after the new label.
func (r *Registry) refresh(s *Surface, src source.Source, req Request) (*Surface, error) {
	prevOutput, prevLabel, prevName := s.Output, s.StatusLabel, s.Name
	s.Output = req.Output
	s.StatusLabel = req.Invocation.StatusLabel

	if s.Name != "" && s.StatusLabel != prevLabel {
		name, err := r.uniqueName(BaseName(src.Path, req.Invocation.Label(), req.Marker), []*Surface{s})
		if err != nil {
			s.Output, s.StatusLabel = prevOutput, prevLabel
			return nil, err
		}
		r.rename(s, name)
	}

	if r.presenter != nil {
		d := s.display()
		d.Placement = placement.ReuseExisting
		if err := r.presenter.Present(d); err != nil {
			s.Output, s.StatusLabel = prevOutput, prevLabel
			r.rename(s, prevName)
			return nil, fmt.Errorf("presenting %s: %w", describe(s), err)
		}
	}

	r.logger.Debug("surface refreshed", zap.String("id", s.ID), zap.String("name", s.Name))
	r.bus.Emit(EventSurfaceCreated, s)
	return s, nil
}

// rename moves the name entry of s to name.
func (r *Registry) rename(s *Surface, name string) {
	if s.Name == name {
		return
	}
	if s.Name != "" && r.names[s.Name] == s.ID {
		delete(r.names, s.Name)
	}
	s.Name = name
	if name != "" {
		r.names[name] = s.ID
	}
}

// BaseName builds the generated surface name "<path> <marker><label><marker>",
// e.g. "bar.txt _status_".
func BaseName(path, label, marker string) string {
	if marker == "" {
		marker = "_"
	}
	return path + " " + marker + label + marker
}

// uniqueName returns base if it is free, otherwise "base (n)" for the
// smallest free n. Names held by the surfaces in free count as available.
func (r *Registry) uniqueName(base string, free []*Surface) (string, error) {
	available := func(name string) bool {
		id, taken := r.names[name]
		if !taken {
			return true
		}
		for _, s := range free {
			if s.ID == id {
				return true
			}
		}
		return false
	}

	if available(base) {
		return base, nil
	}
	for n := 1; n <= r.maxNameAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if available(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q after %d attempts", model.ErrNameCollisionExhausted, base, r.maxNameAttempts)
}

// Get returns the live surface with the given ID.
func (r *Registry) Get(id string) (*Surface, bool) {
	s, ok := r.surfaces[id]
	return s, ok
}

// Lookup returns the live surface with the given name.
func (r *Registry) Lookup(name string) (*Surface, bool) {
	id, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.Get(id)
}

// List returns the live surfaces in creation order.
func (r *Registry) List() []*Surface {
	out := make([]*Surface, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Len returns the number of live surfaces.
func (r *Registry) Len() int {
	return len(r.surfaces)
}

// FindBySource returns the most recently created live surface for h.
func (r *Registry) FindBySource(h model.SourceHandle) (*Surface, bool) {
	var found *Surface
	for _, s := range r.surfaces {
		if s.Source == h && (found == nil || s.Seq > found.Seq) {
			found = s
		}
	}
	return found, found != nil
}

// latest returns the most recent live surface for (h, kind), or nil.
func (r *Registry) latest(h model.SourceHandle, kind model.CommandKind) *Surface {
	var found *Surface
	for _, s := range r.surfaces {
		if s.Source == h && s.Kind == kind && (found == nil || s.Seq > found.Seq) {
			found = s
		}
	}
	return found
}

// SourceOf re-validates the back-reference of surface id and returns its
// source. A destroyed source yields *model.StaleReferenceError.
func (r *Registry) SourceOf(id string) (source.Source, error) {
	s, ok := r.surfaces[id]
	if !ok {
		return source.Source{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.sources.Get(s.Source)
}

// WipeAllForSource closes every live surface for (h, kind) and returns how
// many were closed. Other surfaces are untouched.
func (r *Registry) WipeAllForSource(h model.SourceHandle, kind model.CommandKind) int {
	victims := r.collect(h, kind)
	r.closeAll(victims, h, kind)
	return len(victims)
}

// collect returns the live surfaces for (h, kind) in creation order.
func (r *Registry) collect(h model.SourceHandle, kind model.CommandKind) []*Surface {
	var out []*Surface
	for _, s := range r.surfaces {
		if s.Source == h && s.Kind == kind {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (r *Registry) closeAll(victims []*Surface, h model.SourceHandle, kind model.CommandKind) {
	for _, s := range victims {
		r.close(s)
	}
	if len(victims) > 0 {
		r.logger.Debug("wiped surfaces",
			zap.Stringer("source", h),
			zap.String("kind", kind.String()),
			zap.Int("count", len(victims)))
	}
}

// Close removes the surface with the given ID. Closing the last member of
// a comparison ends the comparison.
func (r *Registry) Close(id string) error {
	s, ok := r.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.close(s)
	return nil
}

// CloseAll removes every live surface and ends any comparison.
func (r *Registry) CloseAll() int {
	all := r.List()
	for _, s := range all {
		r.close(s)
	}
	r.comparison = nil
	return len(all)
}

// close unregisters s, disposes of it and notifies subscribers.
func (r *Registry) close(s *Surface) {
	if _, live := r.surfaces[s.ID]; !live {
		return
	}
	r.unregister(s)

	if c := r.comparison; c != nil {
		if c.remove(s.ID) && len(c.members) == 0 {
			r.logger.Debug("comparison ended", zap.String("id", c.ID))
			r.comparison = nil
		}
	}

	if r.presenter != nil {
		r.presenter.Dispose(s.ID)
	}
	r.bus.Emit(EventSurfaceClosed, s)
}

func (r *Registry) unregister(s *Surface) {
	delete(r.surfaces, s.ID)
	if s.Name != "" && r.names[s.Name] == s.ID {
		delete(r.names, s.Name)
	}
}

func describe(s *Surface) string {
	if s.Name != "" {
		return fmt.Sprintf("surface %q", s.Name)
	}
	return "surface " + s.ID
}
