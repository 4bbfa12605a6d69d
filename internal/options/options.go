// Package options resolves hgbuf settings from layered scopes.
//
// A lookup walks the layers from narrowest to broadest and the first
// layer that defines the name wins; values are never merged. Resolution
// is total: a name defined nowhere yields the caller's default.
package options

import (
	"strconv"
	"strings"
)

// Option names understood by hgbuf.
const (
	// Exec is the executable used for every command.
	Exec = "exec"

	// Edit selects how a result surface is placed: "replace", "split"
	// or "reuse".
	Edit = "edit"

	// Split is the orientation used when splitting: "horizontal" or
	// "vertical".
	Split = "split"

	// DiffSplit is the orientation used by the comparison view. It takes
	// precedence over Edit and Split for that feature only.
	DiffSplit = "diff_split"

	// Placement is a per-call placement directive; it is only honoured in
	// the override scope.
	Placement = "placement"

	// NameResultSurfaces enables generated surface names.
	NameResultSurfaces = "name_result_surfaces"

	// NameMarker surrounds the command label in generated names.
	NameMarker = "name_marker"

	// Dedupe closes earlier surfaces of the same source and command kind
	// before a new one is created.
	Dedupe = "dedupe"

	// DeleteOnHide asks the presenter to dispose of a surface as soon as
	// it is hidden.
	DeleteOnHide = "delete_on_hide"

	// DiffOpt holds extra options passed to diff.
	DiffOpt = "diff_opt"
)

// Built-in defaults.
const (
	DefaultExec       = "hg"
	DefaultNameMarker = "_"
)

// Scope identifies one configuration layer.
type Scope int

const (
	// ScopeDefault means no layer defined the name.
	ScopeDefault Scope = iota
	ScopeOverride
	ScopeWindow
	ScopeBuffer
	ScopeGlobal
)

// String returns the scope name for logs and the info command.
func (s Scope) String() string {
	switch s {
	case ScopeOverride:
		return "override"
	case ScopeWindow:
		return "window"
	case ScopeBuffer:
		return "buffer"
	case ScopeGlobal:
		return "global"
	default:
		return "default"
	}
}

// Layer is a flat name to value mapping for one scope.
type Layer map[string]string

// Set is the layered option set. The zero value resolves everything to
// the supplied defaults.
type Set struct {
	// Override holds call-scoped values, e.g. command flags.
	Override Layer

	// Window holds session values, e.g. repeated -o flags.
	Window Layer

	// Buffer holds repository-local values (.hgbuf.jsonc).
	Buffer Layer

	// Global holds user-wide values (config.yaml).
	Global Layer
}

// WithOverride returns a copy of s whose override layer is override. The
// receiver is left untouched, so a session-wide Set can be reused across
// calls.
func (s Set) WithOverride(override Layer) Set {
	s.Override = override
	return s
}

// Lookup returns the value for name and the scope that defined it.
func (s Set) Lookup(name string) (string, Scope, bool) {
	layers := []struct {
		scope Scope
		layer Layer
	}{
		{ScopeOverride, s.Override},
		{ScopeWindow, s.Window},
		{ScopeBuffer, s.Buffer},
		{ScopeGlobal, s.Global},
	}
	for _, l := range layers {
		if v, ok := l.layer[name]; ok {
			return v, l.scope, true
		}
	}
	return "", ScopeDefault, false
}

// Resolve returns the first defined value for name, or def.
func (s Set) Resolve(name, def string) string {
	if v, _, ok := s.Lookup(name); ok {
		return v
	}
	return def
}

// Bool resolves name as a boolean. Besides the strconv.ParseBool forms it
// accepts "yes"/"no" and "on"/"off". A value that does not parse yields def.
func (s Set) Bool(name string, def bool) bool {
	v, _, ok := s.Lookup(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// ParseAssignment parses a "name=value" pair as given to the -o flag.
func ParseAssignment(s string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", false
	}
	return name, value, true
}
