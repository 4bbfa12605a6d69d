// Package source keeps the set of files that result surfaces refer to.
//
// Sources are owned by the caller (the editor, the CLI). Surfaces only
// hold a model.SourceHandle, and every dereference goes through Table so
// that a source removed behind a surface's back is reported as
// model.ErrStaleSource instead of being read after the fact.
package source

import (
	"path/filepath"

	"github.com/shinji-kodama/hgbuf/internal/model"
)

// Source is an identifiable unit of original content, typically a tracked
// file.
type Source struct {
	// Handle is the identity of the source inside its Table.
	Handle model.SourceHandle `json:"handle"`

	// Path is the location of the source as given by the caller.
	Path string `json:"path"`
}

// Name returns the base name of the source path, used when a surface name
// should not expose the full path.
func (s Source) Name() string {
	return filepath.Base(s.Path)
}

type slot struct {
	generation uint32
	live       bool
	path       string
}

// Table is an arena of sources addressed by generation-checked handles.
// It is not safe for concurrent use.
type Table struct {
	slots []slot
	free  []uint32
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Add registers a source at path and returns its handle. Freed slots are
// reused with a new generation.
func (t *Table) Add(path string) model.SourceHandle {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.generation++
		s.live = true
		s.path = path
		return model.SourceHandle{Index: idx, Generation: s.generation}
	}

	t.slots = append(t.slots, slot{generation: 1, live: true, path: path})
	return model.SourceHandle{Index: uint32(len(t.slots) - 1), Generation: 1}
}

// Intern returns the handle of the live source at path, adding it if it is
// not registered yet.
func (t *Table) Intern(path string) model.SourceHandle {
	if h, ok := t.Find(path); ok {
		return h
	}
	return t.Add(path)
}

// Find returns the handle of the live source registered at path.
func (t *Table) Find(path string) (model.SourceHandle, bool) {
	for i, s := range t.slots {
		if s.live && s.path == path {
			return model.SourceHandle{Index: uint32(i), Generation: s.generation}, true
		}
	}
	return model.SourceHandle{}, false
}

// Get resolves h. A handle whose source was removed, or that was never
// issued by this table, yields a *model.StaleReferenceError.
func (t *Table) Get(h model.SourceHandle) (Source, error) {
	if !t.Valid(h) {
		return Source{}, &model.StaleReferenceError{Handle: h}
	}
	return Source{Handle: h, Path: t.slots[h.Index].path}, nil
}

// Valid reports whether h still refers to a live source.
func (t *Table) Valid(h model.SourceHandle) bool {
	if h.IsZero() || int(h.Index) >= len(t.slots) {
		return false
	}
	s := t.slots[h.Index]
	return s.live && s.generation == h.Generation
}

// Remove destroys the source behind h. It reports false if h was already
// stale.
func (t *Table) Remove(h model.SourceHandle) bool {
	if !t.Valid(h) {
		return false
	}
	s := &t.slots[h.Index]
	s.live = false
	s.path = ""
	t.free = append(t.free, h.Index)
	return true
}

// Len returns the number of live sources.
func (t *Table) Len() int {
	return len(t.slots) - len(t.free)
}
