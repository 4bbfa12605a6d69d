// Package model defines the domain types for the hgbuf CLI.
//
// These types are shared between the command runner, the surface registry,
// the hg command layer and the CLI. They are transient: nothing here is
// persisted between process runs.
package model

import (
	"fmt"
	"strings"
)

// CommandKind tags the kind of command that produced a result surface.
// The kind is part of the (source, kind) de-duplication key and of the
// generated surface name.
type CommandKind string

const (
	// KindAdd schedules a file for addition.
	KindAdd CommandKind = "add"

	// KindAnnotate shows per-line revision information.
	KindAnnotate CommandKind = "annotate"

	// KindCommit records changes.
	KindCommit CommandKind = "commit"

	// KindDiff shows differences against a revision. The underlying tool may
	// exit non-zero when differences exist, so diff invocations tolerate it.
	KindDiff CommandKind = "diff"

	// KindLog shows revision history.
	KindLog CommandKind = "log"

	// KindReview shows the file content at a given revision.
	KindReview CommandKind = "review"

	// KindRevert restores a file to its checked-out revision.
	KindRevert CommandKind = "revert"

	// KindStatus shows the working-copy state of a file.
	KindStatus CommandKind = "status"

	// KindUpdate moves the working copy to another revision.
	KindUpdate CommandKind = "update"

	// KindCompare is a revision view that belongs to a multi-way comparison
	// session.
	KindCompare CommandKind = "vimdiff"
)

// String satisfies fmt.Stringer.
func (k CommandKind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the known command kinds.
func (k CommandKind) IsValid() bool {
	switch k {
	case KindAdd, KindAnnotate, KindCommit, KindDiff, KindLog,
		KindReview, KindRevert, KindStatus, KindUpdate, KindCompare:
		return true
	default:
		return false
	}
}

// ParseCommandKind converts a string to a CommandKind, case-insensitively.
func ParseCommandKind(s string) (CommandKind, error) {
	kind := CommandKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid command kind: %q", s)
	}
	return kind, nil
}

// SourceHandle identifies a Source inside a source.Table.
//
// Handles are index+generation pairs: when a source is removed its slot
// generation is bumped, so every handle issued before the removal stops
// resolving. The zero value never resolves.
type SourceHandle struct {
	Index      uint32 `json:"index"`
	Generation uint32 `json:"generation"`
}

// IsZero reports whether h is the zero handle.
func (h SourceHandle) IsZero() bool {
	return h.Generation == 0
}

// String returns a compact "index@generation" representation for logs.
func (h SourceHandle) String() string {
	return fmt.Sprintf("%d@%d", h.Index, h.Generation)
}

// Invocation is the value object describing one command run against a
// source. It is not kept after the call that produces a surface.
type Invocation struct {
	// Kind tags the command for naming and de-duplication.
	Kind CommandKind

	// Subcommand is the first argument passed to the executable.
	Subcommand string

	// Args holds the remaining arguments, already quoted for the command
	// line (see shellquote.Join).
	Args []string

	// StatusLabel is an optional qualifier shown in the surface name,
	// for example a revision number.
	StatusLabel string

	// Source is the file the command relates to.
	Source SourceHandle

	// ToleratesNonZeroExit makes the runner accept a non-zero exit status.
	ToleratesNonZeroExit bool
}

// Label returns the kind plus the optional status label, e.g. "diff 3".
func (inv Invocation) Label() string {
	if inv.StatusLabel == "" {
		return inv.Kind.String()
	}
	return inv.Kind.String() + " " + inv.StatusLabel
}
