// Package hg provides the Mercurial command layer of hgbuf.
//
// All operations are performed by shelling out to the hg binary through a
// session.Session, rather than reimplementing any version-control logic.
// The executable is resolved from the "exec" option, so a wrapper script
// or a specific hg installation can be used per repository.
//
// Display commands (status, log, annotate, diff, review, compare) produce
// result surfaces. Side-effect commands (add, revert, update, commit)
// usually print nothing; for those an empty output is a success and the
// source info is re-read instead.
package hg
