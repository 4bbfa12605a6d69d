// Package display renders result surfaces to a terminal.
//
// A terminal cannot split or replace views, so the Terminal presenter
// prints each surface as a block headed by a banner that names the
// surface and the placement directive it was given. Dispose only forgets
// the surface. Styling uses lipgloss and degrades to plain text when the
// writer is not a TTY.
package display
