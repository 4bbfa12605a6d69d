package display

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/shinji-kodama/hgbuf/internal/surface"
)

// WriteSurfaceTable prints live surfaces as an aligned table. Ages are
// relative to now.
//
//	ID        NAME                 KIND      PLACEMENT         AGE
//	3f2a9c1e  a.txt _vimdiff 3_    vimdiff   split-vertical    now
//	b71d0e44  -                    status    replace           2 minutes ago
func WriteSurfaceTable(w io.Writer, surfaces []*surface.Surface, now time.Time) error {
	if len(surfaces) == 0 {
		_, err := fmt.Fprintln(w, "No live surfaces.")
		return err
	}

	if _, err := fmt.Fprintf(w, "%-9s %-30s %-9s %-17s %s\n",
		"ID", "NAME", "KIND", "PLACEMENT", "AGE"); err != nil {
		return err
	}
	for _, s := range surfaces {
		name := s.Name
		if name == "" {
			name = "-"
		}
		if _, err := fmt.Fprintf(w, "%-9s %-30s %-9s %-17s %s\n",
			shortID(s.ID),
			name,
			s.Kind.String(),
			s.Placement.String(),
			Age(s.CreatedAt, now),
		); err != nil {
			return err
		}
	}
	return nil
}

// Age renders how long ago created is, e.g. "2 minutes ago".
func Age(created, now time.Time) string {
	return humanize.RelTime(created, now, "ago", "from now")
}
