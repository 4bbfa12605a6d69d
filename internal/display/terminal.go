package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shinji-kodama/hgbuf/internal/placement"
	"github.com/shinji-kodama/hgbuf/internal/surface"
)

// Terminal is a surface.Presenter that writes surfaces to an io.Writer.
type Terminal struct {
	w     io.Writer
	shown map[string]string
	order []string

	bannerStyle lipgloss.Style
	metaStyle   lipgloss.Style
}

var _ surface.Presenter = (*Terminal)(nil)

// NewTerminal creates a Terminal writing to w. Colors are used only when
// w is a terminal.
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:     w,
		shown: make(map[string]string),
		bannerStyle: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		metaStyle: r.NewStyle().
			Foreground(lipgloss.Color("242")),
	}
}

// Present prints the banner and content of d.
func (t *Terminal) Present(d surface.Display) error {
	if _, refresh := t.shown[d.ID]; !refresh {
		t.order = append(t.order, d.ID)
	}
	t.shown[d.ID] = d.Name

	content := d.Content
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if _, err := fmt.Fprintf(t.w, "%s\n%s", Banner(d, t.bannerStyle, t.metaStyle), content); err != nil {
		return fmt.Errorf("writing surface %s: %w", d.ID, err)
	}
	return nil
}

// Dispose forgets the surface with the given ID. Output already written to
// the terminal stays where it is.
func (t *Terminal) Dispose(id string) {
	if _, ok := t.shown[id]; !ok {
		return
	}
	delete(t.shown, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Shown returns the IDs of the surfaces presented and not yet disposed of,
// in presentation order.
func (t *Terminal) Shown() []string {
	return append([]string(nil), t.order...)
}

// Banner renders the header line of a surface:
//
//	== bar.txt _status_ == [split-vertical, auto-dispose]
//
// Anonymous surfaces are shown by the first eight characters of their ID.
func Banner(d surface.Display, title, meta lipgloss.Style) string {
	name := d.Name
	if name == "" {
		name = shortID(d.ID)
	}

	var tags []string
	switch d.Placement {
	case placement.ReuseExisting:
		tags = append(tags, "refreshed")
	case "":
	default:
		tags = append(tags, d.Placement.String())
	}
	if d.AutoDispose {
		tags = append(tags, "auto-dispose")
	}

	line := title.Render("== " + name + " ==")
	if len(tags) > 0 {
		line += " " + meta.Render("["+strings.Join(tags, ", ")+"]")
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
