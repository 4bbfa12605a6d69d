package surface

import (
	"time"

	"github.com/shinji-kodama/hgbuf/internal/model"
	"github.com/shinji-kodama/hgbuf/internal/placement"
)

// Surface is a live result surface: the captured output of one command
// plus the metadata linking it back to its source.
type Surface struct {
	// ID is a uuid assigned at creation.
	ID string `json:"id"`

	// Name is the generated display name. Empty for anonymous surfaces.
	Name string `json:"name,omitempty"`

	// Source is a non-owning reference to the file the command ran
	// against. Resolve it with Registry.SourceOf.
	Source model.SourceHandle `json:"source"`

	// Kind is the command kind that produced the output.
	Kind model.CommandKind `json:"kind"`

	// StatusLabel qualifies the kind, e.g. a revision.
	StatusLabel string `json:"statusLabel,omitempty"`

	// Output is the captured command output.
	Output string `json:"output"`

	// Placement is the directive the surface was presented with.
	Placement placement.Directive `json:"placement"`

	// AutoDispose asks the presenter to dispose of the surface when it is
	// hidden.
	AutoDispose bool `json:"autoDispose"`

	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"createdAt"`

	// Seq orders surfaces by creation within a registry.
	Seq uint64 `json:"seq"`
}

// Anonymous reports whether the surface has no generated name.
func (s *Surface) Anonymous() bool {
	return s.Name == ""
}

// Display is what the registry hands to a presenter.
type Display struct {
	ID          string
	Name        string
	Placement   placement.Directive
	AutoDispose bool
	Content     string
}

// Presenter shows and disposes of surfaces. It is the boundary to the
// windowing system (a terminal, an editor) and only carries out the
// placement directive it is given.
type Presenter interface {
	// Present shows d. Presenting an ID that is already shown refreshes it.
	Present(d Display) error

	// Dispose removes the surface with the given ID from view.
	Dispose(id string)
}

func (s *Surface) display() Display {
	return Display{
		ID:          s.ID,
		Name:        s.Name,
		Placement:   s.Placement,
		AutoDispose: s.AutoDispose,
		Content:     s.Output,
	}
}
