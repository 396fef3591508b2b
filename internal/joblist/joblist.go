// Package joblist renders print job descriptors onto a single-column surface.
package joblist

import (
	"errors"
	"fmt"

	"github.com/five82/spoolview/internal/spooler"
)

// ErrNoSurface is returned when a presenter is built without a list surface.
var ErrNoSurface = errors.New("job list surface is not available")

// Surface is the list display a Presenter owns.
type Surface interface {
	Clear()
	Append(line string)
}

// Presenter replaces the surface contents with one line per job.
type Presenter struct {
	surface Surface
}

// New binds a presenter to its surface.
func New(surface Surface) (*Presenter, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	return &Presenter{surface: surface}, nil
}

// Clear empties the surface.
func (p *Presenter) Clear() {
	p.mustSurface().Clear()
}

// Refresh clears the surface and appends one formatted line per job, in order.
func (p *Presenter) Refresh(jobs []spooler.Job) {
	s := p.mustSurface()
	s.Clear()
	for _, job := range jobs {
		s.Append(FormatLine(job))
	}
}

// FormatLine renders a job as "Job ID: <id>, Document: <name>".
func FormatLine(job spooler.Job) string {
	return fmt.Sprintf("Job ID: %d, Document: %s", job.ID, job.Document)
}

func (p *Presenter) mustSurface() Surface {
	if p == nil || p.surface == nil {
		panic(ErrNoSurface)
	}
	return p.surface
}
