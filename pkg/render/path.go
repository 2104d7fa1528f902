package render

import (
	"github.com/gogpu/gg"

	"github.com/ha1tch/dfaviz/pkg/geometry"
)

// Path draws SVG path data. Its local transform is anchored at the origin.
type Path struct {
	Base
	D string

	parsedD string
	parsed  *gg.Path
	err     error
}

// NewPath returns a path with a fresh id.
func NewPath(d string, style Style) *Path {
	return &Path{Base: newBase(style), D: d}
}

// Parsed returns the parsed form of D, re-parsing only when D changed.
func (s *Path) Parsed() (*gg.Path, error) {
	if (s.parsed == nil && s.err == nil) || s.parsedD != s.D {
		s.parsedD = s.D
		s.parsed, s.err = gg.ParseSVGPath(s.D)
	}
	return s.parsed, s.err
}

// Draw implements Shape. Unparseable data draws nothing.
func (s *Path) Draw(r *Renderer) {
	p, err := s.Parsed()
	if err != nil {
		r.logger.Debug("skipping path", "id", s.id.String(), "err", err)
		return
	}
	r.paintPath(&s.Base, geometry.Point{}, p)
}

// Contains implements Shape. Paths are only hit through the hit buffer.
func (s *Path) Contains(geometry.Point) bool { return false }

// Bounds implements Shape.
func (s *Path) Bounds() (geometry.Rectangle, bool) {
	p, err := s.Parsed()
	if err != nil {
		return geometry.Rectangle{}, false
	}
	if p.NumVerbs() == 0 {
		return geometry.Rectangle{}, false
	}
	bb := p.BoundingBox()
	b := geometry.Rectangle{X: bb.Min.X, Y: bb.Min.Y, Width: bb.Width(), Height: bb.Height()}
	return s.localMatrix(geometry.Point{}).ApplyRect(b.Inset(s.strokePad())), true
}
