package graph

import (
	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/geometry"
)

// Zoom factors and the largest scale a wheel gesture may reach.
const (
	ZoomInFactor  = 1.1
	ZoomOutFactor = 0.9
	MaxZoom       = 250
)

// Drag tracks one pointer gesture that either moves a node or pans the
// view. Positions are host pointer coordinates.
type Drag struct {
	graph     *Graph
	transform *geometry.Transform2D

	active  bool
	panning bool
	node    dfa.StateID
	origin  geometry.Point // node position at Start
	start   geometry.Point
	last    geometry.Point
}

// NewDrag returns a drag controller for nodes of g viewed through t.
func NewDrag(g *Graph, t *geometry.Transform2D) *Drag {
	return &Drag{graph: g, transform: t}
}

// Active reports whether a gesture is in progress.
func (d *Drag) Active() bool { return d.active }

// Node returns the node being dragged, empty while panning or idle.
func (d *Drag) Node() dfa.StateID {
	if !d.active || d.panning {
		return ""
	}
	return d.node
}

// Start begins dragging node id.
func (d *Drag) Start(id dfa.StateID, pointer geometry.Point) bool {
	n, ok := d.graph.Nodes[id]
	if !ok {
		return false
	}
	d.active, d.panning = true, false
	d.node = id
	d.origin = n.Point()
	d.start, d.last = pointer, pointer
	return true
}

// StartPan begins panning the view.
func (d *Drag) StartPan(pointer geometry.Point) {
	d.active, d.panning = true, true
	d.node = ""
	d.start, d.last = pointer, pointer
}

// Move follows the pointer and reports whether anything changed. A node
// move that would crowd another node is ignored and the node stays at its
// last valid position.
func (d *Drag) Move(pointer geometry.Point) bool {
	if !d.active {
		return false
	}
	defer func() { d.last = pointer }()

	if d.panning {
		dx, dy := pointer.X-d.last.X, pointer.Y-d.last.Y
		if dx == 0 && dy == 0 {
			return false
		}
		d.transform.Move(dx, dy)
		return true
	}

	// The transform is affine, so the model delta does not depend on
	// where the canvas sits on the page.
	delta := d.transform.TransformInverse(pointer).Sub(d.transform.TransformInverse(d.start))
	return d.graph.MoveNode(d.node, d.origin.Add(delta)) == nil
}

// Drop ends the gesture at pointer.
func (d *Drag) Drop(pointer geometry.Point) bool {
	if !d.active {
		return false
	}
	changed := d.Move(pointer)
	d.active, d.panning = false, false
	d.node = ""
	return changed
}

// Cancel ends the gesture where it last moved to.
func (d *Drag) Cancel() {
	d.active, d.panning = false, false
	d.node = ""
}

// WheelZoom maps wheel deltas to fixed zoom steps around the pointer.
type WheelZoom struct {
	Max float64 // MaxZoom when zero
}

// Apply zooms t around the canvas-local pointer: out for a positive
// deltaY, in otherwise. It refuses to reach the maximum scale and reports
// whether the zoom happened.
func (z WheelZoom) Apply(t *geometry.Transform2D, pointer geometry.Point, deltaY float64) bool {
	limit := z.Max
	if limit == 0 {
		limit = MaxZoom
	}
	f := ZoomInFactor
	if deltaY > 0 {
		f = ZoomOutFactor
	}
	if t.Zoom()*f >= limit {
		return false
	}
	t.ZoomTo(t.TransformInverse(pointer), f)
	return true
}
