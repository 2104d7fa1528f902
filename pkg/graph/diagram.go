package graph

import (
	"fmt"
	"log/slog"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/render"
)

// Diagram colors.
const (
	ColorDefault = "#333333"
	ColorActive  = "#ff0000"
	ColorFill    = "#ffffff"
)

const (
	zEdge = iota
	zEdgeLabel
	zNode
	zNodeRing
	zNodeLabel
)

const (
	acceptRingRadius = NodeRadius - 4
	startArrowLength = 35
	edgeFontSize     = 12
	nodeFontSize     = 12
)

// Option configures a Diagram.
type Option func(*Diagram)

// WithLogger sets the logger for the diagram and its graph.
func WithLogger(l *slog.Logger) Option {
	return func(d *Diagram) { d.logger = l }
}

// WithGraph lets the diagram reuse an existing graph, for example one
// seeded with saved positions.
func WithGraph(g *Graph) Option {
	return func(d *Diagram) { d.graph = g }
}

// WithNodeClick registers a callback for clicks on state nodes.
func WithNodeClick(fn func(id dfa.StateID)) Option {
	return func(d *Diagram) { d.onNodeClick = fn }
}

type nodeShapes struct {
	circle *render.Circle
	ring   *render.Circle
	label  *render.Text
	start  *render.Path
}

type edgeShapes struct {
	arc   *render.Path
	arrow *render.Path
	label *render.Text
}

// Diagram keeps renderer shapes in step with a DFA: each Sync mounts
// shapes for new nodes and edges, updates existing ones in place and
// unmounts the rest.
type Diagram struct {
	renderer *render.Renderer
	dfa      *dfa.DFA
	graph    *Graph
	drag     *Drag
	zoom     WheelZoom
	logger   *slog.Logger

	onNodeClick func(id dfa.StateID)

	nodes   map[dfa.StateID]*nodeShapes
	edges   map[EdgeKey]*edgeShapes
	lastErr string
}

// NewDiagram binds an automaton to a renderer. Call Sync to build the
// shapes, or Attach to keep them synced every frame.
func NewDiagram(r *render.Renderer, d *dfa.DFA, opts ...Option) *Diagram {
	dg := &Diagram{
		renderer: r,
		dfa:      d,
		logger:   slog.New(slog.DiscardHandler),
		nodes:    make(map[dfa.StateID]*nodeShapes),
		edges:    make(map[EdgeKey]*edgeShapes),
	}
	for _, o := range opts {
		o(dg)
	}
	if dg.graph == nil {
		dg.graph = NewGraph(dg.logger)
	}
	dg.drag = NewDrag(dg.graph, r.Transform())
	return dg
}

// Graph returns the layout graph.
func (dg *Diagram) Graph() *Graph { return dg.graph }

// DFA returns the automaton being shown.
func (dg *Diagram) DFA() *dfa.DFA { return dg.dfa }

// Drag returns the pointer gesture controller.
func (dg *Diagram) Drag() *Drag { return dg.drag }

// Attach syncs the diagram on every renderer frame and routes pointer
// gestures that no shape handles: dragging empty canvas pans, the wheel
// zooms.
func (dg *Diagram) Attach() {
	dg.renderer.OnFrame(func() {
		err := dg.Sync()
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		if msg != dg.lastErr {
			dg.lastErr = msg
			if err != nil {
				dg.logger.Warn("diagram sync", "err", err)
			}
		}
	})
	dg.renderer.Observe(dg.observe)
}

func (dg *Diagram) observe(ev render.Event, target render.Shape) {
	page := geometry.Point{X: ev.PageX, Y: ev.PageY}
	switch ev.Type {
	case render.EventPointerDown:
		if target == nil && !dg.drag.Active() {
			dg.drag.StartPan(page)
		}
	case render.EventPointerMove:
		dg.drag.Move(page)
	case render.EventPointerUp:
		dg.drag.Drop(page)
	case render.EventPointerLeave:
		dg.drag.Cancel()
	case render.EventWheel:
		if target == nil || target.Common().OnWheel == nil {
			dg.wheel(ev, target)
		}
	}
}

func (dg *Diagram) wheel(ev render.Event, _ render.Shape) {
	dg.zoom.Apply(dg.renderer.Transform(), geometry.Point{X: ev.X, Y: ev.Y}, ev.DeltaY)
}

// Sync updates the graph from a fresh snapshot and reconciles shapes. It
// returns the joined edge layout errors; the failing edges are not drawn.
func (dg *Diagram) Sync() error {
	err := dg.graph.Update(dg.dfa.Snapshot())

	for _, n := range dg.graph.OrderedNodes() {
		dg.syncNode(n)
	}
	for id, ns := range dg.nodes {
		if _, ok := dg.graph.Nodes[id]; !ok {
			dg.unmountNode(ns)
			delete(dg.nodes, id)
		}
	}

	for _, e := range dg.graph.OrderedEdges() {
		if e.Layout != nil {
			dg.syncEdge(e)
		}
	}
	for key, es := range dg.edges {
		if e, ok := dg.graph.Edges[key]; !ok || e.Layout == nil {
			dg.unmount(es.arc, es.arrow, es.label)
			delete(dg.edges, key)
		}
	}
	return err
}

func (dg *Diagram) syncNode(n *Node) {
	id := n.State.ID
	ns, ok := dg.nodes[id]
	if !ok {
		ns = &nodeShapes{
			circle: render.NewCircle(n.X, n.Y, NodeRadius, render.Style{
				ZIndex:      zNode,
				StrokeWidth: 2,
				Cursor:      "pointer",
			}),
			label: render.NewText(n.X, n.Y, "", render.Style{
				ZIndex:        zNodeLabel,
				Font:          nodeFontSize,
				TextAlign:     "center",
				TextBaseline:  "middle",
				PointerEvents: "none",
			}),
		}
		ns.circle.OnPointerDown = func(ev render.Event, _ render.Shape) {
			dg.drag.Start(id, geometry.Point{X: ev.PageX, Y: ev.PageY})
		}
		ns.circle.OnClick = func(render.Event, render.Shape) {
			if dg.onNodeClick != nil {
				dg.onNodeClick(id)
			}
		}
		ns.circle.OnWheel = dg.wheel
		dg.renderer.AddElement(ns.circle)
		dg.renderer.AddElement(ns.label)
		dg.nodes[id] = ns
	}

	color := ColorDefault
	if n.IsActive {
		color = ColorActive
	}
	ns.circle.X, ns.circle.Y = n.X, n.Y
	ns.circle.Style.Fill = ColorFill
	ns.circle.Style.Stroke = color
	ns.label.X, ns.label.Y = n.X, n.Y
	ns.label.Content = n.State.Name
	ns.label.Style.Fill = color

	switch {
	case n.IsAccept && ns.ring == nil:
		ns.ring = render.NewCircle(n.X, n.Y, acceptRingRadius, render.Style{
			ZIndex:        zNodeRing,
			StrokeWidth:   1.5,
			PointerEvents: "none",
		})
		dg.renderer.AddElement(ns.ring)
	case !n.IsAccept && ns.ring != nil:
		dg.unmount(ns.ring)
		ns.ring = nil
	}
	if ns.ring != nil {
		ns.ring.X, ns.ring.Y = n.X, n.Y
		ns.ring.Style.Stroke = color
	}

	switch {
	case n.IsStart && ns.start == nil:
		ns.start = render.NewPath("", render.Style{
			ZIndex:        zEdge,
			StrokeWidth:   2,
			PointerEvents: "none",
		})
		dg.renderer.AddElement(ns.start)
	case !n.IsStart && ns.start != nil:
		dg.unmount(ns.start)
		ns.start = nil
	}
	if ns.start != nil {
		ns.start.D = startArrow(n.Point())
		ns.start.Style.Stroke = color
	}
}

// startArrow points down into the top of the node.
func startArrow(p geometry.Point) string {
	top := p.Y - NodeRadius
	return fmt.Sprintf("M %s %s L %s %s M %s %s L %s %s L %s %s",
		num(p.X), num(top-startArrowLength), num(p.X), num(top),
		num(p.X-4), num(top-7), num(p.X), num(top), num(p.X+4), num(top-7))
}

func (dg *Diagram) syncEdge(e *Edge) {
	key := e.Key()
	es, ok := dg.edges[key]
	if !ok {
		es = &edgeShapes{
			arc:   render.NewPath("", render.Style{ZIndex: zEdge, StrokeWidth: 1.5}),
			arrow: render.NewPath("", render.Style{ZIndex: zEdge, StrokeWidth: 1}),
			label: render.NewText(0, 0, "", render.Style{
				ZIndex:       zEdgeLabel,
				Font:         edgeFontSize,
				TextAlign:    "center",
				TextBaseline: "middle",
				Background:   ColorFill,
			}),
		}
		for _, s := range []render.Shape{es.arc, es.arrow, es.label} {
			s.Common().OnWheel = dg.wheel
			dg.renderer.AddElement(s)
		}
		dg.edges[key] = es
	}

	color := ColorDefault
	if e.IsActive {
		color = ColorActive
	}
	l := e.Layout
	es.arc.D = l.Arc
	es.arc.Style.Stroke = color
	es.arrow.D = l.Arrow
	es.arrow.Style.Fill = color
	es.arrow.Style.Stroke = color
	es.label.X, es.label.Y = l.Label.X, l.Label.Y
	es.label.Content = e.Label()
	es.label.Style.Fill = color
}

// Reset removes every shape and rebinds the diagram to another automaton
// and graph, as after reloading a document. A nil graph starts a fresh
// layout. The next Sync mounts the new shapes. Like Sync it must run on
// the renderer's goroutine.
func (dg *Diagram) Reset(d *dfa.DFA, g *Graph) {
	for id, ns := range dg.nodes {
		dg.unmountNode(ns)
		delete(dg.nodes, id)
	}
	for key, es := range dg.edges {
		dg.unmount(es.arc, es.arrow, es.label)
		delete(dg.edges, key)
	}
	if g == nil {
		g = NewGraph(dg.logger)
	}
	dg.drag.Cancel()
	dg.dfa = d
	dg.graph = g
	dg.drag = NewDrag(g, dg.renderer.Transform())
	dg.lastErr = ""
}

func (dg *Diagram) unmountNode(ns *nodeShapes) {
	dg.unmount(ns.circle, ns.label)
	if ns.ring != nil {
		dg.unmount(ns.ring)
	}
	if ns.start != nil {
		dg.unmount(ns.start)
	}
}

func (dg *Diagram) unmount(shapes ...render.Shape) {
	for _, s := range shapes {
		dg.renderer.RemoveElement(s)
	}
}
