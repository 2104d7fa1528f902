// Package graph turns a DFA snapshot into positioned nodes and laid-out
// edges, and keeps a set of render shapes in step with them.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/geometry"
)

var (
	ErrTooClose    = errors.New("graph: node too close to another node")
	ErrUnknownNode = errors.New("graph: unknown node")
)

// Node is a state placed on the canvas.
type Node struct {
	State    dfa.State
	X, Y     float64
	IsStart  bool
	IsAccept bool
	IsActive bool
}

// Point returns the node center.
func (n *Node) Point() geometry.Point { return geometry.Point{X: n.X, Y: n.Y} }

// Edge joins an ordered pair of states and carries every symbol that
// moves between them.
type Edge struct {
	From       dfa.StateID
	To         dfa.StateID
	Conditions []string
	IsActive   bool
	Layout     *EdgeLayout
	Err        error
}

// Key returns the edge's map key.
func (e *Edge) Key() EdgeKey { return EdgeKey{From: e.From, To: e.To} }

// IsLoop reports whether the edge returns to its source.
func (e *Edge) IsLoop() bool { return e.From == e.To }

// Label returns the conditions joined for display.
func (e *Edge) Label() string { return strings.Join(e.Conditions, ", ") }

// EdgeKey identifies the edge of an ordered pair of states.
type EdgeKey struct {
	From, To dfa.StateID
}

func (k EdgeKey) String() string { return string(k.From) + " -> " + string(k.To) }

// Graph is rebuilt incrementally from snapshots. Node positions persist
// across updates.
type Graph struct {
	Nodes map[dfa.StateID]*Node
	Edges map[EdgeKey]*Edge

	order     []dfa.StateID
	edgeOrder []EdgeKey
	logger    *slog.Logger
}

// NewGraph returns an empty graph. A nil logger discards output.
func NewGraph(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Graph{
		Nodes:  make(map[dfa.StateID]*Node),
		Edges:  make(map[EdgeKey]*Edge),
		logger: logger,
	}
}

// Update places new states, drops removed ones, aggregates transitions
// into edges, lays every edge out and recomputes highlighting. Edges whose
// geometry fails keep Layout nil and record Err; the joined failures are
// returned.
func (g *Graph) Update(snap dfa.Snapshot) error {
	g.placeNodes(snap)
	g.aggregateEdges(snap)

	var errs []error
	for _, key := range g.edgeOrder {
		e := g.Edges[key]
		from, to := g.Nodes[e.From], g.Nodes[e.To]
		var (
			l   EdgeLayout
			err error
		)
		if e.IsLoop() {
			l, err = CalculateLoop(from.Point())
		} else {
			l, err = CalculateEdge(from.Point(), to.Point())
		}
		if err != nil {
			err = fmt.Errorf("edge %s -> %s: %w", from.State.Name, to.State.Name, err)
			if e.Err == nil || e.Err.Error() != err.Error() {
				g.logger.Warn("skipping edge", "from", from.State.Name, "to", to.State.Name, "err", err)
			}
			e.Layout, e.Err = nil, err
			errs = append(errs, err)
			continue
		}
		e.Layout, e.Err = &l, nil
	}

	g.highlight(snap)
	return errors.Join(errs...)
}

func (g *Graph) placeNodes(snap dfa.Snapshot) {
	present := make(map[dfa.StateID]bool, len(snap.States))
	for _, s := range snap.States {
		present[s.ID] = true
	}
	for id := range g.Nodes {
		if !present[id] {
			delete(g.Nodes, id)
		}
	}

	g.order = g.order[:0]
	lastX := 0.0
	for _, s := range snap.States {
		n, ok := g.Nodes[s.ID]
		if !ok {
			n = &Node{X: lastX + NodeSpacing}
			for _, taken := g.crowding(n.Point(), s.ID); taken; _, taken = g.crowding(n.Point(), s.ID) {
				n.X += NodeSpacing
			}
			g.Nodes[s.ID] = n
		}
		n.State = s
		n.IsStart = snap.Initial == s.ID
		n.IsAccept = snap.Accept[s.ID]
		lastX = n.X
		g.order = append(g.order, s.ID)
	}
}

func (g *Graph) aggregateEdges(snap dfa.Snapshot) {
	for _, e := range g.Edges {
		e.Conditions = e.Conditions[:0]
	}
	g.edgeOrder = g.edgeOrder[:0]
	for _, s := range snap.States {
		for _, sym := range snap.Alphabet {
			to, ok := snap.Next(s.ID, sym.ID)
			if !ok || g.Nodes[to] == nil {
				continue
			}
			key := EdgeKey{From: s.ID, To: to}
			e, ok := g.Edges[key]
			if !ok {
				e = &Edge{From: s.ID, To: to}
				g.Edges[key] = e
			}
			if len(e.Conditions) == 0 {
				g.edgeOrder = append(g.edgeOrder, key)
			}
			e.Conditions = append(e.Conditions, sym.Char)
		}
	}
	for key, e := range g.Edges {
		if len(e.Conditions) == 0 {
			delete(g.Edges, key)
		}
	}
}

func (g *Graph) highlight(snap dfa.Snapshot) {
	for id, n := range g.Nodes {
		n.IsActive = id == snap.CurrentState && !snap.InTransition
	}
	sym, ok := snap.CurrentSymbol()
	for _, e := range g.Edges {
		e.IsActive = snap.InTransition && ok &&
			e.From == snap.CurrentState &&
			slices.Contains(e.Conditions, sym)
	}
}

// OrderedNodes returns the nodes in state order as of the last update.
func (g *Graph) OrderedNodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		if n, ok := g.Nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// OrderedEdges returns the edges in the order they were first found while
// walking states and then symbols.
func (g *Graph) OrderedEdges() []*Edge {
	out := make([]*Edge, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		if e, ok := g.Edges[key]; ok {
			out = append(out, e)
		}
	}
	return out
}

// MoveNode places a node at p unless that brings it within
// MinNodeDistance of another node.
func (g *Graph) MoveNode(id dfa.StateID, p geometry.Point) error {
	n, ok := g.Nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	if m, ok := g.crowding(p, id); ok {
		return fmt.Errorf("%w: %s", ErrTooClose, m.State.Name)
	}
	n.X, n.Y = p.X, p.Y
	return nil
}

// crowding returns a node other than skip that lies within
// MinNodeDistance of p.
func (g *Graph) crowding(p geometry.Point, skip dfa.StateID) (*Node, bool) {
	for id, m := range g.Nodes {
		if id != skip && geometry.Distance(p, m.Point()) < MinNodeDistance {
			return m, true
		}
	}
	return nil, false
}

// Positions returns every node center keyed by state id.
func (g *Graph) Positions() map[dfa.StateID]geometry.Point {
	out := make(map[dfa.StateID]geometry.Point, len(g.Nodes))
	for id, n := range g.Nodes {
		out[id] = n.Point()
	}
	return out
}

// SetPositions seeds node positions, typically from a saved layout. States
// not yet in the graph are created at the given position and picked up
// by the next Update.
func (g *Graph) SetPositions(pos map[dfa.StateID]geometry.Point) {
	for id, p := range pos {
		n, ok := g.Nodes[id]
		if !ok {
			n = &Node{State: dfa.State{ID: id}}
			g.Nodes[id] = n
		}
		n.X, n.Y = p.X, p.Y
	}
}

// Bounds returns the extent of the node circles.
func (g *Graph) Bounds() (geometry.Rectangle, bool) {
	var (
		box geometry.Rectangle
		ok  bool
	)
	for _, n := range g.Nodes {
		r := geometry.Rectangle{X: n.X - NodeRadius, Y: n.Y - NodeRadius, Width: 2 * NodeRadius, Height: 2 * NodeRadius}
		if ok {
			box = geometry.MergeRectangle(box, r)
		} else {
			box, ok = r, true
		}
	}
	return box, ok
}
