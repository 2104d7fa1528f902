package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/dfaviz/pkg/dfa"
	"github.com/ha1tch/dfaviz/pkg/geometry"
)

func twoStateSnapshot() dfa.Snapshot {
	return dfa.Snapshot{
		States:   []dfa.State{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		Alphabet: []dfa.Symbol{{ID: "x", Char: "x"}, {ID: "y", Char: "y"}},
		Transitions: map[dfa.StateID]map[dfa.SymbolID]dfa.StateID{
			"a": {"x": "b", "y": "b"},
			"b": {"x": "b"},
		},
		Initial:      "a",
		Accept:       map[dfa.StateID]bool{"b": true},
		Input:        "xy",
		CurrentIndex: -1,
		CurrentState: "a",
	}
}

func TestEdgeAggregation(t *testing.T) {
	g := NewGraph(nil)
	require.NoError(t, g.Update(twoStateSnapshot()))

	require.Len(t, g.Edges, 2, "missing transitions contribute no edge")
	ab := g.Edges[EdgeKey{From: "a", To: "b"}]
	require.NotNil(t, ab)
	assert.Equal(t, []string{"x", "y"}, ab.Conditions)
	assert.Equal(t, "x, y", ab.Label())
	bb := g.Edges[EdgeKey{From: "b", To: "b"}]
	require.NotNil(t, bb)
	assert.True(t, bb.IsLoop())
	assert.Equal(t, []string{"x"}, bb.Conditions)

	var keys []string
	for _, e := range g.OrderedEdges() {
		keys = append(keys, e.Key().String())
	}
	assert.Equal(t, []string{"a -> b", "b -> b"}, keys)
}

func TestEdgesFollowTransitionEdits(t *testing.T) {
	g := NewGraph(nil)
	snap := twoStateSnapshot()
	require.NoError(t, g.Update(snap))

	snap.Transitions["a"] = map[dfa.SymbolID]dfa.StateID{"x": "a"}
	require.NoError(t, g.Update(snap))
	assert.Nil(t, g.Edges[EdgeKey{From: "a", To: "b"}])
	require.NotNil(t, g.Edges[EdgeKey{From: "a", To: "a"}])
	assert.Equal(t, []string{"x"}, g.Edges[EdgeKey{From: "a", To: "a"}].Conditions)
}

func TestEdgesWithHyphenatedIDs(t *testing.T) {
	snap := dfa.Snapshot{
		States: []dfa.State{
			{ID: "a", Name: "A"}, {ID: "b-c", Name: "BC"},
			{ID: "a-b", Name: "AB"}, {ID: "c", Name: "C"},
		},
		Alphabet: []dfa.Symbol{{ID: "x", Char: "x"}, {ID: "y", Char: "y"}},
		Transitions: map[dfa.StateID]map[dfa.SymbolID]dfa.StateID{
			"a":   {"x": "b-c"},
			"a-b": {"y": "c"},
		},
		Initial:      "a",
		CurrentIndex: -1,
		CurrentState: "a",
	}
	g := NewGraph(nil)
	require.NoError(t, g.Update(snap))

	require.Len(t, g.Edges, 2)
	require.NotNil(t, g.Edges[EdgeKey{From: "a", To: "b-c"}])
	require.NotNil(t, g.Edges[EdgeKey{From: "a-b", To: "c"}])
	assert.Equal(t, []string{"x"}, g.Edges[EdgeKey{From: "a", To: "b-c"}].Conditions)
	assert.Equal(t, []string{"y"}, g.Edges[EdgeKey{From: "a-b", To: "c"}].Conditions)
}

func TestNodePlacement(t *testing.T) {
	g := NewGraph(nil)
	snap := twoStateSnapshot()
	require.NoError(t, g.Update(snap))
	assert.Equal(t, geometry.Point{X: 100}, g.Nodes["a"].Point())
	assert.Equal(t, geometry.Point{X: 200}, g.Nodes["b"].Point())
	assert.True(t, g.Nodes["a"].IsStart)
	assert.True(t, g.Nodes["b"].IsAccept)

	require.NoError(t, g.MoveNode("b", geometry.Point{X: 400, Y: 80}))
	snap.States = append(snap.States, dfa.State{ID: "c", Name: "C"})
	require.NoError(t, g.Update(snap))
	assert.Equal(t, geometry.Point{X: 400, Y: 80}, g.Nodes["b"].Point(), "moved nodes keep their place")
	assert.Equal(t, geometry.Point{X: 500}, g.Nodes["c"].Point())

	snap.States = snap.States[1:]
	require.NoError(t, g.Update(snap))
	assert.NotContains(t, g.Nodes, dfa.StateID("a"))
	assert.Len(t, g.OrderedNodes(), 2)
}

func TestMoveNodeSpacing(t *testing.T) {
	g := NewGraph(nil)
	require.NoError(t, g.Update(twoStateSnapshot()))

	err := g.MoveNode("b", geometry.Point{X: 120, Y: 10})
	assert.ErrorIs(t, err, ErrTooClose)
	assert.Equal(t, geometry.Point{X: 200}, g.Nodes["b"].Point())

	assert.NoError(t, g.MoveNode("b", geometry.Point{X: 100, Y: MinNodeDistance}))
	assert.ErrorIs(t, g.MoveNode("zz", geometry.Point{}), ErrUnknownNode)
}

func TestNewNodeAvoidsMovedNode(t *testing.T) {
	g := NewGraph(nil)
	snap := twoStateSnapshot()
	require.NoError(t, g.Update(snap))
	require.NoError(t, g.MoveNode("a", geometry.Point{X: 300}))

	snap.States = append(snap.States, dfa.State{ID: "c", Name: "C"})
	snap.Transitions["a"]["x"] = "c"
	require.NoError(t, g.Update(snap))

	c := g.Nodes["c"].Point()
	for _, id := range []dfa.StateID{"a", "b"} {
		assert.GreaterOrEqual(t, geometry.Distance(c, g.Nodes[id].Point()), float64(MinNodeDistance), "c overlaps %s", id)
	}
	assert.Equal(t, geometry.Point{X: 400}, c)
	require.NotNil(t, g.Edges[EdgeKey{From: "a", To: "c"}])
}

func TestCalculateEdgeBetweenNodes(t *testing.T) {
	tests := []struct {
		name      string
		from, to  geometry.Point
		label     geometry.Point
		tipAbove  bool
	}{
		{"left to right curves over", geometry.Point{}, geometry.Point{X: 100}, geometry.Point{X: 50, Y: -40}, true},
		{"right to left curves under", geometry.Point{X: 100}, geometry.Point{}, geometry.Point{X: 50, Y: 40}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := CalculateEdge(tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, 50, l.Center.X, 1e-9)
			assert.InDelta(t, 0, l.Center.Y, 1e-6)
			assert.InDelta(t, 40, l.Radius, 1e-9)
			assert.InDelta(t, tt.label.X, l.Label.X, 1e-6)
			assert.InDelta(t, tt.label.Y, l.Label.Y, 1e-6)

			assert.InDelta(t, NodeRadius, geometry.Distance(l.Tip, tt.to), 1e-6)
			assert.InDelta(t, l.Radius, geometry.Distance(l.Tip, l.Center), 1e-6)
			assert.Equal(t, tt.tipAbove, l.Tip.Y < 0)
			assertOnSweep(t, l, l.Tip)
			for _, w := range l.Wings {
				assert.InDelta(t, ArrowLength, geometry.Distance(w, l.Tip), 1e-9)
			}
		})
	}
}

func TestCalculateLoop(t *testing.T) {
	l, err := CalculateLoop(geometry.Point{X: 100, Y: 50})
	require.NoError(t, err)

	cx := 90 - 10*math.Sqrt(3)
	assert.InDelta(t, cx, l.Center.X, 1e-9)
	assert.InDelta(t, 50, l.Center.Y, 1e-9)
	assert.Equal(t, float64(LoopRadius), l.Radius)
	assert.InDelta(t, cx-LoopRadius, l.Label.X, 1e-9)
	assert.InDelta(t, 50, l.Label.Y, 1e-9)

	assert.InDelta(t, NodeRadius, geometry.Distance(l.Tip, geometry.Point{X: 100, Y: 50}), 1e-6)
	assert.Less(t, l.Tip.Y, 50.0, "the tip sits near the end anchor above the node center")
	assertOnSweep(t, l, l.Tip)
	assert.Equal(t, "M 90.000 60.000 A 20.000 20.000 0 1 1 90.000 40.000", l.Arc)
}

// assertOnSweep checks that p lies strictly inside the arc drawn from
// Start to End through positive angles.
func assertOnSweep(t *testing.T, l EdgeLayout, p geometry.Point) {
	t.Helper()
	a0 := geometry.AngleBetween(l.Center, l.Start)
	span := geometry.NormalizeAngle(geometry.AngleBetween(l.Center, l.End) - a0)
	off := geometry.NormalizeAngle(geometry.AngleBetween(l.Center, p) - a0)
	assert.Greater(t, off, 0.0)
	assert.Less(t, off, span)
}

func TestDegenerateEdges(t *testing.T) {
	tests := []struct {
		name     string
		from, to geometry.Point
		circles  bool
	}{
		{"coincident", geometry.Point{X: 5, Y: 5}, geometry.Point{X: 5, Y: 5}, false},
		{"anchors cross", geometry.Point{}, geometry.Point{X: 15}, false},
		{"tip misses", geometry.Point{}, geometry.Point{X: 25}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateEdge(tt.from, tt.to)
			assert.ErrorIs(t, err, ErrDegenerateEdge)
			assert.Equal(t, tt.circles, errors.Is(err, geometry.ErrNoIntersection))
		})
	}
}

func TestUpdateSkipsDegenerateEdge(t *testing.T) {
	g := NewGraph(nil)
	g.SetPositions(map[dfa.StateID]geometry.Point{"a": {X: 0}, "b": {X: 12}})
	err := g.Update(twoStateSnapshot())
	assert.ErrorIs(t, err, ErrDegenerateEdge)

	ab := g.Edges[EdgeKey{From: "a", To: "b"}]
	require.NotNil(t, ab)
	assert.Nil(t, ab.Layout)
	assert.ErrorIs(t, ab.Err, ErrDegenerateEdge)
	assert.NotNil(t, g.Edges[EdgeKey{From: "b", To: "b"}].Layout, "other edges still lay out")
}

func TestHighlighting(t *testing.T) {
	g := NewGraph(nil)
	snap := twoStateSnapshot()

	require.NoError(t, g.Update(snap))
	assert.True(t, g.Nodes["a"].IsActive)
	assert.False(t, g.Edges[EdgeKey{From: "a", To: "b"}].IsActive)

	snap.CurrentIndex = 0
	snap.InTransition = true
	require.NoError(t, g.Update(snap))
	assert.False(t, g.Nodes["a"].IsActive, "no node is active mid-transition")
	assert.True(t, g.Edges[EdgeKey{From: "a", To: "b"}].IsActive)
	assert.False(t, g.Edges[EdgeKey{From: "b", To: "b"}].IsActive)

	snap.InTransition = false
	snap.CurrentState = "b"
	require.NoError(t, g.Update(snap))
	assert.True(t, g.Nodes["b"].IsActive)
	assert.False(t, g.Edges[EdgeKey{From: "a", To: "b"}].IsActive)
}

func TestWheelZoom(t *testing.T) {
	tr := geometry.NewTransform2D()
	tr.SetTranslation(30, 40)
	pointer := geometry.Point{X: 100, Y: 80}
	focal := tr.TransformInverse(pointer)

	var z WheelZoom
	require.True(t, z.Apply(tr, pointer, 3))
	assert.InDelta(t, ZoomOutFactor, tr.Zoom(), 1e-12)
	got := tr.Transform(focal)
	assert.InDelta(t, pointer.X, got.X, 1e-9)
	assert.InDelta(t, pointer.Y, got.Y, 1e-9)

	require.True(t, z.Apply(tr, pointer, -3))
	assert.InDelta(t, ZoomOutFactor*ZoomInFactor, tr.Zoom(), 1e-12)

	tr.SetScale(240, 240)
	assert.False(t, z.Apply(tr, pointer, -1), "zoom stops below the cap")
	assert.Equal(t, 240.0, tr.Zoom())
	assert.True(t, z.Apply(tr, pointer, 1))
}

func TestDragMovesNodeInModelSpace(t *testing.T) {
	g := NewGraph(nil)
	require.NoError(t, g.Update(twoStateSnapshot()))
	tr := geometry.NewTransform2D()
	tr.SetScale(2, 2)
	tr.SetTranslation(7, 9)

	d := NewDrag(g, tr)
	require.True(t, d.Start("b", geometry.Point{X: 300, Y: 300}))
	assert.Equal(t, dfa.StateID("b"), d.Node())
	assert.True(t, d.Move(geometry.Point{X: 320, Y: 260}))
	assert.Equal(t, geometry.Point{X: 210, Y: -20}, g.Nodes["b"].Point())

	// Too close to a: the node stays where it was.
	assert.False(t, d.Move(geometry.Point{X: 100, Y: 300}))
	assert.Equal(t, geometry.Point{X: 210, Y: -20}, g.Nodes["b"].Point())

	d.Drop(geometry.Point{X: 340, Y: 300})
	assert.Equal(t, geometry.Point{X: 220, Y: 0}, g.Nodes["b"].Point())
	assert.False(t, d.Active())
	assert.False(t, d.Move(geometry.Point{X: 0, Y: 0}))
}

func TestDragPans(t *testing.T) {
	tr := geometry.NewTransform2D()
	d := NewDrag(NewGraph(nil), tr)
	d.StartPan(geometry.Point{X: 10, Y: 10})
	d.Move(geometry.Point{X: 15, Y: 30})
	d.Drop(geometry.Point{X: 20, Y: 30})
	assert.Equal(t, [2]float64{10, 20}, tr.Translation)
	assert.Equal(t, dfa.StateID(""), d.Node())
}
