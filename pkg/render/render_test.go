package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/dfaviz/pkg/geometry"
)

func newTestRenderer(t *testing.T, w, h int, opts ...Option) (*Renderer, *ImageCanvas) {
	t.Helper()
	r := NewRenderer(w, h, opts...)
	c := NewImageCanvas(geometry.Point{X: 10, Y: 20})
	require.NoError(t, r.SetCanvas(c))
	return r, c
}

func TestHitKeyRoundTrip(t *testing.T) {
	for _, id := range []ID{1, 2, 0x2a, 0xabcdef, maxID} {
		assert.Equal(t, id, ColorToID(IDToColor(id)))
	}
	assert.Equal(t, NoID, ColorToID(color.RGBA{}))
	assert.Equal(t, NoID, ColorToID(color.RGBA{0, 0, 5, 0x80}))
	assert.Equal(t, "#00002a", ID(0x2a).String())
}

func TestNextIDUnique(t *testing.T) {
	seen := map[ID]bool{}
	for i := 0; i < 1000; i++ {
		id := NextID()
		assert.NotEqual(t, NoID, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestCanvasDispatchSnapshotsListeners(t *testing.T) {
	c := NewImageCanvas(geometry.Point{})
	var calls []string
	c.AddEventListener(EventClick, func(Event) {
		calls = append(calls, "first")
		c.AddEventListener(EventClick, func(Event) { calls = append(calls, "late") })
	})
	c.AddEventListener(EventClick, func(Event) { calls = append(calls, "second") })

	c.Dispatch(Event{Type: EventClick})
	assert.Equal(t, []string{"first", "second"}, calls)

	calls = nil
	c.Dispatch(Event{Type: EventWheel})
	assert.Empty(t, calls)
}

func TestSetCanvasWithoutContext(t *testing.T) {
	r := NewRenderer(0, 0)
	err := r.SetCanvas(NewImageCanvas(geometry.Point{}))
	assert.ErrorIs(t, err, ErrNoContext)
	assert.Nil(t, r.Image())
}

func TestHitBufferDispatch(t *testing.T) {
	r, c := newTestRenderer(t, 100, 100)
	circle := NewCircle(50, 50, 20, Style{Fill: "#00ff00"})
	var clicks []Event
	circle.OnClick = func(ev Event, s Shape) {
		clicks = append(clicks, ev)
		assert.Same(t, circle, s)
	}
	r.AddElement(circle)
	r.Draw()

	c.Dispatch(Event{Type: EventClick, PageX: 60, PageY: 70})
	require.Len(t, clicks, 1)
	assert.Equal(t, 50.0, clicks[0].X)
	assert.Equal(t, 50.0, clicks[0].Y)

	c.Dispatch(Event{Type: EventClick, PageX: 15, PageY: 25})
	assert.Len(t, clicks, 1, "miss calls nothing")

	assert.Same(t, circle, r.ShapeAt(geometry.Point{X: 50, Y: 50}))
	assert.Nil(t, r.ShapeAt(geometry.Point{X: 5, Y: 5}))
}

func TestHitBufferHoldsOnlyKeyColors(t *testing.T) {
	r, _ := newTestRenderer(t, 120, 80)
	a := NewCircle(30, 40, 17.5, Style{Fill: "#ff0000", Stroke: "#000000", StrokeWidth: 3})
	b := NewPath("M 60 10 A 20 20 0 1 1 60 50", Style{Stroke: "#333333", StrokeWidth: 2})
	txt := NewText(90, 40, "q0", Style{Font: 14, TextAlign: "center", TextBaseline: "middle"})
	for _, s := range []Shape{a, b, txt} {
		r.AddElement(s)
	}
	r.Draw()

	allowed := map[color.RGBA]bool{{}: true}
	for _, s := range []Shape{a, b, txt} {
		allowed[IDToColor(s.Common().ID())] = true
	}
	img := r.HitImage()
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			px := img.RGBAAt(x, y)
			require.True(t, allowed[px], "blended hit pixel %v at (%d,%d)", px, x, y)
		}
	}
}

func TestZOrderOcclusion(t *testing.T) {
	tests := []struct {
		name      string
		zA, zB    int
		wantFirst bool
	}{
		{"later insertion wins on equal z", 0, 0, false},
		{"higher z wins despite insertion", 2, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, c := newTestRenderer(t, 100, 100)
			first := NewRect(10, 10, 50, 50, Style{Fill: "#ff0000", ZIndex: tt.zA})
			second := NewRect(30, 30, 50, 50, Style{Fill: "#0000ff", ZIndex: tt.zB})
			var got Shape
			h := func(_ Event, s Shape) { got = s }
			first.OnClick, second.OnClick = h, h
			r.AddElement(first)
			r.AddElement(second)
			r.Draw()

			c.Dispatch(Event{Type: EventClick, PageX: 10 + 40, PageY: 20 + 40})
			if tt.wantFirst {
				assert.Same(t, first, got)
			} else {
				assert.Same(t, second, got)
			}
		})
	}
}

func TestPointerEventsNone(t *testing.T) {
	r, _ := newTestRenderer(t, 100, 100)
	below := NewRect(0, 0, 100, 100, Style{Fill: "#eeeeee"})
	above := NewRect(0, 0, 100, 100, Style{Fill: "#111111", PointerEvents: "none"})
	r.AddElement(below)
	r.AddElement(above)
	r.Draw()

	assert.Same(t, below, r.ShapeAt(geometry.Point{X: 50, Y: 50}))
	assert.Equal(t, color.RGBA{0x11, 0x11, 0x11, 0xff}, r.Image().RGBAAt(50, 50))
}

func TestHoverCursor(t *testing.T) {
	r, c := newTestRenderer(t, 100, 100)
	rect := NewRect(20, 20, 30, 30, Style{Fill: "#cccccc", Cursor: "pointer"})
	plain := NewRect(60, 60, 30, 30, Style{Fill: "#cccccc"})
	r.AddElement(rect)
	r.AddElement(plain)
	r.Draw()

	c.Dispatch(Event{Type: EventPointerMove, PageX: 10 + 30, PageY: 20 + 30})
	assert.Equal(t, "pointer", c.Cursor())
	assert.Equal(t, rect.ID(), r.HoveredID())

	c.Dispatch(Event{Type: EventPointerMove, PageX: 10 + 70, PageY: 20 + 70})
	assert.Equal(t, "default", c.Cursor())
	assert.Equal(t, plain.ID(), r.HoveredID())

	c.Dispatch(Event{Type: EventPointerMove, PageX: 10 + 30, PageY: 20 + 30})
	c.Dispatch(Event{Type: EventPointerLeave})
	assert.Equal(t, "default", c.Cursor())
	assert.Equal(t, NoID, r.HoveredID())
}

func TestMutationDuringDispatchIsDeferred(t *testing.T) {
	r, c := newTestRenderer(t, 100, 100)
	target := NewRect(0, 0, 50, 50, Style{Fill: "#123456"})
	added := NewCircle(75, 75, 10, Style{Fill: "#654321"})
	target.OnPointerDown = func(_ Event, s Shape) {
		r.RemoveElement(s)
		r.AddElement(added)
		assert.True(t, r.Has(s), "removal waits for the frame")
		assert.False(t, r.Has(added))
	}
	r.AddElement(target)
	r.Draw()

	c.Dispatch(Event{Type: EventPointerDown, PageX: 10 + 25, PageY: 20 + 25})
	assert.Equal(t, 1, r.Len())

	r.Frame()
	assert.False(t, r.Has(target))
	assert.True(t, r.Has(added))
	assert.Nil(t, r.ShapeAt(geometry.Point{X: 25, Y: 25}))
	assert.Same(t, added, r.ShapeAt(geometry.Point{X: 75, Y: 75}))
}

func TestRemoveElement(t *testing.T) {
	r, _ := newTestRenderer(t, 50, 50)
	a := NewRect(0, 0, 10, 10, Style{Fill: "#000000"})
	b := NewRect(10, 0, 10, 10, Style{Fill: "#000000"})
	c := NewRect(20, 0, 10, 10, Style{Fill: "#000000"})
	for _, s := range []Shape{a, b, c} {
		r.AddElement(s)
	}
	r.AddElement(a)
	assert.Equal(t, 3, r.Len(), "adding twice is a no-op")

	r.RemoveElement(a)
	r.RemoveElement(a)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has(b))
	assert.True(t, r.Has(c))

	r.RemoveElement(c)
	assert.Equal(t, []Shape{b}, r.Elements())
}

func TestAddElementReassignsLiveID(t *testing.T) {
	r, _ := newTestRenderer(t, 60, 20)
	a := NewRect(0, 0, 20, 20, Style{Fill: "#ff0000"})
	b := NewRect(40, 0, 20, 20, Style{Fill: "#0000ff"})
	b.id = a.id
	r.AddElement(a)
	r.AddElement(b)

	require.Equal(t, 2, r.Len())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, []Shape{a, b}, r.Elements())
	r.Draw()
	assert.Same(t, a, r.ShapeAt(geometry.Point{X: 10, Y: 10}))
	assert.Same(t, b, r.ShapeAt(geometry.Point{X: 50, Y: 10}))

	r.RemoveElement(b)
	assert.True(t, r.Has(a))
	assert.False(t, r.Has(b))
}

func TestQueuedEventsWaitForFrame(t *testing.T) {
	r, c := newTestRenderer(t, 40, 40)
	rect := NewRect(0, 0, 40, 40, Style{Fill: "#000000"})
	clicks := 0
	rect.OnClick = func(Event, Shape) { clicks++ }
	r.AddElement(rect)
	r.Draw()

	r.QueueEvents()
	c.Dispatch(Event{Type: EventClick, PageX: 30, PageY: 40})
	assert.Zero(t, clicks, "queued events are not handled on the posting goroutine")
	r.Frame()
	assert.Equal(t, 1, clicks)
}

func TestFitContentToView(t *testing.T) {
	r, _ := newTestRenderer(t, 400, 300)
	r.AddElement(NewRect(1000, 1000, 100, 50, Style{Fill: "#000000"}))

	scale := r.FitContentToView(nil)
	want := 400.0 / 120 * DefaultFitZoom
	assert.InDelta(t, want, scale, 1e-9)

	box, ok := r.BoundingBox()
	require.True(t, ok)
	center := r.Transform().Transform(box.Center())
	assert.InDelta(t, 200, center.X, 1e-6)
	assert.InDelta(t, 150, center.Y, 1e-6)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, r.Image().RGBAAt(200, 150))
}

func TestFitContentToViewport(t *testing.T) {
	r, _ := newTestRenderer(t, 400, 300, WithFitZoom(1))
	r.AddElement(NewCircle(0, 0, 40, Style{Fill: "#000000"}))

	vp := geometry.Rectangle{X: 200, Y: 0, Width: 200, Height: 100}
	scale := r.FitContentToView(&vp)
	assert.InDelta(t, 100.0/100, scale, 1e-9)
	c := r.Transform().Transform(geometry.Point{})
	assert.InDelta(t, 300, c.X, 1e-6)
	assert.InDelta(t, 50, c.Y, 1e-6)
}

func TestFitEmptyIsNoop(t *testing.T) {
	r, _ := newTestRenderer(t, 100, 100)
	assert.Equal(t, 1.0, r.FitContentToView(nil))
	assert.Equal(t, geometry.Identity(), r.Transform().Matrix())
}

func TestTransformAppliesToHitBuffer(t *testing.T) {
	r, c := newTestRenderer(t, 100, 100)
	rect := NewRect(0, 0, 10, 10, Style{Fill: "#000000"})
	hits := 0
	rect.OnClick = func(Event, Shape) { hits++ }
	r.AddElement(rect)
	r.Transform().SetTranslation(50, 50)
	r.Transform().SetScale(3, 3)
	r.Draw()

	c.Dispatch(Event{Type: EventClick, PageX: 10 + 70, PageY: 20 + 70})
	c.Dispatch(Event{Type: EventClick, PageX: 10 + 5, PageY: 20 + 5})
	assert.Equal(t, 1, hits)
}

func TestAnalyticHitTest(t *testing.T) {
	r, _ := newTestRenderer(t, 100, 100, WithHitTestMode(Analytic))
	rect := NewRect(10, 10, 40, 20, Style{Fill: "#000000"})
	circle := NewCircle(40, 20, 5, Style{Fill: "#ff0000"})
	r.AddElement(rect)
	r.AddElement(circle)
	r.Draw()

	assert.Same(t, circle, r.ShapeAt(geometry.Point{X: 40, Y: 20}))
	assert.Same(t, rect, r.ShapeAt(geometry.Point{X: 15, Y: 28}), "height bounds the rect")
	assert.Nil(t, r.ShapeAt(geometry.Point{X: 15, Y: 45}))
}

func TestLocalTransformBounds(t *testing.T) {
	rect := NewRect(10, 10, 20, 10, Style{Fill: "#000000"})
	rect.Transform = &LocalTransform{Scale: 2}
	b, ok := rect.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 10, b.X, 1e-9)
	assert.InDelta(t, 40, b.Width, 1e-9)
	assert.InDelta(t, 20, b.Height, 1e-9)
	assert.True(t, rect.Contains(geometry.Point{X: 45, Y: 25}))
	assert.False(t, rect.Contains(geometry.Point{X: 5, Y: 15}))
}

func TestTextHitSilhouetteIsBox(t *testing.T) {
	r, _ := newTestRenderer(t, 200, 100)
	txt := NewText(100, 50, "M M", Style{Font: 20, TextAlign: "center", TextBaseline: "middle", Background: "#ffffff"})
	r.AddElement(txt)
	r.Draw()

	box := txt.Box()
	assert.True(t, box.Contains(geometry.Point{X: 100, Y: 50}))
	// The gap between the glyphs is still part of the silhouette.
	assert.Same(t, txt, r.ShapeAt(geometry.Point{X: 100, Y: 50}))
	b, ok := txt.Bounds()
	require.True(t, ok)
	assert.Equal(t, box, b)
}

func TestPathReparsesOnChange(t *testing.T) {
	p := NewPath("M 0 0 L 10 0", Style{Stroke: "#000000"})
	first, err := p.Parsed()
	require.NoError(t, err)
	again, _ := p.Parsed()
	assert.Same(t, first, again)

	p.D = "M 0 0 L 20 0"
	second, err := p.Parsed()
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	p.D = "L"
	_, err = p.Parsed()
	assert.Error(t, err)
	_, ok := p.Bounds()
	assert.False(t, ok)
}

func TestWriteSVG(t *testing.T) {
	r, _ := newTestRenderer(t, 100, 100)
	r.AddElement(NewCircle(20, 20, 10, Style{Fill: "#fff", Stroke: "#333333", StrokeWidth: 2}))
	r.AddElement(NewPath("M 0 0 L 40 40", Style{Stroke: "red"}))
	r.AddElement(NewText(50, 50, "a<b", Style{TextAlign: "center"}))
	r.Draw()

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, r))
	out := buf.String()
	assert.Contains(t, out, `<circle cx="20" cy="20" r="10" fill="#ffffff" stroke="#333333" stroke-width="2"/>`)
	assert.Contains(t, out, `<path d="M 0 0 L 40 40" fill="none" stroke="#ff0000"`)
	assert.Contains(t, out, `text-anchor="middle"`)
	assert.Contains(t, out, "a&lt;b")
	assert.Contains(t, out, "</svg>")
}

func TestRunDrivesFrames(t *testing.T) {
	r, c := newTestRenderer(t, 40, 40)
	rect := NewRect(0, 0, 40, 40, Style{Fill: "#000000"})
	clicked := false
	rect.OnClick = func(Event, Shape) { clicked = true }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames, presented := 0, 0
	r.Defer(func() { r.AddElement(rect) })
	r.OnFrame(func() {
		frames++
		if frames == 2 {
			c.Dispatch(Event{Type: EventClick, PageX: 30, PageY: 40})
		}
		if clicked && frames >= 4 {
			cancel()
		}
	})

	err := r.Run(ctx, RunConfig{FPS: 200, Present: func(*image.RGBA) { presented++ }})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, clicked, "posted click is handled on the loop goroutine")
	assert.GreaterOrEqual(t, frames, 4)
	assert.GreaterOrEqual(t, presented, 3)
	assert.True(t, r.Has(rect))
}
