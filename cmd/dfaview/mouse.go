package main

import (
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/dfaviz/pkg/render"
)

const (
	doubleClickTime = 400 * time.Millisecond
	// Pointer travel, in pixels, that turns a press into a drag.
	clickSlop = 2.0
)

// mouseTracker turns tcell's button-state reports into pointer events. A
// cell covers one pixel across and two down, so events land in the middle
// of the cell.
type mouseTracker struct {
	down        bool
	moved       bool
	downX       float64
	downY       float64
	lastX       float64
	lastY       float64
	lastClick   time.Time
	lastClickAt [2]float64
}

func cellToPage(x, y int) (float64, float64) {
	return float64(x) + 0.5, float64(2*y) + 1
}

// translate reports the events implied by one tcell mouse report.
func (m *mouseTracker) translate(x, y int, buttons tcell.ButtonMask, now time.Time) []render.Event {
	px, py := cellToPage(x, y)
	ev := func(t render.EventType) render.Event {
		return render.Event{Type: t, PageX: px, PageY: py}
	}

	var out []render.Event
	if buttons&tcell.WheelUp != 0 {
		e := ev(render.EventWheel)
		e.DeltaY = -1
		out = append(out, e)
	}
	if buttons&tcell.WheelDown != 0 {
		e := ev(render.EventWheel)
		e.DeltaY = 1
		out = append(out, e)
	}

	pressed := buttons&tcell.Button1 != 0
	switch {
	case pressed && !m.down:
		m.down, m.moved = true, false
		m.downX, m.downY = px, py
		out = append(out, ev(render.EventPointerDown))
	case pressed && m.down:
		if px != m.lastX || py != m.lastY {
			if math.Abs(px-m.downX) > clickSlop || math.Abs(py-m.downY) > clickSlop {
				m.moved = true
			}
			out = append(out, ev(render.EventPointerMove))
		}
	case !pressed && m.down:
		m.down = false
		out = append(out, ev(render.EventPointerUp))
		if !m.moved {
			out = append(out, ev(render.EventClick))
			if now.Sub(m.lastClick) <= doubleClickTime && m.lastClickAt == [2]float64{px, py} {
				out = append(out, ev(render.EventDoubleClick))
				m.lastClick = time.Time{}
			} else {
				m.lastClick, m.lastClickAt = now, [2]float64{px, py}
			}
		}
	default:
		if px != m.lastX || py != m.lastY {
			out = append(out, ev(render.EventPointerMove))
		}
	}
	m.lastX, m.lastY = px, py
	return out
}

// leave ends any press, as when the pointer leaves the canvas.
func (m *mouseTracker) leave() render.Event {
	m.down = false
	return render.Event{Type: render.EventPointerLeave, PageX: m.lastX, PageY: m.lastY}
}
