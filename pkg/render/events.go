package render

// EventType enumerates the pointer events the renderer understands.
type EventType int

const (
	EventClick EventType = iota
	EventPointerDown
	EventPointerUp
	EventPointerMove
	EventPointerLeave
	EventDoubleClick
	EventWheel
)

// EventTypes lists every event type a renderer listens for.
var EventTypes = []EventType{
	EventClick,
	EventPointerDown,
	EventPointerUp,
	EventPointerMove,
	EventPointerLeave,
	EventDoubleClick,
	EventWheel,
}

func (t EventType) String() string {
	switch t {
	case EventClick:
		return "click"
	case EventPointerDown:
		return "pointerdown"
	case EventPointerUp:
		return "pointerup"
	case EventPointerMove:
		return "pointermove"
	case EventPointerLeave:
		return "pointerleave"
	case EventDoubleClick:
		return "dblclick"
	case EventWheel:
		return "wheel"
	}
	return "unknown"
}

// Event is a host pointer event. PageX and PageY are host coordinates;
// X and Y are filled in by the renderer relative to the canvas origin.
type Event struct {
	Type   EventType
	PageX  float64
	PageY  float64
	X      float64
	Y      float64
	Button int
	DeltaY float64
}

// Handler receives an event together with the shape it was dispatched to.
type Handler func(ev Event, s Shape)
