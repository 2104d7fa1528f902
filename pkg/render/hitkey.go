package render

import (
	"fmt"
	"image/color"
	"sync/atomic"
)

// ID identifies a shape. It doubles as the shape's key color in the hit
// buffer, so only the low 24 bits are used.
type ID uint32

// NoID is the key of an empty hit-buffer pixel.
const NoID ID = 0

const maxID = 1<<24 - 1

var lastID atomic.Uint32

// NextID returns a fresh process-unique shape id. Ids wrap after 2^24-1
// allocations, skipping NoID.
func NextID() ID {
	for {
		id := ID(lastID.Add(1) & maxID)
		if id != NoID {
			return id
		}
	}
}

// String returns the id in its #rrggbb form.
func (id ID) String() string {
	return fmt.Sprintf("#%06x", uint32(id)&maxID)
}

// IDToColor returns the opaque key color for id.
func IDToColor(id ID) color.RGBA {
	return color.RGBA{R: uint8(id >> 16), G: uint8(id >> 8), B: uint8(id), A: 0xff}
}

// ColorToID is the inverse of IDToColor. Anything that is not fully opaque
// maps to NoID.
func ColorToID(c color.RGBA) ID {
	if c.A != 0xff {
		return NoID
	}
	return ID(c.R)<<16 | ID(c.G)<<8 | ID(c.B)
}
