package raster

import (
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

var namedColors = map[string]color.RGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"yellow": {255, 255, 0, 255},
	"orange": {255, 165, 0, 255},
	"purple": {128, 0, 128, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
}

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa" or a basic color name.
// ok is false for "", "none", "transparent" and anything unparseable, all
// of which mean "do not paint".
func ParseColor(s string) (c color.RGBA, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "transparent":
		return color.RGBA{}, false
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}

	if len(s) != 4 && len(s) != 7 && len(s) != 9 {
		return color.RGBA{}, false
	}
	v, err := gg.ParseHex(s)
	if err != nil || v.A == 0 {
		return color.RGBA{}, false
	}
	premul := func(x float64) uint8 { return uint8(math.Round(x * v.A * 255)) }
	return color.RGBA{R: premul(v.R), G: premul(v.G), B: premul(v.B), A: premul(1)}, true
}

// FormatColor renders an opaque color as "#rrggbb".
func FormatColor(c color.RGBA) string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0x0f]
	}
	return string(b)
}
