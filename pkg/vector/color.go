package vector

import (
	"fmt"
	"strconv"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	ColorWhite = Color{255, 255, 255, 255}
	ColorBlack = Color{0, 0, 0, 255}
	ColorRed   = Color{255, 0, 0, 255}
	ColorGreen = Color{0, 255, 0, 255}
	ColorBlue  = Color{0, 0, 255, 255}
)

// NewColor builds an opaque color from its RGB components.
func NewColor(r, g, b uint8) Color { return Color{r, g, b, 255} }

// String returns "R G B A".
func (c Color) String() string {
	return fmt.Sprintf("%d %d %d %d", c.R, c.G, c.B, c.A)
}

// ParseColor parses a color from its string form.
func ParseColor(s string) (Color, error) {
	fields := splitFields(s)
	if len(fields) != 4 {
		return Color{}, fmt.Errorf("%w: expected 4 components, got %d", ErrValueDomain, len(fields))
	}
	var out [4]uint8
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: component %d: %q", ErrValueDomain, i, f)
		}
		out[i] = uint8(v)
	}
	return Color{out[0], out[1], out[2], out[3]}, nil
}
