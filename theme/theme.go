// Package theme holds the color palettes used when rendering table
// views. Palettes are plain values; picking one never touches global
// state, so two views can render with different variants at once.
package theme

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Variant selects one of the built-in palettes.
type Variant int

const (
	VariantLight Variant = iota
	VariantDark
	VariantBlue
)

func (v Variant) String() string {
	switch v {
	case VariantLight:
		return "light"
	case VariantDark:
		return "dark"
	case VariantBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// ParseVariant maps a configuration value to a Variant. Matching is
// case-insensitive; the empty string means the light variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "light":
		return VariantLight, nil
	case "dark":
		return VariantDark, nil
	case "blue":
		return VariantBlue, nil
	default:
		return VariantLight, fmt.Errorf("unknown theme %q (valid: light, dark, blue)", s)
	}
}

// Palette is the set of colors one variant renders with. GradientLow
// and GradientHigh are the endpoints used to shade numeric cells by
// their background hint.
type Palette struct {
	Background      color.NRGBA
	Foreground      color.NRGBA
	Primary         color.NRGBA
	Hover           color.NRGBA
	Focus           color.NRGBA
	Selection       color.NRGBA
	InputBackground color.NRGBA
	GradientLow     color.NRGBA
	GradientHigh    color.NRGBA
}

// PaletteFor returns the palette for a variant. Unknown variants fall
// back to the light palette.
func PaletteFor(v Variant) Palette {
	switch v {
	case VariantDark:
		return Palette{
			Background:      color.NRGBA{R: 0x2b, G: 0x2b, B: 0x2b, A: 0xff},
			Foreground:      color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
			Primary:         color.NRGBA{R: 0x00, G: 0x78, B: 0xd7, A: 0xff},
			Hover:           color.NRGBA{R: 0x64, G: 0xb5, B: 0xf6, A: 0xff},
			Focus:           color.NRGBA{R: 0x90, G: 0xca, B: 0xf9, A: 0xff},
			Selection:       color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
			InputBackground: color.NRGBA{R: 0x2d, G: 0x2d, B: 0x2d, A: 0xff},
			GradientLow:     color.NRGBA{R: 0x2d, G: 0x2d, B: 0x2d, A: 0xff},
			GradientHigh:    color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
		}
	case VariantBlue:
		return Palette{
			Background:      color.NRGBA{R: 0xf0, G: 0xf8, B: 0xff, A: 0xff},
			Foreground:      color.NRGBA{R: 0x10, G: 0x2a, B: 0x43, A: 0xff},
			Primary:         color.NRGBA{R: 0x00, G: 0x66, B: 0xcc, A: 0xff},
			Hover:           color.NRGBA{R: 0x64, G: 0xb5, B: 0xf6, A: 0xff},
			Focus:           color.NRGBA{R: 0x00, G: 0x4c, B: 0x99, A: 0xff},
			Selection:       color.NRGBA{R: 0xcc, G: 0xe0, B: 0xf5, A: 0xff},
			InputBackground: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
			GradientLow:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
			GradientHigh:    color.NRGBA{R: 0x99, G: 0xc2, B: 0xe8, A: 0xff},
		}
	default:
		return Palette{
			Background:      color.NRGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff},
			Foreground:      color.NRGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xff},
			Primary:         color.NRGBA{R: 0x21, G: 0x96, B: 0xf3, A: 0xff},
			Hover:           color.NRGBA{R: 0x64, G: 0xb5, B: 0xf6, A: 0xff},
			Focus:           color.NRGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff},
			Selection:       color.NRGBA{R: 0xbb, G: 0xde, B: 0xfb, A: 0xff},
			InputBackground: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
			GradientLow:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
			GradientHigh:    color.NRGBA{R: 0xbb, G: 0xde, B: 0xfb, A: 0xff},
		}
	}
}

// CellColor shades a numeric cell by its background hint, interpolating
// between the palette's gradient endpoints. The hint is clamped to
// [0, 1].
func (p Palette) CellColor(hint float64) color.NRGBA {
	return Lerp(p.GradientLow, p.GradientHigh, hint)
}

// Lerp interpolates between two colors channel by channel. t outside
// [0, 1] is clamped.
func Lerp(low, high color.NRGBA, t float64) color.NRGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return color.NRGBA{
		R: lerpChannel(low.R, high.R, t),
		G: lerpChannel(low.G, high.G, t),
		B: lerpChannel(low.B, high.B, t),
		A: lerpChannel(low.A, high.A, t),
	}
}

func lerpChannel(low, high uint8, t float64) uint8 {
	return uint8(math.Round(float64(low) + t*(float64(high)-float64(low))))
}

// Hex renders a color as "#rrggbb".
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
