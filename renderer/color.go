package renderer

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// petalColor maps the hue, saturation, value and alpha outputs to a pixel.
// Alpha stays in [128, 255] so that every petal pixel is visible.
func petalColor(h, s, v, a float64) color.NRGBA {
	hue := math.Mod(math.Abs(h), 1) * 360
	if math.IsNaN(hue) {
		hue = 0
	}
	r, g, b := colorful.Hsv(hue, clamp01(math.Abs(s)), clamp01(math.Abs(v))).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(128 + math.Round(127*clamp01(math.Abs(a))))}
}

// stemColor keeps the network's colour inside a green band.
func stemColor(h, s, v float64) color.NRGBA {
	hue := 75 + 60*clamp01(math.Abs(h))
	sat := 0.45 + 0.55*clamp01(math.Abs(s))
	val := 0.25 + 0.6*clamp01(math.Abs(v))
	r, g, b := colorful.Hsv(hue, sat, val).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
