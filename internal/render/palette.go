package render

import (
	"image/color"
	"strings"

	"gonum.org/v1/plot/palette/moreland"
)

// goldenRatio spaces label hues so neighbouring indices are easy to tell apart.
const goldenRatio = 0.618033988749895

// LabelColor returns a stable colour for a lidarseg label or category index.
func LabelColor(idx int) color.RGBA {
	if idx == 0 {
		return color.RGBA{A: 255}
	}
	hue := float64(idx) * goldenRatio
	hue -= float64(int(hue))
	r, g, b := hslToRGB(hue, 0.7, 0.5)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// BoxColor picks an annotation colour from the category name's top level.
func BoxColor(category string) color.RGBA {
	top, _, _ := strings.Cut(category, ".")
	switch top {
	case "vehicle":
		return color.RGBA{R: 255, G: 158, A: 255}
	case "human":
		return color.RGBA{G: 0, B: 230, A: 255}
	case "movable_object", "static_object":
		return color.RGBA{R: 112, G: 128, B: 144, A: 255}
	case "animal":
		return color.RGBA{R: 220, G: 20, B: 60, A: 255}
	}
	return color.RGBA{A: 255}
}

// PointColors resolves one colour per point: explicit colours when present,
// otherwise a blue-red ramp over Values from zero to the larger of Limit and
// the maximum value.
func (l *PointLayer) PointColors() []color.Color {
	if len(l.Colors) == len(l.Points) {
		return l.Colors
	}
	cmap := moreland.SmoothBlueRed()
	maxV := l.Limit
	for _, v := range l.Values {
		if v > maxV {
			maxV = v
		}
	}
	if maxV <= 0 {
		maxV = 1
	}
	cmap.SetMin(0)
	cmap.SetMax(maxV)
	out := make([]color.Color, len(l.Points))
	for i := range out {
		v := 0.0
		if i < len(l.Values) {
			v = l.Values[i]
		}
		c, err := cmap.At(v)
		if err != nil {
			c = color.Gray{Y: 128}
		}
		out[i] = c
	}
	return out
}
