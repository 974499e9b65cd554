package render

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/nuview/internal/geometry"
)

// Options controls what a sensor cell shows.
type Options struct {
	BoxVisibility  geometry.Visibility
	NSweeps        int
	AxesLimit      float64 // metres either side of the ego vehicle
	Lidarseg       bool
	LidarsegFilter []int // lidarseg label indices to keep; nil keeps all
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{BoxVisibility: geometry.VisibleAny, NSweeps: 1, AxesLimit: 40}
}

// Layer is drawable content for one cell: an *ImageLayer or a *PointLayer.
type Layer interface {
	Title() string
}

// Outline is a labelled polyline in cell coordinates.
type Outline struct {
	Label  string
	Points []r2.Vec
	Closed bool
}

// ImageLayer is a camera frame with projected annotation boxes. Outline
// points are pixels with y growing downward.
type ImageLayer struct {
	Channel  string
	Token    string
	Path     string
	Image    image.Image
	Width    int
	Height   int
	Outlines []Outline
	// Overlay holds lidar points projected into the frame, in the same pixel
	// coordinates as Outlines. Nil when no overlay was asked for.
	Overlay *PointLayer
}

// Title returns the camera channel.
func (l *ImageLayer) Title() string { return l.Channel }

// PointLayer is a top-down view in the ego frame, x forward and y left.
type PointLayer struct {
	Channel string
	Points  []r2.Vec
	// Values drive the colour map when Colors is empty.
	Values []float64
	// Colors, when set, holds one colour per point.
	Colors   []color.Color
	Arrows   [][2]r2.Vec
	Outlines []Outline
	Limit    float64
}

// Title returns the channel or fused-channel name.
func (l *PointLayer) Title() string { return l.Channel }

// Merge appends o's content to l. Per-point colours survive only when both
// layers carry them.
func (l *PointLayer) Merge(o *PointLayer) {
	if o == nil {
		return
	}
	keep := len(o.Colors) > 0 && len(o.Colors) == len(o.Points) &&
		len(l.Colors) == len(l.Points)
	if keep {
		l.Colors = append(l.Colors, o.Colors...)
	} else {
		l.Colors = nil
	}
	l.Points = append(l.Points, o.Points...)
	l.Values = append(l.Values, o.Values...)
	l.Arrows = append(l.Arrows, o.Arrows...)
	l.Outlines = append(l.Outlines, o.Outlines...)
	if o.Limit > l.Limit {
		l.Limit = o.Limit
	}
}
