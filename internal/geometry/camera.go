package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Visibility selects which annotation boxes are drawn on a camera image.
type Visibility string

const (
	VisibleAny  Visibility = "any"  // at least one corner inside the image
	VisibleAll  Visibility = "all"  // every corner inside the image
	VisibleNone Visibility = "none" // no filtering
)

// ParseVisibility validates a visibility name.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibleAny, VisibleAll, VisibleNone:
		return v, nil
	}
	return "", fmt.Errorf("unknown box visibility %q", s)
}

// minDepth is how far in front of the lens a corner must be to count as visible.
const minDepth = 0.1

// Camera projects camera-frame points onto the image plane.
type Camera struct {
	K      *mat.Dense
	Width  int
	Height int
}

// NewCamera builds a camera from a 3x3 calibrated_sensor intrinsic matrix.
func NewCamera(intrinsic [][]float64, width, height int) (*Camera, error) {
	if len(intrinsic) != 3 {
		return nil, fmt.Errorf("camera intrinsic must be 3x3, got %d rows", len(intrinsic))
	}
	data := make([]float64, 0, 9)
	for i, row := range intrinsic {
		if len(row) != 3 {
			return nil, fmt.Errorf("camera intrinsic row %d has %d values", i, len(row))
		}
		data = append(data, row...)
	}
	return &Camera{K: mat.NewDense(3, 3, data), Width: width, Height: height}, nil
}

// Project maps a camera-frame point to pixel coordinates, with y growing down.
func (c *Camera) Project(p r3.Vec) r2.Vec {
	var out mat.VecDense
	out.MulVec(c.K, mat.NewVecDense(3, []float64{p.X, p.Y, p.Z}))
	z := out.AtVec(2)
	if z == 0 {
		return r2.Vec{X: out.AtVec(0), Y: out.AtVec(1)}
	}
	return r2.Vec{X: out.AtVec(0) / z, Y: out.AtVec(1) / z}
}

// ProjectBox projects all eight corners of a camera-frame box.
func (c *Camera) ProjectBox(b Box) [8]r2.Vec {
	var out [8]r2.Vec
	for i, p := range b.Corners() {
		out[i] = c.Project(p)
	}
	return out
}

// InImage reports whether a camera-frame box passes the visibility rule.
func (c *Camera) InImage(b Box, vis Visibility) bool {
	if vis == VisibleNone {
		return true
	}
	visible := 0
	for _, p := range b.Corners() {
		px := c.Project(p)
		if p.Z > minDepth && px.X > 0 && px.X < float64(c.Width) && px.Y > 0 && px.Y < float64(c.Height) {
			visible++
		}
	}
	if vis == VisibleAll {
		return visible == 8
	}
	return visible > 0
}
