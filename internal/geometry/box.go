package geometry

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an oriented 3D annotation box. Size is width, length, height.
type Box struct {
	Name     string
	Token    string
	Center   r3.Vec
	Size     [3]float64
	Rotation r3.Rotation
	Velocity r3.Vec
}

// Moved returns the box with t applied to its pose.
func (b Box) Moved(t Transform) Box {
	b.Center = t.Apply(b.Center)
	b.Rotation = r3.Rotation(quat.Mul(quat.Number(t.Rotation), quat.Number(b.Rotation)))
	b.Velocity = t.Rotation.Rotate(b.Velocity)
	return b
}

// Corners returns the eight box corners. The first four face forward along
// the box's x axis, the last four face backward; within each face the order is
// left-top, right-top, right-bottom, left-bottom.
func (b Box) Corners() [8]r3.Vec {
	w, l, h := b.Size[0]/2, b.Size[1]/2, b.Size[2]/2
	xs := [8]float64{l, l, l, l, -l, -l, -l, -l}
	ys := [8]float64{w, -w, -w, w, w, -w, -w, w}
	zs := [8]float64{h, h, -h, -h, h, h, -h, -h}
	var out [8]r3.Vec
	for i := range out {
		p := b.Rotation.Rotate(r3.Vec{X: xs[i], Y: ys[i], Z: zs[i]})
		out[i] = r3.Add(p, b.Center)
	}
	return out
}

// BottomCorners returns the four lower corners, used for top-down outlines.
func (b Box) BottomCorners() [4]r3.Vec {
	c := b.Corners()
	return [4]r3.Vec{c[2], c[3], c[7], c[6]}
}

// Edges lists corner index pairs that draw a box wireframe.
var Edges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0}, // front face
	{4, 5}, {5, 6}, {6, 7}, {7, 4}, // rear face
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}
