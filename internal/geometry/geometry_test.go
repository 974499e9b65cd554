package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

// front camera mounting used by the dataset: camera z forward, x right, y down
var frontCamera = [4]float64{0.5, -0.5, 0.5, -0.5}

func TestTransform_ApplyInverse(t *testing.T) {
	tf := NewTransform([3]float64{1.5, 0, 1.5}, frontCamera)

	// camera forward axis points along ego x
	assertVec(t, r3.Vec{X: 11.5, Y: 0, Z: 1.5}, tf.Apply(r3.Vec{Z: 10}))
	// camera right is ego -y, camera down is ego -z
	assertVec(t, r3.Vec{X: 1.5, Y: -1, Z: 1.5}, tf.Apply(r3.Vec{X: 1}))
	assertVec(t, r3.Vec{X: 1.5, Y: 0, Z: 0.5}, tf.Apply(r3.Vec{Y: 1}))

	p := r3.Vec{X: 3, Y: -2, Z: 7}
	assertVec(t, p, tf.Inverse().Apply(tf.Apply(p)))
}

func TestTransform_Then(t *testing.T) {
	yaw90 := NewTransform([3]float64{10, 0, 0}, [4]float64{math.Sqrt2 / 2, 0, 0, math.Sqrt2 / 2})
	shift := NewTransform([3]float64{0, 0, 1}, [4]float64{1, 0, 0, 0})

	p := r3.Vec{X: 1}
	assertVec(t, shift.Apply(yaw90.Apply(p)), yaw90.Then(shift).Apply(p))
	assertVec(t, r3.Vec{X: 10, Y: 1, Z: 1}, yaw90.Then(shift).Apply(p))
}

func TestRotation_NormalisesAndDefaults(t *testing.T) {
	r := Rotation([4]float64{2, 0, 0, 0})
	assertVec(t, r3.Vec{X: 1, Y: 2, Z: 3}, r.Rotate(r3.Vec{X: 1, Y: 2, Z: 3}))

	zero := Rotation([4]float64{})
	assertVec(t, r3.Vec{X: 1}, zero.Rotate(r3.Vec{X: 1}))
}

func TestYaw(t *testing.T) {
	r := Rotation([4]float64{math.Cos(math.Pi / 4), 0, 0, math.Sin(math.Pi / 4)})
	assert.InDelta(t, math.Pi/2, Yaw(r), eps)
}

func TestBoxCorners(t *testing.T) {
	b := Box{Center: r3.Vec{X: 10, Z: 1}, Size: [3]float64{2, 4, 1.5}, Rotation: Rotation([4]float64{1, 0, 0, 0})}
	c := b.Corners()

	assertVec(t, r3.Vec{X: 12, Y: 1, Z: 1.75}, c[0])
	assertVec(t, r3.Vec{X: 8, Y: -1, Z: 0.25}, c[6])
	for _, p := range b.BottomCorners() {
		assert.InDelta(t, 0.25, p.Z, eps)
	}
}

func TestBoxMoved(t *testing.T) {
	b := Box{Center: r3.Vec{X: 10}, Size: [3]float64{2, 4, 1.5}, Rotation: Rotation([4]float64{1, 0, 0, 0})}
	yaw90 := NewTransform([3]float64{0, 0, 0}, [4]float64{math.Sqrt2 / 2, 0, 0, math.Sqrt2 / 2})

	moved := b.Moved(yaw90)
	assertVec(t, r3.Vec{Y: 10}, moved.Center)
	assert.InDelta(t, math.Pi/2, Yaw(moved.Rotation), eps)
}

func TestCameraProjectAndVisibility(t *testing.T) {
	cam, err := NewCamera([][]float64{{126.6, 0, 81.6}, {0, 126.6, 49.1}, {0, 0, 1}}, 160, 90)
	require.NoError(t, err)

	px := cam.Project(r3.Vec{X: 0, Y: 0, Z: 5})
	assert.InDelta(t, 81.6, px.X, eps)
	assert.InDelta(t, 49.1, px.Y, eps)

	// a car 8.5m ahead of the camera
	ahead := Box{Center: r3.Vec{Y: 0.5, Z: 8.5}, Size: [3]float64{2, 4, 1.5}, Rotation: Rotation([4]float64{1, 0, 0, 0})}
	assert.True(t, cam.InImage(ahead, VisibleAny))
	assert.True(t, cam.InImage(ahead, VisibleAll))

	behind := ahead
	behind.Center.Z = -8.5
	assert.False(t, cam.InImage(behind, VisibleAny))
	assert.True(t, cam.InImage(behind, VisibleNone))

	// straddling the left image edge: some corners in, some out
	edge := ahead
	edge.Center.X = -5.5
	assert.True(t, cam.InImage(edge, VisibleAny))
	assert.False(t, cam.InImage(edge, VisibleAll))
}

func TestNewCamera_Rejects(t *testing.T) {
	_, err := NewCamera(nil, 1, 1)
	assert.Error(t, err)
	_, err = NewCamera([][]float64{{1, 0}, {0, 1}, {0, 0}}, 1, 1)
	assert.Error(t, err)
}

func TestParseVisibility(t *testing.T) {
	v, err := ParseVisibility("all")
	require.NoError(t, err)
	assert.Equal(t, VisibleAll, v)
	_, err = ParseVisibility("some")
	assert.Error(t, err)
}
