package raster

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/render"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func newFigure(fs fsutil.FileSystem) *Figure {
	return New(fs, 4*vg.Inch, 2*vg.Inch, 30)
}

func TestReset_KeepsShape(t *testing.T) {
	f := newFigure(fsutil.NewMemoryFileSystem())
	f.Reset(2, 2)
	f.Clear(0, "CAM_FRONT")
	f.Reset(2, 2)

	rows, cols, n := f.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 1, n)
	assert.True(t, f.Visible(0), "cell content should survive a same-shape reset")

	f.Reset(1, 3)
	_, _, n = f.Shape()
	assert.Equal(t, 2, n)
	assert.False(t, f.Visible(0))
}

func TestClearHide(t *testing.T) {
	f := newFigure(fsutil.NewMemoryFileSystem())
	f.Reset(1, 2)
	f.Clear(1, "RADAR")
	assert.True(t, f.Visible(1))
	f.Hide(1)
	assert.False(t, f.Visible(1))

	// out of range is ignored
	f.Clear(9, "x")
	f.Hide(-1)
	assert.Error(t, f.Draw(5, &render.PointLayer{}))
}

func TestDraw_ImageAndPoints(t *testing.T) {
	f := newFigure(fsutil.NewMemoryFileSystem())
	f.Reset(1, 2)

	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	img.Set(3, 3, color.White)
	camera := &render.ImageLayer{
		Channel: "CAM_FRONT", Image: img, Width: 16, Height: 9,
		Outlines: []render.Outline{{
			Label:  "vehicle.car",
			Points: []r2.Vec{{X: 2, Y: 2}, {X: 6, Y: 2}, {X: 6, Y: 5}},
			Closed: true,
		}},
	}
	lidar := &render.PointLayer{
		Channel: "LIDAR_TOP",
		Points:  []r2.Vec{{X: 1, Y: 1}, {X: -5, Y: 3}, {X: 100, Y: 0}},
		Values:  []float64{1.4, 5.8, 100},
		Arrows:  [][2]r2.Vec{{{X: 1, Y: 1}, {X: 2, Y: 1}}},
		Outlines: []render.Outline{{
			Label:  "human.pedestrian.adult",
			Points: []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
			Closed: true,
		}},
		Limit: 20,
	}

	f.Clear(0, camera.Title())
	require.NoError(t, f.Draw(0, camera))
	f.Clear(1, lidar.Title())
	require.NoError(t, f.Draw(1, lidar))

	p := f.cells[1]
	assert.Equal(t, -20.0, p.X.Min)
	assert.Equal(t, 20.0, p.Y.Max)
	assert.Equal(t, 16.0, f.cells[0].X.Max)

	data, err := f.Encode()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestDraw_ImageOverlay(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	encode := func(overlay *render.PointLayer) []byte {
		f := newFigure(fsutil.NewMemoryFileSystem())
		f.Reset(1, 1)
		f.Clear(0, "CAM_FRONT")
		require.NoError(t, f.Draw(0, &render.ImageLayer{
			Channel: "CAM_FRONT", Image: img, Width: 16, Height: 9, Overlay: overlay,
		}))
		data, err := f.Encode()
		require.NoError(t, err)
		return data
	}

	plain := encode(nil)
	assert.Equal(t, plain, encode(&render.PointLayer{Channel: "LIDAR_TOP"}), "an empty overlay draws nothing")

	withPoints := encode(&render.PointLayer{
		Channel: "LIDAR_TOP",
		Points:  []r2.Vec{{X: 4, Y: 2}, {X: 12, Y: 7}},
		Colors:  []color.Color{color.RGBA{R: 255, A: 255}, color.RGBA{G: 255, A: 255}},
	})
	assert.True(t, bytes.HasPrefix(withPoints, pngMagic))
	assert.NotEqual(t, plain, withPoints)
}

func TestSave_WritesPNG(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	f := newFigure(fs)
	f.Reset(1, 1)
	f.Clear(0, "Fused RADARs")
	require.NoError(t, f.Draw(0, &render.PointLayer{Channel: "Fused RADARs", Limit: 40}))

	path := filepath.Join("/out", "nuview.png")
	require.NoError(t, f.Save(path))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
	assert.False(t, fs.Exists(path+".tmp"))
}

func TestEncode_Empty(t *testing.T) {
	_, err := newFigure(fsutil.NewMemoryFileSystem()).Encode()
	assert.Error(t, err)
}
