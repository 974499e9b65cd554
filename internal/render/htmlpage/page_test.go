package htmlpage

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/render"
)

func TestReset_KeepsShape(t *testing.T) {
	p := New(fsutil.NewMemoryFileSystem(), "nuview", 400, 300)
	p.Reset(2, 3)
	p.Clear(0, "CAM_FRONT_LEFT")
	p.Reset(2, 3)

	rows, cols, n := p.Shape()
	assert.Equal(t, []int{2, 3, 1}, []int{rows, cols, n})
	require.NotNil(t, p.cells[0])
	assert.Equal(t, "CAM_FRONT_LEFT", p.cells[0].title)

	p.Hide(0)
	assert.Nil(t, p.cells[0])
}

func TestDraw_Errors(t *testing.T) {
	p := New(fsutil.NewMemoryFileSystem(), "nuview", 400, 300)
	p.Reset(1, 1)
	assert.Error(t, p.Draw(3, &render.PointLayer{}))

	var buf bytes.Buffer
	assert.Error(t, New(fsutil.NewMemoryFileSystem(), "x", 1, 1).Render(&buf))
}

func TestSave(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	p := New(fs, "nuview", 400, 300)
	p.Reset(1, 3)

	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	p.Clear(0, "CAM_FRONT")
	require.NoError(t, p.Draw(0, &render.ImageLayer{
		Channel: "CAM_FRONT", Image: img, Width: 16, Height: 9,
		Outlines: []render.Outline{{Label: "vehicle.car", Points: []r2.Vec{{X: 1, Y: 1}, {X: 4, Y: 4}}, Closed: true}},
	}))
	p.Clear(1, "Fused RADARs")
	require.NoError(t, p.Draw(1, &render.PointLayer{
		Channel: "Fused RADARs",
		Points:  []r2.Vec{{X: 10, Y: 0}, {X: 20, Y: 5}, {X: 500, Y: 0}},
		Colors:  []color.Color{color.Black, color.Black, color.White},
		Arrows:  [][2]r2.Vec{{{X: 10, Y: 0}, {X: 16, Y: 0}}},
		Limit:   40,
	}))
	p.Hide(2)

	require.NoError(t, p.Save("/out/nuview.html"))
	data, err := fs.ReadFile("/out/nuview.html")
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "CAM_FRONT")
	assert.Contains(t, html, "Fused RADARs")
	assert.Contains(t, html, "image://data:image/jpeg;base64,")
	assert.Contains(t, html, "velocity")
	// the out-of-range white point is dropped, so only black points remain
	assert.NotContains(t, html, "#f0f0f0")
	assert.Equal(t, 3, strings.Count(html, "echarts.init("))
}

func TestSave_ImageOverlay(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	p := New(fs, "nuview", 400, 300)
	p.Reset(1, 1)
	p.Clear(0, "CAM_FRONT")
	require.NoError(t, p.Draw(0, &render.ImageLayer{
		Channel: "CAM_FRONT", Image: image.NewRGBA(image.Rect(0, 0, 16, 9)), Width: 16, Height: 9,
		Overlay: &render.PointLayer{
			Channel: "LIDAR_TOP",
			Points:  []r2.Vec{{X: 4, Y: 2}, {X: 5, Y: 3}},
			Colors:  []color.Color{color.RGBA{R: 255, A: 255}, color.RGBA{R: 255, A: 255}},
		},
	}))

	require.NoError(t, p.Save("/out/overlay.html"))
	data, err := fs.ReadFile("/out/overlay.html")
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "LIDAR_TOP")
	assert.Contains(t, html, "#f00000")
	// pixel rows are flipped into plot coordinates
	assert.Contains(t, html, "[4,7]")
	assert.Contains(t, html, "[5,6]")
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#000000", hexColor(color.Black))
	assert.Equal(t, "#f0f0f0", hexColor(color.White))
	assert.Equal(t, "#f09000", hexColor(color.RGBA{R: 255, G: 158, A: 255}))
}
