package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/nuview/internal/sensors"
)

type fakeSource struct {
	fail      map[string]bool
	boxCalls  []string
	pointCall []string
}

func (f *fakeSource) Image(_ context.Context, ch sensors.Channel, _ Options) (*ImageLayer, error) {
	if f.fail[ch.Name] {
		return nil, errors.New("corrupt jpeg")
	}
	return &ImageLayer{Channel: ch.Name, Token: ch.Token}, nil
}

func (f *fakeSource) Points(_ context.Context, ch sensors.Channel, opts Options, withBoxes bool) (*PointLayer, error) {
	f.pointCall = append(f.pointCall, ch.Name)
	if withBoxes {
		f.boxCalls = append(f.boxCalls, ch.Name)
	}
	if f.fail[ch.Name] {
		return nil, errors.New("truncated pcd")
	}
	l := &PointLayer{Channel: ch.Name, Points: []r2.Vec{{X: 1}}, Values: []float64{1}, Limit: opts.AxesLimit}
	if withBoxes {
		l.Outlines = []Outline{{Label: "car"}}
	}
	return l, nil
}

type op struct {
	kind string
	cell int
	arg  string
}

type recordingSurface struct {
	rows, cols int
	ops        []op
	layers     map[int]Layer
}

func (s *recordingSurface) Reset(rows, cols int) {
	s.rows, s.cols = rows, cols
	s.layers = map[int]Layer{}
	s.ops = append(s.ops, op{"reset", -1, fmt.Sprintf("%dx%d", rows, cols)})
}
func (s *recordingSurface) Clear(cell int, title string) { s.ops = append(s.ops, op{"clear", cell, title}) }
func (s *recordingSurface) Hide(cell int)                { s.ops = append(s.ops, op{"hide", cell, ""}) }
func (s *recordingSurface) Draw(cell int, l Layer) error {
	s.layers[cell] = l
	s.ops = append(s.ops, op{"draw", cell, l.Title()})
	return nil
}
func (s *recordingSurface) Save(string) error { return nil }

func TestDispatcher_RenderAll(t *testing.T) {
	src := &fakeSource{}
	surf := &recordingSurface{}
	d := &Dispatcher{Source: src}

	layout := PlanLayout(group(3, 1, allCams...), ViewAll)
	require.NoError(t, d.Render(context.Background(), surf, layout, DefaultOptions()))

	assert.Equal(t, 4, surf.rows)
	assert.Len(t, surf.layers, 8)

	radar := surf.layers[0].(*PointLayer)
	assert.Len(t, radar.Points, 3, "three radars fused into one cell")
	assert.Len(t, radar.Outlines, 1, "only the first radar draws boxes")
	assert.Equal(t, []string{"RADAR_A", "LIDAR_TOP"}, src.boxCalls)
	assert.Equal(t, "CAM_FRONT_LEFT", surf.layers[2].Title())
}

func TestDispatcher_FailureIsConfinedToItsCell(t *testing.T) {
	src := &fakeSource{fail: map[string]bool{"CAM_BACK": true, "RADAR_B": true}}
	surf := &recordingSurface{}
	d := &Dispatcher{Source: src}

	layout := PlanLayout(group(3, 1, allCams...), ViewAll)
	err := d.Render(context.Background(), surf, layout, DefaultOptions())
	require.Error(t, err)

	var rf *RenderFailure
	require.True(t, errors.As(err, &rf))
	assert.Contains(t, err.Error(), "CAM_BACK")
	assert.Contains(t, err.Error(), "RADAR_B")

	// everything else still drawn; the radar cell keeps its two good channels
	assert.Len(t, surf.layers, 7)
	assert.Len(t, surf.layers[0].(*PointLayer).Points, 2)
	_, drawn := surf.layers[6]
	assert.False(t, drawn, "CAM_BACK cell stays cleared")
}

func TestDispatcher_HidesEmptyCells(t *testing.T) {
	surf := &recordingSurface{}
	d := &Dispatcher{Source: &fakeSource{}}

	layout := PlanLayout(group(0, 0, "CAM_BACK"), ViewCamera)
	require.NoError(t, d.Render(context.Background(), surf, layout, DefaultOptions()))

	var hidden []int
	for _, o := range surf.ops {
		if o.kind == "hide" {
			hidden = append(hidden, o.cell)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 5}, hidden)
}

func TestDispatcher_StopsOnCancelledContext(t *testing.T) {
	surf := &recordingSurface{}
	d := &Dispatcher{Source: &fakeSource{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Render(ctx, surf, PlanLayout(group(1, 1), ViewLidarRadar), DefaultOptions())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, surf.layers)
}

func TestPointLayerMerge(t *testing.T) {
	a := &PointLayer{Points: []r2.Vec{{X: 1}}, Values: []float64{1}}
	b := &PointLayer{Points: []r2.Vec{{X: 2}}, Values: []float64{2}, Limit: 50}
	a.Merge(b)
	a.Merge(nil)
	assert.Len(t, a.Points, 2)
	assert.Equal(t, 50.0, a.Limit)
	assert.Nil(t, a.Colors)
}

func TestLabelColor(t *testing.T) {
	assert.Equal(t, uint8(0), LabelColor(0).R)
	assert.NotEqual(t, LabelColor(17), LabelColor(24))
	assert.Equal(t, LabelColor(17), LabelColor(17))
}

func TestBoxColor(t *testing.T) {
	assert.Equal(t, BoxColor("vehicle.car"), BoxColor("vehicle.truck"))
	assert.NotEqual(t, BoxColor("vehicle.car"), BoxColor("human.pedestrian.adult"))
	assert.Equal(t, uint8(255), BoxColor("").A)
}

func TestPointColors(t *testing.T) {
	explicit := &PointLayer{
		Points: []r2.Vec{{}, {}},
		Colors: []color.Color{color.Black, color.White},
	}
	assert.Equal(t, explicit.Colors, explicit.PointColors())

	ramp := &PointLayer{
		Points: []r2.Vec{{}, {}},
		Values: []float64{0, 40},
		Limit:  40,
	}
	got := ramp.PointColors()
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0], got[1])
}
