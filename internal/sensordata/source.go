// Package sensordata turns dataset captures into render layers: camera frames
// with projected boxes, and top-down lidar and radar point sets.
package sensordata

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/nuview/internal/geometry"
	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/nuscenes"
	"github.com/banshee-data/nuview/internal/render"
	"github.com/banshee-data/nuview/internal/sensors"
)

// Radar velocity arrows are stretched for visibility and clipped per axis.
const (
	velocityScale = 6.0
	maxArrowDelta = 20.0
)

// Lidar points closer than overlayMinDepth to a camera, or within
// overlayMargin pixels of the frame edge, are left out of the overlay.
const (
	overlayMinDepth = 1.0
	overlayMargin   = 1.0
)

// Loader implements render.Source over a loaded dataset.
type Loader struct {
	DS          *nuscenes.Dataset
	RadarFilter RadarFilter
}

var _ render.Source = (*Loader)(nil)

// NewLoader returns a loader using the default radar filter.
func NewLoader(ds *nuscenes.Dataset) *Loader {
	return &Loader{DS: ds, RadarFilter: DefaultRadarFilter()}
}

// Image loads a camera frame and the annotation boxes that pass the
// visibility rule, projected to pixels. With opts.Lidarseg the sample's lidar
// points are projected into the frame as well.
func (l *Loader) Image(ctx context.Context, ch sensors.Channel, opts render.Options) (*render.ImageLayer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sd, err := l.DS.SampleData(ch.Token)
	if err != nil {
		return nil, err
	}
	path, err := l.DS.Path(sd.Filename)
	if err != nil {
		return nil, err
	}
	data, err := l.DS.ReadFile(sd.Filename)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sd.Filename, err)
	}

	width, height := sd.Width, sd.Height
	if width == 0 || height == 0 {
		b := img.Bounds()
		width, height = b.Dx(), b.Dy()
	}
	layer := &render.ImageLayer{
		Channel: ch.Name,
		Token:   ch.Token,
		Path:    path,
		Image:   img,
		Width:   width,
		Height:  height,
	}

	sensorToGlobal, cs, err := l.sensorToGlobal(sd)
	if err != nil {
		return nil, err
	}
	cam, err := geometry.NewCamera(cs.CameraIntrinsic, width, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ch.Name, err)
	}
	boxes, err := l.boxes(sd.SampleToken, sensorToGlobal.Inverse())
	if err != nil {
		return nil, err
	}
	for _, b := range boxes {
		if !cam.InImage(b, opts.BoxVisibility) {
			continue
		}
		c := cam.ProjectBox(b)
		layer.Outlines = append(layer.Outlines,
			render.Outline{Label: b.Name, Points: []r2.Vec{c[0], c[1], c[2], c[3]}, Closed: true},
			render.Outline{Label: b.Name, Points: []r2.Vec{c[4], c[5], c[6], c[7]}, Closed: true},
		)
		for i := 0; i < 4; i++ {
			layer.Outlines = append(layer.Outlines, render.Outline{Label: b.Name, Points: []r2.Vec{c[i], c[i+4]}})
		}
	}

	if opts.Lidarseg {
		overlay, err := l.lidarOverlay(sd, sensorToGlobal.Inverse(), cam, opts)
		if err != nil {
			// the frame and its boxes are still worth showing
			monitoring.Logf("[sensordata] no lidar overlay on %s: %v", ch.Name, err)
		}
		layer.Overlay = overlay
	}
	return layer, nil
}

// lidarOverlay projects the key-frame lidar points of cam's sample into its
// pixels. Points are coloured by lidarseg label when labels exist and by
// depth otherwise. A sample without lidar yields nil.
func (l *Loader) lidarOverlay(camSD *nuscenes.SampleData, globalToCam geometry.Transform, cam *geometry.Camera, opts render.Options) (*render.PointLayer, error) {
	s, err := l.DS.Sample(camSD.SampleToken)
	if err != nil {
		return nil, err
	}
	var lidar *nuscenes.SampleData
	for _, d := range s.Data {
		sd, err := l.DS.SampleData(d.Token)
		if err != nil {
			return nil, err
		}
		if sd.SensorModality == nuscenes.ModalityLidar {
			lidar = sd
			break
		}
	}
	if lidar == nil {
		return nil, nil
	}

	toGlobal, _, err := l.sensorToGlobal(lidar)
	if err != nil {
		return nil, err
	}
	tf := toGlobal.Then(globalToCam)

	data, err := l.DS.ReadFile(lidar.Filename)
	if err != nil {
		return nil, err
	}
	points, err := ParseLidarBin(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lidar.Filename, err)
	}
	labels, err := l.labels(lidar, len(points))
	if err != nil {
		return nil, err
	}

	layer := &render.PointLayer{Channel: lidar.Channel}
	for i, p := range points {
		if labels != nil && opts.LidarsegFilter != nil && !slices.Contains(opts.LidarsegFilter, labels[i]) {
			continue
		}
		q := tf.Apply(p.Pos)
		if q.Z <= overlayMinDepth {
			continue
		}
		px := cam.Project(q)
		if px.X <= overlayMargin || px.X >= float64(cam.Width)-overlayMargin ||
			px.Y <= overlayMargin || px.Y >= float64(cam.Height)-overlayMargin {
			continue
		}
		layer.Points = append(layer.Points, px)
		layer.Values = append(layer.Values, q.Z)
		if labels != nil {
			layer.Colors = append(layer.Colors, render.LabelColor(labels[i]))
		}
	}
	return layer, nil
}

// labels reads the lidarseg labels for sd, or returns nil when the dataset
// has none for it.
func (l *Loader) labels(sd *nuscenes.SampleData, n int) ([]int, error) {
	ls, ok := l.DS.Lidarseg(sd.Token)
	if !ok {
		monitoring.Logf("[sensordata] no lidarseg labels for %s, colouring by distance", sd.Token)
		return nil, nil
	}
	raw, err := l.DS.ReadFile(ls.Filename)
	if err != nil {
		return nil, err
	}
	return ParseLabels(raw, n)
}

// Points loads a lidar or radar capture, aggregating opts.NSweeps sweeps into
// the key frame's ego frame.
func (l *Loader) Points(ctx context.Context, ch sensors.Channel, opts render.Options, withBoxes bool) (*render.PointLayer, error) {
	sd, err := l.DS.SampleData(ch.Token)
	if err != nil {
		return nil, err
	}
	refEgo, err := l.DS.EgoPose(sd.EgoPoseToken)
	if err != nil {
		return nil, err
	}
	globalToRef := geometry.NewTransform(refEgo.Translation, refEgo.Rotation).Inverse()

	layer := &render.PointLayer{Channel: ch.Name, Limit: opts.AxesLimit}

	nsweeps := opts.NSweeps
	if nsweeps < 1 || (opts.Lidarseg && sd.SensorModality == nuscenes.ModalityLidar) {
		nsweeps = 1
	}
	sweep := sd
	for i := 0; i < nsweeps && sweep != nil; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		toGlobal, _, err := l.sensorToGlobal(sweep)
		if err != nil {
			return nil, err
		}
		tf := toGlobal.Then(globalToRef)
		if sweep.SensorModality == nuscenes.ModalityLidar {
			err = l.addLidar(layer, sweep, tf, opts, i == 0)
		} else {
			err = l.addRadar(layer, sweep, tf)
		}
		if err != nil {
			return nil, err
		}
		if sweep.Prev == "" {
			break
		}
		if sweep, err = l.DS.SampleData(sweep.Prev); err != nil {
			return nil, err
		}
	}

	if withBoxes {
		boxes, err := l.boxes(sd.SampleToken, globalToRef)
		if err != nil {
			return nil, err
		}
		for _, b := range boxes {
			c := b.BottomCorners()
			pts := make([]r2.Vec, len(c))
			for i, p := range c {
				pts[i] = r2.Vec{X: p.X, Y: p.Y}
			}
			layer.Outlines = append(layer.Outlines, render.Outline{Label: b.Name, Points: pts, Closed: true})
		}
	}
	return layer, nil
}

func (l *Loader) addLidar(layer *render.PointLayer, sd *nuscenes.SampleData, tf geometry.Transform, opts render.Options, keyFrame bool) error {
	data, err := l.DS.ReadFile(sd.Filename)
	if err != nil {
		return err
	}
	points, err := ParseLidarBin(data)
	if err != nil {
		return fmt.Errorf("%s: %w", sd.Filename, err)
	}

	var labels []int
	if opts.Lidarseg && keyFrame {
		if labels, err = l.labels(sd, len(points)); err != nil {
			return err
		}
	}

	for i, p := range points {
		if labels != nil && opts.LidarsegFilter != nil && !slices.Contains(opts.LidarsegFilter, labels[i]) {
			continue
		}
		q := tf.Apply(p.Pos)
		layer.Points = append(layer.Points, r2.Vec{X: q.X, Y: q.Y})
		layer.Values = append(layer.Values, math.Hypot(q.X, q.Y))
		if labels != nil {
			layer.Colors = append(layer.Colors, render.LabelColor(labels[i]))
		}
	}
	return nil
}

func (l *Loader) addRadar(layer *render.PointLayer, sd *nuscenes.SampleData, tf geometry.Transform) error {
	data, err := l.DS.ReadFile(sd.Filename)
	if err != nil {
		return err
	}
	points, err := ParseRadar(data, l.RadarFilter)
	if err != nil {
		return fmt.Errorf("%s: %w", sd.Filename, err)
	}
	for _, p := range points {
		q := tf.Apply(p.Pos)
		v := tf.Rotation.Rotate(p.Velocity)
		from := r2.Vec{X: q.X, Y: q.Y}
		delta := r2.Vec{X: clip(velocityScale * v.X), Y: clip(velocityScale * v.Y)}
		layer.Points = append(layer.Points, from)
		layer.Values = append(layer.Values, math.Hypot(q.X, q.Y))
		layer.Arrows = append(layer.Arrows, [2]r2.Vec{from, r2.Add(from, delta)})
	}
	return nil
}

func clip(v float64) float64 {
	return math.Max(-maxArrowDelta, math.Min(maxArrowDelta, v))
}

// sensorToGlobal chains the capture's calibration and ego pose.
func (l *Loader) sensorToGlobal(sd *nuscenes.SampleData) (geometry.Transform, *nuscenes.CalibratedSensor, error) {
	cs, err := l.DS.CalibratedSensor(sd.CalibratedSensorToken)
	if err != nil {
		return geometry.Transform{}, nil, err
	}
	ego, err := l.DS.EgoPose(sd.EgoPoseToken)
	if err != nil {
		return geometry.Transform{}, nil, err
	}
	sensorToEgo := geometry.NewTransform(cs.Translation, cs.Rotation)
	egoToGlobal := geometry.NewTransform(ego.Translation, ego.Rotation)
	return sensorToEgo.Then(egoToGlobal), cs, nil
}

// boxes returns the sample's annotations moved by fromGlobal.
func (l *Loader) boxes(sampleToken string, fromGlobal geometry.Transform) ([]geometry.Box, error) {
	s, err := l.DS.Sample(sampleToken)
	if err != nil {
		return nil, err
	}
	out := make([]geometry.Box, 0, len(s.Anns))
	for _, tok := range s.Anns {
		a, err := l.DS.Annotation(tok)
		if err != nil {
			return nil, err
		}
		name := ""
		if c, err := l.DS.CategoryOf(a); err == nil {
			name = c.Name
		}
		b := geometry.Box{
			Name:     name,
			Token:    a.Token,
			Center:   geometry.Vec(a.Translation),
			Size:     a.Size,
			Rotation: geometry.Rotation(a.Rotation),
		}
		out = append(out, b.Moved(fromGlobal))
	}
	return out, nil
}
