// Package nuscenes loads the nuScenes JSON tables and answers the lookups the
// viewer needs: samples by token, their sensor captures, and the ordering of
// samples within a scene.
package nuscenes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/banshee-data/nuview/internal/fsutil"
	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/security"
)

// ErrNotFound is returned when a token or scene index does not exist.
var ErrNotFound = errors.New("not found")

// Dataset holds one version of the dataset tables in memory.
type Dataset struct {
	Root    string
	Version string

	fs         fsutil.FileSystem
	scenes     []Scene
	sceneIndex map[string]int
	samples    map[string]*Sample
	sampleData map[string]*SampleData
	calibrated map[string]*CalibratedSensor
	sensors    map[string]*Sensor
	egoPoses   map[string]*EgoPose
	anns       map[string]*SampleAnnotation
	instances  map[string]*Instance
	categories map[string]*Category
	labels     map[int]*Category
	lidarseg   map[string]*Lidarseg
}

// Load reads <dataroot>/<version>/*.json. The lidarseg table is optional.
func Load(fsys fsutil.FileSystem, dataroot, version string) (*Dataset, error) {
	d := &Dataset{
		Root:       dataroot,
		Version:    version,
		fs:         fsys,
		sceneIndex: make(map[string]int),
		samples:    make(map[string]*Sample),
		sampleData: make(map[string]*SampleData),
		calibrated: make(map[string]*CalibratedSensor),
		sensors:    make(map[string]*Sensor),
		egoPoses:   make(map[string]*EgoPose),
		anns:       make(map[string]*SampleAnnotation),
		instances:  make(map[string]*Instance),
		categories: make(map[string]*Category),
		labels:     make(map[int]*Category),
		lidarseg:   make(map[string]*Lidarseg),
	}

	var (
		samples    []*Sample
		sampleData []*SampleData
		anns       []*SampleAnnotation
		calibrated []*CalibratedSensor
		sensors    []*Sensor
		egoPoses   []*EgoPose
		instances  []*Instance
		categories []*Category
		lidarseg   []*Lidarseg
	)
	tables := []struct {
		name     string
		dst      any
		optional bool
	}{
		{"scene", &d.scenes, false},
		{"sample", &samples, false},
		{"sample_data", &sampleData, false},
		{"sample_annotation", &anns, false},
		{"calibrated_sensor", &calibrated, false},
		{"sensor", &sensors, false},
		{"ego_pose", &egoPoses, false},
		{"instance", &instances, false},
		{"category", &categories, false},
		{"lidarseg", &lidarseg, true},
	}
	for _, tbl := range tables {
		if err := d.readTable(tbl.name, tbl.dst, tbl.optional); err != nil {
			return nil, err
		}
	}

	for i, s := range d.scenes {
		d.sceneIndex[s.Token] = i
	}
	for _, s := range samples {
		d.samples[s.Token] = s
	}
	for _, c := range calibrated {
		d.calibrated[c.Token] = c
	}
	for _, s := range sensors {
		d.sensors[s.Token] = s
	}
	for _, e := range egoPoses {
		d.egoPoses[e.Token] = e
	}
	for _, i := range instances {
		d.instances[i.Token] = i
	}
	for _, c := range categories {
		d.categories[c.Token] = c
		d.labels[c.Index] = c
	}
	for _, l := range lidarseg {
		d.lidarseg[l.SampleDataToken] = l
	}

	for _, sd := range sampleData {
		cs, ok := d.calibrated[sd.CalibratedSensorToken]
		if !ok {
			return nil, fmt.Errorf("sample_data %s: calibrated_sensor %s: %w", sd.Token, sd.CalibratedSensorToken, ErrNotFound)
		}
		sensor, ok := d.sensors[cs.SensorToken]
		if !ok {
			return nil, fmt.Errorf("calibrated_sensor %s: sensor %s: %w", cs.Token, cs.SensorToken, ErrNotFound)
		}
		sd.Channel = sensor.Channel
		sd.SensorModality = sensor.Modality
		d.sampleData[sd.Token] = sd

		if !sd.IsKeyFrame {
			continue
		}
		s, ok := d.samples[sd.SampleToken]
		if !ok {
			return nil, fmt.Errorf("sample_data %s: sample %s: %w", sd.Token, sd.SampleToken, ErrNotFound)
		}
		s.Data = append(s.Data, ChannelData{Channel: sd.Channel, Token: sd.Token})
	}
	for _, a := range anns {
		d.anns[a.Token] = a
		if s, ok := d.samples[a.SampleToken]; ok {
			s.Anns = append(s.Anns, a.Token)
		}
	}

	monitoring.Logf("[nuscenes] loaded %s: %d scenes, %d samples, %d sample_data, %d annotations",
		version, len(d.scenes), len(d.samples), len(d.sampleData), len(d.anns))
	return d, nil
}

func (d *Dataset) readTable(name string, dst any, optional bool) error {
	path := filepath.Join(d.Root, d.Version, name+".json")
	data, err := d.fs.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read table %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse table %s: %w", name, err)
	}
	return nil
}

// SceneCount returns the number of scenes in the version.
func (d *Dataset) SceneCount() int { return len(d.scenes) }

// Scene returns the scene at index in table order.
func (d *Dataset) Scene(index int) (*Scene, error) {
	if index < 0 || index >= len(d.scenes) {
		return nil, fmt.Errorf("scene %d of %d: %w", index, len(d.scenes), ErrNotFound)
	}
	return &d.scenes[index], nil
}

// Sample returns the sample with the given token.
func (d *Dataset) Sample(token string) (*Sample, error) {
	s, ok := d.samples[token]
	if !ok {
		return nil, fmt.Errorf("sample %q: %w", token, ErrNotFound)
	}
	return s, nil
}

// SampleData returns the sample_data record with the given token.
func (d *Dataset) SampleData(token string) (*SampleData, error) {
	sd, ok := d.sampleData[token]
	if !ok {
		return nil, fmt.Errorf("sample_data %q: %w", token, ErrNotFound)
	}
	return sd, nil
}

// CalibratedSensor returns the calibration with the given token.
func (d *Dataset) CalibratedSensor(token string) (*CalibratedSensor, error) {
	cs, ok := d.calibrated[token]
	if !ok {
		return nil, fmt.Errorf("calibrated_sensor %q: %w", token, ErrNotFound)
	}
	return cs, nil
}

// EgoPose returns the ego pose with the given token.
func (d *Dataset) EgoPose(token string) (*EgoPose, error) {
	e, ok := d.egoPoses[token]
	if !ok {
		return nil, fmt.Errorf("ego_pose %q: %w", token, ErrNotFound)
	}
	return e, nil
}

// Annotation returns the sample annotation with the given token.
func (d *Dataset) Annotation(token string) (*SampleAnnotation, error) {
	a, ok := d.anns[token]
	if !ok {
		return nil, fmt.Errorf("sample_annotation %q: %w", token, ErrNotFound)
	}
	return a, nil
}

// CategoryOf resolves an annotation's category through its instance.
func (d *Dataset) CategoryOf(a *SampleAnnotation) (*Category, error) {
	inst, ok := d.instances[a.InstanceToken]
	if !ok {
		return nil, fmt.Errorf("instance %q: %w", a.InstanceToken, ErrNotFound)
	}
	c, ok := d.categories[inst.CategoryToken]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", inst.CategoryToken, ErrNotFound)
	}
	return c, nil
}

// Label returns the category with lidarseg index idx.
func (d *Dataset) Label(idx int) (*Category, bool) {
	c, ok := d.labels[idx]
	return c, ok
}

// Lidarseg returns the label file record for a lidar sample_data, if the
// lidarseg table is installed.
func (d *Dataset) Lidarseg(sampleDataToken string) (*Lidarseg, bool) {
	l, ok := d.lidarseg[sampleDataToken]
	return l, ok
}

// Path resolves a table filename against the dataroot, rejecting escapes.
func (d *Dataset) Path(rel string) (string, error) {
	return security.ResolveDatasetPath(d.Root, rel)
}

// ReadFile reads a dataset file named relative to the dataroot.
func (d *Dataset) ReadFile(rel string) ([]byte, error) {
	path, err := d.Path(rel)
	if err != nil {
		return nil, err
	}
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}
