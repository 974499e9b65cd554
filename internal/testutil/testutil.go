// Package testutil provides shared test utilities and a synthetic nuScenes
// dataset writer used by the dataset, rendering and navigation tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/nuview/internal/fsutil"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// DefaultChannels is the sample_data order the real v1.0 tables use, which is
// deliberately not the canonical camera layout order.
var DefaultChannels = []string{
	"RADAR_FRONT", "RADAR_FRONT_LEFT", "RADAR_FRONT_RIGHT", "RADAR_BACK_LEFT", "RADAR_BACK_RIGHT",
	"LIDAR_TOP",
	"CAM_FRONT", "CAM_FRONT_RIGHT", "CAM_BACK_RIGHT", "CAM_BACK", "CAM_BACK_LEFT", "CAM_FRONT_LEFT",
}

// Fixture describes a synthetic dataset.
type Fixture struct {
	Version    string   // defaults to v1.0-mini
	Scenes     []int    // samples per scene
	Channels   []string // defaults to DefaultChannels
	WriteFiles bool     // write images, point clouds and radar files
	Lidarseg   bool     // add the lidarseg table and label files
}

// Written reports the tokens a fixture produced.
type Written struct {
	Samples [][]string // per scene, in order
}

// SampleDataToken returns the sample_data token the fixture assigns to a
// sample's key frame on channel.
func SampleDataToken(sampleToken, channel string) string {
	return "sd-" + sampleToken + "-" + channel
}

// Fixture camera geometry: 160x90 images, looking forward from 1.5m up.
const (
	ImageWidth  = 160
	ImageHeight = 90
)

// LidarPoints are written to every lidar file, x y z intensity ring.
var LidarPoints = [][5]float32{
	{10, 0, 0, 1, 0}, {-10, 0, 0, 2, 1}, {0, 10, 0, 3, 2}, {0, -10, 0, 4, 3},
	{5, 5, 0, 5, 4}, {-5, -5, 0, 6, 5}, {20, 1, 1, 7, 6}, {1, 20, 1, 8, 7},
}

// LidarLabels are the lidarseg labels matching LidarPoints.
var LidarLabels = []uint8{17, 17, 24, 24, 31, 31, 0, 0}

// RadarPoint is one return in a fixture radar file.
type RadarPoint struct {
	X, Y, VX, VY float32
	DynProp      int8
	AmbigState   uint8
	InvalidState uint8
}

// RadarPoints holds two returns that pass the default filters followed by two
// that do not.
var RadarPoints = []RadarPoint{
	{X: 10, Y: 0, VX: 1, VY: 0, DynProp: 0, AmbigState: 3},
	{X: 20, Y: 5, VX: 0, VY: 1, DynProp: 2, AmbigState: 3},
	{X: 5, Y: 5, DynProp: 0, AmbigState: 3, InvalidState: 1},
	{X: 7, Y: -3, DynProp: 0, AmbigState: 1},
}

// WriteDataset writes the fixture's tables (and optionally its sensor files)
// under dataroot.
func WriteDataset(t testing.TB, fsys fsutil.FileSystem, dataroot string, f Fixture) Written {
	t.Helper()
	if f.Version == "" {
		f.Version = "v1.0-mini"
	}
	if f.Channels == nil {
		f.Channels = DefaultChannels
	}

	var (
		scenes, samples, sampleData, egoPoses, annotations, lidarseg []map[string]any
		sensors, calibrated                                          []map[string]any
		out                                                          Written
	)

	for _, ch := range f.Channels {
		sensors = append(sensors, map[string]any{
			"token": "sensor-" + ch, "channel": ch, "modality": modality(ch),
		})
		cs := map[string]any{
			"token":            "cs-" + ch,
			"sensor_token":     "sensor-" + ch,
			"translation":      []float64{0, 0, 0},
			"rotation":         []float64{1, 0, 0, 0},
			"camera_intrinsic": [][]float64{},
		}
		if modality(ch) == "camera" {
			cs["translation"] = []float64{1.5, 0, 1.5}
			cs["rotation"] = []float64{0.5, -0.5, 0.5, -0.5}
			cs["camera_intrinsic"] = [][]float64{{126.6, 0, 81.6}, {0, 126.6, 49.1}, {0, 0, 1}}
		}
		calibrated = append(calibrated, cs)
	}

	ts := int64(1532402927647951)
	for si, n := range f.Scenes {
		sceneToken := fmt.Sprintf("scene-%d", si)
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i] = fmt.Sprintf("s%d-%d", si, i)
		}
		out.Samples = append(out.Samples, tokens)
		first, last := "", ""
		if n > 0 {
			first, last = tokens[0], tokens[n-1]
		}
		scenes = append(scenes, map[string]any{
			"token": sceneToken, "log_token": "log-0", "nbr_samples": n,
			"first_sample_token": first, "last_sample_token": last,
			"name": fmt.Sprintf("scene-%04d", si+1), "description": "synthetic",
		})

		for i, tok := range tokens {
			samples = append(samples, map[string]any{
				"token": tok, "timestamp": ts, "scene_token": sceneToken,
				"prev": at(tokens, i-1), "next": at(tokens, i+1),
			})
			annotations = append(annotations, map[string]any{
				"token": "ann-" + tok, "sample_token": tok, "instance_token": "inst-0",
				"visibility_token": "4", "attribute_tokens": []string{},
				"translation": []float64{10, 0, 1}, "size": []float64{2, 4, 1.5},
				"rotation": []float64{1, 0, 0, 0}, "prev": "", "next": "",
				"num_lidar_pts": 4, "num_radar_pts": 1,
			})
			for _, ch := range f.Channels {
				sd := SampleDataToken(tok, ch)
				var prev, next string
				if i > 0 {
					prev = SampleDataToken(tokens[i-1], ch)
				}
				if i+1 < n {
					next = SampleDataToken(tokens[i+1], ch)
				}
				filename := fmt.Sprintf("samples/%s/%s%s", ch, sd, extension(ch))
				row := map[string]any{
					"token": sd, "sample_token": tok, "ego_pose_token": "ep-" + sd,
					"calibrated_sensor_token": "cs-" + ch, "timestamp": ts,
					"fileformat": fileformat(ch), "is_key_frame": true,
					"height": 0, "width": 0, "filename": filename, "prev": prev, "next": next,
				}
				if modality(ch) == "camera" {
					row["height"], row["width"] = ImageHeight, ImageWidth
				}
				sampleData = append(sampleData, row)
				egoPoses = append(egoPoses, map[string]any{
					"token": "ep-" + sd, "timestamp": ts,
					"translation": []float64{0, 0, 0}, "rotation": []float64{1, 0, 0, 0},
				})
				if f.WriteFiles {
					writeSensorFile(t, fsys, filepath.Join(dataroot, filepath.FromSlash(filename)), ch)
				}
				if f.Lidarseg && modality(ch) == "lidar" {
					name := fmt.Sprintf("lidarseg/%s/%s_lidarseg.bin", f.Version, sd)
					lidarseg = append(lidarseg, map[string]any{
						"token": sd, "sample_data_token": sd, "filename": name,
					})
					write(t, fsys, filepath.Join(dataroot, filepath.FromSlash(name)), LidarLabels)
				}
			}
			ts += 500000
		}
	}

	var allAnns []string
	for _, a := range annotations {
		allAnns = append(allAnns, a["token"].(string))
	}
	instances := []map[string]any{{
		"token": "inst-0", "category_token": "cat-car", "nbr_annotations": len(allAnns),
		"first_annotation_token": at(allAnns, 0), "last_annotation_token": at(allAnns, len(allAnns)-1),
	}}
	categories := []map[string]any{
		{"token": "cat-noise", "name": "noise", "description": "", "index": 0},
		{"token": "cat-car", "name": "vehicle.car", "description": "", "index": 17},
		{"token": "cat-road", "name": "flat.driveable_surface", "description": "", "index": 24},
		{"token": "cat-ego", "name": "vehicle.ego", "description": "", "index": 31},
	}

	dir := filepath.Join(dataroot, f.Version)
	tables := map[string][]map[string]any{
		"scene": scenes, "sample": samples, "sample_data": sampleData,
		"sensor": sensors, "calibrated_sensor": calibrated, "ego_pose": egoPoses,
		"sample_annotation": annotations, "instance": instances, "category": categories,
	}
	if f.Lidarseg {
		tables["lidarseg"] = lidarseg
	}
	for name, rows := range tables {
		if rows == nil {
			rows = []map[string]any{}
		}
		data, err := json.Marshal(rows)
		AssertNoError(t, err)
		AssertNoError(t, fsutil.WriteFileAtomic(fsys, filepath.Join(dir, name+".json"), data, 0644))
	}
	return out
}

func at(s []string, i int) string {
	if i < 0 || i >= len(s) {
		return ""
	}
	return s[i]
}

func modality(channel string) string {
	switch {
	case strings.HasPrefix(channel, "CAM"):
		return "camera"
	case strings.HasPrefix(channel, "LIDAR"):
		return "lidar"
	default:
		return "radar"
	}
}

func extension(channel string) string {
	switch modality(channel) {
	case "camera":
		return ".jpg"
	case "lidar":
		return ".pcd.bin"
	default:
		return ".pcd"
	}
}

func fileformat(channel string) string {
	if modality(channel) == "camera" {
		return "jpg"
	}
	return "pcd"
}

func write(t testing.TB, fsys fsutil.FileSystem, path string, data []byte) {
	t.Helper()
	AssertNoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	AssertNoError(t, fsys.WriteFile(path, data, 0644))
}

func writeSensorFile(t testing.TB, fsys fsutil.FileSystem, path, channel string) {
	t.Helper()
	switch modality(channel) {
	case "camera":
		write(t, fsys, path, JPEG(t))
	case "lidar":
		write(t, fsys, path, LidarBin(LidarPoints))
	default:
		write(t, fsys, path, RadarPCD(RadarPoints))
	}
}

// JPEG encodes a small gradient image of the fixture size.
func JPEG(t testing.TB) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, ImageWidth, ImageHeight))
	for y := 0; y < ImageHeight; y++ {
		for x := 0; x < ImageWidth; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	AssertNoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// LidarBin encodes points in the .pcd.bin layout: little-endian float32 x5.
func LidarBin(points [][5]float32) []byte {
	buf := make([]byte, 0, len(points)*20)
	for _, p := range points {
		for _, v := range p {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

// RadarPCD encodes returns as a binary PCD v0.7 file with the 18 radar fields.
func RadarPCD(points []RadarPoint) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# .PCD v0.7 - Point Cloud Data file format\n")
	fmt.Fprintf(&buf, "VERSION 0.7\n")
	fmt.Fprintf(&buf, "FIELDS x y z dyn_prop id rcs vx vy vx_comp vy_comp is_quality_valid ambig_state x_rms y_rms invalid_state pdh0 vx_rms vy_rms\n")
	fmt.Fprintf(&buf, "SIZE 4 4 4 1 2 4 4 4 4 4 1 1 1 1 1 1 1 1\n")
	fmt.Fprintf(&buf, "TYPE F F F I I F F F F F I I I I I I I I\n")
	fmt.Fprintf(&buf, "COUNT 1 1 1 1 1 1 1 1 1 1 1 1 1 1 1 1 1 1\n")
	fmt.Fprintf(&buf, "WIDTH %d\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\n", len(points))
	fmt.Fprintf(&buf, "POINTS %d\nDATA binary\n", len(points))
	f32 := func(v float32) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	for i, p := range points {
		f32(p.X)
		f32(p.Y)
		f32(0)
		buf.WriteByte(byte(p.DynProp))
		_ = binary.Write(&buf, binary.LittleEndian, int16(i))
		f32(5)    // rcs
		f32(p.VX) // vx
		f32(p.VY) // vy
		f32(p.VX) // vx_comp
		f32(p.VY) // vy_comp
		buf.WriteByte(1)
		buf.WriteByte(p.AmbigState)
		buf.WriteByte(0)
		buf.WriteByte(0)
		buf.WriteByte(p.InvalidState)
		buf.WriteByte(0)
		buf.WriteByte(0)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}
