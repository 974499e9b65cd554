// Package sensors partitions a sample's channels into camera, lidar and radar
// groups and fixes the canonical camera layout.
package sensors

import (
	"fmt"

	"github.com/banshee-data/nuview/internal/nuscenes"
)

// Channel names one sensor capture of a sample.
type Channel struct {
	Name  string
	Token string
}

// Group is a sample's channels split by modality, each in the sample's
// channel order.
type Group struct {
	Camera []Channel
	Lidar  []Channel
	Radar  []Channel
}

// All returns every channel of the group, cameras first.
func (g Group) All() []Channel {
	out := make([]Channel, 0, len(g.Camera)+len(g.Lidar)+len(g.Radar))
	out = append(out, g.Camera...)
	out = append(out, g.Lidar...)
	return append(out, g.Radar...)
}

// Lookup resolves sample_data tokens.
type Lookup interface {
	SampleData(token string) (*nuscenes.SampleData, error)
}

// Classify splits sample's channels by the sensor modality of their
// sample_data. Anything that is neither camera nor lidar is treated as radar.
func Classify(lookup Lookup, sample *nuscenes.Sample) (Group, error) {
	var g Group
	for _, d := range sample.Data {
		sd, err := lookup.SampleData(d.Token)
		if err != nil {
			return Group{}, fmt.Errorf("classify %s: %w", d.Channel, err)
		}
		ch := Channel{Name: d.Channel, Token: d.Token}
		switch sd.SensorModality {
		case nuscenes.ModalityCamera:
			g.Camera = append(g.Camera, ch)
		case nuscenes.ModalityLidar:
			g.Lidar = append(g.Lidar, ch)
		default:
			g.Radar = append(g.Radar, ch)
		}
	}
	return g, nil
}

// CanonicalCameras is the fixed camera grid: front row then back row, left to right.
var CanonicalCameras = []string{
	"CAM_FRONT_LEFT", "CAM_FRONT", "CAM_FRONT_RIGHT",
	"CAM_BACK_LEFT", "CAM_BACK", "CAM_BACK_RIGHT",
}

// CameraSlots lays out the group's cameras. The six canonical slots are always
// present in order; a slot whose camera is missing has an empty Token. Cameras
// outside the canonical set follow in the sample's order.
func CameraSlots(g Group) []Channel {
	byName := make(map[string]string, len(g.Camera))
	for _, c := range g.Camera {
		byName[c.Name] = c.Token
	}
	slots := make([]Channel, 0, len(CanonicalCameras)+len(g.Camera))
	canonical := make(map[string]bool, len(CanonicalCameras))
	for _, name := range CanonicalCameras {
		canonical[name] = true
		slots = append(slots, Channel{Name: name, Token: byName[name]})
	}
	for _, c := range g.Camera {
		if !canonical[c.Name] {
			slots = append(slots, c)
		}
	}
	return slots
}
