package sensordata

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// LidarPoint is one return from a .pcd.bin file.
type LidarPoint struct {
	Pos       r3.Vec
	Intensity float64
	Ring      int
}

// lidarStride is five little-endian float32 values: x y z intensity ring.
const lidarStride = 5 * 4

// ParseLidarBin decodes the dataset's raw lidar format.
func ParseLidarBin(data []byte) ([]LidarPoint, error) {
	if len(data)%lidarStride != 0 {
		return nil, fmt.Errorf("lidar file size %d is not a multiple of %d", len(data), lidarStride)
	}
	le := binary.LittleEndian
	f := func(off int) float64 { return float64(math.Float32frombits(le.Uint32(data[off:]))) }
	out := make([]LidarPoint, 0, len(data)/lidarStride)
	for off := 0; off < len(data); off += lidarStride {
		out = append(out, LidarPoint{
			Pos:       r3.Vec{X: f(off), Y: f(off + 4), Z: f(off + 8)},
			Intensity: f(off + 12),
			Ring:      int(f(off + 16)),
		})
	}
	return out, nil
}

// RadarPoint is one filtered radar return. Velocity is the ego-motion
// compensated velocity in the sensor frame.
type RadarPoint struct {
	Pos          r3.Vec
	Velocity     r3.Vec
	RCS          float64
	DynProp      int
	AmbigState   int
	InvalidState int
}

// RadarFilter keeps returns whose states are listed. A nil list keeps all.
type RadarFilter struct {
	InvalidStates []int
	DynProps      []int
	AmbigStates   []int
}

// DefaultRadarFilter keeps valid, unambiguous returns of any dynamic state.
func DefaultRadarFilter() RadarFilter {
	return RadarFilter{
		InvalidStates: []int{0},
		DynProps:      []int{0, 1, 2, 3, 4, 5, 6},
		AmbigStates:   []int{3},
	}
}

func (f RadarFilter) keep(p RadarPoint) bool {
	in := func(list []int, v int) bool { return list == nil || slices.Contains(list, v) }
	return in(f.InvalidStates, p.InvalidState) && in(f.DynProps, p.DynProp) && in(f.AmbigStates, p.AmbigState)
}

var radarColumns = []string{"x", "y", "z", "vx_comp", "vy_comp", "rcs", "dyn_prop", "ambig_state", "invalid_state"}

// ParseRadar decodes a radar PCD file and applies filter.
func ParseRadar(data []byte, filter RadarFilter) ([]RadarPoint, error) {
	pcd, err := ParsePCD(data)
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(radarColumns))
	for _, name := range radarColumns {
		c := pcd.Column(name)
		if c < 0 {
			return nil, fmt.Errorf("radar pcd missing field %q", name)
		}
		col[name] = c
	}

	out := make([]RadarPoint, 0, len(pcd.Rows))
	for _, row := range pcd.Rows {
		p := RadarPoint{
			Pos:          r3.Vec{X: row[col["x"]], Y: row[col["y"]], Z: row[col["z"]]},
			Velocity:     r3.Vec{X: row[col["vx_comp"]], Y: row[col["vy_comp"]]},
			RCS:          row[col["rcs"]],
			DynProp:      int(row[col["dyn_prop"]]),
			AmbigState:   int(row[col["ambig_state"]]),
			InvalidState: int(row[col["invalid_state"]]),
		}
		if filter.keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ParseLabels decodes a lidarseg .bin file: one uint8 label per point.
func ParseLabels(data []byte, points int) ([]int, error) {
	if len(data) != points {
		return nil, fmt.Errorf("lidarseg has %d labels for %d points", len(data), points)
	}
	out := make([]int, len(data))
	for i, b := range data {
		out[i] = int(b)
	}
	return out, nil
}
