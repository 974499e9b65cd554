// Package session binds rendering surfaces to the navigation state. A
// Viewport draws in-process into one persistent surface; a Process relaunches
// a worker binary on every refresh.
package session

import (
	"github.com/banshee-data/nuview/internal/navigation"
	"github.com/banshee-data/nuview/internal/nuscenes"
	"github.com/banshee-data/nuview/internal/sensors"
)

var (
	_ navigation.Session = (*Viewport)(nil)
	_ navigation.Session = (*Process)(nil)
)

// Samples resolves the records a viewport needs to plan a layout.
type Samples interface {
	Sample(token string) (*nuscenes.Sample, error)
	sensors.Lookup
}
