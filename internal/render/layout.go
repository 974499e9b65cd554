package render

import (
	"fmt"
	"strings"

	"github.com/banshee-data/nuview/internal/sensors"
)

// View selects which sensors a window shows.
type View string

const (
	ViewAll        View = "all"
	ViewCamera     View = "camera"
	ViewLidarRadar View = "lidar-radar"
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewAll, ViewCamera, ViewLidarRadar:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q (want all, camera or lidar-radar)", s)
}

// CellKind says what a layout cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellRadar
	CellLidar
	CellCamera
)

func (k CellKind) String() string {
	switch k {
	case CellRadar:
		return "radar"
	case CellLidar:
		return "lidar"
	case CellCamera:
		return "camera"
	}
	return "empty"
}

// Cell is one grid position. Empty cells are hidden.
type Cell struct {
	Kind     CellKind
	Title    string
	Channels []sensors.Channel
}

// Layout is a rows x cols grid in row-major order.
type Layout struct {
	View  View
	Rows  int
	Cols  int
	Cells []Cell
}

// ContentCells counts the cells that will be drawn.
func (l Layout) ContentCells() int {
	n := 0
	for _, c := range l.Cells {
		if c.Kind != CellEmpty {
			n++
		}
	}
	return n
}

// PlanLayout places a sample's channel groups on a grid.
//
// Radar channels fuse into one cell, lidar channels share the next, and each
// camera gets the cell of its canonical slot. The camera view uses three
// columns, the others two. Rows come from the number of drawn cells, grown
// when a camera's fixed slot would otherwise fall off the grid.
func PlanLayout(g sensors.Group, view View) Layout {
	var cells []Cell
	if view != ViewCamera {
		if len(g.Radar) > 0 {
			cells = append(cells, Cell{Kind: CellRadar, Title: "Fused RADARs", Channels: g.Radar})
		}
		if len(g.Lidar) > 0 {
			cells = append(cells, Cell{Kind: CellLidar, Title: joinNames(g.Lidar), Channels: g.Lidar})
		}
	}

	count := len(cells)
	if view != ViewLidarRadar {
		slots := sensors.CameraSlots(g)
		last := -1
		for i, s := range slots {
			if s.Token != "" {
				last = i
				count++
			}
		}
		for _, s := range slots[:last+1] {
			if s.Token == "" {
				cells = append(cells, Cell{})
				continue
			}
			cells = append(cells, Cell{Kind: CellCamera, Title: s.Name, Channels: []sensors.Channel{s}})
		}
	}

	cols := 2
	if view == ViewCamera {
		cols = 3
	}
	rows := ceilDiv(count, cols)
	if need := ceilDiv(len(cells), cols); need > rows {
		rows = need
	}
	if rows == 0 {
		rows = 1
	}
	for len(cells) < rows*cols {
		cells = append(cells, Cell{})
	}
	return Layout{View: view, Rows: rows, Cols: cols, Cells: cells}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func joinNames(cs []sensors.Channel) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
