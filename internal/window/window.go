// Package window places viewer windows on screen halves and builds the
// external viewer command line.
package window

import (
	"fmt"
	"strings"
)

// Position is a screen half.
type Position string

const (
	TopLeft  Position = "top-left"
	TopRight Position = "top-right"
)

// ParsePosition validates a --window-pos value.
func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case TopLeft, TopRight:
		return p, nil
	}
	return "", fmt.Errorf("invalid window position %q (want %s or %s)", s, TopLeft, TopRight)
}

// Geometry returns an X11-style geometry string for a window occupying the
// top quarter of the screen at pos: half width, half height.
func Geometry(pos Position, screenW, screenH int) string {
	w, h := screenW/2, screenH/2
	x := 0
	if pos == TopRight {
		x = screenW - w
	}
	return fmt.Sprintf("%dx%d+%d+0", w, h, x)
}

// ViewerArgv expands {geometry}, {title} and {file} in each template element.
// An empty template yields nil: no viewer is launched.
func ViewerArgv(template []string, geometry, title, file string) []string {
	if len(template) == 0 {
		return nil
	}
	r := strings.NewReplacer("{geometry}", geometry, "{title}", title, "{file}", file)
	argv := make([]string, len(template))
	for i, arg := range template {
		argv[i] = r.Replace(arg)
	}
	return argv
}
