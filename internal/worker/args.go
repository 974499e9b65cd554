// Package worker defines the command line contract between the master and
// its worker processes: flag names, validation, and argv construction.
package worker

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/nuview/internal/render"
	"github.com/banshee-data/nuview/internal/window"
)

// ErrInvalidArgument marks a command line validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

// Scene indices accepted on the command line.
const (
	MinScene = 0
	MaxScene = 10
)

// Sensor types a worker can show.
const (
	SensorCamera     = "camera"
	SensorLidarRadar = "lidar-radar"
)

const (
	flagScene      = "scene"
	flagSensorType = "sensor-type"
	flagWindowPos  = "window-pos"
	flagToken      = "token"
	flagConfig     = "config"
)

// Args are a worker's startup parameters.
type Args struct {
	Scene      int
	SensorType string
	WindowPos  window.Position
	Token      string // empty starts at the scene's first sample
	Config     string
}

// View maps the sensor type to its layout.
func (a Args) View() render.View {
	if a.SensorType == SensorCamera {
		return render.ViewCamera
	}
	return render.ViewLidarRadar
}

// Validate checks every field.
func (a Args) Validate() error {
	if a.Scene < MinScene || a.Scene > MaxScene {
		return fmt.Errorf("%w: --%s %d outside %d..%d", ErrInvalidArgument, flagScene, a.Scene, MinScene, MaxScene)
	}
	switch a.SensorType {
	case SensorCamera, SensorLidarRadar:
	default:
		return fmt.Errorf("%w: --%s %q (want %s or %s)", ErrInvalidArgument, flagSensorType, a.SensorType, SensorCamera, SensorLidarRadar)
	}
	if _, err := window.ParsePosition(string(a.WindowPos)); err != nil {
		return fmt.Errorf("%w: --%s: %v", ErrInvalidArgument, flagWindowPos, err)
	}
	return nil
}

// Argv returns the worker command line for binary.
func (a Args) Argv(binary string) []string {
	argv := []string{
		binary,
		"--" + flagScene, strconv.Itoa(a.Scene),
		"--" + flagSensorType, a.SensorType,
		"--" + flagWindowPos, string(a.WindowPos),
	}
	if a.Token != "" {
		argv = append(argv, "--"+flagToken, a.Token)
	}
	if a.Config != "" {
		argv = append(argv, "--"+flagConfig, a.Config)
	}
	return argv
}

// NewFlagSet declares the worker flags on a fresh set bound to a.
func NewFlagSet(name string, a *Args) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&a.Scene, flagScene, -1, fmt.Sprintf("scene index (%d..%d, required)", MinScene, MaxScene))
	fs.StringVar(&a.SensorType, flagSensorType, "", "sensors to show: camera or lidar-radar (required)")
	fs.Func(flagWindowPos, "window position: top-left or top-right (required)", func(s string) error {
		a.WindowPos = window.Position(s)
		return nil
	})
	fs.StringVar(&a.Token, flagToken, "", "sample token to start at (default: the scene's first sample)")
	fs.StringVar(&a.Config, flagConfig, "", "path to viewer config JSON")
	return fs
}

// Parse parses and validates a worker command line (without the program
// name). Usage goes to output on any failure.
func Parse(name string, args []string, output io.Writer) (Args, error) {
	var a Args
	fs := NewFlagSet(name, &a)
	fs.SetOutput(output)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Args{}, err
		}
		return Args{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return Args{}, fmt.Errorf("%w: unexpected arguments %v", ErrInvalidArgument, fs.Args())
	}
	if err := a.Validate(); err != nil {
		fmt.Fprintln(output, err)
		fs.Usage()
		return Args{}, err
	}
	return a, nil
}
