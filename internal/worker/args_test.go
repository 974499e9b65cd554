package worker

import (
	"bytes"
	"errors"
	"flag"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/nuview/internal/render"
	"github.com/banshee-data/nuview/internal/window"
)

func TestArgv_RoundTrip(t *testing.T) {
	tests := []Args{
		{Scene: 0, SensorType: SensorCamera, WindowPos: window.TopLeft},
		{Scene: 10, SensorType: SensorLidarRadar, WindowPos: window.TopRight, Token: "abc123"},
		{Scene: 4, SensorType: SensorCamera, WindowPos: window.TopLeft, Token: "t", Config: "/etc/nuview.json"},
	}
	for _, want := range tests {
		argv := want.Argv("nuview-worker")
		if argv[0] != "nuview-worker" {
			t.Fatalf("argv[0] = %q", argv[0])
		}
		got, err := Parse("nuview-worker", argv[1:], &bytes.Buffer{})
		if err != nil {
			t.Fatalf("Parse(%v) failed: %v", argv, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing scene", []string{"--sensor-type", "camera", "--window-pos", "top-left"}},
		{"scene too high", []string{"--scene", "11", "--sensor-type", "camera", "--window-pos", "top-left"}},
		{"negative scene", []string{"--scene", "-2", "--sensor-type", "camera", "--window-pos", "top-left"}},
		{"scene not a number", []string{"--scene", "x", "--sensor-type", "camera", "--window-pos", "top-left"}},
		{"bad sensor type", []string{"--scene", "1", "--sensor-type", "radar", "--window-pos", "top-left"}},
		{"missing window", []string{"--scene", "1", "--sensor-type", "camera"}},
		{"bad window", []string{"--scene", "1", "--sensor-type", "camera", "--window-pos", "middle"}},
		{"unknown flag", []string{"--scene", "1", "--bogus"}},
		{"extra args", []string{"--scene", "1", "--sensor-type", "camera", "--window-pos", "top-left", "extra"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := Parse("nuview-worker", tc.args, &out)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if !bytes.Contains(out.Bytes(), []byte("-sensor-type")) {
				t.Errorf("expected usage in output, got %q", out.String())
			}
		})
	}
}

func TestParse_Help(t *testing.T) {
	_, err := Parse("nuview-worker", []string{"-h"}, &bytes.Buffer{})
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
}

func TestView(t *testing.T) {
	if v := (Args{SensorType: SensorCamera}).View(); v != render.ViewCamera {
		t.Errorf("camera view = %s", v)
	}
	if v := (Args{SensorType: SensorLidarRadar}).View(); v != render.ViewLidarRadar {
		t.Errorf("lidar-radar view = %s", v)
	}
}
