package window

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"top-left", TopLeft, false},
		{"top-right", TopRight, false},
		{"bottom-left", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePosition(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParsePosition(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParsePosition(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestGeometry(t *testing.T) {
	if got := Geometry(TopLeft, 1920, 1080); got != "960x540+0+0" {
		t.Errorf("TopLeft = %s", got)
	}
	if got := Geometry(TopRight, 1920, 1080); got != "960x540+960+0" {
		t.Errorf("TopRight = %s", got)
	}
	// odd widths keep the right window flush with the screen edge
	if got := Geometry(TopRight, 1921, 1080); got != "960x540+961+0" {
		t.Errorf("TopRight odd = %s", got)
	}
}

func TestViewerArgv(t *testing.T) {
	tmpl := []string{"feh", "--geometry", "{geometry}", "--title", "nuview {title}", "{file}"}
	got := ViewerArgv(tmpl, "960x540+0+0", "camera", "/tmp/nuview/camera.png")
	want := []string{"feh", "--geometry", "960x540+0+0", "--title", "nuview camera", "/tmp/nuview/camera.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ViewerArgv mismatch (-want +got):\n%s", diff)
	}
	if tmpl[2] != "{geometry}" {
		t.Error("template must not be modified")
	}
	if ViewerArgv(nil, "g", "t", "f") != nil {
		t.Error("Expected nil argv for empty template")
	}
}
