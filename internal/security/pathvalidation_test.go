package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	root := t.TempDir()
	dataroot := filepath.Join(root, "nuscenes")
	outside := filepath.Join(root, "outside")
	for _, d := range []string{dataroot, outside} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	link := filepath.Join(dataroot, "samples")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		wantError bool
	}{
		{"plain file", filepath.Join(dataroot, "v1.0-mini", "sample.json"), false},
		{"dot dot escape", filepath.Join(dataroot, "..", "outside", "secret.txt"), true},
		{"relative escape", "../../../etc/passwd", true},
		{"absolute outside", "/etc/passwd", true},
		{"through symlink", filepath.Join(link, "secret.txt"), true},
		{"new file under symlink", filepath.Join(link, "new.jpg"), true},
		{"symlink itself", link, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, dataroot)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestResolveDatasetPath(t *testing.T) {
	dataroot := t.TempDir()

	got, err := ResolveDatasetPath(dataroot, "samples/CAM_FRONT/n015-frame.jpg")
	if err != nil {
		t.Fatalf("ResolveDatasetPath failed: %v", err)
	}
	want := filepath.Join(dataroot, "samples", "CAM_FRONT", "n015-frame.jpg")
	if got != want {
		t.Errorf("ResolveDatasetPath = %q, want %q", got, want)
	}

	for _, rel := range []string{"", "/etc/passwd", "../escape.bin", "samples/../../escape.bin"} {
		if _, err := ResolveDatasetPath(dataroot, rel); err == nil {
			t.Errorf("ResolveDatasetPath(%q) should fail", rel)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ca9a282c9e77460f8360f564131a8af5", "ca9a282c9e77460f8360f564131a8af5"},
		{"scene-0061 / CAM_FRONT", "scene-0061_CAM_FRONT"},
		{"../../etc", "etc"},
		{"", "unknown"},
		{"///", "unknown"},
		{"a__b", "a_b"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
