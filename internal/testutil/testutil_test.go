package testutil

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/nuview/internal/fsutil"
)

func TestAssertNoError_NilErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertNoError(fakeT, nil)
	if fakeT.Failed() {
		t.Error("expected no failure for nil error")
	}
}

func TestAssertError_WithErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertError(fakeT, errors.New("something wrong"))
	if fakeT.Failed() {
		t.Error("expected no failure when error is present")
	}
}

func TestWriteDataset(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	root := "/data/nuscenes"
	w := WriteDataset(t, fsys, root, Fixture{Scenes: []int{3, 2}, WriteFiles: true, Lidarseg: true})

	if len(w.Samples) != 2 || len(w.Samples[0]) != 3 || len(w.Samples[1]) != 2 {
		t.Fatalf("unexpected sample tokens %v", w.Samples)
	}

	for _, table := range []string{"scene", "sample", "sample_data", "sensor", "calibrated_sensor",
		"ego_pose", "sample_annotation", "instance", "category", "lidarseg"} {
		if !fsys.Exists(filepath.Join(root, "v1.0-mini", table+".json")) {
			t.Errorf("missing table %s", table)
		}
	}

	data, err := fsys.ReadFile(filepath.Join(root, "v1.0-mini", "sample_data.json"))
	AssertNoError(t, err)
	var rows []map[string]any
	AssertNoError(t, json.Unmarshal(data, &rows))
	if want := 5 * len(DefaultChannels); len(rows) != want {
		t.Errorf("sample_data rows = %d, want %d", len(rows), want)
	}

	lidar := filepath.Join(root, "samples", "LIDAR_TOP", SampleDataToken("s0-0", "LIDAR_TOP")+".pcd.bin")
	bin, err := fsys.ReadFile(lidar)
	AssertNoError(t, err)
	if len(bin) != len(LidarPoints)*20 {
		t.Errorf("lidar file size = %d", len(bin))
	}
}

func TestRadarPCDHeader(t *testing.T) {
	data := RadarPCD(RadarPoints)
	header, _, ok := strings.Cut(string(data), "DATA binary\n")
	if !ok {
		t.Fatal("missing DATA line")
	}
	if !strings.Contains(header, "POINTS 4") {
		t.Errorf("header missing point count: %q", header)
	}
	// 18 fields summing to 43 bytes per point
	if got := len(data) - len(header) - len("DATA binary\n"); got != 4*43 {
		t.Errorf("payload = %d bytes, want %d", got, 4*43)
	}
}
