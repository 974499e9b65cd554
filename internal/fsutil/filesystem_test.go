package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_ReadFile(t *testing.T) {
	fs := OSFileSystem{}

	data, err := fs.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// Mutating the returned slice must not change the stored file.
	data[0] = 'X'
	again, _ := mfs.ReadFile("/test.txt")
	if string(again) != string(testData) {
		t.Errorf("stored data was mutated: %q", again)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.ReadFile("/missing.json")
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestMemoryFileSystem_RenameAndRemove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/a.png", []byte("png"), 0644)

	if err := mfs.Rename("/a.png", "/b.png"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if mfs.Exists("/a.png") {
		t.Error("old path still exists after rename")
	}
	if !mfs.Exists("/b.png") {
		t.Error("new path missing after rename")
	}
	if err := mfs.Rename("/a.png", "/c.png"); err == nil {
		t.Error("expected rename of missing file to fail")
	}

	if err := mfs.Remove("/b.png"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if mfs.Exists("/b.png") {
		t.Error("file still exists after remove")
	}
}

func TestMemoryFileSystem_MkdirAllAndStat(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/out/scene-0/frames", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, dir := range []string{"/out", "/out/scene-0", "/out/scene-0/frames"} {
		info, err := mfs.Stat(dir)
		if err != nil {
			t.Fatalf("Stat(%s) failed: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/root/v1.0-mini/sample.json", []byte("[]"), 0644)
	_ = mfs.WriteFile("/root/v1.0-mini/scene.json", []byte("[]"), 0644)
	_ = mfs.WriteFile("/other/x.json", []byte("[]"), 0644)

	got := mfs.Files("/root")
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %v", got)
	}
	if got[0] != "/root/v1.0-mini/sample.json" {
		t.Errorf("unexpected ordering: %v", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		mfs := NewMemoryFileSystem()
		if err := WriteFileAtomic(mfs, "/out/view.png", []byte("frame-1"), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		if mfs.Exists("/out/view.png.tmp") {
			t.Error("temp file left behind")
		}
		data, err := mfs.ReadFile("/out/view.png")
		if err != nil || string(data) != "frame-1" {
			t.Fatalf("unexpected content %q (err=%v)", data, err)
		}
	})

	t.Run("os overwrite", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "nested", "view.png")
		fs := OSFileSystem{}
		if err := WriteFileAtomic(fs, target, []byte("first"), 0644); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := WriteFileAtomic(fs, target, []byte("second"), 0644); err != nil {
			t.Fatalf("second write failed: %v", err)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "second" {
			t.Errorf("expected %q, got %q", "second", data)
		}
	})
}
