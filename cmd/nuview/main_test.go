package main

import "testing"

// TestFlagDefaults verifies the command starts at the first sample of scene 0
// unless told otherwise.
func TestFlagDefaults(t *testing.T) {
	if *scene != 0 {
		t.Errorf("expected scene default 0, got %d", *scene)
	}
	if *token != "" {
		t.Errorf("expected empty token default, got %q", *token)
	}
	if *resume {
		t.Error("expected resume to default to false")
	}
	if *showVersion {
		t.Error("expected version to default to false")
	}
}
