package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cortexbench/cortex/calibstate"
)

func TestLoadCalibrationStateEmptyPathIsNoOp(t *testing.T) {
	payload, err := loadCalibrationState("")
	if err != nil || payload != nil {
		t.Fatalf("loadCalibrationState(\"\") = (%v, %v), want (nil, nil)", payload, err)
	}
}

func TestLoadCalibrationStateRejectsPathEscape(t *testing.T) {
	if _, err := loadCalibrationState("../../etc/passwd"); err == nil {
		t.Fatal("loadCalibrationState should reject a path containing \"..\"")
	}
}

func TestLoadCalibrationStateRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := []byte{1, 2, 3, 4}
	if err := calibstate.Save(f, 7, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f.Close()

	got, err := loadCalibrationState(path)
	if err != nil {
		t.Fatalf("loadCalibrationState: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loadCalibrationState payload = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("loadCalibrationState payload = %v, want %v", got, want)
		}
	}
}
