package replay

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeDataset(t *testing.T, samples []float32) string {
	t.Helper()
	raw := make([]byte, len(samples)*4)
	encodeFloat32LE(samples, raw)
	path := filepath.Join(t.TempDir(), "dataset.raw")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestNewRejectsFileSmallerThanOneChunk(t *testing.T) {
	path := writeDataset(t, []float32{1, 2, 3})
	_, err := New(Config{DatasetPath: path, SampleRateHz: 1000, HopSamples: 4, Channels: 1})
	if err == nil {
		t.Fatal("New should reject a dataset smaller than one chunk")
	}
}

func TestReplayerStreamsChunksAndRewindsOnEOF(t *testing.T) {
	samples := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	path := writeDataset(t, samples)

	r, err := New(Config{DatasetPath: path, SampleRateHz: 1_000_000, HopSamples: 2, Channels: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Destroy()

	var mu sync.Mutex
	var got [][]float32
	done := make(chan struct{})

	if err := r.Start(func(chunk []float32) bool {
		mu.Lock()
		cp := append([]float32(nil), chunk...)
		got = append(got, cp)
		n := len(got)
		mu.Unlock()
		if n >= 6 {
			close(done)
			return false
		}
		return true
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chunks")
	}
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) < 6 {
		t.Fatalf("got %d chunks, want >= 6", len(got))
	}
	// First rewind should replay the dataset from the start: the fifth chunk
	// (index 4, 0-based) corresponds to sample offset 0 again.
	if got[4][0] != samples[0] || got[4][1] != samples[1] {
		t.Errorf("after rewind got %v, want first chunk %v", got[4], samples[0:2])
	}
}

func TestStartTwiceRejected(t *testing.T) {
	path := writeDataset(t, []float32{1, 2, 3, 4})
	r, err := New(Config{DatasetPath: path, SampleRateHz: 1000, HopSamples: 4, Channels: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Destroy()

	if err := r.Start(func([]float32) bool { return false }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Stop()
	if err := r.Start(func([]float32) bool { return false }); err == nil {
		t.Fatal("second Start should be rejected")
	}
}

func TestStopIsIdempotentWithoutStart(t *testing.T) {
	path := writeDataset(t, []float32{1, 2, 3, 4})
	r, err := New(Config{DatasetPath: path, SampleRateHz: 1000, HopSamples: 4, Channels: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Stop()
	if err := r.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
}
