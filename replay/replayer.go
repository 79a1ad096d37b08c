// Package replay streams hop-sized chunks of interleaved float32 samples
// from a dataset file at the true sample rate, on a dedicated pacing
// thread decoupled from whatever a consumer does with each chunk
// (spec component C3).
package replay

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Config describes one replay session. DatasetPath, unlike the chunk
// contents, is borrowed: the caller must keep the string (and the
// underlying file) valid for the Replayer's entire lifetime.
type Config struct {
	DatasetPath  string
	SampleRateHz float64
	HopSamples   int
	Channels     int
}

func (c Config) chunkFloats() int { return c.HopSamples * c.Channels }

func (c Config) chunkBytes() int { return c.chunkFloats() * 4 }

// Callback receives one hop-sized chunk of interleaved float32 samples on
// the pacing thread. It must not retain chunk past the call — the backing
// array is reused on the next tick. Returning false stops the replayer.
type Callback func(chunk []float32) bool

// Replayer streams dataset chunks at sample-rate-paced intervals. The zero
// value is not usable; construct with New.
type Replayer struct {
	cfg   Config
	file  *os.File
	size  int64

	mu      sync.Mutex
	pacer   *pacer
	started bool

	raw  []byte
	chunk []float32
}

// New opens the dataset file at cfg.DatasetPath and validates that it holds
// at least one whole chunk. It does not start streaming.
func New(cfg Config) (*Replayer, error) {
	if cfg.SampleRateHz <= 0 {
		return nil, fmt.Errorf("replay: sample_rate_hz must be > 0, got %v", cfg.SampleRateHz)
	}
	if cfg.HopSamples <= 0 {
		return nil, fmt.Errorf("replay: hop_samples must be > 0, got %d", cfg.HopSamples)
	}
	if cfg.Channels <= 0 {
		return nil, fmt.Errorf("replay: channels must be > 0, got %d", cfg.Channels)
	}

	f, err := os.Open(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("replay: open dataset: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("replay: stat dataset: %w", err)
	}

	chunkBytes := cfg.chunkBytes()
	if chunkBytes <= 0 {
		f.Close()
		return nil, fmt.Errorf("replay: chunk size overflowed for hop=%d channels=%d", cfg.HopSamples, cfg.Channels)
	}
	if info.Size() < int64(chunkBytes) {
		f.Close()
		return nil, fmt.Errorf("replay: dataset %q is smaller than one chunk (%d bytes)", cfg.DatasetPath, chunkBytes)
	}

	return &Replayer{
		cfg:   cfg,
		file:  f,
		size:  info.Size(),
		raw:   make([]byte, chunkBytes),
		chunk: make([]float32, cfg.chunkFloats()),
	}, nil
}

// Start begins streaming on a dedicated pacing goroutine, invoking cb once
// per hop period with absolute, non-drifting deadlines derived from
// sample_rate_hz and hop_samples. Start must only be called once; use
// Stop/Destroy to end a session.
func (r *Replayer) Start(cb Callback) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("replay: already started")
	}
	period := time.Duration(float64(r.cfg.HopSamples) / r.cfg.SampleRateHz * float64(time.Second))
	r.pacer = newPacer(period)
	r.started = true
	r.mu.Unlock()

	go r.pacer.run(func() bool {
		return r.tick(cb)
	})
	return nil
}

// tick reads the next chunk, rewinding to the start of the file on EOF, and
// forwards it to cb. No chunk is duplicated across the rewind boundary.
func (r *Replayer) tick(cb Callback) bool {
	if _, err := io.ReadFull(r.file, r.raw); err != nil {
		if _, seekErr := r.file.Seek(0, io.SeekStart); seekErr != nil {
			return false
		}
		if _, err := io.ReadFull(r.file, r.raw); err != nil {
			return false
		}
	}
	decodeFloat32LE(r.raw, r.chunk)
	return cb(r.chunk)
}

// Stop signals the pacing thread to exit and joins it. It is idempotent:
// calling it when the replayer was never started, or more than once, is a
// no-op.
func (r *Replayer) Stop() {
	r.mu.Lock()
	p := r.pacer
	started := r.started
	r.mu.Unlock()
	if started && p != nil {
		p.stop()
	}
}

// Destroy stops the replayer if needed and releases its file handle.
func (r *Replayer) Destroy() error {
	r.Stop()
	return r.file.Close()
}
