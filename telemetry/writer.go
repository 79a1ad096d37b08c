package telemetry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Metadata is the run-wide header emitted once before any per-window
// records, in both NDJSON and CSV form.
type Metadata struct {
	RunID           string `json:"run_id"`
	Host            string `json:"host"`
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	CPUModel        string `json:"cpu_model"`
	CPUCount        int    `json:"cpu_count"`
	TimebaseSource  string `json:"timebase_source"`
	TimebaseFreqHz  int64  `json:"timebase_freq_hz"`
}

// recordFields returns one record's values in the fixed field order shared
// by both formats: plugin name, repeat, window index, release_ns,
// deadline_ns, start_ns, end_ns, latency_ns, deadline_missed, W, H, C,
// sample_rate_hz, dtype, run-id.
func recordFields(r WindowRecord) []string {
	missed := "0"
	if r.DeadlineMissed {
		missed = "1"
	}
	return []string{
		r.PluginName,
		strconv.Itoa(r.Repeat),
		strconv.Itoa(r.WindowIndex),
		strconv.FormatInt(r.ReleaseNs, 10),
		strconv.FormatInt(r.DeadlineNs, 10),
		strconv.FormatInt(r.StartNs, 10),
		strconv.FormatInt(r.EndNs, 10),
		strconv.FormatInt(r.LatencyNs(), 10),
		missed,
		strconv.Itoa(r.WindowLengthSamples),
		strconv.Itoa(r.HopSamples),
		strconv.Itoa(r.Channels),
		strconv.FormatFloat(r.SampleRateHz, 'g', -1, 64),
		r.DType,
		r.RunID,
	}
}

var csvHeader = []string{
	"plugin", "repeat", "window_index", "release_ns", "deadline_ns",
	"start_ns", "end_ns", "latency_ns", "deadline_missed",
	"window_length_samples", "hop_samples", "channels",
	"sample_rate_hz", "dtype", "run_id",
}

// Formatter serializes a metadata header plus a sequence of WindowRecord.
// NDJSON and CSV are both variants of this single contract (§4.5); a writer
// that wants a third format on-disk implements the same interface.
type Formatter interface {
	Format(w io.Writer, meta Metadata, records []WindowRecord) error
}

// NDJSONFormatter emits one JSON object per line: the metadata line first,
// then one line per record in dispatch order.
type NDJSONFormatter struct{}

func (NDJSONFormatter) Format(w io.Writer, meta Metadata, records []WindowRecord) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("telemetry: write ndjson metadata: %w", err)
	}
	for _, r := range records {
		line := ndjsonRecord{
			Plugin:         r.PluginName,
			Repeat:         r.Repeat,
			WindowIndex:    r.WindowIndex,
			ReleaseNs:      r.ReleaseNs,
			DeadlineNs:     r.DeadlineNs,
			StartNs:        r.StartNs,
			EndNs:          r.EndNs,
			LatencyNs:      r.LatencyNs(),
			DeadlineMissed: r.DeadlineMissed,
			Window:         r.WindowLengthSamples,
			Hop:            r.HopSamples,
			Channels:       r.Channels,
			SampleRateHz:   r.SampleRateHz,
			DType:          r.DType,
			RunID:          r.RunID,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("telemetry: write ndjson record: %w", err)
		}
	}
	return nil
}

// ndjsonRecord mirrors the fixed CSV field order with JSON tags so encoding
// order is stable across versions within a major release.
type ndjsonRecord struct {
	Plugin         string  `json:"plugin"`
	Repeat         int     `json:"repeat"`
	WindowIndex    int     `json:"window_index"`
	ReleaseNs      int64   `json:"release_ns"`
	DeadlineNs     int64   `json:"deadline_ns"`
	StartNs        int64   `json:"start_ns"`
	EndNs          int64   `json:"end_ns"`
	LatencyNs      int64   `json:"latency_ns"`
	DeadlineMissed bool    `json:"deadline_missed"`
	Window         int     `json:"window_length_samples"`
	Hop            int     `json:"hop_samples"`
	Channels       int     `json:"channels"`
	SampleRateHz   float64 `json:"sample_rate_hz"`
	DType          string  `json:"dtype"`
	RunID          string  `json:"run_id"`
}

// CSVFormatter emits a metadata comment line, a header row, then one row
// per record in the same fixed field order as NDJSON.
type CSVFormatter struct{}

func (CSVFormatter) Format(w io.Writer, meta Metadata, records []WindowRecord) error {
	metaLine := fmt.Sprintf("# run_id=%s host=%s os=%s arch=%s cpu_model=%s cpu_count=%d timebase_source=%s timebase_freq_hz=%d\n",
		meta.RunID, meta.Host, meta.OS, meta.Arch, meta.CPUModel, meta.CPUCount, meta.TimebaseSource, meta.TimebaseFreqHz)
	if _, err := io.WriteString(w, metaLine); err != nil {
		return fmt.Errorf("telemetry: write csv metadata: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("telemetry: write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(recordFields(r)); err != nil {
			return fmt.Errorf("telemetry: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatterFor returns the Formatter for a configured output format string,
// defaulting to NDJSON for anything unrecognized.
func FormatterFor(format string) Formatter {
	switch format {
	case "csv":
		return CSVFormatter{}
	default:
		return NDJSONFormatter{}
	}
}
