package telemetry

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"testing"
)

func sampleRecords() []WindowRecord {
	return []WindowRecord{
		{
			PluginName: "noop", Repeat: 0, WindowIndex: 0,
			ReleaseNs: 100, DeadlineNs: 600, StartNs: 110, EndNs: 200,
			DeadlineMissed: false, RunID: "run-1",
			WindowLengthSamples: 160, HopSamples: 80, Channels: 64,
			SampleRateHz: 160, DType: "float32",
		},
		{
			PluginName: "noop", Repeat: 0, WindowIndex: 1,
			ReleaseNs: 600, DeadlineNs: 1100, StartNs: 610, EndNs: 1200,
			DeadlineMissed: true, RunID: "run-1",
			WindowLengthSamples: 160, HopSamples: 80, Channels: 64,
			SampleRateHz: 160, DType: "float32",
		},
	}
}

func TestNDJSONFormatterWritesMetadataThenRecords(t *testing.T) {
	var buf bytes.Buffer
	meta := Metadata{RunID: "run-1", Host: "h", OS: "linux", Arch: "amd64", CPUCount: 8}
	if err := (NDJSONFormatter{}).Format(&buf, meta, sampleRecords()); err != nil {
		t.Fatalf("Format: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	if !scanner.Scan() {
		t.Fatal("expected a metadata line")
	}
	var gotMeta Metadata
	if err := json.Unmarshal(scanner.Bytes(), &gotMeta); err != nil {
		t.Fatalf("unmarshal metadata: %v", err)
	}
	if gotMeta.RunID != "run-1" {
		t.Errorf("metadata run_id = %q, want run-1", gotMeta.RunID)
	}

	count := 0
	for scanner.Scan() {
		var rec ndjsonRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		count++
	}
	if count != 2 {
		t.Errorf("record lines = %d, want 2", count)
	}
}

func TestCSVFormatterRoundTripsSameFields(t *testing.T) {
	var ndjsonBuf, csvBuf bytes.Buffer
	meta := Metadata{RunID: "run-1", Host: "h"}
	records := sampleRecords()

	if err := (NDJSONFormatter{}).Format(&ndjsonBuf, meta, records); err != nil {
		t.Fatalf("ndjson Format: %v", err)
	}
	if err := (CSVFormatter{}).Format(&csvBuf, meta, records); err != nil {
		t.Fatalf("csv Format: %v", err)
	}

	// Skip the CSV metadata comment line, then parse rows.
	reader := bufio.NewReader(&csvBuf)
	if _, err := reader.ReadString('\n'); err != nil {
		t.Fatalf("read csv metadata line: %v", err)
	}
	cr := csv.NewReader(reader)
	rows, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != len(records)+1 { // header + rows
		t.Fatalf("csv rows = %d, want %d", len(rows), len(records)+1)
	}
	if rows[0][0] != "plugin" {
		t.Errorf("csv header[0] = %q, want plugin", rows[0][0])
	}

	for i, rec := range records {
		row := rows[i+1]
		if row[0] != rec.PluginName {
			t.Errorf("row %d plugin = %q, want %q", i, row[0], rec.PluginName)
		}
		gotLatency, _ := strconv.ParseInt(row[7], 10, 64)
		if gotLatency != rec.LatencyNs() {
			t.Errorf("row %d latency_ns = %d, want %d", i, gotLatency, rec.LatencyNs())
		}
	}
}

func TestFormatterForDefaultsToNDJSON(t *testing.T) {
	if _, ok := FormatterFor("unknown").(NDJSONFormatter); !ok {
		t.Error("FormatterFor should default to NDJSON for an unrecognized format")
	}
	if _, ok := FormatterFor("csv").(CSVFormatter); !ok {
		t.Error("FormatterFor(\"csv\") should return CSVFormatter")
	}
}
