package calibstate

import (
	"bytes"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	payload := []byte("trained-weights-blob")
	var buf bytes.Buffer
	if err := Save(&buf, 7, payload); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Errorf("Payload = %q, want %q", got.Payload, payload)
	}
	if got.StateVersion != 7 {
		t.Errorf("StateVersion = %d, want 7", got.StateVersion)
	}
	if len(got.Payload) != len(payload) {
		t.Errorf("len(Payload) = %d, want %d", len(got.Payload), len(payload))
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	if _, err := Load(buf); err == nil {
		t.Fatal("Load should reject bad magic bytes")
	}
}

func TestLoadRejectsTruncatedHeader(t *testing.T) {
	buf := bytes.NewBuffer(Magic[:])
	if _, err := Load(buf); err == nil {
		t.Fatal("Load should reject a truncated header")
	}
}

func TestLoadRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, 1, []byte("0123456789")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	truncated := bytes.NewBuffer(buf.Bytes()[:buf.Len()-3])
	if _, err := Load(truncated); err == nil {
		t.Fatal("Load should reject a truncated payload")
	}
}

func TestSaveRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	huge := make([]byte, MaxPayloadBytes+1)
	if err := Save(&buf, 1, huge); err == nil {
		t.Fatal("Save should reject a payload larger than the cap")
	}
}
