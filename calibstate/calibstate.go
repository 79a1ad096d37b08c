// Package calibstate implements the on-disk calibration-state format (§6):
// a small fixed header followed by an opaque payload produced by a
// trainable plugin's calibrate function and consumed by its init function.
package calibstate

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cortexbench/cortex/abi"
)

// Magic is the 4-byte file signature: the tag "CORT" stored as a
// little-endian uint32, i.e. the bytes 54 52 4F 43 in file order.
var Magic = [4]byte{0x54, 0x52, 0x4F, 0x43}

// MaxPayloadBytes bounds the payload size accepted by Load (256 MiB, §6).
const MaxPayloadBytes = 256 << 20

// State is the parsed, validated on-disk calibration-state form.
type State struct {
	ABIVersion   uint32
	StateVersion uint32
	Payload      []byte
}

// Save writes magic, ABI version, state version, payload size and payload
// to w, in that fixed order.
func Save(w io.Writer, stateVersion uint32, payload []byte) error {
	if len(payload) > MaxPayloadBytes {
		return fmt.Errorf("calibstate: payload %d bytes exceeds cap of %d", len(payload), MaxPayloadBytes)
	}
	var header [16]byte
	copy(header[0:4], Magic[:])
	binary.LittleEndian.PutUint32(header[4:8], abi.Version)
	binary.LittleEndian.PutUint32(header[8:12], stateVersion)
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("calibstate: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("calibstate: write payload: %w", err)
	}
	return nil
}

// Load reads and validates a calibration-state file. It rejects wrong
// magic, wrong ABI version, a truncated header or payload, and an oversized
// payload. Load only sees a reader, so it does not check paths; rejecting a
// path containing `..` is done by the caller that opens the file (the
// orchestrator's loadCalibrationState).
func Load(r io.Reader) (State, error) {
	var header [16]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return State{}, fmt.Errorf("calibstate: truncated header: %w", err)
	}
	var gotMagic [4]byte
	copy(gotMagic[:], header[0:4])
	if gotMagic != Magic {
		return State{}, fmt.Errorf("calibstate: bad magic %x", header[0:4])
	}
	abiVersion := binary.LittleEndian.Uint32(header[4:8])
	if abiVersion != abi.Version {
		return State{}, fmt.Errorf("calibstate: ABI version %d does not match host %d", abiVersion, abi.Version)
	}
	stateVersion := binary.LittleEndian.Uint32(header[8:12])
	size := binary.LittleEndian.Uint32(header[12:16])
	if size > MaxPayloadBytes {
		return State{}, fmt.Errorf("calibstate: payload size %d exceeds cap of %d", size, MaxPayloadBytes)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return State{}, fmt.Errorf("calibstate: truncated payload: %w", err)
	}
	return State{ABIVersion: abiVersion, StateVersion: stateVersion, Payload: payload}, nil
}
