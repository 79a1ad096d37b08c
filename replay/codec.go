package replay

import (
	"encoding/binary"
	"math"
)

// decodeFloat32LE decodes little-endian interleaved float32 samples from
// raw into out. len(out) must equal len(raw)/4.
func decodeFloat32LE(raw []byte, out []float32) {
	for i := range out {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
}

// DecodeFloat32LE is the exported form of decodeFloat32LE, for callers
// outside this package that need the same little-endian sample codec (the
// calibrate CLI verb's training-data reader, in particular).
func DecodeFloat32LE(raw []byte, out []float32) {
	decodeFloat32LE(raw, out)
}

// encodeFloat32LE encodes interleaved float32 samples in little-endian form
// into out. len(out) must equal len(in)*4.
func encodeFloat32LE(in []float32, out []byte) {
	for i, v := range in {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(v))
	}
}
