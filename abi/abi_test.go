package abi

import "testing"

func TestParseDType(t *testing.T) {
	for _, s := range []string{"float32", "q15", "q7"} {
		dt, ok := ParseDType(s)
		if !ok {
			t.Fatalf("ParseDType(%q) not ok", s)
		}
		if dt.String() != s {
			t.Errorf("round trip %q -> %v -> %q", s, dt, dt.String())
		}
	}
	if _, ok := ParseDType("int16"); ok {
		t.Error("ParseDType(\"int16\") should not be ok")
	}
}

func TestCapabilityHas(t *testing.T) {
	var caps Capability
	if caps.Has(CapOfflineCalibration) {
		t.Error("zero Capability should not have CapOfflineCalibration")
	}
	caps |= CapOfflineCalibration
	if !caps.Has(CapOfflineCalibration) {
		t.Error("expected CapOfflineCalibration set")
	}
}

func TestResolveOutputShapeInherits(t *testing.T) {
	r := PluginInitResult{}
	w, c := r.ResolveOutputShape(160, 64)
	if w != 160 || c != 64 {
		t.Errorf("ResolveOutputShape() = (%d,%d), want (160,64)", w, c)
	}

	r2 := PluginInitResult{OutputWindowLenSamples: 8, OutputChannels: 64}
	w2, c2 := r2.ResolveOutputShape(160, 64)
	if w2 != 8 || c2 != 64 {
		t.Errorf("ResolveOutputShape() = (%d,%d), want (8,64)", w2, c2)
	}
}

func TestNewPluginConfigStampsVersion(t *testing.T) {
	cfg := NewPluginConfig(160.0, 160, 80, 64, DTypeFloat32, false, []byte("a=1"), nil)
	if cfg.ABIVersion != Version {
		t.Errorf("ABIVersion = %d, want %d", cfg.ABIVersion, Version)
	}
	if cfg.StructSize == 0 {
		t.Error("StructSize should not be zero")
	}
}
