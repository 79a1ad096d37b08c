package main

import (
	"os"
	"testing"
)

func TestResolvePretty(t *testing.T) {
	os.Unsetenv("CORTEX_LOG_PRETTY")
	if resolvePretty(false) {
		t.Error("resolvePretty(false) with no env var = true, want false")
	}
	if !resolvePretty(true) {
		t.Error("resolvePretty(true) = false, want true")
	}

	os.Setenv("CORTEX_LOG_PRETTY", "1")
	defer os.Unsetenv("CORTEX_LOG_PRETTY")
	if !resolvePretty(false) {
		t.Error("resolvePretty(false) with CORTEX_LOG_PRETTY=1 = false, want true")
	}
}

func TestRunWithNoArgsIsUsageError(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Errorf("run(nil) = %d, want 2", code)
	}
}

func TestRunWithUnknownVerbIsUsageError(t *testing.T) {
	if code := run([]string{"frobnicate"}); code != 2 {
		t.Errorf("run with unknown verb = %d, want 2", code)
	}
}

func TestRunHelpSucceeds(t *testing.T) {
	if code := run([]string{"help"}); code != 0 {
		t.Errorf("run help = %d, want 0", code)
	}
}

func TestRunValidateIsANoOpStub(t *testing.T) {
	if code := run([]string{"validate"}); code != 0 {
		t.Errorf("run validate = %d, want 0", code)
	}
}

func TestCalibrateRequiresAllFlags(t *testing.T) {
	if code := run([]string{"calibrate", "--kernel", "kernels/noop@float32"}); code != 2 {
		t.Errorf("calibrate missing required flags = %d, want 2", code)
	}
}

func TestRunVerbRequiresExactlyOneConfigPath(t *testing.T) {
	if code := run([]string{"run"}); code != 2 {
		t.Errorf("run with no config path = %d, want 2", code)
	}
	if code := run([]string{"run", "a.yaml", "b.yaml"}); code != 2 {
		t.Errorf("run with two config paths = %d, want 2", code)
	}
}
