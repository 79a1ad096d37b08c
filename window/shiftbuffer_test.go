package window

import "testing"

func TestShiftBufferFeedAndFull(t *testing.T) {
	b := newShiftBuffer(4, 2) // W*C=4, H*C=2
	if b.full() {
		t.Fatal("new buffer should not be full")
	}
	n := b.feed([]float32{1, 2})
	if n != 2 {
		t.Fatalf("feed = %d, want 2", n)
	}
	if b.full() {
		t.Fatal("buffer should not be full after half a window")
	}
	n = b.feed([]float32{3, 4})
	if n != 2 || !b.full() {
		t.Fatalf("feed = %d, full = %v, want 2 and true", n, b.full())
	}
	if got := b.window(); got[0] != 1 || got[3] != 4 {
		t.Errorf("window = %v, want [1 2 3 4]", got)
	}
}

func TestShiftBufferAdvancePreservesOverlap(t *testing.T) {
	b := newShiftBuffer(4, 2)
	b.feed([]float32{1, 2, 3, 4})
	b.advance()
	if b.full() {
		t.Fatal("buffer should not be full immediately after advance")
	}
	// The trailing (W-H)=2 floats {3,4} should now occupy the front.
	if b.data[0] != 3 || b.data[1] != 4 {
		t.Errorf("after advance data[:2] = %v, want [3 4]", b.data[:2])
	}
}

func TestShiftBufferHEqualsWConsumesExactly(t *testing.T) {
	b := newShiftBuffer(4, 4)
	b.feed([]float32{1, 2, 3, 4})
	b.advance()
	if b.filled != 0 {
		t.Errorf("filled = %d, want 0 when H == W", b.filled)
	}
}

func TestShiftBufferNeverOverflowsCapacity(t *testing.T) {
	b := newShiftBuffer(2, 2)
	n := b.feed([]float32{1, 2, 3, 4})
	if n != 2 {
		t.Fatalf("feed accepted %d floats into a 2-float buffer, want 2", n)
	}
}
