package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerEmitsLastValueOfBurst(t *testing.T) {
	d := NewDebouncer[string](50 * time.Millisecond)
	defer d.Stop()

	d.Set("mod")
	d.Set("moder")
	d.Set("modern villa")

	select {
	case v := <-d.C():
		assert.Equal(t, "modern villa", v)
	case <-time.After(time.Second):
		t.Fatal("debouncer never emitted")
	}

	// Exactly one emission for the burst.
	select {
	case v := <-d.C():
		t.Fatalf("unexpected second emission: %q", v)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerRestartsTimerOnUpdate(t *testing.T) {
	d := NewDebouncer[int](80 * time.Millisecond)
	defer d.Stop()

	d.Set(1)
	time.Sleep(40 * time.Millisecond)
	d.Set(2)

	// 60ms after the second Set the original deadline has passed but the
	// restarted one has not: nothing may be emitted yet.
	select {
	case v := <-d.C():
		t.Fatalf("emitted %d before input was stable", v)
	case <-time.After(60 * time.Millisecond):
	}

	select {
	case v := <-d.C():
		assert.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("debouncer never emitted")
	}
}

func TestDebouncerSeparateBurstsEmitSeparately(t *testing.T) {
	d := NewDebouncer[int](30 * time.Millisecond)
	defer d.Stop()

	d.Set(1)
	require.Equal(t, 1, waitFor(t, d.C()))

	d.Set(2)
	require.Equal(t, 2, waitFor(t, d.C()))
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer[int](30 * time.Millisecond)

	d.Set(7)
	d.Stop()

	select {
	case v := <-d.C():
		t.Fatalf("emitted %d after Stop", v)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for emission")
		panic("unreachable")
	}
}
