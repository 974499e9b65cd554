package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	if got.Before(before) {
		t.Errorf("Now() = %v, want >= %v", got, before)
	}
}

func TestRealClock_After(t *testing.T) {
	c := RealClock{}
	select {
	case <-c.After(time.Millisecond):
	case <-time.After(time.Second):
		t.Fatal("After did not fire")
	}
}

func TestMockClock_Set(t *testing.T) {
	start := time.Date(2018, 7, 24, 3, 28, 47, 0, time.UTC)
	c := NewMockClock(start)
	if !c.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", c.Now(), start)
	}
	later := start.Add(time.Hour)
	c.Set(later)
	if got := c.Since(start); got != time.Hour {
		t.Errorf("Since() = %v, want 1h", got)
	}
}

func TestMockClock_Sleep(t *testing.T) {
	start := time.Date(2018, 7, 24, 3, 28, 47, 0, time.UTC)
	c := NewMockClock(start)

	c.Sleep(500 * time.Millisecond)
	c.Sleep(500 * time.Millisecond)

	sleeps := c.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 500*time.Millisecond {
		t.Errorf("Sleeps() = %v", sleeps)
	}
	if got := c.Since(start); got != time.Second {
		t.Errorf("clock advanced %v, want 1s", got)
	}
}

func TestMockClock_After(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	ch := c.After(2 * time.Second)

	c.Advance(time.Second)
	select {
	case <-ch:
		t.Fatal("After fired early")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-ch:
		if !got.Equal(time.Unix(2, 0)) {
			t.Errorf("After delivered %v", got)
		}
	default:
		t.Fatal("After did not fire at deadline")
	}
}

func TestMockClock_AfterZero(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}
