package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)

	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestRealClock_NewTicker(t *testing.T) {
	clock := RealClock{}
	ticker := clock.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(200 * time.Millisecond):
		t.Error("ticker did not fire")
	}
}

func TestMockClock_SetAllowsRegression(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Set(start.Add(-time.Second))
	if got := clock.Now(); !got.Equal(start.Add(-time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(-time.Second))
	}
	if got := clock.Since(start); got != -time.Second {
		t.Errorf("Since() = %v, want -1s", got)
	}
}

func TestMockTicker_FiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(start)
	ticker := clock.NewTicker(100 * time.Millisecond)

	clock.Advance(50 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	clock.Advance(50 * time.Millisecond)
	select {
	case got := <-ticker.C():
		if want := start.Add(100 * time.Millisecond); !got.Equal(want) {
			t.Errorf("tick = %v, want %v", got, want)
		}
	default:
		t.Fatal("ticker did not fire")
	}
}

func TestMockTicker_Stop(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Second)
	if clock.Tickers() != 1 {
		t.Fatalf("Tickers() = %d, want 1", clock.Tickers())
	}

	ticker.Stop()
	clock.Advance(2 * time.Second)

	select {
	case <-ticker.C():
		t.Error("stopped ticker fired")
	default:
	}
	if clock.Tickers() != 0 {
		t.Errorf("Tickers() = %d, want 0", clock.Tickers())
	}
}

func TestMockTicker_Trigger(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Hour).(*MockTicker)

	at := time.Unix(42, 0)
	ticker.Trigger(at)
	// A second trigger is dropped while the first is unread.
	ticker.Trigger(time.Unix(43, 0))

	if got := <-ticker.C(); !got.Equal(at) {
		t.Errorf("tick = %v, want %v", got, at)
	}
	select {
	case <-ticker.C():
		t.Error("expected dropped tick")
	default:
	}
}

func TestMockTicker_StopDiscardsPendingTick(t *testing.T) {
	clock := NewMockClock(time.Unix(0, 0))
	ticker := clock.NewTicker(time.Second).(*MockTicker)

	clock.Advance(time.Second)
	ticker.Stop()
	ticker.Trigger(time.Unix(5, 0))

	select {
	case got := <-ticker.C():
		t.Errorf("received tick %v after Stop", got)
	default:
	}
}
