package weather

import (
	"testing"
	"time"
)

func TestCircuitTracker(t *testing.T) {
	cooldown := 300 * time.Second
	tracker := NewCircuitTracker(cooldown)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	if !tracker.Eligible("a", base) {
		t.Fatal("provider with no recorded failure must be eligible")
	}

	tracker.RecordFailure("a", base)
	if tracker.Eligible("a", base.Add(cooldown-time.Second)) {
		t.Fatal("provider must be ineligible within the cooldown window")
	}
	if !tracker.Eligible("a", base.Add(cooldown)) {
		t.Fatal("provider must be eligible once the cooldown has elapsed")
	}

	// A later failure overwrites the previous one.
	tracker.RecordFailure("a", base.Add(time.Minute))
	if tracker.Eligible("a", base.Add(cooldown)) {
		t.Fatal("refreshed failure must extend the cooldown")
	}

	// A single success fully resets state.
	tracker.RecordSuccess("a")
	if !tracker.Eligible("a", base.Add(time.Minute)) {
		t.Fatal("provider must be eligible immediately after a success")
	}
}

func TestCircuitTrackerIsolatesProviders(t *testing.T) {
	tracker := NewCircuitTracker(300 * time.Second)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tracker.RecordFailure("a", base)
	if !tracker.Eligible("b", base) {
		t.Fatal("failure of one provider must not affect another")
	}
}
