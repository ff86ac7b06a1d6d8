package weather_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Pangu-Immortal/cyberweather-core/internal/store"
	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
)

const (
	testTTL      = 600 * time.Second
	testCooldown = 300 * time.Second
)

// fakeProvider is a scripted provider for orchestration tests.
type fakeProvider struct {
	name     string
	priority int
	err      error
	calls    int
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Priority() int { return p.priority }

func (p *fakeProvider) Fetch(_ context.Context, q weather.Query) (weather.Snapshot, error) {
	p.calls++
	if p.err != nil {
		return weather.Snapshot{}, p.err
	}
	return weather.Snapshot{
		Location: weather.Location{Name: q.DisplayName, Lat: q.Lat, Lon: q.Lon},
		Current:  weather.Current{TemperatureC: float64(p.priority) * 10},
	}, nil
}

func newTestService(clock clockwork.Clock, provs ...weather.Provider) *weather.Service {
	cache := store.NewSnapshotCache(testTTL, 0)
	circuit := weather.NewCircuitTracker(testCooldown)
	return weather.NewService(cache, circuit, provs, clock, nil)
}

func testQuery() weather.Query {
	return weather.Query{
		Coordinate:  weather.Coordinate{Lat: 39.9042, Lon: 116.4074},
		DisplayName: "Beijing",
	}
}

func TestCacheHitServesWithoutProviderCall(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1}
	svc := newTestService(clock, a)

	first, err := svc.FetchWeather(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", a.calls)
	}

	// A near-identical coordinate rounds to the same grid cell.
	nearby := testQuery()
	nearby.Lat += 0.001
	clock.Advance(599 * time.Second)

	second, err := svc.FetchWeather(context.Background(), nearby)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 {
		t.Fatalf("expected cache hit without provider call, got %d calls", a.calls)
	}
	if second.Current.TemperatureC != first.Current.TemperatureC {
		t.Fatalf("cache returned a different snapshot")
	}
}

func TestCacheExpiryTriggersRefetch(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1}
	svc := newTestService(clock, a)

	if _, err := svc.FetchWeather(context.Background(), testQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.Advance(testTTL)

	if _, err := svc.FetchWeather(context.Background(), testQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 2 {
		t.Fatalf("expected a fresh provider attempt after TTL, got %d calls", a.calls)
	}
}

func TestPriorityOrderFirstSuccessWins(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1}
	b := &fakeProvider{name: "b", priority: 2}
	// Register out of order; the service must sort by priority.
	svc := newTestService(clock, b, a)

	snap, err := svc.FetchWeather(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Current.TemperatureC != 10 {
		t.Fatalf("expected provider a's snapshot, got temperature %v", snap.Current.TemperatureC)
	}
	if b.calls != 0 {
		t.Fatalf("provider b should not have been called, got %d calls", b.calls)
	}
}

func TestFailoverMarksFailedProviderIneligible(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1, err: errors.New("boom")}
	b := &fakeProvider{name: "b", priority: 2}
	svc := newTestService(clock, a, b)

	snap, err := svc.FetchWeather(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Current.TemperatureC != 20 {
		t.Fatalf("expected provider b's snapshot, got temperature %v", snap.Current.TemperatureC)
	}

	// A different grid cell within the cooldown window: a must be skipped
	// without an attempt, going straight to b.
	other := weather.Query{Coordinate: weather.Coordinate{Lat: 48.85, Lon: 2.35}, DisplayName: "Paris"}
	clock.Advance(100 * time.Second)

	if _, err := svc.FetchWeather(context.Background(), other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 {
		t.Fatalf("provider a should have been skipped during cooldown, got %d calls", a.calls)
	}
	if b.calls != 2 {
		t.Fatalf("expected provider b to serve the second call, got %d calls", b.calls)
	}
}

func TestCooldownExpiryRestoresPriority(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1, err: errors.New("boom")}
	b := &fakeProvider{name: "b", priority: 2}
	svc := newTestService(clock, a, b)

	if _, err := svc.FetchWeather(context.Background(), testQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Past the cooldown, a is eligible again and tried first.
	a.err = nil
	clock.Advance(testCooldown)
	other := weather.Query{Coordinate: weather.Coordinate{Lat: 48.85, Lon: 2.35}, DisplayName: "Paris"}

	snap, err := svc.FetchWeather(context.Background(), other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Current.TemperatureC != 10 {
		t.Fatalf("expected provider a's snapshot after cooldown, got temperature %v", snap.Current.TemperatureC)
	}
	if a.calls != 2 {
		t.Fatalf("expected provider a to be retried after cooldown, got %d calls", a.calls)
	}
}

func TestExhaustionReturnsAggregateError(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1, err: errors.New("a down")}
	b := &fakeProvider{name: "b", priority: 2, err: errors.New("b down")}
	svc := newTestService(clock, a, b)

	_, err := svc.FetchWeather(context.Background(), testQuery())
	var agg *weather.AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	if len(agg.Attempts) != 2 {
		t.Fatalf("expected 2 recorded attempts, got %d", len(agg.Attempts))
	}
	for _, name := range []string{"a", "b"} {
		if _, ok := agg.Attempts[name]; !ok {
			t.Errorf("expected an error recorded for provider %q", name)
		}
	}
}

func TestExhaustionWithAllProvidersInCooldown(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1, err: errors.New("a down")}
	svc := newTestService(clock, a)

	if _, err := svc.FetchWeather(context.Background(), testQuery()); err == nil {
		t.Fatal("expected first call to fail")
	}

	// Within the cooldown no provider is attempted; the aggregate error
	// carries no attempts.
	other := weather.Query{Coordinate: weather.Coordinate{Lat: 48.85, Lon: 2.35}, DisplayName: "Paris"}
	clock.Advance(10 * time.Second)

	_, err := svc.FetchWeather(context.Background(), other)
	var agg *weather.AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("expected *AggregateError, got %v", err)
	}
	if len(agg.Attempts) != 0 {
		t.Fatalf("expected no attempts while in cooldown, got %d", len(agg.Attempts))
	}
	if a.calls != 1 {
		t.Fatalf("provider a should not have been retried, got %d calls", a.calls)
	}
}

func TestConcurrentCallersShareState(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	a := &fakeProvider{name: "a", priority: 1}
	svc := newTestService(clock, a)

	// Warm the cache, then hammer it from many goroutines; the race
	// detector guards the shared cache and circuit tables.
	if _, err := svc.FetchWeather(context.Background(), testQuery()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 16)
	for i := 0; i < 16; i++ {
		i := i
		go func() {
			q := weather.Query{
				Coordinate:  weather.Coordinate{Lat: float64(i), Lon: float64(i)},
				DisplayName: fmt.Sprintf("place-%d", i),
			}
			_, err := svc.FetchWeather(context.Background(), q)
			done <- err
		}()
	}
	for i := 0; i < 16; i++ {
		if err := <-done; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
