package weather

import (
	"context"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Service orchestrates fetching a normalized snapshot from a prioritized set
// of providers, with a TTL result cache and per-provider failure cooldowns.
// All dependencies are injected so tests can substitute a fake clock and
// fake providers.
type Service struct {
	cache     Cache
	circuit   *CircuitTracker
	providers []Provider
	clock     clockwork.Clock
	log       *logrus.Logger
}

// NewService creates a Service. Providers are sorted by ascending priority
// once here; the fallback order is fixed for the life of the service.
func NewService(cache Cache, circuit *CircuitTracker, providers []Provider, clock clockwork.Clock, log *logrus.Logger) *Service {
	sorted := make([]Provider, len(providers))
	copy(sorted, providers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	if log == nil {
		log = logrus.New()
	}

	return &Service{
		cache:     cache,
		circuit:   circuit,
		providers: sorted,
		clock:     clock,
		log:       log,
	}
}

// FetchWeather returns a normalized snapshot for the query, serving from the
// cache when fresh and otherwise trying providers in priority order. The
// first success wins; results are never merged across providers. It fails
// with *AggregateError only when no provider could be used.
func (s *Service) FetchWeather(ctx context.Context, q Query) (Snapshot, error) {
	key := q.GridKey()
	now := s.clock.Now()

	if snap, ok := s.cache.Get(key, now); ok {
		s.log.WithFields(logrus.Fields{"key": key}).Debug("cache hit")
		return snap, nil
	}

	attempts := make(map[string]error)

	for _, p := range s.providers {
		now = s.clock.Now()
		if !s.circuit.Eligible(p.Name(), now) {
			s.log.WithFields(logrus.Fields{"provider": p.Name()}).Debug("provider in cooldown, skipping")
			continue
		}

		snap, err := p.Fetch(ctx, q)
		if err != nil {
			s.log.WithFields(logrus.Fields{"provider": p.Name(), "key": key}).WithError(err).Warn("provider fetch failed")
			attempts[p.Name()] = err
			s.circuit.RecordFailure(p.Name(), s.clock.Now())
			continue
		}

		s.circuit.RecordSuccess(p.Name())
		s.cache.Put(key, snap, p.Name(), s.clock.Now())
		s.log.WithFields(logrus.Fields{"provider": p.Name(), "key": key}).Info("snapshot fetched")
		return snap, nil
	}

	return Snapshot{}, &AggregateError{Attempts: attempts}
}

// Providers returns the fallback order, primarily for diagnostics.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}
