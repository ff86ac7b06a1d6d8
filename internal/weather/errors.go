package weather

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind tags a provider-level failure by where it occurred.
type ErrorKind int

const (
	// KindRequest means the outbound request could not be constructed.
	KindRequest ErrorKind = iota
	// KindTransport means the provider was unreachable or timed out.
	KindTransport
	// KindProtocol means the provider answered with a non-success status.
	KindProtocol
	// KindSchema means the body did not decode into the expected shape.
	KindSchema
)

func (k ErrorKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// ProviderError wraps a single failed provider attempt.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	// StatusCode is set for KindProtocol errors.
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AggregateError is returned when every eligible provider failed during one
// orchestration round. Attempts maps provider label to the error it raised;
// providers skipped due to cooldown are not represented.
type AggregateError struct {
	Attempts map[string]error
}

func (e *AggregateError) Error() string {
	if len(e.Attempts) == 0 {
		return "all providers in cooldown, none attempted"
	}
	names := make([]string, 0, len(e.Attempts))
	for name := range e.Attempts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Attempts[name]))
	}
	return "all providers failed: " + strings.Join(parts, "; ")
}

// Category is the user-facing classification of a failed fetch, consumed by
// the presentation layer.
type Category string

const (
	CategoryNetwork     Category = "network"
	CategoryServer      Category = "server"
	CategoryRateLimited Category = "rate-limited"
	CategoryUnknown     Category = "unknown"
)

// Classify maps a fetch error onto a presentation category by inspecting the
// typed provider errors rather than matching keywords in error text. The
// dominant kind across attempted providers wins; rate limiting takes
// precedence since it is actionable.
func Classify(err error) Category {
	var agg *AggregateError
	if !errors.As(err, &agg) {
		return CategoryUnknown
	}

	var transport, server int
	for _, attempt := range agg.Attempts {
		var pe *ProviderError
		if !errors.As(attempt, &pe) {
			continue
		}
		switch {
		case pe.Kind == KindProtocol && pe.StatusCode == 429:
			return CategoryRateLimited
		case pe.Kind == KindTransport:
			transport++
		case pe.Kind == KindProtocol, pe.Kind == KindSchema:
			server++
		}
	}

	switch {
	case transport > 0 && server == 0:
		return CategoryNetwork
	case server > 0:
		return CategoryServer
	default:
		return CategoryUnknown
	}
}
