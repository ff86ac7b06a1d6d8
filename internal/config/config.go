package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
)

type AppConfig struct {
	VisualCrossingAPIKey string

	// CacheTTL is how long a fetched snapshot is served without a new
	// provider attempt.
	CacheTTL time.Duration

	// CircuitCooldown is how long a failed provider is suspended.
	CircuitCooldown time.Duration

	// CacheMaxEntries bounds the snapshot cache (0 = unlimited).
	CacheMaxEntries int

	HTTPTimeout time.Duration

	// RefreshInterval controls the background refresh of tracked locations.
	RefreshInterval time.Duration

	// Locations refreshed in the background (notification feed).
	Locations []weather.Query

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Info("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.VisualCrossingAPIKey = os.Getenv("VISUALCROSSING_API_KEY")

	var err error
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 600*time.Second); err != nil {
		return nil, err
	}
	if cfg.CircuitCooldown, err = getenvDuration("CIRCUIT_COOLDOWN", 300*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 256)
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := parseLocations(os.Getenv("WEATHER_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// parseLocations parses a semicolon-separated list of "lat,lon,name" triples.
func parseLocations(raw string) ([]weather.Query, error) {
	if raw == "" {
		return nil, nil
	}

	var locs []weather.Query
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ",", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid WEATHER_LOCATIONS entry %q: want lat,lon,name", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}
		locs = append(locs, weather.Query{
			Coordinate:  weather.Coordinate{Lat: lat, Lon: lon},
			DisplayName: strings.TrimSpace(parts[2]),
		})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
