package weather

import (
	"fmt"
	"time"
)

// WeatherCode is the provider-independent condition code shared by all
// normalized data. The numeric space follows the WMO interpretation codes.
type WeatherCode int

const (
	CodeClear        WeatherCode = 0
	CodePartlyCloudy WeatherCode = 2
	CodeOvercast     WeatherCode = 3
	CodeFog          WeatherCode = 45
	CodeDrizzle      WeatherCode = 51
	CodeRain         WeatherCode = 61
	CodeSnow         WeatherCode = 71
	CodeRainShowers  WeatherCode = 80
	CodeSnowShowers  WeatherCode = 85
	CodeThunderstorm WeatherCode = 95
)

// Coordinate is a position in floating-point degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GridKey rounds the coordinate to a two-decimal-degree grid (roughly 1 km)
// so that near-identical requests share a cache entry.
func (c Coordinate) GridKey() string {
	return fmt.Sprintf("%.2f,%.2f", c.Lat, c.Lon)
}

// Query identifies what the caller wants weather for. DisplayName is the
// place name supplied by the caller; it is never derived inside this layer.
type Query struct {
	Coordinate
	DisplayName string `json:"displayName"`
}

// Location describes where a Snapshot applies.
type Location struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
}

// Current holds present-moment conditions.
type Current struct {
	Time          time.Time   `json:"time"`
	TemperatureC  float64     `json:"temperatureC"`
	ApparentC     float64     `json:"apparentC"`
	HumidityPct   float64     `json:"humidityPercent"`
	Code          WeatherCode `json:"weatherCode"`
	WindSpeedKmh  float64     `json:"windSpeedKmh"`
	WindDirection float64     `json:"windDirectionDeg"`
	PressureHpa   float64     `json:"pressureHpa"`
	UVIndex       float64     `json:"uvIndex"`
	VisibilityKm  float64     `json:"visibilityKm"`
	IsDay         bool        `json:"isDay"`
}

// HourlyPoint is one normalized forecast hour.
type HourlyPoint struct {
	Time          time.Time   `json:"time"`
	TemperatureC  float64     `json:"temperatureC"`
	ApparentC     float64     `json:"apparentC"`
	HumidityPct   float64     `json:"humidityPercent"`
	PrecipProbPct float64     `json:"precipProbPercent"`
	PrecipMm      float64     `json:"precipMm"`
	Code          WeatherCode `json:"weatherCode"`
	WindSpeedKmh  float64     `json:"windSpeedKmh"`
	WindDirection float64     `json:"windDirectionDeg"`
	UVIndex       float64     `json:"uvIndex"`
	VisibilityKm  float64     `json:"visibilityKm"`
	IsDay         bool        `json:"isDay"`
}

// DailyPoint is one normalized forecast day.
type DailyPoint struct {
	Date          time.Time   `json:"date"`
	Code          WeatherCode `json:"weatherCode"`
	TempMinC      float64     `json:"tempMinC"`
	TempMaxC      float64     `json:"tempMaxC"`
	ApparentMinC  float64     `json:"apparentMinC"`
	ApparentMaxC  float64     `json:"apparentMaxC"`
	Sunrise       time.Time   `json:"sunrise"`
	Sunset        time.Time   `json:"sunset"`
	UVIndexMax    float64     `json:"uvIndexMax"`
	PrecipSumMm   float64     `json:"precipSumMm"`
	PrecipProbPct float64     `json:"precipProbPercent"`
	WindSpeedKmh  float64     `json:"windSpeedMaxKmh"`
	WindDirection float64     `json:"windDirectionDominantDeg"`
}

// Snapshot is the single normalized weather view exposed to callers.
// Hourly and Daily, when non-empty, are sorted strictly ascending by time
// with no duplicate timestamps.
type Snapshot struct {
	Location    Location      `json:"location"`
	Current     Current       `json:"current"`
	Hourly      []HourlyPoint `json:"hourly"`
	Daily       []DailyPoint  `json:"daily"`
	LastUpdated time.Time     `json:"lastUpdated"` // always UTC
}
