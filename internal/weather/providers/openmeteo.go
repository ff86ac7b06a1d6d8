package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
	"github.com/jonboulle/clockwork"
)

const (
	openMeteoTimeLayout = "2006-01-02T15:04"
	openMeteoDateLayout = "2006-01-02"
)

// OpenMeteoProvider is the primary backend. Open-Meteo answers a single GET
// with parallel arrays keyed by field name under hourly/daily plus one
// current object, and needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	clock   clockwork.Clock
}

func NewOpenMeteoProvider(client *http.Client, clock clockwork.Clock) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "open-meteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  client,
		clock:   clock,
	}
}

func (p *OpenMeteoProvider) Name() string { return p.name }

func (p *OpenMeteoProvider) Priority() int { return 1 }

var (
	openMeteoCurrentFields = []string{
		"temperature_2m", "apparent_temperature", "relative_humidity_2m",
		"weather_code", "wind_speed_10m", "wind_direction_10m",
		"surface_pressure", "uv_index", "visibility", "is_day",
	}
	openMeteoHourlyFields = []string{
		"temperature_2m", "apparent_temperature", "relative_humidity_2m",
		"precipitation_probability", "precipitation", "weather_code",
		"wind_speed_10m", "wind_direction_10m", "uv_index", "visibility", "is_day",
	}
	openMeteoDailyFields = []string{
		"weather_code", "temperature_2m_max", "temperature_2m_min",
		"apparent_temperature_max", "apparent_temperature_min",
		"sunrise", "sunset", "uv_index_max", "precipitation_sum",
		"precipitation_probability_max", "wind_speed_10m_max",
		"wind_direction_10m_dominant",
	}
)

type openMeteoResponse struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Apparent      float64 `json:"apparent_temperature"`
		Humidity      float64 `json:"relative_humidity_2m"`
		WeatherCode   int     `json:"weather_code"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindDirection float64 `json:"wind_direction_10m"`
		Pressure      float64 `json:"surface_pressure"`
		UVIndex       float64 `json:"uv_index"`
		VisibilityM   float64 `json:"visibility"`
		IsDay         int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		Apparent      []float64 `json:"apparent_temperature"`
		Humidity      []float64 `json:"relative_humidity_2m"`
		PrecipProb    []float64 `json:"precipitation_probability"`
		Precipitation []float64 `json:"precipitation"`
		WeatherCode   []int     `json:"weather_code"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
		WindDirection []float64 `json:"wind_direction_10m"`
		UVIndex       []float64 `json:"uv_index"`
		VisibilityM   []float64 `json:"visibility"`
		IsDay         []int     `json:"is_day"`
	} `json:"hourly"`
	Daily struct {
		Time          []string  `json:"time"`
		WeatherCode   []int     `json:"weather_code"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		ApparentMax   []float64 `json:"apparent_temperature_max"`
		ApparentMin   []float64 `json:"apparent_temperature_min"`
		Sunrise       []string  `json:"sunrise"`
		Sunset        []string  `json:"sunset"`
		UVIndexMax    []float64 `json:"uv_index_max"`
		PrecipSum     []float64 `json:"precipitation_sum"`
		PrecipProbMax []float64 `json:"precipitation_probability_max"`
		WindSpeedMax  []float64 `json:"wind_speed_10m_max"`
		WindDirection []float64 `json:"wind_direction_10m_dominant"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, q weather.Query) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", q.Lat))
	values.Set("longitude", fmt.Sprintf("%.4f", q.Lon))
	values.Set("timezone", "auto")
	values.Set("forecast_days", "16")
	values.Set("current", strings.Join(openMeteoCurrentFields, ","))
	values.Set("hourly", strings.Join(openMeteoHourlyFields, ","))
	values.Set("daily", strings.Join(openMeteoDailyFields, ","))

	var payload openMeteoResponse
	if err := getJSON(ctx, p.client, p.name, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Snapshot{}, err
	}

	return p.normalize(&payload, q), nil
}

func (p *OpenMeteoProvider) normalize(payload *openMeteoResponse, q weather.Query) weather.Snapshot {
	now := p.clock.Now()

	currentTime, err := time.Parse(openMeteoTimeLayout, payload.Current.Time)
	if err != nil {
		currentTime = now.UTC()
	}

	snap := weather.Snapshot{
		Location: weather.Location{
			Name:     q.DisplayName,
			Lat:      q.Lat,
			Lon:      q.Lon,
			Timezone: payload.Timezone,
		},
		Current: weather.Current{
			Time:          currentTime,
			TemperatureC:  payload.Current.Temperature,
			ApparentC:     payload.Current.Apparent,
			HumidityPct:   payload.Current.Humidity,
			Code:          weather.WeatherCode(payload.Current.WeatherCode),
			WindSpeedKmh:  payload.Current.WindSpeed,
			WindDirection: payload.Current.WindDirection,
			PressureHpa:   payload.Current.Pressure,
			UVIndex:       payload.Current.UVIndex,
			VisibilityKm:  visibilityKmFromMeters(payload.Current.VisibilityM),
			IsDay:         payload.Current.IsDay == 1,
		},
		LastUpdated: now.UTC(),
	}

	// The hourly arrays span all 16 requested days; slice the window that
	// starts at the current hour of the current day.
	start := alignHourly(payload.Hourly.Time, func() (string, int) {
		return now.Format(openMeteoDateLayout), now.Hour()
	})
	start, end := clampWindow(start, len(payload.Hourly.Time))

	for i := start; i < end; i++ {
		ts, err := time.Parse(openMeteoTimeLayout, payload.Hourly.Time[i])
		if err != nil {
			continue
		}
		snap.Hourly = append(snap.Hourly, weather.HourlyPoint{
			Time:          ts,
			TemperatureC:  floatAt(payload.Hourly.Temperature, i),
			ApparentC:     floatAt(payload.Hourly.Apparent, i),
			HumidityPct:   floatAt(payload.Hourly.Humidity, i),
			PrecipProbPct: floatAt(payload.Hourly.PrecipProb, i),
			PrecipMm:      floatAt(payload.Hourly.Precipitation, i),
			Code:          weather.WeatherCode(intAt(payload.Hourly.WeatherCode, i)),
			WindSpeedKmh:  floatAt(payload.Hourly.WindSpeed, i),
			WindDirection: floatAt(payload.Hourly.WindDirection, i),
			UVIndex:       floatAt(payload.Hourly.UVIndex, i),
			VisibilityKm:  visibilityKmFromMeters(floatAt(payload.Hourly.VisibilityM, i)),
			IsDay:         intAt(payload.Hourly.IsDay, i) == 1,
		})
	}

	for i, date := range payload.Daily.Time {
		day, err := time.Parse(openMeteoDateLayout, date)
		if err != nil {
			continue
		}
		sunrise, _ := time.Parse(openMeteoTimeLayout, stringAt(payload.Daily.Sunrise, i))
		sunset, _ := time.Parse(openMeteoTimeLayout, stringAt(payload.Daily.Sunset, i))

		snap.Daily = append(snap.Daily, weather.DailyPoint{
			Date:          day,
			Code:          weather.WeatherCode(intAt(payload.Daily.WeatherCode, i)),
			TempMinC:      floatAt(payload.Daily.TempMin, i),
			TempMaxC:      floatAt(payload.Daily.TempMax, i),
			ApparentMinC:  floatAt(payload.Daily.ApparentMin, i),
			ApparentMaxC:  floatAt(payload.Daily.ApparentMax, i),
			Sunrise:       sunrise,
			Sunset:        sunset,
			UVIndexMax:    floatAt(payload.Daily.UVIndexMax, i),
			PrecipSumMm:   floatAt(payload.Daily.PrecipSum, i),
			PrecipProbPct: floatAt(payload.Daily.PrecipProbMax, i),
			WindSpeedKmh:  floatAt(payload.Daily.WindSpeedMax, i),
			WindDirection: floatAt(payload.Daily.WindDirection, i),
		})
	}

	return snap
}

// visibilityKmFromMeters converts Open-Meteo's meter visibility to the
// shared kilometer unit, applying the nominal fallback when absent.
func visibilityKmFromMeters(meters float64) float64 {
	if meters <= 0 {
		return defaultVisibilityKm
	}
	return meters / 1000
}

// Parallel arrays can be ragged when the provider omits a field; missing
// positions read as zero values.
func floatAt(arr []float64, i int) float64 {
	if i < 0 || i >= len(arr) {
		return 0
	}
	return arr[i]
}

func intAt(arr []int, i int) int {
	if i < 0 || i >= len(arr) {
		return 0
	}
	return arr[i]
}

func stringAt(arr []string, i int) string {
	if i < 0 || i >= len(arr) {
		return ""
	}
	return arr[i]
}
