package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
)

// Nominal fallbacks for optional fields providers may omit.
const (
	defaultVisibilityKm = 10.0
	defaultUVIndex      = 0.0
)

// hourlyWindow is the fixed horizon of normalized hourly entries.
const hourlyWindow = 48

// getJSON issues a single GET and decodes the JSON body into out, tagging
// failures with the shared error taxonomy. One attempt only; cooldown
// handling lives in the orchestrator, so no retries or backoff happen here.
func getJSON(ctx context.Context, client *http.Client, provider, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &weather.ProviderError{Provider: provider, Kind: weather.KindRequest, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return &weather.ProviderError{Provider: provider, Kind: weather.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &weather.ProviderError{
			Provider:   provider,
			Kind:       weather.KindProtocol,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &weather.ProviderError{Provider: provider, Kind: weather.KindSchema, Err: err}
	}
	return nil
}

// iconCodes translates free-text icon identifiers into the shared numeric
// weather-code space. Unrecognized identifiers fall through to clear sky.
var iconCodes = map[string]weather.WeatherCode{
	"clear-day":           weather.CodeClear,
	"clear-night":         weather.CodeClear,
	"partly-cloudy-day":   weather.CodePartlyCloudy,
	"partly-cloudy-night": weather.CodePartlyCloudy,
	"cloudy":              weather.CodeOvercast,
	"wind":                weather.CodeClear,
	"fog":                 weather.CodeFog,
	"rain":                weather.CodeRain,
	"showers-day":         weather.CodeRainShowers,
	"showers-night":       weather.CodeRainShowers,
	"thunder":             weather.CodeThunderstorm,
	"thunder-rain":        weather.CodeThunderstorm,
	"thunder-showers-day": weather.CodeThunderstorm,
	"snow":                weather.CodeSnow,
	"snow-showers-day":    weather.CodeSnowShowers,
	"snow-showers-night":  weather.CodeSnowShowers,
	"sleet":               weather.CodeSnow,
}

func codeFromIcon(icon string) weather.WeatherCode {
	if code, ok := iconCodes[icon]; ok {
		return code
	}
	return weather.CodeClear
}

// isNightIcon reports whether an icon identifier marks night-time conditions.
func isNightIcon(icon string) bool {
	return strings.HasSuffix(icon, "-night")
}

// alignHourly finds the index in a flat multi-day hourly timestamp array
// matching the current date and hour. Timestamps are ISO-8601-like strings
// ("2026-08-31T14:00"); matching is by date prefix plus hour-of-day. When no
// index matches, the window starts at 0.
func alignHourly(times []string, now func() (date string, hour int)) int {
	date, hour := now()
	for i, ts := range times {
		if !strings.HasPrefix(ts, date) {
			continue
		}
		if len(ts) >= 13 {
			var h int
			if _, err := fmt.Sscanf(ts[11:13], "%d", &h); err == nil && h == hour {
				return i
			}
		}
	}
	return 0
}

// clampWindow bounds [start, start+hourlyWindow) to the array length.
func clampWindow(start, length int) (int, int) {
	if start < 0 || start >= length {
		start = 0
	}
	end := start + hourlyWindow
	if end > length {
		end = length
	}
	return start, end
}
