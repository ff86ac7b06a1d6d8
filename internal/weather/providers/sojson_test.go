package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
)

const sojsonFixture = `{
	"status": 200,
	"cityInfo": {"city": "北京市"},
	"data": {
		"wendu": "26",
		"shidu": "60%",
		"forecast": [
			{"ymd": "2026-08-31", "sunrise": "05:42", "sunset": "18:50", "high": "高温 28℃", "low": "低温 19℃", "fx": "东南风", "fl": "3-4级", "type": "晴"},
			{"ymd": "2026-09-01", "sunrise": "05:43", "sunset": "18:49", "high": "高温 23℃", "low": "低温 17℃", "fx": "南风", "fl": "2级", "type": "雷阵雨"},
			{"ymd": "2026-09-02", "sunrise": "05:44", "sunset": "18:47", "high": "高温 8℃", "low": "低温 -5℃", "fx": "北风", "fl": "5级", "type": "雨夹雪"}
		]
	}
}`

func newSojsonAgainst(t *testing.T, handler http.HandlerFunc) (*SojsonProvider, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	p := NewSojsonProvider(srv.Client(), fixtureClock())
	p.baseURL = srv.URL
	return p, srv.Close
}

func TestSojsonNormalization(t *testing.T) {
	p, closeSrv := newSojsonAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("city") != "北京" {
			t.Errorf("expected city name in query, got %q", r.URL.Query().Get("city"))
		}
		w.Write([]byte(sojsonFixture))
	})
	defer closeSrv()

	snap, err := p.Fetch(context.Background(), weather.Query{
		Coordinate:  weather.Coordinate{Lat: 39.9042, Lon: 116.4074},
		DisplayName: "北京",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Current.TemperatureC != 26 {
		t.Errorf("current temperature = %v, want 26 (from wendu)", snap.Current.TemperatureC)
	}
	if snap.Current.HumidityPct != 60 {
		t.Errorf("current humidity = %v, want 60", snap.Current.HumidityPct)
	}
	if snap.Current.Code != weather.CodeClear {
		t.Errorf("current code = %d, want %d", snap.Current.Code, weather.CodeClear)
	}
	// No UV or visibility on this provider; nominal fallbacks apply.
	if snap.Current.UVIndex != defaultUVIndex {
		t.Errorf("uv index = %v, want fallback %v", snap.Current.UVIndex, defaultUVIndex)
	}
	if snap.Current.VisibilityKm != defaultVisibilityKm {
		t.Errorf("visibility = %v, want fallback %v", snap.Current.VisibilityKm, defaultVisibilityKm)
	}
	// 14:30 is between 05:42 and 18:50.
	if !snap.Current.IsDay {
		t.Error("expected day flag set")
	}

	if len(snap.Hourly) != 0 {
		t.Fatalf("provider has no hourly data, got %d entries", len(snap.Hourly))
	}

	if len(snap.Daily) != 3 {
		t.Fatalf("expected 3 daily entries, got %d", len(snap.Daily))
	}
	if snap.Daily[0].TempMaxC != 28 || snap.Daily[0].TempMinC != 19 {
		t.Errorf("daily[0] max/min = %v/%v, want 28/19", snap.Daily[0].TempMaxC, snap.Daily[0].TempMinC)
	}
	if snap.Daily[1].Code != weather.CodeThunderstorm {
		t.Errorf("daily[1] code = %d, want %d", snap.Daily[1].Code, weather.CodeThunderstorm)
	}
	if snap.Daily[2].TempMinC != -5 {
		t.Errorf("daily[2] min = %v, want -5", snap.Daily[2].TempMinC)
	}
	if snap.Daily[0].WindDirection != 135 {
		t.Errorf("daily[0] wind direction = %v, want 135 (东南风)", snap.Daily[0].WindDirection)
	}

	assertAscending(t, snap)
}

func TestSojsonRejectsEmptyForecast(t *testing.T) {
	p, closeSrv := newSojsonAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 200, "data": {"wendu": "20", "forecast": []}}`))
	})
	defer closeSrv()

	_, err := p.Fetch(context.Background(), weather.Query{DisplayName: "北京"})
	var pe *weather.ProviderError
	if !errors.As(err, &pe) || pe.Kind != weather.KindSchema {
		t.Fatalf("expected schema error for empty forecast, got %v", err)
	}
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"高温 28℃", 28},
		{"低温 19℃", 19},
		{"低温 -5℃", -5},
		{"60%", 60},
		{"", 0},
		{"多云", 0},
	}
	for _, tt := range tests {
		if got := extractNumber(tt.in); got != tt.want {
			t.Errorf("extractNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCodeFromChineseType(t *testing.T) {
	tests := []struct {
		in   string
		want weather.WeatherCode
	}{
		{"晴", weather.CodeClear},
		{"多云", weather.CodePartlyCloudy},
		{"阴", weather.CodeOvercast},
		{"雾", weather.CodeFog},
		{"小雨", weather.CodeRain},
		{"阵雨", weather.CodeRainShowers},
		{"雷阵雨", weather.CodeThunderstorm},
		{"雷阵雨伴有冰雹", weather.CodeThunderstorm},
		{"大雪", weather.CodeSnow},
		{"阵雪", weather.CodeSnowShowers},
		{"未知现象", weather.CodeClear},
	}
	for _, tt := range tests {
		if got := codeFromChineseType(tt.in); got != tt.want {
			t.Errorf("codeFromChineseType(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWindLevelKmh(t *testing.T) {
	if got := windLevelKmh("3-4级"); got != beaufortKmh[4] {
		t.Errorf("windLevelKmh(3-4级) = %v, want %v (upper bound wins)", got, beaufortKmh[4])
	}
	if got := windLevelKmh("2级"); got != beaufortKmh[2] {
		t.Errorf("windLevelKmh(2级) = %v, want %v", got, beaufortKmh[2])
	}
	if got := windLevelKmh("微风"); got != 0 {
		t.Errorf("windLevelKmh(微风) = %v, want 0", got)
	}
}
