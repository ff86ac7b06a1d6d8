package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
	"github.com/jonboulle/clockwork"
)

// SojsonProvider is the China-region fallback. The API is keyed by city name
// rather than coordinate (the caller-supplied display name serves as the
// city), wraps everything in a data object, and encodes daily extremes as
// text like "高温 28℃" that needs numeric extraction. It carries no hourly
// data, so the normalized snapshot's hourly sequence is empty.
type SojsonProvider struct {
	name    string
	baseURL string
	client  *http.Client
	clock   clockwork.Clock
}

func NewSojsonProvider(client *http.Client, clock clockwork.Clock) *SojsonProvider {
	return &SojsonProvider{
		name:    "sojson",
		baseURL: "http://t.weather.sojson.com/api/weather/city",
		client:  client,
		clock:   clock,
	}
}

func (p *SojsonProvider) Name() string { return p.name }

func (p *SojsonProvider) Priority() int { return 3 }

type sojsonForecastDay struct {
	Ymd     string `json:"ymd"`
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
	High    string `json:"high"`
	Low     string `json:"low"`
	Fx      string `json:"fx"`
	Fl      string `json:"fl"`
	Type    string `json:"type"`
}

type sojsonResponse struct {
	Status   int `json:"status"`
	CityInfo struct {
		City string `json:"city"`
	} `json:"cityInfo"`
	Data struct {
		Wendu    string              `json:"wendu"`
		Shidu    string              `json:"shidu"`
		Forecast []sojsonForecastDay `json:"forecast"`
	} `json:"data"`
}

func (p *SojsonProvider) Fetch(ctx context.Context, q weather.Query) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("city", q.DisplayName)

	var payload sojsonResponse
	if err := getJSON(ctx, p.client, p.name, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Snapshot{}, err
	}
	if len(payload.Data.Forecast) == 0 {
		return weather.Snapshot{}, &weather.ProviderError{
			Provider: p.name,
			Kind:     weather.KindSchema,
			Err:      errNoForecast,
		}
	}

	return p.normalize(&payload, q), nil
}

func (p *SojsonProvider) normalize(payload *sojsonResponse, q weather.Query) weather.Snapshot {
	now := p.clock.Now()
	today := payload.Data.Forecast[0]

	snap := weather.Snapshot{
		Location: weather.Location{
			Name:     q.DisplayName,
			Lat:      q.Lat,
			Lon:      q.Lon,
			Timezone: "Asia/Shanghai",
		},
		LastUpdated: now.UTC(),
	}

	for _, day := range payload.Data.Forecast {
		date, err := time.Parse("2006-01-02", day.Ymd)
		if err != nil {
			continue
		}
		high := float64(extractNumber(day.High))
		low := float64(extractNumber(day.Low))

		snap.Daily = append(snap.Daily, weather.DailyPoint{
			Date:          date,
			Code:          codeFromChineseType(day.Type),
			TempMinC:      low,
			TempMaxC:      high,
			ApparentMinC:  low,
			ApparentMaxC:  high,
			Sunrise:       clockOnDate(date, day.Sunrise),
			Sunset:        clockOnDate(date, day.Sunset),
			UVIndexMax:    defaultUVIndex,
			WindSpeedKmh:  windLevelKmh(day.Fl),
			WindDirection: windDirectionDeg(day.Fx),
		})
	}

	// There is no dedicated current block beyond today's temperature and
	// humidity; the rest is synthesized from today's forecast entry.
	temp := float64(extractNumber(today.High)+extractNumber(today.Low)) / 2
	if v, err := strconv.ParseFloat(payload.Data.Wendu, 64); err == nil {
		temp = v
	}
	sunrise := clockOnDate(dateOnly(now), today.Sunrise)
	sunset := clockOnDate(dateOnly(now), today.Sunset)

	snap.Current = weather.Current{
		Time:          now.UTC(),
		TemperatureC:  temp,
		ApparentC:     temp,
		HumidityPct:   float64(extractNumber(payload.Data.Shidu)),
		Code:          codeFromChineseType(today.Type),
		WindSpeedKmh:  windLevelKmh(today.Fl),
		WindDirection: windDirectionDeg(today.Fx),
		UVIndex:       defaultUVIndex,
		VisibilityKm:  defaultVisibilityKm,
		IsDay:         !now.Before(sunrise) && now.Before(sunset),
	}

	return snap
}

var errNoForecast = errors.New("response contains no forecast days")

// extractNumber pulls the first signed integer out of text such as
// "高温 28℃" or "低温 -5℃".
func extractNumber(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			start = i
			break
		}
	}
	if start == -1 {
		return 0
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0
	}
	if start > 0 && s[start-1] == '-' {
		return -n
	}
	return n
}

// chineseTypeCodes maps forecast type text to the shared code space.
// Matching is by substring so compound descriptions like 雷阵雨伴有冰雹
// still resolve; more specific phenomena are checked first.
var chineseTypeCodes = []struct {
	substr string
	code   weather.WeatherCode
}{
	{"雷阵雨", weather.CodeThunderstorm},
	{"阵雪", weather.CodeSnowShowers},
	{"阵雨", weather.CodeRainShowers},
	{"毛毛雨", weather.CodeDrizzle},
	{"雨夹雪", weather.CodeSnow},
	{"雪", weather.CodeSnow},
	{"雨", weather.CodeRain},
	{"雾", weather.CodeFog},
	{"霾", weather.CodeFog},
	{"多云", weather.CodePartlyCloudy},
	{"阴", weather.CodeOvercast},
	{"晴", weather.CodeClear},
}

func codeFromChineseType(text string) weather.WeatherCode {
	for _, m := range chineseTypeCodes {
		if strings.Contains(text, m.substr) {
			return m.code
		}
	}
	return weather.CodeClear
}

// windLevelKmh converts a Beaufort-style level string ("3-4级") to a rough
// km/h figure, using the upper bound of the stated range.
var beaufortKmh = []float64{0, 5, 11, 19, 28, 38, 49, 61, 74, 88, 102, 117, 133}

func windLevelKmh(fl string) float64 {
	level, current := 0, 0
	for _, r := range fl {
		if r >= '0' && r <= '9' {
			current = current*10 + int(r-'0')
			continue
		}
		if current > 0 {
			level = current // the last number in "3-4级" wins
			current = 0
		}
	}
	if current > 0 {
		level = current
	}
	if level <= 0 {
		return 0
	}
	if level >= len(beaufortKmh) {
		level = len(beaufortKmh) - 1
	}
	return beaufortKmh[level]
}

// windDirectionDeg maps compass text to degrees.
var windDirections = map[string]float64{
	"北风":  0,
	"东北风": 45,
	"东风":  90,
	"东南风": 135,
	"南风":  180,
	"西南风": 225,
	"西风":  270,
	"西北风": 315,
}

func windDirectionDeg(fx string) float64 {
	if deg, ok := windDirections[fx]; ok {
		return deg
	}
	return 0
}

// clockOnDate combines a date with an "HH:MM" clock string.
func clockOnDate(date time.Time, clock string) time.Time {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return date
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
