package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
	"github.com/jonboulle/clockwork"
)

// VisualCrossingProvider is the second fallback. Visual Crossing's timeline
// API returns a currentConditions block plus a days array where each day
// carries its own nested hours array; conditions come as icon strings.
type VisualCrossingProvider struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	clock   clockwork.Clock
}

func NewVisualCrossingProvider(client *http.Client, apiKey string, clock clockwork.Clock) *VisualCrossingProvider {
	return &VisualCrossingProvider{
		name:    "visual-crossing",
		baseURL: "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline",
		apiKey:  apiKey,
		client:  client,
		clock:   clock,
	}
}

func (p *VisualCrossingProvider) Name() string { return p.name }

func (p *VisualCrossingProvider) Priority() int { return 2 }

type visualCrossingConditions struct {
	Datetime      string  `json:"datetime"`
	DatetimeEpoch int64   `json:"datetimeEpoch"`
	Temp          float64 `json:"temp"`
	FeelsLike     float64 `json:"feelslike"`
	Humidity      float64 `json:"humidity"`
	PrecipProb    float64 `json:"precipprob"`
	Precip        float64 `json:"precip"`
	WindSpeed     float64 `json:"windspeed"`
	WindDir       float64 `json:"winddir"`
	Pressure      float64 `json:"pressure"`
	UVIndex       float64 `json:"uvindex"`
	Visibility    float64 `json:"visibility"`
	Icon          string  `json:"icon"`
}

type visualCrossingDay struct {
	visualCrossingConditions
	TempMax      float64                    `json:"tempmax"`
	TempMin      float64                    `json:"tempmin"`
	FeelsLikeMax float64                    `json:"feelslikemax"`
	FeelsLikeMin float64                    `json:"feelslikemin"`
	SunriseEpoch int64                      `json:"sunriseEpoch"`
	SunsetEpoch  int64                      `json:"sunsetEpoch"`
	Hours        []visualCrossingConditions `json:"hours"`
}

type visualCrossingResponse struct {
	Timezone          string                    `json:"timezone"`
	CurrentConditions *visualCrossingConditions `json:"currentConditions"`
	Days              []visualCrossingDay       `json:"days"`
}

func (p *VisualCrossingProvider) Fetch(ctx context.Context, q weather.Query) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, &weather.ProviderError{
			Provider: p.name,
			Kind:     weather.KindRequest,
			Err:      fmt.Errorf("api key is not configured"),
		}
	}

	values := url.Values{}
	values.Set("unitGroup", "metric")
	values.Set("key", p.apiKey)
	values.Set("include", "days,hours,current")
	values.Set("contentType", "json")

	endpoint := fmt.Sprintf("%s/%.4f,%.4f?%s", p.baseURL, q.Lat, q.Lon, values.Encode())

	var payload visualCrossingResponse
	if err := getJSON(ctx, p.client, p.name, endpoint, &payload); err != nil {
		return weather.Snapshot{}, err
	}
	if len(payload.Days) == 0 {
		return weather.Snapshot{}, &weather.ProviderError{
			Provider: p.name,
			Kind:     weather.KindSchema,
			Err:      fmt.Errorf("response contains no days"),
		}
	}

	return p.normalize(&payload, q), nil
}

func (p *VisualCrossingProvider) normalize(payload *visualCrossingResponse, q weather.Query) weather.Snapshot {
	now := p.clock.Now()

	snap := weather.Snapshot{
		Location: weather.Location{
			Name:     q.DisplayName,
			Lat:      q.Lat,
			Lon:      q.Lon,
			Timezone: payload.Timezone,
		},
		Current:     p.normalizeCurrent(payload, now),
		LastUpdated: now.UTC(),
	}

	// Flatten nested per-day hour arrays into one window starting at the
	// current hour.
	type flatHour struct {
		stamp string
		day   *visualCrossingDay
		hour  *visualCrossingConditions
	}
	var flat []flatHour
	for i := range payload.Days {
		day := &payload.Days[i]
		for j := range day.Hours {
			h := &day.Hours[j]
			stamp := day.Datetime + "T" + h.Datetime
			flat = append(flat, flatHour{stamp: stamp, day: day, hour: h})
		}
	}

	stamps := make([]string, len(flat))
	for i, f := range flat {
		stamps[i] = f.stamp
	}
	start := alignHourly(stamps, func() (string, int) {
		return now.Format("2006-01-02"), now.Hour()
	})
	start, end := clampWindow(start, len(flat))

	for i := start; i < end; i++ {
		h := flat[i].hour
		day := flat[i].day
		snap.Hourly = append(snap.Hourly, weather.HourlyPoint{
			Time:          time.Unix(h.DatetimeEpoch, 0).UTC(),
			TemperatureC:  h.Temp,
			ApparentC:     h.FeelsLike,
			HumidityPct:   h.Humidity,
			PrecipProbPct: h.PrecipProb,
			PrecipMm:      h.Precip,
			Code:          codeFromIcon(h.Icon),
			WindSpeedKmh:  h.WindSpeed,
			WindDirection: h.WindDir,
			UVIndex:       h.UVIndex,
			VisibilityKm:  visibilityOrDefault(h.Visibility),
			IsDay:         h.DatetimeEpoch >= day.SunriseEpoch && h.DatetimeEpoch < day.SunsetEpoch,
		})
	}

	for i := range payload.Days {
		day := &payload.Days[i]
		date, err := time.Parse("2006-01-02", day.Datetime)
		if err != nil {
			continue
		}
		snap.Daily = append(snap.Daily, weather.DailyPoint{
			Date:          date,
			Code:          codeFromIcon(day.Icon),
			TempMinC:      day.TempMin,
			TempMaxC:      day.TempMax,
			ApparentMinC:  day.FeelsLikeMin,
			ApparentMaxC:  day.FeelsLikeMax,
			Sunrise:       time.Unix(day.SunriseEpoch, 0).UTC(),
			Sunset:        time.Unix(day.SunsetEpoch, 0).UTC(),
			UVIndexMax:    day.UVIndex,
			PrecipSumMm:   day.Precip,
			PrecipProbPct: day.PrecipProb,
			WindSpeedKmh:  day.WindSpeed,
			WindDirection: day.WindDir,
		})
	}

	return snap
}

// normalizeCurrent uses the dedicated currentConditions block when present
// and otherwise synthesizes today's conditions from the first day's
// aggregates, using the day's mean temperature as the current temperature.
func (p *VisualCrossingProvider) normalizeCurrent(payload *visualCrossingResponse, now time.Time) weather.Current {
	if cc := payload.CurrentConditions; cc != nil {
		return weather.Current{
			Time:          time.Unix(cc.DatetimeEpoch, 0).UTC(),
			TemperatureC:  cc.Temp,
			ApparentC:     cc.FeelsLike,
			HumidityPct:   cc.Humidity,
			Code:          codeFromIcon(cc.Icon),
			WindSpeedKmh:  cc.WindSpeed,
			WindDirection: cc.WindDir,
			PressureHpa:   cc.Pressure,
			UVIndex:       cc.UVIndex,
			VisibilityKm:  visibilityOrDefault(cc.Visibility),
			IsDay:         !isNightIcon(cc.Icon),
		}
	}

	day := payload.Days[0]
	return weather.Current{
		Time:          now.UTC(),
		TemperatureC:  (day.TempMax + day.TempMin) / 2,
		ApparentC:     (day.FeelsLikeMax + day.FeelsLikeMin) / 2,
		HumidityPct:   day.Humidity,
		Code:          codeFromIcon(day.Icon),
		WindSpeedKmh:  day.WindSpeed,
		WindDirection: day.WindDir,
		PressureHpa:   day.Pressure,
		UVIndex:       day.UVIndex,
		VisibilityKm:  visibilityOrDefault(day.Visibility),
		IsDay:         now.Unix() >= day.SunriseEpoch && now.Unix() < day.SunsetEpoch,
	}
}

func visibilityOrDefault(km float64) float64 {
	if km <= 0 {
		return defaultVisibilityKm
	}
	return km
}
