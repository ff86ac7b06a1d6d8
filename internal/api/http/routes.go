package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Pangu-Immortal/cyberweather-core/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		req, err := parseWeatherQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := service.FetchWeather(c.Context(), req.toQuery())
		if err != nil {
			var agg *weather.AggregateError
			if errors.As(err, &agg) {
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
					"error":    true,
					"category": weather.Classify(err),
					"message":  agg.Error(),
				})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/providers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"providers": service.Providers(),
		})
	})
}

// weatherQuery holds query parameters for a weather request.
type weatherQuery struct {
	Lat  float64 `validate:"gte=-90,lte=90"`
	Lon  float64 `validate:"gte=-180,lte=180"`
	Name string  `validate:"required"`
}

func (w weatherQuery) toQuery() weather.Query {
	return weather.Query{
		Coordinate:  weather.Coordinate{Lat: w.Lat, Lon: w.Lon},
		DisplayName: w.Name,
	}
}

func parseWeatherQuery(c *fiber.Ctx) (weatherQuery, error) {
	var q weatherQuery

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return q, errors.New("invalid lat; want decimal degrees")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return q, errors.New("invalid lon; want decimal degrees")
	}

	q.Lat = lat
	q.Lon = lon
	q.Name = c.Query("name")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}
