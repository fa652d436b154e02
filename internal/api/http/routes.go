package httpapi

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dkotenko/weather-aggregation-api/internal/weather"
)

var validate = validator.New()

// Service is the slice of the aggregation pipeline the HTTP layer consumes.
type Service interface {
	Current(ctx context.Context, city string) (*weather.AggregateResult, error)
	Forecast(ctx context.Context, city string) (*weather.AggregateResult, error)
	History(ctx context.Context, city string) (*weather.HistoryResult, error)
	Stats(ctx context.Context) (weather.Stats, error)
}

// ErrorHandler renders every handler error as a short {message} body.
// Internal detail never crosses the boundary.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred."
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}

// RegisterRoutes wires the weather handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service) {
	group := app.Group("/weather")

	group.Get("/current/:city", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		result, err := service.Current(c.Context(), city)
		if err != nil {
			return mapError(err, "Could not retrieve weather data from any source.")
		}
		return c.JSON(result)
	})

	group.Get("/forecast/:city", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		result, err := service.Forecast(c.Context(), city)
		if err != nil {
			return mapError(err, "Could not retrieve forecast data from any source.")
		}
		return c.JSON(result)
	})

	group.Get("/history/:city", func(c *fiber.Ctx) error {
		city, err := cityParam(c)
		if err != nil {
			return err
		}
		result, err := service.History(c.Context(), city)
		if err != nil {
			return mapError(err, "Could not retrieve historical data from any source.")
		}
		return c.JSON(result)
	})

	group.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := service.Stats(c.Context())
		if err != nil {
			log.Printf("stats query failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "An internal server error occurred.")
		}
		return c.JSON(stats)
	})
}

// cityRequest exists so the path parameter goes through the same validator
// the rest of the API uses.
type cityRequest struct {
	City string `validate:"required"`
}

func cityParam(c *fiber.Ctx) (string, error) {
	raw := c.Params("city")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	raw = strings.TrimSpace(raw)

	if err := validate.Struct(cityRequest{City: raw}); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "city is required")
	}
	return raw, nil
}

// mapError translates pipeline errors into user-facing responses. Anything
// unrecognized is logged in full and reported generically.
func mapError(err error, noSourcesMessage string) error {
	var notFound *weather.NotFoundError
	if errors.As(err, &notFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound.Error())
	}

	var upstream *weather.UpstreamError
	if errors.As(err, &upstream) {
		return fiber.NewError(upstream.StatusCode, upstream.Error())
	}

	if errors.Is(err, weather.ErrNoSources) {
		return fiber.NewError(fiber.StatusBadGateway, noSourcesMessage)
	}

	log.Printf("pipeline error: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "An internal server error occurred.")
}
