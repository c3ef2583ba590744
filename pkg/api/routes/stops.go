package routes

import (
	"errors"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/ranker"
)

func StopsRouter(router fiber.Router, services *Services) {
	router.Get("/nearby", nearbyStops(services))
	router.Get("/:code", getStop(services))
	router.Get("/:code/arrivals", getStopArrivals(services))
}

func nearbyStops(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := ranker.Query{
			Text: c.Query("q"),
		}

		latString, lonString := c.Query("lat"), c.Query("lon")
		if latString != "" || lonString != "" {
			lat, latErr := strconv.ParseFloat(latString, 64)
			lon, lonErr := strconv.ParseFloat(lonString, 64)
			if latErr != nil || lonErr != nil {
				c.SendStatus(fiber.StatusBadRequest)
				return c.JSON(fiber.Map{
					"error": "Parameters lat and lon must both be decimal degrees",
				})
			}

			query.Origin = &ctdf.Location{Latitude: lat, Longitude: lon}
		}

		radius := services.NearbyRadiusMeters
		if radiusString := c.Query("radius"); radiusString != "" {
			parsed, err := strconv.ParseFloat(radiusString, 64)
			if err != nil || parsed < 0 {
				c.SendStatus(fiber.StatusBadRequest)
				return c.JSON(fiber.Map{
					"error": "Parameter radius should be a positive number of meters",
				})
			}
			radius = parsed
		}
		// Zero means unbounded
		if radius > 0 {
			query.MaxDistanceMeters = &radius
		}

		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil || offset < 0 {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Parameter offset should be a positive integer",
			})
		}

		limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(services.PageSize)))
		if err != nil || limit <= 0 {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Parameter limit should be a positive integer",
			})
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}

		page, err := services.Ranker.Page(query, offset, limit)

		stops := make([]fiber.Map, 0, len(page.Stops))
		for _, rankedStop := range page.Stops {
			stopJSON, reduceErr := stopResponse(services, rankedStop.Stop, "basic")
			if reduceErr != nil {
				c.SendStatus(fiber.StatusInternalServerError)
				return c.JSON(fiber.Map{
					"error": "Sherrif could not reduce stop",
				})
			}

			// JSON has no NaN so unknown distances are null
			if rankedStop.HasDistance && !math.IsNaN(rankedStop.DistanceMeters) {
				stopJSON["distance"] = math.Round(rankedStop.DistanceMeters*10) / 10
			} else {
				stopJSON["distance"] = nil
			}

			stops = append(stops, stopJSON)
		}

		response := fiber.Map{
			"stops":   stops,
			"offset":  page.Offset,
			"limit":   page.Limit,
			"total":   page.Total,
			"hasMore": page.HasMore,
		}
		if errors.Is(err, ranker.ErrPermissionDenied) {
			response["notice"] = "Location unavailable, stops are listed without distances"
		}

		return c.JSON(response)
	}
}

func getStop(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stop, ok := services.Catalog.Get(c.Params("code"))
		if !ok {
			c.SendStatus(fiber.StatusNotFound)
			return c.JSON(fiber.Map{
				"error": "Could not find Stop matching Stop Code",
			})
		}

		response, err := stopResponse(services, stop, "basic", "detailed")
		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Sherrif could not reduce stop",
			})
		}

		if services.Liked != nil {
			response["likedServices"] = emptyIfNil(services.Liked.LikedServices(stop.Code))
		}

		return c.JSON(response)
	}
}

func stopResponse(services *Services, stop *ctdf.Stop, groups ...string) (fiber.Map, error) {
	stopReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, stop)
	if err != nil {
		return nil, err
	}

	response := fiber.Map{
		"stop": stopReduced,
	}
	if services.Liked != nil {
		response["liked"] = services.Liked.IsStopLiked(stop.Code)
	}

	return response, nil
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
