package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/realtime/arrivals"
	"github.com/travigo/nextbus/pkg/util"
)

type arrivalsResponse struct {
	StopCode       string             `json:"stop"`
	Services       []*serviceResponse `json:"services"`
	NotInOperation []string           `json:"notInOperation"`
	LastSuccess    *time.Time         `json:"lastSuccess"`
	Error          string             `json:"error,omitempty"`
	GeneratedAt    time.Time          `json:"generatedAt"`
}

type serviceResponse struct {
	ServiceNumber string          `json:"serviceNumber"`
	Operator      string          `json:"operator"`
	Slots         []*slotResponse `json:"slots"`
}

type slotResponse struct {
	OriginCode       string           `json:"originCode"`
	DestinationCode  string           `json:"destinationCode"`
	EstimatedArrival time.Time        `json:"estimatedArrival"`
	Monitored        bool             `json:"monitored"`
	Location         *ctdf.Location   `json:"location"`
	Load             ctdf.LoadType    `json:"load"`
	VehicleType      ctdf.VehicleType `json:"vehicleType"`
	LastChangedAt    time.Time        `json:"lastChangedAt"`
	Freshness        ctdf.Freshness   `json:"freshness"`
}

type visibleStop struct {
	StopCode string   `json:"stop"`
	Services []string `json:"services"`
}

func getStopArrivals(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := arrivals.NewKey(c.Params("code"), util.SplitList(c.Query("services"), ","))

		poller, ok := services.Pollers.Get(key)
		if !ok {
			c.SendStatus(fiber.StatusNotFound)
			return c.JSON(fiber.Map{
				"error": "Stop is not being polled, mark it as visible first",
			})
		}

		return c.JSON(newArrivalsResponse(poller.Snapshot(), time.Now()))
	}
}

func newArrivalsResponse(snapshot *arrivals.Snapshot, now time.Time) *arrivalsResponse {
	response := &arrivalsResponse{
		StopCode:       snapshot.StopCode,
		Services:       []*serviceResponse{},
		NotInOperation: emptyIfNil(snapshot.NotInOperation),
		GeneratedAt:    now,
	}

	if !snapshot.LastSuccess.IsZero() {
		lastSuccess := snapshot.LastSuccess
		response.LastSuccess = &lastSuccess
	}
	if snapshot.LastError != nil {
		response.Error = snapshot.LastError.Error()
	}

	for _, service := range snapshot.Services {
		serviceJSON := &serviceResponse{
			ServiceNumber: service.ServiceNumber,
			Operator:      service.Operator,
			Slots:         []*slotResponse{},
		}

		for _, slot := range service.Slots {
			serviceJSON.Slots = append(serviceJSON.Slots, &slotResponse{
				OriginCode:       slot.OriginCode,
				DestinationCode:  slot.DestinationCode,
				EstimatedArrival: slot.EstimatedArrival,
				Monitored:        slot.Monitored,
				Location:         slot.Location,
				Load:             slot.Load,
				VehicleType:      slot.VehicleType,
				LastChangedAt:    slot.LastChangedAt,
				Freshness:        ctdf.ClassifyFreshness(slot.LastChangedAt, now),
			})
		}

		response.Services = append(response.Services, serviceJSON)
	}

	return response
}

// setVisible replaces the set of stops being polled with the ones the UI is showing
func setVisible(services *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var visible []visibleStop
		if err := c.BodyParser(&visible); err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Body should be a list of {stop, services}",
			})
		}

		keys := make([]arrivals.Key, 0, len(visible))
		for _, stop := range visible {
			keys = append(keys, arrivals.NewKey(stop.StopCode, stop.Services))
		}

		active := []visibleStop{}
		for _, key := range services.Pollers.SetVisible(keys) {
			active = append(active, visibleStop{StopCode: key.StopCode, Services: emptyIfNil(key.ServiceList())})
		}

		return c.JSON(fiber.Map{
			"active": active,
		})
	}
}

func VisibleRouter(router fiber.Router, services *Services) {
	router.Put("/", setVisible(services))
}
