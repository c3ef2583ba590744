package datamall

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/travigo/nextbus/pkg/ctdf"
)

type BusArrivalResponse struct {
	BusStopCode string           `json:"BusStopCode"`
	Services    []*ServiceRecord `json:"Services"`
}

type ServiceRecord struct {
	ServiceNo string `json:"ServiceNo"`
	Operator  string `json:"Operator"`

	NextBus  SlotRecord `json:"NextBus"`
	NextBus2 SlotRecord `json:"NextBus2"`
	NextBus3 SlotRecord `json:"NextBus3"`
}

type SlotRecord struct {
	OriginCode       string `json:"OriginCode"`
	DestinationCode  string `json:"DestinationCode"`
	EstimatedArrival string `json:"EstimatedArrival"`
	Monitored        int    `json:"Monitored"`
	Latitude         string `json:"Latitude"`
	Longitude        string `json:"Longitude"`
	VisitNumber      string `json:"VisitNumber"`
	Load             string `json:"Load"`
	Feature          string `json:"Feature"`
	Type             string `json:"Type"`
}

func (r *BusArrivalResponse) ToServiceArrivals() ([]*ctdf.ServiceArrivals, error) {
	services := make([]*ctdf.ServiceArrivals, 0, len(r.Services))

	for _, record := range r.Services {
		service := &ctdf.ServiceArrivals{
			ServiceNumber: record.ServiceNo,
			Operator:      record.Operator,
		}

		for index, slotRecord := range []SlotRecord{record.NextBus, record.NextBus2, record.NextBus3} {
			// Missing predictions come back as records with every field empty
			if slotRecord.EstimatedArrival == "" {
				continue
			}

			slot, err := slotRecord.toArrivalSlot()
			if err != nil {
				return nil, fmt.Errorf("service %s slot %d: %w", record.ServiceNo, index, err)
			}

			service.Slots = append(service.Slots, slot)
		}

		services = append(services, service)
	}

	return services, nil
}

func (s *SlotRecord) toArrivalSlot() (*ctdf.ArrivalSlot, error) {
	estimatedArrival, err := time.Parse(time.RFC3339, s.EstimatedArrival)
	if err != nil {
		return nil, err
	}

	location, err := parseLocation(s.Latitude, s.Longitude)
	if err != nil {
		return nil, err
	}

	return &ctdf.ArrivalSlot{
		OriginCode:       s.OriginCode,
		DestinationCode:  s.DestinationCode,
		EstimatedArrival: estimatedArrival,
		Monitored:        s.Monitored == 1,
		Location:         location,
		Load:             ctdf.ParseLoadType(s.Load),
		VehicleType:      ctdf.ParseVehicleType(s.Type),
	}, nil
}

// parseLocation returns nil for the blank or zero coordinates sent for buses
// that are not being tracked
func parseLocation(latitude string, longitude string) (*ctdf.Location, error) {
	latitude = strings.TrimSpace(latitude)
	longitude = strings.TrimSpace(longitude)

	if latitude == "" || longitude == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latitude, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", latitude, err)
	}
	lon, err := strconv.ParseFloat(longitude, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", longitude, err)
	}

	if lat == 0 && lon == 0 {
		return nil, nil
	}

	return &ctdf.Location{Latitude: lat, Longitude: lon}, nil
}
