package ctdf

import "time"

type LoadType string

const (
	LoadTypeSeated          LoadType = "seated"
	LoadTypeStanding        LoadType = "standing"
	LoadTypeLimitedStanding LoadType = "limitedStanding"
	LoadTypeUnknown         LoadType = "unknown"
)

func ParseLoadType(code string) LoadType {
	switch code {
	case "SEA":
		return LoadTypeSeated
	case "SDA":
		return LoadTypeStanding
	case "LSD":
		return LoadTypeLimitedStanding
	default:
		return LoadTypeUnknown
	}
}

type VehicleType string

const (
	VehicleTypeSingle  VehicleType = "single"
	VehicleTypeDouble  VehicleType = "double"
	VehicleTypeBendy   VehicleType = "bendy"
	VehicleTypeUnknown VehicleType = "unknown"
)

func ParseVehicleType(code string) VehicleType {
	switch code {
	case "SD":
		return VehicleTypeSingle
	case "DD":
		return VehicleTypeDouble
	case "BD":
		return VehicleTypeBendy
	default:
		return VehicleTypeUnknown
	}
}

// ArrivalSlot is one upcoming-bus prediction. Its position inside
// ServiceArrivals.Slots is its identity across polls.
type ArrivalSlot struct {
	OriginCode      string
	DestinationCode string

	EstimatedArrival time.Time
	Monitored        bool

	Location *Location

	Load        LoadType
	VehicleType VehicleType

	LastChangedAt time.Time
}

// SameReading reports whether the prediction itself (time and position) is unchanged.
func (a *ArrivalSlot) SameReading(other *ArrivalSlot) bool {
	return a.EstimatedArrival.Equal(other.EstimatedArrival) && a.Location.Equals(other.Location)
}

func (a *ArrivalSlot) Clone() *ArrivalSlot {
	clone := *a
	if a.Location != nil {
		location := *a.Location
		clone.Location = &location
	}

	return &clone
}

type ServiceArrivals struct {
	ServiceNumber string
	Operator      string

	Slots []*ArrivalSlot
}

func (s *ServiceArrivals) Clone() *ServiceArrivals {
	clone := &ServiceArrivals{
		ServiceNumber: s.ServiceNumber,
		Operator:      s.Operator,
		Slots:         make([]*ArrivalSlot, 0, len(s.Slots)),
	}
	for _, slot := range s.Slots {
		clone.Slots = append(clone.Slots, slot.Clone())
	}

	return clone
}

func CloneServiceArrivals(services []*ServiceArrivals) []*ServiceArrivals {
	if services == nil {
		return nil
	}

	clones := make([]*ServiceArrivals, 0, len(services))
	for _, service := range services {
		clones = append(clones, service.Clone())
	}

	return clones
}
