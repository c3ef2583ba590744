package ctdf

import "golang.org/x/exp/slices"

type Stop struct {
	Code        string `json:"code" groups:"basic"`
	Description string `json:"description" groups:"basic"`
	RoadName    string `json:"roadName" groups:"basic"`

	Location *Location `json:"location" groups:"basic"`

	ServiceNumbers []string `json:"serviceNumbers" groups:"detailed"`
}

func (s *Stop) ServesService(serviceNumber string) bool {
	return slices.Contains(s.ServiceNumbers, serviceNumber)
}

// RankedStop is a Stop with its distance from the ranking origin. It is derived
// per query and never cached as the origin moves.
type RankedStop struct {
	Stop *Stop

	DistanceMeters float64
	HasDistance    bool
}
