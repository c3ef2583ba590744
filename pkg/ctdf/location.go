package ctdf

import "math"

const earthRadiusMeters = 6_371_000

type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" groups:"basic"`
	Longitude float64 `json:"longitude" yaml:"longitude" groups:"basic"`
}

// Distance returns the great-circle distance in meters between the two locations
// using the haversine formula. NaN coordinates produce a NaN distance.
func (l *Location) Distance(other *Location) float64 {
	dLat := toRadians(other.Latitude - l.Latitude)
	dLon := toRadians(other.Longitude - l.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(l.Latitude))*math.Cos(toRadians(other.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Equals compares coordinates exactly. Two nil locations are equal.
func (l *Location) Equals(other *Location) bool {
	if l == nil || other == nil {
		return l == other
	}

	return l.Latitude == other.Latitude && l.Longitude == other.Longitude
}

func (l *Location) IsValid() bool {
	return !math.IsNaN(l.Latitude) && !math.IsNaN(l.Longitude) &&
		l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
