package ranker

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/nextbus/pkg/ctdf"
)

const metersPerDegreeLatitude = 6_371_000 * math.Pi / 180

var origin = &ctdf.Location{Latitude: 1.3, Longitude: 103.8}

// stopNorth places a stop the given distance due north of origin
func stopNorth(code string, meters float64, description string, roadName string) *ctdf.Stop {
	return &ctdf.Stop{
		Code:        code,
		Description: description,
		RoadName:    roadName,
		Location: &ctdf.Location{
			Latitude:  origin.Latitude + meters/metersPerDegreeLatitude,
			Longitude: origin.Longitude,
		},
	}
}

func codes(ranked []*ctdf.RankedStop) []string {
	var result []string
	for _, r := range ranked {
		result = append(result, r.Stop.Code)
	}
	return result
}

func radius(meters float64) *float64 {
	return &meters
}

func TestRankRadiusScenario(t *testing.T) {
	stops := []*ctdf.Stop{
		stopNorth("C", 2500, "Far", "Far Rd"),
		stopNorth("B", 300, "Near", "Near Rd"),
		stopNorth("A", 0, "Here", "Here Rd"),
	}

	ranked := Rank(stops, Query{Origin: origin, MaxDistanceMeters: radius(2000)})

	require.Equal(t, []string{"A", "B"}, codes(ranked))
	assert.InDelta(t, 0, ranked[0].DistanceMeters, 0.001)
	assert.InDelta(t, 300, ranked[1].DistanceMeters, 0.5)
	assert.True(t, ranked[0].HasDistance)
}

func TestRankRadiusIsInclusiveAndComplete(t *testing.T) {
	var stops []*ctdf.Stop
	for i := 0; i < 50; i++ {
		stops = append(stops, stopNorth(fmt.Sprintf("S%02d", i), float64(i)*100, "Stop", "Road"))
	}

	bound := origin.Distance(stops[20].Location)
	ranked := Rank(stops, Query{Origin: origin, MaxDistanceMeters: &bound})

	for _, r := range ranked {
		assert.LessOrEqual(t, r.DistanceMeters, bound)
	}
	assert.Len(t, ranked, 21)
	assert.Equal(t, "S20", ranked[20].Stop.Code)
}

func TestRankTextPriority(t *testing.T) {
	stops := []*ctdf.Stop{
		stopNorth("09059", 10, "Opp Tang Plaza", "Orchard Rd"),
		stopNorth("09047", 900, "Orchard Stn/Lucky Plaza", "Orchard Rd"),
		stopNorth("01012", 5, "Hotel Grand Pacific", "Victoria St"),
	}

	ranked := Rank(stops, Query{Origin: origin, Text: "  ORCHARD "})

	assert.Equal(t, []string{"09047", "09059"}, codes(ranked))
}

func TestRankTextScores(t *testing.T) {
	stops := []*ctdf.Stop{
		stopNorth("R", 1, "Road match", "Alpha Ave"),
		stopNorth("ALPHA", 2, "Code match", "Beta Rd"),
		stopNorth("D", 3, "Alpha description", "Gamma Rd"),
	}

	ranked := Rank(stops, Query{Origin: origin, Text: "alpha"})

	assert.Equal(t, []string{"D", "ALPHA", "R"}, codes(ranked))
}

func TestRankTieBreaksOnCode(t *testing.T) {
	stops := []*ctdf.Stop{
		stopNorth("C", 100, "Stop", "Road"),
		stopNorth("A", 100, "Stop", "Road"),
		stopNorth("B", 100, "Stop", "Road"),
	}

	ranked := Rank(stops, Query{Origin: origin})

	assert.Equal(t, []string{"A", "B", "C"}, codes(ranked))
}

func TestRankNaNDistancesSortLast(t *testing.T) {
	broken := &ctdf.Stop{Code: "A", Description: "Broken", Location: &ctdf.Location{Latitude: math.NaN(), Longitude: 103.8}}
	stops := []*ctdf.Stop{
		broken,
		stopNorth("Z", 500, "Stop", "Road"),
	}

	ranked := Rank(stops, Query{Origin: origin})
	require.Equal(t, []string{"Z", "A"}, codes(ranked))
	assert.True(t, math.IsNaN(ranked[1].DistanceMeters))

	bounded := Rank(stops, Query{Origin: origin, MaxDistanceMeters: radius(10_000)})
	assert.Equal(t, []string{"Z"}, codes(bounded))
}

func TestRankWithoutOriginKeepsCatalogOrder(t *testing.T) {
	stops := []*ctdf.Stop{
		stopNorth("C", 2500, "Far Orchard", "Far Rd"),
		stopNorth("B", 300, "Near", "Orchard Rd"),
		stopNorth("A", 0, "Here Orchard", "Here Rd"),
	}

	ranked := Rank(stops, Query{MaxDistanceMeters: radius(10)})
	assert.Equal(t, []string{"C", "B", "A"}, codes(ranked))
	assert.False(t, ranked[0].HasDistance)

	withText := Rank(stops, Query{Text: "orchard"})
	assert.Equal(t, []string{"C", "A", "B"}, codes(withText))
}

func TestRankLimitIsStablePrefix(t *testing.T) {
	var stops []*ctdf.Stop
	for i := 0; i < 30; i++ {
		// Pairs of stops share a distance to exercise the tie-break
		stops = append(stops, stopNorth(fmt.Sprintf("S%02d", 29-i), float64(i/2)*50, "Stop", "Road"))
	}

	full := codes(Rank(stops, Query{Origin: origin}))
	for limit := 1; limit <= len(stops); limit++ {
		prefix := codes(Rank(stops, Query{Origin: origin, Limit: limit}))
		assert.Equal(t, full[:limit], prefix)
	}
}

func TestRankParallelMatchesSequential(t *testing.T) {
	var stops []*ctdf.Stop
	for i := 0; i < parallelDistanceThreshold+100; i++ {
		stops = append(stops, stopNorth(fmt.Sprintf("S%05d", i), float64((i*7919)%5000), "Stop", "Road"))
	}

	ranked := Rank(stops, Query{Origin: origin, MaxDistanceMeters: radius(1000)})

	require.NotEmpty(t, ranked)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceMeters, ranked[i].DistanceMeters)
	}
	for _, r := range ranked {
		assert.InDelta(t, r.Stop.Location.Distance(origin), r.DistanceMeters, 0.0001)
	}
}
