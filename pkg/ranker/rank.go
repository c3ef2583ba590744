package ranker

import (
	"math"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"github.com/travigo/nextbus/pkg/ctdf"
	"golang.org/x/exp/slices"
)

// Stops above this count have their distances computed in parallel
const parallelDistanceThreshold = 2048

const (
	scoreNone        = 0
	scoreRoadName    = 1
	scoreCode        = 2
	scoreDescription = 3
)

type Query struct {
	// Origin is nil when the user's location is unavailable
	Origin *ctdf.Location

	// MaxDistanceMeters keeps stops with distance <= the bound. Ignored without an Origin.
	MaxDistanceMeters *float64

	Text string

	// Limit returns only the first Limit results when positive
	Limit int
}

type candidate struct {
	ranked *ctdf.RankedStop
	score  int
	index  int
}

// Rank orders stops for a query. With text, stops are scored by where the text
// appears (description, then code, then road name) and non-matching stops are
// dropped. Ties fall back to distance and then stop code, or to input order
// when there is no origin.
func Rank(stops []*ctdf.Stop, query Query) []*ctdf.RankedStop {
	text := strings.ToLower(strings.TrimSpace(query.Text))
	located := query.Origin != nil

	distances := distancesFrom(query.Origin, stops)

	candidates := make([]candidate, 0, len(stops))
	for index, stop := range stops {
		distance := distances[index]

		if located && query.MaxDistanceMeters != nil && !(distance <= *query.MaxDistanceMeters) {
			continue
		}

		score := scoreNone
		if text != "" {
			score = matchScore(stop, text)
			if score == scoreNone {
				continue
			}
		}

		candidates = append(candidates, candidate{
			ranked: &ctdf.RankedStop{
				Stop:           stop,
				DistanceMeters: distance,
				HasDistance:    located,
			},
			score: score,
			index: index,
		})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if a.score != b.score {
			return b.score - a.score
		}

		if !located {
			return a.index - b.index
		}

		if order := compareDistance(a.ranked.DistanceMeters, b.ranked.DistanceMeters); order != 0 {
			return order
		}

		return strings.Compare(a.ranked.Stop.Code, b.ranked.Stop.Code)
	})

	if query.Limit > 0 && len(candidates) > query.Limit {
		candidates = candidates[:query.Limit]
	}

	ranked := make([]*ctdf.RankedStop, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.ranked
	}

	return ranked
}

func distancesFrom(origin *ctdf.Location, stops []*ctdf.Stop) []float64 {
	distance := func(stop **ctdf.Stop) float64 {
		if origin == nil || (*stop).Location == nil {
			return math.NaN()
		}
		return origin.Distance((*stop).Location)
	}

	if len(stops) > parallelDistanceThreshold {
		return iter.Map(stops, distance)
	}

	distances := make([]float64, len(stops))
	for i := range stops {
		distances[i] = distance(&stops[i])
	}

	return distances
}

// compareDistance orders ascending with NaN after every finite distance
func compareDistance(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)

	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func matchScore(stop *ctdf.Stop, text string) int {
	switch {
	case strings.Contains(strings.ToLower(stop.Description), text):
		return scoreDescription
	case strings.Contains(strings.ToLower(stop.Code), text):
		return scoreCode
	case strings.Contains(strings.ToLower(stop.RoadName), text):
		return scoreRoadName
	default:
		return scoreNone
	}
}
