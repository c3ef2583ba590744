package ranker

import (
	"errors"
	"time"

	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/stats"
	"github.com/travigo/nextbus/pkg/stopcatalog"
)

// ErrPermissionDenied is returned alongside results when the query had no origin.
// The results are still usable, just without distances.
var ErrPermissionDenied = errors.New("location permission denied")

type Ranker struct {
	Catalog *stopcatalog.Catalog
	Stats   *stats.Collector
}

type Page struct {
	Stops   []*ctdf.RankedStop `json:"stops"`
	Offset  int                `json:"offset"`
	Limit   int                `json:"limit"`
	Total   int                `json:"total"`
	HasMore bool               `json:"hasMore"`
}

func (r *Ranker) Nearby(query Query) ([]*ctdf.RankedStop, error) {
	start := time.Now()
	ranked := Rank(r.Catalog.All(), query)
	r.Stats.RecordRanking(query.Origin != nil, time.Since(start))

	if query.Origin == nil {
		return ranked, ErrPermissionDenied
	}

	return ranked, nil
}

// Page returns a window of the full ordering. Because the ordering is total the
// windows of repeated calls line up for an unchanged origin.
func (r *Ranker) Page(query Query, offset int, limit int) (*Page, error) {
	query.Limit = 0
	ranked, err := r.Nearby(query)

	if offset < 0 {
		offset = 0
	}
	if offset > len(ranked) {
		offset = len(ranked)
	}

	end := len(ranked)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return &Page{
		Stops:   ranked[offset:end],
		Offset:  offset,
		Limit:   limit,
		Total:   len(ranked),
		HasMore: end < len(ranked),
	}, err
}
