package routes

import (
	"github.com/travigo/nextbus/pkg/liked"
	"github.com/travigo/nextbus/pkg/ranker"
	"github.com/travigo/nextbus/pkg/realtime/arrivals"
	"github.com/travigo/nextbus/pkg/stopcatalog"
)

// Services are the core components the routes read from
type Services struct {
	Catalog *stopcatalog.Catalog
	Ranker  *ranker.Ranker
	Pollers *arrivals.PollerPool
	Liked   *liked.Collections

	NearbyRadiusMeters float64
	PageSize           int
}

const maxPageSize = 100
