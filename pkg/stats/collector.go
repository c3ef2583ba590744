package stats

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the prometheus metrics for polling and ranking. All methods
// are safe to call on a nil Collector, which records nothing.
type Collector struct {
	reg *prometheus.Registry

	ArrivalFetches   *prometheus.CounterVec // result label: success|failure
	FetchDuration    prometheus.Histogram
	SkippedTicks     prometheus.Counter
	DiscardedResults *prometheus.CounterVec // reason label: out_of_order|stopped
	ChangedSlots     prometheus.Counter
	ActivePollers    prometheus.Gauge

	RankingQueries  *prometheus.CounterVec // origin label: located|denied
	RankingDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ArrivalFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextbus_arrival_fetches_total",
			Help: "Arrival feed fetches by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nextbus_arrival_fetch_duration_seconds",
			Help:    "Duration of arrival feed fetches.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		SkippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nextbus_poll_ticks_skipped_total",
			Help: "Poll ticks skipped because a fetch was still in flight.",
		}),
		DiscardedResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextbus_poll_results_discarded_total",
			Help: "Fetch results dropped without being applied.",
		}, []string{"reason"}),
		ChangedSlots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nextbus_arrival_slots_changed_total",
			Help: "Arrival slots whose estimate or position changed between polls.",
		}),
		ActivePollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nextbus_active_pollers",
			Help: "Number of running arrival pollers.",
		}),
		RankingQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextbus_ranking_queries_total",
			Help: "Proximity ranking queries by origin availability.",
		}, []string{"origin"}),
		RankingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nextbus_ranking_duration_seconds",
			Help:    "Duration of proximity ranking over the stop catalog.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
	}

	reg.MustRegister(
		c.ArrivalFetches, c.FetchDuration,
		c.SkippedTicks, c.DiscardedResults, c.ChangedSlots, c.ActivePollers,
		c.RankingQueries, c.RankingDuration,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) RecordFetch(err error, duration time.Duration) {
	if c == nil {
		return
	}

	result := "success"
	if err != nil {
		result = "failure"
	}
	c.ArrivalFetches.WithLabelValues(result).Inc()
	c.FetchDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordSkippedTick() {
	if c == nil {
		return
	}
	c.SkippedTicks.Inc()
}

func (c *Collector) RecordDiscardedResult(reason string) {
	if c == nil {
		return
	}
	c.DiscardedResults.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordChangedSlots(count int) {
	if c == nil || count == 0 {
		return
	}
	c.ChangedSlots.Add(float64(count))
}

func (c *Collector) SetActivePollers(count int) {
	if c == nil {
		return
	}
	c.ActivePollers.Set(float64(count))
}

func (c *Collector) RecordRanking(located bool, duration time.Duration) {
	if c == nil {
		return
	}

	origin := "located"
	if !located {
		origin = "denied"
	}
	c.RankingQueries.WithLabelValues(origin).Inc()
	c.RankingDuration.Observe(duration.Seconds())
}
