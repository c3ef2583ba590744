package arrivals

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/nextbus/pkg/stats"
	"github.com/travigo/nextbus/pkg/stopcatalog"
	"github.com/travigo/nextbus/pkg/util"
)

const DefaultMaxActive = 20

// Key identifies a poll session, a stop plus an optional service filter
type Key struct {
	StopCode string
	Services string
}

// NewKey normalises the service filter so the same set always gives the same key
func NewKey(stopCode string, services []string) Key {
	services = util.RemoveDuplicateStrings(services, nil)
	sort.Strings(services)

	return Key{
		StopCode: strings.TrimSpace(stopCode),
		Services: strings.Join(services, ","),
	}
}

func (k Key) ServiceList() []string {
	return util.SplitList(k.Services, ",")
}

func (k Key) String() string {
	if k.Services == "" {
		return k.StopCode
	}
	return k.StopCode + "/" + k.Services
}

// PollerPool keeps one Poller running per visible stop and stops the rest,
// so the number of running pollers never exceeds MaxActive
type PollerPool struct {
	Fetcher   Fetcher
	Catalog   *stopcatalog.Catalog
	Interval  time.Duration
	MaxActive int
	Stats     *stats.Collector

	ctx     context.Context
	mutex   sync.Mutex
	pollers map[Key]*Poller
}

// NewPollerPool creates a pool whose pollers live until ctx is done or StopAll is called
func NewPollerPool(ctx context.Context, fetcher Fetcher, catalog *stopcatalog.Catalog) *PollerPool {
	return &PollerPool{
		Fetcher:   fetcher,
		Catalog:   catalog,
		Interval:  DefaultInterval,
		MaxActive: DefaultMaxActive,

		ctx:     ctx,
		pollers: map[Key]*Poller{},
	}
}

// SetVisible replaces the visible window. Pollers are started for new keys and
// stopped for keys that are no longer visible. Keys beyond MaxActive are ignored.
// The keys that ended up with a running poller are returned in visible order.
func (p *PollerPool) SetVisible(keys []Key) []Key {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	visible := map[Key]bool{}
	var active []Key
	for _, key := range keys {
		if key.StopCode == "" || visible[key] {
			continue
		}
		if len(active) >= p.maxActive() {
			log.Debug().Str("key", key.String()).Msg("Visible window larger than poller limit")
			continue
		}

		visible[key] = true
		active = append(active, key)
	}

	for key, poller := range p.pollers {
		if !visible[key] {
			poller.Stop()
			delete(p.pollers, key)
		}
	}

	for _, key := range active {
		if _, exists := p.pollers[key]; exists {
			continue
		}

		poller := p.newPoller(key)
		if err := poller.Start(p.context()); err != nil {
			log.Error().Err(err).Str("key", key.String()).Msg("Failed to start poller")
			continue
		}
		p.pollers[key] = poller
	}

	p.Stats.SetActivePollers(len(p.pollers))

	return active
}

func (p *PollerPool) Get(key Key) (*Poller, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	poller, ok := p.pollers[key]
	return poller, ok
}

// Active returns the keys of the running pollers
func (p *PollerPool) Active() []Key {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	keys := make([]Key, 0, len(p.pollers))
	for key := range p.pollers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	return keys
}

// StopAll stops every poller and waits for their goroutines to finish
func (p *PollerPool) StopAll() {
	p.mutex.Lock()
	pollers := p.pollers
	p.pollers = map[Key]*Poller{}
	p.mutex.Unlock()

	waiters := pool.New().WithMaxGoroutines(8)
	for _, poller := range pollers {
		poller := poller
		poller.Stop()
		waiters.Go(poller.Wait)
	}
	waiters.Wait()

	p.Stats.SetActivePollers(0)
	log.Info().Int("pollers", len(pollers)).Msg("Stopped all arrival pollers")
}

func (p *PollerPool) newPoller(key Key) *Poller {
	poller := &Poller{
		StopCode: key.StopCode,
		Services: key.ServiceList(),
		Interval: p.Interval,
		Fetcher:  p.Fetcher,
		Stats:    p.Stats,
	}

	if p.Catalog != nil {
		if stop, ok := p.Catalog.Get(key.StopCode); ok {
			poller.KnownServices = stop.ServiceNumbers
		}
	}

	return poller
}

func (p *PollerPool) maxActive() int {
	if p.MaxActive <= 0 {
		return DefaultMaxActive
	}
	return p.MaxActive
}

func (p *PollerPool) context() context.Context {
	if p.ctx == nil {
		return context.Background()
	}
	return p.ctx
}
