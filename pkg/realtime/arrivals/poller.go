package arrivals

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/stats"
	"golang.org/x/exp/slices"
)

const DefaultInterval = 3 * time.Second

var ErrPollerStopped = errors.New("poller has been stopped")

type Fetcher interface {
	FetchArrivals(ctx context.Context, stopCode string, services []string) ([]*ctdf.ServiceArrivals, error)
}

type Snapshot struct {
	StopCode string
	Services []*ctdf.ServiceArrivals

	// LastSuccess is zero until the first fetch succeeds
	LastSuccess time.Time
	LastError   error
	LastErrorAt time.Time

	NotInOperation []string
}

// Poller re-fetches the arrivals for one stop on a fixed interval. At most one
// fetch is in flight; ticks that fire while a fetch is running are skipped.
// Results are applied in issue order and nothing is applied after Stop.
type Poller struct {
	StopCode string

	// Services filters the stop to these service numbers when not empty
	Services []string

	// KnownServices are the services the stop is expected to have when there
	// is no filter, normally taken from the stop catalog
	KnownServices []string

	Interval time.Duration
	Fetcher  Fetcher
	Stats    *stats.Collector

	// OnUpdate is called outside the lock after every applied fetch result
	OnUpdate func(*Snapshot)

	Now func() time.Time

	mutex sync.Mutex
	wg    conc.WaitGroup

	started bool
	stopped bool
	cancel  context.CancelFunc

	inFlight        bool
	issuedSequence  uint64
	appliedSequence uint64

	lastResult  []*ctdf.ServiceArrivals
	lastSuccess time.Time
	lastError   error
	lastErrorAt time.Time
}

// Start fetches immediately and then every Interval until ctx is done or Stop is called
func (p *Poller) Start(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped {
		return ErrPollerStopped
	}
	if p.started {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.started = true
	p.cancel = cancel

	log.Debug().
		Str("stop", p.StopCode).
		Strs("services", p.Services).
		Dur("interval", p.interval()).
		Msg("Starting arrival poller")

	p.wg.Go(func() {
		p.run(ctx)
	})

	return nil
}

// Stop cancels the loop and any in-flight fetch. It is safe to call more than
// once and does not wait for goroutines to exit, use Wait for that. The poller
// also stops itself when the context given to Start is done.
func (p *Poller) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stopped {
		return
	}

	p.stopped = true
	if p.cancel != nil {
		p.cancel()
	}

	log.Debug().Str("stop", p.StopCode).Msg("Stopped arrival poller")
}

func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) Stopped() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.stopped
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	p.mutex.Lock()
	if p.stopped || ctx.Err() != nil {
		p.mutex.Unlock()
		return
	}
	if p.inFlight {
		p.mutex.Unlock()

		log.Debug().Str("stop", p.StopCode).Msg("Skipping poll, previous fetch still in flight")
		p.Stats.RecordSkippedTick()
		return
	}

	p.inFlight = true
	p.issuedSequence++
	sequence := p.issuedSequence
	p.mutex.Unlock()

	p.wg.Go(func() {
		start := time.Now()
		services, err := p.Fetcher.FetchArrivals(ctx, p.StopCode, p.Services)
		p.Stats.RecordFetch(err, time.Since(start))

		p.complete(ctx, sequence, services, err)
	})
}

// complete applies a finished fetch unless the poller has stopped, its context
// is done or a newer fetch has already been applied
func (p *Poller) complete(ctx context.Context, sequence uint64, services []*ctdf.ServiceArrivals, err error) {
	p.mutex.Lock()

	if sequence == p.issuedSequence {
		p.inFlight = false
	}

	if p.stopped || ctx.Err() != nil {
		p.mutex.Unlock()
		p.Stats.RecordDiscardedResult("stopped")
		return
	}
	if sequence <= p.appliedSequence {
		p.mutex.Unlock()

		log.Debug().
			Str("stop", p.StopCode).
			Uint64("sequence", sequence).
			Uint64("applied", p.appliedSequence).
			Msg("Discarding out of order arrivals result")
		p.Stats.RecordDiscardedResult("out_of_order")
		return
	}
	p.appliedSequence = sequence

	now := p.now()
	changed := 0

	if err != nil {
		p.lastError = err
		p.lastErrorAt = now
	} else {
		p.lastResult, changed = MergeArrivals(p.lastResult, services, now)
		p.lastSuccess = now
		p.lastError = nil
	}

	snapshot := p.snapshotLocked()
	p.mutex.Unlock()

	if err != nil {
		log.Error().Err(err).Str("stop", p.StopCode).Msg("Failed to fetch arrivals, keeping last result")
	} else {
		p.Stats.RecordChangedSlots(changed)
	}

	if p.OnUpdate != nil {
		p.OnUpdate(snapshot)
	}
}

// Snapshot returns a deep copy of the latest state
func (p *Poller) Snapshot() *Snapshot {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.snapshotLocked()
}

func (p *Poller) LastError() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.lastError
}

// NotInOperation lists the expected services missing from the latest successful
// result. Expected means the filter when one is set, otherwise the stop's known
// services. It is empty until a fetch has succeeded.
func (p *Poller) NotInOperation() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.notInOperationLocked()
}

func (p *Poller) notInOperationLocked() []string {
	if p.lastSuccess.IsZero() {
		return nil
	}

	expected := p.Services
	if len(expected) == 0 {
		expected = p.KnownServices
	}

	var missing []string
	for _, serviceNumber := range expected {
		served := slices.ContainsFunc(p.lastResult, func(service *ctdf.ServiceArrivals) bool {
			return service.ServiceNumber == serviceNumber && len(service.Slots) > 0
		})
		if !served && !slices.Contains(missing, serviceNumber) {
			missing = append(missing, serviceNumber)
		}
	}

	return missing
}

func (p *Poller) snapshotLocked() *Snapshot {
	return &Snapshot{
		StopCode:       p.StopCode,
		Services:       ctdf.CloneServiceArrivals(p.lastResult),
		LastSuccess:    p.lastSuccess,
		LastError:      p.lastError,
		LastErrorAt:    p.lastErrorAt,
		NotInOperation: p.notInOperationLocked(),
	}
}

func (p *Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

func (p *Poller) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
