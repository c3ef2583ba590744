package arrivals

import (
	"context"
	"sync"
	"time"

	"github.com/travigo/nextbus/pkg/ctdf"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func arrivalAt(minutes int) *ctdf.ArrivalSlot {
	return &ctdf.ArrivalSlot{
		OriginCode:       "84009",
		DestinationCode:  "10589",
		EstimatedArrival: t0.Add(time.Duration(minutes) * time.Minute),
		Monitored:        true,
		Location:         &ctdf.Location{Latitude: 1.3035, Longitude: 103.834},
		Load:             ctdf.LoadTypeSeated,
		VehicleType:      ctdf.VehicleTypeDouble,
	}
}

func service(number string, slots ...*ctdf.ArrivalSlot) *ctdf.ServiceArrivals {
	return &ctdf.ServiceArrivals{ServiceNumber: number, Operator: "SBST", Slots: slots}
}

type fetchResult struct {
	services []*ctdf.ServiceArrivals
	err      error
}

type staticFetcher struct {
	mutex  sync.Mutex
	calls  int
	result fetchResult
}

func (f *staticFetcher) FetchArrivals(ctx context.Context, stopCode string, services []string) ([]*ctdf.ServiceArrivals, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.calls++
	return ctdf.CloneServiceArrivals(f.result.services), f.result.err
}

func (f *staticFetcher) Calls() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.calls
}

// blockingFetcher holds every fetch until a result is sent on release
type blockingFetcher struct {
	called  chan struct{}
	release chan fetchResult

	// ignoreContext makes the fetch finish even after cancellation
	ignoreContext bool

	mutex sync.Mutex
	calls int
}

func newBlockingFetcher(ignoreContext bool) *blockingFetcher {
	return &blockingFetcher{
		called:        make(chan struct{}, 100),
		release:       make(chan fetchResult),
		ignoreContext: ignoreContext,
	}
}

func (f *blockingFetcher) FetchArrivals(ctx context.Context, stopCode string, services []string) ([]*ctdf.ServiceArrivals, error) {
	f.mutex.Lock()
	f.calls++
	f.mutex.Unlock()
	f.called <- struct{}{}

	if f.ignoreContext {
		result := <-f.release
		return result.services, result.err
	}

	select {
	case result := <-f.release:
		return result.services, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *blockingFetcher) Calls() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.calls
}
