package arrivals

import (
	"time"

	"github.com/travigo/nextbus/pkg/ctdf"
)

// MergeArrivals threads LastChangedAt from the previous poll into the current one.
// Services are matched by number and slots by position. A slot keeps its previous
// LastChangedAt only when its estimate and location are unchanged; anything changed
// or new is stamped with now. The result is a copy, neither input is modified.
// The second return value is the number of slots stamped with now.
func MergeArrivals(previous []*ctdf.ServiceArrivals, current []*ctdf.ServiceArrivals, now time.Time) ([]*ctdf.ServiceArrivals, int) {
	previousByService := make(map[string]*ctdf.ServiceArrivals, len(previous))
	for _, service := range previous {
		previousByService[service.ServiceNumber] = service
	}

	changed := 0
	merged := make([]*ctdf.ServiceArrivals, 0, len(current))

	for _, service := range current {
		mergedService := service.Clone()
		previousService := previousByService[service.ServiceNumber]

		for index, slot := range mergedService.Slots {
			var previousSlot *ctdf.ArrivalSlot
			if previousService != nil && index < len(previousService.Slots) {
				previousSlot = previousService.Slots[index]
			}

			if previousSlot != nil && slot.SameReading(previousSlot) && !previousSlot.LastChangedAt.IsZero() {
				slot.LastChangedAt = previousSlot.LastChangedAt
			} else {
				slot.LastChangedAt = now
				changed++
			}
		}

		merged = append(merged, mergedService)
	}

	return merged, changed
}
