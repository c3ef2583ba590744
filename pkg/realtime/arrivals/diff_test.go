package arrivals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/nextbus/pkg/ctdf"
)

func TestMergeArrivalsFirstPollStampsEverything(t *testing.T) {
	merged, changed := MergeArrivals(nil, []*ctdf.ServiceArrivals{
		service("12", arrivalAt(2), arrivalAt(9)),
		service("15", arrivalAt(4)),
	}, t0)

	assert.Equal(t, 3, changed)
	for _, s := range merged {
		for _, slot := range s.Slots {
			assert.Equal(t, t0, slot.LastChangedAt)
		}
	}
}

func TestMergeArrivalsIdenticalResultKeepsStamps(t *testing.T) {
	first, _ := MergeArrivals(nil, []*ctdf.ServiceArrivals{service("12", arrivalAt(2), arrivalAt(9), arrivalAt(15))}, t0)

	t1 := t0.Add(3 * time.Second)
	second, changed := MergeArrivals(first, []*ctdf.ServiceArrivals{service("12", arrivalAt(2), arrivalAt(9), arrivalAt(15))}, t1)

	assert.Equal(t, 0, changed)
	for _, slot := range second[0].Slots {
		assert.Equal(t, t0, slot.LastChangedAt)
	}
}

func TestMergeArrivalsOnlyChangedSlotIsStamped(t *testing.T) {
	first, _ := MergeArrivals(nil, []*ctdf.ServiceArrivals{service("12", arrivalAt(2), arrivalAt(9), arrivalAt(15))}, t0)

	t1 := t0.Add(3 * time.Second)
	second, changed := MergeArrivals(first, []*ctdf.ServiceArrivals{service("12", arrivalAt(2), arrivalAt(10), arrivalAt(15))}, t1)

	assert.Equal(t, 1, changed)
	assert.Equal(t, t0, second[0].Slots[0].LastChangedAt)
	assert.Equal(t, t1, second[0].Slots[1].LastChangedAt)
	assert.Equal(t, t0, second[0].Slots[2].LastChangedAt)
}

func TestMergeArrivalsLocationChange(t *testing.T) {
	first, _ := MergeArrivals(nil, []*ctdf.ServiceArrivals{service("12", arrivalAt(2))}, t0)

	moved := arrivalAt(2)
	moved.Location = &ctdf.Location{Latitude: 1.3040, Longitude: 103.834}
	lost := arrivalAt(2)
	lost.Location = nil

	t1 := t0.Add(3 * time.Second)
	second, changed := MergeArrivals(first, []*ctdf.ServiceArrivals{service("12", moved)}, t1)
	assert.Equal(t, 1, changed)
	assert.Equal(t, t1, second[0].Slots[0].LastChangedAt)

	t2 := t1.Add(3 * time.Second)
	third, changed := MergeArrivals(second, []*ctdf.ServiceArrivals{service("12", lost)}, t2)
	assert.Equal(t, 1, changed)
	assert.Equal(t, t2, third[0].Slots[0].LastChangedAt)
}

func TestMergeArrivalsMatchesByServiceNotPosition(t *testing.T) {
	first, _ := MergeArrivals(nil, []*ctdf.ServiceArrivals{
		service("12", arrivalAt(2)),
		service("15", arrivalAt(5)),
	}, t0)

	t1 := t0.Add(3 * time.Second)
	second, changed := MergeArrivals(first, []*ctdf.ServiceArrivals{
		service("190", arrivalAt(1)),
		service("15", arrivalAt(5)),
		service("12", arrivalAt(2), arrivalAt(8)),
	}, t1)

	require.Len(t, second, 3)
	assert.Equal(t, 2, changed)
	assert.Equal(t, t1, second[0].Slots[0].LastChangedAt)
	assert.Equal(t, t0, second[1].Slots[0].LastChangedAt)
	assert.Equal(t, t0, second[2].Slots[0].LastChangedAt)
	assert.Equal(t, t1, second[2].Slots[1].LastChangedAt)
}

func TestMergeArrivalsDoesNotModifyInputs(t *testing.T) {
	previous, _ := MergeArrivals(nil, []*ctdf.ServiceArrivals{service("12", arrivalAt(2))}, t0)
	current := []*ctdf.ServiceArrivals{service("12", arrivalAt(3))}

	merged, _ := MergeArrivals(previous, current, t0.Add(time.Second))
	merged[0].Slots[0].Location.Latitude = 0

	assert.True(t, current[0].Slots[0].LastChangedAt.IsZero())
	assert.Equal(t, 1.3035, current[0].Slots[0].Location.Latitude)
	assert.Equal(t, t0, previous[0].Slots[0].LastChangedAt)
}
