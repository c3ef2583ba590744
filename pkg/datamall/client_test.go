package datamall

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/nextbus/pkg/ctdf"
)

const sampleResponse = `{
  "odata.metadata": "http://datamall2.mytransport.sg/ltaodataservice/$metadata#BusArrivalv2/@Element",
  "BusStopCode": "09047",
  "Services": [
    {
      "ServiceNo": "7",
      "Operator": "SBST",
      "NextBus": {
        "OriginCode": "84009",
        "DestinationCode": "10589",
        "EstimatedArrival": "2024-03-01T08:05:12+08:00",
        "Monitored": 1,
        "Latitude": "1.3035",
        "Longitude": "103.8340",
        "VisitNumber": "1",
        "Load": "SEA",
        "Feature": "WAB",
        "Type": "DD"
      },
      "NextBus2": {
        "OriginCode": "84009",
        "DestinationCode": "10589",
        "EstimatedArrival": "2024-03-01T08:14:40+08:00",
        "Monitored": 0,
        "Latitude": "0.0",
        "Longitude": "0.0",
        "VisitNumber": "1",
        "Load": "LSD",
        "Feature": "WAB",
        "Type": "BD"
      },
      "NextBus3": {
        "OriginCode": "",
        "DestinationCode": "",
        "EstimatedArrival": "",
        "Monitored": 0,
        "Latitude": "",
        "Longitude": "",
        "VisitNumber": "",
        "Load": "",
        "Feature": "",
        "Type": ""
      }
    },
    {
      "ServiceNo": "14",
      "Operator": "SBST",
      "NextBus": {
        "OriginCode": "75009",
        "DestinationCode": "10009",
        "EstimatedArrival": "2024-03-01T08:03:00+08:00",
        "Monitored": 1,
        "Latitude": "1.3012",
        "Longitude": "103.8390",
        "Load": "SDA",
        "Type": "SD"
      },
      "NextBus2": {"EstimatedArrival": ""},
      "NextBus3": {"EstimatedArrival": ""}
    }
  ]
}`

func newTestClient(url string) *Client {
	client := NewClient(url, "test-key", time.Second)
	client.MaxRetries = 0
	return client
}

func TestFetchArrivals(t *testing.T) {
	var receivedQuery, receivedKey, receivedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedQuery = r.URL.RawQuery
		receivedKey = r.Header.Get("AccountKey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	arrivals, err := newTestClient(server.URL).FetchArrivals(context.Background(), "09047", nil)
	require.NoError(t, err)

	assert.Equal(t, "/BusArrivalv2", receivedPath)
	assert.Equal(t, "BusStopCode=09047", receivedQuery)
	assert.Equal(t, "test-key", receivedKey)

	require.Len(t, arrivals, 2)

	seven := arrivals[0]
	assert.Equal(t, "7", seven.ServiceNumber)
	assert.Equal(t, "SBST", seven.Operator)
	require.Len(t, seven.Slots, 2)

	first := seven.Slots[0]
	assert.True(t, first.Monitored)
	assert.Equal(t, ctdf.LoadTypeSeated, first.Load)
	assert.Equal(t, ctdf.VehicleTypeDouble, first.VehicleType)
	assert.Equal(t, &ctdf.Location{Latitude: 1.3035, Longitude: 103.834}, first.Location)
	assert.True(t, first.EstimatedArrival.Equal(time.Date(2024, 3, 1, 0, 5, 12, 0, time.UTC)))
	assert.True(t, first.LastChangedAt.IsZero())

	second := seven.Slots[1]
	assert.False(t, second.Monitored)
	assert.Nil(t, second.Location)
	assert.Equal(t, ctdf.LoadTypeLimitedStanding, second.Load)
	assert.Equal(t, ctdf.VehicleTypeBendy, second.VehicleType)

	assert.Len(t, arrivals[1].Slots, 1)
}

func TestFetchArrivalsServiceFilter(t *testing.T) {
	var receivedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedQuery = r.URL.RawQuery
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	arrivals, err := client.FetchArrivals(context.Background(), "09047", []string{"14"})
	require.NoError(t, err)
	assert.Equal(t, "BusStopCode=09047&ServiceNo=14", receivedQuery)
	require.Len(t, arrivals, 1)
	assert.Equal(t, "14", arrivals[0].ServiceNumber)

	arrivals, err = client.FetchArrivals(context.Background(), "09047", []string{"14", "7", "190"})
	require.NoError(t, err)
	assert.Equal(t, "BusStopCode=09047", receivedQuery)
	assert.Len(t, arrivals, 2)
}

func TestFetchArrivalsErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		statusCode int
	}{
		{name: "unauthorised", status: http.StatusUnauthorized, body: `{}`, statusCode: 401},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, statusCode: 500},
		{name: "bad json", status: http.StatusOK, body: `{"Services": [`, statusCode: 200},
		{name: "bad timestamp", status: http.StatusOK, body: `{"Services": [{"ServiceNo": "7", "NextBus": {"EstimatedArrival": "soon"}}]}`, statusCode: 200},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				w.Write([]byte(test.body))
			}))
			defer server.Close()

			arrivals, err := newTestClient(server.URL).FetchArrivals(context.Background(), "09047", nil)
			assert.Nil(t, arrivals)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, "09047", fetchErr.StopCode)
			assert.Equal(t, test.statusCode, fetchErr.StatusCode)
		})
	}
}

func TestFetchArrivalsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).FetchArrivals(context.Background(), "09047", nil)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 0, fetchErr.StatusCode)
}

func TestFetchArrivalsRetriesTemporaryFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.MaxRetries = 2
	client.RetryInterval = time.Millisecond

	arrivals, err := client.FetchArrivals(context.Background(), "09047", nil)
	require.NoError(t, err)
	assert.Len(t, arrivals, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchArrivalsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.MaxRetries = 3
	client.RetryInterval = time.Millisecond

	_, err := client.FetchArrivals(context.Background(), "09047", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
