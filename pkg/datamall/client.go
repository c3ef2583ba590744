package datamall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/util"
)

const DefaultBaseURL = "http://datamall2.mytransport.sg/ltaodataservice"

type Client struct {
	BaseURL    string
	AccountKey string

	HTTPClient *http.Client

	// Retries after the first attempt for temporary failures
	MaxRetries     uint64
	RetryInterval  time.Duration
	maxBodyInBytes int64
}

func NewClient(baseURL string, accountKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		BaseURL:        baseURL,
		AccountKey:     accountKey,
		HTTPClient:     &http.Client{Timeout: timeout},
		MaxRetries:     1,
		RetryInterval:  250 * time.Millisecond,
		maxBodyInBytes: 4 << 20,
	}
}

// FetchArrivals returns the live arrivals at a stop. With a single service the
// filter is sent upstream; any filter is also applied to the response.
func (c *Client) FetchArrivals(ctx context.Context, stopCode string, services []string) ([]*ctdf.ServiceArrivals, error) {
	services = util.RemoveDuplicateStrings(services, nil)
	var arrivals []*ctdf.ServiceArrivals

	operation := func() error {
		var err error
		arrivals, err = c.fetchOnce(ctx, stopCode, services)

		var fetchErr *FetchError
		if errors.As(err, &fetchErr) && !fetchErr.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.InitialInterval = c.RetryInterval

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(retryPolicy, c.MaxRetries), ctx),
		func(err error, wait time.Duration) {
			log.Debug().Err(err).Str("stop", stopCode).Dur("wait", wait).Msg("Retrying arrivals fetch")
		},
	)
	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			err = &FetchError{StopCode: stopCode, Err: err}
		}
		return nil, err
	}

	return filterServices(arrivals, services), nil
}

func (c *Client) fetchOnce(ctx context.Context, stopCode string, services []string) ([]*ctdf.ServiceArrivals, error) {
	query := url.Values{}
	query.Set("BusStopCode", stopCode)
	if len(services) == 1 {
		query.Set("ServiceNo", services[0])
	}
	requestURL := fmt.Sprintf("%s/BusArrivalv2?%s", c.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &FetchError{StopCode: stopCode, Err: err}
	}
	req.Header.Set("AccountKey", c.AccountKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &FetchError{StopCode: stopCode, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit()))
	if err != nil {
		return nil, &FetchError{StopCode: stopCode, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			StopCode:   stopCode,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response %s", http.StatusText(resp.StatusCode)),
		}
	}

	var response BusArrivalResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &FetchError{StopCode: stopCode, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	arrivals, err := response.ToServiceArrivals()
	if err != nil {
		return nil, &FetchError{StopCode: stopCode, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return arrivals, nil
}

func (c *Client) bodyLimit() int64 {
	if c.maxBodyInBytes <= 0 {
		return 4 << 20
	}
	return c.maxBodyInBytes
}

func filterServices(arrivals []*ctdf.ServiceArrivals, services []string) []*ctdf.ServiceArrivals {
	if len(services) == 0 {
		return arrivals
	}

	wanted := map[string]bool{}
	for _, service := range services {
		wanted[service] = true
	}

	filtered := make([]*ctdf.ServiceArrivals, 0, len(arrivals))
	for _, service := range arrivals {
		if wanted[service.ServiceNumber] {
			filtered = append(filtered, service)
		}
	}

	return filtered
}
