package datamall

import "fmt"

// FetchError is returned for network failures, non-2xx responses and bodies
// that cannot be decoded. StatusCode is zero when no response was received.
type FetchError struct {
	StopCode   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch arrivals for stop %s: status %d: %v", e.StopCode, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetch arrivals for stop %s: %v", e.StopCode, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same request could succeed
func (e *FetchError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}
