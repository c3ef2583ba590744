package stopcatalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// parseJSON accepts either an array of records or an object keyed by stop code.
// Objects are walked token by token so records keep their document order.
func parseJSON(r io.Reader, add func(string, *stopRecord) error) error {
	decoder := json.NewDecoder(r)

	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	switch token {
	case json.Delim('['):
		for index := 0; decoder.More(); index++ {
			var record stopRecord
			if err := decoder.Decode(&record); err != nil {
				return &CatalogLoadError{Record: strconv.Itoa(index), Err: err}
			}

			recordID := record.Code
			if recordID == "" {
				recordID = strconv.Itoa(index)
			}
			if err := add(recordID, &record); err != nil {
				return err
			}
		}
	case json.Delim('{'):
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				return fmt.Errorf("read dataset: %w", err)
			}
			key, _ := keyToken.(string)

			var record stopRecord
			if err := decoder.Decode(&record); err != nil {
				return &CatalogLoadError{Record: key, Err: err}
			}

			if record.Code == "" {
				record.Code = key
			} else if record.Code != key {
				return &CatalogLoadError{Record: key, Err: errKeyMismatch}
			}

			if err := add(key, &record); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("dataset must be a JSON array or object, found %v", token)
	}

	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	return nil
}
