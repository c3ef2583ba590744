package stopcatalog

import (
	"errors"
	"fmt"
)

var ErrCatalogLoad = errors.New("stop catalog load failed")

// CatalogLoadError is returned when a stop dataset is missing or malformed.
// Record names the offending record (stop code, object key or line) when known.
type CatalogLoadError struct {
	Source string
	Record string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("load stop catalog %s: %v", e.Source, e.Err)
	}

	return fmt.Sprintf("load stop catalog %s: record %s: %v", e.Source, e.Record, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

func (e *CatalogLoadError) Is(target error) bool {
	return target == ErrCatalogLoad
}
