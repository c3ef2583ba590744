package stopcatalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/ctdf"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported dataset extension %q", filepath.Ext(path))
	}
}

// Catalog is the in-memory stop index. It is never mutated after Parse returns,
// so it can be shared between goroutines without locking.
type Catalog struct {
	DataSource *ctdf.DataSource

	stops  []*ctdf.Stop
	byCode map[string]*ctdf.Stop
}

func Load(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &CatalogLoadError{Source: path, Err: err}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &CatalogLoadError{Source: path, Err: err}
	}
	defer file.Close()

	return Parse(path, format, file)
}

func Parse(source string, format Format, r io.Reader) (*Catalog, error) {
	catalog := &Catalog{
		DataSource: &ctdf.DataSource{
			OriginalFormat: string(format),
			Provider:       "nextbus",
			Dataset:        source,
		},
		byCode: map[string]*ctdf.Stop{},
	}

	var err error
	switch format {
	case FormatJSON:
		err = parseJSON(r, catalog.add)
	case FormatCSV:
		err = parseCSV(r, catalog.add)
	case FormatYAML:
		err = parseYAML(r, catalog.add)
	default:
		err = fmt.Errorf("unsupported dataset format %q", format)
	}

	if err != nil {
		var loadErr *CatalogLoadError
		if errors.As(err, &loadErr) {
			loadErr.Source = source
			return nil, loadErr
		}

		return nil, &CatalogLoadError{Source: source, Err: err}
	}

	if len(catalog.stops) == 0 {
		return nil, &CatalogLoadError{Source: source, Err: errors.New("dataset contains no stops")}
	}

	log.Debug().Str("source", source).Int("stops", len(catalog.stops)).Msg("Loaded stop catalog")

	return catalog, nil
}

// add converts and indexes a record, naming it by recordID in any error
func (c *Catalog) add(recordID string, record *stopRecord) error {
	stop, err := record.toStop()
	if err != nil {
		return &CatalogLoadError{Record: recordID, Err: err}
	}

	if _, exists := c.byCode[stop.Code]; exists {
		return &CatalogLoadError{Record: recordID, Err: fmt.Errorf("duplicate stop code %s", stop.Code)}
	}

	c.stops = append(c.stops, stop)
	c.byCode[stop.Code] = stop

	return nil
}

// All returns every stop in dataset order. The slice is a copy but the stops are shared.
func (c *Catalog) All() []*ctdf.Stop {
	stops := make([]*ctdf.Stop, len(c.stops))
	copy(stops, c.stops)

	return stops
}

func (c *Catalog) Get(code string) (*ctdf.Stop, bool) {
	stop, ok := c.byCode[code]
	return stop, ok
}

func (c *Catalog) Len() int {
	return len(c.stops)
}
