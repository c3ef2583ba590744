package stopcatalog

import (
	"bytes"
	_ "embed"
)

//go:embed data/stops.json
var bundledStops []byte

// LoadBundled parses the stop dataset compiled into the binary
func LoadBundled() (*Catalog, error) {
	return Parse("bundled:stops.json", FormatJSON, bytes.NewReader(bundledStops))
}

// Open loads the dataset at path, or the bundled one if path is empty
func Open(path string) (*Catalog, error) {
	if path == "" {
		return LoadBundled()
	}

	return Load(path)
}
