package stopcatalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/travigo/nextbus/pkg/ctdf"
	"github.com/travigo/nextbus/pkg/util"
)

type stopRecord struct {
	Code        string   `json:"code" yaml:"code"`
	Description string   `json:"description" yaml:"description"`
	RoadName    string   `json:"roadName" yaml:"roadName"`
	Latitude    *float64 `json:"latitude" yaml:"latitude"`
	Longitude   *float64 `json:"longitude" yaml:"longitude"`
	Services    []string `json:"services" yaml:"services"`
}

func (r *stopRecord) toStop() (*ctdf.Stop, error) {
	var missing []string

	if strings.TrimSpace(r.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}
	if r.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if r.Longitude == nil {
		missing = append(missing, "longitude")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return &ctdf.Stop{
		Code:        strings.TrimSpace(r.Code),
		Description: strings.TrimSpace(r.Description),
		RoadName:    strings.TrimSpace(r.RoadName),
		Location: &ctdf.Location{
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
		},
		ServiceNumbers: util.RemoveDuplicateStrings(trimAll(r.Services), nil),
	}, nil
}

func trimAll(items []string) []string {
	trimmed := make([]string, 0, len(items))
	for _, item := range items {
		trimmed = append(trimmed, strings.TrimSpace(item))
	}

	return trimmed
}

var errKeyMismatch = errors.New("stop code does not match its key")
