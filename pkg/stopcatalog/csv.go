package stopcatalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/paulcager/osgridref"
	"github.com/travigo/nextbus/pkg/util"
)

type csvRecord struct {
	Code        string `csv:"code"`
	Description string `csv:"description"`
	RoadName    string `csv:"road_name"`
	Latitude    string `csv:"latitude"`
	Longitude   string `csv:"longitude"`
	Easting     string `csv:"easting"`
	Northing    string `csv:"northing"`
	Services    string `csv:"services"`
}

func parseCSV(r io.Reader, add func(string, *stopRecord) error) error {
	var rows []*csvRecord
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	for index, row := range rows {
		// Header is line 1
		recordID := fmt.Sprintf("line %d", index+2)

		record, err := row.toRecord()
		if err != nil {
			return &CatalogLoadError{Record: recordID, Err: err}
		}

		if err := add(recordID, record); err != nil {
			return err
		}
	}

	return nil
}

func (c *csvRecord) toRecord() (*stopRecord, error) {
	record := &stopRecord{
		Code:        c.Code,
		Description: c.Description,
		RoadName:    c.RoadName,
		Services:    util.SplitList(c.Services, ";"),
	}

	latitude := strings.TrimSpace(c.Latitude)
	longitude := strings.TrimSpace(c.Longitude)
	easting := strings.TrimSpace(c.Easting)
	northing := strings.TrimSpace(c.Northing)

	switch {
	case latitude != "" && longitude != "":
		lat, err := strconv.ParseFloat(latitude, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q: %w", latitude, err)
		}
		lon, err := strconv.ParseFloat(longitude, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q: %w", longitude, err)
		}

		record.Latitude = &lat
		record.Longitude = &lon
	case easting != "" && northing != "":
		gridRef, err := osgridref.ParseOsGridRef(fmt.Sprintf("%s,%s", easting, northing))
		if err != nil {
			return nil, fmt.Errorf("invalid grid reference %s,%s: %w", easting, northing, err)
		}

		lat, lon := gridRef.ToLatLon()
		record.Latitude = &lat
		record.Longitude = &lon
	}

	return record, nil
}
