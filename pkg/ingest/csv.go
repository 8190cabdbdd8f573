// Package ingest reads raw fix logs into tracks. The only supported input
// right now is CSV, the export format of most fleet recorders.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/paulcager/osgridref"
	"github.com/rs/zerolog/log"
	"github.com/trackforge/trackforge/pkg/track"
)

type fixRecord struct {
	VehicleID string `csv:"vehicle_id"`
	Timestamp string `csv:"timestamp"`

	Latitude  string `csv:"latitude"`
	Longitude string `csv:"longitude"`

	// UK recorders export OS grid coordinates instead of lat/lon
	Easting  string `csv:"easting"`
	Northing string `csv:"northing"`

	SpeedKMH   string `csv:"speed_kmh"`
	HeadingDeg string `csv:"heading_deg"`
	AltitudeM  string `csv:"altitude_m"`
}

// LoadFile reads one CSV file and groups its fixes into per-vehicle tracks,
// sorted by vehicle identifier. Rows that cannot be parsed are logged and
// skipped; a file that yields no usable rows at all is an error.
func LoadFile(path string) ([]*track.Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	tracks, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, t := range tracks {
		t.SourceFile = path
	}
	return tracks, nil
}

// Parse reads CSV fixes from reader and groups them into per-vehicle
// tracks.
func Parse(reader io.Reader) ([]*track.Track, error) {
	// Allow us to ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	var records []fixRecord
	if err := gocsv.Unmarshal(reader, &records); err != nil {
		return nil, err
	}

	byVehicle := map[string]*track.Track{}
	var skipped int

	for i, record := range records {
		fix, vehicleID, err := record.toFix()
		if err != nil {
			log.Warn().Int("row", i+1).Err(err).Msg("Skipping unparseable fix")
			skipped++
			continue
		}

		t := byVehicle[vehicleID]
		if t == nil {
			t = &track.Track{VehicleID: vehicleID}
			byVehicle[vehicleID] = t
		}
		t.Fixes = append(t.Fixes, fix)
	}

	if len(byVehicle) == 0 {
		return nil, fmt.Errorf("no usable fixes (%d rows skipped)", skipped)
	}
	if skipped > 0 {
		log.Info().Int("skipped", skipped).Int("loaded", len(records)-skipped).Msg("Fix rows skipped during load")
	}

	tracks := make([]*track.Track, 0, len(byVehicle))
	for _, t := range byVehicle {
		tracks = append(tracks, t)
	}
	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].VehicleID < tracks[j].VehicleID
	})

	return tracks, nil
}

func (r fixRecord) toFix() (track.Fix, string, error) {
	vehicleID := strings.TrimSpace(r.VehicleID)
	if vehicleID == "" {
		return track.Fix{}, "", fmt.Errorf("missing vehicle_id")
	}

	timestamp, err := parseTimestamp(strings.TrimSpace(r.Timestamp))
	if err != nil {
		return track.Fix{}, "", err
	}

	latitude, longitude, err := r.coordinates()
	if err != nil {
		return track.Fix{}, "", err
	}

	fix := track.Fix{
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: timestamp,
	}

	if value, err := optionalFloat(r.SpeedKMH); err == nil && value != nil {
		fix.SpeedKMH = value
	}
	if value, err := optionalFloat(r.HeadingDeg); err == nil && value != nil {
		fix.HeadingDeg = value
	}
	if value, err := optionalFloat(r.AltitudeM); err == nil && value != nil {
		fix.AltitudeM = value
	}

	return fix, vehicleID, nil
}

func (r fixRecord) coordinates() (float64, float64, error) {
	if r.Latitude != "" && r.Longitude != "" {
		latitude, err := strconv.ParseFloat(strings.TrimSpace(r.Latitude), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("latitude %q: %w", r.Latitude, err)
		}
		longitude, err := strconv.ParseFloat(strings.TrimSpace(r.Longitude), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("longitude %q: %w", r.Longitude, err)
		}
		if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
			return 0, 0, fmt.Errorf("coordinates out of range: %v, %v", latitude, longitude)
		}
		return latitude, longitude, nil
	}

	if r.Easting != "" && r.Northing != "" {
		gridRef, err := osgridref.ParseOsGridRef(fmt.Sprintf("%s,%s", r.Easting, r.Northing))
		if err != nil {
			return 0, 0, fmt.Errorf("grid reference %s,%s: %w", r.Easting, r.Northing, err)
		}
		latitude, longitude := gridRef.ToLatLon()
		return latitude, longitude, nil
	}

	return 0, 0, fmt.Errorf("no coordinates")
}

// timestampLayouts are the formats seen across recorder exports, tried in
// order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}

	for _, layout := range timestampLayouts {
		if timestamp, err := time.Parse(layout, value); err == nil {
			return timestamp.UTC(), nil
		}
	}

	// Bare numbers are epoch seconds, or milliseconds when too large to be
	// a plausible seconds value.
	if epoch, err := strconv.ParseInt(value, 10, 64); err == nil {
		if epoch > 1e12 {
			return time.UnixMilli(epoch).UTC(), nil
		}
		return time.Unix(epoch, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

func optionalFloat(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return track.Float64(parsed), nil
}
