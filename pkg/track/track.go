package track

import "time"

// Track is the ordered fix sequence for one vehicle plus everything the
// engine derives from it. Tracks never share state with each other, so
// callers are free to process many of them in parallel.
type Track struct {
	VehicleID  string `json:"vehicle_id" groups:"basic,forensic"`
	SourceFile string `json:"source_file,omitempty" groups:"forensic"`

	Fixes    []Fix     `json:"fixes,omitempty" groups:"forensic"`
	Segments []Segment `json:"segments,omitempty" groups:"forensic"`
	Points   []Point   `json:"points,omitempty" groups:"basic"`
}

// Span returns the first and last fix timestamps. ok is false for an empty
// track.
func (t *Track) Span() (start, end time.Time, ok bool) {
	if len(t.Fixes) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.Fixes[0].Timestamp, t.Fixes[len(t.Fixes)-1].Timestamp, true
}

// Midpoint returns the centre of the track's bounding box, the anchor for
// the metric projection.
func (t *Track) Midpoint() (lat, lon float64, ok bool) {
	if len(t.Fixes) == 0 {
		return 0, 0, false
	}

	minLat, maxLat := t.Fixes[0].Latitude, t.Fixes[0].Latitude
	minLon, maxLon := t.Fixes[0].Longitude, t.Fixes[0].Longitude
	for _, fix := range t.Fixes[1:] {
		minLat = min(minLat, fix.Latitude)
		maxLat = max(maxLat, fix.Latitude)
		minLon = min(minLon, fix.Longitude)
		maxLon = max(maxLon, fix.Longitude)
	}

	return (minLat + maxLat) / 2, (minLon + maxLon) / 2, true
}
