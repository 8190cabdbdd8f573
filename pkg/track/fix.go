package track

import "time"

// Fix is a single observed GPS measurement for a vehicle. Coordinates are
// WGS84 decimal degrees. Optional source-reported fields are pointers so
// absence survives serialisation. A Fix is never modified after parsing;
// everything derived from it lives on Segment and Point.
type Fix struct {
	Latitude  float64   `json:"latitude" groups:"basic"`
	Longitude float64   `json:"longitude" groups:"basic"`
	Timestamp time.Time `json:"timestamp" groups:"basic"`

	SpeedKMH   *float64 `json:"speed_kmh,omitempty" groups:"basic"`
	HeadingDeg *float64 `json:"heading_deg,omitempty" groups:"basic"`
	AltitudeM  *float64 `json:"altitude_m,omitempty" groups:"basic"`

	// CoalescedCount is the number of identical samples this fix stands in
	// for. Zero for a fix that was observed once; 3 means three identical
	// time+place samples were collapsed into this anchor.
	CoalescedCount int `json:"coalesced_count,omitempty" groups:"forensic"`

	// Anomalous marks a fix that failed sanity checks (for example Null
	// Island). Anomalous fixes are kept, never dropped.
	Anomalous bool `json:"anomalous,omitempty" groups:"forensic"`
}

// SameLocation reports whether two fixes share exactly the same coordinates.
func (f Fix) SameLocation(other Fix) bool {
	return f.Latitude == other.Latitude && f.Longitude == other.Longitude
}

// Float64 returns a pointer to v, for filling optional fields.
func Float64(v float64) *float64 {
	return &v
}
