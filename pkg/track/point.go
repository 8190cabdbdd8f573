package track

import "time"

// Point is one entry of the final resampled sequence the engine hands to
// the wire serialiser. It is deliberately a different type from both Fix
// (raw input) and wire.Point (transport record): consumers animating these
// points may smooth positions between frames but must treat SpeedKMH as
// authoritative and never blend it.
type Point struct {
	Latitude  float64   `json:"latitude" groups:"basic"`
	Longitude float64   `json:"longitude" groups:"basic"`
	Timestamp time.Time `json:"timestamp" groups:"basic"`

	// SpeedKMH is copied verbatim from the owning segment. Every point in
	// a segment carries the identical value or is nil.
	SpeedKMH  *float64  `json:"speed_kmh" groups:"basic"`
	Certainty Certainty `json:"certainty" groups:"basic"`

	SegmentIndex int  `json:"segment_index" groups:"basic"`
	IsObserved   bool `json:"is_observed" groups:"basic"`

	IsGap        bool    `json:"is_gap,omitempty" groups:"forensic"`
	GapDurationS float64 `json:"gap_duration_s,omitempty" groups:"forensic"`
	IsConflict   bool    `json:"is_conflict,omitempty" groups:"forensic"`

	IsAnomaly       bool            `json:"is_anomaly,omitempty" groups:"forensic"`
	AnomalySeverity AnomalySeverity `json:"anomaly_severity,omitempty" groups:"forensic"`

	CoalescedCount int `json:"coalesced_count,omitempty" groups:"forensic"`

	HeadingDeg *float64 `json:"heading_deg,omitempty" groups:"basic"`
	AltitudeM  *float64 `json:"altitude_m,omitempty" groups:"basic"`
}
