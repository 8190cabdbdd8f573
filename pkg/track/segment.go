package track

// Certainty grades how trustworthy a segment's speed is, driven purely by
// the elapsed time between its two observed fixes.
type Certainty string

const (
	CertaintyHigh    Certainty = "high"    // elapsed <= high threshold
	CertaintyMedium  Certainty = "medium"  // elapsed <= medium threshold
	CertaintyLow     Certainty = "low"     // elapsed <= gap threshold
	CertaintyUnknown Certainty = "unknown" // beyond the gap threshold, never interpolated
)

// Classification is the outcome of segment analysis. These are ordinary
// data, not errors; a track full of gaps and conflicts still processes
// successfully.
type Classification string

const (
	ClassificationNormal           Classification = "normal"
	ClassificationStop             Classification = "stop"
	ClassificationGap              Classification = "gap"
	ClassificationTemporalConflict Classification = "temporal_conflict"
	ClassificationAnomaly          Classification = "anomaly"
)

// AnomalySeverity ranks how far past the plausible ceiling a segment's
// implied speed landed.
type AnomalySeverity string

const (
	AnomalySeverityMedium AnomalySeverity = "medium"
	AnomalySeverityHigh   AnomalySeverity = "high"
)

// SegmentSpeed is the single authoritative speed for one segment. SpeedKMH
// is nil when no defensible value exists (temporal conflict or an elapsed
// time past the gap threshold) - an explicit unknown is never replaced by
// an invented number.
type SegmentSpeed struct {
	SpeedKMH       *float64       `json:"speed_kmh" groups:"basic,forensic"`
	Certainty      Certainty      `json:"certainty" groups:"basic,forensic"`
	DistanceM      float64        `json:"distance_m" groups:"forensic"`
	ElapsedS       float64        `json:"elapsed_s" groups:"forensic"`
	Classification Classification `json:"classification" groups:"basic,forensic"`

	AnomalySeverity AnomalySeverity `json:"anomaly_severity,omitempty" groups:"forensic"`
}

// Valid reports whether the segment carries a usable speed value.
func (s SegmentSpeed) Valid() bool {
	return s.SpeedKMH != nil &&
		s.Classification != ClassificationTemporalConflict &&
		s.Classification != ClassificationGap
}

// Segment is the interval between two consecutive observed fixes, after
// coalescing. Segments are derived by the engine, exactly one per fix pair,
// and their speed is immutable once computed.
type Segment struct {
	Index int          `json:"index" groups:"forensic"`
	Start Fix          `json:"start" groups:"forensic"`
	End   Fix          `json:"end" groups:"forensic"`
	Speed SegmentSpeed `json:"speed" groups:"basic,forensic"`
}

// Interpolatable reports whether the resampler may generate interior points
// inside this segment.
func (s Segment) Interpolatable() bool {
	switch s.Speed.Classification {
	case ClassificationGap, ClassificationTemporalConflict:
		return false
	}
	return s.Speed.Certainty != CertaintyUnknown
}
