package engine

import (
	"github.com/trackforge/trackforge/pkg/track"
)

// Analysis summarises the forensic quality of one processed track, for
// reporting and review.
type Analysis struct {
	VehicleID string `json:"vehicle_id" groups:"basic,forensic"`

	SegmentCount  int `json:"segment_count" groups:"basic,forensic"`
	ValidSegments int `json:"valid_segments" groups:"basic,forensic"`
	GapSegments   int `json:"gap_segments" groups:"basic,forensic"`
	ConflictCount int `json:"conflict_segments" groups:"basic,forensic"`
	StopSegments  int `json:"stop_segments" groups:"basic,forensic"`
	AnomalyCount  int `json:"anomaly_segments" groups:"basic,forensic"`

	CertaintyDistribution map[track.Certainty]int `json:"certainty_distribution" groups:"forensic"`

	TotalDistanceM float64 `json:"total_distance_m" groups:"basic,forensic"`
	// TotalDurationS excludes temporal conflicts, whose elapsed time is
	// zero by definition but whose presence should not imply continuity.
	TotalDurationS float64 `json:"total_duration_s" groups:"basic,forensic"`

	AverageSpeedKMH *float64 `json:"average_speed_kmh" groups:"basic,forensic"`
	MaxSpeedKMH     *float64 `json:"max_speed_kmh" groups:"basic,forensic"`
	MinSpeedKMH     *float64 `json:"min_speed_kmh" groups:"basic,forensic"`

	// ReliabilityScore weighs the certainty distribution into a single
	// 0..1 figure: high counts fully, medium 0.6, low 0.3, unknown nothing.
	ReliabilityScore float64 `json:"reliability_score" groups:"basic,forensic"`
}

// Analyze builds the summary for a track whose segments have been
// calculated and classified.
func Analyze(t *track.Track) Analysis {
	analysis := Analysis{
		VehicleID:             t.VehicleID,
		SegmentCount:          len(t.Segments),
		CertaintyDistribution: map[track.Certainty]int{},
	}

	var validSpeeds []float64
	for _, segment := range t.Segments {
		analysis.CertaintyDistribution[segment.Speed.Certainty]++

		switch segment.Speed.Classification {
		case track.ClassificationGap:
			analysis.GapSegments++
		case track.ClassificationTemporalConflict:
			analysis.ConflictCount++
		case track.ClassificationStop:
			analysis.StopSegments++
		case track.ClassificationAnomaly:
			analysis.AnomalyCount++
		}

		if segment.Speed.Valid() {
			analysis.ValidSegments++
			validSpeeds = append(validSpeeds, *segment.Speed.SpeedKMH)
		}

		analysis.TotalDistanceM += segment.Speed.DistanceM
		if segment.Speed.Classification != track.ClassificationTemporalConflict {
			analysis.TotalDurationS += segment.Speed.ElapsedS
		}
	}

	if len(validSpeeds) > 0 {
		minSpeed, maxSpeed, sum := validSpeeds[0], validSpeeds[0], 0.0
		for _, speed := range validSpeeds {
			minSpeed = min(minSpeed, speed)
			maxSpeed = max(maxSpeed, speed)
			sum += speed
		}
		analysis.MinSpeedKMH = track.Float64(minSpeed)
		analysis.MaxSpeedKMH = track.Float64(maxSpeed)
		analysis.AverageSpeedKMH = track.Float64(sum / float64(len(validSpeeds)))
	}

	if analysis.SegmentCount > 0 {
		weighted := float64(analysis.CertaintyDistribution[track.CertaintyHigh])*1.0 +
			float64(analysis.CertaintyDistribution[track.CertaintyMedium])*0.6 +
			float64(analysis.CertaintyDistribution[track.CertaintyLow])*0.3
		analysis.ReliabilityScore = min(1.0, weighted/float64(analysis.SegmentCount))
	}

	return analysis
}
