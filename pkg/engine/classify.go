package engine

import (
	"github.com/trackforge/trackforge/pkg/track"
)

// classifySegments fills in the classification for every segment that the
// speed calculator left unclassified. Order matters: temporal conflicts and
// gaps disqualify a segment before stop or anomaly detection get a look in.
func classifySegments(segments []track.Segment, config Config) {
	for i := range segments {
		speed := &segments[i].Speed

		if speed.Classification != "" {
			// Conflict or zero-elapsed stop, already decided
			continue
		}

		switch {
		case speed.ElapsedS >= config.GapThresholdS:
			// Signal loss or device off. A single marker point will carry
			// the gap duration; nothing gets generated inside.
			speed.Classification = track.ClassificationGap
			speed.SpeedKMH = nil

		case speed.DistanceM < config.StopDistanceM && speed.ElapsedS >= config.MinStopTimeS:
			speed.Classification = track.ClassificationStop
			speed.SpeedKMH = track.Float64(0)

		case speed.SpeedKMH != nil && *speed.SpeedKMH > config.MaxPlausibleSpeedKMH:
			// Implausible, but still evidence. The segment stays in the
			// output carrying its flag, it is never hidden.
			speed.Classification = track.ClassificationAnomaly
			speed.AnomalySeverity = track.AnomalySeverityMedium
			if *speed.SpeedKMH > config.MaxPlausibleSpeedKMH*1.5 {
				speed.AnomalySeverity = track.AnomalySeverityHigh
			}

		default:
			speed.Classification = track.ClassificationNormal
		}
	}
}
