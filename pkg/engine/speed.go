package engine

import (
	"github.com/trackforge/trackforge/pkg/projection"
	"github.com/trackforge/trackforge/pkg/track"
)

// calculateSegments derives exactly one segment per consecutive fix pair,
// each with a single constant speed. Distance always comes from the shared
// metric projection so it agrees exactly with the interpolation geometry.
func calculateSegments(fixes []track.Fix, proj *projection.Local, config Config) []track.Segment {
	if len(fixes) < 2 {
		return nil
	}

	segments := make([]track.Segment, 0, len(fixes)-1)
	for i := 0; i < len(fixes)-1; i++ {
		start, end := fixes[i], fixes[i+1]

		distanceM := proj.DistanceM(start.Latitude, start.Longitude, end.Latitude, end.Longitude)
		elapsedS := end.Timestamp.Sub(start.Timestamp).Seconds()

		speed := track.SegmentSpeed{
			DistanceM: distanceM,
			ElapsedS:  elapsedS,
		}

		switch {
		case elapsedS == 0 && start.SameLocation(end):
			// Identical time and place pairs are coalesced upstream; one
			// can only survive here when the fixes differ in some other
			// attribute. A confirmed stationary reading either way.
			speed.SpeedKMH = track.Float64(0)
			speed.Certainty = track.CertaintyHigh
			speed.Classification = track.ClassificationStop

		case elapsedS == 0:
			// Same instant, different place. No elapsed time means no
			// speed; fabricating a minimum delta would invent evidence.
			speed.SpeedKMH = nil
			speed.Certainty = track.CertaintyLow
			speed.Classification = track.ClassificationTemporalConflict

		default:
			speed.Certainty = certaintyFor(elapsedS, config)
			if speed.Certainty == track.CertaintyUnknown {
				// Too long since the last fix to claim anything
				speed.SpeedKMH = nil
			} else {
				speed.SpeedKMH = track.Float64(distanceM / elapsedS * 3.6)
			}
		}

		segments = append(segments, track.Segment{
			Index: i,
			Start: start,
			End:   end,
			Speed: speed,
		})
	}

	return segments
}

func certaintyFor(elapsedS float64, config Config) track.Certainty {
	switch {
	case elapsedS <= config.HighCertaintyThresholdS:
		return track.CertaintyHigh
	case elapsedS <= config.MediumCertaintyThresholdS:
		return track.CertaintyMedium
	case elapsedS <= config.GapThresholdS:
		return track.CertaintyLow
	default:
		return track.CertaintyUnknown
	}
}
