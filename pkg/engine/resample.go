package engine

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trackforge/trackforge/pkg/projection"
	"github.com/trackforge/trackforge/pkg/track"
)

// uniformCadenceToleranceS is how far a fix interval may drift from the
// configured step and still count as already-uniform input.
const uniformCadenceToleranceS = 0.01

// emitEpsilon guards the segment-end comparison so a grid instant landing
// on the endpoint (within float noise) is not emitted twice.
const emitEpsilon = time.Millisecond

// resample walks the classified segments and produces the final
// time-uniform point sequence. ctx is checked once per segment boundary;
// on cancellation the points emitted so far are returned with partial set.
func resample(ctx context.Context, vehicleID string, segments []track.Segment, proj *projection.Local, config Config) (points []track.Point, partial bool) {
	if len(segments) == 0 {
		return nil, false
	}

	step := time.Duration(config.InterpolationStepSeconds * float64(time.Second))

	// Already-uniform input passes through untouched. Synthetic points are
	// never added to data that is already on the requested cadence.
	if fixesAreUniform(segments, config.InterpolationStepSeconds) {
		return passthroughPoints(segments), false
	}

	points = make([]track.Point, 0, len(segments)*2)
	points = append(points, observedPoint(segments[0].Start, segments[0]))

	for _, segment := range segments {
		select {
		case <-ctx.Done():
			log.Warn().
				Str("vehicle", vehicleID).
				Int("segment", segment.Index).
				Msg("Resampling cancelled, returning partial result")
			return points, true
		default:
		}

		switch {
		case !segment.Interpolatable():
			// Gap, conflict or unknown certainty: no interior points.
			// The marker metadata lives on the already-emitted start.
			markDisqualified(&points[len(points)-1], segment)

		case segment.Speed.ElapsedS <= 0:
			// Zero-duration non-conflict leftovers cannot host a grid
			log.Warn().
				Str("vehicle", vehicleID).
				Int("segment", segment.Index).
				Float64("elapsed_s", segment.Speed.ElapsedS).
				Msg("Degenerate segment skipped")

		default:
			points = append(points, interiorPoints(segment, step, proj)...)
		}

		endPoint := observedPoint(segment.End, segment)
		if last := &points[len(points)-1]; !endPoint.Timestamp.After(last.Timestamp) {
			// A conflict pair shares a single instant. The end fix folds
			// into the marker point already standing there, keeping the
			// output strictly increasing in time.
			if endPoint.IsAnomaly {
				last.IsAnomaly = true
			}
			continue
		}
		points = append(points, endPoint)
	}

	return points, false
}

// interiorPoints generates the grid-quantized samples strictly inside one
// segment. Sample instants are start + k*step for integer k, so timestamps
// never accumulate floating point drift across segments. Positions are
// interpolated in metric space and converted back; interpolating raw
// degrees would squash east-west distances at high latitude.
func interiorPoints(segment track.Segment, step time.Duration, proj *projection.Local) []track.Point {
	start, end := segment.Start, segment.End
	duration := end.Timestamp.Sub(start.Timestamp)

	x0, y0 := proj.Forward(start.Latitude, start.Longitude)
	x1, y1 := proj.Forward(end.Latitude, end.Longitude)

	var points []track.Point
	for k := 1; ; k++ {
		emitAt := start.Timestamp.Add(time.Duration(k) * step)
		if !emitAt.Before(end.Timestamp.Add(-emitEpsilon)) {
			break
		}

		ratio := float64(emitAt.Sub(start.Timestamp)) / float64(duration)
		lat, lon := proj.Inverse(x0+ratio*(x1-x0), y0+ratio*(y1-y0))

		point := track.Point{
			Latitude:     lat,
			Longitude:    lon,
			Timestamp:    emitAt,
			SpeedKMH:     segment.Speed.SpeedKMH,
			Certainty:    segment.Speed.Certainty,
			SegmentIndex: segment.Index,
			IsObserved:   false,
		}
		applyAnomaly(&point, segment)

		if start.HeadingDeg != nil && end.HeadingDeg != nil {
			point.HeadingDeg = track.Float64(interpolateHeading(*start.HeadingDeg, *end.HeadingDeg, ratio))
		}
		if start.AltitudeM != nil && end.AltitudeM != nil {
			point.AltitudeM = track.Float64(*start.AltitudeM + ratio*(*end.AltitudeM-*start.AltitudeM))
		}

		points = append(points, point)
	}

	return points
}

// interpolateHeading takes the shortest angular path, so 350° to 10° passes
// through north instead of swinging through 180°.
func interpolateHeading(from, to, ratio float64) float64 {
	delta := math.Mod(to-from, 360)
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}

	heading := math.Mod(from+ratio*delta, 360)
	if heading < 0 {
		heading += 360
	}
	return heading
}

// observedPoint converts an original fix into an output point carrying its
// owning segment's speed and certainty.
func observedPoint(fix track.Fix, segment track.Segment) track.Point {
	point := track.Point{
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		Timestamp:      fix.Timestamp,
		SpeedKMH:       segment.Speed.SpeedKMH,
		Certainty:      segment.Speed.Certainty,
		SegmentIndex:   segment.Index,
		IsObserved:     true,
		CoalescedCount: fix.CoalescedCount,
		HeadingDeg:     fix.HeadingDeg,
		AltitudeM:      fix.AltitudeM,
	}
	applyAnomaly(&point, segment)
	if fix.Anomalous {
		point.IsAnomaly = true
	}
	return point
}

func applyAnomaly(point *track.Point, segment track.Segment) {
	if segment.Speed.Classification == track.ClassificationAnomaly {
		point.IsAnomaly = true
		point.AnomalySeverity = segment.Speed.AnomalySeverity
	}
}

// markDisqualified attaches gap or conflict metadata to the point standing
// at the start of a segment the resampler refused to fill.
func markDisqualified(point *track.Point, segment track.Segment) {
	switch segment.Speed.Classification {
	case track.ClassificationTemporalConflict:
		point.IsConflict = true
	default:
		point.IsGap = true
		point.GapDurationS = segment.Speed.ElapsedS
	}
}

// fixesAreUniform reports whether every segment already sits on the
// configured step within tolerance.
func fixesAreUniform(segments []track.Segment, stepS float64) bool {
	for _, segment := range segments {
		if math.Abs(segment.Speed.ElapsedS-stepS) > uniformCadenceToleranceS {
			return false
		}
	}
	return true
}

// passthroughPoints re-emits the original fixes unchanged, every one
// observed, each carrying its owning segment's speed.
func passthroughPoints(segments []track.Segment) []track.Point {
	points := make([]track.Point, 0, len(segments)+1)
	points = append(points, observedPoint(segments[0].Start, segments[0]))
	for _, segment := range segments {
		points = append(points, observedPoint(segment.End, segment))
	}
	return points
}
