package engine

import (
	"math"
	"testing"
	"time"

	"github.com/trackforge/trackforge/pkg/track"
)

func TestInterpolateHeading(t *testing.T) {
	scenarios := []struct {
		name     string
		from, to float64
		ratio    float64
		expected float64
	}{
		{"simple", 10, 30, 0.5, 20},
		{"through north ascending", 350, 10, 0.5, 0},
		{"through north descending", 10, 350, 0.5, 0},
		{"quarter through north", 350, 10, 0.25, 355},
		{"no movement", 90, 90, 0.7, 90},
		{"opposite start", 0, 180, 0.5, 90},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			heading := interpolateHeading(scenario.from, scenario.to, scenario.ratio)
			if math.Abs(heading-scenario.expected) > 1e-9 {
				t.Errorf("interpolateHeading(%v, %v, %v) = %v, expected %v",
					scenario.from, scenario.to, scenario.ratio, heading, scenario.expected)
			}
		})
	}
}

func TestHeadingInterpolatedOnPoints(t *testing.T) {
	start := fixAt(46.0, 7.0, 0)
	start.HeadingDeg = track.Float64(350)
	end := fixAt(46.0005, 7.0, 2)
	end.HeadingDeg = track.Float64(10)

	result := process(t, newTestEngine(t), []track.Fix{start, end})

	var interior []track.Point
	for _, point := range result.Track.Points {
		if !point.IsObserved {
			interior = append(interior, point)
		}
	}
	if len(interior) != 1 {
		t.Fatalf("expected 1 interior point, got %d", len(interior))
	}
	if interior[0].HeadingDeg == nil {
		t.Fatal("expected interpolated heading")
	}
	if heading := *interior[0].HeadingDeg; math.Abs(heading) > 1e-9 {
		t.Errorf("midpoint of 350 to 10 should be 0, got %v", heading)
	}
}

func TestGridStaysAnchoredToSegmentStart(t *testing.T) {
	// Irregular fix times must not accumulate drift: every generated
	// timestamp sits exactly on start + k*step.
	fixes := []track.Fix{
		fixAt(46.0, 7.0, 0),
		fixAt(46.0005, 7.0, 3.7),
		fixAt(46.0010, 7.0, 8.4),
	}

	result := process(t, newTestEngine(t), fixes)

	for _, point := range result.Track.Points {
		if point.IsObserved {
			continue
		}
		segmentStart := result.Track.Segments[point.SegmentIndex].Start.Timestamp
		offset := point.Timestamp.Sub(segmentStart)
		if offset%time.Second != 0 {
			t.Errorf("point at %v is %v past its segment start, not on the 1s grid",
				point.Timestamp, offset)
		}
	}
}

func TestEndpointNeverEmittedTwice(t *testing.T) {
	// A 3.0s segment with a 1s step lands a grid instant exactly on the
	// endpoint, which must come out once, observed.
	fixes := []track.Fix{
		fixAt(46.0, 7.0, 0),
		fixAt(46.0005, 7.0, 3),
		fixAt(46.0010, 7.0, 6),
	}

	result := process(t, newTestEngine(t), fixes)

	seen := map[int64]int{}
	for _, point := range result.Track.Points {
		seen[point.Timestamp.UnixMilli()]++
	}
	for ts, count := range seen {
		if count > 1 {
			t.Errorf("timestamp %d emitted %d times", ts, count)
		}
	}
}

func TestObservedFixCarriesPrecedingSegmentSpeed(t *testing.T) {
	// A shared fix ends one segment and starts the next; its emitted point
	// belongs to the earlier segment.
	fixes := []track.Fix{
		fixAt(46.0, 7.0, 0),
		fixAt(46.0005, 7.0, 2),
		fixAt(46.0020, 7.0, 4),
	}

	result := process(t, newTestEngine(t), fixes)

	var shared *track.Point
	for i := range result.Track.Points {
		point := &result.Track.Points[i]
		if point.IsObserved && point.Timestamp.Equal(fixes[1].Timestamp) {
			shared = point
		}
	}
	if shared == nil {
		t.Fatal("middle fix missing from output")
	}
	if shared.SegmentIndex != 0 {
		t.Errorf("shared fix should belong to segment 0, got %d", shared.SegmentIndex)
	}

	firstSpeed := result.Track.Segments[0].Speed.SpeedKMH
	if shared.SpeedKMH == nil || firstSpeed == nil || *shared.SpeedKMH != *firstSpeed {
		t.Error("shared fix must carry the first segment's speed")
	}
}

func TestAltitudeInterpolatedLinearly(t *testing.T) {
	start := fixAt(46.0, 7.0, 0)
	start.AltitudeM = track.Float64(100)
	end := fixAt(46.0005, 7.0, 4)
	end.AltitudeM = track.Float64(140)

	result := process(t, newTestEngine(t), []track.Fix{start, end})

	for _, point := range result.Track.Points {
		if point.IsObserved {
			continue
		}
		if point.AltitudeM == nil {
			t.Fatal("expected interpolated altitude")
		}
		ratio := point.Timestamp.Sub(start.Timestamp).Seconds() / 4
		expected := 100 + ratio*40
		if math.Abs(*point.AltitudeM-expected) > 1e-9 {
			t.Errorf("altitude at ratio %v: got %v, expected %v", ratio, *point.AltitudeM, expected)
		}
	}
}

func TestOutOfOrderFixesAreSorted(t *testing.T) {
	fixes := []track.Fix{
		fixAt(46.0010, 7.0, 6),
		fixAt(46.0, 7.0, 0),
		fixAt(46.0005, 7.0, 3),
	}

	result := process(t, newTestEngine(t), fixes)

	previous := time.Time{}
	for _, point := range result.Track.Points {
		if !point.Timestamp.After(previous) {
			t.Fatalf("points not strictly increasing at %v", point.Timestamp)
		}
		previous = point.Timestamp
	}
}

func TestNullIslandFlagged(t *testing.T) {
	fixes := []track.Fix{
		fixAt(46.0, 7.0, 0),
		fixAt(0, 0, 3),
		fixAt(46.0005, 7.0, 6),
	}

	result := process(t, newTestEngine(t), fixes)

	if !result.Track.Fixes[1].Anomalous {
		t.Error("fix at 0,0 should be flagged anomalous")
	}
	if len(result.Track.Fixes) != 3 {
		t.Error("flagged fixes must stay in the track")
	}

	var flagged bool
	for _, point := range result.Track.Points {
		if point.IsObserved && point.Latitude == 0 && point.Longitude == 0 {
			flagged = point.IsAnomaly
		}
	}
	if !flagged {
		t.Error("observed point from a flagged fix must carry the anomaly marker")
	}
}
