package wire

import (
	"errors"
	"testing"
	"time"

	"github.com/trackforge/trackforge/pkg/track"
)

func testTrack() *track.Track {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t := &track.Track{VehicleID: "bus-17"}
	for i := 0; i < 5; i++ {
		t.Points = append(t.Points, track.Point{
			Latitude:     46.0 + float64(i)*0.0001,
			Longitude:    7.0,
			Timestamp:    base.Add(time.Duration(i) * time.Second),
			SpeedKMH:     track.Float64(40),
			Certainty:    track.CertaintyHigh,
			SegmentIndex: i / 2,
			IsObserved:   i%2 == 0,
		})
	}
	t.Segments = []track.Segment{
		{Index: 0, Speed: track.SegmentSpeed{
			SpeedKMH:       track.Float64(40),
			Certainty:      track.CertaintyHigh,
			Classification: track.ClassificationNormal,
		}},
		{Index: 1, Speed: track.SegmentSpeed{
			Certainty:      track.CertaintyUnknown,
			Classification: track.ClassificationGap,
		}},
	}
	return t
}

func TestRoundTrip(t *testing.T) {
	envelope := NewEnvelope(testTrack(), 1000)

	payload, err := envelope.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.VehicleID != "bus-17" {
		t.Errorf("vehicle id lost: %q", decoded.VehicleID)
	}
	if len(decoded.Points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(decoded.Points))
	}
	if decoded.Meta.Cadence != CadenceUniform {
		t.Errorf("1s-spaced points should detect uniform, got %q", decoded.Meta.Cadence)
	}
	if decoded.Meta.ObservedPoints != 3 || decoded.Meta.InterpolatedPoints != 2 {
		t.Errorf("point counts wrong: observed=%d interpolated=%d",
			decoded.Meta.ObservedPoints, decoded.Meta.InterpolatedPoints)
	}
	if decoded.Meta.SegmentTypes["gap"] != 1 {
		t.Errorf("segment type counts wrong: %v", decoded.Meta.SegmentTypes)
	}
	if decoded.Meta.SpeedStats == nil || *decoded.Meta.SpeedStats.MaxKMH != 40 {
		t.Error("speed stats missing or wrong")
	}
}

func TestIndexIsZeroBasedAndMonotonic(t *testing.T) {
	envelope := NewEnvelope(testTrack(), 1000)

	for i, point := range envelope.Points {
		if point.Index != i {
			t.Fatalf("point %d carries index %d", i, point.Index)
		}
	}
}

func TestObservedAndInterpolatedAreExclusive(t *testing.T) {
	envelope := NewEnvelope(testTrack(), 1000)

	for _, point := range envelope.Points {
		if point.IsObserved == point.IsInterpolated {
			t.Errorf("point %d: is_observed=%v is_interpolated=%v",
				point.Index, point.IsObserved, point.IsInterpolated)
		}
	}
}

func TestValidateRejections(t *testing.T) {
	scenarios := []struct {
		name    string
		corrupt func(*Envelope)
	}{
		{"missing vehicle id", func(e *Envelope) { e.VehicleID = "" }},
		{"wrong timestamp unit", func(e *Envelope) { e.Meta.UnitTimestamp = "iso8601" }},
		{"wrong speed unit", func(e *Envelope) { e.Meta.UnitSpeed = "mph" }},
		{"wrong distance unit", func(e *Envelope) { e.Meta.UnitDistance = "feet" }},
		{"unknown cadence", func(e *Envelope) { e.Meta.Cadence = "sporadic" }},
		{"index gap", func(e *Envelope) { e.Points[2].Index = 7 }},
		{"duplicate timestamp", func(e *Envelope) { e.Points[2].TimestampMS = e.Points[1].TimestampMS }},
		{"timestamp regression", func(e *Envelope) { e.Points[3].TimestampMS = e.Points[0].TimestampMS - 1 }},
		{"negative speed", func(e *Envelope) { e.Points[0].SpeedKMH = track.Float64(-5) }},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			envelope := NewEnvelope(testTrack(), 1000)
			scenario.corrupt(envelope)

			payload, err := envelope.Marshal()
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			if _, err := Decode(payload); !errors.Is(err, ErrContractViolation) {
				t.Errorf("expected ErrContractViolation, got %v", err)
			}
		})
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`{"vehicle_id": `)); !errors.Is(err, ErrContractViolation) {
		t.Errorf("expected ErrContractViolation, got %v", err)
	}
}

func TestCadenceDetection(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	point := func(offset time.Duration) track.Point {
		return track.Point{Timestamp: base.Add(offset)}
	}

	scenarios := []struct {
		name     string
		points   []track.Point
		expected string
	}{
		{"empty", nil, CadenceRaw},
		{"single", []track.Point{point(0)}, CadenceRaw},
		{"uniform", []track.Point{point(0), point(time.Second), point(2 * time.Second)}, CadenceUniform},
		{"mixed", []track.Point{point(0), point(time.Second), point(5 * time.Second)}, CadenceMixed},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			if cadence := detectCadence(scenario.points); cadence != scenario.expected {
				t.Errorf("expected %q, got %q", scenario.expected, cadence)
			}
		})
	}
}

func TestTrackReconstruction(t *testing.T) {
	original := testTrack()
	envelope := NewEnvelope(original, 1000)

	rebuilt := envelope.Track()

	if rebuilt.VehicleID != original.VehicleID {
		t.Errorf("vehicle id lost: %q", rebuilt.VehicleID)
	}
	if len(rebuilt.Points) != len(original.Points) {
		t.Fatalf("expected %d points, got %d", len(original.Points), len(rebuilt.Points))
	}
	for i, point := range rebuilt.Points {
		if !point.Timestamp.Equal(original.Points[i].Timestamp) {
			t.Errorf("point %d timestamp drifted", i)
		}
		if point.Certainty != original.Points[i].Certainty {
			t.Errorf("point %d certainty lost", i)
		}
	}
}
