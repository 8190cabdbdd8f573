// Package wire defines the transport record exchanged with the rendering
// collaborator. Types here are distinct from the engine's point types on
// purpose: a renderer consumes wire points, may micro-interpolate positions
// between them for frame-rate smoothness, but must treat speed_kmh as
// authoritative and never recompute or blend it.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/trackforge/trackforge/pkg/track"
	"golang.org/x/exp/slices"
)

const (
	UnitSpeed     = "km/h"
	UnitDistance  = "meters"
	UnitTimestamp = "epoch_ms"
	UnitAltitude  = "meters"
	UnitHeading   = "degrees"
)

const (
	CadenceUniform = "uniform"
	CadenceMixed   = "mixed"
	CadenceRaw     = "raw"
)

// ErrContractViolation wraps every decode-side rejection. Payloads with
// wrong units or broken monotonicity are refused outright, never coerced.
var ErrContractViolation = errors.New("wire contract violation")

// Point is one transport record. Index is zero-based and strictly
// monotonic; consumers snap animation anchors to it.
type Point struct {
	Index       int     `json:"index"`
	TimestampMS int64   `json:"timestamp_ms"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	SpeedKMH  *float64 `json:"speed_kmh"`
	Certainty string   `json:"certainty,omitempty"`

	SegmentID      int  `json:"segment_id"`
	IsObserved     bool `json:"is_observed"`
	IsInterpolated bool `json:"is_interpolated"`

	IsGap           bool    `json:"is_gap,omitempty"`
	GapDurationS    float64 `json:"gap_duration_s,omitempty"`
	IsConflict      bool    `json:"is_conflict,omitempty"`
	IsAnomaly       bool    `json:"is_anomaly,omitempty"`
	AnomalySeverity string  `json:"anomaly_severity,omitempty"`

	CoalescedCount int `json:"coalesced_count,omitempty"`

	AltitudeM  *float64 `json:"altitude_m,omitempty"`
	HeadingDeg *float64 `json:"heading_deg,omitempty"`
}

// SpeedStats carries track-level speed aggregates over valid segments.
type SpeedStats struct {
	AvgKMH *float64 `json:"avg_kmh"`
	MaxKMH *float64 `json:"max_kmh"`
	MinKMH *float64 `json:"min_kmh"`
}

// Meta describes the payload: explicit unit declarations, cadence and
// point/segment composition.
type Meta struct {
	DtMS    int64  `json:"dt_ms"`
	Cadence string `json:"cadence"`

	TotalPoints        int `json:"total_points"`
	ObservedPoints     int `json:"observed_points"`
	InterpolatedPoints int `json:"interpolated_points"`
	GapPoints          int `json:"gap_points"`
	ConflictPoints     int `json:"conflict_points"`

	SegmentCount int            `json:"segment_count,omitempty"`
	SegmentTypes map[string]int `json:"segment_types,omitempty"`

	SpeedStats *SpeedStats `json:"speed_stats,omitempty"`

	UnitSpeed     string `json:"unit_speed"`
	UnitDistance  string `json:"unit_distance"`
	UnitTimestamp string `json:"unit_timestamp"`
	UnitAltitude  string `json:"unit_altitude"`
	UnitHeading   string `json:"unit_heading"`
}

// Envelope is the full transport payload for one vehicle.
type Envelope struct {
	VehicleID string  `json:"vehicle_id"`
	Points    []Point `json:"points"`
	Meta      Meta    `json:"meta"`
}

// NewEnvelope converts a processed track into a transport envelope.
// stepMS is the nominal resampling step in milliseconds.
func NewEnvelope(t *track.Track, stepMS int64) *Envelope {
	envelope := &Envelope{
		VehicleID: t.VehicleID,
		Points:    make([]Point, 0, len(t.Points)),
		Meta: Meta{
			DtMS:          stepMS,
			Cadence:       detectCadence(t.Points),
			TotalPoints:   len(t.Points),
			UnitSpeed:     UnitSpeed,
			UnitDistance:  UnitDistance,
			UnitTimestamp: UnitTimestamp,
			UnitAltitude:  UnitAltitude,
			UnitHeading:   UnitHeading,
		},
	}

	for index, point := range t.Points {
		wirePoint := Point{
			Index:           index,
			TimestampMS:     point.Timestamp.UnixMilli(),
			Latitude:        point.Latitude,
			Longitude:       point.Longitude,
			SpeedKMH:        point.SpeedKMH,
			Certainty:       string(point.Certainty),
			SegmentID:       point.SegmentIndex,
			IsObserved:      point.IsObserved,
			IsInterpolated:  !point.IsObserved,
			IsGap:           point.IsGap,
			GapDurationS:    point.GapDurationS,
			IsConflict:      point.IsConflict,
			IsAnomaly:       point.IsAnomaly,
			AnomalySeverity: string(point.AnomalySeverity),
			CoalescedCount:  point.CoalescedCount,
			AltitudeM:       point.AltitudeM,
			HeadingDeg:      point.HeadingDeg,
		}
		envelope.Points = append(envelope.Points, wirePoint)

		if point.IsObserved {
			envelope.Meta.ObservedPoints++
		} else {
			envelope.Meta.InterpolatedPoints++
		}
		if point.IsGap {
			envelope.Meta.GapPoints++
		}
		if point.IsConflict {
			envelope.Meta.ConflictPoints++
		}
	}

	if len(t.Segments) > 0 {
		envelope.Meta.SegmentCount = len(t.Segments)
		envelope.Meta.SegmentTypes = map[string]int{}

		var valid []float64
		for _, segment := range t.Segments {
			envelope.Meta.SegmentTypes[string(segment.Speed.Classification)]++
			if segment.Speed.Valid() {
				valid = append(valid, *segment.Speed.SpeedKMH)
			}
		}

		if len(valid) > 0 {
			minSpeed, maxSpeed, sum := valid[0], valid[0], 0.0
			for _, speed := range valid {
				minSpeed = min(minSpeed, speed)
				maxSpeed = max(maxSpeed, speed)
				sum += speed
			}
			envelope.Meta.SpeedStats = &SpeedStats{
				AvgKMH: track.Float64(sum / float64(len(valid))),
				MaxKMH: track.Float64(maxSpeed),
				MinKMH: track.Float64(minSpeed),
			}
		}
	}

	return envelope
}

// Marshal serialises the envelope to JSON.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses and validates a wire payload. Any unit mismatch, index
// break or non-increasing timestamp is a contract violation.
func Decode(payload []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrContractViolation, err)
	}

	if err := envelope.Validate(); err != nil {
		return nil, err
	}

	return &envelope, nil
}

// Validate checks the envelope against the transport contract.
func (e *Envelope) Validate() error {
	if e.VehicleID == "" {
		return fmt.Errorf("%w: missing vehicle_id", ErrContractViolation)
	}
	if e.Meta.UnitTimestamp != UnitTimestamp {
		return fmt.Errorf("%w: timestamp unit %q, want %q", ErrContractViolation, e.Meta.UnitTimestamp, UnitTimestamp)
	}
	if e.Meta.UnitSpeed != UnitSpeed {
		return fmt.Errorf("%w: speed unit %q, want %q", ErrContractViolation, e.Meta.UnitSpeed, UnitSpeed)
	}
	if e.Meta.UnitDistance != UnitDistance {
		return fmt.Errorf("%w: distance unit %q, want %q", ErrContractViolation, e.Meta.UnitDistance, UnitDistance)
	}
	if !slices.Contains([]string{CadenceUniform, CadenceMixed, CadenceRaw}, e.Meta.Cadence) {
		return fmt.Errorf("%w: unknown cadence %q", ErrContractViolation, e.Meta.Cadence)
	}

	previousTimestamp := int64(math.MinInt64)
	for i, point := range e.Points {
		if point.Index != i {
			return fmt.Errorf("%w: point %d carries index %d", ErrContractViolation, i, point.Index)
		}
		if point.TimestampMS <= previousTimestamp {
			return fmt.Errorf("%w: timestamp not strictly increasing at point %d", ErrContractViolation, i)
		}
		previousTimestamp = point.TimestampMS

		if point.SpeedKMH != nil && *point.SpeedKMH < 0 {
			return fmt.Errorf("%w: negative speed at point %d", ErrContractViolation, i)
		}
	}

	return nil
}

// Track reconstructs the engine-side point sequence from a validated
// envelope, for consumers that want typed points rather than raw records.
func (e *Envelope) Track() *track.Track {
	t := &track.Track{VehicleID: e.VehicleID}
	for _, wirePoint := range e.Points {
		t.Points = append(t.Points, track.Point{
			Latitude:        wirePoint.Latitude,
			Longitude:       wirePoint.Longitude,
			Timestamp:       time.UnixMilli(wirePoint.TimestampMS).UTC(),
			SpeedKMH:        wirePoint.SpeedKMH,
			Certainty:       track.Certainty(wirePoint.Certainty),
			SegmentIndex:    wirePoint.SegmentID,
			IsObserved:      wirePoint.IsObserved,
			IsGap:           wirePoint.IsGap,
			GapDurationS:    wirePoint.GapDurationS,
			IsConflict:      wirePoint.IsConflict,
			IsAnomaly:       wirePoint.IsAnomaly,
			AnomalySeverity: track.AnomalySeverity(wirePoint.AnomalySeverity),
			CoalescedCount:  wirePoint.CoalescedCount,
			AltitudeM:       wirePoint.AltitudeM,
			HeadingDeg:      wirePoint.HeadingDeg,
		})
	}
	return t
}

// detectCadence inspects the actual point spacing. Payloads with fewer
// than two points are raw; spacing within 10ms of the mean is uniform.
func detectCadence(points []track.Point) string {
	if len(points) < 2 {
		return CadenceRaw
	}

	intervals := make([]float64, 0, len(points)-1)
	var sum float64
	for i := 1; i < len(points); i++ {
		dt := float64(points[i].Timestamp.Sub(points[i-1].Timestamp).Milliseconds())
		intervals = append(intervals, dt)
		sum += dt
	}

	mean := sum / float64(len(intervals))
	for _, dt := range intervals {
		if math.Abs(dt-mean) > 10 {
			return CadenceMixed
		}
	}
	return CadenceUniform
}
