// Package engine turns a sparse, irregular GPS fix sequence into a
// time-uniform point sequence with one defensible speed per observed
// segment. The pipeline never fabricates behaviour that was not observed:
// unknowable speeds stay nil, gaps are never bridged, anomalies are flagged
// but never hidden.
package engine

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/trackforge/trackforge/pkg/projection"
	"github.com/trackforge/trackforge/pkg/track"
)

// Engine is a pure per-track transform. It holds no mutable state between
// calls, performs no I/O and owns no cache, so one instance may serve any
// number of goroutines processing different tracks.
type Engine struct {
	config Config
}

// Result is the outcome of processing one track.
type Result struct {
	Track    *track.Track
	Analysis Analysis

	// Partial is set when processing was cancelled mid-track; Track then
	// holds the points resampled so far.
	Partial bool
}

// New validates the configuration and returns an engine.
func New(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfig, err)
	}
	return &Engine{config: config}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Process runs the full pipeline over one track: coalescing, projection
// setup, segment speed calculation, classification, resampling. The input
// track is never mutated. Fewer than two fixes is not an error; the input
// comes back untouched. The only hard failure is a projection that cannot
// be constructed.
func (e *Engine) Process(ctx context.Context, input *track.Track) (*Result, error) {
	working := &track.Track{}
	if err := copier.CopyWithOption(working, input, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy track %s: %w", input.VehicleID, err)
	}

	if len(working.Fixes) < 2 {
		log.Debug().Str("vehicle", working.VehicleID).Msg("Fewer than 2 fixes, nothing to derive")
		return &Result{Track: working, Analysis: Analyze(working)}, nil
	}

	working.Fixes = sortFixes(working.Fixes)
	flagSuspectFixes(working.Fixes)
	working.Fixes = coalesceDuplicates(working.Fixes)

	if len(working.Fixes) < 2 {
		return &Result{Track: working, Analysis: Analyze(working)}, nil
	}

	midLat, midLon, _ := working.Midpoint()
	proj, err := projection.NewLocal(midLat, midLon)
	if err != nil {
		return nil, fmt.Errorf("%w: track %s: %s", ErrProjection, working.VehicleID, err)
	}

	working.Segments = calculateSegments(working.Fixes, proj, e.config)
	classifySegments(working.Segments, e.config)

	points, partial := resample(ctx, working.VehicleID, working.Segments, proj, e.config)
	working.Points = points

	result := &Result{
		Track:    working,
		Analysis: Analyze(working),
		Partial:  partial,
	}

	log.Debug().
		Str("vehicle", working.VehicleID).
		Int("fixes", len(working.Fixes)).
		Int("segments", len(working.Segments)).
		Int("points", len(working.Points)).
		Bool("partial", partial).
		Msg("Track processed")

	return result, nil
}
