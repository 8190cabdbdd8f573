package engine

import "errors"

// ErrProjection wraps any failure to construct the metric projection. It is
// the only per-track hard failure: without the projection no speed or
// position can be defended, so the whole track is rejected.
var ErrProjection = errors.New("metric projection construction failed")

// ErrConfig wraps a malformed configuration.
var ErrConfig = errors.New("invalid engine configuration")
