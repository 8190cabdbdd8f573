package projection

import (
	"math"
	"testing"
)

func TestCentreMapsToOrigin(t *testing.T) {
	p, err := NewLocal(45.4215, -75.6972)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	x, y := p.Forward(45.4215, -75.6972)
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("centre projected to (%.9f, %.9f), expected origin", x, y)
	}
}

func TestRoundTrip(t *testing.T) {
	p, err := NewLocal(46.0, 7.0)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	cases := []struct{ lat, lon float64 }{
		{46.0, 7.0},
		{46.05, 7.1},
		{45.9, 6.85},
		{46.5, 7.5},
	}

	for _, tc := range cases {
		x, y := p.Forward(tc.lat, tc.lon)
		lat, lon := p.Inverse(x, y)

		if math.Abs(lat-tc.lat) > 1e-9 || math.Abs(lon-tc.lon) > 1e-9 {
			t.Errorf("round trip (%v, %v) -> (%v, %v)", tc.lat, tc.lon, lat, lon)
		}
	}
}

func TestDistanceMatchesKnownValue(t *testing.T) {
	// One degree of latitude is ~111.2 km on a spherical earth
	p, err := NewLocal(46.5, 7.0)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	d := p.DistanceM(46.0, 7.0, 47.0, 7.0)
	if d < 111000 || d > 111400 {
		t.Errorf("expected ~111.2 km, got %.0f m", d)
	}
}

func TestDistanceAtHighLatitude(t *testing.T) {
	// Longitude degrees shrink with latitude; at 60N one degree of
	// longitude is ~55.6 km. A projection that worked in raw degrees
	// would be off by a factor of two here.
	p, err := NewLocal(60.0, 10.5)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	d := p.DistanceM(60.0, 10.0, 60.0, 11.0)
	if d < 55300 || d > 55900 {
		t.Errorf("expected ~55.6 km, got %.0f m", d)
	}
}

func TestInvalidCentreRejected(t *testing.T) {
	cases := []struct{ lat, lon float64 }{
		{math.NaN(), 0},
		{0, math.NaN()},
		{91, 0},
		{-91, 0},
		{0, 181},
		{0, math.Inf(1)},
	}

	for _, tc := range cases {
		if _, err := NewLocal(tc.lat, tc.lon); err == nil {
			t.Errorf("NewLocal(%v, %v) accepted an invalid centre", tc.lat, tc.lon)
		}
	}
}

func TestMidpointInterpolationMatchesSegmentDistance(t *testing.T) {
	// Walking to the metric midpoint and back must cover exactly half the
	// segment distance, since interpolation happens in the same plane the
	// distance was measured in.
	p, err := NewLocal(46.0, 7.0)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	x1, y1 := p.Forward(46.0, 7.0)
	x2, y2 := p.Forward(46.01, 7.02)

	mx, my := x1+(x2-x1)/2, y1+(y2-y1)/2
	midLat, midLon := p.Inverse(mx, my)

	full := p.DistanceM(46.0, 7.0, 46.01, 7.02)
	half := p.DistanceM(46.0, 7.0, midLat, midLon)

	if math.Abs(half*2-full) > 1e-6 {
		t.Errorf("midpoint distance %.9f m is not half of %.9f m", half, full)
	}
}
