// Package projection provides a local tangent-plane coordinate transform so
// distance and interpolation math happen in metres instead of degrees. The
// same transform instance must serve both speed calculation and position
// interpolation; mixing it with haversine or per-degree approximations would
// let a segment's reported distance drift from the geometry of its
// interpolated points.
package projection

import (
	"fmt"
	"math"
)

const earthRadiusM = 6371000.0

// Local is an azimuthal equidistant projection on a spherical earth model,
// centred near the track being processed. Accuracy is excellent within the
// ~100 km extent a single vehicle track covers.
type Local struct {
	lat0, lon0 float64 // centre, radians
	sinLat0    float64
	cosLat0    float64
}

// NewLocal builds a projection centred on the given WGS84 coordinate. It
// returns an error rather than a degraded transform: the projection is a
// correctness requirement, and a track that cannot be projected cannot be
// processed at all.
func NewLocal(latDeg, lonDeg float64) (*Local, error) {
	if math.IsNaN(latDeg) || math.IsNaN(lonDeg) || math.IsInf(latDeg, 0) || math.IsInf(lonDeg, 0) {
		return nil, fmt.Errorf("projection centre is not a finite coordinate: %v, %v", latDeg, lonDeg)
	}
	if latDeg < -90 || latDeg > 90 || lonDeg < -180 || lonDeg > 180 {
		return nil, fmt.Errorf("projection centre out of range: %v, %v", latDeg, lonDeg)
	}

	lat0 := latDeg * math.Pi / 180
	return &Local{
		lat0:    lat0,
		lon0:    lonDeg * math.Pi / 180,
		sinLat0: math.Sin(lat0),
		cosLat0: math.Cos(lat0),
	}, nil
}

// Forward converts a WGS84 coordinate to planar metres relative to the
// projection centre. The centre itself maps to (0, 0).
func (p *Local) Forward(latDeg, lonDeg float64) (x, y float64) {
	lat := latDeg * math.Pi / 180
	dLon := lonDeg*math.Pi/180 - p.lon0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	cosDLon := math.Cos(dLon)

	cosC := p.sinLat0*sinLat + p.cosLat0*cosLat*cosDLon
	// Clamp against rounding before acos
	cosC = max(-1, min(1, cosC))
	c := math.Acos(cosC)

	// Radial scale factor c/sin(c), 1 at the centre
	k := 1.0
	if sinC := math.Sin(c); sinC != 0 {
		k = c / sinC
	}

	x = earthRadiusM * k * cosLat * math.Sin(dLon)
	y = earthRadiusM * k * (p.cosLat0*sinLat - p.sinLat0*cosLat*cosDLon)
	return x, y
}

// Inverse converts planar metres back to WGS84 degrees.
func (p *Local) Inverse(x, y float64) (latDeg, lonDeg float64) {
	rho := math.Hypot(x, y)
	if rho == 0 {
		return p.lat0 * 180 / math.Pi, p.lon0 * 180 / math.Pi
	}

	c := rho / earthRadiusM
	sinC := math.Sin(c)
	cosC := math.Cos(c)

	sinLat := cosC*p.sinLat0 + y*sinC*p.cosLat0/rho
	sinLat = max(-1, min(1, sinLat))
	lat := math.Asin(sinLat)
	lon := p.lon0 + math.Atan2(x*sinC, rho*p.cosLat0*cosC-y*p.sinLat0*sinC)

	latDeg = lat * 180 / math.Pi
	lonDeg = lon * 180 / math.Pi
	if lonDeg > 180 {
		lonDeg -= 360
	} else if lonDeg < -180 {
		lonDeg += 360
	}
	return latDeg, lonDeg
}

// DistanceM returns the planar distance in metres between two WGS84
// coordinates under this projection.
func (p *Local) DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	x1, y1 := p.Forward(lat1, lon1)
	x2, y2 := p.Forward(lat2, lon2)
	return math.Hypot(x2-x1, y2-y1)
}
