// distance.go - OpenAL distance attenuation models

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "math"

// DistanceModel selects the function mapping source-listener distance to a
// direct-path gain multiplier.
type DistanceModel int

const (
	DistanceNone DistanceModel = iota
	DistanceInverse
	DistanceInverseClamped
	DistanceLinear
	DistanceLinearClamped
	DistanceExponent
	DistanceExponentClamped
)

func (m DistanceModel) clamped() bool {
	switch m {
	case DistanceInverseClamped, DistanceLinearClamped, DistanceExponentClamped:
		return true
	default:
		return false
	}
}

// Attenuation computes the direct-path gain multiplier for distance d given
// minDist/maxDist/rolloff, per spec Section 8 invariant 9 and the OpenAL
// reference formulas.
func (m DistanceModel) Attenuation(distance, minDist, maxDist, rolloff float64) float64 {
	if m == DistanceNone {
		return 1.0
	}
	d := distance
	if m.clamped() {
		if d < minDist {
			d = minDist
		}
		if d > maxDist {
			d = maxDist
		}
	}
	switch m {
	case DistanceInverse, DistanceInverseClamped:
		denom := minDist + rolloff*(d-minDist)
		if denom <= 0 {
			return 1.0
		}
		return minDist / denom
	case DistanceLinear, DistanceLinearClamped:
		span := maxDist - minDist
		if span <= 0 {
			return 1.0
		}
		g := 1.0 - rolloff*(d-minDist)/span
		if g < 0 {
			g = 0
		}
		return g
	case DistanceExponent, DistanceExponentClamped:
		if minDist <= 0 || d <= 0 {
			return 1.0
		}
		return math.Pow(d/minDist, -rolloff)
	default:
		return 1.0
	}
}
