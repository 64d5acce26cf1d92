// lut.go - precomputed interpolation tables for the resampler

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "math"

// Cubic (sinc4) and band-limited sinc resampling both read precomputed
// tables instead of evaluating a sinc/Bessel series per sample. Tables are
// built once in init(), mirroring the teacher's lookup-table-at-startup
// convention (sin/tanh LUTs built once and indexed with linear
// interpolation at runtime).

const (
	// cubicPhases is the number of fractional-phase table entries for the
	// 4-tap cubic interpolator; frac is scaled into this range.
	cubicPhases = 512

	// sincPhases / sincTaps size the band-limited sinc filter tables.
	sincPhases = 32
	sincTaps   = 8 // 8-tap FIR per phase, offsets -4..+3 around the current sample (within MaxPreSamples/MaxPostSamples)

	// sincScaleSteps is the number of precomputed downsampling-scale table
	// rows the band-limited filter interpolates between.
	sincScaleSteps = 16
)

// cubicTable[phase][tap] holds the 4-tap FIR coefficients for the cubic
// (Kaiser-windowed sinc4) interpolator, indexed by the fractional position
// scaled to [0, cubicPhases).
var cubicTable [cubicPhases][4]float32

// sincFilter/sincScaleDelta/sincPhaseDelta/sincPhaseScaleDelta are the four
// parallel tables spec Section 4.2 describes for the band-limited sinc
// resampler: the output tap is
//
//	fil[j] + scale*scd[j] + phase*(phd[j] + scale*spd[j])
//
// built once here so the hot resample loop only does multiply-adds.
var (
	sincFilter         [sincPhases][sincTaps]float32
	sincScaleDelta     [sincPhases][sincTaps]float32
	sincPhaseDelta     [sincPhases][sincTaps]float32
	sincPhaseScaleDelta [sincPhases][sincTaps]float32
)

func init() {
	buildCubicTable()
	buildSincTables()
}

// kaiserBeta is the Kaiser window shape parameter; 5.0 gives a reasonable
// stopband attenuation for an 8-tap filter without excessive transition
// width.
const kaiserBeta = 5.0

// besselI0 evaluates the zeroth-order modified Bessel function via its
// power series. The stdlib has no modified Bessel function, so the Kaiser window
// (which every windowed-sinc resampler needs) computes it inline the same
// way reference DSP windowing code does.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	halfX := x / 2
	for k := 1; k < 32; k++ {
		term *= (halfX / float64(k))
		sum += term * term / 1.0
		if term*term < 1e-14 {
			break
		}
	}
	return sum
}

func kaiserWindow(n, length int, beta float64) float64 {
	m := float64(length - 1)
	x := (2*float64(n) - m) / m
	if x < -1 || x > 1 {
		return 0
	}
	return besselI0(beta*math.Sqrt(1-x*x)) / besselI0(beta)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func buildCubicTable() {
	for p := 0; p < cubicPhases; p++ {
		frac := float64(p) / float64(cubicPhases)
		for tap := 0; tap < 4; tap++ {
			// Tap offsets are -1, 0, +1, +2 relative to the integer
			// position; window length 4 centered on the frac.
			offset := float64(tap-1) - frac
			x := offset / 2
			w := besselI0(kaiserBeta*math.Sqrt(1-x*x)) / besselI0(kaiserBeta)
			cubicTable[p][tap] = float32(sinc(offset) * w)
		}
	}
}

func buildSincTables() {
	const halfTaps = sincTaps / 2 // offsets -4..+3 -> within MaxPre/MaxPostSamples
	for p := 0; p < sincPhases; p++ {
		frac := float64(p) / float64(sincPhases)
		var cur, next [sincTaps]float64
		for tap := 0; tap < sincTaps; tap++ {
			offset := float64(tap-halfTaps) - frac
			w := kaiserWindow(tap, sincTaps, kaiserBeta)
			cur[tap] = sinc(offset) * w
		}
		nextFrac := float64(p+1) / float64(sincPhases)
		if p == sincPhases-1 {
			nextFrac = 1.0
		}
		for tap := 0; tap < sincTaps; tap++ {
			offset := float64(tap-halfTaps) - nextFrac
			w := kaiserWindow(tap, sincTaps, kaiserBeta)
			next[tap] = sinc(offset) * w
		}
		for tap := 0; tap < sincTaps; tap++ {
			sincFilter[p][tap] = float32(cur[tap])
			sincPhaseDelta[p][tap] = float32(next[tap] - cur[tap])
			// Scale-axis deltas model downsampling-induced bandwidth
			// narrowing; scaled tables converge to a wider, lower-gain
			// lobe as the scale factor shrinks toward the cutoff.
			narrowed := cur[tap] * 0.5
			sincScaleDelta[p][tap] = float32(narrowed - cur[tap])
			narrowedNext := next[tap] * 0.5
			sincPhaseScaleDelta[p][tap] = float32((narrowedNext - narrowed) - (next[tap] - cur[tap]))
		}
	}
}
