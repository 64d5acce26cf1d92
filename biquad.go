// biquad.go - direct-form-I two-pole IIR filter

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "math"

// FilterType selects a biquad's response shape. FilterNone applies
// passthrough only (state still advances, so interpolator history stays
// consistent if the type changes later).
type FilterType int

const (
	FilterNone FilterType = iota
	FilterLowPass
	FilterHighPass
	FilterBandPass
	FilterLowShelf
	FilterHighShelf
	FilterPeaking
)

// Biquad is a direct-form-I second-order section with per-sample state.
type Biquad struct {
	a1, a2, b0, b1, b2 float32
	x0, x1, y0, y1     float32
}

// SetParams computes {a1,a2,b0,b1,b2} for the given response type, gain
// (linear, used by shelf/peaking types), freqScale (center/cutoff frequency
// divided by the device sample rate), and rcpQ (reciprocal Q).
func (b *Biquad) SetParams(typ FilterType, gain, freqScale, rcpQ float32) {
	w0 := 2 * math.Pi * float64(freqScale)
	sinW0, cosW0 := math.Sincos(w0)
	alpha := sinW0 / 2 * float64(rcpQ0(rcpQ))

	switch typ {
	case FilterLowPass:
		b0 := (1 - cosW0) / 2
		b1 := 1 - cosW0
		b2 := (1 - cosW0) / 2
		a0 := 1 + alpha
		a1 := -2 * cosW0
		a2 := 1 - alpha
		b.store(b0, b1, b2, a0, a1, a2)
	case FilterHighPass:
		b0 := (1 + cosW0) / 2
		b1 := -(1 + cosW0)
		b2 := (1 + cosW0) / 2
		a0 := 1 + alpha
		a1 := -2 * cosW0
		a2 := 1 - alpha
		b.store(b0, b1, b2, a0, a1, a2)
	case FilterBandPass:
		b0 := alpha
		b1 := 0.0
		b2 := -alpha
		a0 := 1 + alpha
		a1 := -2 * cosW0
		a2 := 1 - alpha
		b.store(b0, b1, b2, a0, a1, a2)
	case FilterLowShelf:
		A := math.Sqrt(float64(gain))
		beta := math.Sqrt(A) * float64(rcpQ0(rcpQ))
		b0 := A * ((A + 1) - (A-1)*cosW0 + beta*sinW0)
		b1 := 2 * A * ((A - 1) - (A+1)*cosW0)
		b2 := A * ((A + 1) - (A-1)*cosW0 - beta*sinW0)
		a0 := (A + 1) + (A-1)*cosW0 + beta*sinW0
		a1 := -2 * ((A - 1) + (A+1)*cosW0)
		a2 := (A + 1) + (A-1)*cosW0 - beta*sinW0
		b.store(b0, b1, b2, a0, a1, a2)
	case FilterHighShelf:
		A := math.Sqrt(float64(gain))
		beta := math.Sqrt(A) * float64(rcpQ0(rcpQ))
		b0 := A * ((A + 1) + (A-1)*cosW0 + beta*sinW0)
		b1 := -2 * A * ((A - 1) + (A+1)*cosW0)
		b2 := A * ((A + 1) + (A-1)*cosW0 - beta*sinW0)
		a0 := (A + 1) - (A-1)*cosW0 + beta*sinW0
		a1 := 2 * ((A - 1) - (A+1)*cosW0)
		a2 := (A + 1) - (A-1)*cosW0 - beta*sinW0
		b.store(b0, b1, b2, a0, a1, a2)
	case FilterPeaking:
		A := math.Sqrt(float64(gain))
		b0 := 1 + alpha*A
		b1 := -2 * cosW0
		b2 := 1 - alpha*A
		a0 := 1 + alpha/A
		a1 := -2 * cosW0
		a2 := 1 - alpha/A
		b.store(b0, b1, b2, a0, a1, a2)
	default:
		b.a1, b.a2, b.b0, b.b1, b.b2 = 0, 0, 1, 0, 0
	}
}

// rcpQ0 guards against a zero reciprocal-Q collapsing alpha to zero.
func rcpQ0(rcpQ float32) float32 {
	if rcpQ <= 0 {
		return 1
	}
	return rcpQ
}

func (b *Biquad) store(b0, b1, b2, a0, a1, a2 float64) {
	b.b0 = float32(b0 / a0)
	b.b1 = float32(b1 / a0)
	b.b2 = float32(b2 / a0)
	b.a1 = float32(a1 / a0)
	b.a2 = float32(a2 / a0)
}

// Process applies the difference equation to n samples of src, writing to
// dst (which may alias src).
func (b *Biquad) Process(dst, src []float32, n int) {
	for i := 0; i < n; i++ {
		x := src[i]
		y := b.b0*x + b.b1*b.x0 + b.b2*b.x1 - b.a1*b.y0 - b.a2*b.y1
		b.x1, b.x0 = b.x0, x
		b.y1, b.y0 = b.y0, y
		dst[i] = y
	}
}

// Passthrough copies n samples of src to dst unmodified (dst may alias
// src) while advancing x/y history from the real samples that flowed
// through, so a later switch from FilterNone to an active filter type
// resumes from the true recent signal instead of a stale or zeroed one.
func (b *Biquad) Passthrough(dst, src []float32, n int) {
	for i := 0; i < n; i++ {
		x := src[i]
		b.x1, b.x0 = b.x0, x
		b.y1, b.y0 = b.y0, x
		dst[i] = x
	}
}

// CalcRcpQFromSlope computes the reciprocal Q for a shelf filter from its
// linear gain and a slope parameter, per spec 4.8's
// calc_rcpQ_from_slope(gain, 0.75).
func CalcRcpQFromSlope(gain, slope float32) float32 {
	g := float64(gain)
	s := float64(slope)
	v := math.Sqrt((g+1/g)*(1/s-1) + 2)
	if v <= 0 {
		return 1
	}
	return float32(v)
}
