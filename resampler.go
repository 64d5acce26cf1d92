// resampler.go - fractional-rate voice resampling

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

// Interpolator selects the resampling algorithm a voice uses to walk its
// source buffer at a fractional rate.
type Interpolator int

const (
	InterpPoint Interpolator = iota
	InterpLinear
	InterpCubic
	InterpSinc
)

// ResamplerState carries the fixed-point walk position across calls so a
// voice's resampling is seamless block to block; src must provide
// MaxPreSamples valid samples before index 0 and MaxPostSamples after the
// logical end for the cubic/sinc taps to read without special-casing edges.
type ResamplerState struct {
	Frac uint32 // fractional position, FractionBits wide
}

// sincScaleFactor derives the band-limited sinc filter's downsampling scale
// factor from the step increment, per spec 4.2: increments above
// FractionOne (downsampling) narrow the passband; below a cutoff the filter
// output is silence.
func sincScaleFactor(increment uint32) (scale float32, silent bool) {
	if increment <= FractionOne {
		return 1.0, false
	}
	s := float32(FractionOne) / float32(increment)
	const cutoff = 1.0 / float32(sincScaleSteps)
	if s < cutoff {
		return 0, true
	}
	return s, false
}

// Resample reads from src (which must have MaxPreSamples valid samples
// before index 0) and writes n output samples to dst, advancing state's
// fractional position by increment per output sample starting from frac.
// It returns the number of whole input samples consumed, for the caller to
// advance its buffer position by.
func Resample(interp Interpolator, src []float32, frac uint32, increment uint32, dst []float32, n int) (consumed int) {
	if increment == FractionOne && frac == 0 && interp != InterpSinc {
		// Degenerate case (spec 4.2): a 1:1 copy with zero fraction needs
		// no interpolation at all.
		copy(dst[:n], src[:n])
		return n
	}

	pos := 0
	switch interp {
	case InterpPoint:
		for i := 0; i < n; i++ {
			dst[i] = src[pos]
			frac += increment
			pos += int(frac >> FractionBits)
			frac &= FractionMask
		}
	case InterpLinear:
		for i := 0; i < n; i++ {
			a, b := src[pos], src[pos+1]
			t := float32(frac) / float32(FractionOne)
			dst[i] = a + (b-a)*t
			frac += increment
			pos += int(frac >> FractionBits)
			frac &= FractionMask
		}
	case InterpCubic:
		for i := 0; i < n; i++ {
			phase := int((uint64(frac) * cubicPhases) >> FractionBits)
			if phase >= cubicPhases {
				phase = cubicPhases - 1
			}
			coeffs := &cubicTable[phase]
			dst[i] = coeffs[0]*src[pos-1] + coeffs[1]*src[pos] + coeffs[2]*src[pos+1] + coeffs[3]*src[pos+2]
			frac += increment
			pos += int(frac >> FractionBits)
			frac &= FractionMask
		}
	case InterpSinc:
		scale, silent := sincScaleFactor(increment)
		if silent {
			for i := 0; i < n; i++ {
				dst[i] = 0
			}
			frac += increment * uint32(n)
			pos += int(frac >> FractionBits)
			return pos
		}
		const halfTaps = sincTaps / 2
		for i := 0; i < n; i++ {
			phase := int((uint64(frac) * sincPhases) >> FractionBits)
			if phase >= sincPhases {
				phase = sincPhases - 1
			}
			ph := float32(frac&FractionMask) / float32(FractionOne)
			fil := &sincFilter[phase]
			scd := &sincScaleDelta[phase]
			phd := &sincPhaseDelta[phase]
			spd := &sincPhaseScaleDelta[phase]
			var acc float32
			for tap := 0; tap < sincTaps; tap++ {
				coef := fil[tap] + scale*scd[tap] + ph*(phd[tap]+scale*spd[tap])
				acc += coef * src[pos-halfTaps+tap]
			}
			dst[i] = acc
			frac += increment
			pos += int(frac >> FractionBits)
			frac &= FractionMask
		}
	}
	return pos
}
