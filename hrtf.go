// hrtf.go - per-voice HRIR FIR convolution

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

// HRTFCoeffs holds the left/right ear impulse responses and each ear's integer
// sample delay applied before convolution, as derived per-block by the parameter
// engine (paramengine.go) from listener/source geometry.
type HRTFCoeffs struct {
	Coeffs [HRIRLen][2]float32 // [tap][ear]
	Delay  [2]int              // per-ear integer sample delay
	IrSize int
	Gain   float32
}

// HRTFState is the per-voice, per-direct-channel convolution state: a ring
// buffer of pending output contributions and an input history ring feeding
// the per-ear delay lines, per spec 4.5.
type HRTFState struct {
	Values  [HRIRLen][2]float32
	History [HRTFHistoryLen]float32
	Offset  uint32

	Current HRTFCoeffs
	Target  HRTFCoeffs
	fading  bool
	faded   int
}

// SetTarget installs new coefficients as the cross-fade target. If this is
// the first set (Current.IrSize == 0) it takes effect immediately with no
// fade, per the "Moving" tie-break in spec 4.7.
func (h *HRTFState) SetTarget(c HRTFCoeffs) {
	if h.Current.IrSize == 0 {
		h.Current = c
		h.Target = c
		h.fading = false
		return
	}
	h.Target = c
	h.fading = true
	h.faded = 0
}

// Process convolves n samples of in (mono direct-path input) into left/right
// output slices, running the cross-fade block first if a coefficient change
// is pending, per spec 4.5.
func (h *HRTFState) Process(in []float32, left, right []float32, n int) {
	i := 0
	if h.fading {
		fadeLeft := HRTFFadeLen - h.faded
		if fadeLeft > n {
			fadeLeft = n
		}
		for ; i < fadeLeft; i++ {
			t := float32(h.faded+i) / float32(HRTFFadeLen)
			oldGain := h.Current.Gain * (1 - t)
			newGain := h.Target.Gain * t
			h.step(in[i], left, right, i, h.Current, oldGain)
			h.stepAccumOnly(in[i], h.Target, newGain)
		}
		h.faded += fadeLeft
		if h.faded >= HRTFFadeLen {
			h.fading = false
			h.Current = h.Target
		}
	}
	for ; i < n; i++ {
		h.step(in[i], left, right, i, h.Current, h.Current.Gain)
	}
}

// step appends one input sample to history, accumulates its contribution
// into the ring using c's coefficients at the given gain, and emits the
// slot due this tick to left/right.
func (h *HRTFState) step(sample float32, left, right []float32, outIdx int, c HRTFCoeffs, gain float32) {
	h.History[h.Offset&HRTFHistoryMask] = sample
	leftIn := h.History[(h.Offset-uint32(c.Delay[0]))&HRTFHistoryMask] * gain
	rightIn := h.History[(h.Offset-uint32(c.Delay[1]))&HRTFHistoryMask] * gain
	for tap := 0; tap < c.IrSize; tap++ {
		idx := (h.Offset + uint32(tap)) & HRIRMask
		h.Values[idx][0] += c.Coeffs[tap][0] * leftIn
		h.Values[idx][1] += c.Coeffs[tap][1] * rightIn
	}
	slot := h.Offset & HRIRMask
	left[outIdx] += h.Values[slot][0]
	right[outIdx] += h.Values[slot][1]
	h.Values[slot][0] = 0
	h.Values[slot][1] = 0
	h.Offset++
}

// stepAccumOnly accumulates the fading-in target coefficient set's
// contribution into the shared ring without re-advancing history or
// emitting output (step already did both for this tick).
func (h *HRTFState) stepAccumOnly(sample float32, c HRTFCoeffs, gain float32) {
	offset := h.Offset - 1 // step already advanced Offset
	leftIn := h.History[(offset-uint32(c.Delay[0]))&HRTFHistoryMask] * gain
	rightIn := h.History[(offset-uint32(c.Delay[1]))&HRTFHistoryMask] * gain
	for tap := 0; tap < c.IrSize; tap++ {
		idx := (offset + uint32(tap)) & HRIRMask
		h.Values[idx][0] += c.Coeffs[tap][0] * leftIn
		h.Values[idx][1] += c.Coeffs[tap][1] * rightIn
	}
}

// DirectMix accumulates already-spatialized ambisonic content with a
// shared, symmetric coefficient array and no per-ear delay, per spec 4.5's
// direct-HRTF mixing mode.
func DirectMix(in []float32, out []float32, coeffs []float32, n int) {
	for i := 0; i < n; i++ {
		for tap := range coeffs {
			if i+tap >= n {
				break
			}
			out[i+tap] += in[i] * coeffs[tap]
		}
	}
}
