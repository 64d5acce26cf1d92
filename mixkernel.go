// mixkernel.go - gain-ramped and matrix-row mix kernels

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

// Mix adds src (n samples) into each of outBuffers' channels, ramping each
// channel's gain from current[c] toward target[c] over counter samples,
// then holding steady at target for any remaining samples. current is
// updated in place to reflect the gain actually reached, per spec 4.4 /
// invariant 2.
func Mix(src []float32, outBuffers [][]float32, current, target []float32, counter, outPos, n int) {
	for c := range outBuffers {
		out := outBuffers[c]
		gain := current[c]
		tgt := target[c]
		step := float32(0)
		if counter > 0 {
			d := tgt - gain
			if d > SilenceThreshold || d < -SilenceThreshold {
				step = d / float32(counter)
			}
		}

		pos := 0
		rampLen := n
		if counter < rampLen {
			rampLen = counter
		}
		for ; pos < rampLen; pos++ {
			out[outPos+pos] += src[pos] * gain
			gain += step
		}
		if rampLen == counter {
			gain = tgt
		}
		if gain > SilenceThreshold || gain < -SilenceThreshold {
			for ; pos < n; pos++ {
				out[outPos+pos] += src[pos] * gain
			}
		}
		current[c] = gain
	}
}

// MixRow applies a precomputed, non-ramped matrix row: each input channel's
// fixed gain is multiply-added into out, skipping any input whose gain is
// below the silence threshold.
func MixRow(out []float32, gains []float32, inBuffers [][]float32, inPos, n int) {
	for c, g := range gains {
		if g > -SilenceThreshold && g < SilenceThreshold {
			continue
		}
		in := inBuffers[c]
		for i := 0; i < n; i++ {
			out[i] += in[inPos+i] * g
		}
	}
}
