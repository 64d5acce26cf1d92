// bformatdec.go - ambisonic B-format decoder / upsampler

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

// AmbisonicConfig describes a decode target: per-output-channel single-band
// or dual-band weight matrices, a distance-compensation max distance, and
// whether the decode is dual-band (FreqBands == 2).
type AmbisonicConfig struct {
	FreqBands   int // 1 or 2
	CrossoverHz float64
	Speakers    []SpeakerConfig
}

// SpeakerConfig is one output channel's ambisonic decode weights and
// physical placement for distance compensation.
type SpeakerConfig struct {
	Enabled     bool
	Distance    float64 // meters from listener
	SingleBand  []float32
	HighBand    []float32
	LowBand     []float32
}

// BFormatDecoder holds per-channel band-split filters, delay lines, and the
// weight matrices computed by Reset, per spec 4.6.
type BFormatDecoder struct {
	srate     float64
	maxDist   float64
	dualBand  bool
	channels  []decChannel
	splitters []bandSplitter
}

type decChannel struct {
	enabled    bool
	singleBand []float32
	highBand   []float32
	lowBand    []float32
	gain       float32
	delayLine  []float32
	delayPos   int
}

// bandSplitter is an all-pass-based high/low phase-matching pair configured
// from a normalized cutoff.
type bandSplitter struct {
	lp, hp Biquad
}

func newBandSplitter(cutoffNorm float32) bandSplitter {
	var s bandSplitter
	rcpQ := CalcRcpQFromSlope(1.0, 0.75)
	s.lp.SetParams(FilterLowPass, 1.0, cutoffNorm, rcpQ)
	s.hp.SetParams(FilterHighPass, 1.0, cutoffNorm, rcpQ)
	return s
}

func (s *bandSplitter) split(in, lo, hi []float32, n int) {
	s.lp.Process(lo, in, n)
	s.hp.Process(hi, in, n)
}

// Reset configures the decoder from an ambisonic configuration, a device
// channel map, and sample rate, per spec 4.6: per-channel enable mask,
// single/dual-band matrices, delay length from distance compensation, and
// per-channel gain from relative speaker distance.
func (d *BFormatDecoder) Reset(conf AmbisonicConfig, srate float64) {
	d.srate = srate
	d.dualBand = conf.FreqBands == 2
	d.channels = make([]decChannel, len(conf.Speakers))
	d.splitters = make([]bandSplitter, len(conf.Speakers))

	maxDist := 0.0
	for _, sp := range conf.Speakers {
		if sp.Enabled && sp.Distance > maxDist {
			maxDist = sp.Distance
		}
	}
	d.maxDist = maxDist

	cutoffNorm := float32(conf.CrossoverHz / srate)
	if cutoffNorm <= 0 {
		cutoffNorm = 0.01
	}

	for i, sp := range conf.Speakers {
		ch := decChannel{
			enabled:    sp.Enabled,
			singleBand: sp.SingleBand,
			highBand:   sp.HighBand,
			lowBand:    sp.LowBand,
		}
		if !sp.Enabled {
			d.channels[i] = ch
			continue
		}
		if maxDist > 0 {
			ch.gain = float32(sp.Distance / maxDist)
			delaySamples := int((maxDist - sp.Distance) * srate / SpeedOfSound)
			if delaySamples > 0 {
				ch.delayLine = make([]float32, delaySamples)
			}
		} else {
			ch.gain = 1.0
		}
		d.splitters[i] = newBandSplitter(cutoffNorm)
		d.channels[i] = ch
	}
}

// Process decodes in (one buffer per ambisonic input channel) into out (one
// buffer per device output channel), per spec 4.6.
func (d *BFormatDecoder) Process(out [][]float32, in [][]float32, samples int) {
	var hfScratch, lfScratch [][]float32
	if d.dualBand {
		hfScratch = make([][]float32, len(in))
		lfScratch = make([][]float32, len(in))
		for c := range in {
			hfScratch[c] = make([]float32, samples)
			lfScratch[c] = make([]float32, samples)
			d.splitters[0].split(in[c], lfScratch[c], hfScratch[c], samples)
		}
	}

	scratch := make([]float32, samples)
	for c := range d.channels {
		ch := &d.channels[c]
		if !ch.enabled {
			continue
		}
		for i := range scratch {
			scratch[i] = 0
		}
		if d.dualBand {
			for a := range in {
				if a < len(ch.highBand) {
					hg := ch.highBand[a]
					for i := 0; i < samples; i++ {
						scratch[i] += hfScratch[a][i] * hg
					}
				}
				if a < len(ch.lowBand) {
					lg := ch.lowBand[a]
					for i := 0; i < samples; i++ {
						scratch[i] += lfScratch[a][i] * lg
					}
				}
			}
		} else {
			for a := range in {
				if a < len(ch.singleBand) {
					g := ch.singleBand[a]
					for i := 0; i < samples; i++ {
						scratch[i] += in[a][i] * g
					}
				}
			}
		}
		d.applyDelay(ch, scratch, out[c], samples)
	}
}

func (d *BFormatDecoder) applyDelay(ch *decChannel, scratch []float32, out []float32, n int) {
	if len(ch.delayLine) == 0 {
		for i := 0; i < n; i++ {
			out[i] += scratch[i] * ch.gain
		}
		return
	}
	dl := ch.delayLine
	pos := ch.delayPos
	for i := 0; i < n; i++ {
		delayed := dl[pos]
		dl[pos] = scratch[i]
		pos++
		if pos >= len(dl) {
			pos = 0
		}
		out[i] += delayed * ch.gain
	}
	ch.delayPos = pos
}

// Upsample converts first-order content (W, X, Y, Z — up to 4 input
// channels) into the decoder's internal channel order via band splitting
// and a precomputed first-order-to-higher-order gain matrix, per spec 4.6.
func (d *BFormatDecoder) Upsample(out [][]float32, in [][]float32, gainMatrix [][]float32, samples int) {
	hf := make([][]float32, len(in))
	lf := make([][]float32, len(in))
	for c := range in {
		hf[c] = make([]float32, samples)
		lf[c] = make([]float32, samples)
		if len(d.splitters) > 0 {
			d.splitters[0].split(in[c], lf[c], hf[c], samples)
		} else {
			copy(hf[c], in[c])
		}
	}
	for outCh := range out {
		if outCh >= len(gainMatrix) {
			continue
		}
		row := gainMatrix[outCh]
		for a := range in {
			if a >= len(row) {
				continue
			}
			g := row[a]
			for i := 0; i < samples; i++ {
				out[outCh][i] += (hf[a][i] + lf[a][i]) * g
			}
		}
	}
}
