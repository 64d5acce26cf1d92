// render.go - device render loop: the backend's mix callback

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "math"

// Render produces n frames of output into out (device-native interleaved
// sample type, per d.Format), per spec 2's block data-flow: zero mix
// buffers, run every context's listener/slots/voices, post-process, convert.
func (d *Device) Render(out []byte, n int) {
	if n > d.UpdateSize {
		n = d.UpdateSize
	}
	d.zeroBuffers(n)

	if d.Disconnected() {
		d.writeSilence(out, n)
		return
	}

	d.contextsMu.Lock()
	contexts := append([]*Context(nil), d.contexts...)
	d.contextsMu.Unlock()

	for _, ctx := range contexts {
		mc := &MixContext{Ctx: ctx, Device: d}
		mc.MixVoices(n)
	}

	d.postProcess(n)
	d.convertOutput(out, n)

	if d.metrics != nil {
		d.metrics.blocksRendered.Inc()
	}
}

func (d *Device) zeroBuffers(n int) {
	for _, ch := range d.Dry {
		for i := 0; i < n; i++ {
			ch[i] = 0
		}
	}
	for _, ch := range d.RealOut {
		for i := 0; i < n; i++ {
			ch[i] = 0
		}
	}
	for _, ch := range d.FOA {
		for i := 0; i < n; i++ {
			ch[i] = 0
		}
	}
}

// postProcess decodes Dry into RealOut through the B-format decoder when
// AmbisonicMode is set, and otherwise adds Dry (already the final
// per-speaker mix) into RealOut. No HRTF direct-mix stage runs here; HRTF
// voices write RealOut directly in mixvoice.go. Finally
// runs any configured UHJ encode / crossfeed stage over the finished
// per-speaker output.
func (d *Device) postProcess(n int) {
	if d.AmbisonicMode && d.bformat != nil && len(d.bformat.channels) > 0 {
		d.bformat.Process(d.RealOut, d.Dry, n)
	} else {
		for c := range d.Dry {
			if c >= len(d.RealOut) {
				break
			}
			for i := 0; i < n; i++ {
				d.RealOut[c][i] += d.Dry[c][i]
			}
		}
	}
	if d.UHJEncoder != nil {
		d.UHJEncoder.Process(d.RealOut, n)
	}
	if d.Crossfeed != nil {
		d.Crossfeed.Process(d.RealOut, n)
	}
}

func (d *Device) convertOutput(out []byte, n int) {
	channels := len(d.RealOut)
	switch d.Format {
	case FormatFloat32:
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				writeFloat32LE(out, (i*channels+c)*4, d.RealOut[c][i])
			}
		}
	case FormatInt16:
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				writeInt16LE(out, (i*channels+c)*2, d.RealOut[c][i])
			}
		}
	default:
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				writeFloat32LE(out, (i*channels+c)*4, d.RealOut[c][i])
			}
		}
	}
}

func (d *Device) writeSilence(out []byte, n int) {
	for i := range out {
		out[i] = 0
	}
	_ = n
}

func writeFloat32LE(dst []byte, off int, v float32) {
	bits := math.Float32bits(v)
	dst[off] = byte(bits)
	dst[off+1] = byte(bits >> 8)
	dst[off+2] = byte(bits >> 16)
	dst[off+3] = byte(bits >> 24)
}

func writeInt16LE(dst []byte, off int, v float32) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	s := int16(v * 32767)
	dst[off] = byte(s)
	dst[off+1] = byte(s >> 8)
}
