// mixvoice.go - per-voice per-block load/resample/filter/mix orchestration

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "math"

// MixContext bundles what the per-block voice mixer needs beyond a single
// Context/Device pair — kept as a tiny struct rather than threading extra
// parameters through every call.
type MixContext struct {
	Ctx    *Context
	Device *Device
}

// MixVoices runs spec 4.7 for every active voice in ctx, for one output
// block of n frames (n <= BufferSize): update listener/slots, mix every
// voice's dry and send paths, then run each slot's effect over what voices
// sent it this block.
func (mc *MixContext) MixVoices(n int) {
	mc.Ctx.beginUpdate()
	listenerChanged := mc.Ctx.Listener.Update()
	slots := mc.Ctx.EffectSlots()
	for _, slot := range slots {
		slot.Update(mc.Device)
		slot.ensureWetBuffer(len(mc.Device.RealOut), BufferSize)
		slot.zeroWetBuffer(n)
	}
	for i := range mc.Ctx.Voices {
		v := &mc.Ctx.Voices[i]
		src := v.source.Load()
		if src == nil {
			continue
		}
		mc.mixOneVoice(src, v, n, listenerChanged)
	}
	for _, slot := range slots {
		mc.processEffectSlot(slot, n)
	}
	mc.Ctx.endUpdate()
}

func (mc *MixContext) mixOneVoice(src *Source, v *Voice, n int, force bool) {
	props, changed := src.Update()
	if src.State() != StatePlaying {
		return
	}
	if src.Current == nil || src.Current.Buf == nil {
		src.onQueueExhausted()
		return
	}
	buf := src.Current.Buf
	mono := buf.Layout == LayoutMono

	if changed || force || !v.Moving {
		vp := ComputeVoiceParams(mc.Ctx, mc.Device, props, voiceParamInputs{
			Mono:         mono,
			BufferLayout: buf.Layout,
			BufferFreq:   buf.Frequency,
			HeadRelative: props.HeadRelative,
		})
		v.Step = vp.Step
		v.IsHrtf = mono && vp.Route == RouteHRTF

		historyChannels := 1
		if !mono {
			historyChannels = buf.Layout.ChannelCount()
		}

		if v.IsHrtf {
			v.ensureRouting(historyChannels, nil, 0)
			if v.Direct.HRTF == nil {
				v.Direct.HRTF = &HRTFState{}
			}
			coeffs := mc.Device.hrtf.Lookup(vp.Azimuth, vp.Elevation)
			coeffs.Gain *= vp.Gain
			v.Direct.HRTF.SetTarget(coeffs)
		} else {
			v.ensureRouting(historyChannels, mc.Device.Dry, len(mc.Device.Dry))
			for c := range v.Direct.Target {
				if c < len(vp.PanGains) {
					v.Direct.Target[c] = vp.PanGains[c]
				} else {
					v.Direct.Target[c] = 0
				}
			}
		}

		v.Direct.FilterType = props.DryFilter.Type
		switch props.DryFilter.Type {
		case FilterBandPass:
			ConfigureBiquad(&v.Direct.LowPass, FilterLowPass, props.DryFilter.GainHF, 5000.0/float32(mc.Device.Frequency))
			ConfigureBiquad(&v.Direct.HighPass, FilterHighPass, 1.0, 500.0/float32(mc.Device.Frequency))
		default:
			ConfigureBiquad(&v.Direct.LowPass, props.DryFilter.Type, vp.DryHF, 5000.0/float32(mc.Device.Frequency))
		}

		mc.configureSends(v, props, vp)

		if !v.Moving {
			copy(v.Direct.Current, v.Direct.Target)
			for s := range v.Sends {
				if v.Sends[s].Slot != nil {
					copy(v.Sends[s].Current, v.Sends[s].Target)
				}
			}
		}
	}

	chanCount := buf.Layout.ChannelCount()
	for ch := 0; ch < chanCount; ch++ {
		mc.mixChannel(src, v, buf, ch, n)
	}

	if !v.Moving {
		v.Moving = true
	}
}

// configureSends derives each of a voice's MaxSends auxiliary-send targets
// from the source's per-send slot/filter and this block's distance/gain,
// per spec 4.7/4.8's send path: the wet-path room attenuation follows
// original_source's reverb-send rolloff, roomGain = 0.001^(distance/decayDistance)
// with decayDistance = slot.DecayTime * speedOfSound, so a send fades out
// over the effect's own decay distance rather than carrying full source gain
// regardless of range.
func (mc *MixContext) configureSends(v *Voice, props SourceProps, vp VoiceParams) {
	speakers := len(mc.Device.RealOut)
	for i := range v.Sends {
		send := &v.Sends[i]
		slot := props.SendSlot[i]
		if slot == nil {
			send.Slot = nil
			continue
		}
		send.Slot = slot
		wet := slot.ensureWetBuffer(speakers, BufferSize)
		if len(send.Current) != len(wet) {
			send.Current = make([]float32, len(wet))
			send.Target = make([]float32, len(wet))
		}

		roomGain := float32(1)
		if slot.Active.DecayTime > 0 && vp.Distance > 0 {
			decayDistance := slot.Active.DecayTime * mc.Ctx.SpeedOfSound
			if decayDistance > 0 {
				roomGain = float32(math.Pow(0.001, float64(vp.Distance/decayDistance)))
			}
		}
		gain := vp.Gain * props.SendFilter[i].Gain * roomGain
		panGains := equalPowerPan(vp.Azimuth, speakers, gain)
		copy(send.Target, panGains)

		send.FilterType = props.SendFilter[i].Type
		switch send.FilterType {
		case FilterBandPass:
			ConfigureBiquad(&send.LowPass, FilterLowPass, props.SendFilter[i].GainHF, 5000.0/float32(mc.Device.Frequency))
			ConfigureBiquad(&send.HighPass, FilterHighPass, 1.0, 500.0/float32(mc.Device.Frequency))
		default:
			ConfigureBiquad(&send.LowPass, send.FilterType, props.SendFilter[i].GainHF, 5000.0/float32(mc.Device.Frequency))
		}
	}
}

// processEffectSlot runs a slot's EffectState over the wet input voices
// accumulated this block and adds its output into the device's final
// per-speaker buffers at the slot's gain, per spec 4.8's effect-slot update
// closing the loop that configureSends/mixSends opens.
func (mc *MixContext) processEffectSlot(slot *EffectSlot, n int) {
	if len(slot.WetBuffer) == 0 {
		return
	}
	speakers := len(mc.Device.RealOut)
	out := make([][]float32, speakers)
	for c := range out {
		out[c] = make([]float32, n)
	}
	slot.State().Process(n, slot.WetBuffer, out, speakers)
	for c := range out {
		for i := 0; i < n; i++ {
			mc.Device.RealOut[c][i] += out[c][i] * slot.Active.Gain
		}
	}
}

// ensureRouting (re)allocates a voice's per-channel history and direct gain
// arrays when its channel shape changes: historyChannels tracks the source
// buffer's own channel count (1 for mono/attenuated, the buffer's native
// count otherwise); target/targetChannels describe the dry mix this voice's
// Direct path writes into (nil/0 for an HRTF voice, which writes straight to
// RealOut in mixChannel instead).
func (v *Voice) ensureRouting(historyChannels int, target [][]float32, targetChannels int) {
	sameTarget := (target == nil) == (v.Direct.Buffer == nil)
	if v.chanCount == targetChannels && len(v.History) == historyChannels && sameTarget {
		v.Direct.Buffer = target
		return
	}
	v.chanCount = targetChannels
	v.Direct.Buffer = target
	v.Direct.Current = make([]float32, targetChannels)
	v.Direct.Target = make([]float32, targetChannels)
	v.History = make([][]float32, historyChannels)
	for i := range v.History {
		v.History[i] = make([]float32, MaxPreSamples)
	}
}

// mixChannel implements spec 4.7 steps 3a-3f and step 4 for one source
// channel of one voice's current block: load with history, resample, apply
// the dry filter chain, route to HRTF convolution or the dry mix, then feed
// every configured auxiliary send from the pristine (unfiltered-by-dry)
// resampled signal.
func (mc *MixContext) mixChannel(src *Source, v *Voice, buf *Buffer, ch int, n int) {
	srcBufferSize := n + MaxPreSamples + MaxPostSamples
	if srcBufferSize > BufferSize {
		srcBufferSize = BufferSize
	}
	scratch := make([]float32, srcBufferSize)

	copy(scratch[:MaxPreSamples], v.History[ch])

	filled := mc.fillFromQueue(src, buf, ch, scratch[MaxPreSamples:])

	if filled >= MaxPreSamples {
		copy(v.History[ch], scratch[MaxPreSamples+filled-MaxPreSamples:MaxPreSamples+filled])
	}

	resampled := make([]float32, n)
	Resample(v.Interp, scratch[MaxPreSamples:], v.resamp.Frac, v.Step, resampled, n)
	v.resamp.Frac = uint32((uint64(v.resamp.Frac) + uint64(v.Step)*uint64(n)) & FractionMask)

	// direct holds the dry-filtered signal; resampled stays pristine so each
	// send below filters its own copy instead of inheriting the dry EQ.
	direct := make([]float32, n)
	switch v.Direct.FilterType {
	case FilterNone:
		v.Direct.LowPass.Passthrough(direct, resampled, n)
	case FilterBandPass:
		applyBandPass(&v.Direct.LowPass, &v.Direct.HighPass, resampled, direct, n)
	default:
		v.Direct.LowPass.Process(direct, resampled, n)
	}

	if v.IsHrtf && v.Direct.HRTF != nil {
		left := make([]float32, n)
		right := make([]float32, n)
		v.Direct.HRTF.Process(direct, left, right, n)
		for i := 0; i < n; i++ {
			mc.Device.RealOut[0][i] += left[i]
			if len(mc.Device.RealOut) > 1 {
				mc.Device.RealOut[1][i] += right[i]
			}
		}
	} else if v.Direct.Buffer != nil {
		Mix(direct, v.Direct.Buffer, v.Direct.Current, v.Direct.Target, n, 0, n)
	}

	mc.mixSends(v, ch, resampled, n)
}

// mixSends feeds channel 0's resampled signal through each configured send's
// own filter chain into its effect slot's wet buffer, per spec 4.7 step 3f.
// Sends are restricted to a voice's first channel, matching spec 4.8's
// attenuated (mono-source) send model.
func (mc *MixContext) mixSends(v *Voice, ch int, resampled []float32, n int) {
	if ch != 0 {
		return
	}
	for s := range v.Sends {
		send := &v.Sends[s]
		if send.Slot == nil {
			continue
		}
		sendOut := make([]float32, n)
		switch send.FilterType {
		case FilterNone:
			send.LowPass.Passthrough(sendOut, resampled, n)
		case FilterBandPass:
			applyBandPass(&send.LowPass, &send.HighPass, resampled, sendOut, n)
		default:
			send.LowPass.Process(sendOut, resampled, n)
		}
		Mix(sendOut, send.Slot.WetBuffer, send.Current, send.Target, n, 0, n)
	}
}

// applyBandPass chains a low-pass into a high-pass through a bounded scratch
// buffer to synthesize FilterBandPass, processing in BandSplitScratchLen
// chunks so the scratch stays fixed-size regardless of block length.
func applyBandPass(lp, hp *Biquad, src, dst []float32, n int) {
	var scratch [BandSplitScratchLen]float32
	for off := 0; off < n; off += BandSplitScratchLen {
		chunk := n - off
		if chunk > BandSplitScratchLen {
			chunk = BandSplitScratchLen
		}
		lp.Process(scratch[:chunk], src[off:off+chunk], chunk)
		hp.Process(dst[off:off+chunk], scratch[:chunk], chunk)
	}
}

// fillFromQueue walks the source's buffer queue starting at its current
// position, loading dst with interleaved-channel-extracted float samples,
// wrapping a STATIC loop or following STREAMING next-links, silence-filling
// the tail once the queue ends, per spec 4.7 step 3b.
func (mc *MixContext) fillFromQueue(src *Source, _ *Buffer, ch int, dst []float32) int {
	filled := 0
	item := src.Current
	offset := int(src.Offset)

	for filled < len(dst) && item != nil {
		b := item.Buf
		length := b.Length()
		loopStart, loopEnd := b.LoopStart, b.LoopEnd
		if loopEnd == 0 {
			loopEnd = length
		}

		avail := length - offset
		if avail <= 0 {
			if src.Active.Looping && item == src.QueueHead && src.Type() != SourceStreaming {
				offset = loopStart
				avail = loopEnd - offset
			} else if item.Next != nil {
				src.ProcessedCount++
				item = item.Next
				src.Current = item
				offset = 0
				continue
			} else {
				src.ProcessedCount++
				item = nil
				break
			}
		}

		take := len(dst) - filled
		if take > avail {
			take = avail
		}
		if ch < len(b.Data) {
			copy(dst[filled:filled+take], b.Data[ch][MaxPreSamples+offset:MaxPreSamples+offset+take])
		}
		filled += take
		offset += take

		if offset >= (func() int {
			if src.Active.Looping {
				return loopEnd
			}
			return length
		}()) {
			if src.Active.Looping && item == src.QueueHead && src.Type() != SourceStreaming {
				offset = loopStart
			} else if item.Next != nil {
				src.ProcessedCount++
				item = item.Next
				offset = 0
			} else {
				src.ProcessedCount++
				item = nil
			}
		}
	}

	src.Current = item
	src.Offset = int64(offset)
	if item == nil && !src.Active.Looping {
		src.onQueueExhausted()
	}

	for i := filled; i < len(dst); i++ {
		dst[i] = 0
	}
	return filled
}
