// mixvoice_test.go - per-voice mix orchestration tests

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMixTestDevice(layout ChannelLayout) *Device {
	d := &Device{Frequency: 48000, Layout: layout, UpdateSize: BufferSize}
	d.allocBuffers()
	return d
}

func newMixTestContext(d *Device, maxVoices int) *Context {
	ctx := NewContext(d, maxVoices)
	ctx.Listener.Set(ListenerProps{Forward: Vec3{0, 0, -1}, Up: Vec3{0, 1, 0}, Gain: 1, MetersPerUnit: 1})
	ctx.Listener.Update()
	return ctx
}

// TestMixOneVoiceRoutesDryOutputToDeviceDry covers the default (non-HRTF,
// non-StereoPan) route: a mono voice's direct path writes into the device's
// Dry buffer with pan gains from ComputeVoiceParams.
func TestMixOneVoiceRoutesDryOutputToDeviceDry(t *testing.T) {
	d := newMixTestDevice(LayoutStereo)
	ctx := newMixTestContext(d, 1)
	mc := &MixContext{Ctx: ctx, Device: d}

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 64)))
	props := DefaultSourceProps()
	props.Looping = true
	props.HeadRelative = true
	props.Position = Vec3{0, 0, -1}
	s.Set(ctx, props)
	s.Play(ctx)

	mc.MixVoices(64)

	nonSilent := false
	for _, ch := range d.Dry {
		for _, v := range ch[:64] {
			if v != 0 {
				nonSilent = true
			}
		}
	}
	assert.True(t, nonSilent, "a playing voice's dry path must reach the device's Dry buffer")

	v := s.voice.Load()
	require.NotNil(t, v)
	assert.False(t, v.IsHrtf, "with no HRTF table configured, a voice must not select the HRTF route")
	assert.Same(t, &d.Dry[0], &v.Direct.Buffer[0], "a non-HRTF voice's direct buffer must be the device's Dry")
}

// TestMixOneVoiceSelectsHRTFRouteAndWritesRealOut covers the HRTF dispatch
// path: when the device has HRTF enabled, a mono voice convolves through
// HRTFState and writes straight to RealOut rather than Dry.
func TestMixOneVoiceSelectsHRTFRouteAndWritesRealOut(t *testing.T) {
	d := newMixTestDevice(LayoutStereo)
	d.HRTFEnabled = true
	d.hrtf = &HRTFTable{Lookup: func(azimuth, elevation float32) HRTFCoeffs { return identityCoeffs(1) }}
	ctx := newMixTestContext(d, 1)
	mc := &MixContext{Ctx: ctx, Device: d}

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 64)))
	props := DefaultSourceProps()
	props.Looping = true
	props.HeadRelative = true
	props.Position = Vec3{0, 0, -1}
	s.Set(ctx, props)
	s.Play(ctx)

	mc.MixVoices(64)

	v := s.voice.Load()
	require.NotNil(t, v)
	assert.True(t, v.IsHrtf)
	assert.Nil(t, v.Direct.Buffer, "an HRTF voice's direct buffer is unused; it writes straight to RealOut")

	nonSilent := false
	for _, ch := range d.RealOut {
		for _, val := range ch[:64] {
			if val != 0 {
				nonSilent = true
			}
		}
	}
	assert.True(t, nonSilent, "an HRTF-routed voice must still reach RealOut")
}

// TestMixOneVoiceConfiguresBandPassAsTwoStageFilter covers a dry filter set
// to FilterBandPass: both the low-pass and high-pass stages must be
// configured, and the per-channel mix must not be silent just because a
// single filter type field can't represent band-pass alone.
func TestMixOneVoiceConfiguresBandPassAsTwoStageFilter(t *testing.T) {
	d := newMixTestDevice(LayoutStereo)
	ctx := newMixTestContext(d, 1)
	mc := &MixContext{Ctx: ctx, Device: d}

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 64)))
	props := DefaultSourceProps()
	props.Looping = true
	props.HeadRelative = true
	props.Position = Vec3{0, 0, -1}
	props.DryFilter = FilterParams{Type: FilterBandPass, Gain: 1, GainHF: 1}
	s.Set(ctx, props)
	s.Play(ctx)

	mc.MixVoices(64)

	v := s.voice.Load()
	require.NotNil(t, v)
	assert.Equal(t, FilterBandPass, v.Direct.FilterType)

	var zeroLP, zeroHP Biquad
	assert.NotEqual(t, zeroLP, v.Direct.LowPass, "the low-pass stage of a band-pass dry filter must be configured")
	assert.NotEqual(t, zeroHP, v.Direct.HighPass, "the high-pass stage of a band-pass dry filter must be configured")
}

// TestMixOneVoiceFeedsConfiguredSend covers the aux-send wiring: a source
// with a non-nil SendSlot must accumulate into that slot's wet buffer, and
// the slot's EffectState.Process must fold that into RealOut.
func TestMixOneVoiceFeedsConfiguredSend(t *testing.T) {
	d := newMixTestDevice(LayoutStereo)
	ctx := newMixTestContext(d, 1)
	mc := &MixContext{Ctx: ctx, Device: d}

	slot := NewEffectSlot()
	slot.Set(EffectProps{Gain: 1})
	ctx.AddEffectSlot(slot)

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 64)))
	props := DefaultSourceProps()
	props.Looping = true
	props.HeadRelative = true
	props.Position = Vec3{0, 0, -1}
	props.SendSlot[0] = slot
	props.SendFilter[0] = FilterParams{Type: FilterNone, Gain: 1, GainHF: 1}
	s.Set(ctx, props)
	s.Play(ctx)

	mc.MixVoices(64)

	v := s.voice.Load()
	require.NotNil(t, v)
	assert.Same(t, slot, v.Sends[0].Slot)

	wetNonSilent := false
	for _, ch := range slot.WetBuffer {
		for _, val := range ch[:64] {
			if val != 0 {
				wetNonSilent = true
			}
		}
	}
	assert.True(t, wetNonSilent, "a configured send must accumulate the voice's signal into the slot's wet buffer")

	realOutNonSilent := false
	for _, ch := range d.RealOut {
		for _, val := range ch[:64] {
			if val != 0 {
				realOutNonSilent = true
			}
		}
	}
	assert.True(t, realOutNonSilent, "the slot's EffectState.Process output must be folded back into RealOut")
}

// TestMixOneVoiceNoSendLeavesWetBufferSilent is the negative case: without a
// configured send, a voice with dry output must not leak into an unrelated
// slot's wet buffer.
func TestMixOneVoiceNoSendLeavesWetBufferSilent(t *testing.T) {
	d := newMixTestDevice(LayoutStereo)
	ctx := newMixTestContext(d, 1)
	mc := &MixContext{Ctx: ctx, Device: d}

	slot := NewEffectSlot()
	slot.Set(EffectProps{Gain: 1})
	ctx.AddEffectSlot(slot)

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 64)))
	props := DefaultSourceProps()
	props.Looping = true
	props.HeadRelative = true
	props.Position = Vec3{0, 0, -1}
	s.Set(ctx, props)
	s.Play(ctx)

	mc.MixVoices(64)

	for _, ch := range slot.WetBuffer {
		for _, val := range ch[:64] {
			assert.Equal(t, float32(0), val, "a voice with no send configured must not contribute to a slot's wet buffer")
		}
	}
}

// TestEnsureRoutingReallocatesOnShapeChange covers the (re)allocation guard:
// a voice switching from a dry-mix target to an HRTF (nil) target, or
// between different history-channel counts, must get fresh buffers rather
// than keep stale ones sized for the old shape.
func TestEnsureRoutingReallocatesOnShapeChange(t *testing.T) {
	var v Voice
	dry := [][]float32{make([]float32, 16), make([]float32, 16)}

	v.ensureRouting(1, dry, len(dry))
	require.Len(t, v.Direct.Target, 2)
	require.Len(t, v.History, 1)

	v.ensureRouting(1, nil, 0)
	assert.Nil(t, v.Direct.Buffer)
	assert.Len(t, v.Direct.Target, 0)

	v.ensureRouting(4, dry, len(dry))
	assert.Same(t, &dry[0], &v.Direct.Buffer[0])
	assert.Len(t, v.History, 4)
}
