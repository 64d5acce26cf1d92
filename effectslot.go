// effectslot.go - auxiliary effect slot and abstract effect state

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "sync/atomic"

// EffectState is the abstract polymorphic interface an effect slot's
// processing object exposes, per spec Section 6's backend contract for
// effects. Concrete reverb/chorus/etc. DSP algorithms are out of scope
// (spec Non-goals); NullEffectState below is the only concrete
// implementation this module ships, used to exercise the wiring path.
type EffectState interface {
	DeviceUpdate(device *Device)
	Update(device *Device, slot *EffectSlot, props EffectProps)
	Process(samples int, in [][]float32, out [][]float32, outChannels int)
}

// EffectType identifies which DSP algorithm an effect slot's state
// implements; only EffectNull has an implementation here (see Non-goals).
type EffectType int

const (
	EffectNull EffectType = iota
	EffectReverb
	EffectChorus
	EffectEcho
)

// EffectProps is the plain-data snapshot carried through EffectSlot's
// Mailbox.
type EffectProps struct {
	Type             EffectType
	Gain             float32
	AuxSendAuto      bool
	RoomRolloff      float32
	DecayTime        float32
	AirAbsorptionGainHF float32
}

// NullEffectState is a passthrough EffectState: process copies wet input to
// output unmodified, used to validate the effect-slot wiring without
// implementing any actual DSP.
type NullEffectState struct{}

func (NullEffectState) DeviceUpdate(*Device)                            {}
func (NullEffectState) Update(*Device, *EffectSlot, EffectProps)        {}
func (NullEffectState) Process(samples int, in [][]float32, out [][]float32, outChannels int) {
	for c := 0; c < outChannels && c < len(in) && c < len(out); c++ {
		copy(out[c][:samples], in[c][:samples])
	}
}

// EffectSlot carries an EffectState plus a wet mix buffer, per spec Section 3.
type EffectSlot struct {
	mailbox Mailbox[EffectProps]
	Active  EffectProps

	state atomic.Pointer[EffectState]

	WetBuffer [][]float32 // one buffer per internal channel

	Next *EffectSlot // forward-list link in the context's active slot list
}

func NewEffectSlot() *EffectSlot {
	s := &EffectSlot{}
	s.Active = EffectProps{Gain: 1}
	var st EffectState = NullEffectState{}
	s.state.Store(&st)
	return s
}

// Set publishes a new property snapshot.
func (s *EffectSlot) Set(p EffectProps) {
	snap := s.mailbox.Acquire()
	*snap = p
	s.mailbox.Publish(snap)
}

// SetState atomically installs a new EffectState, returning the old one so
// the caller can release it on the API thread, per spec 4.8.
func (s *EffectSlot) SetState(st EffectState) EffectState {
	old := s.state.Swap(&st)
	return *old
}

func (s *EffectSlot) State() EffectState {
	return *s.state.Load()
}

// ensureWetBuffer (re)allocates WetBuffer when the channel count changes or
// it hasn't been sized yet, so aux-send mixing always has somewhere to
// accumulate into, per spec 4.7/4.8's aux-send path.
func (s *EffectSlot) ensureWetBuffer(channels, size int) [][]float32 {
	if len(s.WetBuffer) == channels && channels > 0 && len(s.WetBuffer[0]) >= size {
		return s.WetBuffer
	}
	s.WetBuffer = make([][]float32, channels)
	for c := range s.WetBuffer {
		s.WetBuffer[c] = make([]float32, size)
	}
	return s.WetBuffer
}

// zeroWetBuffer clears the first n samples of every wet channel before a
// block's voices accumulate their sends into it.
func (s *EffectSlot) zeroWetBuffer(n int) {
	for _, ch := range s.WetBuffer {
		for i := 0; i < n && i < len(ch); i++ {
			ch[i] = 0
		}
	}
}

// Update is the mixer-thread effect-slot update procedure from spec 4.8:
// symmetric to Listener.Update.
func (s *EffectSlot) Update(device *Device) bool {
	snap, ok := s.mailbox.Consume()
	if !ok {
		return false
	}
	s.Active = *snap
	s.mailbox.Release(snap)
	s.State().Update(device, s, s.Active)
	return true
}
