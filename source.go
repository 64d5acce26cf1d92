// source.go - application-visible sound emitter

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "sync/atomic"

// SourceState is the source's play/pause/stop state machine, per spec 4.9.
type SourceState int32

const (
	StateInitial SourceState = iota
	StatePlaying
	StatePaused
	StateStopped
)

// SourceType distinguishes a single-buffer STATIC source from a
// multi-buffer STREAMING one; UNDETERMINED sources accept either the first
// Set or the first Queue call, which fixes the type.
type SourceType int32

const (
	SourceUndetermined SourceType = iota
	SourceStatic
	SourceStreaming
)

// FilterParams configures one direct or send biquad chain.
type FilterParams struct {
	Type   FilterType
	Gain   float32
	GainHF float32
}

// SourceProps is the plain-data snapshot carried through Source's Mailbox,
// per spec Section 3.
type SourceProps struct {
	Pitch               float32
	Gain                float32
	MinGain, MaxGain    float32
	InnerAngle, OuterAngle float32
	OuterGain, OuterGainHF float32
	RefDistance, MaxDistance, Rolloff float32
	Position, Velocity, Direction Vec3
	HeadRelative        bool
	Looping             bool
	DistanceModel       DistanceModel
	DryFilter           FilterParams
	SendFilter          [MaxSends]FilterParams
	SendSlot            [MaxSends]*EffectSlot
	Radius              float32
	StereoPan           float32
	RoomRolloffFactor   float32
	AirAbsorptionFactor float32
}

// DefaultSourceProps matches the OpenAL spec's default attribute values.
func DefaultSourceProps() SourceProps {
	return SourceProps{
		Pitch:       1,
		Gain:        1,
		MaxGain:     1,
		InnerAngle:  360,
		OuterAngle:  360,
		OuterGain:   0,
		OuterGainHF: 1,
		RefDistance: 1,
		MaxDistance: maxFloat32,
		Rolloff:     1,
	}
}

const maxFloat32 = 3.4028235e+38

// Source is the application-visible sound emitter.
type Source struct {
	state atomic.Int32
	typ   atomic.Int32

	mailbox Mailbox[SourceProps]
	Active  SourceProps
	dirty   atomic.Bool // set when DeferUpdates suppresses a mailbox publish

	QueueHead    *BufferQueueItem
	QueueTail    *BufferQueueItem
	Current      *BufferQueueItem
	ProcessedCount int

	voice atomic.Pointer[Voice]

	Offset     int64 // sample offset into Current
	errs       errorLatch

	pending SourceProps // staged snapshot while updates are deferred
}

func NewSource() *Source {
	s := &Source{}
	s.Active = DefaultSourceProps()
	s.state.Store(int32(StateInitial))
	s.typ.Store(int32(SourceUndetermined))
	return s
}

func (s *Source) State() SourceState { return SourceState(s.state.Load()) }
func (s *Source) Type() SourceType   { return SourceType(s.typ.Load()) }

// Set publishes a property snapshot, honoring deferred-update suppression:
// if ctx has DeferUpdates active, the write is skipped and the source is
// marked dirty for the next ProcessContext batch apply instead.
func (s *Source) Set(ctx *Context, p SourceProps) {
	if ctx != nil && ctx.deferring() {
		s.pending = p
		s.dirty.Store(true)
		return
	}
	snap := s.mailbox.Acquire()
	*snap = p
	s.mailbox.Publish(snap)
}

// Update is the mixer-thread per-voice property consume step: returns the
// new props and true if anything changed.
func (s *Source) Update() (SourceProps, bool) {
	snap, ok := s.mailbox.Consume()
	if !ok {
		return s.Active, false
	}
	s.Active = *snap
	s.mailbox.Release(snap)
	return s.Active, true
}

// applyDirty is called by Context.ProcessContext to flush a deferred
// pending snapshot directly into the mailbox.
func (s *Source) applyDirty() {
	if !s.dirty.CompareAndSwap(true, false) {
		return
	}
	snap := s.mailbox.Acquire()
	*snap = s.pending
	s.mailbox.Publish(snap)
}

// Play transitions the source to PLAYING from any state, allocating a voice
// if one isn't already attached, per spec 4.9.
func (s *Source) Play(ctx *Context) {
	s.state.Store(int32(StatePlaying))
	if s.voice.Load() == nil {
		if v := ctx.allocVoice(s); v != nil {
			v.resetForPlay()
			s.voice.Store(v)
		}
	}
}

// Pause transitions PLAYING -> PAUSED; a no-op otherwise.
func (s *Source) Pause() {
	s.state.CompareAndSwap(int32(StatePlaying), int32(StatePaused))
}

// Stop transitions {PLAYING, PAUSED} -> STOPPED, keeping the queue but
// clearing the current buffer pointer.
func (s *Source) Stop() {
	old := s.State()
	if old == StatePlaying || old == StatePaused {
		s.state.Store(int32(StateStopped))
	}
	s.Current = s.QueueHead
	s.Offset = 0
	if v := s.voice.Swap(nil); v != nil {
		v.release()
	}
}

// Rewind transitions any state -> INITIAL, keeping the queue and resetting
// offset.
func (s *Source) Rewind() {
	s.state.Store(int32(StateInitial))
	s.Current = s.QueueHead
	s.Offset = 0
}

// onQueueExhausted is called by the mixer when a non-looping source's voice
// runs out of queued data, per spec 4.9's implicit
// PLAYING -> STOPPED transition.
func (s *Source) onQueueExhausted() {
	s.state.CompareAndSwap(int32(StatePlaying), int32(StateStopped))
	if v := s.voice.Swap(nil); v != nil {
		v.release()
	}
}

// QueueBuffers appends buffers to a STREAMING (or UNDETERMINED, which
// becomes STREAMING) source's queue. Returns ErrInvalidOperation if the
// source is STATIC.
func (s *Source) QueueBuffers(bufs ...*Buffer) ErrorCode {
	if s.Type() == SourceStatic {
		return ErrInvalidOperation
	}
	s.typ.CompareAndSwap(int32(SourceUndetermined), int32(SourceStreaming))
	for _, b := range bufs {
		b.RefCount.Add(1)
		item := &BufferQueueItem{Buf: b}
		if s.QueueTail == nil {
			s.QueueHead = item
			s.QueueTail = item
			s.Current = item
		} else {
			s.QueueTail.Next = item
			s.QueueTail = item
		}
	}
	return ErrNone
}

// UnqueueBuffers detaches n already-consumed items from the head of the
// queue, per spec 8.8: fails with InvalidValue if looping, or if fewer than
// n items have been consumed, making no mutation on failure.
func (s *Source) UnqueueBuffers(n int) ([]*Buffer, ErrorCode) {
	if s.Active.Looping {
		return nil, ErrInvalidValue
	}
	if n > s.ProcessedCount {
		return nil, ErrInvalidValue
	}
	out := make([]*Buffer, 0, n)
	for i := 0; i < n; i++ {
		item := s.QueueHead
		s.QueueHead = item.Next
		if s.QueueHead == nil {
			s.QueueTail = nil
		}
		item.Buf.RefCount.Add(-1)
		out = append(out, item.Buf)
	}
	s.ProcessedCount -= n
	return out, ErrNone
}

// SetBuffer implements a STATIC source's single-buffer "set" operation.
// Fails with InvalidOperation if the source is currently playing/paused or
// already STREAMING.
func (s *Source) SetBuffer(b *Buffer) ErrorCode {
	if s.Type() == SourceStreaming {
		return ErrInvalidOperation
	}
	st := s.State()
	if st == StatePlaying || st == StatePaused {
		return ErrInvalidOperation
	}
	if s.QueueHead != nil {
		s.QueueHead.Buf.RefCount.Add(-1)
	}
	s.typ.Store(int32(SourceStatic))
	if b == nil {
		s.QueueHead, s.QueueTail, s.Current = nil, nil, nil
		return ErrNone
	}
	b.RefCount.Add(1)
	item := &BufferQueueItem{Buf: b}
	s.QueueHead, s.QueueTail, s.Current = item, item, item
	return ErrNone
}
