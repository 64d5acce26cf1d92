// context.go - listener, sources, effect slots, voices, deferred updates

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"sync"
	"sync/atomic"
)

// DeferMode controls how property setters behave while updates are
// deferred, per spec Section 9.
type DeferMode int32

const (
	DeferOff DeferMode = iota
	DeferAll
	DeferAllowPlay
)

// Context owns a listener, a set of sources, a set of auxiliary effect
// slots, and a fixed-capacity array of voices, per spec Section 3. Exactly
// one device owns a context.
type Context struct {
	Device *Device

	Listener Listener
	Voices   []Voice

	sourcesMu sync.Mutex
	sources   map[*Source]struct{}

	slotsMu sync.Mutex
	slots   []*EffectSlot

	DopplerFactor  float32
	SpeedOfSound   float32
	DistanceModel  DistanceModel

	deferMode   atomic.Int32
	holdUpdates atomic.Bool

	// updateCount is the even/odd generation counter from spec 4.8/5: odd
	// while the mixer is mid-update, even once a block's parameter pass
	// has fully committed. Readers (clock/latency queries, ProcessContext)
	// spin until they observe a stable even value.
	updateCount atomic.Uint32

	lastErr errorLatch

	refCount atomic.Int32
}

// NewContext creates a context with maxVoices voice slots on the given
// device, per spec Section 3's "created on an existing device" lifecycle.
func NewContext(d *Device, maxVoices int) *Context {
	ctx := &Context{
		Device:        d,
		Voices:        make([]Voice, maxVoices),
		sources:       make(map[*Source]struct{}),
		DopplerFactor: 1,
		SpeedOfSound:  SpeedOfSound,
		DistanceModel: DistanceInverseClamped,
	}
	ctx.refCount.Store(1)
	return ctx
}

func (ctx *Context) deferring() bool {
	return DeferMode(ctx.deferMode.Load()) != DeferOff && !ctx.holdUpdates.Load()
}

// SuspendContext begins deferred-update batching: subsequent property
// setters mark entities dirty instead of publishing immediately, per spec
// Section 9. A no-op when __ALSOFT_SUSPEND_CONTEXT=ignore.
func (ctx *Context) SuspendContext() {
	if envSuspendContextIgnored() {
		return
	}
	ctx.deferMode.Store(int32(DeferAll))
}

// ProcessContext ends deferred-update batching: it sets HoldUpdates, spins
// until the mixer's UpdateCount generation is even (mixer quiescent),
// applies every dirty source, then clears HoldUpdates and DeferOff, per
// spec 4.9/9 and SPEC_FULL.md Section C.1.
func (ctx *Context) ProcessContext() {
	if envSuspendContextIgnored() {
		return
	}
	ctx.holdUpdates.Store(true)
	for ctx.updateCount.Load()&1 != 0 {
		// Spin-wait for the mixer to reach an even generation; bounded by
		// one mix block's worth of work, per spec Section 5.
	}

	ctx.sourcesMu.Lock()
	for s := range ctx.sources {
		s.applyDirty()
	}
	ctx.sourcesMu.Unlock()

	ctx.holdUpdates.Store(false)
	ctx.deferMode.Store(int32(DeferOff))
}

// beginUpdate/endUpdate bracket the mixer's per-block parameter pass,
// advancing UpdateCount's parity so ProcessContext and latency readers can
// detect quiescence, per spec 4.8's closing paragraph.
func (ctx *Context) beginUpdate() { ctx.updateCount.Add(1) }
func (ctx *Context) endUpdate()   { ctx.updateCount.Add(1) }

// AddSource registers a newly created source with the context.
func (ctx *Context) AddSource(s *Source) {
	ctx.sourcesMu.Lock()
	ctx.sources[s] = struct{}{}
	ctx.sourcesMu.Unlock()
}

// RemoveSource unregisters a source (on deletion), releasing its voice if
// any.
func (ctx *Context) RemoveSource(s *Source) {
	ctx.sourcesMu.Lock()
	delete(ctx.sources, s)
	ctx.sourcesMu.Unlock()
	if v := s.voice.Swap(nil); v != nil {
		v.release()
	}
}

// Sources returns a snapshot slice of currently registered sources, for the
// device render loop to iterate without holding the lock across the mix.
func (ctx *Context) Sources() []*Source {
	ctx.sourcesMu.Lock()
	defer ctx.sourcesMu.Unlock()
	out := make([]*Source, 0, len(ctx.sources))
	for s := range ctx.sources {
		out = append(out, s)
	}
	return out
}

// AddEffectSlot links a new slot into the context's active slot list.
func (ctx *Context) AddEffectSlot(s *EffectSlot) {
	ctx.slotsMu.Lock()
	ctx.slots = append(ctx.slots, s)
	ctx.slotsMu.Unlock()
}

func (ctx *Context) EffectSlots() []*EffectSlot {
	ctx.slotsMu.Lock()
	defer ctx.slotsMu.Unlock()
	return append([]*EffectSlot(nil), ctx.slots...)
}

// Release drops a reference; when it reaches zero the context detaches from
// its device and invalidates every voice's source, per spec Section 3's
// context-release lifecycle.
func (ctx *Context) Release() {
	if ctx.refCount.Add(-1) != 0 {
		return
	}
	for i := range ctx.Voices {
		ctx.Voices[i].release()
	}
	ctx.Device.removeContext(ctx)
}

func (ctx *Context) addRef() { ctx.refCount.Add(1) }

func (ctx *Context) SetError(e ErrorCode) { ctx.lastErr.set(e) }
func (ctx *Context) GetError() ErrorCode  { return ctx.lastErr.get() }
