//go:build !headless

// backend_oto.go - oto/v3 playback backend

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// OtoBackend is the default playback Backend, grounded on the teacher's
// audio_backend_oto.go: an atomic.Pointer handoff on the hot Read() path,
// a plain mutex for setup/control operations.
type OtoBackend struct {
	ctx    *oto.Context
	player *oto.Player

	device atomic.Pointer[Device] // hot-path pull target

	sampleRate int
	channels   int
	byteBuf    []byte // pre-allocated scratch for Render's byte output

	started bool
	mu      sync.Mutex
}

// NewOtoBackend constructs a backend bound to no device yet; SetDevice
// binds it once the owning Device exists (device.go's OpenDevice calls this
// via the optional deviceBinder interface before Reset/Start).
func NewOtoBackend() *OtoBackend {
	return &OtoBackend{}
}

func (b *OtoBackend) SetDevice(d *Device) {
	b.device.Store(d)
}

func (b *OtoBackend) Open(string) error { return nil }

func (b *OtoBackend) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.device.Load()
	if d == nil {
		return ErrInvalidDevice
	}
	b.sampleRate = d.Frequency
	b.channels = d.Layout.ChannelCount()

	op := &oto.NewContextOptions{
		SampleRate:   b.sampleRate,
		ChannelCount: b.channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return ErrInvalidDevice
	}
	<-ready
	b.ctx = ctx
	b.player = ctx.NewPlayer(b)
	b.byteBuf = make([]byte, d.UpdateSize*b.channels*4)
	return nil
}

// Read is oto's pull callback: the hot path. It loads the bound device
// atomically (no lock) and asks it to render directly into p.
func (b *OtoBackend) Read(p []byte) (n int, err error) {
	d := b.device.Load()
	if d == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	frameBytes := b.channels * 4
	frames := len(p) / frameBytes
	d.Render(p, frames)
	return frames * frameBytes, nil
}

func (b *OtoBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started && b.player != nil {
		b.player.Play()
		b.started = true
	}
	return nil
}

func (b *OtoBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started && b.player != nil {
		b.player.Pause()
		b.started = false
	}
	return nil
}

func (b *OtoBackend) Close() error {
	b.Stop()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player != nil {
		err := b.player.Close()
		b.player = nil
		return err
	}
	return nil
}

// Lock/Unlock serialize against Device.Reset, per the backend contract;
// oto owns its own internal locking for the Read callback, so this mutex
// only protects Reset/Start/Stop/Close control operations here.
func (b *OtoBackend) Lock()   { b.mu.Lock() }
func (b *OtoBackend) Unlock() { b.mu.Unlock() }

// AvailableSamples/CaptureSamples: oto is playback-only in this module;
// capture is served by backend_portaudio.go instead.
func (b *OtoBackend) AvailableSamples() int { return 0 }
func (b *OtoBackend) CaptureSamples([]float32, int) (int, error) { return 0, ErrInvalidOperation }

func (b *OtoBackend) GetClockLatency() ClockLatency {
	return ClockLatency{}
}
