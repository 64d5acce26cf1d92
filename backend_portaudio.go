//go:build portaudio

// backend_portaudio.go - capture-capable backend via PortAudio, with a
// lock-free ring buffer decoupling the realtime callback from CaptureSamples.

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/smallnest/ringbuffer"
)

// PortaudioBackend drives playback through a PortAudio output stream and
// offers synchronous capture through a PortAudio input stream, buffered by a
// smallnest/ringbuffer.RingBuffer so the realtime callback never blocks on
// CaptureSamples's caller.
type PortaudioBackend struct {
	device atomic.Pointer[Device]

	mu           sync.Mutex
	outStream    *portaudio.Stream
	inStream     *portaudio.Stream
	captureRing  *ringbuffer.RingBuffer
	inChannels   int
	started      bool

	byteScratch []byte
}

func NewPortaudioBackend() *PortaudioBackend {
	return &PortaudioBackend{}
}

func (b *PortaudioBackend) SetDevice(d *Device) {
	b.device.Store(d)
}

func (b *PortaudioBackend) Open(string) error {
	return portaudio.Initialize()
}

func (b *PortaudioBackend) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.device.Load()
	if d == nil {
		return ErrInvalidDevice
	}
	b.closeStreamsLocked()

	channels := d.Layout.ChannelCount()
	outStream, err := portaudio.OpenDefaultStream(0, channels, float64(d.Frequency), d.UpdateSize, b.outputCallback)
	if err != nil {
		return ErrInvalidDevice
	}
	b.outStream = outStream
	b.byteScratch = make([]byte, d.UpdateSize*channels*4)

	b.inChannels = 1
	b.captureRing = ringbuffer.New(d.UpdateSize * 4 * 16)
	inStream, err := portaudio.OpenDefaultStream(b.inChannels, 0, float64(d.Frequency), d.UpdateSize, b.inputCallback)
	if err == nil {
		b.inStream = inStream
	}
	return nil
}

// outputCallback is PortAudio's realtime render pull: it asks the bound
// Device to render directly, then de-interleaves the resulting bytes into
// PortAudio's float32 output slice.
func (b *PortaudioBackend) outputCallback(out []float32) {
	d := b.device.Load()
	if d == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	frames := len(out) / d.Layout.ChannelCount()
	d.Render(b.byteScratch, frames)
	channels := d.Layout.ChannelCount()
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			idx := (i*channels + c) * 4
			out[i*channels+c] = float32FromLE(b.byteScratch, idx)
		}
	}
}

// inputCallback pushes captured samples into the ring buffer; it never
// blocks, matching the contract that CaptureSamples is the slow consumer.
func (b *PortaudioBackend) inputCallback(in []float32) {
	if b.captureRing == nil {
		return
	}
	buf := make([]byte, len(in)*4)
	for i, v := range in {
		writeFloat32LE(buf, i*4, v)
	}
	b.captureRing.Write(buf)
}

func (b *PortaudioBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	if b.outStream != nil {
		if err := b.outStream.Start(); err != nil {
			return ErrInvalidDevice
		}
	}
	if b.inStream != nil {
		_ = b.inStream.Start()
	}
	b.started = true
	return nil
}

func (b *PortaudioBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	if b.outStream != nil {
		b.outStream.Stop()
	}
	if b.inStream != nil {
		b.inStream.Stop()
	}
	b.started = false
	return nil
}

func (b *PortaudioBackend) closeStreamsLocked() {
	if b.outStream != nil {
		b.outStream.Close()
		b.outStream = nil
	}
	if b.inStream != nil {
		b.inStream.Close()
		b.inStream = nil
	}
}

func (b *PortaudioBackend) Close() error {
	b.Stop()
	b.mu.Lock()
	b.closeStreamsLocked()
	b.mu.Unlock()
	return portaudio.Terminate()
}

func (b *PortaudioBackend) Lock()   { b.mu.Lock() }
func (b *PortaudioBackend) Unlock() { b.mu.Unlock() }

func (b *PortaudioBackend) AvailableSamples() int {
	if b.captureRing == nil {
		return 0
	}
	return b.captureRing.Length() / 4
}

// CaptureSamples drains up to n float32 samples from the ring buffer,
// per spec Section 6's capture contract: never blocks past what's available.
func (b *PortaudioBackend) CaptureSamples(dst []float32, n int) (int, error) {
	if b.captureRing == nil {
		return 0, ErrInvalidDevice
	}
	need := n * 4
	raw := make([]byte, need)
	got, _ := b.captureRing.Read(raw)
	samples := got / 4
	for i := 0; i < samples; i++ {
		dst[i] = float32FromLE(raw, i*4)
	}
	return samples, nil
}

func (b *PortaudioBackend) GetClockLatency() ClockLatency {
	return ClockLatency{}
}

func float32FromLE(src []byte, off int) float32 {
	bits := uint32(src[off]) | uint32(src[off+1])<<8 | uint32(src[off+2])<<16 | uint32(src[off+3])<<24
	return math.Float32frombits(bits)
}
