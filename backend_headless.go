//go:build headless

// backend_headless.go - null backend: renders into a throwaway buffer on
// a ticker goroutine, for headless builds and tests.

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"sync"
	"sync/atomic"
	"time"
)

// HeadlessBackend drives a Device's render loop off a time.Ticker instead
// of a real sound card, so the mixer keeps running under headless builds
// and in tests without linking any platform audio library.
type HeadlessBackend struct {
	device atomic.Pointer[Device]

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	scratch []byte
}

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{}
}

func (b *HeadlessBackend) SetDevice(d *Device) {
	b.device.Store(d)
}

func (b *HeadlessBackend) Open(string) error { return nil }

func (b *HeadlessBackend) Reset() error {
	d := b.device.Load()
	if d != nil {
		b.scratch = make([]byte, d.UpdateSize*d.Layout.ChannelCount()*4)
	}
	return nil
}

func (b *HeadlessBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	b.started = true
	b.stop = make(chan struct{})
	d := b.device.Load()
	if d == nil {
		return nil
	}
	period := time.Duration(d.UpdateSize) * time.Second / time.Duration(d.Frequency)
	go b.run(d, period, b.stop)
	return nil
}

func (b *HeadlessBackend) run(d *Device, period time.Duration, stop chan struct{}) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			d.Render(b.scratch, d.UpdateSize)
		}
	}
}

func (b *HeadlessBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	close(b.stop)
	b.started = false
	return nil
}

func (b *HeadlessBackend) Close() error {
	return b.Stop()
}

func (b *HeadlessBackend) Lock()   { b.mu.Lock() }
func (b *HeadlessBackend) Unlock() { b.mu.Unlock() }

func (b *HeadlessBackend) AvailableSamples() int { return 0 }

func (b *HeadlessBackend) CaptureSamples(dst []float32, n int) (int, error) {
	for i := range dst {
		dst[i] = 0
	}
	return n, nil
}

func (b *HeadlessBackend) GetClockLatency() ClockLatency {
	return ClockLatency{}
}
