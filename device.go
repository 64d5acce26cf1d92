// device.go - render target: mix buffers, backend, post-processors

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

// DeviceFlag bits track a Device's running state and pending
// attribute-reconfiguration requests, per spec 4.9.
type DeviceFlag uint32

const (
	DeviceRunning DeviceFlag = 1 << iota
	DevicePaused
	FreqRequest
	ChannelsRequest
	TypeRequest
)

// Device is a render target, per spec Section 3. Created by Open, mutated
// by Reset, destroyed when its refcount reaches zero.
type Device struct {
	log *slog.Logger

	Frequency  int
	Layout     ChannelLayout
	Format     SampleFormat
	UpdateSize int
	NumUpdates int

	flags atomic.Uint32

	backendMu sync.Mutex // held across Reset; never held during a mix block
	backend   Backend

	contextsMu sync.Mutex
	contexts   []*Context

	Dry     [][]float32 // per-speaker direct mix, or (AmbisonicMode) the W/X/Y/Z ambisonic bus
	FOA     [][]float32 // first-order ambisonic scratch, for a future upsample source
	RealOut [][]float32 // final per-speaker output buffers

	// AmbisonicMode routes every voice's dry path through a first-order
	// B-format encode, decoded back to speaker gains by bformat in
	// postProcess, instead of panning straight into per-speaker Dry, per
	// spec 4.6/4.8's generic ambisonic route.
	AmbisonicMode bool

	HRTFEnabled bool
	hrtf        *HRTFTable
	bformat     *BFormatDecoder
	upsampler   *BFormatDecoder

	// UHJEncoder and Crossfeed are optional final-stage post-processors
	// named in spec Section 3's Device description. Their DSP algorithms
	// are out of scope (same Non-goal class as reverb/chorus); nil means
	// none configured, and postProcess treats that as a no-op.
	UHJEncoder PostProcessor
	Crossfeed  PostProcessor

	disconnected atomic.Bool

	metrics *deviceMetrics
}

// PostProcessor is a final render-stage stage applied to RealOut after
// dry/ambisonic mixdown, e.g. a UHJ encoder or a crossfeed filter.
type PostProcessor interface {
	Process(buf [][]float32, n int)
}

// HRTFTable is the loaded (out-of-scope per spec Non-goals) HRIR data set;
// the core only needs its per-direction lookup shape, not its file format.
type HRTFTable struct {
	IrSize int
	Lookup func(azimuth, elevation float32) HRTFCoeffs
}

// OpenDevice creates a Device at the given frequency/layout/format with the
// given update size and backend, starting it immediately.
func OpenDevice(freq int, layout ChannelLayout, format SampleFormat, updateSize int, backend Backend) (*Device, error) {
	d := &Device{
		log:        componentLogger("device"),
		Frequency:  freq,
		Layout:     layout,
		Format:     format,
		UpdateSize: updateSize,
		NumUpdates: 2,
		backend:    backend,
		bformat:    &BFormatDecoder{},
		upsampler:  &BFormatDecoder{},
		metrics:    newDeviceMetrics(),
	}
	d.allocBuffers()

	if err := backend.Open(""); err != nil {
		return nil, err
	}
	if binder, ok := backend.(deviceBinder); ok {
		binder.SetDevice(d)
	}
	if err := backend.Reset(); err != nil {
		return nil, err
	}
	if err := backend.Start(); err != nil {
		return nil, err
	}
	d.flags.Store(uint32(DeviceRunning))
	RegisterDevice(d)
	return d, nil
}

// deviceBinder is implemented by backends that pull samples directly from a
// Device's render loop (e.g. backend_oto.go) rather than being driven
// synchronously (loopback). Optional: a backend that doesn't need it (the
// headless/null backend, a capture-only backend) simply doesn't implement
// it.
type deviceBinder interface {
	SetDevice(d *Device)
}

func (d *Device) allocBuffers() {
	speakers := d.Layout.ChannelCount()
	dryChannels := speakers
	if d.AmbisonicMode {
		dryChannels = 4
	}
	d.Dry = make([][]float32, dryChannels)
	d.RealOut = make([][]float32, speakers)
	d.FOA = make([][]float32, 4)
	for c := range d.Dry {
		d.Dry[c] = make([]float32, d.UpdateSize)
	}
	for c := range d.RealOut {
		d.RealOut[c] = make([]float32, d.UpdateSize)
	}
	for c := range d.FOA {
		d.FOA[c] = make([]float32, d.UpdateSize)
	}
	if d.AmbisonicMode {
		d.bformat.Reset(buildAmbisonicConfig(d.Layout), float64(d.Frequency))
	}
}

// buildAmbisonicConfig derives a basic in-phase first-order ambisonic decode
// matrix for the device's speaker layout, so AmbisonicMode's Dry bus
// decodes to real speaker gains instead of sitting unconsumed, per spec 4.6.
func buildAmbisonicConfig(layout ChannelLayout) AmbisonicConfig {
	angles := layoutAngles(layout)
	if angles == nil {
		switch layout {
		case LayoutStereo:
			angles = []float32{deg(-30), deg(30)}
		default:
			angles = []float32{0}
		}
	}
	n := float32(len(angles))
	speakers := make([]SpeakerConfig, len(angles))
	for i, a := range angles {
		speakers[i] = SpeakerConfig{
			Enabled:  true,
			Distance: 1,
			SingleBand: []float32{
				1 / n,
				2 * float32(math.Cos(float64(a))) / n,
				2 * float32(math.Sin(float64(a))) / n,
				0,
			},
		}
	}
	return AmbisonicConfig{FreqBands: 1, Speakers: speakers}
}

// Reset reconfigures the device, per SPEC_FULL.md Section C.2: takes the
// backend lock, mutates config, calls backend.Reset, releases — never while
// the mixer is mid-block, since the backend's own lock()/unlock() pair
// (held by the mix callback) serializes against this.
func (d *Device) Reset(freq int, layout ChannelLayout, format SampleFormat) error {
	d.backendMu.Lock()
	defer d.backendMu.Unlock()

	d.backend.Lock()
	d.Frequency = freq
	d.Layout = layout
	d.Format = format
	d.allocBuffers()
	err := d.backend.Reset()
	d.backend.Unlock()

	if err != nil {
		d.disconnect()
		return ErrInvalidDevice
	}
	return nil
}

// disconnect marks the device disconnected and moves every playing source
// on every context to STOPPED, per spec 4.9's failure semantics.
func (d *Device) disconnect() {
	d.log.Warn("device disconnected, stopping all playing sources")
	d.disconnected.Store(true)
	d.contextsMu.Lock()
	defer d.contextsMu.Unlock()
	for _, ctx := range d.contexts {
		for s := range ctx.sources {
			if s.State() == StatePlaying {
				s.Stop()
			}
		}
	}
}

func (d *Device) Disconnected() bool { return d.disconnected.Load() }

func (d *Device) addContext(ctx *Context) {
	d.contextsMu.Lock()
	d.contexts = append(d.contexts, ctx)
	d.contextsMu.Unlock()
}

func (d *Device) removeContext(ctx *Context) {
	d.contextsMu.Lock()
	defer d.contextsMu.Unlock()
	for i, c := range d.contexts {
		if c == ctx {
			d.contexts = append(d.contexts[:i], d.contexts[i+1:]...)
			return
		}
	}
}

// CreateContext creates and attaches a new context to the device, per spec
// Section 3.
func (d *Device) CreateContext(maxVoices int) *Context {
	ctx := NewContext(d, maxVoices)
	d.addContext(ctx)
	return ctx
}

// Close stops and closes the backend, per spec Section 3's device
// lifecycle (destroyed when refcount reaches zero — the caller is
// responsible for ensuring no contexts remain attached).
func (d *Device) Close() error {
	d.backend.Stop()
	return d.backend.Close()
}
