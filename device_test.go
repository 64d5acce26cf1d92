package al

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend is a minimal Backend used only to let OpenDevice succeed in
// tests; Render is driven directly rather than through a pull callback.
type stubBackend struct{}

func (stubBackend) Open(string) error { return nil }
func (stubBackend) Close() error      { return nil }
func (stubBackend) Reset() error      { return nil }
func (stubBackend) Start() error      { return nil }
func (stubBackend) Stop() error       { return nil }
func (stubBackend) Lock()             {}
func (stubBackend) Unlock()           {}
func (stubBackend) AvailableSamples() int { return 0 }
func (stubBackend) CaptureSamples(dst []float32, n int) (int, error) {
	return 0, ErrInvalidOperation
}
func (stubBackend) GetClockLatency() ClockLatency { return ClockLatency{} }

func monoLoopBuffer(value float32, frames int) *Buffer {
	data := make([]float32, MaxPreSamples+frames+MaxPostSamples)
	for i := 0; i < frames; i++ {
		data[MaxPreSamples+i] = value
	}
	return &Buffer{
		Frequency: 48000,
		Layout:    LayoutMono,
		Format:    FormatFloat32,
		Data:      [][]float32{data},
		LoopEnd:   frames,
	}
}

func renderFloat32(d *Device, n int) [][]float32 {
	channels := d.Layout.ChannelCount()
	out := make([]byte, n*channels*4)
	d.Render(out, n)
	result := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		result[c] = make([]float32, n)
	}
	// Decode is implicit via RealOut instead of byte-parsing, since
	// convertOutput's LE layout is covered separately by render_test.go.
	for c := 0; c < channels; c++ {
		copy(result[c], d.RealOut[c][:n])
	}
	return result
}

// TestDeviceSilenceWithNoSources covers scenario E1: a device with an active
// context but no sources renders pure silence.
func TestDeviceSilenceWithNoSources(t *testing.T) {
	d, err := OpenDevice(48000, LayoutStereo, FormatFloat32, 64, stubBackend{})
	require.NoError(t, err)
	defer UnregisterDevice(d)
	d.CreateContext(8)

	out := renderFloat32(d, 64)
	for c := range out {
		for i, v := range out[c] {
			assert.Equalf(t, float32(0), v, "channel %d sample %d must be silent", c, i)
		}
	}
}

// TestDevicePlayingSourceProducesNonSilentOutput covers scenario E2: a
// looping mono source directly in front of the listener at unity gain
// produces audible output on at least one channel.
func TestDevicePlayingSourceProducesNonSilentOutput(t *testing.T) {
	d, err := OpenDevice(48000, LayoutStereo, FormatFloat32, 64, stubBackend{})
	require.NoError(t, err)
	defer UnregisterDevice(d)
	ctx := d.CreateContext(8)

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 256)))

	props := DefaultSourceProps()
	props.Looping = true
	props.HeadRelative = true
	props.Position = Vec3{0, 0, -1}
	s.Set(ctx, props)
	s.Play(ctx)

	out := renderFloat32(d, 64)
	nonSilent := false
	for _, ch := range out {
		for _, v := range ch {
			if v != 0 {
				nonSilent = true
			}
		}
	}
	assert.True(t, nonSilent, "a playing unity-gain source must produce audible output")
}

func rms(samples []float32) float64 {
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// TestDevicePanRightFavorsRightChannel covers scenario E3: a mono source
// placed to the listener's right, non-relative, distance model NONE, must
// come out of the right channel substantially louder than the left after
// the first mix block.
func TestDevicePanRightFavorsRightChannel(t *testing.T) {
	d, err := OpenDevice(48000, LayoutStereo, FormatFloat32, 256, stubBackend{})
	require.NoError(t, err)
	defer UnregisterDevice(d)
	ctx := d.CreateContext(8)
	ctx.Listener.Set(ListenerProps{Forward: Vec3{0, 0, -1}, Up: Vec3{0, 1, 0}, Gain: 1, MetersPerUnit: 1})

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 256)))

	props := DefaultSourceProps()
	props.Looping = true
	props.HeadRelative = false
	props.Position = Vec3{1, 0, 0}
	props.DistanceModel = DistanceNone
	s.Set(ctx, props)
	s.Play(ctx)

	out := renderFloat32(d, 256)
	leftRMS := rms(out[0])
	rightRMS := rms(out[1])
	require.Greater(t, rightRMS, 0.0, "a source panned hard right must produce audible output on the right channel")

	const sixDBRatio = 1.9953 // 10^(6/20)
	if leftRMS == 0 {
		return // right-only output is, if anything, more separated than 6dB
	}
	assert.GreaterOrEqualf(t, rightRMS/leftRMS, sixDBRatio, "right channel RMS must exceed left by at least 6dB (ratio %.3f)", rightRMS/leftRMS)
}

// TestDeviceStreamingQueueStopsAfterThreeBuffersProcessed covers scenario
// E5: a non-looping streaming source with three 100-sample mono buffers
// queued transitions to STOPPED and reports all three buffers processed
// once its queue drains.
func TestDeviceStreamingQueueStopsAfterThreeBuffersProcessed(t *testing.T) {
	d, err := OpenDevice(48000, LayoutStereo, FormatFloat32, 256, stubBackend{})
	require.NoError(t, err)
	defer UnregisterDevice(d)
	ctx := d.CreateContext(8)

	s := NewSource()
	ctx.AddSource(s)
	b1 := monoLoopBuffer(1.0, 100)
	b2 := monoLoopBuffer(1.0, 100)
	b3 := monoLoopBuffer(1.0, 100)
	require.Equal(t, ErrNone, s.QueueBuffers(b1, b2, b3))

	props := DefaultSourceProps()
	props.HeadRelative = true
	props.Position = Vec3{0, 0, -1}
	props.DistanceModel = DistanceNone
	s.Set(ctx, props)
	s.Play(ctx)

	renderFloat32(d, 256)
	renderFloat32(d, 144)

	assert.Equal(t, StateStopped, s.State(), "a non-looping streaming source must stop once its queue is exhausted")
	assert.Equal(t, 3, s.ProcessedCount, "all three queued buffers must be marked processed")
}

// TestDeviceDeferredUpdateAppliesAtomicallyAtProcessBoundary covers scenario
// E6: while a context is suspended, setting gain and position does not take
// effect until ProcessContext is called — a render in between must use the
// source's prior properties exactly.
func TestDeviceDeferredUpdateAppliesAtomicallyAtProcessBoundary(t *testing.T) {
	d, err := OpenDevice(48000, LayoutStereo, FormatFloat32, 256, stubBackend{})
	require.NoError(t, err)
	defer UnregisterDevice(d)
	ctx := d.CreateContext(8)

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 256)))

	initial := DefaultSourceProps()
	initial.Looping = true
	initial.HeadRelative = true
	initial.Position = Vec3{0, 0, -1}
	initial.Gain = 1.0
	initial.DistanceModel = DistanceNone
	s.Set(ctx, initial)
	s.Play(ctx)

	beforeOut := renderFloat32(d, 256)
	beforeRMS := rms(beforeOut[0]) + rms(beforeOut[1])
	require.Greater(t, beforeRMS, 0.0)

	ctx.SuspendContext()
	updated := initial
	updated.Gain = 0.25
	updated.Position = Vec3{10, 0, 0}
	s.Set(ctx, updated)

	duringOut := renderFloat32(d, 256)
	duringRMS := rms(duringOut[0]) + rms(duringOut[1])
	assert.InDeltaf(t, beforeRMS, duringRMS, beforeRMS*0.05,
		"a render spanning a suspended context's pending update must still use the prior properties")

	ctx.ProcessContext()
	afterOut := renderFloat32(d, 256)
	afterRMS := rms(afterOut[0]) + rms(afterOut[1])
	assert.Lessf(t, afterRMS, duringRMS, "once processed, the lower gain/repositioned source must be quieter")
}

// TestDeviceDisconnectedStopsSources covers the disconnect failure path:
// Reset failing marks the device disconnected and stops every playing
// source across every attached context.
func TestDeviceDisconnectedStopsSources(t *testing.T) {
	d, err := OpenDevice(48000, LayoutStereo, FormatFloat32, 64, stubBackend{})
	require.NoError(t, err)
	defer UnregisterDevice(d)
	ctx := d.CreateContext(8)

	s := NewSource()
	ctx.AddSource(s)
	require.Equal(t, ErrNone, s.SetBuffer(monoLoopBuffer(1.0, 256)))
	s.Play(ctx)
	require.Equal(t, StatePlaying, s.State())

	d.disconnect()
	assert.True(t, d.Disconnected())
	assert.Equal(t, StateStopped, s.State())

	out := renderFloat32(d, 64)
	for _, ch := range out {
		for _, v := range ch {
			assert.Equal(t, float32(0), v)
		}
	}
}
