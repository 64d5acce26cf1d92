package al

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFloat32LERoundTrips(t *testing.T) {
	buf := make([]byte, 4)
	writeFloat32LE(buf, 0, 0.5)
	bits := binary.LittleEndian.Uint32(buf)
	assert.Equal(t, float32(0.5), math.Float32frombits(bits))
}

func TestWriteInt16LEClampsAndScales(t *testing.T) {
	buf := make([]byte, 2)

	writeInt16LE(buf, 0, 1.0)
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(buf)))

	writeInt16LE(buf, 0, -1.0)
	assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(buf)))

	writeInt16LE(buf, 0, 2.0) // above unity must clamp, not wrap
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(buf)))

	writeInt16LE(buf, 0, -2.0)
	assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(buf)))
}

func TestConvertOutputFloat32Interleaves(t *testing.T) {
	d := &Device{Format: FormatFloat32}
	d.RealOut = [][]float32{{0.25, -0.5}, {0.75, 1.0}}

	out := make([]byte, 2*2*4)
	d.convertOutput(out, 2)

	frame0L := math.Float32frombits(binary.LittleEndian.Uint32(out[0:4]))
	frame0R := math.Float32frombits(binary.LittleEndian.Uint32(out[4:8]))
	frame1L := math.Float32frombits(binary.LittleEndian.Uint32(out[8:12]))
	frame1R := math.Float32frombits(binary.LittleEndian.Uint32(out[12:16]))

	assert.Equal(t, float32(0.25), frame0L)
	assert.Equal(t, float32(0.75), frame0R)
	assert.Equal(t, float32(-0.5), frame1L)
	assert.Equal(t, float32(1.0), frame1R)
}

func TestConvertOutputInt16Interleaves(t *testing.T) {
	d := &Device{Format: FormatInt16}
	d.RealOut = [][]float32{{1.0}, {-1.0}}

	out := make([]byte, 2*2)
	d.convertOutput(out, 1)

	l := int16(binary.LittleEndian.Uint16(out[0:2]))
	r := int16(binary.LittleEndian.Uint16(out[2:4]))
	assert.Equal(t, int16(32767), l)
	assert.Equal(t, int16(-32767), r)
}

func TestZeroBuffersClearsAllMixBuses(t *testing.T) {
	d := &Device{}
	d.Dry = [][]float32{{1, 2, 3}}
	d.RealOut = [][]float32{{1, 2, 3}}
	d.FOA = [][]float32{{1, 2, 3}}

	d.zeroBuffers(3)

	assert.Equal(t, []float32{0, 0, 0}, d.Dry[0])
	assert.Equal(t, []float32{0, 0, 0}, d.RealOut[0])
	assert.Equal(t, []float32{0, 0, 0}, d.FOA[0])
}

func TestPostProcessAddsDryIntoRealOutWithNoBFormat(t *testing.T) {
	d := &Device{}
	d.Dry = [][]float32{{0.5}}
	d.RealOut = [][]float32{{0.25}}

	d.postProcess(1)
	assert.Equal(t, float32(0.75), d.RealOut[0][0])
}

// TestPostProcessDecodesAmbisonicDryBusWhenEnabled covers the AmbisonicMode
// path: Dry holds W/X/Y/Z instead of per-speaker content, and postProcess
// must run it through the device's BFormatDecoder rather than adding it
// straight into RealOut.
func TestPostProcessDecodesAmbisonicDryBusWhenEnabled(t *testing.T) {
	d := &Device{
		Frequency:     48000,
		Layout:        LayoutStereo,
		AmbisonicMode: true,
		UpdateSize:    4,
		bformat:       &BFormatDecoder{},
	}
	d.allocBuffers()
	require.Len(t, d.Dry, 4, "AmbisonicMode must size Dry as the 4-channel W/X/Y/Z bus")

	for i := 0; i < 4; i++ {
		d.Dry[0][i] = 1 // unity W, silent X/Y/Z: an omnidirectional signal
	}

	d.postProcess(4)

	nonSilent := false
	for _, ch := range d.RealOut {
		for _, v := range ch {
			if v != 0 {
				nonSilent = true
			}
		}
	}
	assert.True(t, nonSilent, "an ambisonic W-only signal must decode to audible speaker output")
}

// TestPostProcessRunsConfiguredUHJAndCrossfeedStages covers the optional
// final post-processor hooks: both must run, in order, over RealOut.
func TestPostProcessRunsConfiguredUHJAndCrossfeedStages(t *testing.T) {
	var uhjRan, crossfeedRan bool
	d := &Device{}
	d.Dry = [][]float32{{0}}
	d.RealOut = [][]float32{{0}}
	d.UHJEncoder = postProcessorFunc(func(buf [][]float32, n int) {
		uhjRan = true
		assert.False(t, crossfeedRan, "UHJ encode must run before crossfeed")
	})
	d.Crossfeed = postProcessorFunc(func(buf [][]float32, n int) {
		crossfeedRan = true
	})

	d.postProcess(1)

	assert.True(t, uhjRan)
	assert.True(t, crossfeedRan)
}

type postProcessorFunc func(buf [][]float32, n int)

func (f postProcessorFunc) Process(buf [][]float32, n int) { f(buf, n) }
