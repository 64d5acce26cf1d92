// loader.go - per-format sample loading into 32-bit float

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import (
	"encoding/binary"
	"math"
)

// Load decodes frameCount samples of one logical channel from an
// interleaved src byte stream into dst (float32, [-1, 1] range), per spec
// 4.1. channelStride is the number of channels interleaved in src;
// channelIndex selects which one this call extracts.
func Load(dst []float32, src []byte, channelIndex, channelStride int, format SampleFormat, frameCount int) {
	switch format {
	case FormatInt8:
		for i := 0; i < frameCount; i++ {
			v := int8(src[i*channelStride+channelIndex])
			dst[i] = float32(v) / 128
		}
	case FormatUint8:
		for i := 0; i < frameCount; i++ {
			v := src[i*channelStride+channelIndex]
			dst[i] = (float32(v) - 128) / 128
		}
	case FormatInt16:
		for i := 0; i < frameCount; i++ {
			off := (i*channelStride + channelIndex) * 2
			v := int16(binary.LittleEndian.Uint16(src[off : off+2]))
			dst[i] = float32(v) / 32768
		}
	case FormatFloat32:
		for i := 0; i < frameCount; i++ {
			off := (i*channelStride + channelIndex) * 4
			bits := binary.LittleEndian.Uint32(src[off : off+4])
			dst[i] = math.Float32frombits(bits)
		}
	case FormatFloat64:
		for i := 0; i < frameCount; i++ {
			off := (i*channelStride + channelIndex) * 8
			bits := binary.LittleEndian.Uint64(src[off : off+8])
			dst[i] = float32(math.Float64frombits(bits))
		}
	case FormatMuLaw:
		for i := 0; i < frameCount; i++ {
			v := src[i*channelStride+channelIndex]
			dst[i] = float32(muLawTable[v]) / 32768
		}
	case FormatALaw:
		for i := 0; i < frameCount; i++ {
			v := src[i*channelStride+channelIndex]
			dst[i] = float32(aLawTable[v]) / 32768
		}
	case FormatIMA4:
		decodeIMA4(dst, src, channelIndex, channelStride, frameCount)
	case FormatMSADPCM:
		decodeMSADPCM(dst, src, channelIndex, channelStride, frameCount)
	}
}
