// buffer.go - immutable sample storage and queue items

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "sync/atomic"

// SampleFormat identifies the on-disk/in-memory encoding a Buffer's data
// was loaded from; the loader (loader.go) converts all of these to 32-bit
// float per channel before the mixer ever touches them.
type SampleFormat int

const (
	FormatInt8 SampleFormat = iota
	FormatUint8
	FormatInt16
	FormatFloat32
	FormatFloat64
	FormatMuLaw
	FormatALaw
	FormatIMA4
	FormatMSADPCM
)

// ChannelLayout describes a buffer's channel count and speaker assignment.
type ChannelLayout int

const (
	LayoutMono ChannelLayout = iota
	LayoutStereo
	LayoutRear
	LayoutQuad
	Layout51
	Layout61
	Layout71
	LayoutBFormat2D
	LayoutBFormat3D
)

func (l ChannelLayout) ChannelCount() int {
	switch l {
	case LayoutMono:
		return 1
	case LayoutStereo, LayoutRear:
		return 2
	case LayoutQuad, LayoutBFormat2D:
		return 4
	case Layout51:
		return 6
	case Layout61:
		return 7
	case Layout71:
		return 8
	case LayoutBFormat3D:
		return 4
	default:
		return 1
	}
}

// Buffer is immutable sample data plus metadata. Invariants: LoopStart <=
// LoopEnd <= length of Data[0]; a Buffer with RefCount > 0 cannot be
// deleted (enforced by the owning Context/Device API layer, not here).
type Buffer struct {
	Frequency int
	Layout    ChannelLayout
	Format    SampleFormat
	Data      [][]float32 // one slice per channel, MaxPreSamples/MaxPostSamples padded
	LoopStart int
	LoopEnd   int
	RefCount  atomic.Int32
}

// Length returns the buffer's sample-frame count (channel 0's length, minus
// loader padding).
func (b *Buffer) Length() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0]) - MaxPreSamples - MaxPostSamples
}

// BufferQueueItem is a single-linked chain element referencing a Buffer. A
// Source owns its queue; items are appended by Queue and removed by Unqueue
// only once fully consumed.
type BufferQueueItem struct {
	Buf  *Buffer
	Next *BufferQueueItem
}
