// constants.go - fixed-point and buffer sizing constants

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

const (
	// FractionBits is the number of fractional bits in the resampler's
	// fixed-point position/increment walk.
	FractionBits = 12
	FractionOne  = 1 << FractionBits
	FractionMask = FractionOne - 1

	// MaxPreSamples/MaxPostSamples bound how much history an interpolator
	// needs before/after the current position (sinc4 needs 1 pre, 2 post;
	// the band-limited sinc filter needs more, so we size for its worst case).
	MaxPreSamples  = 4
	MaxPostSamples = 4

	// MaxPitch bounds the resampling increment so a single voice cannot
	// request an absurd playback rate.
	MaxPitch = 10.0

	// BufferSize is the maximum number of frames processed per mix
	// sub-block.
	BufferSize = 1024

	// SilenceThreshold is the magnitude below which a channel gain is
	// treated as inaudible and mixing may skip the multiply-add.
	SilenceThreshold = 1e-5

	// SpeedOfSound is the default speed of sound in meters/second,
	// matching the OpenAL default.
	SpeedOfSound = 343.3

	// MaxSends is the maximum number of auxiliary effect-slot sends per
	// source.
	MaxSends = 3

	// HRIRLen / HRIRMask size the HRTF ring buffer; must be a power of two.
	HRIRLen  = 256
	HRIRMask = HRIRLen - 1

	// HRTFHistoryLen / HRTFHistoryMask size the per-voice HRTF input
	// history ring.
	HRTFHistoryLen  = 1024
	HRTFHistoryMask = HRTFHistoryLen - 1

	// HRTFFadeLen is the number of samples over which an HRIR coefficient
	// change cross-fades old and new convolutions (original_source's
	// hrtf.c, see DESIGN.md).
	HRTFFadeLen = 128

	// BandSplitScratchLen is the scratch length used when chaining a
	// low-pass then high-pass biquad to synthesize a band-pass.
	BandSplitScratchLen = 256
)
