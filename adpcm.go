// adpcm.go - mu-law/A-law tables and IMA4/MSADPCM block decode

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

// muLawTable and aLawTable are the standard ITU-T G.711 8-bit -> 16-bit
// expansion tables, built once in init() the same way the resampler's
// interpolation tables are (lut.go).
var (
	muLawTable [256]int16
	aLawTable  [256]int16
)

func init() {
	buildMuLawTable()
	buildALawTable()
}

func buildMuLawTable() {
	const bias = 0x84
	for i := 0; i < 256; i++ {
		v := ^uint8(i)
		sign := v & 0x80
		exponent := (v >> 4) & 0x07
		mantissa := v & 0x0F
		sample := (int(mantissa)<<3 + bias) << exponent
		sample -= bias
		if sign != 0 {
			sample = -sample
		}
		muLawTable[i] = int16(sample)
	}
}

func buildALawTable() {
	for i := 0; i < 256; i++ {
		v := uint8(i) ^ 0x55
		sign := v & 0x80
		exponent := (v >> 4) & 0x07
		mantissa := v & 0x0F
		var sample int
		if exponent == 0 {
			sample = int(mantissa)<<4 + 8
		} else {
			sample = (int(mantissa)<<4 + 0x108) << (exponent - 1)
		}
		if sign == 0 {
			sample = -sample
		}
		aLawTable[i] = int16(sample)
	}
}

// imaIndexTable and imaStepTable are the standard IMA ADPCM step-index
// adjustment and step-size tables.
var imaIndexTable = [16]int{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

var imaStepTable = [89]int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143, 157, 173, 190, 209, 230,
	253, 279, 307, 337, 371, 408, 449, 494, 544, 598, 658, 724, 796, 876, 963,
	1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066, 2272, 2499, 2749, 3024,
	3327, 3660, 4026, 4428, 4871, 5358, 5894, 6484, 7132, 7845, 8630, 9493,
	10442, 11487, 12635, 13899, 15289, 16818, 18500, 20350, 22385, 24623,
	27086, 29794, 32767,
}

func imaDecodeNibble(nibble int, predictor *int, stepIndex *int) int16 {
	step := imaStepTable[*stepIndex]
	diff := step >> 3
	if nibble&1 != 0 {
		diff += step >> 2
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&8 != 0 {
		diff = -diff
	}
	*predictor += diff
	if *predictor > 32767 {
		*predictor = 32767
	} else if *predictor < -32768 {
		*predictor = -32768
	}
	*stepIndex += imaIndexTable[nibble]
	if *stepIndex < 0 {
		*stepIndex = 0
	} else if *stepIndex > 88 {
		*stepIndex = 88
	}
	return int16(*predictor)
}

// decodeIMA4 decodes one channel's worth of IMA4-ADPCM-encoded frameCount
// samples. Decode state never crosses block boundaries (spec 4.1): each
// block carries its own 4-byte header {predictor int16, stepIndex byte,
// reserved byte} followed by nibble-packed data.
func decodeIMA4(dst []float32, src []byte, channelIndex, channelStride, frameCount int) {
	const blockAlign = 36 // bytes per 65-sample mono IMA4 block (standard .wav framing)
	const samplesPerBlock = 65

	blockSize := blockAlign * channelStride
	written := 0
	for blockStart := 0; written < frameCount && blockStart+blockSize <= len(src); blockStart += blockSize {
		chanOff := blockStart + channelIndex*blockAlign
		predictor := int(int16(uint16(src[chanOff]) | uint16(src[chanOff+1])<<8))
		stepIndex := int(src[chanOff+2])
		if stepIndex > 88 {
			stepIndex = 88
		}

		blockWritten := 0
		if written < frameCount {
			dst[written] = float32(predictor) / 32768
			written++
			blockWritten++
		}

		data := src[chanOff+4 : chanOff+blockAlign]
		for _, b := range data {
			for _, nibble := range [2]int{int(b & 0x0F), int(b >> 4)} {
				if written >= frameCount || blockWritten >= samplesPerBlock {
					break
				}
				s := imaDecodeNibble(nibble, &predictor, &stepIndex)
				dst[written] = float32(s) / 32768
				written++
				blockWritten++
			}
		}
	}
}

// msadpcmCoeff1/msadpcmCoeff2 are the standard Microsoft ADPCM predictor
// coefficient pairs.
var msadpcmCoeff1 = [7]int{256, 512, 0, 192, 240, 460, 392}
var msadpcmCoeff2 = [7]int{0, -256, 0, 64, 0, -208, -232}

// decodeMSADPCM decodes one channel's worth of Microsoft ADPCM-encoded
// frameCount samples, block-aligned the same way decodeIMA4 is.
func decodeMSADPCM(dst []float32, src []byte, channelIndex, channelStride, frameCount int) {
	const blockAlign = 256
	blockSize := blockAlign * channelStride
	written := 0
	for blockStart := 0; written < frameCount && blockStart+blockSize <= len(src); blockStart += blockSize {
		chanOff := blockStart + channelIndex*blockAlign
		predictor := int(src[chanOff])
		if predictor > 6 {
			predictor = 6
		}
		coeff1, coeff2 := msadpcmCoeff1[predictor], msadpcmCoeff2[predictor]

		delta := int(int16(uint16(src[chanOff+1]) | uint16(src[chanOff+2])<<8))
		sample1 := int(int16(uint16(src[chanOff+3]) | uint16(src[chanOff+4])<<8))
		sample2 := int(int16(uint16(src[chanOff+5]) | uint16(src[chanOff+6])<<8))

		if written < frameCount {
			dst[written] = float32(sample2) / 32768
			written++
		}
		if written < frameCount {
			dst[written] = float32(sample1) / 32768
			written++
		}

		data := src[chanOff+7 : chanOff+blockAlign]
		for _, b := range data {
			for _, nibble := range [2]int{int(b >> 4), int(b & 0x0F)} {
				if written >= frameCount {
					break
				}
				signed := nibble
				if signed >= 8 {
					signed -= 16
				}
				predicted := (sample1*coeff1 + sample2*coeff2) >> 8
				predicted += signed * delta
				if predicted > 32767 {
					predicted = 32767
				} else if predicted < -32768 {
					predicted = -32768
				}
				sample2 = sample1
				sample1 = predicted
				delta = (delta * adaptationTable[nibble]) >> 8
				if delta < 16 {
					delta = 16
				}
				dst[written] = float32(predicted) / 32768
				written++
			}
		}
	}
}

var adaptationTable = [16]int{
	230, 230, 230, 230, 307, 409, 512, 614,
	768, 614, 512, 409, 307, 230, 230, 230,
}
