// paramengine.go - per-block derivation of mixer parameters from properties

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package al

import "math"

// Fixed per-layout speaker angle tables (radians, 0 = front, increasing
// counter-clockwise), taken from original_source's ALu.c Channel3D tables
// per SPEC_FULL.md Section C.3.
var (
	quadAngles = []float32{deg(45), deg(-45), deg(135), deg(-135)}
	angles51   = []float32{deg(0), deg(0), deg(30), deg(-30), deg(110), deg(-110)}
	angles61   = []float32{deg(0), deg(0), deg(30), deg(-30), deg(180), deg(110), deg(-110)}
	angles71   = []float32{deg(0), deg(0), deg(30), deg(-30), deg(150), deg(-150), deg(110), deg(-110)}
	rearAngles = []float32{deg(150), deg(-150)}
)

func deg(d float32) float32 { return d * float32(math.Pi) / 180 }

func layoutAngles(l ChannelLayout) []float32 {
	switch l {
	case LayoutQuad:
		return quadAngles
	case Layout51:
		return angles51
	case Layout61:
		return angles61
	case Layout71:
		return angles71
	case LayoutRear:
		return rearAngles
	default:
		return nil
	}
}

// voiceParamInputs bundles the per-call-site data ComputeVoiceParams needs
// beyond SourceProps: whether the active buffer is mono (attenuated path)
// and its native layout/frequency otherwise.
type voiceParamInputs struct {
	Mono         bool
	BufferLayout ChannelLayout
	BufferFreq   int
	HeadRelative bool
}

// Route selects which path a mono (attenuated) voice's samples take this
// block, per spec 4.8's "route through HRTF … StereoPair … or generic
// panning (ambisonic encode then decode via device's panning gains)".
type Route int

const (
	RouteAmbisonic Route = iota
	RouteStereoPair
	RouteHRTF
)

// VoiceParams is ComputeVoiceParams's per-block result.
type VoiceParams struct {
	Step      uint32
	DryHF     float32
	Route     Route
	PanGains  []float32 // per-Dry-channel gains; shape follows Device.AmbisonicMode
	Azimuth   float32   // RouteHRTF: source direction, radians
	Elevation float32
	Gain      float32 // scalar gain after distance/cone attenuation (mono path only)
	Distance  float32
}

// ComputeVoiceParams runs spec 4.8's per-voice update: attenuated (mono) vs
// non-attenuated (multi-channel) branch, distance/cone/doppler, routing and
// panning, and the dry filter's HF target.
func ComputeVoiceParams(ctx *Context, d *Device, props SourceProps, in voiceParamInputs) VoiceParams {
	dryHF := float32(1.0)
	lm := &ctx.Listener.Active

	pos := props.Position
	vel := props.Velocity
	dir := props.Direction
	if !in.HeadRelative {
		pos = lm.TransformPoint(pos)
		vel = lm.TransformDirection(vel)
		dir = lm.TransformDirection(dir)
	}

	pitch := props.Pitch

	if in.Mono {
		distance := pos.Len()
		attenuation := props.DistanceModel.Attenuation(float64(distance), float64(props.RefDistance), float64(props.MaxDistance), float64(props.Rolloff))
		gain := props.Gain * float32(attenuation)

		// Air absorption: dry_hf *= AIR^(air_abs_factor * meters_beyond_min).
		beyond := distance - props.RefDistance
		if beyond < 0 {
			beyond = 0
		}
		const airAbsorptionGainHFPerMeter = 0.994 // ~ -0.05dB/m at 1.0 factor, OpenAL default
		dryHF = float32(math.Pow(airAbsorptionGainHFPerMeter, float64(props.AirAbsorptionFactor)*float64(beyond)))

		var sourceToListener Vec3
		if distance > 0 {
			sourceToListener = pos.Scale(-1 / distance)
		}

		// Cone attenuation.
		if distance > 0 && (props.InnerAngle < 360 || props.OuterAngle < 360) {
			cosAngle := dir.Normalize().Dot(sourceToListener)
			angle := float32(math.Acos(clampF(cosAngle, -1, 1))) * 180 / float32(math.Pi)
			inner, outer := props.InnerAngle/2, props.OuterAngle/2
			if angle > inner {
				if angle >= outer {
					gain *= props.OuterGain
				} else {
					t := (angle - inner) / (outer - inner)
					gain *= 1 + t*(props.OuterGain-1)
				}
			}
		}

		// Doppler: project both velocities onto the normalized
		// source->listener direction and clamp (c - V) to [1, 2c-1], per
		// original_source's ALu.c (see DESIGN.md).
		c := ctx.SpeedOfSound
		if distance > 0 && c > 0 {
			vss := vel.Dot(sourceToListener) * ctx.DopplerFactor
			vls := lm.Velocity.Dot(sourceToListener) * ctx.DopplerFactor
			denom := clampF(c-vss, 1, 2*c-1)
			numer := clampF(c-vls, 1, 2*c-1)
			pitch *= numer / denom
		}

		azimuth := float32(math.Atan2(float64(pos[0]), float64(-pos[2])))
		elevation := float32(0)
		if distance > 0 {
			elevation = float32(math.Asin(float64(clampF(pos[1]/distance, -1, 1))))
		}

		route := RouteAmbisonic
		switch {
		case d.HRTFEnabled && d.hrtf != nil:
			route = RouteHRTF
		case !d.AmbisonicMode && d.Layout == LayoutStereo && props.StereoPan != 0:
			route = RouteStereoPair
		}

		var panGains []float32
		switch route {
		case RouteStereoPair:
			pan := clampF(props.StereoPan, -1, 1)
			panGains = []float32{gain * (0.5 - 0.5*pan), gain * (0.5 + 0.5*pan)}
		default: // RouteAmbisonic, RouteHRTF: send-path gains always match
			// Dry's shape, which depends on whether Dry itself is the
			// device's ambisonic bus or its direct per-speaker mix.
			if d.AmbisonicMode {
				panGains = encodeBFormat(azimuth, elevation, gain)
			} else {
				panGains = equalPowerPan(azimuth, d.Layout.ChannelCount(), gain)
			}
		}

		pitch = clampF(pitch, 0, MaxPitch)
		step := uint32(pitch * float32(in.BufferFreq) / float32(d.Frequency) * float32(FractionOne))
		return VoiceParams{
			Step: step, DryHF: dryHF, Route: route, PanGains: panGains,
			Azimuth: azimuth, Elevation: elevation, Gain: gain, Distance: distance,
		}
	}

	// Non-attenuated multi-channel source: static layout angles, no
	// distance/doppler/cone work, per spec 4.8.
	panGains := make([]float32, d.Layout.ChannelCount())
	srcAngles := layoutAngles(in.BufferLayout)
	dstAngles := layoutAngles(d.Layout)
	if srcAngles == nil || dstAngles == nil {
		for i := range panGains {
			panGains[i] = props.Gain
		}
	} else {
		for i, sa := range srcAngles {
			best, bestDiff := 0, float32(math.MaxFloat32)
			for j, da := range dstAngles {
				diff := angleDiff(sa, da)
				if diff < bestDiff {
					best, bestDiff = j, diff
				}
			}
			if best < len(panGains) {
				panGains[best] += props.Gain
			}
		}
	}

	pitch = clampF(pitch, 0, MaxPitch)
	step := uint32(pitch * float32(in.BufferFreq) / float32(d.Frequency) * float32(FractionOne))
	return VoiceParams{Step: step, DryHF: dryHF, Route: RouteAmbisonic, PanGains: panGains}
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func angleDiff(a, b float32) float32 {
	d := a - b
	for d > float32(math.Pi) {
		d -= 2 * float32(math.Pi)
	}
	for d < -float32(math.Pi) {
		d += 2 * float32(math.Pi)
	}
	if d < 0 {
		d = -d
	}
	return d
}

// equalPowerPan distributes gain across n output channels, using an
// equal-power (sin/cos) law, so a direct single-channel source still
// spatializes sensibly without a full ambisonic encode/decode round-trip.
// n==2 is treated as a plain stereo pair at hard-left/-right (±90°),
// clamped beyond that so a source behind the listener still resolves to a
// side rather than wrapping back toward center; other channel counts pan
// across n channels spaced evenly around the full circle.
func equalPowerPan(azimuth float32, n int, gain float32) []float32 {
	out := make([]float32, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = gain
		return out
	}
	if n == 2 {
		t := (azimuth + float32(math.Pi)/2) / float32(math.Pi)
		t = clampF(t, 0, 1)
		theta := t * float32(math.Pi) / 2
		out[0] = gain * float32(math.Cos(float64(theta)))
		out[1] = gain * float32(math.Sin(float64(theta)))
		return out
	}
	norm := (azimuth + float32(math.Pi)) / (2 * float32(math.Pi)) * float32(n)
	i0 := int(norm) % n
	i1 := (i0 + 1) % n
	frac := norm - float32(int(norm))
	theta := frac * float32(math.Pi) / 2
	out[i0] = gain * float32(math.Cos(float64(theta)))
	out[i1] = gain * float32(math.Sin(float64(theta)))
	return out
}

// encodeBFormat computes a first-order ambisonic (W,X,Y,Z) gain vector for
// a source at the given azimuth/elevation, per spec 4.6's encode step: the
// generic "ambisonic encode then decode via device's panning gains" route.
func encodeBFormat(azimuth, elevation, gain float32) []float32 {
	cosEl := float32(math.Cos(float64(elevation)))
	return []float32{
		gain / sqrt2,
		gain * cosEl * float32(math.Cos(float64(azimuth))),
		gain * cosEl * float32(math.Sin(float64(azimuth))),
		gain * float32(math.Sin(float64(elevation))),
	}
}

const sqrt2 = 1.4142135

// ConfigureBiquad sets up a direct or send filter chain from normalized
// HF/LF reference scales and a shelf slope, per spec 4.8's closing
// paragraph.
func ConfigureBiquad(b *Biquad, typ FilterType, gain, freqScale float32) {
	rcpQ := CalcRcpQFromSlope(gain, 0.75)
	b.SetParams(typ, gain, freqScale, rcpQ)
}
