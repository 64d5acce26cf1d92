// alplay - minimal command-line player exercising the alcore mixing engine
// end to end: decode a WAV file with go-audio/wav, load it into a Buffer,
// attach it to a Source on a Context, and let the device's backend pull
// mixed frames in realtime.

/*
alcore - lock-free 3D positional audio mixing engine
(c) 2026 The alcore Authors
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/intuitionamiga/alcore"
)

type cli struct {
	File     string  `arg:"" name:"file" help:"WAV file to play" type:"existingfile"`
	Gain     float32 `help:"Source gain." default:"1.0"`
	Pan      float32 `help:"Stereo pan, -1 (left) to 1 (right), for mono sources." default:"0.0"`
	X        float32 `help:"Source X position, for 3D playback." default:"0.0"`
	Y        float32 `help:"Source Y position, for 3D playback." default:"0.0"`
	Z        float32 `help:"Source Z position, for 3D playback." default:"-1.0"`
	Loop     bool    `help:"Loop playback."`
	Headless bool    `help:"Has no effect: the backend is fixed at build time (the headless build tag selects the null backend)."`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("alplay"),
		kong.Description("Plays a WAV file through the alcore mixing engine."),
		kong.UsageOnError(),
	)

	buf, layout, srate, err := loadWAV(c.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "alplay:", err)
		os.Exit(1)
	}

	backend := newBackend(c.Headless)
	device, err := al.OpenDevice(srate, al.LayoutStereo, al.FormatFloat32, 1024, backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, "alplay: open device:", err)
		os.Exit(1)
	}
	defer device.Close()

	ctx := device.CreateContext(64)
	al.MakeContextCurrent(ctx)

	src := al.NewSource()
	ctx.AddSource(src)
	if ec := src.SetBuffer(buf); ec != al.ErrNone {
		fmt.Fprintln(os.Stderr, "alplay: set buffer:", ec)
		os.Exit(1)
	}

	props := al.DefaultSourceProps()
	props.Gain = c.Gain
	props.StereoPan = c.Pan
	props.Looping = c.Loop
	if layout == al.LayoutMono {
		props.Position = al.Vec3{c.X, c.Y, c.Z}
		props.HeadRelative = true
	}
	src.Set(ctx, props)
	src.Play(ctx)

	frames := buf.Length()
	duration := time.Duration(float64(frames) / float64(srate) * float64(time.Second))
	if c.Loop {
		fmt.Println("alplay: looping, press Ctrl+C to stop")
		select {}
	}
	time.Sleep(duration + 200*time.Millisecond)
}

// loadWAV decodes a PCM WAV file into a Buffer, honoring alcore's
// float32-per-channel storage convention (loader.go).
func loadWAV(path string) (*al.Buffer, al.ChannelLayout, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("not a valid WAV file")
	}

	layout := al.LayoutMono
	if dec.NumChans == 2 {
		layout = al.LayoutStereo
	} else if dec.NumChans > 2 {
		return nil, 0, 0, fmt.Errorf("unsupported channel count %d", dec.NumChans)
	}

	format := al.FormatInt16
	switch dec.BitDepth {
	case 8:
		format = al.FormatUint8
	case 16:
		format = al.FormatInt16
	case 32:
		format = al.FormatFloat32
	default:
		return nil, 0, 0, fmt.Errorf("unsupported bit depth %d", dec.BitDepth)
	}

	pcm := &goaudio.IntBuffer{
		Format: &goaudio.Format{SampleRate: int(dec.SampleRate), NumChannels: int(dec.NumChans)},
		Data:   make([]int, 0),
	}
	chunk := &goaudio.IntBuffer{
		Format: pcm.Format,
		Data:   make([]int, 4096*int(dec.NumChans)),
	}
	for {
		n, err := dec.PCMBuffer(chunk)
		if err != nil {
			return nil, 0, 0, err
		}
		if n == 0 {
			break
		}
		pcm.Data = append(pcm.Data, chunk.Data[:n]...)
	}

	bytesPerSample := int(dec.BitDepth) / 8
	raw := make([]byte, len(pcm.Data)*bytesPerSample)
	for i, v := range pcm.Data {
		switch dec.BitDepth {
		case 8:
			raw[i] = byte(v)
		case 16:
			s := int16(v)
			raw[i*2] = byte(s)
			raw[i*2+1] = byte(s >> 8)
		case 32:
			raw[i*4] = byte(v)
			raw[i*4+1] = byte(v >> 8)
			raw[i*4+2] = byte(v >> 16)
			raw[i*4+3] = byte(v >> 24)
		}
	}

	channels := int(dec.NumChans)
	frameCount := len(pcm.Data) / channels
	data := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		padded := make([]float32, al.MaxPreSamples+frameCount+al.MaxPostSamples)
		al.Load(padded[al.MaxPreSamples:al.MaxPreSamples+frameCount], raw, c, channels, format, frameCount)
		data[c] = padded
	}

	buf := &al.Buffer{
		Frequency: int(dec.SampleRate),
		Layout:    layout,
		Format:    format,
		Data:      data,
	}
	return buf, layout, int(dec.SampleRate), nil
}
