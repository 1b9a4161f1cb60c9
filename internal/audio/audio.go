// Package audio drives a portaudio output stream from the APU's
// generated samples. It is a thin collaborator outside internal/apu:
// the APU knows nothing about portaudio, it only produces float32
// samples via GetSamples, and this package is the only thing that
// imports the audio backend.
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Player streams float32 samples to the default audio output device.
// Samples are pushed in from the emulation loop via Feed once per
// frame; the portaudio callback drains them on its own thread.
type Player struct {
	stream     *portaudio.Stream
	channel    chan float32
	sampleRate int
	volume     float32
}

// NewPlayer creates a Player targeting the given sample rate. Call
// Start before feeding samples, and Close when the emulator exits.
func NewPlayer(sampleRate int) *Player {
	return &Player{
		channel:    make(chan float32, sampleRate),
		sampleRate: sampleRate,
		volume:     1.0,
	}
}

// SetVolume scales every sample before it reaches the device; 0 mutes,
// 1 is unity gain.
func (p *Player) SetVolume(volume float32) {
	p.volume = volume
}

// Start initializes portaudio and opens a stereo output stream. Mono
// APU samples are duplicated to both channels.
func (p *Player) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: failed to initialize portaudio: %w", err)
	}

	callback := func(out []float32) {
		for i := 0; i < len(out); i += 2 {
			var sample float32
			select {
			case s := <-p.channel:
				sample = s * p.volume
			default:
				sample = 0
			}
			out[i] = sample
			if i+1 < len(out) {
				out[i+1] = sample
			}
		}
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(p.sampleRate), 0, callback)
	if err != nil {
		return fmt.Errorf("audio: failed to open output stream: %w", err)
	}
	p.stream = stream

	if err := stream.Start(); err != nil {
		return fmt.Errorf("audio: failed to start output stream: %w", err)
	}
	return nil
}

// Feed enqueues newly generated samples. Samples that arrive faster
// than the device drains them are dropped rather than blocking the
// emulation loop.
func (p *Player) Feed(samples []float32) {
	for _, s := range samples {
		select {
		case p.channel <- s:
		default:
		}
	}
}

// Close stops the output stream and releases portaudio.
func (p *Player) Close() error {
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			return err
		}
	}
	return portaudio.Terminate()
}
