package sound

import (
	"context"
	"fmt"

	"github.com/d1nch8g/keysynth/audio"
)

// Source is anything the mixer can pull frames from, usually an
// audio.Graph
type Source = audio.Source

// Device defines the interface for audio output backends
type Device interface {
	// Initialize initializes the audio output system
	Initialize() error

	// Terminate terminates the audio output system
	Terminate()

	// Play pulls mixed audio from the attached sources until the context
	// is cancelled
	Play(ctx context.Context) error

	// SampleRate returns the output sample rate in Hz
	SampleRate() float64

	// Attach adds a source to the output mix. The returned function
	// removes it again and may be called more than once.
	Attach(src Source) (detach func())
}

// Config describes the output stream shared by all backends
type Config struct {
	SampleRate      float64
	FramesPerBuffer int
	OutputChannels  int
}

func GetDefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		FramesPerBuffer: 1024,
		OutputChannels:  2,
	}
}

// NewDevice returns the output backend registered under name
func NewDevice(name string, config Config) (Device, error) {
	switch name {
	case "portaudio", "":
		return NewPortaudioDevice(config), nil
	case "oto":
		return NewOtoDevice(config), nil
	case "beep":
		return NewBeepDevice(config), nil
	case "null":
		return NewNullDevice(config), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}
