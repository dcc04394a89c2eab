// Package audio defines the real-time audio graph the synth schedules on
// and an in-process implementation of it.
package audio

import (
	"errors"
	"fmt"
)

var (
	ErrContextClosed   = errors.New("audio: context closed")
	ErrInvalidState    = errors.New("audio: invalid node state")
	ErrRampTarget      = errors.New("audio: exponential ramp target must be non-zero")
	ErrInvalidTime     = errors.New("audio: invalid automation time")
	ErrInvalidValue    = errors.New("audio: invalid automation value")
	ErrForeignNode     = errors.New("audio: node belongs to another context")
	ErrTooManyContexts = errors.New("audio: too many open contexts")
	ErrUnknownWaveform = errors.New("audio: unknown waveform")
	ErrNotConnectable  = errors.New("audio: node has no inputs")
)

// Waveform selects the periodic wave an oscillator generates
type Waveform string

const (
	Sine     Waveform = "sine"
	Triangle Waveform = "triangle"
	Sawtooth Waveform = "sawtooth"
	Square   Waveform = "square"
)

// Valid reports whether w is one of the supported waveforms
func (w Waveform) Valid() bool {
	switch w {
	case Sine, Triangle, Sawtooth, Square:
		return true
	}
	return false
}

// ParseWaveform converts a waveform name into a Waveform
func ParseWaveform(s string) (Waveform, error) {
	w := Waveform(s)
	if !w.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
	}
	return w, nil
}

// Param is an automatable value. Times are in context seconds.
type Param interface {
	// Value returns the value at the context's current time
	Value() float64

	// SetValueAtTime jumps to value at time at
	SetValueAtTime(value, at float64) error

	// ExponentialRampToValueAtTime interpolates exponentially from the
	// previous event to value, arriving at time at. value must be non-zero.
	ExponentialRampToValueAtTime(value, at float64) error

	// CancelScheduledValues removes every event scheduled at or after from
	CancelScheduledValues(from float64) error
}

// Node is a processing unit owned by a Context
type Node interface {
	Context() Context
}

// Oscillator generates a periodic wave. It can be started and stopped
// once.
type Oscillator interface {
	Node
	Type() Waveform
	Frequency() Param
	Start(at float64) error
	Stop(at float64) error
}

// Gain multiplies its input by an automatable gain
type Gain interface {
	Node
	Gain() Param
}

// StereoPanner places its input in the stereo field with a fixed pan in
// [-1, 1]
type StereoPanner interface {
	Node
	Pan() float64
}

// Context is an isolated audio graph with its own clock
type Context interface {
	// CurrentTime returns the context clock in seconds
	CurrentTime() float64

	// SampleRate returns the rendering rate in Hz
	SampleRate() float64

	// Destination returns the node that feeds the output device
	Destination() Node

	NewOscillator(w Waveform) (Oscillator, error)
	NewGain(gain float64) (Gain, error)
	NewStereoPanner(pan float64) (StereoPanner, error)

	// Connect routes the output of src into dst
	Connect(src, dst Node) error

	// Close releases the context. A closed context renders silence and
	// rejects new nodes.
	Close() error
}

// ContextFactory allocates contexts
type ContextFactory interface {
	NewContext() (Context, error)
}

// Source produces stereo frames on demand. Render overwrites every frame
// in the slice.
type Source interface {
	Render(frames [][2]float32)
}
