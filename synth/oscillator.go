package synth

import (
	"errors"

	"github.com/d1nch8g/keysynth/audio"
)

var (
	ErrOscillatorStarted    = errors.New("synth: oscillator already started")
	ErrOscillatorNotStarted = errors.New("synth: oscillator not started")
	ErrOscillatorStopped    = errors.New("synth: oscillator already stopped")
)

type oscillatorState int

const (
	oscillatorIdle oscillatorState = iota
	oscillatorRunning
	oscillatorStopped
)

// Oscillator is a single-use tone generator: it starts once and stops
// once, matching the audio node underneath.
type Oscillator struct {
	Node
	osc       audio.Oscillator
	state     oscillatorState
	frequency float64
}

func newOscillator(ctx audio.Context, w audio.Waveform) (*Oscillator, error) {
	osc, err := ctx.NewOscillator(w)
	if err != nil {
		return nil, err
	}
	return &Oscillator{Node: wrapNode(ctx, osc), osc: osc}, nil
}

// Start sets the frequency at the current context time and begins
// generation immediately
func (o *Oscillator) Start(frequency float64) error {
	switch o.state {
	case oscillatorRunning:
		return ErrOscillatorStarted
	case oscillatorStopped:
		return ErrOscillatorStopped
	}

	now := o.ctx.CurrentTime()
	if err := o.osc.Frequency().SetValueAtTime(frequency, now); err != nil {
		return err
	}
	if err := o.osc.Start(now); err != nil {
		return err
	}
	o.state = oscillatorRunning
	o.frequency = frequency
	return nil
}

// StopAt schedules the end of generation at context time at
func (o *Oscillator) StopAt(at float64) error {
	switch o.state {
	case oscillatorIdle:
		return ErrOscillatorNotStarted
	case oscillatorStopped:
		return ErrOscillatorStopped
	}
	if err := o.osc.Stop(at); err != nil {
		return err
	}
	o.state = oscillatorStopped
	return nil
}

// Frequency returns the frequency passed to Start
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Waveform returns the generated wave type
func (o *Oscillator) Waveform() audio.Waveform {
	return o.osc.Type()
}
