package synth

import (
	"errors"
	"math"

	"github.com/d1nch8g/keysynth/audio"
)

var ErrEnvelopeNotStarted = errors.New("synth: envelope not started")

// Phase is the envelope stage at a given time
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAttack
	PhaseDecay
	PhaseSustain
	PhaseRelease
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAttack:
		return "attack"
	case PhaseDecay:
		return "decay"
	case PhaseSustain:
		return "sustain"
	case PhaseRelease:
		return "release"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Envelope shapes a gain node with exponential ADSR ramps. The whole
// curve is handed to the gain automation up front; nothing steps it per
// sample.
type Envelope struct {
	Node
	gain   audio.Param
	config EnvelopeConfig
	origin float64

	started bool
	stopped bool
	stopAt  float64
}

func newEnvelope(ctx audio.Context, config EnvelopeConfig, origin float64) (*Envelope, error) {
	gain, err := ctx.NewGain(GainFloor)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Node:   wrapNode(ctx, gain),
		gain:   gain.Gain(),
		config: config,
		origin: origin,
	}, nil
}

// PeakTime is when the attack ramp reaches full gain
func (e *Envelope) PeakTime() float64 {
	return e.origin + e.config.Attack + Epsilon
}

// SustainTime is when the decay ramp reaches the sustain level
func (e *Envelope) SustainTime() float64 {
	return e.PeakTime() + math.Max(e.config.Decay, Epsilon)
}

// SustainLevel is the gain held between decay and release
func (e *Envelope) SustainLevel() float64 {
	return e.config.Sustain + Epsilon
}

// ReleaseTime is the length of the release ramp
func (e *Envelope) ReleaseTime() float64 {
	return math.Max(e.config.Release, Epsilon)
}

// Start schedules attack and decay from the voice origin. Calling it
// again is a no-op.
func (e *Envelope) Start() error {
	if e.started {
		return nil
	}
	if err := e.gain.SetValueAtTime(GainFloor, e.origin); err != nil {
		return err
	}
	if err := e.gain.ExponentialRampToValueAtTime(1, e.PeakTime()); err != nil {
		return err
	}
	if err := e.gain.ExponentialRampToValueAtTime(e.SustainLevel(), e.SustainTime()); err != nil {
		return err
	}
	e.started = true
	return nil
}

// Stop replaces whatever is still scheduled with a release ramp starting
// from the current gain. Calling it again is a no-op.
func (e *Envelope) Stop() error {
	if !e.started {
		return ErrEnvelopeNotStarted
	}
	if e.stopped {
		return nil
	}

	now := e.ctx.CurrentTime()
	current := math.Max(e.gain.Value(), GainFloor)

	// An exponential ramp needs an explicit start point
	if err := e.gain.CancelScheduledValues(now); err != nil {
		return err
	}
	if err := e.gain.SetValueAtTime(current, now); err != nil {
		return err
	}
	if err := e.gain.ExponentialRampToValueAtTime(GainFloor, now+e.ReleaseTime()); err != nil {
		return err
	}
	e.stopped = true
	e.stopAt = now
	return nil
}

// PhaseAt derives the stage at context time t from the schedule
func (e *Envelope) PhaseAt(t float64) Phase {
	switch {
	case !e.started || t < e.origin:
		return PhaseIdle
	case e.stopped && t >= e.stopAt+e.ReleaseTime():
		return PhaseDone
	case e.stopped && t >= e.stopAt:
		return PhaseRelease
	case t < e.PeakTime():
		return PhaseAttack
	case t < e.SustainTime():
		return PhaseDecay
	default:
		return PhaseSustain
	}
}
