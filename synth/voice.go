package synth

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/d1nch8g/keysynth/audio"
)

// VoiceState tracks a voice from note on to resource release
type VoiceState int

const (
	VoiceSounding VoiceState = iota
	VoiceReleasing
	VoiceFreed
)

func (s VoiceState) String() string {
	switch s {
	case VoiceSounding:
		return "sounding"
	case VoiceReleasing:
		return "releasing"
	case VoiceFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// Voice is one sounding note: its own audio context and the chain
// oscillator -> amplifier -> envelope -> panner -> destination.
type Voice struct {
	Key string

	ctx        audio.Context
	oscillator *Oscillator
	amplifier  *Amplifier
	envelope   *Envelope
	panner     *Panner
	origin     float64

	mu              sync.Mutex
	state           VoiceState
	releaseDeadline float64
	hasDeadline     bool
	teardown        Task
	freeOnce        sync.Once
}

func newVoice(factory audio.ContextFactory, config Config, frequency float64, key string) (_ *Voice, err error) {
	ctx, err := factory.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	defer func() {
		if err != nil {
			if closeErr := ctx.Close(); closeErr != nil {
				log.Printf("Error closing audio context for %q: %v", key, closeErr)
			}
		}
	}()

	v := &Voice{Key: key, ctx: ctx, origin: ctx.CurrentTime()}

	if v.panner, err = newPanner(ctx, config.Pan); err != nil {
		return nil, fmt.Errorf("failed to create panner: %w", err)
	}
	if v.amplifier, err = newAmplifier(ctx, config.Volume); err != nil {
		return nil, fmt.Errorf("failed to create amplifier: %w", err)
	}
	if v.envelope, err = newEnvelope(ctx, config.Envelope, v.origin); err != nil {
		return nil, fmt.Errorf("failed to create envelope: %w", err)
	}
	if v.oscillator, err = newOscillator(ctx, config.Waveform); err != nil {
		return nil, fmt.Errorf("failed to create oscillator: %w", err)
	}

	// The envelope sits after the amplifier and before the panner so the
	// release ramp gates the final output whatever volume and pan are
	if err = chain(v.oscillator.Node, v.amplifier.Node, v.envelope.Node, v.panner.Node, destination(ctx)); err != nil {
		return nil, fmt.Errorf("failed to wire voice: %w", err)
	}

	if err = v.envelope.Start(); err != nil {
		return nil, fmt.Errorf("failed to start envelope: %w", err)
	}
	if err = v.oscillator.Start(frequency); err != nil {
		return nil, fmt.Errorf("failed to start oscillator: %w", err)
	}
	return v, nil
}

// release schedules the release ramp, the oscillator stop and the
// deferred context teardown. Only the first call has an effect.
func (v *Voice) release(s Scheduler) error {
	v.mu.Lock()
	if v.state != VoiceSounding {
		v.mu.Unlock()
		return nil
	}
	v.state = VoiceReleasing
	v.mu.Unlock()

	var errs []error
	if err := v.envelope.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release envelope: %w", err))
	}
	releaseTime := v.envelope.ReleaseTime()
	deadline := v.ctx.CurrentTime() + releaseTime
	if err := v.oscillator.StopAt(deadline); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop oscillator: %w", err))
	}

	// The deadline must be visible before the teardown can fire
	v.mu.Lock()
	v.releaseDeadline = deadline
	v.hasDeadline = true
	v.mu.Unlock()

	// Teardown is scheduled even when the calls above failed so the
	// context is always released
	task := s.AfterFunc(seconds(releaseTime), v.free)

	v.mu.Lock()
	v.teardown = task
	v.mu.Unlock()

	return errors.Join(errs...)
}

// free closes the voice's context exactly once
func (v *Voice) free() {
	v.freeOnce.Do(func() {
		if err := v.ctx.Close(); err != nil {
			log.Printf("Error closing audio context for %q: %v", v.Key, err)
		}
		v.mu.Lock()
		v.state = VoiceFreed
		v.mu.Unlock()
	})
}

func (v *Voice) State() VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Origin is the context time the voice was created at
func (v *Voice) Origin() float64 {
	return v.origin
}

// ReleaseDeadline is the context time the release ramp ends at. ok is
// false until the voice is released.
func (v *Voice) ReleaseDeadline() (deadline float64, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.releaseDeadline, v.hasDeadline
}

func (v *Voice) Frequency() float64 {
	return v.oscillator.Frequency()
}

// Phase reports the envelope stage at the context's current time
func (v *Voice) Phase() Phase {
	return v.envelope.PhaseAt(v.ctx.CurrentTime())
}
