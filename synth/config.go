package synth

import (
	"fmt"
	"math"

	"github.com/d1nch8g/keysynth/audio"
)

const (
	// GainFloor is the lowest gain an exponential ramp targets. Ramps to
	// zero are undefined.
	GainFloor = 1e-6

	// Epsilon keeps scheduled ramps strictly ordered and non-zero in
	// length.
	Epsilon = 1e-4
)

// EnvelopeConfig holds ADSR settings. Attack, Decay and Release are in
// seconds, Sustain is a level in [0, 1].
type EnvelopeConfig struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Config is the immutable voice configuration of a Synth
type Config struct {
	Waveform audio.Waveform
	Volume   float64
	Pan      float64
	Envelope EnvelopeConfig
}

func DefaultConfig() Config {
	return Config{
		Waveform: audio.Sine,
		Volume:   1,
		Pan:      0,
		Envelope: EnvelopeConfig{
			Attack:  0.2,
			Decay:   0.02,
			Sustain: 0.5,
			Release: 0.5,
		},
	}
}

// ConfigError reports a configuration value rejected by Validate
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("synth: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Validate checks every field and returns a *ConfigError for the first
// one out of range
func (c Config) Validate() error {
	if !c.Waveform.Valid() {
		return &ConfigError{Field: "waveform", Value: c.Waveform, Reason: "must be sine, triangle, sawtooth or square"}
	}
	if err := checkRange("volume", c.Volume, 0, 1); err != nil {
		return err
	}
	if err := checkRange("pan", c.Pan, -1, 1); err != nil {
		return err
	}
	if err := checkDuration("attack", c.Envelope.Attack); err != nil {
		return err
	}
	if err := checkDuration("decay", c.Envelope.Decay); err != nil {
		return err
	}
	if err := checkRange("sustain", c.Envelope.Sustain, 0, 1); err != nil {
		return err
	}
	return checkDuration("release", c.Envelope.Release)
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return &ConfigError{Field: field, Value: v, Reason: fmt.Sprintf("must be in [%g, %g]", lo, hi)}
	}
	return nil
}

func checkDuration(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return &ConfigError{Field: field, Value: v, Reason: "must be a finite number of seconds >= 0"}
	}
	return nil
}
