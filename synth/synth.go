// Package synth turns note on/off calls into per-note voices on an audio
// graph. Every voice gets its own audio context, is shaped by an
// exponential ADSR envelope and releases its context once the release
// ramp has played out.
package synth

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/d1nch8g/keysynth/audio"
)

var (
	ErrInvalidFrequency = errors.New("synth: frequency must be positive and finite")
	ErrEmptyKey         = errors.New("synth: empty note key")
)

type Option func(*Synth)

// WithScheduler replaces the timer based scheduler used for deferred
// context teardown
func WithScheduler(s Scheduler) Option {
	return func(sy *Synth) {
		sy.scheduler = s
	}
}

// Synth is a polyphonic synthesizer keyed by note name. It is safe for
// concurrent use.
type Synth struct {
	config    Config
	factory   audio.ContextFactory
	scheduler Scheduler

	mu       sync.Mutex
	registry *Registry
}

// New validates config and returns a Synth that allocates voice contexts
// from factory
func New(config Config, factory audio.ContextFactory, opts ...Option) (*Synth, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errors.New("synth: nil context factory")
	}

	s := &Synth{
		config:    config,
		factory:   factory,
		scheduler: TimerScheduler{},
		registry:  NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start begins a note at frequency under key. A key that is already
// sounding is released first, so each key owns at most one voice.
func (s *Synth) Start(frequency float64, key string) error {
	if math.IsNaN(frequency) || math.IsInf(frequency, 0) || frequency <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFrequency, frequency)
	}
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.registry.Remove(key); ok {
		s.release(old)
	}

	v, err := newVoice(s.factory, s.config, frequency, key)
	if err != nil {
		return fmt.Errorf("failed to start note %q: %w", key, err)
	}
	s.registry.Register(key, v)
	return nil
}

// Stop releases the voice under key. The key is free again as soon as
// Stop returns; the voice fades out and frees its context on its own.
// Unknown keys are ignored.
func (s *Synth) Stop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.registry.Remove(key)
	if !ok {
		return
	}
	s.release(v)
}

// StopAll releases every sounding voice
func (s *Synth) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range s.registry.Keys() {
		v, _ := s.registry.Remove(key)
		s.release(v)
	}
}

func (s *Synth) release(v *Voice) {
	if err := v.release(s.scheduler); err != nil {
		log.Printf("Error releasing note %q: %v", v.Key, err)
	}
}

// Active reports whether key has a sounding voice
func (s *Synth) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.registry.Lookup(key)
	return ok
}

// Keys returns the sounding keys in sorted order
func (s *Synth) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Keys()
}
