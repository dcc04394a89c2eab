package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/d1nch8g/keysynth/audio"
	"github.com/d1nch8g/keysynth/sound"
	"github.com/d1nch8g/keysynth/synth"
)

// Config holds everything main needs to assemble the synthesizer
type Config struct {
	Backend     string
	Audio       sound.Config
	MaxContexts int
	Synth       synth.Config
	Octave      int
	HistorySize int
}

func GetDefaultConfig() *Config {
	return &Config{
		Backend:     "portaudio",
		Audio:       sound.GetDefaultConfig(),
		MaxContexts: 64,
		Synth:       synth.DefaultConfig(),
		Octave:      4,
		HistorySize: 32,
	}
}

// LoadConfig reads the given env files (".env" when none are named) and
// then the process environment. Missing files are not an error; unset
// variables keep their defaults.
func LoadConfig(filenames ...string) (*Config, error) {
	err := godotenv.Load(filenames...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := GetDefaultConfig()
	r := &reader{}

	cfg.Backend = r.getString("AUDIO_BACKEND", cfg.Backend)
	cfg.Audio.SampleRate = r.getFloat("AUDIO_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.FramesPerBuffer = r.getInt("AUDIO_FRAMES_PER_BUFFER", cfg.Audio.FramesPerBuffer)
	cfg.MaxContexts = r.getInt("AUDIO_MAX_CONTEXTS", cfg.MaxContexts)

	waveform := r.getString("SYNTH_WAVEFORM", string(cfg.Synth.Waveform))
	if w, err := audio.ParseWaveform(strings.ToLower(waveform)); err != nil {
		r.fail("SYNTH_WAVEFORM", err)
	} else {
		cfg.Synth.Waveform = w
	}
	cfg.Synth.Volume = r.getFloat("SYNTH_VOLUME", cfg.Synth.Volume)
	cfg.Synth.Pan = r.getFloat("SYNTH_PAN", cfg.Synth.Pan)
	cfg.Synth.Envelope.Attack = r.getFloat("SYNTH_ATTACK", cfg.Synth.Envelope.Attack)
	cfg.Synth.Envelope.Decay = r.getFloat("SYNTH_DECAY", cfg.Synth.Envelope.Decay)
	cfg.Synth.Envelope.Sustain = r.getFloat("SYNTH_SUSTAIN", cfg.Synth.Envelope.Sustain)
	cfg.Synth.Envelope.Release = r.getFloat("SYNTH_RELEASE", cfg.Synth.Envelope.Release)

	cfg.Octave = r.getInt("SYNTH_OCTAVE", cfg.Octave)
	cfg.HistorySize = r.getInt("ENGINE_HISTORY_SIZE", cfg.HistorySize)

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values LoadConfig cannot check while parsing
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("AUDIO_SAMPLE_RATE must be positive, got %v", c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 {
		return fmt.Errorf("AUDIO_FRAMES_PER_BUFFER must be positive, got %d", c.Audio.FramesPerBuffer)
	}
	if c.MaxContexts < 0 {
		return fmt.Errorf("AUDIO_MAX_CONTEXTS must not be negative, got %d", c.MaxContexts)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("ENGINE_HISTORY_SIZE must not be negative, got %d", c.HistorySize)
	}
	return c.Synth.Validate()
}

// reader keeps the first parse error so LoadConfig can read every
// variable before checking
type reader struct {
	err error
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (r *reader) getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return f
}

func (r *reader) getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}
