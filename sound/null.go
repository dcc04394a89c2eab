package sound

import (
	"context"
	"fmt"
	"time"
)

// NullDevice renders the mix at real-time rate and discards it. It keeps
// attached clocks moving on machines without an audio device.
type NullDevice struct {
	Mixer
	config Config
}

var _ Device = (*NullDevice)(nil)

func NewNullDevice(config Config) *NullDevice {
	return &NullDevice{config: config}
}

func (d *NullDevice) Initialize() error {
	if d.config.SampleRate <= 0 || d.config.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid null device config: %+v", d.config)
	}
	return nil
}

func (d *NullDevice) Terminate() {}

func (d *NullDevice) SampleRate() float64 {
	return d.config.SampleRate
}

func (d *NullDevice) Play(ctx context.Context) error {
	period := time.Duration(float64(d.config.FramesPerBuffer) / d.config.SampleRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([][2]float32, d.config.FramesPerBuffer)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Mix(buf)
		}
	}
}
