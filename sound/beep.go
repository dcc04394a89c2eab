package sound

import (
	"context"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// BeepDevice plays the mix through the beep speaker. The speaker pulls
// from the embedded Mixer on its own goroutine.
type BeepDevice struct {
	Mixer
	config Config
}

var _ Device = (*BeepDevice)(nil)

func NewBeepDevice(config Config) *BeepDevice {
	return &BeepDevice{config: config}
}

func (d *BeepDevice) Initialize() error {
	return speaker.Init(beep.SampleRate(d.config.SampleRate), d.config.FramesPerBuffer)
}

func (d *BeepDevice) SampleRate() float64 {
	return d.config.SampleRate
}

func (d *BeepDevice) Play(ctx context.Context) error {
	speaker.Play(&d.Mixer)
	<-ctx.Done()
	speaker.Clear()
	return ctx.Err()
}

func (d *BeepDevice) Terminate() {
	speaker.Close()
}
