package sound

import (
	"context"
	"errors"

	"github.com/gordonklaus/portaudio"
)

type PortaudioDevice struct {
	Mixer
	stream      *portaudio.Stream
	audioBuffer [][2]float32
	config      Config
}

// Ensure PortaudioDevice implements Device interface
var _ Device = (*PortaudioDevice)(nil)

func NewPortaudioDevice(config Config) *PortaudioDevice {
	if config.OutputChannels < 1 || config.OutputChannels > 2 {
		config.OutputChannels = 2
	}
	return &PortaudioDevice{
		config:      config,
		audioBuffer: make([][2]float32, config.FramesPerBuffer),
	}
}

func (p *PortaudioDevice) Initialize() error {
	return portaudio.Initialize()
}

func (p *PortaudioDevice) SampleRate() float64 {
	return p.config.SampleRate
}

func (p *PortaudioDevice) open() error {
	stream, err := portaudio.OpenDefaultStream(
		0,
		p.config.OutputChannels,
		p.config.SampleRate,
		p.config.FramesPerBuffer,
		p.processAudio,
	)
	if err != nil {
		return err
	}
	p.stream = stream
	return nil
}

// processAudio runs on the portaudio callback thread
func (p *PortaudioDevice) processAudio(out [][]float32) {
	if len(out) == 0 {
		return
	}
	frames := len(out[0])
	if cap(p.audioBuffer) < frames {
		p.audioBuffer = make([][2]float32, frames)
	}
	buf := p.audioBuffer[:frames]
	p.Mix(buf)

	if len(out) == 1 {
		// Mono output, fold both channels down
		for i := range buf {
			out[0][i] = (buf[i][0] + buf[i][1]) * 0.5
		}
		return
	}
	for i := range buf {
		out[0][i] = buf[i][0]
		out[1][i] = buf[i][1]
	}
}

func (p *PortaudioDevice) Play(ctx context.Context) error {
	if p.stream != nil {
		return errors.New("Stream already playing")
	}
	if err := p.open(); err != nil {
		return err
	}
	defer p.close()

	if err := p.stream.Start(); err != nil {
		return err
	}
	defer p.stream.Stop()

	<-ctx.Done()
	return ctx.Err()
}

func (p *PortaudioDevice) close() error {
	if p.stream == nil {
		return nil
	}
	err := p.stream.Close()
	p.stream = nil
	return err
}

func (p *PortaudioDevice) Terminate() {
	portaudio.Terminate()
}
