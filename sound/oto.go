package sound

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoDevice plays the mix through an oto player. Oto pulls from the
// device through Read on its own goroutine.
type OtoDevice struct {
	Mixer
	ctx       *oto.Context
	frameBuf  [][2]float32 // Pre-allocated frame buffer
	config    Config
	mutex     sync.Mutex // Only for setup/control operations
	isPlaying bool
}

var _ Device = (*OtoDevice)(nil)

func NewOtoDevice(config Config) *OtoDevice {
	return &OtoDevice{
		config:   config,
		frameBuf: make([][2]float32, config.FramesPerBuffer),
	}
}

func (d *OtoDevice) Initialize() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.ctx != nil {
		return d.ctx.Resume()
	}
	bufferSize := time.Duration(float64(d.config.FramesPerBuffer) / d.config.SampleRate * float64(time.Second))
	op := &oto.NewContextOptions{
		SampleRate:   int(d.config.SampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return err
	}
	<-ready
	d.ctx = ctx
	return nil
}

func (d *OtoDevice) SampleRate() float64 {
	return d.config.SampleRate
}

// Read fills p with interleaved little-endian float32 stereo frames
func (d *OtoDevice) Read(p []byte) (int, error) {
	const frameSize = 8
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	if cap(d.frameBuf) < frames {
		d.frameBuf = make([][2]float32, frames)
	}
	buf := d.frameBuf[:frames]
	d.Mix(buf)

	for i, f := range buf {
		binary.LittleEndian.PutUint32(p[i*frameSize:], math.Float32bits(f[0]))
		binary.LittleEndian.PutUint32(p[i*frameSize+4:], math.Float32bits(f[1]))
	}
	return frames * frameSize, nil
}

func (d *OtoDevice) Play(ctx context.Context) error {
	d.mutex.Lock()
	if d.ctx == nil {
		d.mutex.Unlock()
		return errors.New("oto context not initialized")
	}
	if d.isPlaying {
		d.mutex.Unlock()
		return errors.New("oto player already playing")
	}
	d.isPlaying = true
	player := d.ctx.NewPlayer(d)
	d.mutex.Unlock()

	player.Play()
	<-ctx.Done()

	d.mutex.Lock()
	d.isPlaying = false
	d.mutex.Unlock()

	if err := player.Close(); err != nil {
		return err
	}
	return ctx.Err()
}

// Terminate suspends the oto context. Oto allows a single context per
// process, so it is never recreated.
func (d *OtoDevice) Terminate() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.ctx != nil {
		_ = d.ctx.Suspend()
	}
}
