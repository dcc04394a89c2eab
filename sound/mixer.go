package sound

import (
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// Mixer sums the output of attached sources through a beep.Mixer.
// Backends embed it to implement Device.Attach.
type Mixer struct {
	mu       sync.Mutex
	mixer    beep.Mixer
	attached int
	buf      [][2]float64
}

var _ beep.Streamer = (*Mixer)(nil)

// sourceStreamer feeds a Source into the beep mixer. It drains once
// detached, and the mixer drops drained streamers on its next pass.
type sourceStreamer struct {
	src      Source
	detached atomic.Bool
	frames   [][2]float32
}

func (s *sourceStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.detached.Load() {
		return 0, false
	}
	if cap(s.frames) < len(samples) {
		s.frames = make([][2]float32, len(samples))
	}
	frames := s.frames[:len(samples)]
	s.src.Render(frames)
	for i, f := range frames {
		samples[i] = [2]float64{float64(f[0]), float64(f[1])}
	}
	return len(samples), true
}

func (s *sourceStreamer) Err() error {
	return nil
}

// Attach adds src to the mix
func (m *Mixer) Attach(src Source) func() {
	st := &sourceStreamer{src: src}

	m.mu.Lock()
	m.mixer.Add(st)
	m.attached++
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			st.detached.Store(true)
			m.mu.Lock()
			m.attached--
			m.mu.Unlock()
		})
	}
}

// Len returns the number of attached sources
func (m *Mixer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached
}

// Stream fills samples with the clipped mix. It never drains, so the
// beep speaker can play the Mixer directly.
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stream(samples)
	return len(samples), true
}

func (m *Mixer) Err() error {
	return nil
}

// Mix renders every attached source into out, summing and hard clipping
// to [-1, 1].
func (m *Mixer) Mix(out [][2]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cap(m.buf) < len(out) {
		m.buf = make([][2]float64, len(out))
	}
	buf := m.buf[:len(out)]
	m.stream(buf)
	for i, f := range buf {
		out[i] = [2]float32{float32(f[0]), float32(f[1])}
	}
}

// stream is called with m.mu held
func (m *Mixer) stream(samples [][2]float64) {
	n, _ := m.mixer.Stream(samples)
	// beep may stop short with nothing attached
	clear(samples[n:])
	for i := range samples[:n] {
		samples[i][0] = clip(samples[i][0])
		samples[i][1] = clip(samples[i][1])
	}
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
