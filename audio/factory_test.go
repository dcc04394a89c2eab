package audio

import (
	"errors"
	"sync"
	"testing"
)

// testSink sums attached sources the way an output device does
type testSink struct {
	sampleRate float64

	mu      sync.Mutex
	sources map[int]Source
	next    int
}

func newTestDevice() *testSink {
	return &testSink{sampleRate: 100}
}

func (s *testSink) SampleRate() float64 { return s.sampleRate }

func (s *testSink) Attach(src Source) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sources == nil {
		s.sources = make(map[int]Source)
	}
	id := s.next
	s.next++
	s.sources[id] = src
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.sources, id)
	}
}

func (s *testSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

func (s *testSink) Mix(out [][2]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range out {
		out[i] = [2]float32{}
	}
	buf := make([][2]float32, len(out))
	for _, src := range s.sources {
		src.Render(buf)
		for i := range out {
			out[i][0] += buf[i][0]
			out[i][1] += buf[i][1]
		}
	}
}

func TestFactoryLimitsOpenContexts(t *testing.T) {
	dev := newTestDevice()
	f := NewFactory(dev, 2)

	a, err := f.NewContext()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewContext(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewContext(); !errors.Is(err, ErrTooManyContexts) {
		t.Errorf("Expected ErrTooManyContexts, got %v", err)
	}
	if dev.Len() != 2 {
		t.Errorf("Expected 2 attached sources, got %d", dev.Len())
	}

	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if f.Open() != 1 {
		t.Errorf("Expected 1 open context after close, got %d", f.Open())
	}
	if dev.Len() != 1 {
		t.Errorf("Expected 1 attached source after close, got %d", dev.Len())
	}
	if _, err := f.NewContext(); err != nil {
		t.Errorf("Expected a free slot after close, got %v", err)
	}

	// A second close must not free another slot
	a.Close()
	if f.Open() != 2 {
		t.Errorf("Expected 2 open contexts, got %d", f.Open())
	}
}

func TestFactoryRendersThroughSink(t *testing.T) {
	dev := newTestDevice()
	f := NewFactory(dev, 0)

	ctx, err := f.NewContext()
	if err != nil {
		t.Fatal(err)
	}
	osc, _ := ctx.NewOscillator(Square)
	osc.Frequency().SetValueAtTime(0.01, 0)
	ctx.Connect(osc, ctx.Destination())
	osc.Start(0)

	buf := make([][2]float32, 10)
	dev.Mix(buf)

	if buf[0][0] != 1 || buf[9][1] != 1 {
		t.Errorf("Expected full scale square output, got %v", buf)
	}
	if ctx.CurrentTime() != 0.1 {
		t.Errorf("Expected clock at 0.1s, got %f", ctx.CurrentTime())
	}
}

func TestFactoryRejectsBadSampleRate(t *testing.T) {
	f := NewFactory(&testSink{}, 0)
	if _, err := f.NewContext(); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}
