package audio

import (
	"fmt"
	"sync"
)

// Sink is the output new graphs are attached to. sound.Device satisfies
// it.
type Sink interface {
	SampleRate() float64
	Attach(src Source) (detach func())
}

// Factory allocates one Graph per call, attached to a shared sink. Closing
// a graph detaches it and frees its slot.
type Factory struct {
	sink        Sink
	maxContexts int

	mu   sync.Mutex
	open int
}

var _ ContextFactory = (*Factory)(nil)

// NewFactory returns a factory that allows at most maxContexts open
// graphs at once. Zero means no limit.
func NewFactory(sink Sink, maxContexts int) *Factory {
	return &Factory{sink: sink, maxContexts: maxContexts}
}

func (f *Factory) NewContext() (Context, error) {
	sampleRate := f.sink.SampleRate()
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sink sample rate %v", sampleRate)
	}

	f.mu.Lock()
	if f.maxContexts > 0 && f.open >= f.maxContexts {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManyContexts, f.maxContexts)
	}
	f.open++
	f.mu.Unlock()

	g := NewGraph(sampleRate)
	detach := f.sink.Attach(g)
	g.mu.Lock()
	g.onClose = func() {
		detach()
		f.mu.Lock()
		f.open--
		f.mu.Unlock()
	}
	g.mu.Unlock()
	return g, nil
}

// Open returns the number of graphs created and not yet closed
func (f *Factory) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}
