package audio

import (
	"fmt"
	"math"
	"sync"
)

// Graph is an in-process Context. Its clock advances only as frames are
// rendered, starting from zero when the graph is created.
type Graph struct {
	mu         sync.Mutex
	sampleRate float64
	frame      int64
	closed     bool
	onClose    func()
	dest       *destinationNode
}

var _ Context = (*Graph)(nil)

// NewGraph creates an open graph rendering at sampleRate
func NewGraph(sampleRate float64) *Graph {
	g := &Graph{sampleRate: sampleRate}
	g.dest = &destinationNode{graphNode: newGraphNode(g, true)}
	return g
}

func (g *Graph) currentTime() float64 {
	return float64(g.frame) / g.sampleRate
}

func (g *Graph) CurrentTime() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentTime()
}

func (g *Graph) SampleRate() float64 {
	return g.sampleRate
}

func (g *Graph) Destination() Node {
	return g.dest
}

// Closed reports whether Close has been called
func (g *Graph) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *Graph) NewOscillator(w Waveform) (Oscillator, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWaveform, string(w))
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrContextClosed
	}
	return &oscillatorNode{
		graphNode: newGraphNode(g, false),
		wave:      w,
		frequency: newParam(g, 440),
	}, nil
}

func (g *Graph) NewGain(gain float64) (Gain, error) {
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, gain)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrContextClosed
	}
	return &gainNode{
		graphNode: newGraphNode(g, true),
		gain:      newParam(g, gain),
	}, nil
}

func (g *Graph) NewStereoPanner(pan float64) (StereoPanner, error) {
	if math.IsNaN(pan) || pan < -1 || pan > 1 {
		return nil, fmt.Errorf("%w: pan %v", ErrInvalidValue, pan)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrContextClosed
	}
	// Constant power law: -3dB per side at centre
	x := (pan + 1) / 2
	return &pannerNode{
		graphNode: newGraphNode(g, true),
		pan:       pan,
		leftGain:  math.Cos(x * math.Pi / 2),
		rightGain: math.Sin(x * math.Pi / 2),
	}, nil
}

func (g *Graph) Connect(src, dst Node) error {
	s, ok := src.(processor)
	if !ok || src.Context() != Context(g) {
		return ErrForeignNode
	}
	d, ok := dst.(processor)
	if !ok || dst.Context() != Context(g) {
		return ErrForeignNode
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrContextClosed
	}
	in := d.base()
	if !in.acceptsInput {
		return ErrNotConnectable
	}
	in.inputs = append(in.inputs, s)
	return nil
}

// Close releases the graph and detaches it from its output. Closing twice
// returns ErrContextClosed.
func (g *Graph) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrContextClosed
	}
	g.closed = true
	onClose := g.onClose
	g.onClose = nil
	g.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return nil
}

// Render writes the next len(frames) stereo frames and advances the
// clock. A closed graph renders silence.
func (g *Graph) Render(frames [][2]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		for i := range frames {
			frames[i] = [2]float32{}
		}
		return
	}
	for i := range frames {
		l, r := g.dest.process(g.frame, g.currentTime())
		frames[i] = [2]float32{float32(l), float32(r)}
		g.frame++
	}
}

// processor is implemented by every node of a graph. process returns the
// node's output for one frame and is called with the graph lock held.
type processor interface {
	Node
	process(frame int64, t float64) (l, r float64)
	base() *graphNode
}

type graphNode struct {
	g            *Graph
	acceptsInput bool
	inputs       []processor

	// output cache for the frame being rendered
	frame int64
	l, r  float64
}

func newGraphNode(g *Graph, acceptsInput bool) graphNode {
	return graphNode{g: g, acceptsInput: acceptsInput, frame: -1}
}

func (n *graphNode) Context() Context { return n.g }

func (n *graphNode) base() *graphNode { return n }

// begin reports whether frame still has to be computed. The cache is
// cleared first so a feedback loop reads silence instead of recursing.
func (n *graphNode) begin(frame int64) bool {
	if n.frame == frame {
		return false
	}
	n.frame, n.l, n.r = frame, 0, 0
	return true
}

func (n *graphNode) mixInputs(frame int64, t float64) (l, r float64) {
	for _, in := range n.inputs {
		il, ir := in.process(frame, t)
		l += il
		r += ir
	}
	return l, r
}

type destinationNode struct {
	graphNode
}

func (d *destinationNode) process(frame int64, t float64) (float64, float64) {
	if d.begin(frame) {
		d.l, d.r = d.mixInputs(frame, t)
	}
	return d.l, d.r
}

type gainNode struct {
	graphNode
	gain *graphParam
}

func (n *gainNode) Gain() Param { return n.gain }

func (n *gainNode) process(frame int64, t float64) (float64, float64) {
	if n.begin(frame) {
		l, r := n.mixInputs(frame, t)
		gain := n.gain.tl.valueAt(t)
		n.l, n.r = l*gain, r*gain
	}
	return n.l, n.r
}

type pannerNode struct {
	graphNode
	pan       float64
	leftGain  float64
	rightGain float64
}

func (n *pannerNode) Pan() float64 { return n.pan }

// process treats the input as mono, which is all a voice chain feeds it
func (n *pannerNode) process(frame int64, t float64) (float64, float64) {
	if n.begin(frame) {
		l, r := n.mixInputs(frame, t)
		mono := (l + r) / 2
		n.l, n.r = mono*n.leftGain, mono*n.rightGain
	}
	return n.l, n.r
}

type oscillatorNode struct {
	graphNode
	wave      Waveform
	frequency *graphParam
	phase     float64

	started bool
	stopped bool
	startAt float64
	stopAt  float64
}

func (o *oscillatorNode) Type() Waveform { return o.wave }

func (o *oscillatorNode) Frequency() Param { return o.frequency }

func (o *oscillatorNode) Start(at float64) error {
	if err := checkEvent(0, at); err != nil {
		return err
	}
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	if o.g.closed {
		return ErrContextClosed
	}
	if o.started {
		return fmt.Errorf("%w: oscillator already started", ErrInvalidState)
	}
	o.started, o.startAt = true, at
	return nil
}

func (o *oscillatorNode) Stop(at float64) error {
	if err := checkEvent(0, at); err != nil {
		return err
	}
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	if o.g.closed {
		return ErrContextClosed
	}
	if !o.started {
		return fmt.Errorf("%w: oscillator not started", ErrInvalidState)
	}
	if o.stopped {
		return fmt.Errorf("%w: oscillator already stopped", ErrInvalidState)
	}
	o.stopped, o.stopAt = true, at
	return nil
}

func (o *oscillatorNode) process(frame int64, t float64) (float64, float64) {
	if !o.begin(frame) {
		return o.l, o.r
	}
	if !o.started || t < o.startAt || (o.stopped && t >= o.stopAt) {
		return 0, 0
	}
	s := waveSample(o.wave, o.phase)
	o.phase += o.frequency.tl.valueAt(t) / o.g.sampleRate
	o.phase -= math.Floor(o.phase)
	o.l, o.r = s, s
	return s, s
}

// waveSample evaluates a naive (not band-limited) waveform at phase in
// [0, 1)
func waveSample(w Waveform, phase float64) float64 {
	switch w {
	case Triangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case Sawtooth:
		return 2*phase - 1
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
