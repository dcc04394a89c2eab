package synth

import (
	"errors"
	"time"

	"github.com/d1nch8g/keysynth/audio"
)

// paramCall records one automation call on a fakeParam
type paramCall struct {
	op    string
	value float64
	at    float64
}

type fakeParam struct {
	value float64
	calls []paramCall
}

func (p *fakeParam) Value() float64 { return p.value }

func (p *fakeParam) SetValueAtTime(value, at float64) error {
	p.calls = append(p.calls, paramCall{"set", value, at})
	return nil
}

func (p *fakeParam) ExponentialRampToValueAtTime(value, at float64) error {
	if value == 0 {
		return audio.ErrRampTarget
	}
	p.calls = append(p.calls, paramCall{"ramp", value, at})
	return nil
}

func (p *fakeParam) CancelScheduledValues(from float64) error {
	p.calls = append(p.calls, paramCall{"cancel", 0, from})
	return nil
}

type fakeNode struct {
	ctx     *fakeContext
	outputs []audio.Node
}

func (n *fakeNode) Context() audio.Context { return n.ctx }

func (n *fakeNode) base() *fakeNode { return n }

type fakeOscillator struct {
	fakeNode
	wave   audio.Waveform
	freq   *fakeParam
	starts []float64
	stops  []float64
}

func (o *fakeOscillator) Type() audio.Waveform    { return o.wave }
func (o *fakeOscillator) Frequency() audio.Param { return o.freq }
func (o *fakeOscillator) Start(at float64) error { o.starts = append(o.starts, at); return nil }
func (o *fakeOscillator) Stop(at float64) error  { o.stops = append(o.stops, at); return nil }

type fakeGain struct {
	fakeNode
	gain *fakeParam
}

func (g *fakeGain) Gain() audio.Param { return g.gain }

type fakePanner struct {
	fakeNode
	pan float64
}

func (p *fakePanner) Pan() float64 { return p.pan }

type fakeContext struct {
	now         float64
	closed      int
	failNode    string
	dest        *fakeNode
	oscillators []*fakeOscillator
	gains       []*fakeGain
	panners     []*fakePanner
}

var errNodeFailed = errors.New("fake: node creation failed")

func (c *fakeContext) CurrentTime() float64    { return c.now }
func (c *fakeContext) SampleRate() float64     { return 44100 }
func (c *fakeContext) Destination() audio.Node { return c.dest }

func (c *fakeContext) NewOscillator(w audio.Waveform) (audio.Oscillator, error) {
	if c.failNode == "oscillator" {
		return nil, errNodeFailed
	}
	o := &fakeOscillator{fakeNode: fakeNode{ctx: c}, wave: w, freq: &fakeParam{value: 440}}
	c.oscillators = append(c.oscillators, o)
	return o, nil
}

func (c *fakeContext) NewGain(gain float64) (audio.Gain, error) {
	if c.failNode == "gain" {
		return nil, errNodeFailed
	}
	g := &fakeGain{fakeNode: fakeNode{ctx: c}, gain: &fakeParam{value: gain}}
	c.gains = append(c.gains, g)
	return g, nil
}

func (c *fakeContext) NewStereoPanner(pan float64) (audio.StereoPanner, error) {
	if c.failNode == "panner" {
		return nil, errNodeFailed
	}
	p := &fakePanner{fakeNode: fakeNode{ctx: c}, pan: pan}
	c.panners = append(c.panners, p)
	return p, nil
}

func (c *fakeContext) Connect(src, dst audio.Node) error {
	n, ok := src.(interface{ base() *fakeNode })
	if !ok {
		return audio.ErrForeignNode
	}
	n.base().outputs = append(n.base().outputs, dst)
	return nil
}

func (c *fakeContext) Close() error {
	c.closed++
	if c.closed > 1 {
		return audio.ErrContextClosed
	}
	return nil
}

// A voice creates its panner first, then the amplifier gain, the envelope
// gain and the oscillator
func (c *fakeContext) amplifier() *fakeGain { return c.gains[0] }
func (c *fakeContext) envelope() *fakeGain  { return c.gains[1] }

type fakeFactory struct {
	now      float64
	err      error
	failNode string
	contexts []*fakeContext
}

func (f *fakeFactory) NewContext() (audio.Context, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeContext{now: f.now, failNode: f.failNode}
	c.dest = &fakeNode{ctx: c}
	f.contexts = append(f.contexts, c)
	return c, nil
}

type fakeTask struct {
	delay   time.Duration
	f       func()
	fired   bool
	stopped bool
}

func (t *fakeTask) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	tasks []*fakeTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Task {
	t := &fakeTask{delay: d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

// fireAll runs every pending task, as if all delays had elapsed
func (s *fakeScheduler) fireAll() {
	for _, t := range s.tasks {
		if !t.fired && !t.stopped {
			t.fired = true
			t.f()
		}
	}
}
