package audio

import (
	"fmt"
	"math"
	"sort"
)

type eventKind int

const (
	setValueEvent eventKind = iota
	exponentialRampEvent
)

type automationEvent struct {
	kind  eventKind
	value float64
	time  float64
}

// timeline holds automation events sorted by time. Events sharing a time
// keep their insertion order.
type timeline struct {
	defaultValue float64
	events       []automationEvent
}

func (tl *timeline) insert(e automationEvent) {
	i := sort.Search(len(tl.events), func(i int) bool { return tl.events[i].time > e.time })
	tl.events = append(tl.events, automationEvent{})
	copy(tl.events[i+1:], tl.events[i:])
	tl.events[i] = e
}

func (tl *timeline) cancel(from float64) {
	i := sort.Search(len(tl.events), func(i int) bool { return tl.events[i].time >= from })
	tl.events = tl.events[:i]
}

// valueAt evaluates the automation curve at t. A ramp starts from the
// event before it, or from the default value at time zero.
func (tl *timeline) valueAt(t float64) float64 {
	v0, t0 := tl.defaultValue, 0.0
	for _, e := range tl.events {
		if e.time > t {
			if e.kind == exponentialRampEvent {
				return exponentialValue(v0, t0, e.value, e.time, t)
			}
			return v0
		}
		v0, t0 = e.value, e.time
	}
	return v0
}

// exponentialValue interpolates v0*(v1/v0)^((t-t0)/(t1-t0)). When v0 is
// zero or the endpoints have opposite signs the curve is undefined and
// the start value is held until t1.
func exponentialValue(v0, t0, v1, t1, t float64) float64 {
	if t1 <= t0 {
		return v1
	}
	if v0 == 0 || (v0 < 0) != (v1 < 0) {
		return v0
	}
	return v0 * math.Pow(v1/v0, (t-t0)/(t1-t0))
}

func checkEvent(value, at float64) error {
	if math.IsNaN(at) || math.IsInf(at, 0) || at < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTime, at)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}
	return nil
}

// graphParam is a Param whose automation is evaluated per sample by the
// owning graph
type graphParam struct {
	g  *Graph
	tl timeline
}

var _ Param = (*graphParam)(nil)

func newParam(g *Graph, value float64) *graphParam {
	return &graphParam{g: g, tl: timeline{defaultValue: value}}
}

func (p *graphParam) Value() float64 {
	p.g.mu.Lock()
	defer p.g.mu.Unlock()
	return p.tl.valueAt(p.g.currentTime())
}

func (p *graphParam) SetValueAtTime(value, at float64) error {
	if err := checkEvent(value, at); err != nil {
		return err
	}
	return p.schedule(automationEvent{kind: setValueEvent, value: value, time: at})
}

func (p *graphParam) ExponentialRampToValueAtTime(value, at float64) error {
	if err := checkEvent(value, at); err != nil {
		return err
	}
	if value == 0 {
		return ErrRampTarget
	}
	return p.schedule(automationEvent{kind: exponentialRampEvent, value: value, time: at})
}

func (p *graphParam) CancelScheduledValues(from float64) error {
	if err := checkEvent(0, from); err != nil {
		return err
	}
	p.g.mu.Lock()
	defer p.g.mu.Unlock()
	if p.g.closed {
		return ErrContextClosed
	}
	p.tl.cancel(from)
	return nil
}

func (p *graphParam) schedule(e automationEvent) error {
	p.g.mu.Lock()
	defer p.g.mu.Unlock()
	if p.g.closed {
		return ErrContextClosed
	}
	p.tl.insert(e)
	return nil
}
