package synth

import (
	"fmt"

	"github.com/d1nch8g/keysynth/audio"
)

// Node wraps an audio node so every stage of a voice chain connects the
// same way
type Node struct {
	ctx audio.Context
	raw audio.Node
}

func wrapNode(ctx audio.Context, raw audio.Node) Node {
	return Node{ctx: ctx, raw: raw}
}

// Connect routes this node's output into next
func (n Node) Connect(next Node) error {
	return n.ctx.Connect(n.raw, next.raw)
}

func destination(ctx audio.Context) Node {
	return wrapNode(ctx, ctx.Destination())
}

// chain connects each node to the one after it
func chain(nodes ...Node) error {
	for i := 0; i+1 < len(nodes); i++ {
		if err := nodes[i].Connect(nodes[i+1]); err != nil {
			return fmt.Errorf("failed to connect stage %d: %w", i, err)
		}
	}
	return nil
}

// Amplifier applies the static master volume
type Amplifier struct {
	Node
	gain audio.Gain
}

func newAmplifier(ctx audio.Context, volume float64) (*Amplifier, error) {
	gain, err := ctx.NewGain(volume)
	if err != nil {
		return nil, err
	}
	return &Amplifier{Node: wrapNode(ctx, gain), gain: gain}, nil
}

// Panner applies the static master pan
type Panner struct {
	Node
	panner audio.StereoPanner
}

func newPanner(ctx audio.Context, pan float64) (*Panner, error) {
	panner, err := ctx.NewStereoPanner(pan)
	if err != nil {
		return nil, err
	}
	return &Panner{Node: wrapNode(ctx, panner), panner: panner}, nil
}
