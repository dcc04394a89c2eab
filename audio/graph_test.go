package audio

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-4

func TestTimelineValueAt(t *testing.T) {
	tests := []struct {
		name   string
		def    float64
		events []automationEvent
		at     float64
		want   float64
	}{
		{"Default value", 0.5, nil, 3, 0.5},
		{"Before set", 0.5, []automationEvent{{setValueEvent, 1, 1}}, 0.5, 0.5},
		{"After set", 0.5, []automationEvent{{setValueEvent, 1, 1}}, 1, 1},
		{
			"Exponential midpoint is geometric mean", 0,
			[]automationEvent{{setValueEvent, 1, 0}, {exponentialRampEvent, 0.01, 2}},
			1, 0.1,
		},
		{
			"Ramp end value holds", 0,
			[]automationEvent{{setValueEvent, 1, 0}, {exponentialRampEvent, 0.01, 2}},
			5, 0.01,
		},
		{
			"Ramp from zero holds start value", 0,
			[]automationEvent{{exponentialRampEvent, 1, 1}},
			0.5, 0,
		},
		{
			"Ramp across sign change holds start value", -1,
			[]automationEvent{{exponentialRampEvent, 1, 1}},
			0.5, -1,
		},
		{
			"Chained ramps", 0,
			[]automationEvent{
				{setValueEvent, 1e-6, 0},
				{exponentialRampEvent, 1, 1},
				{exponentialRampEvent, 0.25, 2},
			},
			1.5, 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := timeline{defaultValue: tt.def}
			for _, e := range tt.events {
				tl.insert(e)
			}
			got := tl.valueAt(tt.at)
			if math.Abs(got-tt.want) > tolerance {
				t.Errorf("valueAt(%f) = %f, want %f", tt.at, got, tt.want)
			}
		})
	}
}

func TestTimelineInsertOrder(t *testing.T) {
	var tl timeline
	tl.insert(automationEvent{setValueEvent, 3, 3})
	tl.insert(automationEvent{setValueEvent, 1, 1})
	tl.insert(automationEvent{setValueEvent, 2, 1})
	tl.insert(automationEvent{setValueEvent, 0, 0})

	want := []float64{0, 1, 2, 3}
	for i, e := range tl.events {
		if e.value != want[i] {
			t.Errorf("event %d: expected value %f, got %f", i, want[i], e.value)
		}
	}

	// Later insertion wins for events sharing a time
	if got := tl.valueAt(1); got != 2 {
		t.Errorf("Expected 2 at t=1, got %f", got)
	}
}

func TestTimelineCancel(t *testing.T) {
	tl := timeline{defaultValue: 0}
	tl.insert(automationEvent{setValueEvent, 1, 0})
	tl.insert(automationEvent{exponentialRampEvent, 2, 1})
	tl.insert(automationEvent{exponentialRampEvent, 4, 2})

	tl.cancel(1)
	if len(tl.events) != 1 {
		t.Fatalf("Expected 1 event after cancel, got %d", len(tl.events))
	}
	if got := tl.valueAt(5); got != 1 {
		t.Errorf("Expected value 1 after cancel, got %f", got)
	}
}

func TestParamValidation(t *testing.T) {
	g := NewGraph(100)
	gain, err := g.NewGain(1)
	if err != nil {
		t.Fatal(err)
	}
	p := gain.Gain()

	if err := p.ExponentialRampToValueAtTime(0, 1); !errors.Is(err, ErrRampTarget) {
		t.Errorf("Expected ErrRampTarget, got %v", err)
	}
	if err := p.SetValueAtTime(1, -1); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("Expected ErrInvalidTime for negative time, got %v", err)
	}
	if err := p.SetValueAtTime(math.NaN(), 1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue for NaN, got %v", err)
	}
	if err := p.ExponentialRampToValueAtTime(1e-6, 1); err != nil {
		t.Errorf("Unexpected error for floor target: %v", err)
	}
}

func TestParamValueFollowsClock(t *testing.T) {
	g := NewGraph(100)
	gain, _ := g.NewGain(1)
	p := gain.Gain()
	p.SetValueAtTime(1, 0)
	p.ExponentialRampToValueAtTime(0.01, 1)

	if got := p.Value(); math.Abs(got-1) > tolerance {
		t.Errorf("Expected 1 at t=0, got %f", got)
	}

	g.Render(make([][2]float32, 50))
	if got := g.CurrentTime(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected clock at 0.5s, got %f", got)
	}
	if got := p.Value(); math.Abs(got-0.1) > tolerance {
		t.Errorf("Expected 0.1 at t=0.5, got %f", got)
	}
}

func TestOscillatorSingleUse(t *testing.T) {
	g := NewGraph(100)
	osc, err := g.NewOscillator(Sine)
	if err != nil {
		t.Fatal(err)
	}

	if err := osc.Stop(0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState stopping before start, got %v", err)
	}
	if err := osc.Start(0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := osc.Start(0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState on second start, got %v", err)
	}
	if err := osc.Stop(1); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := osc.Stop(2); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState on second stop, got %v", err)
	}
}

func TestUnknownWaveform(t *testing.T) {
	g := NewGraph(100)
	if _, err := g.NewOscillator("noise"); !errors.Is(err, ErrUnknownWaveform) {
		t.Errorf("Expected ErrUnknownWaveform, got %v", err)
	}
	if _, err := ParseWaveform("pulse"); !errors.Is(err, ErrUnknownWaveform) {
		t.Errorf("Expected ErrUnknownWaveform from ParseWaveform, got %v", err)
	}
	for _, name := range []string{"sine", "triangle", "sawtooth", "square"} {
		if _, err := ParseWaveform(name); err != nil {
			t.Errorf("ParseWaveform(%q) failed: %v", name, err)
		}
	}
}

func TestRenderSine(t *testing.T) {
	g := NewGraph(8)
	osc, _ := g.NewOscillator(Sine)
	osc.Frequency().SetValueAtTime(1, 0)
	if err := g.Connect(osc, g.Destination()); err != nil {
		t.Fatal(err)
	}
	osc.Start(0)

	frames := make([][2]float32, 8)
	g.Render(frames)

	for i, f := range frames {
		want := math.Sin(2 * math.Pi * float64(i) / 8)
		if math.Abs(float64(f[0])-want) > tolerance || math.Abs(float64(f[1])-want) > tolerance {
			t.Errorf("frame %d: expected %f, got %v", i, want, f)
		}
	}
}

func TestRenderStartStop(t *testing.T) {
	g := NewGraph(100)
	osc, _ := g.NewOscillator(Square)
	osc.Frequency().SetValueAtTime(0.01, 0)
	g.Connect(osc, g.Destination())
	osc.Start(0.1)
	osc.Stop(0.2)

	frames := make([][2]float32, 30)
	g.Render(frames)

	for i, f := range frames {
		var want float32
		if i >= 10 && i < 20 {
			want = 1
		}
		if f[0] != want {
			t.Errorf("frame %d: expected %f, got %f", i, want, f[0])
		}
	}
}

func TestRenderGainAutomation(t *testing.T) {
	g := NewGraph(100)
	osc, _ := g.NewOscillator(Square)
	osc.Frequency().SetValueAtTime(0.01, 0)
	amp, _ := g.NewGain(1)
	amp.Gain().SetValueAtTime(1, 0)
	amp.Gain().ExponentialRampToValueAtTime(0.01, 1)

	g.Connect(osc, amp)
	g.Connect(amp, g.Destination())
	osc.Start(0)

	frames := make([][2]float32, 101)
	g.Render(frames)

	checks := map[int]float64{0: 1, 50: 0.1, 100: 0.01}
	for i, want := range checks {
		if math.Abs(float64(frames[i][0])-want) > tolerance {
			t.Errorf("frame %d: expected %f, got %f", i, want, frames[i][0])
		}
	}
}

func TestStereoPanner(t *testing.T) {
	tests := []struct {
		name        string
		pan         float64
		left, right float64
	}{
		{"Hard left", -1, 1, 0},
		{"Center", 0, math.Sqrt2 / 2, math.Sqrt2 / 2},
		{"Hard right", 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(100)
			osc, _ := g.NewOscillator(Square)
			osc.Frequency().SetValueAtTime(0.01, 0)
			panner, err := g.NewStereoPanner(tt.pan)
			if err != nil {
				t.Fatal(err)
			}
			g.Connect(osc, panner)
			g.Connect(panner, g.Destination())
			osc.Start(0)

			frames := make([][2]float32, 1)
			g.Render(frames)
			if math.Abs(float64(frames[0][0])-tt.left) > tolerance ||
				math.Abs(float64(frames[0][1])-tt.right) > tolerance {
				t.Errorf("Expected (%f, %f), got %v", tt.left, tt.right, frames[0])
			}
		})
	}

	g := NewGraph(100)
	if _, err := g.NewStereoPanner(1.5); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue for pan out of range, got %v", err)
	}
}

func TestConnectRules(t *testing.T) {
	g := NewGraph(100)
	other := NewGraph(100)
	osc, _ := g.NewOscillator(Sine)
	foreign, _ := other.NewGain(1)
	amp, _ := g.NewGain(1)

	if err := g.Connect(osc, foreign); !errors.Is(err, ErrForeignNode) {
		t.Errorf("Expected ErrForeignNode, got %v", err)
	}
	if err := g.Connect(amp, osc); !errors.Is(err, ErrNotConnectable) {
		t.Errorf("Expected ErrNotConnectable, got %v", err)
	}
	if err := g.Connect(osc, amp); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestFeedbackLoopRendersSilence(t *testing.T) {
	g := NewGraph(100)
	a, _ := g.NewGain(1)
	b, _ := g.NewGain(1)
	g.Connect(a, b)
	g.Connect(b, a)
	g.Connect(b, g.Destination())

	frames := make([][2]float32, 4)
	g.Render(frames)
	for i, f := range frames {
		if f != [2]float32{} {
			t.Errorf("frame %d: expected silence, got %v", i, f)
		}
	}
}

func TestGraphClose(t *testing.T) {
	g := NewGraph(100)
	closed := 0
	g.onClose = func() { closed++ }

	osc, _ := g.NewOscillator(Sine)
	g.Connect(osc, g.Destination())
	osc.Start(0)

	if err := g.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := g.Close(); !errors.Is(err, ErrContextClosed) {
		t.Errorf("Expected ErrContextClosed on second close, got %v", err)
	}
	if closed != 1 {
		t.Errorf("Expected close hook to run once, ran %d times", closed)
	}
	if !g.Closed() {
		t.Error("Expected graph to report closed")
	}
	if _, err := g.NewGain(1); !errors.Is(err, ErrContextClosed) {
		t.Errorf("Expected ErrContextClosed creating a node, got %v", err)
	}
	if err := osc.Stop(1); !errors.Is(err, ErrContextClosed) {
		t.Errorf("Expected ErrContextClosed stopping on a closed graph, got %v", err)
	}

	frames := [][2]float32{{1, 1}, {1, 1}}
	g.Render(frames)
	for i, f := range frames {
		if f != [2]float32{} {
			t.Errorf("frame %d: expected silence after close, got %v", i, f)
		}
	}
	if g.CurrentTime() != 0 {
		t.Errorf("Expected clock to stay at 0 after close, got %f", g.CurrentTime())
	}
}
