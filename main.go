package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/d1nch8g/keysynth/audio"
	"github.com/d1nch8g/keysynth/config"
	"github.com/d1nch8g/keysynth/engine"
	"github.com/d1nch8g/keysynth/notes"
	"github.com/d1nch8g/keysynth/sound"
	"github.com/d1nch8g/keysynth/synth"
)

const ctrlC = 3

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	device, err := sound.NewDevice(cfg.Backend, cfg.Audio)
	if err != nil {
		log.Fatalf("Failed to create sound device: %v", err)
	}

	factory := audio.NewFactory(device, cfg.MaxContexts)
	instrument, err := synth.New(cfg.Synth, factory)
	if err != nil {
		log.Fatalf("Failed to create synth: %v", err)
	}

	release := math.Max(cfg.Synth.Envelope.Release, synth.Epsilon)
	eng := engine.NewEngine(engine.EngineConfig{
		MaxHistorySize: cfg.HistorySize,
		DrainTimeout:   time.Duration(release*float64(time.Second)) + 100*time.Millisecond,
	}, device, instrument)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			log.Fatalf("Failed to switch terminal to raw mode: %v", err)
		}
		defer term.Restore(fd, state)
		log.SetOutput(crlfWriter{os.Stderr})
	}

	fmt.Printf("keysynth (%s, %s). Keys a-k play an octave, z/x shift it, space releases all, q quits.\r\n",
		cfg.Backend, cfg.Synth.Waveform)

	events := make(chan engine.NoteEvent, 16)
	go readKeys(ctx, cancel, os.Stdin, notes.NewKeyboard(cfg.Octave), events)

	if err := eng.Start(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Engine stopped: %v", err)
		return
	}
	fmt.Printf("Played %d notes.\r\n", len(eng.GetHistory()))
}

// readKeys turns key presses into note toggles until q, Ctrl-C or end of
// input
func readKeys(ctx context.Context, quit context.CancelFunc, r io.Reader, kb *notes.Keyboard, events chan<- engine.NoteEvent) {
	defer quit()

	held := make(map[string]bool)
	send := func(ev engine.NoteEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	buf := make([]byte, 1)
	for {
		if _, err := r.Read(buf); err != nil {
			return
		}

		switch key := buf[0]; key {
		case 'q', ctrlC:
			return
		case 'z':
			kb.OctaveDown()
			fmt.Printf("Octave %d\r\n", kb.Octave)
		case 'x':
			kb.OctaveUp()
			fmt.Printf("Octave %d\r\n", kb.Octave)
		case ' ':
			for name := range held {
				if !send(engine.NoteEvent{Key: name}) {
					return
				}
				delete(held, name)
			}
		default:
			name, ok := kb.Note(key)
			if !ok {
				continue
			}
			freq, err := notes.Frequency(name)
			if err != nil {
				log.Printf("Error resolving note %s: %v", name, err)
				continue
			}
			on := !held[name]
			if !send(engine.NoteEvent{Key: name, Frequency: freq, On: on}) {
				return
			}
			if on {
				held[name] = true
			} else {
				delete(held, name)
			}
		}
	}
}

// crlfWriter keeps log lines left aligned while the terminal is raw
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
