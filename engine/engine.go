package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/d1nch8g/keysynth/sound"
)

// Instrument turns note events into sound. *synth.Synth implements it.
type Instrument interface {
	Start(frequency float64, key string) error
	Stop(key string)
	StopAll()
}

// NoteEvent asks the engine to start or stop the note under Key
type NoteEvent struct {
	Key       string
	Frequency float64
	On        bool
}

// NoteEntry records one played note
type NoteEntry struct {
	Key       string
	Frequency float64
	Started   time.Time
	Stopped   time.Time
}

// Held reports whether the note has not been stopped yet
func (n NoteEntry) Held() bool {
	return n.Stopped.IsZero()
}

// EngineConfig holds the configuration for the engine
type EngineConfig struct {
	MaxHistorySize int
	// DrainTimeout is how long playback continues after the last note is
	// released so release tails are heard
	DrainTimeout time.Duration
}

// Engine feeds note events to an instrument while a device plays the mix
type Engine struct {
	config     EngineConfig
	device     sound.Device
	instrument Instrument

	history      []NoteEntry
	historyMutex sync.RWMutex

	isRunning    bool
	runningMutex sync.RWMutex
}

// NewEngine creates a new engine instance
func NewEngine(config EngineConfig, device sound.Device, instrument Instrument) *Engine {
	if config.MaxHistorySize == 0 {
		config.MaxHistorySize = 32
	}
	if config.DrainTimeout == 0 {
		config.DrainTimeout = 500 * time.Millisecond
	}

	return &Engine{
		config:     config,
		device:     device,
		instrument: instrument,
		history:    make([]NoteEntry, 0),
	}
}

// Start plays until events is closed, ctx is cancelled or the device
// fails. Sounding notes are released and given DrainTimeout to fade out
// before the device stops.
func (e *Engine) Start(ctx context.Context, events <-chan NoteEvent) error {
	e.runningMutex.Lock()
	if e.isRunning {
		e.runningMutex.Unlock()
		return fmt.Errorf("engine is already running")
	}
	e.isRunning = true
	e.runningMutex.Unlock()

	defer func() {
		e.runningMutex.Lock()
		e.isRunning = false
		e.runningMutex.Unlock()
	}()

	if err := e.device.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize sound device: %w", err)
	}
	defer e.device.Terminate()

	// Playback outlives ctx by the drain period
	playCtx, stopPlayback := context.WithCancel(context.Background())
	defer stopPlayback()
	g, gctx := errgroup.WithContext(playCtx)

	g.Go(func() error {
		err := e.device.Play(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("playback failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer stopPlayback()
		err := e.dispatch(ctx, gctx, events)
		e.drain(gctx)
		return err
	})

	log.Println("Engine started. Waiting for notes...")
	return g.Wait()
}

func (e *Engine) dispatch(ctx, playCtx context.Context, events <-chan NoteEvent) error {
	for {
		select {
		case <-ctx.Done():
			log.Println("Engine stopping due to context cancellation")
			return ctx.Err()
		case <-playCtx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.handle(ev)
		}
	}
}

func (e *Engine) handle(ev NoteEvent) {
	if !ev.On {
		e.instrument.Stop(ev.Key)
		e.markStopped(ev.Key)
		return
	}

	if err := e.instrument.Start(ev.Frequency, ev.Key); err != nil {
		log.Printf("Error starting note %s: %v", ev.Key, err)
		return
	}
	// A restarted key replaces the voice it held
	e.markStopped(ev.Key)
	e.addToHistory(NoteEntry{
		Key:       ev.Key,
		Frequency: ev.Frequency,
		Started:   time.Now(),
	})
}

// drain releases every note and keeps playing until the release tails
// are over or playback ends
func (e *Engine) drain(playCtx context.Context) {
	e.instrument.StopAll()
	e.markAllStopped()

	timer := time.NewTimer(e.config.DrainTimeout)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-playCtx.Done():
	}
}

// addToHistory adds a note entry to the history
func (e *Engine) addToHistory(entry NoteEntry) {
	e.historyMutex.Lock()
	defer e.historyMutex.Unlock()

	e.history = append(e.history, entry)

	// Trim history if it exceeds max size
	if len(e.history) > e.config.MaxHistorySize {
		e.history = e.history[len(e.history)-e.config.MaxHistorySize:]
	}
}

func (e *Engine) markStopped(key string) {
	e.historyMutex.Lock()
	defer e.historyMutex.Unlock()

	now := time.Now()
	for i := range e.history {
		if e.history[i].Key == key && e.history[i].Held() {
			e.history[i].Stopped = now
		}
	}
}

func (e *Engine) markAllStopped() {
	e.historyMutex.Lock()
	defer e.historyMutex.Unlock()

	now := time.Now()
	for i := range e.history {
		if e.history[i].Held() {
			e.history[i].Stopped = now
		}
	}
}

// GetHistory returns a copy of the note history
func (e *Engine) GetHistory() []NoteEntry {
	e.historyMutex.RLock()
	defer e.historyMutex.RUnlock()

	history := make([]NoteEntry, len(e.history))
	copy(history, e.history)
	return history
}

// ClearHistory clears the note history
func (e *Engine) ClearHistory() {
	e.historyMutex.Lock()
	defer e.historyMutex.Unlock()

	e.history = e.history[:0]
}

// IsRunning returns whether the engine is currently running
func (e *Engine) IsRunning() bool {
	e.runningMutex.RLock()
	defer e.runningMutex.RUnlock()
	return e.isRunning
}
