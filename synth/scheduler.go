package synth

import (
	"math"
	"time"
)

// Task is a pending deferred callback
type Task interface {
	// Stop cancels the callback and reports whether it had not run yet
	Stop() bool
}

// Scheduler runs callbacks after a delay, best effort
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// TimerScheduler runs callbacks on time.AfterFunc timers
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
