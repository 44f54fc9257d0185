package store

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Autosaver periodically invokes a save function until stopped. Stop is
// idempotent and guarantees no save runs after it returns, so a final
// synchronous snapshot taken afterwards is never overwritten by a stale
// tick.
type Autosaver struct {
	interval time.Duration
	save     func() error
	logger   *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	ticks  uint64
	errors uint64
}

// NewAutosaver creates an autosaver; call Start to begin ticking
func NewAutosaver(interval time.Duration, save func() error, logger *slog.Logger) *Autosaver {
	return &Autosaver{
		interval: interval,
		save:     save,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the autosave loop
func (a *Autosaver) Start() {
	if !a.started.CompareAndSwap(false, true) {
		return
	}
	go a.run()
}

func (a *Autosaver) run() {
	defer close(a.done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			atomic.AddUint64(&a.ticks, 1)
			if err := a.save(); err != nil {
				atomic.AddUint64(&a.errors, 1)
				a.logger.Error("Autosave failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Stop halts the loop and waits for any in-progress save to finish
func (a *Autosaver) Stop() {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
	if a.started.Load() {
		<-a.done
	}
}

// Ticks returns how many autosave ticks have fired
func (a *Autosaver) Ticks() uint64 {
	return atomic.LoadUint64(&a.ticks)
}

// Errors returns how many autosave ticks failed
func (a *Autosaver) Errors() uint64 {
	return atomic.LoadUint64(&a.errors)
}
