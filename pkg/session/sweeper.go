package session

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSweepInterval is how often the sweeper runs when none is configured.
const DefaultSweepInterval = time.Minute

// Sweeper periodically evicts expired sessions from a store.
type Sweeper struct {
	store    *Store
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewSweeper creates a sweeper for the given store.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start starts the background sweep loop.
func (sw *Sweeper) Start() error {
	if sw.running {
		return fmt.Errorf("sweeper is already running")
	}

	sw.running = true
	go sw.run()

	log.Info().
		Dur("interval", sw.interval).
		Msg("Session sweeper started")

	return nil
}

// Stop stops the sweep loop and waits for it to exit.
func (sw *Sweeper) Stop() error {
	if !sw.running {
		return fmt.Errorf("sweeper is not running")
	}

	close(sw.stopCh)
	<-sw.doneCh
	sw.running = false

	log.Info().Msg("Session sweeper stopped")

	return nil
}

// IsRunning returns whether the sweep loop is active.
func (sw *Sweeper) IsRunning() bool {
	return sw.running
}

func (sw *Sweeper) run() {
	defer close(sw.doneCh)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := sw.store.EvictExpired(); evicted > 0 {
				log.Info().Int("evicted", evicted).Msg("Evicted expired sessions")
			}
		case <-sw.stopCh:
			return
		}
	}
}
