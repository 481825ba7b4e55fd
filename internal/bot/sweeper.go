package bot

import (
	"log"
	"time"
)

const (
	minSweepInterval = time.Minute
	maxSweepInterval = time.Hour
)

type evicter interface {
	Evict(now time.Time) int
}

// clickSweeper periodically drops expired claim sessions.
type clickSweeper struct {
	sessions evicter
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration
	now      func() time.Time
}

func newClickSweeper(sessions evicter, interval time.Duration) *clickSweeper {
	return &clickSweeper{
		sessions: sessions,
		stopChan: make(chan struct{}),
		interval: interval,
		now:      time.Now,
	}
}

// sweepInterval sweeps a few times per TTL, clamped to [1m, 1h].
func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < minSweepInterval {
		return minSweepInterval
	}
	if interval > maxSweepInterval {
		return maxSweepInterval
	}
	return interval
}

func (w *clickSweeper) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *clickSweeper) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *clickSweeper) loop() {
	for {
		select {
		case <-w.ticker.C:
			w.tick()
		case <-w.stopChan:
			return
		}
	}
}

func (w *clickSweeper) tick() int {
	n := w.sessions.Evict(w.now())
	if n > 0 {
		log.Printf("clicks: evicted %d expired sessions", n)
	}
	return n
}
