// Package sustain plays chords immediately and releases them after a fixed
// sustain delay. Pending releases are keyed by finger: pressing the same
// finger again cancels every release still waiting for it.
package sustain

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/logging"
	"github.com/chase3718/airchords/internal/synth"
)

// Defaults for the stock instrument.
const (
	DefaultDelay    = 2 * time.Second
	DefaultVelocity = 127
	TickInterval    = 5 * time.Millisecond
)

// Config is fixed for the controller's lifetime.
type Config struct {
	Delay    time.Duration
	Velocity uint8
	Channel  uint8
}

// DefaultConfig returns a 2 s sustain at full velocity on channel 0.
func DefaultConfig() Config {
	return Config{Delay: DefaultDelay, Velocity: DefaultVelocity}
}

// -------------------- Min-Heap --------------------

type plannedRelease struct {
	at    time.Time
	key   chord.Key
	chord chord.Chord
	gen   uint64
}

type releaseHeap []plannedRelease

func (h releaseHeap) Len() int            { return len(h) }
func (h releaseHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h releaseHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *releaseHeap) Push(x interface{}) { *h = append(*h, x.(plannedRelease)) }
func (h *releaseHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// -------------------- Controller --------------------

// Controller owns the release queue. Play and ScheduleRelease are called by
// the frame loop, Flush by Run's ticker; mu serializes them, including the
// writes to the output.
type Controller struct {
	cfg    Config
	out    synth.Output
	now    func() time.Time
	logger *zap.SugaredLogger

	mu       sync.Mutex
	queue    releaseHeap
	gens     map[chord.Key]uint64
	sounding map[chord.Key]chord.Chord // played and not yet released
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the controller's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controller) { c.logger = l }
}

// New returns a controller writing to out.
func New(out synth.Output, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		out:      out,
		now:      time.Now,
		gens:     make(map[chord.Key]uint64),
		sounding: make(map[chord.Key]chord.Chord),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Play cancels pending releases for key and sends note-on for the chord.
func (c *Controller) Play(key chord.Key, ch chord.Chord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.sounding[key] = ch
	for _, n := range ch {
		if err := c.out.NoteOn(c.cfg.Channel, n, c.cfg.Velocity); err != nil {
			c.logger.Warnw("sustain: note on failed", "key", key.String(), "note", n, "err", err)
		}
	}
	c.logger.Debugw("sustain: chord on", "key", key.String(), "chord", ch.Names())
}

// ScheduleRelease queues note-off for the chord after the sustain delay.
func (c *Controller) ScheduleRelease(key chord.Key, ch chord.Chord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	at := c.now().Add(c.cfg.Delay)
	heap.Push(&c.queue, plannedRelease{at: at, key: key, chord: ch, gen: c.gens[key]})
	c.logger.Debugw("sustain: release scheduled", "key", key.String(), "chord", ch.Names(), "delay_ms", c.cfg.Delay.Milliseconds())
}

// Flush sends note-off for every release due at t and returns how many fired.
// Cancelled releases are dropped silently. The lock is held while sending so
// a concurrent Play cannot be overtaken by a stale note-off.
func (c *Controller) Flush(t time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	fired := 0
	for c.queue.Len() > 0 && !t.Before(c.queue[0].at) {
		pr := heap.Pop(&c.queue).(plannedRelease)
		if pr.gen != c.gens[pr.key] {
			continue
		}
		c.release(pr)
		fired++
	}
	if fired > 0 {
		c.logger.Debugw("sustain: flushed releases", "count", fired, "remaining", c.queue.Len())
	}
	return fired
}

func (c *Controller) release(pr plannedRelease) {
	delete(c.sounding, pr.key)
	for _, n := range pr.chord {
		if err := c.out.NoteOff(c.cfg.Channel, n, c.cfg.Velocity); err != nil {
			c.logger.Warnw("sustain: note off failed", "key", pr.key.String(), "note", n, "err", err)
		}
	}
}

// Pending counts queued releases that have not been cancelled.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, pr := range c.queue {
		if pr.gen == c.gens[pr.key] {
			n++
		}
	}
	return n
}

// ReleaseAll fires every live release now, regardless of its due time, then
// silences chords whose finger is still raised. It returns the number of
// chords released.
func (c *Controller) ReleaseAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	fired := 0
	for c.queue.Len() > 0 {
		pr := heap.Pop(&c.queue).(plannedRelease)
		if pr.gen == c.gens[pr.key] {
			c.release(pr)
			fired++
		}
	}
	held := 0
	for key, ch := range c.sounding {
		c.release(plannedRelease{key: key, chord: ch})
		held++
	}
	fired += held
	if fired > 0 {
		c.logger.Infow("sustain: released all pending", "count", fired, "held", held)
	}
	return fired
}

// Run flushes due releases every interval until ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Flush(c.now())
		}
	}
}
