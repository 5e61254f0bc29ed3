package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/logging"
	"github.com/chase3718/airchords/internal/synth"
)

const (
	// queueSize bounds events waiting for the writer; more are dropped.
	queueSize = 4096
	// maxBatch bounds the events written in one transaction.
	maxBatch = 256
)

// Recorder is a synth.Output that forwards every message to another output
// and logs it to a session. Events are written by a background goroutine in
// batches; store failures are logged, never returned.
type Recorder struct {
	out   synth.Output
	store *Store
	id    string
	start time.Time
	now   func() time.Time

	mu      sync.Mutex
	closed  bool
	queue   chan Event
	done    chan struct{}
	written int
	dropped int
	logger  *zap.SugaredLogger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// RecordClock replaces time.Now.
func RecordClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// RecordLogger sets the logger.
func RecordLogger(l *zap.SugaredLogger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder begins a session in store and returns the recording output.
func NewRecorder(out synth.Output, store *Store, name string, opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{
		out:   out,
		store: store,
		now:   time.Now,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = logging.OrNop(r.logger)
	r.start = r.now()
	id, err := store.Begin(name, r.start)
	if err != nil {
		return nil, err
	}
	r.id = id
	go r.writeLoop()
	return r, nil
}

// ID is the session being recorded.
func (r *Recorder) ID() string { return r.id }

func (r *Recorder) record(kind Kind, channel, key, velocity uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	e := Event{
		At:       r.now().Sub(r.start),
		Kind:     kind,
		Channel:  channel,
		Key:      key,
		Velocity: velocity,
	}
	select {
	case r.queue <- e:
	default:
		r.dropped++
	}
}

// writeLoop drains the queue, writing whatever has piled up as one batch.
func (r *Recorder) writeLoop() {
	defer close(r.done)
	seq := 0
	batch := make([]Event, 0, maxBatch)
	for e := range r.queue {
		batch = append(batch[:0], e)
	fill:
		for len(batch) < maxBatch {
			select {
			case e, ok := <-r.queue:
				if !ok {
					break fill
				}
				batch = append(batch, e)
			default:
				break fill
			}
		}
		if err := r.store.AppendBatch(r.id, seq, batch); err != nil {
			r.logger.Warnw("session: events dropped", "id", r.id, "count", len(batch), "err", err)
			continue
		}
		seq += len(batch)
		r.mu.Lock()
		r.written = seq
		r.mu.Unlock()
	}
}

func (r *Recorder) NoteOn(channel, key, velocity uint8) error {
	r.record(NoteOn, channel, key, velocity)
	return r.out.NoteOn(channel, key, velocity)
}

func (r *Recorder) NoteOff(channel, key, velocity uint8) error {
	r.record(NoteOff, channel, key, velocity)
	return r.out.NoteOff(channel, key, velocity)
}

func (r *Recorder) ProgramChange(channel, program uint8) error {
	r.record(ProgramChange, channel, program, 0)
	return r.out.ProgramChange(channel, program)
}

// Close flushes pending events, ends the session and closes the wrapped
// output.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done

	if err := r.store.End(r.id, r.now()); err != nil {
		r.logger.Warnw("session: end failed", "id", r.id, "err", err)
	}
	r.mu.Lock()
	written, dropped := r.written, r.dropped
	r.mu.Unlock()
	r.logger.Infow("session: saved", "id", r.id, "events", written, "dropped", dropped)
	return r.out.Close()
}
