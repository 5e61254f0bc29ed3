// Package status serves a read-only JSON view of the instrument.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/hand"
	"github.com/chase3718/airchords/internal/logging"
	"github.com/chase3718/airchords/internal/session"
	"github.com/chase3718/airchords/internal/tracker"
	"github.com/chase3718/airchords/internal/util"
)

// Lister lists recorded sessions.
type Lister interface {
	List() ([]session.Session, error)
}

// State is the body of GET /state. Active holds the notes most recently
// struck and is cleared when no hands are in view.
type State struct {
	Frames    uint64            `json:"frames"`
	Fingers   map[string][]bool `json:"fingers"`
	Hands     []string          `json:"hands"`
	Active    []int             `json:"active"`
	Names     []string          `json:"names"`
	Pending   int               `json:"pending"`
	Output    string            `json:"output"`
	Connected bool              `json:"connected"`
}

// Board keeps the latest state. Update is called from the frame loop;
// the HTTP handlers read concurrently.
type Board struct {
	table     chord.Table
	pending   func() int
	output    string
	connected func() bool

	mu     sync.RWMutex
	frames uint64
	state  tracker.State
	hands  []string
	active []uint8
}

// NewBoard returns an empty board for the given chord table. pending, if
// non-nil, reports the number of scheduled releases.
func NewBoard(table chord.Table, pending func() int) *Board {
	return &Board{table: table, pending: pending}
}

// TrackOutput names the sound output. connected, if non-nil, reports whether
// its device is attached; without it the output counts as always connected.
// Call before serving.
func (b *Board) TrackOutput(name string, connected func() bool) {
	b.output, b.connected = name, connected
}

// Update records the outcome of one frame.
func (b *Board) Update(fingers tracker.State, step tracker.Step, hands []hand.Observation) {
	sides := make([]string, len(hands))
	for i, h := range hands {
		sides[i] = h.Side.String()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames++
	b.state = fingers
	b.hands = sides
	if len(step.Active) > 0 || len(hands) == 0 {
		b.active = append([]uint8(nil), step.Active...)
	}
}

// Snapshot returns the current state.
func (b *Board) Snapshot() State {
	b.mu.RLock()
	s := State{
		Frames:  b.frames,
		Fingers: make(map[string][]bool, chord.NumSides),
		Hands:   append([]string{}, b.hands...),
		Active:  make([]int, len(b.active)),
	}
	for i, n := range b.active {
		s.Active[i] = int(n)
	}
	for side := chord.Side(0); side < chord.NumSides; side++ {
		s.Fingers[side.String()] = append([]bool(nil), b.state[side][:]...)
	}
	b.mu.RUnlock()

	s.Names = make([]string, len(s.Active))
	for i, n := range s.Active {
		s.Names[i] = chord.PitchName(uint8(n))
	}
	if b.pending != nil {
		s.Pending = b.pending()
	}
	s.Output = b.output
	s.Connected = b.connected == nil || b.connected()
	return s
}

// NewHandler routes GET /state and, when sessions is non-nil, GET /sessions.
func NewHandler(b *Board, sessions Lister, logger *zap.SugaredLogger) http.Handler {
	logger = logging.OrNop(logger)
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, b.Snapshot())
	}).Methods(http.MethodGet)
	router.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			http.Error(w, "recording disabled", http.StatusNotFound)
			return
		}
		list, err := sessions.List()
		if err != nil {
			logger.Warnw("status: list sessions", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, toSessionViews(list))
	}).Methods(http.MethodGet)
	router.HandleFunc("/chords", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, chordViews(b.table))
	}).Methods(http.MethodGet)
	return cors.Default().Handler(router)
}

type sessionView struct {
	ID      string    `json:"id"`
	Output  string    `json:"output"`
	Started time.Time `json:"started"`
	Ended   time.Time `json:"ended"`
	Events  int       `json:"events"`
}

func toSessionViews(list []session.Session) []sessionView {
	out := make([]sessionView, len(list))
	for i, s := range list {
		out[i] = sessionView(s)
	}
	return out
}

type chordView struct {
	Key   string   `json:"key"`
	Notes []int    `json:"notes"`
	Names []string `json:"names"`
}

func chordViews(t chord.Table) []chordView {
	byName := make(map[string]chord.Chord)
	for _, k := range chord.Keys() {
		if c, ok := t.Lookup(k.Side, k.Finger); ok {
			byName[k.String()] = c
		}
	}
	out := make([]chordView, 0, len(byName))
	for _, name := range util.SortedKeys(byName) {
		c := byName[name]
		v := chordView{Key: name}
		for _, n := range c {
			v.Notes = append(v.Notes, int(n))
			v.Names = append(v.Names, chord.PitchName(n))
		}
		out = append(out, v)
	}
	return out
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debugw("status: write response", "err", err)
	}
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, logger *zap.SugaredLogger) error {
	logger = logging.OrNop(logger)
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	logger.Infow("status: listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
