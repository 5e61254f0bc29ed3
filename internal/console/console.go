// Package console is the terminal side of the instrument: a headless display
// that reads the quit key from stdin, and a debounced log of what is playing.
package console

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/eiannone/keyboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/hand"
	"github.com/chase3718/airchords/internal/instrument"
	"github.com/chase3718/airchords/internal/logging"
	"github.com/chase3718/airchords/internal/tracker"
)

// Headless is a Display that shows nothing. Keys typed in the terminal are
// returned from Show so 'q' still quits.
type Headless struct {
	keys   <-chan keyboard.KeyEvent
	closer func() error
	logger *zap.SugaredLogger
}

// OpenHeadless grabs the terminal keyboard when stdin is a terminal. Without
// one, the loop can only be stopped by cancelling its context.
func OpenHeadless(logger *zap.SugaredLogger) (*Headless, error) {
	logger = logging.OrNop(logger)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Infow("console: stdin is not a terminal, quit key disabled")
		return NewHeadless(nil, logger), nil
	}
	keys, err := keyboard.GetKeys(128)
	if err != nil {
		return nil, fmt.Errorf("console: open keyboard: %w", err)
	}
	h := NewHeadless(keys, logger)
	h.closer = keyboard.Close
	logger.Infow("console: headless, press q to quit")
	return h, nil
}

// NewHeadless reads keys from the given channel, which may be nil.
func NewHeadless(keys <-chan keyboard.KeyEvent, logger *zap.SugaredLogger) *Headless {
	return &Headless{keys: keys, logger: logging.OrNop(logger)}
}

// Show never blocks. It returns the first pending key, or instrument.NoKey.
func (h *Headless) Show(instrument.Frame, instrument.Overlay) (int, error) {
	select {
	case ev, ok := <-h.keys:
		if !ok {
			h.keys = nil
			return instrument.NoKey, nil
		}
		if ev.Err != nil {
			return instrument.NoKey, fmt.Errorf("console: read key: %w", ev.Err)
		}
		switch ev.Key {
		case keyboard.KeyEsc, keyboard.KeyCtrlC:
			return instrument.QuitKey, nil
		}
		if ev.Rune != 0 {
			return int(ev.Rune), nil
		}
		return instrument.NoKey, nil
	default:
		return instrument.NoKey, nil
	}
}

// Close releases the terminal.
func (h *Headless) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

// PlayingLog returns a loop observer that logs the notes struck, at most
// once per quiet period of wait.
func PlayingLog(logger *zap.SugaredLogger, wait time.Duration) func(tracker.Step, []hand.Observation) {
	logger = logging.OrNop(logger)
	debounced := debounce.New(wait)

	var (
		mu      sync.Mutex
		pending []uint8
	)
	flush := func() {
		mu.Lock()
		notes := pending
		pending = nil
		mu.Unlock()
		if len(notes) == 0 {
			return
		}
		logger.Infow("console: playing", "notes", names(notes))
	}
	return func(step tracker.Step, _ []hand.Observation) {
		if len(step.Active) == 0 {
			return
		}
		mu.Lock()
		pending = append(pending, step.Active...)
		mu.Unlock()
		debounced(flush)
	}
}

func names(notes []uint8) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = chord.PitchName(n)
	}
	return out
}
