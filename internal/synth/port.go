package synth

import (
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/logging"
)

// -------------------- Port selection --------------------

// ExcludedPatterns: virtual/system ports that are never picked by pattern.
var ExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// Selector picks an output port. Pattern wins over Index when set.
type Selector struct {
	Index   int
	Pattern string
}

// ListOuts returns the names of all output ports in driver order.
func ListOuts(drv drivers.Driver) ([]string, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("synth: list outputs: %w", err)
	}
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	return names, nil
}

// Pick returns the position in names chosen by s.
func (s Selector) Pick(names []string) (int, error) {
	if len(names) == 0 {
		return -1, ErrNoOutput
	}
	if s.Pattern != "" {
		for i, name := range names {
			if excluded(name) {
				continue
			}
			if containsCI(name, s.Pattern) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: no port matches %q", ErrPortNotFound, s.Pattern)
	}
	if s.Index < 0 || s.Index >= len(names) {
		return -1, fmt.Errorf("%w: index %d of %d", ErrPortNotFound, s.Index, len(names))
	}
	return s.Index, nil
}

func excluded(name string) bool {
	for _, pat := range ExcludedPatterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// -------------------- Port --------------------

// Port is an open MIDI output port. While detached (the device vanished)
// every send fails with ErrNoOutput.
type Port struct {
	mu     sync.Mutex
	name   string
	out    drivers.Out
	send   func(midi.Message) error
	logger *zap.SugaredLogger
}

// OpenPort opens the output chosen by sel on drv.
func OpenPort(drv drivers.Driver, sel Selector, logger *zap.SugaredLogger) (*Port, error) {
	logger = logging.OrNop(logger)
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("synth: list outputs: %w", err)
	}
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	logger.Debugw("synth: outputs found", "count", len(names), "devices", strings.Join(names, ", "))

	i, err := sel.Pick(names)
	if err != nil {
		return nil, err
	}
	p := &Port{name: names[i], logger: logger}
	if err := p.attach(outs[i]); err != nil {
		return nil, err
	}
	logger.Infow("synth: port opened", "device", p.name, "index", i)
	return p, nil
}

// attach opens out and routes sends to it. Callers hold mu or own p.
func (p *Port) attach(out drivers.Out) error {
	if err := out.Open(); err != nil {
		return fmt.Errorf("synth: open %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("synth: sender %q: %w", out.String(), err)
	}
	p.out, p.send = out, send
	return nil
}

// detach closes the current output. Callers hold mu.
func (p *Port) detach() error {
	if p.out == nil {
		return nil
	}
	err := p.out.Close()
	p.out, p.send = nil, nil
	return err
}

// Name is the port name reported by the driver.
func (p *Port) Name() string { return p.name }

// Connected reports whether the port is attached to a device.
func (p *Port) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil
}

func (p *Port) write(msg midi.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.send == nil {
		return fmt.Errorf("%w: %q disconnected", ErrNoOutput, p.name)
	}
	if err := p.send(msg); err != nil {
		return fmt.Errorf("synth: send %s: %w", msg.String(), err)
	}
	p.logger.Debugw("synth: sent", "msg", msg.String())
	return nil
}

func (p *Port) NoteOn(channel, key, velocity uint8) error {
	return p.write(midi.NoteOn(channel, key, velocity))
}

func (p *Port) NoteOff(channel, key, velocity uint8) error {
	return p.write(midi.NoteOffVelocity(channel, key, velocity))
}

func (p *Port) ProgramChange(channel, program uint8) error {
	return p.write(midi.ProgramChange(channel, program))
}

// Close closes the port. The driver itself is owned by the caller.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Infow("synth: closing port", "device", p.name)
	return p.detach()
}
