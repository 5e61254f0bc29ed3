package synth

import (
	"fmt"
	"io"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/logging"
)

// DINBaud is the MIDI 1.0 wire rate.
const DINBaud = 31250

// Serial writes raw MIDI bytes to a serial device: a DIN MIDI interface or a
// serial-to-MIDI bridge.
type Serial struct {
	mu     sync.Mutex
	port   io.WriteCloser
	name   string
	logger *zap.SugaredLogger
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int, logger *zap.SugaredLogger) (*Serial, error) {
	logger = logging.OrNop(logger)
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s at %d: %w", name, baud, err)
	}
	logger.Infow("serial: port opened", "device", name, "baud", baud)
	return NewSerial(p, name, logger), nil
}

// NewSerial wraps an already open writer.
func NewSerial(w io.WriteCloser, name string, logger *zap.SugaredLogger) *Serial {
	return &Serial{port: w, name: name, logger: logging.OrNop(logger)}
}

func (s *Serial) write(msg midi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.port.Write(msg.Bytes())
	if err != nil {
		return fmt.Errorf("serial: write %s: %w", msg.String(), err)
	}
	s.logger.Debugw("serial: message sent", "bytes", n, "msg", msg.String())
	return nil
}

func (s *Serial) NoteOn(channel, key, velocity uint8) error {
	return s.write(midi.NoteOn(channel, key, velocity))
}

func (s *Serial) NoteOff(channel, key, velocity uint8) error {
	return s.write(midi.NoteOffVelocity(channel, key, velocity))
}

func (s *Serial) ProgramChange(channel, program uint8) error {
	return s.write(midi.ProgramChange(channel, program))
}

// Close closes the underlying serial port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Infow("serial: closing port", "device", s.name)
	return s.port.Close()
}
