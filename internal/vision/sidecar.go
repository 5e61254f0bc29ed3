package vision

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/chase3718/airchords/internal/hand"
	"github.com/chase3718/airchords/internal/instrument"
	"github.com/chase3718/airchords/internal/logging"
)

// Sidecar runs an external landmark detector as a child process and talks to
// it over stdin/stdout with hand.Client.
type Sidecar struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	client *hand.Client
	logger *zap.SugaredLogger
}

// StartSidecar launches argv[0] with the remaining arguments.
func StartSidecar(argv []string, opts hand.Options, logger *zap.SugaredLogger) (*Sidecar, error) {
	logger = logging.OrNop(logger)
	if len(argv) == 0 {
		return nil, errors.New("detector: empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("detector: stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("detector: stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("detector: stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("detector: start %q: %w", argv[0], err)
	}
	go func() {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			logger.Debugw("detector: stderr", "line", sc.Text())
		}
	}()
	logger.Infow("detector: started",
		"cmd", argv,
		"pid", cmd.Process.Pid,
		"min_confidence", opts.MinConfidence,
		"max_hands", opts.MaxHands,
		"flip", opts.Flip,
	)
	return &Sidecar{
		cmd:    cmd,
		stdin:  stdin,
		client: hand.NewClient(stdin, stdout, opts),
		logger: logger,
	}, nil
}

// Detect JPEG-encodes the frame and returns the hands the sidecar reports.
func (s *Sidecar) Detect(f instrument.Frame) ([]hand.Observation, error) {
	frame, ok := f.(*Frame)
	if !ok {
		return nil, errors.New("detector: not a camera frame")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame.Mat)
	if err != nil {
		return nil, fmt.Errorf("detector: encode frame: %w", err)
	}
	defer buf.Close()
	hands, err := s.client.Detect(buf.GetBytes())
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("detector: process exited, run with --debug to see its output: %w", err)
	}
	return hands, err
}

// Close ends the sidecar's input and waits for it to exit.
func (s *Sidecar) Close() error {
	_ = s.stdin.Close()
	err := s.cmd.Wait()
	s.logger.Infow("detector: stopped", "err", err)
	return err
}
