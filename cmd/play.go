package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/config"
	"github.com/chase3718/airchords/internal/console"
	"github.com/chase3718/airchords/internal/hand"
	"github.com/chase3718/airchords/internal/instrument"
	"github.com/chase3718/airchords/internal/session"
	"github.com/chase3718/airchords/internal/status"
	"github.com/chase3718/airchords/internal/sustain"
	"github.com/chase3718/airchords/internal/synth"
	"github.com/chase3718/airchords/internal/synth/tone"
	"github.com/chase3718/airchords/internal/tracker"
	"github.com/chase3718/airchords/internal/vision"
)

// playingLogWait is the quiet period before the console logs what was played.
const playingLogWait = 250 * time.Millisecond

var playCfg = config.Default()

func init() {
	config.Bind(playCmd.Flags(), &playCfg)
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the camera and play",
	Long: `Open the camera and play. Raise a finger to strike its chord; lower it
and the chord rings for --sustain. Press q in the window to quit.

Hands are found by a separate detector process, by default
detector/hands.py (needs python3 with mediapipe, opencv-python and numpy).
Any program can take its place with --detector if it speaks the same
protocol on stdin and stdout:

  request, per frame:  4-byte big-endian length, then a JPEG image
  reply, per frame:    one JSON line
    {"hands":[{"type":"Left","score":0.97,"landmarks":[[x,y,z],...21]}]}

Landmarks are MediaPipe's 21 hand points, normalized to the image size. A
hand may send "fingers":[1,0,0,0,0] instead of landmarks. A reply of
{"hands":[],"error":"..."} stops the instrument.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context(), playCfg)
	},
}

// closerStack closes resources in reverse order of opening.
type closerStack []struct {
	name  string
	close func() error
}

func (s *closerStack) push(name string, fn func() error) {
	*s = append(*s, struct {
		name  string
		close func() error
	}{name, fn})
}

func (s *closerStack) closeAll() {
	for i := len(*s) - 1; i >= 0; i-- {
		c := (*s)[i]
		if err := c.close(); err != nil {
			logger.Warnw("shutdown: close failed", "resource", c.name, "err", err)
		}
	}
	*s = nil
}

// output is the sound source chosen by configuration.
type output struct {
	synth.Output
	name string
	// Set for the port backend only.
	port *synth.Port
	drv  drivers.Driver
}

func openOutput(cfg config.Config, closers *closerStack) (output, error) {
	switch cfg.Backend {
	case config.BackendSerial:
		s, err := synth.OpenSerial(cfg.SerialDev, cfg.SerialBaud, logger)
		if err != nil {
			return output{}, err
		}
		return output{Output: s, name: cfg.SerialDev}, nil

	case config.BackendTone:
		sr := beep.SampleRate(cfg.ToneRate)
		if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
			return output{}, fmt.Errorf("speaker: %w", err)
		}
		syn := tone.New(sr)
		speaker.Play(syn.Streamer())
		logger.Infow("tone: speaker started", "sample_rate", cfg.ToneRate)
		return output{Output: syn, name: "tone"}, nil

	default:
		drv, err := rtmididrv.New()
		if err != nil {
			return output{}, fmt.Errorf("rtmididrv: %w", err)
		}
		closers.push("midi driver", drv.Close)
		p, err := synth.OpenPort(drv, synth.Selector{Index: cfg.PortIndex, Pattern: cfg.PortPattern}, logger)
		if err != nil {
			return output{}, err
		}
		return output{Output: p, name: p.Name(), port: p, drv: drv}, nil
	}
}

func play(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	table, err := cfg.Table()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("airchords starting",
		"camera", cfg.Camera,
		"output", cfg.Backend,
		"program", cfg.Program,
		"velocity", cfg.Velocity,
		"sustain", cfg.Delay,
		"sweep_once", cfg.SweepOnce,
		"detector", cfg.Detector,
		"headless", cfg.Headless,
	)
	for _, k := range chord.Keys() {
		c, _ := table.Lookup(k.Side, k.Finger)
		logger.Debugw("chord: mapped", "finger", k.String(), "notes", c.String(), "names", c.Names())
	}

	var closers closerStack
	defer closers.closeAll()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dev, err := openOutput(cfg, &closers)
	if err != nil {
		return err
	}
	var out synth.Output = dev

	var store *session.Store
	if cfg.Record {
		store, err = session.Open(cfg.DB, logger)
		if err != nil {
			_ = dev.Close()
			return err
		}
		closers.push("session store", store.Close)
		rec, err := session.NewRecorder(dev, store, dev.name, session.RecordLogger(logger))
		if err != nil {
			_ = dev.Close()
			return err
		}
		out = rec
	}
	closers.push("output "+dev.name, out.Close)

	if err := synth.Setup(out, cfg.Channel, cfg.Program, logger); err != nil {
		return fmt.Errorf("synth: program change: %w", err)
	}

	ctl := sustain.New(out, cfg.Sustain(), sustain.WithLogger(logger))
	go ctl.Run(ctx, sustain.TickInterval)

	if dev.port != nil {
		w := synth.NewWatcher(dev.drv, dev.port,
			func() { logger.Warnw("synth: output lost, notes are dropped until it returns") },
			func() {
				if err := synth.Setup(out, cfg.Channel, cfg.Program, logger); err != nil {
					logger.Warnw("synth: program change after reconnect", "err", err)
				}
			})
		go w.Run(ctx, synth.RescanInterval)
	}

	cam, err := vision.OpenCamera(cfg.Camera, logger)
	if err != nil {
		return err
	}
	closers.push("camera", cam.Close)

	det, err := vision.StartSidecar(cfg.DetectorArgv(), cfg.HandOptions(), logger)
	if err != nil {
		return err
	}
	closers.push("detector", det.Close)

	var display instrument.Display
	if cfg.Headless {
		h, err := console.OpenHeadless(logger)
		if err != nil {
			return err
		}
		closers.push("terminal", h.Close)
		display = h
	} else {
		win := vision.NewWindow(cfg.Title)
		closers.push("window", win.Close)
		display = win
	}

	tr := tracker.New(table, tracker.SweepOnce(cfg.SweepOnce))
	loop := &instrument.Loop{
		Source:   cam,
		Detector: det,
		Display:  display,
		Player:   ctl,
		Tracker:  tr,
		Logger:   logger,
	}
	loop.Observe(console.PlayingLog(logger, playingLogWait))

	if cfg.Listen != "" {
		board := status.NewBoard(table, ctl.Pending)
		if dev.port != nil {
			board.TrackOutput(dev.name, dev.port.Connected)
		} else {
			board.TrackOutput(dev.name, nil)
		}
		loop.Observe(func(step tracker.Step, hands []hand.Observation) {
			board.Update(tr.State(), step, hands)
		})
		var lister status.Lister
		if store != nil {
			lister = store
		}
		go func() {
			if err := status.Serve(ctx, cfg.Listen, status.NewHandler(board, lister, logger), logger); err != nil {
				logger.Errorw("status: server failed", "addr", cfg.Listen, "err", err)
			}
		}()
	}

	runErr := loop.Run(ctx)
	cancel()
	n := ctl.ReleaseAll()
	logger.Infow("airchords stopping", "frames", loop.Frames(), "released", n)
	return runErr
}
