package synth

import (
	"context"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"
)

// RescanInterval is how often a Watcher lists the driver's outputs.
const RescanInterval = time.Second

// Watcher keeps a Port attached across unplug and replug of its device.
type Watcher struct {
	drv  drivers.Driver
	port *Port

	lastRescanAt time.Time
	onDisconnect func()
	onReconnect  func()
}

// NewWatcher watches port, which must have been opened on drv. onDisconnect
// runs after the device disappears; onReconnect after it has been reopened.
// Either may be nil.
func NewWatcher(drv drivers.Driver, port *Port, onDisconnect, onReconnect func()) *Watcher {
	return &Watcher{drv: drv, port: port, onDisconnect: onDisconnect, onReconnect: onReconnect}
}

// Tick rescans the outputs when RescanInterval has passed since the last
// scan, then detaches or reattaches the port as needed.
func (w *Watcher) Tick(now time.Time) {
	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < RescanInterval {
		return
	}
	w.lastRescanAt = now

	logger := w.port.logger
	outs, err := w.drv.Outs()
	if err != nil {
		logger.Errorw("synth: list outputs failed", "err", err)
		return
	}
	var found drivers.Out
	for _, o := range outs {
		if o.String() == w.port.name {
			found = o
			break
		}
	}

	p := w.port
	p.mu.Lock()
	connected := p.out != nil
	switch {
	case connected && found == nil:
		logger.Warnw("synth: device disappeared", "device", p.name)
		_ = p.detach()
		p.mu.Unlock()
		w.lastRescanAt = time.Time{}
		if w.onDisconnect != nil {
			w.onDisconnect()
		}
	case !connected && found != nil:
		err := p.attach(found)
		p.mu.Unlock()
		if err != nil {
			logger.Errorw("synth: reconnect failed", "device", p.name, "err", err)
			return
		}
		logger.Infow("synth: device reconnected", "device", p.name)
		if w.onReconnect != nil {
			w.onReconnect()
		}
	default:
		p.mu.Unlock()
	}
}

// Run ticks every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			w.Tick(now)
		}
	}
}
