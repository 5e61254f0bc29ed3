// Package vision adapts OpenCV (gocv) to the instrument loop: camera capture,
// the on-screen window, and the hand-detector sidecar.
package vision

import (
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/chase3718/airchords/internal/instrument"
	"github.com/chase3718/airchords/internal/logging"
)

// Frame wraps a captured Mat.
type Frame struct {
	Mat gocv.Mat
}

func (f *Frame) Size() (int, int) { return f.Mat.Cols(), f.Mat.Rows() }

func (f *Frame) Close() error { return f.Mat.Close() }

// Camera reads frames from a capture device.
type Camera struct {
	capture *gocv.VideoCapture
	device  int
	logger  *zap.SugaredLogger
}

// OpenCamera opens the capture device by index.
func OpenCamera(device int, logger *zap.SugaredLogger) (*Camera, error) {
	logger = logging.OrNop(logger)
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", device, err)
	}
	logger.Infow("camera: opened", "device", device)
	return &Camera{capture: capture, device: device, logger: logger}, nil
}

// Read captures one frame. An empty or failed capture is ErrNoFrame.
func (c *Camera) Read() (instrument.Frame, error) {
	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		_ = mat.Close()
		return nil, instrument.ErrNoFrame
	}
	return &Frame{Mat: mat}, nil
}

// Close releases the capture device.
func (c *Camera) Close() error {
	c.logger.Infow("camera: releasing", "device", c.device)
	return c.capture.Close()
}
