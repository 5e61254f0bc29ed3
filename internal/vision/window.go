package vision

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/chase3718/airchords/internal/hand"
	"github.com/chase3718/airchords/internal/instrument"
	"github.com/chase3718/airchords/internal/piano"
)

var (
	landmarkColor = color.RGBA{255, 0, 255, 255}
	boneColor     = color.RGBA{255, 255, 255, 255}
)

// MediaPipe hand skeleton.
var bones = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 4},
	{0, 5}, {5, 6}, {6, 7}, {7, 8},
	{5, 9}, {9, 10}, {10, 11}, {11, 12},
	{9, 13}, {13, 14}, {14, 15}, {15, 16},
	{13, 17}, {0, 17}, {17, 18}, {18, 19}, {19, 20},
}

// Window paints the overlay onto each frame and shows it.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a titled window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show paints o onto f, displays it and polls the keyboard for 1 ms.
func (w *Window) Show(f instrument.Frame, o instrument.Overlay) (int, error) {
	frame, ok := f.(*Frame)
	if !ok {
		return instrument.NoKey, errors.New("window: not a camera frame")
	}
	Paint(&frame.Mat, o)
	w.win.IMShow(frame.Mat)
	key := w.win.WaitKey(1)
	if key < 0 {
		return instrument.NoKey, nil
	}
	return key & 0xFF, nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

// Paint draws hands, the keyboard strip and the caption onto img.
func Paint(img *gocv.Mat, o instrument.Overlay) {
	cols, rows := img.Cols(), img.Rows()
	for _, h := range o.Hands {
		paintHand(img, h, cols, rows)
	}

	gocv.Rectangle(img, o.Keyboard.Strip, piano.Black, -1)
	for _, k := range o.Keyboard.Keys {
		gocv.Rectangle(img, k.Rect, k.Fill(), -1)
		outline, thickness := k.Outline()
		gocv.Rectangle(img, k.Rect, outline, thickness)
	}

	if o.Caption != "" {
		gocv.PutText(img, o.Caption, piano.CaptionAt, gocv.FontHersheySimplex, 1, piano.Caption, 2)
	}
}

func paintHand(img *gocv.Mat, h hand.Observation, cols, rows int) {
	if len(h.Landmarks) < hand.NumLandmarks {
		return
	}
	pt := func(p hand.Point) image.Point {
		return image.Pt(int(p.X*float64(cols)), int(p.Y*float64(rows)))
	}
	for _, b := range bones {
		gocv.Line(img, pt(h.Landmarks[b[0]]), pt(h.Landmarks[b[1]]), boneColor, 2)
	}
	for _, p := range h.Landmarks {
		gocv.Circle(img, pt(p), 5, landmarkColor, -1)
	}
	wrist := pt(h.Landmarks[hand.Wrist])
	gocv.PutText(img, h.Side.String(), wrist.Add(image.Pt(-30, 30)), gocv.FontHersheyPlain, 2, landmarkColor, 2)
}
