// Package adapter converts captured frames into classifier signals.
//
// A frame is resized to the model input size, reordered from the capture's
// BGR to RGB, and every pixel is packed as 0xRRGGBB in row-major order.
package adapter

import (
	"errors"
	"fmt"
	"image"

	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"gocv.io/x/gocv"
)

// ErrInvalidFrame is returned for empty frames or frames that are not 8-bit BGR.
var ErrInvalidFrame = errors.New("adapter: invalid frame")

// Adapter converts frames for a fixed input size. It keeps scratch Mats so the
// loop does not allocate per frame. Not safe for concurrent use.
type Adapter struct {
	width   int
	height  int
	resized gocv.Mat
	rgb     gocv.Mat
}

// New creates an adapter for a width x height model input.
func New(width, height int) *Adapter {
	return &Adapter{
		width:   width,
		height:  height,
		resized: gocv.NewMat(),
		rgb:     gocv.NewMat(),
	}
}

// Width returns the target width.
func (a *Adapter) Width() int { return a.width }

// Height returns the target height.
func (a *Adapter) Height() int { return a.height }

// NewSignal allocates a signal sized for this adapter.
func (a *Adapter) NewSignal() *classifier.Signal {
	return classifier.NewSignal(a.width, a.height)
}

// AdaptInto fills sig from frame. sig must have been sized for this adapter.
func (a *Adapter) AdaptInto(frame gocv.Mat, sig *classifier.Signal) error {
	if err := checkFrame(frame); err != nil {
		return err
	}
	if sig.Width() != a.width || sig.Height() != a.height {
		return fmt.Errorf("%w: signal %dx%d, adapter %dx%d",
			classifier.ErrSignalLength, sig.Width(), sig.Height(), a.width, a.height)
	}

	gocv.Resize(frame, &a.resized, image.Pt(a.width, a.height), 0, 0, gocv.InterpolationLinear)
	gocv.CvtColor(a.resized, &a.rgb, gocv.ColorBGRToRGB)

	pix, err := a.rgb.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	n := a.width * a.height
	if len(pix) < n*3 {
		return fmt.Errorf("%w: %d bytes for %d pixels", ErrInvalidFrame, len(pix), n)
	}
	for i := 0; i < n; i++ {
		sig.Set(i, classifier.Pack(pix[i*3], pix[i*3+1], pix[i*3+2]))
	}
	return nil
}

// Close releases the scratch Mats.
func (a *Adapter) Close() error {
	a.resized.Close()
	return a.rgb.Close()
}

// Adapt converts one frame into a new signal of width x height entries.
func Adapt(frame gocv.Mat, width, height int) (*classifier.Signal, error) {
	a := New(width, height)
	defer a.Close()

	sig := a.NewSignal()
	if err := a.AdaptInto(frame, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func checkFrame(frame gocv.Mat) error {
	if frame.Empty() {
		return fmt.Errorf("%w: empty", ErrInvalidFrame)
	}
	if frame.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("%w: type %v, want 8-bit 3-channel", ErrInvalidFrame, frame.Type())
	}
	return nil
}
