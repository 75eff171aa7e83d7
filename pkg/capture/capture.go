// Package capture opens a video stream and reads frames from it.
package capture

import (
	"errors"
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// Sentinel errors for common conditions.
var (
	// ErrOpen is returned when the stream cannot be opened.
	ErrOpen = errors.New("capture: stream could not be opened")

	// ErrEmptyFrame is returned when a read yields no frame. The stream is
	// considered finished.
	ErrEmptyFrame = errors.New("capture: empty frame")
)

// Properties describes the opened stream as reported by the backend.
type Properties struct {
	Width  int
	Height int
	FPS    float64
}

// Stream is an opened video source.
type Stream struct {
	vc     *gocv.VideoCapture
	source string
	frames uint64
}

// Open opens source, a stream URL such as http://192.168.2.4:4747/video or
// rtsp://..., or a local device index such as "0".
func Open(source string) (*Stream, error) {
	var device interface{} = source
	if id, err := strconv.Atoi(source); err == nil {
		device = id
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpen, source)
	}

	return &Stream{vc: vc, source: source}, nil
}

// Source returns what the stream was opened from.
func (s *Stream) Source() string { return s.source }

// Frames returns the number of frames read so far.
func (s *Stream) Frames() uint64 { return s.frames }

// Properties queries frame size and rate from the backend.
func (s *Stream) Properties() Properties {
	return Properties{
		Width:  int(s.vc.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(s.vc.Get(gocv.VideoCaptureFrameHeight)),
		FPS:    s.vc.Get(gocv.VideoCaptureFPS),
	}
}

// Read grabs the next frame into dst, overwriting it.
func (s *Stream) Read(dst *gocv.Mat) error {
	if ok := s.vc.Read(dst); !ok || dst.Empty() {
		return ErrEmptyFrame
	}
	s.frames++
	return nil
}

// Close releases the capture device.
func (s *Stream) Close() error {
	return s.vc.Close()
}
