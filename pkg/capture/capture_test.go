package capture

import (
	"errors"
	"os"
	"testing"

	"gocv.io/x/gocv"
)

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open("/nonexistent/stream.mjpeg")
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

// TestStream_Read reads from a real stream when one is configured.
// Set LIVECLASS_TEST_STREAM to a URL or video file to enable.
func TestStream_Read(t *testing.T) {
	source := os.Getenv("LIVECLASS_TEST_STREAM")
	if source == "" {
		t.Skip("test stream not configured, skipping test")
	}

	s, err := Open(source)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	if err := s.Read(&frame); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if frame.Empty() {
		t.Error("expected a frame")
	}
	if s.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", s.Frames())
	}

	p := s.Properties()
	if p.Width <= 0 || p.Height <= 0 {
		t.Errorf("unexpected properties: %+v", p)
	}
}
