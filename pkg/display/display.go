// Package display shows annotated frames and reports key presses.
package display

import (
	"gocv.io/x/gocv"
)

// NoKey is returned when no key was pressed.
const NoKey = -1

// DefaultQuitKey stops the loop when pressed in the window.
const DefaultQuitKey = 'q'

// Window is a named on-screen window.
type Window struct {
	win   *gocv.Window
	delay int
}

// NewWindow opens a window. delay is how long each Show waits for a key, in ms.
func NewWindow(name string, delay int) *Window {
	if delay <= 0 {
		delay = 1
	}
	return &Window{
		win:   gocv.NewWindow(name),
		delay: delay,
	}
}

// Show draws frame and polls the keyboard once.
func (w *Window) Show(frame gocv.Mat) int {
	w.win.IMShow(frame)
	return w.win.WaitKey(w.delay)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

// Headless discards frames. It never reports a key, so the loop only stops on
// cancellation or when the stream ends.
type Headless struct{}

// Show does nothing.
func (Headless) Show(gocv.Mat) int { return NoKey }

// Close does nothing.
func (Headless) Close() error { return nil }

// IsQuit reports whether key is the quit key. Modifier bits above the low
// byte are ignored.
func IsQuit(key int, quit rune) bool {
	if key < 0 {
		return false
	}
	return rune(key&0xFF) == quit
}
