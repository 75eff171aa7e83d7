// Package debug provides global debug flags for the classification loop
package debug

import "fmt"

// Enabled controls whether debug output is active.
// It is also handed to the classifier as its debug flag.
var Enabled bool

// Frames controls whether a trace line is printed for every frame
// Use --debug-frames to enable these very verbose logs
var Frames bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// FrameLog prints a message only if per-frame tracing is enabled
func FrameLog(format string, args ...interface{}) {
	if Frames {
		fmt.Printf(format, args...)
	}
}
