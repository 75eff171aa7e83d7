package classifier

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrSignalLength is returned when a signal does not match the model input size.
	ErrSignalLength = errors.New("classifier: signal length mismatch")

	// ErrSignalRange is returned when a range read falls outside the signal.
	ErrSignalRange = errors.New("classifier: signal range out of bounds")

	// ErrResultLength is returned when an engine produces the wrong number of scores.
	ErrResultLength = errors.New("classifier: result length mismatch")

	// ErrManifest is returned when a model manifest is invalid.
	ErrManifest = errors.New("classifier: invalid manifest")

	// ErrClosed is returned when classifying with a closed engine.
	ErrClosed = errors.New("classifier: engine closed")
)

// ClassifyError is a per-frame engine failure. The frame should be skipped.
type ClassifyError struct {
	Engine string
	Err    error
}

// Error implements the error interface.
func (e *ClassifyError) Error() string {
	if e.Engine != "" {
		return fmt.Sprintf("classifier [%s]: classify failed: %v", e.Engine, e.Err)
	}
	return fmt.Sprintf("classifier: classify failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ClassifyError) Unwrap() error {
	return e.Err
}

// IsClassifyError reports whether err is a per-frame classifier failure.
func IsClassifyError(err error) bool {
	var ce *ClassifyError
	return errors.As(err, &ce)
}
