package classifier

import "fmt"

// Invoke hands sig to c and fills res.
//
// The call is synchronous and never retried. A signal that does not match the
// classifier input size is rejected before the engine is called. Any engine
// failure comes back as *ClassifyError and res must not be used.
func Invoke(c Classifier, sig *Signal, res *Result, debug bool) error {
	want := c.InputWidth() * c.InputHeight()
	if sig == nil {
		return fmt.Errorf("%w: nil signal, want %d", ErrSignalLength, want)
	}
	if sig.Len() != want {
		return fmt.Errorf("%w: got %d, want %d", ErrSignalLength, sig.Len(), want)
	}

	labels := c.Labels()
	res.Reset(labels)

	if err := c.Classify(sig, res, debug); err != nil {
		return &ClassifyError{Engine: c.Info().Engine, Err: err}
	}
	if len(res.Classification) != len(labels) {
		return &ClassifyError{
			Engine: c.Info().Engine,
			Err:    fmt.Errorf("%w: got %d scores for %d labels", ErrResultLength, len(res.Classification), len(labels)),
		}
	}
	return nil
}
