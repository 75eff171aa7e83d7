package classifier

import (
	"sync"
	"time"
)

// Mock implements Classifier for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	ClassifyFunc func(sig *Signal, res *Result, debug bool) error

	Width      int
	Height     int
	LabelTable []string
	Meta       Info

	mu     sync.Mutex
	calls  int
	debugs int
	closed bool
}

// NewMock creates a mock classifier that always picks the first label with
// full confidence and reports 1ms of DSP and 2ms of model time.
func NewMock(width, height int, labels ...string) *Mock {
	return &Mock{
		Width:      width,
		Height:     height,
		LabelTable: labels,
		Meta:       Info{Project: "mock", Version: "1", Engine: "mock"},
		ClassifyFunc: func(sig *Signal, res *Result, debug bool) error {
			if len(res.Classification) > 0 {
				res.Classification[0].Value = 1
			}
			res.Timing = Timing{DSP: time.Millisecond, Classification: 2 * time.Millisecond}
			return nil
		},
	}
}

// WithScores creates a mock that always returns the given scores.
func WithScores(width, height int, labels []string, scores []float32) *Mock {
	m := NewMock(width, height, labels...)
	m.ClassifyFunc = func(sig *Signal, res *Result, debug bool) error {
		return res.SetScores(scores)
	}
	return m
}

// WithError creates a mock whose Classify always fails with err.
func WithError(width, height int, err error, labels ...string) *Mock {
	m := NewMock(width, height, labels...)
	m.ClassifyFunc = func(sig *Signal, res *Result, debug bool) error {
		return err
	}
	return m
}

// Classify calls ClassifyFunc and records the call.
func (m *Mock) Classify(sig *Signal, res *Result, debug bool) error {
	m.mu.Lock()
	m.calls++
	if debug {
		m.debugs++
	}
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if m.ClassifyFunc == nil {
		return nil
	}
	return m.ClassifyFunc(sig, res, debug)
}

func (m *Mock) InputWidth() int  { return m.Width }
func (m *Mock) InputHeight() int { return m.Height }
func (m *Mock) Labels() []string { return m.LabelTable }
func (m *Mock) Info() Info       { return m.Meta }

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CallCount returns how many times Classify was invoked.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DebugCount returns how many Classify calls had debug set.
func (m *Mock) DebugCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debugs
}
