package classifier

import (
	"fmt"
	"math"
	"time"
)

// Score is the confidence for one label.
type Score struct {
	Label string  `json:"label"`
	Value float32 `json:"value"`
}

// Timing records time spent inside the classifier.
type Timing struct {
	DSP            time.Duration // feature extraction
	Classification time.Duration // model execution
}

// DSPMicros returns feature extraction time in microseconds.
func (t Timing) DSPMicros() int64 { return t.DSP.Microseconds() }

// ClassificationMicros returns model execution time in microseconds.
func (t Timing) ClassificationMicros() int64 { return t.Classification.Microseconds() }

// Total returns the summed inference time.
func (t Timing) Total() time.Duration { return t.DSP + t.Classification }

// Result is one classification: a score per label plus timing.
type Result struct {
	Classification []Score
	Timing         Timing
}

// NewResult allocates a result sized for labels.
func NewResult(labels []string) *Result {
	r := &Result{}
	r.Reset(labels)
	return r
}

// Reset overwrites every score with zero and clears timing, reusing storage.
func (r *Result) Reset(labels []string) {
	if cap(r.Classification) < len(labels) {
		r.Classification = make([]Score, len(labels))
	}
	r.Classification = r.Classification[:len(labels)]
	for i, l := range labels {
		r.Classification[i] = Score{Label: l}
	}
	r.Timing = Timing{}
}

// SetScores writes values in label order. Extra values are ignored.
func (r *Result) SetScores(values []float32) error {
	if len(values) < len(r.Classification) {
		return fmt.Errorf("%w: got %d outputs for %d labels", ErrResultLength, len(values), len(r.Classification))
	}
	for i := range r.Classification {
		r.Classification[i].Value = values[i]
	}
	return nil
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (r *Result) Clone() Result {
	c := Result{Timing: r.Timing}
	c.Classification = append([]Score(nil), r.Classification...)
	return c
}

// Softmax normalizes v in place.
func Softmax(v []float32) {
	if len(v) == 0 {
		return
	}
	hi := v[0]
	for _, x := range v[1:] {
		if x > hi {
			hi = x
		}
	}
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - hi))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}
