package pipeline

import (
	"sync"
	"time"

	"github.com/teslashibe/go-liveclass/pkg/classifier"
)

// Stats summarizes a run.
type Stats struct {
	Started        time.Time     `json:"started"`
	Frames         uint64        `json:"frames"`
	Classified     uint64        `json:"classified"`
	Skipped        uint64        `json:"skipped"`
	InferenceTotal time.Duration `json:"inference_total_ns"`
	LastLabel      string        `json:"last_label"`
	LastConfidence float32       `json:"last_confidence"`
}

// AvgInference is the mean classifier time over classified frames.
func (s Stats) AvgInference() time.Duration {
	if s.Classified == 0 {
		return 0
	}
	return s.InferenceTotal / time.Duration(s.Classified)
}

// FPS is the frame rate since the run started.
func (s Stats) FPS(now time.Time) float64 {
	if s.Started.IsZero() {
		return 0
	}
	elapsed := now.Sub(s.Started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / elapsed
}

type statsRecorder struct {
	mu sync.Mutex
	s  Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{}
}

func (r *statsRecorder) start() {
	r.mu.Lock()
	r.s.Started = time.Now()
	r.mu.Unlock()
}

func (r *statsRecorder) frame() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Frames++
	return r.s.Frames
}

func (r *statsRecorder) frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s.Frames
}

func (r *statsRecorder) skip() {
	r.mu.Lock()
	r.s.Skipped++
	r.mu.Unlock()
}

func (r *statsRecorder) classified(label string, conf float32, t classifier.Timing) {
	r.mu.Lock()
	r.s.Classified++
	r.s.InferenceTotal += t.Total()
	r.s.LastLabel = label
	r.s.LastConfidence = conf
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s
}
