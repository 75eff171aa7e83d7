package pipeline

import (
	"time"

	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"github.com/teslashibe/go-liveclass/pkg/overlay"
)

// Event is one processed frame as seen by publishers.
type Event struct {
	Session              string             `json:"session"`
	Frame                uint64             `json:"frame"`
	Time                 time.Time          `json:"time"`
	Top                  int                `json:"top"`
	Label                string             `json:"label,omitempty"`
	Confidence           float32            `json:"confidence"`
	Scores               []classifier.Score `json:"scores,omitempty"`
	DSPMicros            int64              `json:"dsp_us"`
	ClassificationMicros int64              `json:"classification_us"`
	Inference            string             `json:"inference,omitempty"`
	Error                string             `json:"error,omitempty"`
}

func newEvent(session string, frame uint64, top int, res *classifier.Result) Event {
	c := res.Clone()
	ev := Event{
		Session:              session,
		Frame:                frame,
		Time:                 time.Now(),
		Top:                  top,
		Scores:               c.Classification,
		DSPMicros:            c.Timing.DSPMicros(),
		ClassificationMicros: c.Timing.ClassificationMicros(),
		Inference:            overlay.TimingText(c.Timing),
	}
	if top < len(c.Classification) {
		ev.Label = c.Classification[top].Label
		ev.Confidence = c.Classification[top].Value
	}
	return ev
}
