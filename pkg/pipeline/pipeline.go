// Package pipeline runs the capture, classify and display loop.
//
// Each iteration captures a frame, adapts it into a signal, invokes the
// classifier, reduces the result to a top label, draws the overlay on the
// original frame and shows it. Everything happens in sequence on the calling
// goroutine; there is no buffering across frames.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/teslashibe/go-liveclass/pkg/adapter"
	"github.com/teslashibe/go-liveclass/pkg/capture"
	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"github.com/teslashibe/go-liveclass/pkg/debug"
	"github.com/teslashibe/go-liveclass/pkg/display"
	"github.com/teslashibe/go-liveclass/pkg/overlay"
	"gocv.io/x/gocv"
)

// Source yields frames. Read returns capture.ErrEmptyFrame when the stream ends.
type Source interface {
	Read(dst *gocv.Mat) error
}

// Sink shows an annotated frame and returns the key pressed, or display.NoKey.
type Sink interface {
	Show(frame gocv.Mat) int
}

// Publisher receives every classified frame. Implementations must not block.
type Publisher interface {
	Publish(ev Event)
	PublishFrame(frame gocv.Mat)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) { lp.logger = l }
}

// WithQuitKey sets the key that stops the loop.
func WithQuitKey(k rune) Option {
	return func(lp *Loop) { lp.quitKey = k }
}

// WithDebug sets the debug flag handed to the classifier.
func WithDebug(on bool) Option {
	return func(lp *Loop) { lp.debug = on }
}

// WithLayout overrides the overlay layout.
func WithLayout(layout overlay.Layout) Option {
	return func(lp *Loop) { lp.layout = layout }
}

// WithPublisher attaches a publisher such as the web dashboard.
func WithPublisher(p Publisher) Option {
	return func(lp *Loop) { lp.publisher = p }
}

// Loop owns the per-run buffers: one frame, one signal and one result, all
// overwritten every iteration.
type Loop struct {
	source     Source
	classifier classifier.Classifier
	sink       Sink
	publisher  Publisher

	session string
	quitKey rune
	debug   bool
	layout  overlay.Layout
	logger  *slog.Logger

	stats *statsRecorder
}

// New creates a loop reading from source, classifying with c and showing on sink.
func New(source Source, c classifier.Classifier, sink Sink, opts ...Option) *Loop {
	l := &Loop{
		source:     source,
		classifier: c,
		sink:       sink,
		session:    uuid.NewString(),
		quitKey:    display.DefaultQuitKey,
		debug:      debug.Enabled,
		layout:     overlay.DefaultLayout(),
		logger:     slog.Default(),
		stats:      newStatsRecorder(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Session returns the id of this run.
func (l *Loop) Session() string { return l.session }

// Stats returns a snapshot of the run statistics. Safe to call from any goroutine.
func (l *Loop) Stats() Stats { return l.stats.snapshot() }

// Run processes frames until the stream ends, the quit key is pressed or ctx is
// cancelled; all three return nil. Cancellation is checked once per frame and
// never interrupts a classification in progress. A frame the classifier fails
// on is shown without overlay and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	a := adapter.New(l.classifier.InputWidth(), l.classifier.InputHeight())
	defer a.Close()

	sig := a.NewSignal()
	res := classifier.NewResult(l.classifier.Labels())

	frame := gocv.NewMat()
	defer frame.Close()

	l.stats.start()
	l.logger.Info("loop started",
		"session", l.session,
		"input", [2]int{a.Width(), a.Height()},
		"labels", len(l.classifier.Labels()))

	for {
		if err := ctx.Err(); err != nil {
			l.logger.Info("loop cancelled", "frames", l.stats.frames())
			return nil
		}

		if err := l.source.Read(&frame); err != nil {
			if errors.Is(err, capture.ErrEmptyFrame) {
				l.logger.Info("stream ended", "frames", l.stats.frames())
				return nil
			}
			return err
		}
		n := l.stats.frame()

		if err := l.process(n, a, &frame, sig, res); err != nil {
			l.stats.skip()
			l.logger.Warn("frame skipped", "frame", n, "error", err)
			if l.publisher != nil {
				l.publisher.Publish(Event{Session: l.session, Frame: n, Error: err.Error()})
			}
		}

		key := l.sink.Show(frame)
		if display.IsQuit(key, l.quitKey) {
			l.logger.Info("quit key pressed", "frames", n)
			return nil
		}
	}
}

// process runs one frame through adapt, classify, reduce and draw.
func (l *Loop) process(n uint64, a *adapter.Adapter, frame *gocv.Mat, sig *classifier.Signal, res *classifier.Result) error {
	if err := a.AdaptInto(*frame, sig); err != nil {
		return err
	}
	if err := classifier.Invoke(l.classifier, sig, res, l.debug); err != nil {
		return err
	}

	top, conf := classifier.Top(res)
	l.layout.Draw(frame, res, top)

	var label string
	if top < len(res.Classification) {
		label = res.Classification[top].Label
	}
	l.stats.classified(label, conf, res.Timing)
	debug.FrameLog("frame %d: %s %s\n", n, overlay.TopText(label, conf), overlay.TimingText(res.Timing))

	if l.publisher != nil {
		l.publisher.Publish(newEvent(l.session, n, top, res))
		l.publisher.PublishFrame(*frame)
	}
	return nil
}
