package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-liveclass/pkg/capture"
	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"github.com/teslashibe/go-liveclass/pkg/display"
	"gocv.io/x/gocv"
)

// fakeSource replays n uniform frames, then reports end of stream or err.
type fakeSource struct {
	n     int
	reads int
	err   error
	// onRead runs before every read
	onRead func(i int)
}

func (f *fakeSource) Read(dst *gocv.Mat) error {
	if f.onRead != nil {
		f.onRead(f.reads)
	}
	if f.reads >= f.n {
		if f.err != nil {
			return f.err
		}
		return capture.ErrEmptyFrame
	}
	f.reads++
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 240, 320, gocv.MatTypeCV8UC3)
	frame.CopyTo(dst)
	frame.Close()
	return nil
}

// fakeSink records shows and replays scripted keys.
type fakeSink struct {
	keys  []int
	shown int
}

func (s *fakeSink) Show(frame gocv.Mat) int {
	s.shown++
	if s.shown <= len(s.keys) {
		return s.keys[s.shown-1]
	}
	return display.NoKey
}

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
	frames int
}

func (p *fakePublisher) Publish(ev Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *fakePublisher) PublishFrame(frame gocv.Mat) {
	p.mu.Lock()
	p.frames++
	p.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_UntilStreamEnds(t *testing.T) {
	src := &fakeSource{n: 5}
	sink := &fakeSink{}
	c := classifier.WithScores(8, 8, []string{"cup", "pen"}, []float32{0.2, 0.8})

	loop := New(src, c, sink, WithLogger(quietLogger()))
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if c.CallCount() != 5 {
		t.Errorf("expected 5 classifications, got %d", c.CallCount())
	}
	if sink.shown != 5 {
		t.Errorf("expected 5 frames shown, got %d", sink.shown)
	}

	st := loop.Stats()
	if st.Frames != 5 || st.Classified != 5 || st.Skipped != 0 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.LastLabel != "pen" || st.LastConfidence != 0.8 {
		t.Errorf("last = %s %v, want pen 0.8", st.LastLabel, st.LastConfidence)
	}
}

func TestRun_QuitKey(t *testing.T) {
	src := &fakeSource{n: 100}
	sink := &fakeSink{keys: []int{display.NoKey, 'x', 'q'}}
	c := classifier.NewMock(4, 4, "a")

	loop := New(src, c, sink, WithLogger(quietLogger()))
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sink.shown != 3 {
		t.Errorf("expected loop to stop after 3 frames, showed %d", sink.shown)
	}
	if src.reads != 3 {
		t.Errorf("expected 3 reads, got %d", src.reads)
	}
}

func TestRun_CustomQuitKey(t *testing.T) {
	src := &fakeSource{n: 10}
	sink := &fakeSink{keys: []int{'q', 27}}
	c := classifier.NewMock(4, 4, "a")

	loop := New(src, c, sink, WithLogger(quietLogger()), WithQuitKey(27))
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sink.shown != 2 {
		t.Errorf("expected escape to stop on the second frame, showed %d", sink.shown)
	}
}

func TestRun_ClassifierFailureSkipsFrame(t *testing.T) {
	src := &fakeSource{n: 4}
	sink := &fakeSink{}
	pub := &fakePublisher{}

	calls := 0
	c := classifier.NewMock(4, 4, "a", "b")
	c.ClassifyFunc = func(sig *classifier.Signal, res *classifier.Result, debug bool) error {
		calls++
		if calls%2 == 0 {
			return errors.New("invoke failed")
		}
		res.Classification[1].Value = 0.9
		return nil
	}

	loop := New(src, c, sink, WithLogger(quietLogger()), WithPublisher(pub))
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	st := loop.Stats()
	if st.Frames != 4 || st.Classified != 2 || st.Skipped != 2 {
		t.Errorf("unexpected stats: %+v", st)
	}
	// Skipped frames are still displayed
	if sink.shown != 4 {
		t.Errorf("expected all 4 frames shown, got %d", sink.shown)
	}

	if len(pub.events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(pub.events))
	}
	if pub.events[1].Error == "" {
		t.Error("expected error on second event")
	}
	if pub.events[0].Label != "b" || pub.events[0].Top != 1 {
		t.Errorf("unexpected first event: %+v", pub.events[0])
	}
	if pub.frames != 2 {
		t.Errorf("expected 2 published frames, got %d", pub.frames)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{n: 100, onRead: func(i int) {
		if i == 2 {
			cancel()
		}
	}}
	sink := &fakeSink{}
	c := classifier.NewMock(4, 4, "a")

	loop := New(src, c, sink, WithLogger(quietLogger()))
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The frame being read when cancel happened still completes.
	if sink.shown != 3 {
		t.Errorf("expected 3 frames shown, got %d", sink.shown)
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{n: 10}
	loop := New(src, classifier.NewMock(4, 4, "a"), &fakeSink{}, WithLogger(quietLogger()))
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if src.reads != 0 {
		t.Errorf("expected no reads, got %d", src.reads)
	}
}

func TestRun_SourceError(t *testing.T) {
	srcErr := errors.New("decoder crashed")
	src := &fakeSource{n: 1, err: srcErr}
	loop := New(src, classifier.NewMock(4, 4, "a"), &fakeSink{}, WithLogger(quietLogger()))

	err := loop.Run(context.Background())
	if !errors.Is(err, srcErr) {
		t.Errorf("expected source error, got %v", err)
	}
}

func TestRun_DebugFlag(t *testing.T) {
	c := classifier.NewMock(4, 4, "a")
	loop := New(&fakeSource{n: 3}, c, &fakeSink{}, WithLogger(quietLogger()), WithDebug(true))
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if c.DebugCount() != 3 {
		t.Errorf("expected debug flag on every call, got %d", c.DebugCount())
	}
}

func TestRun_SignalMatchesInput(t *testing.T) {
	c := classifier.NewMock(96, 48, "a")
	c.ClassifyFunc = func(sig *classifier.Signal, res *classifier.Result, debug bool) error {
		if sig.Len() != 96*48 {
			return errors.New("bad signal length")
		}
		// Source frames are BGR (40, 80, 120), so RGB is (120, 80, 40)
		if sig.At(0) != classifier.Pack(120, 80, 40) {
			return errors.New("bad pixel")
		}
		res.Classification[0].Value = 1
		return nil
	}

	loop := New(&fakeSource{n: 2}, c, &fakeSink{}, WithLogger(quietLogger()))
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st := loop.Stats(); st.Skipped != 0 {
		t.Errorf("expected no skipped frames, got %d", st.Skipped)
	}
}

func TestLoop_Session(t *testing.T) {
	a := New(&fakeSource{}, classifier.NewMock(1, 1, "a"), &fakeSink{})
	b := New(&fakeSource{}, classifier.NewMock(1, 1, "a"), &fakeSink{})
	if a.Session() == "" || a.Session() == b.Session() {
		t.Errorf("expected unique sessions, got %q and %q", a.Session(), b.Session())
	}
}

func TestStats(t *testing.T) {
	var s Stats
	if s.AvgInference() != 0 || s.FPS(time.Now()) != 0 {
		t.Error("zero stats should report zero rates")
	}

	start := time.Now()
	s = Stats{Started: start, Frames: 30, Classified: 3, InferenceTotal: 30 * time.Millisecond}
	if s.AvgInference() != 10*time.Millisecond {
		t.Errorf("AvgInference = %v", s.AvgInference())
	}
	if fps := s.FPS(start.Add(2 * time.Second)); fps != 15 {
		t.Errorf("FPS = %v, want 15", fps)
	}
}
