package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"github.com/teslashibe/go-liveclass/pkg/pipeline"
	"gocv.io/x/gocv"
)

func testServer(opts ...Option) *Server {
	info := Info{
		Session: "abc",
		Stream:  "http://camera.local/stream",
		Engine:  "mock",
		Model:   classifier.Info{Project: "desk", Version: "3"},
		Labels:  []string{"cup", "pen"},
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewServer("0", info, opts...)
}

func serve(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go s.Serve(ln)
	t.Cleanup(func() { s.Shutdown() })
	return ln.Addr().String()
}

func dial(t *testing.T, addr, path string) *websocket.Conn {
	t.Helper()
	var conn *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+path, nil)
		if err == nil {
			t.Cleanup(func() { conn.Close() })
			return conn
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", path, err)
	return nil
}

func waitClients(t *testing.T, count func() int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatus(t *testing.T) {
	started := time.Now().Add(-2 * time.Second)
	s := testServer(WithStats(func() pipeline.Stats {
		return pipeline.Stats{Started: started, Frames: 20, Classified: 4, InferenceTotal: 40 * time.Millisecond}
	}))
	s.Publish(pipeline.Event{Session: "abc", Frame: 7, Label: "pen", Confidence: 0.75})
	s.Publish(pipeline.Event{Session: "abc", Frame: 8, Error: "invoke failed"})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status code %d", resp.StatusCode)
	}

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Session != "abc" || st.Engine != "mock" || st.Project != "desk" || st.Version != "3" {
		t.Errorf("unexpected status: %+v", st)
	}
	if st.Last == nil || st.Last.Frame != 7 || st.Last.Label != "pen" {
		t.Errorf("expected last successful frame 7, got %+v", st.Last)
	}
	if st.Stats.Frames != 20 || st.AvgInferenceMs != 10 {
		t.Errorf("unexpected stats: %+v avg=%v", st.Stats, st.AvgInferenceMs)
	}
	if st.FPS <= 0 {
		t.Errorf("expected positive fps, got %v", st.FPS)
	}
}

func TestStatus_NoResultsYet(t *testing.T) {
	s := testServer()
	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Last != nil {
		t.Errorf("expected no last result, got %+v", st.Last)
	}
}

func TestLabels(t *testing.T) {
	s := testServer()
	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/labels", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var labels []string
	if err := json.NewDecoder(resp.Body).Decode(&labels); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(labels) != 2 || labels[0] != "cup" || labels[1] != "pen" {
		t.Errorf("unexpected labels %v", labels)
	}
}

func TestWS_RequiresUpgrade(t *testing.T) {
	s := testServer()
	resp, err := s.App().Test(httptest.NewRequest("GET", "/ws/results", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 426 {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}

func TestWS_Results(t *testing.T) {
	s := testServer()
	addr := serve(t, s)
	conn := dial(t, addr, "/ws/results")
	waitClients(t, s.results.ClientCount)

	s.Publish(pipeline.Event{Session: "abc", Frame: 1, Top: 1, Label: "pen", Confidence: 0.9})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Errorf("expected text frame, got %d", kind)
	}
	var ev pipeline.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Label != "pen" || ev.Frame != 1 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestWS_Frames(t *testing.T) {
	s := testServer()
	addr := serve(t, s)
	conn := dial(t, addr, "/ws/frames")
	waitClients(t, s.frames.ClientCount)

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 255, 0, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	s.PublishFrame(frame)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Errorf("expected binary frame, got %d", kind)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("expected JPEG payload")
	}
}

func TestPublishFrame_NoClients(t *testing.T) {
	s := testServer()
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// Hubs are not running; with no clients nothing is queued.
	s.PublishFrame(frame)
	if s.frames.Dropped() != 0 {
		t.Error("expected no broadcast without clients")
	}
}
