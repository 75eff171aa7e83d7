// Package web serves a live dashboard for a classification run: status and
// label endpoints, plus websocket streams of results and annotated frames.
package web

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-liveclass/internal/log"
	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"github.com/teslashibe/go-liveclass/pkg/hub"
	"github.com/teslashibe/go-liveclass/pkg/pipeline"
	"gocv.io/x/gocv"
)

// Info describes the run being served.
type Info struct {
	Session string
	Stream  string
	Engine  string
	Model   classifier.Info
	Labels  []string
}

// Server is the dashboard. It implements pipeline.Publisher.
type Server struct {
	app    *fiber.App
	port   string
	info   Info
	logger *slog.Logger

	stats func() pipeline.Stats

	last   *pipeline.Event
	lastMu sync.RWMutex

	results *hub.Hub
	frames  *hub.Hub
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStats supplies run statistics for /api/status.
func WithStats(fn func() pipeline.Stats) Option {
	return func(s *Server) { s.stats = fn }
}

// NewServer builds the dashboard for port. Start or Serve runs it.
func NewServer(port string, info Info, opts ...Option) *Server {
	s := &Server{
		port: port,
		info: info,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.With("component", "web")
	}
	s.results = hub.New("results", hub.WithLogger(s.logger.With("hub", "results")))
	s.frames = hub.New("frames", hub.WithLogger(s.logger.With("hub", "frames")))

	app := fiber.New(fiber.Config{
		AppName:               "liveclass",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/labels", s.handleLabels)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/results", websocket.New(s.handleWS(s.results)))
	app.Get("/ws/frames", websocket.New(s.handleWS(s.frames)))

	s.app = app
	return s
}

// SetSession records the run session id. Call it before Start.
func (s *Server) SetSession(id string) { s.info.Session = id }

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Start listens on the configured port and blocks.
func (s *Server) Start() error {
	s.startHubs()
	s.logger.Info("dashboard listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Serve runs the dashboard on an existing listener and blocks.
func (s *Server) Serve(ln net.Listener) error {
	s.startHubs()
	return s.app.Listener(ln)
}

// StartAsync runs Start in a goroutine, logging a failure.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard stopped", "error", err)
		}
	}()
}

// Shutdown stops the listener and the hubs.
func (s *Server) Shutdown() error {
	s.results.Stop()
	s.frames.Stop()
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

func (s *Server) startHubs() {
	go s.results.Run()
	go s.frames.Run()
}

// Publish records ev as the latest result and broadcasts it.
func (s *Server) Publish(ev pipeline.Event) {
	if ev.Error == "" {
		s.lastMu.Lock()
		s.last = &ev
		s.lastMu.Unlock()
	}
	if s.results.ClientCount() == 0 {
		return
	}
	if err := s.results.BroadcastJSON(ev); err != nil {
		s.logger.Warn("encode result", "error", err)
	}
}

// PublishFrame JPEG-encodes frame for /ws/frames. Encoding is skipped when
// nobody is watching.
func (s *Server) PublishFrame(frame gocv.Mat) {
	if s.frames.ClientCount() == 0 || frame.Empty() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		s.logger.Warn("encode frame", "error", err)
		return
	}
	defer buf.Close()
	data := append([]byte(nil), buf.GetBytes()...)
	s.frames.BroadcastBinary(data)
}

// Last returns the most recent successful result, if any.
func (s *Server) Last() (pipeline.Event, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return pipeline.Event{}, false
	}
	return *s.last, true
}
