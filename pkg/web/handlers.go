package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-liveclass/pkg/hub"
	"github.com/teslashibe/go-liveclass/pkg/pipeline"
)

// Status is the /api/status payload.
type Status struct {
	Session        string          `json:"session"`
	Stream         string          `json:"stream"`
	Engine         string          `json:"engine"`
	Project        string          `json:"project"`
	Version        string          `json:"version"`
	Clients        int             `json:"clients"`
	Last           *pipeline.Event `json:"last,omitempty"`
	Stats          pipeline.Stats  `json:"stats"`
	AvgInferenceMs float64         `json:"avg_inference_ms"`
	FPS            float64         `json:"fps"`
}

func (s *Server) status() Status {
	st := Status{
		Session: s.info.Session,
		Stream:  s.info.Stream,
		Engine:  s.info.Engine,
		Project: s.info.Model.Project,
		Version: s.info.Model.Version,
		Clients: s.results.ClientCount() + s.frames.ClientCount(),
	}
	if ev, ok := s.Last(); ok {
		st.Last = &ev
	}
	if s.stats != nil {
		st.Stats = s.stats()
		st.AvgInferenceMs = float64(st.Stats.AvgInference()) / float64(time.Millisecond)
		st.FPS = st.Stats.FPS(time.Now())
	}
	return st
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handleLabels(c *fiber.Ctx) error {
	labels := s.info.Labels
	if labels == nil {
		labels = []string{}
	}
	return c.JSON(labels)
}

func (s *Server) handleWS(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		hub.NewClient(h, conn).Run()
	}
}
