// liveclass classifies a live camera stream and overlays the top label,
// per-label confidences and inference time on the displayed video.
//
// Usage:
//
//	liveclass [flags] <stream-url>
//	liveclass [flags] -image photo.jpg
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/go-liveclass/internal/config"
	"github.com/teslashibe/go-liveclass/internal/log"
	"github.com/teslashibe/go-liveclass/pkg/adapter"
	"github.com/teslashibe/go-liveclass/pkg/capture"
	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"github.com/teslashibe/go-liveclass/pkg/classifier/dnn"
	"github.com/teslashibe/go-liveclass/pkg/classifier/onnx"
	"github.com/teslashibe/go-liveclass/pkg/debug"
	"github.com/teslashibe/go-liveclass/pkg/display"
	"github.com/teslashibe/go-liveclass/pkg/pipeline"
	"github.com/teslashibe/go-liveclass/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	if err := run(cfg); err != nil {
		log.Error("liveclass failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	m, err := classifier.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}
	debug.Log("manifest: layout=%s scale=%g softmax=%v input=%q output=%q\n",
		m.Layout, m.Scale, m.Softmax, m.InputName, m.OutputName)

	c, err := newClassifier(cfg, m)
	if err != nil {
		return err
	}
	defer c.Close()

	printBanner(c)

	if cfg.ImagePath != "" {
		return classifyImage(cfg.ImagePath, c)
	}

	stream, err := capture.Open(cfg.StreamURL)
	if err != nil {
		return err
	}
	defer stream.Close()

	props := stream.Properties()
	log.Info("stream opened", "url", cfg.StreamURL, "width", props.Width, "height", props.Height, "fps", props.FPS)

	var sink interface {
		pipeline.Sink
		Close() error
	}
	if cfg.Headless {
		sink = display.Headless{}
	} else {
		sink = display.NewWindow(cfg.Window, cfg.Delay)
	}
	defer sink.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []pipeline.Option{pipeline.WithLogger(log.L())}
	var srv *web.Server
	var loop *pipeline.Loop
	if cfg.WebPort != "" {
		srv = web.NewServer(cfg.WebPort, web.Info{
			Stream: cfg.StreamURL,
			Engine: cfg.Engine,
			Model:  c.Info(),
			Labels: c.Labels(),
		}, web.WithStats(func() pipeline.Stats { return loop.Stats() }))
		opts = append(opts, pipeline.WithPublisher(srv))
	}

	loop = pipeline.New(stream, c, sink, opts...)
	log.Info("classification started", "session", loop.Session(), "engine", cfg.Engine)

	if srv != nil {
		srv.SetSession(loop.Session())
		srv.StartAsync()
		defer srv.Shutdown()
	}

	err = loop.Run(ctx)

	st := loop.Stats()
	log.Info("classification stopped",
		"frames", st.Frames,
		"classified", st.Classified,
		"skipped", st.Skipped,
		"avg_inference", st.AvgInference().Round(time.Microsecond),
		"fps", fmt.Sprintf("%.1f", st.FPS(time.Now())),
	)
	return err
}

// classifyImage runs one still image through c and prints the overlay text.
func classifyImage(path string, c classifier.Classifier) error {
	img, err := adapter.LoadImage(path)
	if err != nil {
		return err
	}
	still, err := pipeline.ClassifyImage(c, img, debug.Enabled)
	if err != nil {
		return err
	}
	log.Info("image classified", "path", path, "label", still.Label, "confidence", still.Confidence)
	for _, line := range still.Lines() {
		fmt.Println(line)
	}
	return nil
}

func newClassifier(cfg config.Config, m *classifier.Manifest) (classifier.Classifier, error) {
	switch cfg.Engine {
	case config.EngineDNN:
		dc := dnn.DefaultConfig()
		dc.ModelPath = cfg.ModelPath
		dc.ConfigPath = cfg.NetConfig
		c, err := dnn.New(dc, m, dnn.WithLogger(log.With("engine", dnn.EngineName)))
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.EngineONNX:
		c, err := onnx.New(onnx.Config{
			ModelPath:   cfg.ModelPath,
			LibraryPath: cfg.ORTLib,
		}, m, onnx.WithLogger(log.With("engine", onnx.EngineName)))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.New("unknown engine " + cfg.Engine)
	}
}

func printBanner(c classifier.Classifier) {
	info := c.Info()
	fmt.Println("🎥 liveclass")
	fmt.Println("============")
	fmt.Printf("Project: %s\n", info.Project)
	fmt.Printf("Version: %s\n", info.Version)
	fmt.Printf("Input:   %dx%d\n", c.InputWidth(), c.InputHeight())
	fmt.Printf("Labels:  %s\n\n", strings.Join(c.Labels(), ", "))
}
