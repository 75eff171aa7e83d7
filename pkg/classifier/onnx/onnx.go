// Package onnx runs a classifier model with ONNX Runtime.
package onnx

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/teslashibe/go-liveclass/pkg/classifier"
	ort "github.com/yalue/onnxruntime_go"
)

// EngineName identifies this engine in logs and errors.
const EngineName = "onnxruntime"

// Config holds engine configuration.
type Config struct {
	ModelPath   string // .onnx model file
	LibraryPath string // onnxruntime shared library; empty uses the platform default
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// Classifier is a classifier.Classifier backed by an ONNX Runtime session.
// The input and output tensors are allocated once and reused for every frame.
type Classifier struct {
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	manifest *classifier.Manifest
	scores   []float32
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

var _ classifier.Classifier = (*Classifier)(nil)

// New initializes the ONNX Runtime environment and creates a session for the
// model. The manifest input and output names must match the model graph.
func New(cfg Config, m *classifier.Manifest, opts ...Option) (*Classifier, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil manifest", classifier.ErrManifest)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(m.InputShape()...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(m.Labels))))
	if err != nil {
		input.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{m.InputName}, []string{m.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	c := &Classifier{
		session:  session,
		input:    input,
		output:   output,
		manifest: m,
		scores:   make([]float32, len(m.Labels)),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify unpacks the signal straight into the input tensor and runs the session.
func (c *Classifier) Classify(sig *classifier.Signal, res *classifier.Result, debug bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return classifier.ErrClosed
	}

	start := time.Now()
	if err := classifier.FillTensor(sig, c.manifest.Layout, c.manifest.Scale, c.input.GetData()); err != nil {
		return err
	}
	dsp := time.Since(start)

	start = time.Now()
	if err := c.session.Run(); err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}
	copy(c.scores, c.output.GetData())
	if c.manifest.Softmax {
		classifier.Softmax(c.scores)
	}
	elapsed := time.Since(start)

	if debug {
		c.logger.Info("onnx run",
			"input", c.manifest.InputName,
			"shape", c.manifest.InputShape(),
			"scores", c.scores,
			"dsp", dsp,
			"classification", elapsed)
	}

	if err := res.SetScores(c.scores); err != nil {
		return err
	}
	res.Timing = classifier.Timing{DSP: dsp, Classification: elapsed}
	return nil
}

func (c *Classifier) InputWidth() int  { return c.manifest.InputWidth }
func (c *Classifier) InputHeight() int { return c.manifest.InputHeight }
func (c *Classifier) Labels() []string { return c.manifest.Labels }

// Info describes the loaded model.
func (c *Classifier) Info() classifier.Info {
	return classifier.Info{
		Project: c.manifest.Project,
		Version: c.manifest.Version,
		Engine:  EngineName,
	}
}

// Close destroys the session, its tensors and the runtime environment.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if c.input != nil {
		c.input.Destroy()
	}
	if c.output != nil {
		c.output.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
