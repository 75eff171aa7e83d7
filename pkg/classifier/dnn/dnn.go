// Package dnn runs a classifier model with OpenCV's DNN module.
package dnn

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/teslashibe/go-liveclass/pkg/classifier"
	"gocv.io/x/gocv"
)

// EngineName identifies this engine in logs and errors.
const EngineName = "opencv-dnn"

// Config holds engine configuration
type Config struct {
	ModelPath  string // ONNX, TFLite, Caffe or TF model file
	ConfigPath string // Optional network description (Caffe prototxt, TF pbtxt)
	Backend    gocv.NetBackendType
	Target     gocv.NetTargetType
}

// DefaultConfig returns CPU defaults
func DefaultConfig() Config {
	return Config{
		ModelPath: "models/model.onnx",
		Backend:   gocv.NetBackendDefault,
		Target:    gocv.NetTargetCPU,
	}
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// Classifier is a classifier.Classifier backed by gocv.Net
type Classifier struct {
	net      gocv.Net
	manifest *classifier.Manifest
	shape    []int
	scores   []float32
	logger   *slog.Logger

	mu     sync.Mutex // Protects inference
	closed bool
}

var _ classifier.Classifier = (*Classifier)(nil)

// New loads the model described by cfg. The manifest supplies the input size,
// label table and tensor layout.
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

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(cfg.Backend)
	net.SetPreferableTarget(cfg.Target)

	shape := make([]int, 0, 4)
	for _, d := range m.InputShape() {
		shape = append(shape, int(d))
	}

	c := &Classifier{
		net:      net,
		manifest: m,
		shape:    shape,
		scores:   make([]float32, len(m.Labels)),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify unpacks the signal into an input blob and runs a forward pass.
func (c *Classifier) Classify(sig *classifier.Signal, res *classifier.Result, debug bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return classifier.ErrClosed
	}

	start := time.Now()

	blob := gocv.NewMatWithSizes(c.shape, gocv.MatTypeCV32F)
	defer blob.Close()

	data, err := blob.DataPtrFloat32()
	if err != nil {
		return fmt.Errorf("input blob: %w", err)
	}
	if err := classifier.FillTensor(sig, c.manifest.Layout, c.manifest.Scale, data); err != nil {
		return err
	}
	dsp := time.Since(start)

	start = time.Now()
	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	defer output.Close()

	if output.Empty() {
		return fmt.Errorf("forward pass produced no output")
	}
	out, err := output.DataPtrFloat32()
	if err != nil {
		return fmt.Errorf("read output: %w", err)
	}
	if len(out) < len(c.scores) {
		return fmt.Errorf("%w: model produced %d outputs for %d labels",
			classifier.ErrResultLength, len(out), len(c.scores))
	}
	copy(c.scores, out)
	if c.manifest.Softmax {
		classifier.Softmax(c.scores)
	}
	elapsed := time.Since(start)

	if debug {
		c.logger.Info("dnn forward",
			"shape", c.shape,
			"outputs", len(out),
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

// Close releases the network
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.net.Close()
}
