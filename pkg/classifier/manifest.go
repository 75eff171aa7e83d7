package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// Layout is the channel layout of the model input tensor.
type Layout string

const (
	LayoutNCHW Layout = "nchw"
	LayoutNHWC Layout = "nhwc"
)

// DefaultScale maps 8-bit channels to [0, 1].
const DefaultScale float32 = 1.0 / 255.0

// Manifest holds the constants a deployed model dictates: input size, label
// table and how the packed signal maps onto the input tensor.
type Manifest struct {
	Project     string   `json:"project"`
	Version     string   `json:"version"`
	InputWidth  int      `json:"input_width"`
	InputHeight int      `json:"input_height"`
	Labels      []string `json:"labels"`
	Layout      Layout   `json:"layout"`
	Scale       float32  `json:"scale"`
	Softmax     bool     `json:"softmax"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a manifest, fills defaults and validates it.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Layout == "" {
		m.Layout = LayoutNCHW
	}
	if m.Scale == 0 {
		m.Scale = DefaultScale
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
}

// Validate checks that the manifest can drive an engine.
func (m *Manifest) Validate() error {
	if m.InputWidth <= 0 || m.InputHeight <= 0 {
		return fmt.Errorf("%w: input size %dx%d", ErrManifest, m.InputWidth, m.InputHeight)
	}
	if len(m.Labels) == 0 {
		return fmt.Errorf("%w: no labels", ErrManifest)
	}
	switch m.Layout {
	case LayoutNCHW, LayoutNHWC:
	default:
		return fmt.Errorf("%w: unknown layout %q", ErrManifest, m.Layout)
	}
	return nil
}

// SignalLen is the number of entries a signal must carry.
func (m *Manifest) SignalLen() int {
	return m.InputWidth * m.InputHeight
}

// TensorLen is the number of floats in the unpacked input tensor.
func (m *Manifest) TensorLen() int {
	return m.SignalLen() * 3
}

// InputShape is the input tensor shape for the manifest layout.
func (m *Manifest) InputShape() []int64 {
	w, h := int64(m.InputWidth), int64(m.InputHeight)
	if m.Layout == LayoutNHWC {
		return []int64{1, h, w, 3}
	}
	return []int64{1, 3, h, w}
}
