// Package config resolves liveclass settings from defaults, the environment
// and command-line flags, in that order.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Engine names accepted by -engine.
const (
	EngineDNN  = "dnn"
	EngineONNX = "onnx"
)

// Defaults.
const (
	DefaultModelPath    = "models/model.onnx"
	DefaultManifestPath = "models/model.json"
	DefaultWindow       = "liveclass"
	DefaultDelay        = 1
	DefaultLogLevel     = "info"
)

// Config is everything the liveclass binary needs to start.
type Config struct {
	StreamURL    string
	ImagePath    string // classify one still image instead of a stream
	ModelPath    string
	NetConfig    string // optional network description for the dnn engine
	ManifestPath string
	Engine       string
	ORTLib       string
	WebPort      string
	LogLevel     string
	Window       string
	Delay        int
	Headless     bool
	Debug        bool
	DebugFrames  bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ModelPath:    DefaultModelPath,
		ManifestPath: DefaultManifestPath,
		Engine:       EngineDNN,
		Window:       DefaultWindow,
		Delay:        DefaultDelay,
		LogLevel:     DefaultLogLevel,
	}
}

// ApplyEnv overrides c with any variables set in the environment.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.StreamURL, "STREAM_URL")
	set(&c.ModelPath, "MODEL_PATH")
	set(&c.ManifestPath, "MANIFEST_PATH")
	set(&c.Engine, "ENGINE")
	set(&c.ORTLib, "ORT_LIB")
	set(&c.WebPort, "WEB_PORT")
	set(&c.LogLevel, "LOG_LEVEL")
}

// Parse builds a Config from defaults, environment and args (without the
// program name). A positional argument is taken as the stream URL, matching
// `liveclass http://camera/stream`.
func Parse(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	cfg.ApplyEnv(getenv)

	fs := flag.NewFlagSet("liveclass", flag.ContinueOnError)
	fs.StringVar(&cfg.StreamURL, "stream", cfg.StreamURL, "Camera stream URL or device index (STREAM_URL)")
	fs.StringVar(&cfg.ImagePath, "image", cfg.ImagePath, "Classify one image file and exit")
	fs.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "Model file (MODEL_PATH)")
	fs.StringVar(&cfg.NetConfig, "net-config", cfg.NetConfig, "Optional network description for the dnn engine")
	fs.StringVar(&cfg.ManifestPath, "manifest", cfg.ManifestPath, "Model manifest JSON (MANIFEST_PATH)")
	fs.StringVar(&cfg.Engine, "engine", cfg.Engine, "Inference engine: dnn or onnx (ENGINE)")
	fs.StringVar(&cfg.ORTLib, "ort-lib", cfg.ORTLib, "onnxruntime shared library path (ORT_LIB)")
	fs.StringVar(&cfg.WebPort, "web-port", cfg.WebPort, "Serve the dashboard on this port; empty disables it (WEB_PORT)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (LOG_LEVEL)")
	fs.StringVar(&cfg.Window, "window", cfg.Window, "Window title")
	fs.IntVar(&cfg.Delay, "delay", cfg.Delay, "Key wait per frame in ms")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a window")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable classifier debug output")
	fs.BoolVar(&cfg.DebugFrames, "debug-frames", cfg.DebugFrames, "Trace every frame (very verbose)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		cfg.StreamURL = fs.Arg(0)
	}
	cfg.Engine = strings.ToLower(cfg.Engine)

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Load is Parse over the process arguments and environment.
func Load() (Config, error) {
	return Parse(os.Args[1:], os.Getenv)
}

// Validate checks the configuration.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.StreamURL == "" && c.ImagePath == "" {
		errors = append(errors, "stream url or image is required")
	}
	if c.ModelPath == "" {
		errors = append(errors, "model path is required")
	}
	if c.ManifestPath == "" {
		errors = append(errors, "manifest path is required")
	}
	if c.Engine != EngineDNN && c.Engine != EngineONNX {
		errors = append(errors, "engine must be dnn or onnx")
	}
	if c.WebPort != "" {
		if p, err := strconv.Atoi(c.WebPort); err != nil || p < 1 || p > 65535 {
			errors = append(errors, "web port must be between 1 and 65535")
		}
	}
	if c.Delay < 1 {
		errors = append(errors, "delay must be at least 1 ms")
	}

	return errors
}
