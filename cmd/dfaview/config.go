package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ha1tch/dfaviz/pkg/render"
)

// Config holds persistent viewer settings. Values come from the defaults,
// then ~/.dfaview.yaml, then DFAVIEW_* environment variables, then flags.
type Config struct {
	FPS       int           `yaml:"fps" envconfig:"FPS"`
	StepDelay time.Duration `yaml:"step_delay" envconfig:"STEP_DELAY"`
	FitZoom   float64       `yaml:"fit_zoom" envconfig:"FIT_ZOOM"`
	HitTest   string        `yaml:"hit_test" envconfig:"HIT_TEST"` // "buffer" or "analytic"
	Debounce  time.Duration `yaml:"debounce" envconfig:"DEBOUNCE"`
	LogFile   string        `yaml:"log_file,omitempty" envconfig:"LOG_FILE"`
	LogLevel  string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string        `yaml:"log_format" envconfig:"LOG_FORMAT"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		FPS:       render.DefaultFPS,
		StepDelay: 500 * time.Millisecond,
		FitZoom:   0.9,
		HitTest:   "buffer",
		Debounce:  200 * time.Millisecond,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dfaview.yaml"
	}
	return filepath.Join(home, ".dfaview.yaml")
}

// LoadConfig merges the file at path, when it exists, and the environment
// over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process("dfaview", &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

// SaveConfig writes cfg as YAML.
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte("# dfaview configuration\n"), data...), 0o644)
}

func (c Config) validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.HitTest != "buffer" && c.HitTest != "analytic" {
		return fmt.Errorf("hit_test must be buffer or analytic, got %q", c.HitTest)
	}
	return nil
}

// hitTestMode maps the configured name to a renderer mode.
func (c Config) hitTestMode() render.HitTestMode {
	if c.HitTest == "analytic" {
		return render.Analytic
	}
	return render.HitBuffer
}
