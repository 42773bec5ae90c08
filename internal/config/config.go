// Package config loads harness settings from a YAML file, the environment
// and command-line overrides, in that order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mobilindo-e2e/internal/browser"
	"github.com/roach88/mobilindo-e2e/internal/harness"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "mobilindo-e2e.yaml"

// DefaultBaseURL is the marketplace dev server address.
const DefaultBaseURL = "http://localhost:3000"

// Environment variables consulted by ApplyEnv.
const (
	EnvBaseURL  = "MOBILINDO_BASE_URL"
	EnvHeadless = "MOBILINDO_HEADLESS"
	EnvSettle   = "MOBILINDO_SETTLE"
)

// Config is the resolved harness configuration.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	Headless    bool          `yaml:"headless"`
	SlowMo      time.Duration `yaml:"slow_mo"`
	BrowserArgs []string      `yaml:"browser_args"`
	Timeouts    Timeouts      `yaml:"timeouts"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	Parallel    int           `yaml:"parallel"`
}

// Timeouts bounds each kind of browser wait.
type Timeouts struct {
	Action         time.Duration `yaml:"action"`
	Navigation     time.Duration `yaml:"navigation"`
	LoadState      time.Duration `yaml:"load_state"`
	ContextDefault time.Duration `yaml:"context_default"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Headless:    true,
		BrowserArgs: append([]string(nil), browser.DefaultBrowserArgs...),
		Timeouts: Timeouts{
			Action:         harness.DefaultActionTimeout,
			Navigation:     harness.DefaultNavigationTimeout,
			LoadState:      harness.DefaultLoadStateTimeout,
			ContextDefault: harness.DefaultContextTimeout,
		},
		SettleDelay: harness.DefaultSettleDelay,
		Parallel:    1,
	}
}

// Load returns the defaults overlaid with the file at path and then the
// process environment. An empty path reads DefaultFile if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.Decode(bytes.NewReader(data)); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode overlays YAML from r onto c. Unknown fields are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// ApplyEnv overlays the MOBILINDO_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		c.Headless = b
	}
	if v, ok := lookup(EnvSettle); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSettle, err)
		}
		c.SettleDelay = d
	}
	return nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url: must be an absolute http(s) URL, got %q", c.BaseURL))
	}
	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"timeouts.action", c.Timeouts.Action},
		{"timeouts.navigation", c.Timeouts.Navigation},
		{"timeouts.load_state", c.Timeouts.LoadState},
		{"timeouts.context_default", c.Timeouts.ContextDefault},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", t.name, t.d))
		}
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle_delay: must not be negative, got %s", c.SettleDelay))
	}
	if c.SlowMo < 0 {
		errs = append(errs, fmt.Errorf("slow_mo: must not be negative, got %s", c.SlowMo))
	}
	if c.Parallel < 1 {
		errs = append(errs, fmt.Errorf("parallel: must be at least 1, got %d", c.Parallel))
	}
	for _, arg := range c.BrowserArgs {
		if !strings.HasPrefix(arg, "--") {
			errs = append(errs, fmt.Errorf("browser_args: %q is not a flag", arg))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

// HarnessOptions converts c into runner options using the production
// Playwright driver.
func (c Config) HarnessOptions() harness.Options {
	opts := harness.DefaultOptions(c.BaseURL)
	opts.Launch = browser.LaunchOptions{
		Headless: c.Headless,
		Args:     c.BrowserArgs,
		SlowMo:   c.SlowMo,
	}
	opts.ActionTimeout = c.Timeouts.Action
	opts.NavigationTimeout = c.Timeouts.Navigation
	opts.LoadStateTimeout = c.Timeouts.LoadState
	opts.ContextTimeout = c.Timeouts.ContextDefault
	opts.SettleDelay = c.SettleDelay
	return opts
}
