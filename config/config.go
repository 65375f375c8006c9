package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/joho/godotenv"
	"github.com/use-agent/examshot/models"
	"gopkg.in/yaml.v3"
)

// DefaultSelector locates the discussion header block of a question page.
const DefaultSelector = `//*[contains(concat(" ", @class, " "), " discussion-header-container ")]`

// Config holds all application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Browser BrowserConfig `yaml:"browser"`
	Capture CaptureConfig `yaml:"capture"`
	Log     LogConfig     `yaml:"log"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// InputConfig describes where questions come from.
type InputConfig struct {
	// Source is the spreadsheet (.xlsx, .csv) or link list (.txt, .html).
	Source string `yaml:"source"`

	// Topic is the explicit topic assigned to every link of a link list.
	// Empty means the topic is parsed from each URL.
	Topic string `yaml:"topic"`

	// Start is the sequence number of the first link of a link list.
	Start int `yaml:"start"` // default: 1
}

// OutputConfig controls the output tree.
type OutputConfig struct {
	// Dir is the base directory of the course tree.
	Dir string `yaml:"dir"` // default: "output"

	// CopySource copies the source spreadsheet into every course folder.
	CopySource bool `yaml:"copy_source"` // default: true
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Proxy is the proxy URL for all page loads.
	Proxy string `yaml:"proxy"`

	// WindowWidth and WindowHeight size both the window and the viewport.
	WindowWidth  int `yaml:"window_width"`  // default: 7680
	WindowHeight int `yaml:"window_height"` // default: 4320

	// Stealth masks navigator.webdriver and friends on every page load.
	Stealth bool `yaml:"stealth"` // default: true

	// BlockAds drops requests to well-known ad and tracking domains.
	BlockAds bool `yaml:"block_ads"` // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: none, screenshots need images, fonts and styles.
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`

	// RemoveOverlays strips cookie banners and popups after each load.
	RemoveOverlays bool `yaml:"remove_overlays"` // default: false

	// NavigationTimeout bounds page.Navigate plus the load wait.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 60s
}

// CaptureConfig controls the capture loop.
type CaptureConfig struct {
	// Selector locates the element to capture. Expressions starting with
	// "/" or "(" are XPath, anything else is CSS.
	Selector string `yaml:"selector"`

	// WaitTimeout bounds the wait for the element to become visible.
	WaitTimeout time.Duration `yaml:"wait_timeout"` // default: 30s

	// Delay is the pause between two page loads.
	Delay time.Duration `yaml:"delay"` // default: 2s

	// ScrollOffset is how far to scroll back up after bringing the element
	// into view, so a fixed page header does not cover it.
	ScrollOffset int `yaml:"scroll_offset"` // default: 100

	// Settle is the pause between scrolling and capturing.
	Settle time.Duration `yaml:"settle"` // default: 500ms
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// WebhookConfig controls the run summary notification.
type WebhookConfig struct {
	// URL receives a POST when the run finishes. Empty disables it.
	URL string `yaml:"url"`

	// Secret signs the body with HMAC-SHA256 when non-empty.
	Secret string `yaml:"secret"`

	// Timeout bounds the delivery request.
	Timeout time.Duration `yaml:"timeout"` // default: 10s
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Start: 1,
		},
		Output: OutputConfig{
			Dir:        "output",
			CopySource: true,
		},
		Browser: BrowserConfig{
			Headless:          true,
			NoSandbox:         true,
			WindowWidth:       7680,
			WindowHeight:      4320,
			Stealth:           true,
			BlockAds:          true,
			NavigationTimeout: 60 * time.Second,
		},
		Capture: CaptureConfig{
			Selector:     DefaultSelector,
			WaitTimeout:  30 * time.Second,
			Delay:        2 * time.Second,
			ScrollOffset: 100,
			Settle:       500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the optional .env file,
// then the optional YAML file, then EXAMSHOT_* environment variables.
// Empty paths are skipped.
func Load(envFile, yamlFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, models.NewError(models.ErrCodeInput, "failed to load env file "+envFile, err)
		}
	}

	cfg := Default()
	if yamlFile != "" {
		if err := cfg.loadFile(yamlFile); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewError(models.ErrCodeInput, "failed to read config file "+path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return models.NewError(models.ErrCodeInput, "failed to parse config file "+path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Input.Source = envOr("EXAMSHOT_SOURCE", c.Input.Source)
	c.Input.Topic = envOr("EXAMSHOT_TOPIC", c.Input.Topic)
	c.Input.Start = envIntOr("EXAMSHOT_START", c.Input.Start)

	c.Output.Dir = envOr("EXAMSHOT_OUT", c.Output.Dir)
	c.Output.CopySource = envBoolOr("EXAMSHOT_COPY_SOURCE", c.Output.CopySource)

	c.Browser.Headless = envBoolOr("EXAMSHOT_HEADLESS", c.Browser.Headless)
	c.Browser.NoSandbox = envBoolOr("EXAMSHOT_NO_SANDBOX", c.Browser.NoSandbox)
	c.Browser.BrowserBin = envOr("EXAMSHOT_BROWSER_BIN", c.Browser.BrowserBin)
	c.Browser.Proxy = envOr("EXAMSHOT_PROXY", c.Browser.Proxy)
	if v := os.Getenv("EXAMSHOT_WINDOW"); v != "" {
		if w, h, err := ParseWindow(v); err == nil {
			c.Browser.WindowWidth, c.Browser.WindowHeight = w, h
		}
	}
	c.Browser.Stealth = envBoolOr("EXAMSHOT_STEALTH", c.Browser.Stealth)
	c.Browser.BlockAds = envBoolOr("EXAMSHOT_BLOCK_ADS", c.Browser.BlockAds)
	c.Browser.BlockedResourceTypes = envSliceOr("EXAMSHOT_BLOCKED_RESOURCES", c.Browser.BlockedResourceTypes)
	c.Browser.RemoveOverlays = envBoolOr("EXAMSHOT_REMOVE_OVERLAYS", c.Browser.RemoveOverlays)
	c.Browser.NavigationTimeout = envDurationOr("EXAMSHOT_NAV_TIMEOUT", c.Browser.NavigationTimeout)

	c.Capture.Selector = envOr("EXAMSHOT_SELECTOR", c.Capture.Selector)
	c.Capture.WaitTimeout = envDurationOr("EXAMSHOT_WAIT_TIMEOUT", c.Capture.WaitTimeout)
	c.Capture.Delay = envDurationOr("EXAMSHOT_DELAY", c.Capture.Delay)
	c.Capture.ScrollOffset = envIntOr("EXAMSHOT_SCROLL_OFFSET", c.Capture.ScrollOffset)
	c.Capture.Settle = envDurationOr("EXAMSHOT_SETTLE", c.Capture.Settle)

	c.Log.Level = envOr("EXAMSHOT_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("EXAMSHOT_LOG_FORMAT", c.Log.Format)

	c.Webhook.URL = envOr("EXAMSHOT_WEBHOOK_URL", c.Webhook.URL)
	c.Webhook.Secret = envOr("EXAMSHOT_WEBHOOK_SECRET", c.Webhook.Secret)
	c.Webhook.Timeout = envDurationOr("EXAMSHOT_WEBHOOK_TIMEOUT", c.Webhook.Timeout)
}

// Validate reports the first invalid setting as an input error.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return models.NewError(models.ErrCodeInput, fmt.Sprintf(format, args...), nil)
	}

	switch {
	case c.Input.Source == "":
		return invalid("no input file given")
	case c.Output.Dir == "":
		return invalid("output directory must not be empty")
	case c.Input.Start < 1:
		return invalid("start number must be at least 1, got %d", c.Input.Start)
	case c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0:
		return invalid("window size must be positive, got %dx%d", c.Browser.WindowWidth, c.Browser.WindowHeight)
	case c.Capture.WaitTimeout <= 0:
		return invalid("wait timeout must be positive, got %s", c.Capture.WaitTimeout)
	case c.Browser.NavigationTimeout <= 0:
		return invalid("navigation timeout must be positive, got %s", c.Browser.NavigationTimeout)
	case c.Capture.Delay < 0 || c.Capture.Settle < 0:
		return invalid("delay and settle must not be negative")
	case c.Capture.ScrollOffset < 0:
		return invalid("scroll offset must not be negative, got %d", c.Capture.ScrollOffset)
	}

	sel := strings.TrimSpace(c.Capture.Selector)
	if sel == "" {
		return invalid("selector must not be empty")
	}
	if !IsXPath(sel) {
		if _, err := cascadia.Compile(sel); err != nil {
			return models.NewError(models.ErrCodeInput, "invalid CSS selector "+strconv.Quote(sel), err)
		}
	}
	return nil
}

// IsXPath reports whether a selector expression is XPath rather than CSS.
func IsXPath(sel string) bool {
	sel = strings.TrimSpace(sel)
	return strings.HasPrefix(sel, "/") || strings.HasPrefix(sel, "(")
}

// ParseWindow parses "WIDTHxHEIGHT" (or "WIDTH,HEIGHT").
func ParseWindow(s string) (width, height int, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	sep := "x"
	if strings.Contains(s, ",") {
		sep = ","
	}
	w, h, ok := strings.Cut(s, sep)
	if !ok {
		return 0, 0, fmt.Errorf("window size %q: want WIDTHxHEIGHT", s)
	}
	if width, err = strconv.Atoi(strings.TrimSpace(w)); err != nil {
		return 0, 0, fmt.Errorf("window width %q: %w", w, err)
	}
	if height, err = strconv.Atoi(strings.TrimSpace(h)); err != nil {
		return 0, 0, fmt.Errorf("window height %q: %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("window size %q must be positive", s)
	}
	return width, height, nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
