package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file consulted when --config is not given.
// A missing file is not an error; defaults and env vars apply.
const DefaultPath = "chartvoice.toml"

// Config holds all application configuration.
type Config struct {
	Site    SiteConfig    `toml:"site"`
	Browser BrowserConfig `toml:"browser"`
	Capture CaptureConfig `toml:"capture"`
	Extract ExtractConfig `toml:"extract"`
	Flatten FlattenConfig `toml:"flatten"`
	Log     LogConfig     `toml:"log"`
}

// SiteConfig controls the local content server.
type SiteConfig struct {
	Host string `toml:"host"` // default: "localhost"
	Port int    `toml:"port"` // default: 8000; 0 picks an ephemeral port
	Dir  string `toml:"dir"`  // directory served at /; default: "html"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `toml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `toml:"no_sandbox"` // default: true

	// Bin overrides the Chromium binary path.
	Bin string `toml:"bin"`
}

// CaptureConfig controls the screenshot stage.
type CaptureConfig struct {
	// OutputDir receives one PNG per dropdown combination.
	OutputDir string `toml:"output_dir"` // default: "screenshots"

	// PracticeControl and CountyControl are the element IDs of the two
	// single-select dropdowns on the page under test.
	PracticeControl string `toml:"practice_control"` // default: "practice-select"
	CountyControl   string `toml:"county_control"`   // default: "fips-select"

	// PageSettle is the wait after initial navigation.
	PageSettle time.Duration `toml:"page_settle"` // default: 500ms

	// RenderSettle is the wait after each selection change, giving
	// client-side chart rendering time to finish.
	RenderSettle time.Duration `toml:"render_settle"` // default: 50ms

	// NavTimeout bounds initial navigation and control lookup.
	NavTimeout time.Duration `toml:"nav_timeout"` // default: 15s
}

// ExtractConfig controls the insight extraction stage.
type ExtractConfig struct {
	// ScreenshotDir is scanned for *.png inputs.
	ScreenshotDir string `toml:"screenshot_dir"` // default: "screenshots"

	// LedgerPath is the persistent insight document.
	LedgerPath string `toml:"ledger_path"` // default: "html/aiInsights.json"

	// Model is the hosted multimodal model name.
	Model string `toml:"model"` // default: "gpt-4o-mini"

	// MaxAttempts bounds the retry loop per image.
	MaxAttempts int `toml:"max_attempts"` // default: 5

	// BaseDelay seeds the exponential backoff (2^attempt * BaseDelay).
	BaseDelay time.Duration `toml:"base_delay"` // default: 2s

	// RequestInterval paces generation requests; 0 disables pacing.
	RequestInterval time.Duration `toml:"request_interval"` // default: 0

	// APIKey is read from OPENAI_API_KEY (env or .env), never from TOML.
	APIKey string `toml:"-"`
}

// FlattenConfig controls the CSV stage.
type FlattenConfig struct {
	// LedgerPath is the insight document to flatten.
	LedgerPath string `toml:"ledger_path"` // default: "html/aiInsights.json"

	// OutputPath is the CSV artifact, regenerated in full each run.
	OutputPath string `toml:"output_path"` // default: "ai_insights_output.csv"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level"`  // default: "info"
	Format string `toml:"format"` // "json" or "text"; default: "text"
}

// Load builds the configuration: defaults, then the TOML file at path (or
// DefaultPath when path is empty), then CHARTVOICE_* environment variables.
// A .env file in the working directory is folded into the environment first.
// Only an explicitly requested config file may be missing-fatal.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is the normal case.
	_ = godotenv.Load()

	cfg := defaults()

	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// fall through to defaults + env
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Site: SiteConfig{
			Host: "localhost",
			Port: 8000,
			Dir:  "html",
		},
		Browser: BrowserConfig{
			Headless:  true,
			NoSandbox: true,
		},
		Capture: CaptureConfig{
			OutputDir:       "screenshots",
			PracticeControl: "practice-select",
			CountyControl:   "fips-select",
			PageSettle:      500 * time.Millisecond,
			RenderSettle:    50 * time.Millisecond,
			NavTimeout:      15 * time.Second,
		},
		Extract: ExtractConfig{
			ScreenshotDir: "screenshots",
			LedgerPath:    "html/aiInsights.json",
			Model:         "gpt-4o-mini",
			MaxAttempts:   5,
			BaseDelay:     2 * time.Second,
		},
		Flatten: FlattenConfig{
			LedgerPath: "html/aiInsights.json",
			OutputPath: "ai_insights_output.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Site.Host = envOr("CHARTVOICE_HOST", cfg.Site.Host)
	cfg.Site.Port = envIntOr("CHARTVOICE_PORT", cfg.Site.Port)
	cfg.Site.Dir = envOr("CHARTVOICE_SITE_DIR", cfg.Site.Dir)

	cfg.Browser.Headless = envBoolOr("CHARTVOICE_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.NoSandbox = envBoolOr("CHARTVOICE_NO_SANDBOX", cfg.Browser.NoSandbox)
	cfg.Browser.Bin = envOr("CHARTVOICE_BROWSER_BIN", cfg.Browser.Bin)

	cfg.Capture.OutputDir = envOr("CHARTVOICE_SCREENSHOT_DIR", cfg.Capture.OutputDir)
	cfg.Capture.PracticeControl = envOr("CHARTVOICE_PRACTICE_CONTROL", cfg.Capture.PracticeControl)
	cfg.Capture.CountyControl = envOr("CHARTVOICE_COUNTY_CONTROL", cfg.Capture.CountyControl)
	cfg.Capture.PageSettle = envDurationOr("CHARTVOICE_PAGE_SETTLE", cfg.Capture.PageSettle)
	cfg.Capture.RenderSettle = envDurationOr("CHARTVOICE_RENDER_SETTLE", cfg.Capture.RenderSettle)
	cfg.Capture.NavTimeout = envDurationOr("CHARTVOICE_NAV_TIMEOUT", cfg.Capture.NavTimeout)

	cfg.Extract.ScreenshotDir = envOr("CHARTVOICE_SCREENSHOT_DIR", cfg.Extract.ScreenshotDir)
	cfg.Extract.LedgerPath = envOr("CHARTVOICE_LEDGER_PATH", cfg.Extract.LedgerPath)
	cfg.Extract.Model = envOr("CHARTVOICE_MODEL", cfg.Extract.Model)
	cfg.Extract.MaxAttempts = envIntOr("CHARTVOICE_MAX_ATTEMPTS", cfg.Extract.MaxAttempts)
	cfg.Extract.BaseDelay = envDurationOr("CHARTVOICE_BASE_DELAY", cfg.Extract.BaseDelay)
	cfg.Extract.RequestInterval = envDurationOr("CHARTVOICE_REQUEST_INTERVAL", cfg.Extract.RequestInterval)
	cfg.Extract.APIKey = os.Getenv("OPENAI_API_KEY")

	cfg.Flatten.LedgerPath = envOr("CHARTVOICE_LEDGER_PATH", cfg.Flatten.LedgerPath)
	cfg.Flatten.OutputPath = envOr("CHARTVOICE_CSV_PATH", cfg.Flatten.OutputPath)

	cfg.Log.Level = envOr("CHARTVOICE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("CHARTVOICE_LOG_FORMAT", cfg.Log.Format)
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
