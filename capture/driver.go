// Package capture drives a headless browser over the page under test and
// writes one full-page screenshot per dropdown combination.
package capture

import (
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/chartvoice/chartvoice/config"
	"github.com/chartvoice/chartvoice/models"
)

// Driver owns the browser lifecycle for a capture run.
type Driver struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	captureCfg config.CaptureConfig
}

// NewDriver launches a headless browser and connects to it.
func NewDriver(browserCfg config.BrowserConfig, captureCfg config.CaptureConfig) (*Driver, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.Bin != "" {
		l = l.Bin(browserCfg.Bin)
	}

	// Overcome limited /dev/shm in containers.
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", browserCfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &Driver{
		browser:    browser,
		browserCfg: browserCfg,
		captureCfg: captureCfg,
	}, nil
}

// Close kills the browser process. Call on shutdown to prevent zombie
// Chrome processes.
func (d *Driver) Close() {
	slog.Info("capture driver shutting down: closing browser")
	d.browser.MustClose()
}
