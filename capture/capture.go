package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/chartvoice/chartvoice/models"
)

// Stats summarises a capture run. Attempted is always the full cross
// product size; Saved counts the screenshots that made it to disk.
type Stats struct {
	Practices int
	Counties  int
	Attempted int
	Saved     int
}

// Run navigates to baseURL, enumerates both dropdowns, and captures one
// full-page screenshot per (practice, county) combination. A missing control
// is fatal. Selection and screenshot failures are logged and skipped: a
// failed practice selection skips its whole row, a failed county selection
// or capture skips just that pair, and every pair counts as attempted either
// way.
func (d *Driver) Run(ctx context.Context, baseURL string) (Stats, error) {
	var stats Stats

	if err := os.MkdirAll(d.captureCfg.OutputDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output dir: %w", err)
	}

	page, err := d.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return stats, models.NewPipelineError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	defer page.Close()

	// The nav timeout only covers navigation and load; the combination loop
	// runs under the caller's context.
	navCtx, cancel := context.WithTimeout(ctx, d.captureCfg.NavTimeout)
	defer cancel()
	nav := page.Context(navCtx)
	if err := nav.Navigate(baseURL); err != nil {
		return stats, models.NewPipelineError(models.ErrCodeCapture, "navigation failed", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return stats, models.NewPipelineError(models.ErrCodeCapture, "page load failed", err)
	}
	time.Sleep(d.captureCfg.PageSettle)

	p := page.Context(ctx)

	// Control lookup and option enumeration share the nav deadline and use a
	// non-retrying sleeper: a control absent from the live DOM fails right
	// away instead of being polled for until it appears.
	lookup := p.Timeout(d.captureCfg.NavTimeout).Sleeper(rod.NotFoundSleeper)

	practiceEl, err := findControl(lookup, d.captureCfg.PracticeControl)
	if err != nil {
		return stats, err
	}
	countyEl, err := findControl(lookup, d.captureCfg.CountyControl)
	if err != nil {
		return stats, err
	}

	practices, err := optionValues(lookup, d.captureCfg.PracticeControl)
	if err != nil {
		return stats, err
	}
	counties, err := optionValues(lookup, d.captureCfg.CountyControl)
	if err != nil {
		return stats, err
	}

	// The combination loop runs under the caller's context, not the lookup
	// deadline.
	practiceEl = practiceEl.CancelTimeout()
	countyEl = countyEl.CancelTimeout()

	stats.Practices = len(practices)
	stats.Counties = len(counties)

	slog.Info("enumerated dropdown options",
		"practices", len(practices),
		"counties", len(counties),
		"combinations", len(practices)*len(counties),
	)

	runCombinations(practices, counties, d.captureCfg.OutputDir, comboOps{
		selectPractice: func(v string) error { return selectValue(practiceEl, v) },
		selectCounty:   func(v string) error { return selectValue(countyEl, v) },
		capture:        func(path string) error { return d.screenshot(p, path) },
		settle:         d.captureCfg.RenderSettle,
	}, &stats)

	slog.Info("capture complete", "attempted", stats.Attempted, "saved", stats.Saved)
	return stats, nil
}

// comboOps holds the per-combination page operations. Injected so the
// counting loop can be exercised without a browser.
type comboOps struct {
	selectPractice func(value string) error
	selectCounty   func(value string) error
	capture        func(path string) error
	settle         time.Duration
}

// runCombinations walks the full cross product. Every pair counts as
// attempted whether or not it produces a file: a failed practice selection
// skips its whole row (all of its pairs still count), a failed county
// selection or screenshot skips just that pair.
func runCombinations(practices, counties []string, outputDir string, ops comboOps, stats *Stats) {
	for _, practice := range practices {
		if err := ops.selectPractice(practice); err != nil {
			slog.Warn("practice selection failed, skipping row",
				"practice", practice, "counties", len(counties), "error", err)
			stats.Attempted += len(counties)
			continue
		}

		for _, county := range counties {
			stats.Attempted++

			if err := ops.selectCounty(county); err != nil {
				slog.Warn("county selection failed, skipping pair",
					"practice", practice, "county", county, "error", err)
				continue
			}

			// Give client-side chart rendering a moment.
			time.Sleep(ops.settle)

			path := filepath.Join(outputDir, Filename(practice, county))
			if err := ops.capture(path); err != nil {
				slog.Warn("screenshot failed, skipping pair",
					"practice", practice, "county", county, "path", path, "error", err)
				continue
			}

			stats.Saved++
			slog.Info("saved screenshot", "n", stats.Saved, "path", path)
		}
	}
}

// screenshot captures the full page (beyond the viewport) as PNG and writes
// it to path. The proto layer decodes the CDP base64 transport encoding.
func (d *Driver) screenshot(p *rod.Page, path string) error {
	shot, err := proto.PageCaptureScreenshot{
		Format:                proto.PageCaptureScreenshotFormatPng,
		CaptureBeyondViewport: true,
	}.Call(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, shot.Data, 0o644)
}

// findControl locates a single-select control by element ID. Absence is a
// fatal, user-visible error: the page does not match expectations.
func findControl(p *rod.Page, id string) (*rod.Element, error) {
	el, err := p.Element("#" + id)
	if err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeControlMissing,
			fmt.Sprintf("select element #%s not found; check the page and control IDs", id),
			err,
		)
	}
	return el, nil
}

// optionValues returns the value attribute of every option under the select
// with the given ID, in DOM order.
func optionValues(p *rod.Page, id string) ([]string, error) {
	res, err := p.Eval(`(id) => Array.from(document.getElementById(id).options).map(o => o.value)`, id)
	if err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeControlMissing,
			fmt.Sprintf("cannot enumerate options of #%s", id),
			err,
		)
	}

	return stringValues(res.Value.Arr()), nil
}

func stringValues(arr []gson.JSON) []string {
	values := make([]string, 0, len(arr))
	for _, v := range arr {
		values = append(values, v.Str())
	}
	return values
}

// selectValue selects the option with the given value attribute, firing the
// input/change events the page's chart code listens for.
func selectValue(el *rod.Element, value string) error {
	return el.Select(
		[]string{fmt.Sprintf(`option[value=%q]`, value)},
		true,
		rod.SelectorTypeCSSSector,
	)
}

// Filename builds the deterministic screenshot name for a combination,
// replacing filesystem-unsafe characters in either value.
func Filename(practice, county string) string {
	return sanitize(practice) + "_" + sanitize(county) + ".png"
}

func sanitize(v string) string {
	v = strings.ReplaceAll(v, "/", "-")
	v = strings.ReplaceAll(v, `\`, "-")
	return v
}
