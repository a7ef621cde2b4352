package insights

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"golang.org/x/time/rate"

	"github.com/chartvoice/chartvoice/config"
	"github.com/chartvoice/chartvoice/models"
)

// Stats summarises an extract run.
type Stats struct {
	Found     int // PNG files discovered
	Skipped   int // stems already in the ledger
	Extracted int // images with insights recorded this run
	Failed    int // images recorded with an empty list after retries
}

// Extractor walks the screenshot directory and fills the ledger, one serial
// generation request at a time.
type Extractor struct {
	gen     Generator
	ledger  *Ledger
	dir     string
	retry   retryPolicy
	limiter *rate.Limiter

	// ShowProgress renders a terminal progress tracker; off in tests.
	ShowProgress bool
}

// NewExtractor wires a Generator and an open Ledger to the screenshot dir.
func NewExtractor(gen Generator, ledger *Ledger, cfg config.ExtractConfig) *Extractor {
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	return &Extractor{
		gen:    gen,
		ledger: ledger,
		dir:    cfg.ScreenshotDir,
		retry: retryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run processes every new screenshot and saves the ledger once at the end.
// A permanent per-image failure records an empty list so the image is never
// retried in future runs; it does not fail the run. An auth failure aborts:
// every remaining image would fail the same way.
func (e *Extractor) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	paths, err := filepath.Glob(filepath.Join(e.dir, "*.png"))
	if err != nil {
		return stats, fmt.Errorf("scan %s: %w", e.dir, err)
	}
	sort.Strings(paths)
	stats.Found = len(paths)

	if len(paths) == 0 {
		slog.Info("no screenshots to process", "dir", e.dir)
		return stats, nil
	}
	slog.Info("processing screenshots", "dir", e.dir, "count", len(paths))

	var tracker *progress.Tracker
	if e.ShowProgress {
		pw := progress.NewWriter()
		pw.SetTrackerPosition(progress.PositionRight)
		go pw.Render()
		defer pw.Stop()

		tracker = &progress.Tracker{Message: "extracting insights", Total: int64(len(paths))}
		pw.AppendTracker(tracker)
	}

	for _, path := range paths {
		stem := strings.TrimSuffix(filepath.Base(path), ".png")

		if e.ledger.Has(stem) {
			stats.Skipped++
			if tracker != nil {
				tracker.Increment(1)
			}
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		png, err := os.ReadFile(path)
		if err != nil {
			// Leave the stem unkeyed so a repaired file is picked up next run.
			slog.Warn("cannot read screenshot, skipping", "path", path, "error", err)
			if tracker != nil {
				tracker.Increment(1)
			}
			continue
		}

		qa, err := e.retry.do(ctx, func(ctx context.Context) ([]models.QA, error) {
			return e.gen.Generate(ctx, png)
		})
		switch {
		case err == nil:
			e.ledger.Put(stem, qa)
			stats.Extracted++
			slog.Info("extracted insights", "stem", stem, "pairs", len(qa))
		case models.ErrorCode(err) == models.ErrCodeLLMAuthFailure:
			return stats, err
		case ctx.Err() != nil:
			return stats, ctx.Err()
		default:
			e.ledger.Put(stem, []models.QA{})
			stats.Failed++
			slog.Warn("recorded permanent failure", "stem", stem, "error", err)
		}

		if tracker != nil {
			tracker.Increment(1)
		}
	}

	if tracker != nil {
		tracker.MarkAsDone()
		// let the renderer paint the final state
		time.Sleep(progress.DefaultUpdateFrequency)
	}

	if err := e.ledger.Save(); err != nil {
		return stats, err
	}

	slog.Info("extract complete",
		"found", stats.Found,
		"skipped", stats.Skipped,
		"extracted", stats.Extracted,
		"failed", stats.Failed,
	)
	return stats, nil
}
