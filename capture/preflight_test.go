package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chartvoice/chartvoice/models"
)

const testPage = `<!doctype html>
<html><body>
<select id="practice-select"><option value="CornYield">Corn</option></select>
<select id="fips-select"><option value="24001">Allegany</option></select>
<div id="chart"></div>
</body></html>`

func writeIndex(t *testing.T, html string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(html), 0o644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}
	return dir
}

func TestPreflight_ControlsPresent(t *testing.T) {
	t.Parallel()

	dir := writeIndex(t, testPage)
	if err := Preflight(dir, "practice-select", "fips-select"); err != nil {
		t.Fatalf("Preflight: %v", err)
	}
}

func TestPreflight_MissingControl(t *testing.T) {
	t.Parallel()

	dir := writeIndex(t, testPage)
	err := Preflight(dir, "practice-select", "county-select")
	if err == nil {
		t.Fatal("missing control should fail preflight")
	}
	if got := models.ErrorCode(err); got != models.ErrCodeControlMissing {
		t.Fatalf("code=%q, want %q", got, models.ErrCodeControlMissing)
	}
}

func TestPreflight_WrongElementKind(t *testing.T) {
	t.Parallel()

	// The ID exists but on a div, not a select control.
	dir := writeIndex(t, `<html><body><div id="practice-select"></div>
<select id="fips-select"></select></body></html>`)
	err := Preflight(dir, "practice-select", "fips-select")
	if err == nil {
		t.Fatal("non-select element should fail preflight")
	}
}

func TestPreflight_MissingIndex(t *testing.T) {
	t.Parallel()

	err := Preflight(t.TempDir(), "practice-select", "fips-select")
	if err == nil {
		t.Fatal("missing index.html should fail preflight")
	}
	if got := models.ErrorCode(err); got != models.ErrCodeInvalidInput {
		t.Fatalf("code=%q, want %q", got, models.ErrCodeInvalidInput)
	}
}
