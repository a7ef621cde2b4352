package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"

	"github.com/chartvoice/chartvoice/models"
)

// Preflight parses the site's index page and verifies both select controls
// exist before any server or browser work starts. It catches renamed IDs
// without burning a browser launch.
func Preflight(siteDir string, controlIDs ...string) error {
	indexPath := filepath.Join(siteDir, "index.html")
	f, err := os.Open(indexPath)
	if err != nil {
		return models.NewPipelineError(
			models.ErrCodeInvalidInput,
			fmt.Sprintf("cannot open %s", indexPath),
			err,
		)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return models.NewPipelineError(
			models.ErrCodeInvalidInput,
			fmt.Sprintf("cannot parse %s", indexPath),
			err,
		)
	}

	for _, id := range controlIDs {
		if doc.Find("select#" + id).Length() == 0 {
			return models.NewPipelineError(
				models.ErrCodeControlMissing,
				fmt.Sprintf("no <select id=%q> in %s; check the control IDs in your config", id, indexPath),
				nil,
			)
		}
	}
	return nil
}
