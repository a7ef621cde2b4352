// Package flatten turns the insight ledger into a CSV keyed by county.
package flatten

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/chartvoice/chartvoice/models"
)

// header is the fixed CSV column order.
var header = []string{"county_fips", "county_name", "indicator", "question", "answer"}

// rawDocument defers per-key decoding so one malformed value (e.g. a string
// where a list belongs) skips that key instead of failing the whole run.
type rawDocument map[string]json.RawMessage

// Row is one flattened question/answer record.
type Row struct {
	FIPS      string
	County    string
	Indicator string
	Question  string
	Answer    string
}

// Stats summarises a flatten run.
type Stats struct {
	Keys    int
	Skipped int // malformed keys and non-list values
	Rows    int
	Written bool
}

// load reads and parses the ledger. An absent or unparsable document is
// fatal here, unlike in the extract stage: there is nothing to flatten.
func load(path string) (rawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeInvalidInput,
			"cannot read insight document "+path,
			err,
		)
	}
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, models.NewPipelineError(
			models.ErrCodeInvalidInput,
			"cannot decode insight document "+path,
			err,
		)
	}
	return doc, nil
}

// buildRows flattens the document in sorted key order. Keys split on the LAST
// underscore so indicator names containing underscores keep working. A key
// with no underscore, or a value that is not a QA list, is skipped with a
// warning; a QA record missing a field yields an empty cell.
func buildRows(doc rawDocument) ([]Row, Stats) {
	stats := Stats{Keys: len(doc)}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []Row
	for _, key := range keys {
		idx := strings.LastIndex(key, "_")
		if idx < 0 {
			slog.Warn("skipping malformed key (no underscore)", "key", key)
			stats.Skipped++
			continue
		}
		indicator, fips := key[:idx], key[idx+1:]
		county := CountyName(fips)

		var qaList []models.QA
		if err := json.Unmarshal(doc[key], &qaList); err != nil {
			slog.Warn("skipping key with non-list value", "key", key, "error", err)
			stats.Skipped++
			continue
		}

		for _, qa := range qaList {
			rows = append(rows, Row{
				FIPS:      fips,
				County:    county,
				Indicator: indicator,
				Question:  qa.Question,
				Answer:    qa.Answer,
			})
		}
	}
	stats.Rows = len(rows)
	return rows, stats
}

// WriteCSV writes the header plus rows to path as UTF-8 comma-delimited CSV.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return models.NewPipelineError(models.ErrCodeInvalidInput, "cannot create "+path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.FIPS, r.County, r.Indicator, r.Question, r.Answer}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// Run loads the ledger at inPath and regenerates the CSV at outPath. When
// zero rows result, no file is written: a headerless or header-only artifact
// would only confuse downstream consumers.
func Run(inPath, outPath string) ([]Row, Stats, error) {
	doc, err := load(inPath)
	if err != nil {
		return nil, Stats{}, err
	}

	rows, stats := buildRows(doc)
	if len(rows) == 0 {
		slog.Info("no rows produced, skipping CSV write", "keys", stats.Keys, "skipped", stats.Skipped)
		return rows, stats, nil
	}

	if err := WriteCSV(outPath, rows); err != nil {
		return rows, stats, err
	}
	stats.Written = true
	slog.Info("CSV written", "path", outPath, "rows", stats.Rows)
	return rows, stats, nil
}
