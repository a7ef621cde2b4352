package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/chartvoice/chartvoice/models"
)

// Ledger is the persistent insight mapping. It is both the stage's output
// and its work-queue filter: a stem present as a key (even with an empty
// list) is never sent to the model again.
type Ledger struct {
	path string
	doc  models.Document
	lock *flock.Flock
}

// Open acquires the ledger lock and loads the document at path. An absent
// file yields an empty ledger; an unparsable one is discarded with a warning
// rather than aborting the run.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeLedger, "cannot create ledger dir", err)
	}

	lock := flock.New(path + ".lock")
	held, err := lock.TryLock()
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeLedger, "cannot acquire ledger lock", err)
	}
	if !held {
		return nil, models.NewPipelineError(
			models.ErrCodeLedger,
			fmt.Sprintf("ledger %s is locked; another extract run is active", path),
			nil,
		)
	}

	l := &Ledger{path: path, doc: models.Document{}, lock: lock}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// first run
	case err != nil:
		_ = lock.Unlock()
		return nil, models.NewPipelineError(models.ErrCodeLedger, "cannot read ledger", err)
	default:
		if err := json.Unmarshal(data, &l.doc); err != nil {
			slog.Warn("existing ledger is unparsable, starting fresh", "path", path, "error", err)
			l.doc = models.Document{}
		} else {
			slog.Info("loaded existing ledger", "path", path, "keys", len(l.doc))
		}
	}

	return l, nil
}

// Has reports whether the stem was already attempted, successfully or not.
func (l *Ledger) Has(stem string) bool {
	_, ok := l.doc[stem]
	return ok
}

// Put records the insights for a stem. Record an empty (non-nil) slice to
// mark a permanently failed image as done.
func (l *Ledger) Put(stem string, insights []models.QA) {
	l.doc[stem] = insights
}

// Len returns the number of recorded stems.
func (l *Ledger) Len() int {
	return len(l.doc)
}

// Save writes the whole document, indented for human readability. It runs
// once per extract run, after all images are processed.
func (l *Ledger) Save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return models.NewPipelineError(models.ErrCodeLedger, "cannot create ledger dir", err)
	}
	data, err := json.MarshalIndent(l.doc, "", "  ")
	if err != nil {
		return models.NewPipelineError(models.ErrCodeLedger, "cannot encode ledger", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return models.NewPipelineError(models.ErrCodeLedger, "cannot write ledger", err)
	}
	slog.Info("ledger saved", "path", l.path, "keys", len(l.doc))
	return nil
}

// Close releases the ledger lock.
func (l *Ledger) Close() error {
	return l.lock.Unlock()
}
