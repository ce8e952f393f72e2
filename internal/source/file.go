// ABOUTME: File-backed raw record source for offline runs and tests
// ABOUTME: Reads a JSON array of records and filters it by time window
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/docweave/docweave/internal/models"
)

// FileSource reads records from a JSON file. The channel argument selects a
// file under the configured directory, so exported chat dumps can be replayed
// through the same pipeline as live sources.
type FileSource struct {
	dir string
}

// NewFileSource creates a file source rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Fetch implements Source. The channel maps to <dir>/<channel>.json.
func (s *FileSource) Fetch(ctx context.Context, channel string, window TimeWindow) ([]models.RawRecord, error) {
	path := fmt.Sprintf("%s/%s.json", s.dir, channel)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file: %s: %w", path, ErrSourceUnavailable)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("file: %s: %w", path, ErrNotAuthorized)
		}
		return nil, fmt.Errorf("file: reading %s: %w", path, err)
	}

	var records []models.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("file: parsing %s: %w", path, err)
	}

	out := records[:0]
	for _, rec := range records {
		if rec.Timestamp.IsZero() || window.Contains(rec.Timestamp) {
			rec.Source = s.Name()
			out = append(out, rec)
		}
	}
	return out, nil
}
