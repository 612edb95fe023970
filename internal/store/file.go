package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

// ExportJSON writes the table document to path, creating parent directories.
func ExportJSON(path string, t *strategy.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(t.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ImportJSON reads a table document written by ExportJSON.
func ImportJSON(path string) (*strategy.Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrMissingTable, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc strategy.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return strategy.FromDocument(doc)
}
