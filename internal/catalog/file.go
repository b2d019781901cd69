package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mohammed-shakir/lkw-route-density/internal/core/model"
)

// File reads a JSON array of Raw rows on every call, so edits show up without
// a restart.
type File struct {
	path string
	log  *slog.Logger
}

func NewFile(path string, log *slog.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("routes file path is required")
	}
	return &File{path: path, log: log}, nil
}

func (f *File) Routes(_ context.Context) ([]model.RouteRecord, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read routes file %q: %w", f.path, err)
	}
	var rows []Raw
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parse routes file %q: %w", f.path, err)
	}
	return Normalize("file", rows, f.log), nil
}
