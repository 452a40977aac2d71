package dataservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
)

// LoadRouteFile reads a saved route proxy response.
func LoadRouteFile(path string) (domain.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Route{}, fmt.Errorf("read route file: %w", err)
	}
	return domain.ParseRoutePayload(data)
}

// LoadHazardDir reads saved hazard collections from dir, one file per source
// named "<tag>.json". Missing files are skipped.
func LoadHazardDir(dir string, logger *slog.Logger) ([]domain.RawDataset, error) {
	var out []domain.RawDataset
	for _, src := range HazardSources {
		path := filepath.Join(dir, src.Tag+".json")
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("hazard file not found, skipping", "source", src.Tag, "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read hazard file %s: %w", path, err)
		}
		out = append(out, domain.RawDataset{
			Tag:          src.Tag,
			Kind:         src.Kind,
			DefaultLabel: src.DefaultLabel,
			Payload:      json.RawMessage(data),
		})
	}
	return out, nil
}
