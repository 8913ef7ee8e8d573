package pricefeed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alejandrodnm/lphedge/internal/domain"
)

// File implementa ports.PriceSource leyendo un fichero local.
type File struct {
	Path string
}

// NewFile crea una fuente de precios sobre path (.csv o .json).
func NewFile(path string) *File {
	return &File{Path: path}
}

// Load lee el fichero completo. La ventana temporal la aplica el motor.
func (f *File) Load(ctx context.Context) (domain.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(f.Path)
}

// Load elige el parser por extensión: .json → ParseJSON, resto → CSV.
func Load(path string) (domain.PriceSeries, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("pricefeed.Load: read %q: %w", path, err)
		}
		series, err := ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("pricefeed.Load: %q: %w", path, err)
		}
		logLoaded(path, series)
		return series, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pricefeed.Load: open %q: %w", path, err)
	}
	defer fh.Close()

	series, err := ReadCSV(fh)
	if err != nil {
		return nil, fmt.Errorf("pricefeed.Load: %q: %w", path, err)
	}
	logLoaded(path, series)
	return series, nil
}

func logLoaded(path string, s domain.PriceSeries) {
	slog.Debug("price series loaded",
		"path", path,
		"points", len(s),
		"from", s.First().Timestamp,
		"to", s.Last().Timestamp,
	)
}
