package catalog

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"pharmago/internal/model"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Loader reads a pharmacy listing from some source.
type Loader interface {
	// Load reads the listing stored at path. Paths ending in .gz are gunzipped.
	Load(ctx context.Context, path string) ([]model.Pharmacy, error)
}

// listingFile is the on-disk shape of a catalogue file.
type listingFile struct {
	Pharmacies []model.Pharmacy `yaml:"pharmacies"`
}

// fileLoader implements Loader for local catalogue files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a YAML catalogue file, optionally gzipped.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Pharmacy, error) {
	l.logger.Info().Str("file", path).Msg("loading catalogue file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalogue file")
		return nil, fmt.Errorf("failed to open catalogue file %s: %w", path, err)
	}
	defer file.Close()

	pharmacies, err := decodeListing(ctx, file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to decode catalogue file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("pharmacies_loaded", len(pharmacies)).
		Msg("catalogue file loaded successfully")

	return pharmacies, nil
}

// decodeListing parses a catalogue stream and normalises every medicine.
func decodeListing(ctx context.Context, r io.Reader, name string) ([]model.Pharmacy, error) {
	if strings.HasSuffix(name, ".gz") {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var listing listingFile
	if err := yaml.NewDecoder(r).Decode(&listing); err != nil {
		if err == io.EOF {
			return []model.Pharmacy{}, nil
		}
		return nil, fmt.Errorf("failed to parse catalogue %s: %w", name, err)
	}

	seen := make(map[string]bool, len(listing.Pharmacies))
	for i := range listing.Pharmacies {
		p := &listing.Pharmacies[i]
		if p.ID == "" {
			return nil, fmt.Errorf("catalogue %s: pharmacy %d has no id", name, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("catalogue %s: duplicate pharmacy id %q", name, p.ID)
		}
		seen[p.ID] = true

		for j := range p.Medicines {
			m := &p.Medicines[j]
			if m.ID == "" {
				m.ID = fmt.Sprintf("%s-%d", p.ID, j+1)
			}
			m.Available = m.Stock > 0
		}
	}

	return listing.Pharmacies, nil
}
