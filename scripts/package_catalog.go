//go:build ignore

// package_catalog validates a catalogue YAML file and writes the gzipped copy
// that is uploaded under S3_PREFIX.
//
//	go run scripts/package_catalog.go -in data/catalog/pharmacies.yaml -out data/catalog/pharmacies.yaml.gz
package main

import (
	"compress/gzip"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"pharmago/internal/catalog"
	"pharmago/internal/model"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type listing struct {
	Pharmacies []model.Pharmacy `yaml:"pharmacies"`
}

func main() {
	in := flag.String("in", "data/catalog/pharmacies.yaml", "catalogue file to package")
	out := flag.String("out", "data/catalog/pharmacies.yaml.gz", "gzipped output file")
	flag.Parse()

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	// Loading through the catalogue loader rejects anything the server would.
	pharmacies, err := catalog.NewFileLoader(logger).Load(context.Background(), *in)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *in, err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	if err := writeGzipped(*out, listing{Pharmacies: pharmacies}); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	medicines := 0
	for _, p := range pharmacies {
		medicines += len(p.Medicines)
	}
	fmt.Printf("Packaged %d pharmacies (%d medicines) into %s\n", len(pharmacies), medicines, *out)
}

func writeGzipped(path string, l listing) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := yaml.NewEncoder(gzipWriter)
	encoder.SetIndent(2)
	if err := encoder.Encode(l); err != nil {
		return fmt.Errorf("failed to encode catalogue: %w", err)
	}
	return encoder.Close()
}
