//go:build ignore

package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type seedProduct struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	ImageURL    string `yaml:"image_url,omitempty"`
}

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

// generateSampleCatalog writes sample seed files for local development.
// clubs.yaml is plain YAML; short-game.yaml.gz is gzip-compressed.
// Two drivers share a name so the import exercises slug suffixes.
func main() {
	dataDir := "data/catalog"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	files := map[string][]seedProduct{
		"clubs.yaml": {
			{ID: "DRV-001", Name: "Tour Driver", Price: "399.99", Category: "driver", Description: "Low spin 9.5 degree head"},
			{ID: "DRV-002", Name: "Tour Driver", Price: "429.00", Category: "driver", Description: "Adjustable 10.5 degree head"},
			{ID: "WOD-001", Name: "3 Wood", Price: "249.00", Category: "wood"},
			{ID: "HYB-001", Name: "4 Hybrid", Price: "219.00", Category: "hybrid"},
			{ID: "IRN-001", Name: "Forged Irons 4-PW", Price: "1099.00", Category: "iron"},
			{ID: "IRN-002", Name: "Cavity Back Irons 5-PW", Price: "799.00", Category: "iron"},
		},
		"short-game.yaml.gz": {
			{ID: "WDG-001", Name: "Sand Wedge 56", Price: "159.00", Category: "wedge"},
			{ID: "WDG-002", Name: "Lob Wedge 60", Price: "159.00", Category: "wedge"},
			{ID: "PUT-001", Name: "Blade Putter", Price: "349.00", Category: "putter"},
			{ID: "PUT-002", Name: "Mallet Putter", Price: "379.00", Category: "putter"},
		},
	}

	for filename, products := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := createSeedFile(filePath, products); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d products\n", filePath, len(products))
	}

	fmt.Println("\nImport with:")
	fmt.Printf("  storectl catalog import %s %s\n",
		filepath.Join(dataDir, "clubs.yaml"), filepath.Join(dataDir, "short-game.yaml.gz"))
}

func createSeedFile(filePath string, products []seedProduct) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	var w io.Writer = file
	if strings.HasSuffix(filePath, ".gz") {
		gzipWriter := gzip.NewWriter(file)
		defer gzipWriter.Close()
		w = gzipWriter
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seedFile{Products: products}); err != nil {
		return fmt.Errorf("failed to write products: %w", err)
	}
	return enc.Close()
}
