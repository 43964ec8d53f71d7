// Package importer converts content from other MUD asset layouts into map
// datasets the viewer can load.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mudmap/internal/game/world"
)

// Importer orchestrates content import from a Source to a dataset file.
type Importer struct {
	source    Source
	firstArea int
	logger    *zap.Logger
}

// New constructs an Importer backed by the given Source. Areas are numbered
// from firstArea; values below 1 mean 1.
//
// Precondition: source and logger must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, firstArea int, logger *zap.Logger) *Importer {
	return &Importer{source: source, firstArea: max(firstArea, 1), logger: logger}
}

// Run loads zones from sourceDir, lays them out, validates the dataset by
// loading and preparing every area, and writes it as YAML to outputPath.
//
// Precondition: sourceDir must satisfy the source's layout requirements; the
// directory of outputPath must exist or be creatable.
// Postcondition: one dataset file is written to outputPath, or an error is
// returned and nothing is written.
func (imp *Importer) Run(sourceDir, outputPath, startRoom string) error {
	overall := time.Now()

	zones, warnings, err := imp.source.Load(sourceDir, startRoom)
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	imp.logger.Info("source loaded",
		zap.String("dir", sourceDir),
		zap.Int("zones", len(zones)),
		zap.Duration("elapsed", time.Since(overall)),
	)

	doc, layoutWarnings := BuildDocument(zones, imp.firstArea)
	for _, w := range append(warnings, layoutWarnings...) {
		imp.logger.Warn(w)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serialising dataset: %w", err)
	}

	// The output must load and prepare before it is written.
	name := filepath.Base(outputPath)
	ds, stats, err := world.LoadDatasetFromBytes(name, data, world.FormatYAML)
	if err != nil {
		return fmt.Errorf("dataset failed validation: %w", err)
	}
	if stats.DroppedExits > 0 {
		return fmt.Errorf("dataset failed validation: %d exits dropped", stats.DroppedExits)
	}
	preparer := world.NewPreparer(imp.logger)
	for id := range ds.Areas {
		if _, err := preparer.Prepare(ds, id, world.Embedded); err != nil {
			return fmt.Errorf("area %s failed validation: %w", id, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", outputPath, err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing dataset to %s: %w", outputPath, err)
	}

	rooms := 0
	for _, a := range doc.Areas {
		rooms += len(a.Rooms)
	}
	imp.logger.Info("dataset written",
		zap.String("path", outputPath),
		zap.Int("areas", len(doc.Areas)),
		zap.Int("rooms", rooms),
		zap.Int("warnings", len(warnings)+len(layoutWarnings)),
		zap.Duration("total", time.Since(overall)),
	)
	return nil
}
