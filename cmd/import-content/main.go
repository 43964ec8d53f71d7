// Package main converts MUD content from another asset layout into a map
// dataset that can be listed under maps.sources.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/importer"
	"github.com/cory-johannsen/mudmap/internal/importer/gomud"
	"github.com/cory-johannsen/mudmap/internal/observability"
)

func main() {
	format := flag.String("format", "", "source format: gomud")
	sourceDir := flag.String("source", "", "path to source asset directory")
	output := flag.String("output", "", "path of the dataset file to write (.yaml)")
	startRoom := flag.String("start-room", "", "optional display-name override for each zone's start room")
	firstArea := flag.Int("first-area", 1, "ID of the first area written")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *format == "" || *sourceDir == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: import-content -format <fmt> -source <dir> -output <file> [-start-room <name>] [-first-area <n>]")
		os.Exit(1)
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: *logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var src importer.Source
	switch *format {
	case "gomud":
		src = gomud.NewSource()
	default:
		logger.Fatal("unknown format", zap.String("format", *format), zap.Strings("supported", []string{"gomud"}))
	}

	start := time.Now()
	if err := importer.New(src, *firstArea, logger).Run(*sourceDir, *output, *startRoom); err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	logger.Info("import complete", zap.Duration("elapsed", time.Since(start)))
}
