// Package main provides a local terminal map viewer. It loads the configured
// map sources and browses them with single key presses in raw terminal mode.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/frontend/telnet"
	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
	"github.com/cory-johannsen/mudmap/internal/observability"
	"github.com/cory-johannsen/mudmap/internal/render/ansi"
)

const (
	defaultCols = 80
	defaultRows = 24
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mapview: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	source := flag.String("source", "", "map source to open (default from config)")
	anchor := flag.String("area", "", "area to open, as an ID or #ID (default from config)")
	colors := flag.Bool("colors", true, "color the map")
	logPath := flag.String("log", "mapview.log", "log file; the terminal is used for drawing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Logging.Output = *logPath

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	sources, err := world.SourcesFromConfig(cfg.Maps)
	if err != nil {
		return err
	}
	store := world.NewStore(observability.Component(logger, "store"))
	if err := store.LoadAll(context.Background(), sources); err != nil {
		return err
	}

	defaults := view.Defaults{Source: cfg.Maps.DefaultSource, AreaID: cfg.Maps.DefaultArea}
	if *source != "" {
		defaults.Source = *source
	}
	session, err := view.NewSession(
		store,
		world.NewPreparer(observability.Component(logger, "preparer")),
		scene.NewBuilder(scene.PolicyFromConfig(cfg.Render), observability.Component(logger, "scene")),
		observability.Component(logger, "view"),
		view.Initial(*anchor, defaults),
	)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("standard input is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Print(telnet.CursorHome + telnet.ClearScreen)
	}()

	v := &viewer{
		session:  session,
		renderer: ansi.New(*colors),
		out:      os.Stdout,
		size:     terminalSize,
		logger:   logger,
	}
	logger.Info("viewer started", zap.String("source", defaults.Source), zap.String("area", session.State().AreaID))
	return v.run(bufio.NewReader(os.Stdin))
}

// terminalSize returns the size of standard output, or 80×24 when unknown.
func terminalSize() (cols, rows int) {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return defaultCols, defaultRows
	}
	return cols, rows
}
