// Package main applies the bookmark schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/observability"
)

// migrateLogger routes golang-migrate progress into zap.
type migrateLogger struct {
	sugar   *zap.SugaredLogger
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.sugar.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool { return l.verbose }

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("path", "migrations", "directory holding the migration files")
	command := flag.String("direction", "up", "up, down, version or force")
	steps := flag.Int("steps", 0, "steps to move for up/down (0 = all); version to set for force")
	verbose := flag.Bool("verbose", false, "log every migration step")
	flag.Parse()

	logger, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := loadDatabase(*configPath)
	if err != nil {
		logger.Fatal("loading configuration", zap.String("path", *configPath), zap.Error(err))
	}

	m, err := migrate.New("file://"+*dir, db.DSN())
	if err != nil {
		logger.Fatal("opening migrations", zap.String("path", *dir), zap.Error(err))
	}
	defer m.Close()
	m.Log = migrateLogger{sugar: logger.Sugar(), verbose: *verbose}

	began := time.Now()
	switch *command {
	case "up":
		err = move(m, *steps, m.Up)
	case "down":
		err = move(m, -*steps, m.Down)
	case "force":
		err = m.Force(*steps)
	case "version":
	default:
		logger.Fatal("unknown direction", zap.String("direction", *command),
			zap.Strings("supported", []string{"up", "down", "version", "force"}))
	}
	unchanged := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !unchanged {
		logger.Fatal("migration failed", zap.String("direction", *command), zap.Error(err))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Fatal("reading schema version", zap.Error(err))
	}
	logger.Info("schema",
		zap.String("direction", *command),
		zap.Bool("changed", *command != "version" && !unchanged),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Duration("elapsed", time.Since(began)),
	)
}

// move applies n steps, or all when n is zero.
func move(m *migrate.Migrate, n int, all func() error) error {
	if n != 0 {
		return m.Steps(n)
	}
	return all()
}

// loadDatabase reads only the database section, so the rest of the file is
// neither required nor validated.
func loadDatabase(path string) (config.DatabaseConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MUDMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	config.SetDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return config.DatabaseConfig{}, err
	}
	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return config.DatabaseConfig{}, err
	}
	return cfg.Database, nil
}
