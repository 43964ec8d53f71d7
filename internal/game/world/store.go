package world

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/mudmap/internal/config"
)

// Source describes one named dataset document.
type Source struct {
	// Name keys the dataset in the Store.
	Name string
	// Path is the JSON or YAML document on disk.
	Path string
	// Rooms selects the room resolution strategy for the dataset's areas.
	Rooms RoomSource
}

// SourcesFromConfig converts the configured map sources.
//
// Postcondition: Returns an error naming the first source with an unknown room strategy.
func SourcesFromConfig(cfg config.MapsConfig) ([]Source, error) {
	sources := make([]Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		rooms, ok := ParseRoomSource(sc.Rooms)
		if !ok {
			return nil, fmt.Errorf("map source %q: unknown room strategy %q", sc.Name, sc.Rooms)
		}
		sources = append(sources, Source{Name: sc.Name, Path: sc.Path, Rooms: rooms})
	}
	return sources, nil
}

type storedDataset struct {
	dataset *Dataset
	rooms   RoomSource
}

// Store holds the loaded datasets keyed by source name. Datasets are
// read-only after loading; the Store only guards its index.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]storedDataset
	logger   *zap.Logger
}

// NewStore creates an empty Store.
//
// Precondition: logger must be non-nil.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		datasets: make(map[string]storedDataset),
		logger:   logger,
	}
}

// Load reads one dataset document and registers it under src.Name.
//
// Precondition: src.Name must be non-empty.
// Postcondition: Returns the loaded Dataset, or a *LoadError when the document
// is missing or malformed.
func (s *Store) Load(ctx context.Context, src Source) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: src.Name, Path: src.Path, Err: err}
	}
	start := time.Now()

	ds, stats, err := LoadDatasetFromFile(src.Name, src.Path)
	if err != nil {
		return nil, err
	}
	if stats.DroppedExits > 0 {
		s.logger.Warn("dropped exits without a name or direction",
			zap.String("source", src.Name),
			zap.Int("count", stats.DroppedExits),
		)
	}

	s.Add(src.Name, ds, src.Rooms)
	s.logger.Info("map source loaded",
		zap.String("source", src.Name),
		zap.String("path", src.Path),
		zap.String("rooms", src.Rooms.String()),
		zap.Int("areas", len(ds.Areas)),
		zap.Int("environments", len(ds.Environments)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ds, nil
}

// LoadAll loads every source concurrently. Each load is independent; the
// first failure cancels the rest and is returned.
//
// Postcondition: Returns nil only if every source loaded.
func (s *Store) LoadAll(ctx context.Context, sources []Source) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			_, err := s.Load(gctx, src)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading map sources: %w", err)
	}
	return nil
}

// Add registers an already-decoded dataset, replacing any previous one of the same name.
//
// Precondition: ds must be non-nil.
func (s *Store) Add(name string, ds *Dataset, rooms RoomSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[name] = storedDataset{dataset: ds, rooms: rooms}
}

// Dataset returns the dataset registered under name and its room strategy.
//
// Postcondition: Returns (dataset, strategy, true) if found, or (nil, Embedded, false).
func (s *Store) Dataset(name string) (*Dataset, RoomSource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sd, ok := s.datasets[name]
	if !ok {
		return nil, Embedded, false
	}
	return sd.dataset, sd.rooms, true
}

// Sources returns the registered source names in ascending order.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (s *Store) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
