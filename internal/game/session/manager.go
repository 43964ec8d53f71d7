package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Surface names the front-end a viewer is connected through.
type Surface string

// Known surfaces.
const (
	SurfaceWeb    Surface = "web"
	SurfaceTelnet Surface = "telnet"
)

// Viewer is one connected map viewer.
type Viewer struct {
	// ID is a random UUID assigned on connect.
	ID      string  `json:"id"`
	Surface Surface `json:"surface"`
	// Remote is the peer address, for logging and the who list.
	Remote      string    `json:"remote"`
	Source      string    `json:"source"`
	AreaID      string    `json:"area"`
	ConnectedAt time.Time `json:"connectedAt"`
	// Outbox carries pushed frames; nil for surfaces that render synchronously.
	Outbox *Outbox `json:"-"`
}

type areaKey struct {
	source string
	area   string
}

// Manager tracks all connected viewers and which area each is viewing.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	viewers  map[string]*Viewer           // id → viewer
	areaSets map[areaKey]map[string]bool  // (source, area) → set of IDs
	now      func() time.Time
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		viewers:  make(map[string]*Viewer),
		areaSets: make(map[areaKey]map[string]bool),
		now:      time.Now,
	}
}

// Add registers a new viewer looking at (source, area).
//
// Precondition: surface and source must be non-empty; outboxSize <= 0 means no outbox.
// Postcondition: Returns the created Viewer with a fresh UUID.
func (m *Manager) Add(surface Surface, remote, source, area string, outboxSize int) (*Viewer, error) {
	if surface == "" || source == "" {
		return nil, fmt.Errorf("viewer requires a surface and a source")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	if _, exists := m.viewers[id]; exists {
		return nil, fmt.Errorf("viewer %q already connected", id)
	}

	v := &Viewer{
		ID:          id,
		Surface:     surface,
		Remote:      remote,
		Source:      source,
		AreaID:      area,
		ConnectedAt: m.now(),
	}
	if outboxSize > 0 {
		v.Outbox = NewOutbox(id, outboxSize)
	}

	m.viewers[id] = v
	m.join(id, areaKey{source: source, area: area})
	return v, nil
}

// Remove unregisters a viewer and closes its outbox.
//
// Postcondition: The viewer is removed from all tracking. Returns an error if not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, exists := m.viewers[id]
	if !exists {
		return fmt.Errorf("viewer %q not found", id)
	}

	m.leave(id, areaKey{source: v.Source, area: v.AreaID})
	if v.Outbox != nil {
		_ = v.Outbox.Close()
	}
	delete(m.viewers, id)
	return nil
}

// Move records that a viewer now looks at (source, area).
//
// Postcondition: Returns the previous area ID, or an error if the viewer is not found.
func (m *Manager) Move(id, source, area string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, exists := m.viewers[id]
	if !exists {
		return "", fmt.Errorf("viewer %q not found", id)
	}

	old := v.AreaID
	m.leave(id, areaKey{source: v.Source, area: v.AreaID})
	v.Source = source
	v.AreaID = area
	m.join(id, areaKey{source: source, area: area})
	return old, nil
}

func (m *Manager) join(id string, key areaKey) {
	if m.areaSets[key] == nil {
		m.areaSets[key] = make(map[string]bool)
	}
	m.areaSets[key][id] = true
}

func (m *Manager) leave(id string, key areaKey) {
	if set, ok := m.areaSets[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m.areaSets, key)
		}
	}
}

// ViewersInArea returns the IDs of all viewers looking at (source, area), sorted.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (m *Manager) ViewersInArea(source, area string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.areaSets[areaKey{source: source, area: area}]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns a copy of the viewer with the given ID.
//
// Postcondition: Returns (viewer, true) if found, or (Viewer{}, false) otherwise.
func (m *Manager) Get(id string) (Viewer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.viewers[id]
	if !ok {
		return Viewer{}, false
	}
	return *v, true
}

// List returns copies of all viewers ordered by connect time, then ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (m *Manager) List() []Viewer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Viewer, 0, len(m.viewers))
	for _, v := range m.viewers {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectedAt.Before(out[j].ConnectedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of connected viewers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.viewers)
}
