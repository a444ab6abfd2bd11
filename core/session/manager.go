package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"whisperli/core/event"
	"whisperli/logger"
	"whisperli/model"
	"whisperli/repository"
)

var (
	ErrNothingToSave   = errors.New("no tracks to save")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidName     = errors.New("invalid session name")
)

// Manager saves and loads named sessions through a SessionStore.
type Manager struct {
	store repository.SessionStore
	bus   *event.Bus
}

// NewManager returns a manager over store. bus may be nil.
func NewManager(store repository.SessionStore, bus *event.Bus) *Manager {
	return &Manager{store: store, bus: bus}
}

// NormalizeName strips surrounding space and a trailing ".json" and rejects
// names that would escape the store (path separators, dot names).
func NormalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	n = strings.TrimSuffix(n, ".json")
	switch {
	case n == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(n, `/\`), strings.HasPrefix(n, "."):
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsRune(n, 0):
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return n, nil
}

// Save encodes states under name. An empty mix is refused.
func (m *Manager) Save(ctx context.Context, name string, states []model.TrackState, meta model.Metadata) (model.Session, error) {
	if len(states) == 0 {
		return model.Session{}, ErrNothingToSave
	}
	n, err := NormalizeName(name)
	if err != nil {
		return model.Session{}, err
	}
	s := Encode(states, meta, n)
	if err := m.Put(ctx, n, s); err != nil {
		return model.Session{}, err
	}
	logger.Info("session saved", logger.String("name", n), logger.Int("tracks", len(s.Tracks)))
	m.bus.Publish(event.Event{Kind: event.SessionSaved, Ref: n, Data: infoOf(n, s)})
	return s, nil
}

// Put stores an already built session under name, replacing any existing
// one.
func (m *Manager) Put(ctx context.Context, name string, s model.Session) error {
	n, err := NormalizeName(name)
	if err != nil {
		return err
	}
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := m.store.Write(ctx, n, data); err != nil {
		return fmt.Errorf("save session %s: %w", n, err)
	}
	return nil
}

// Load reads and decodes the session called name. It does not touch the
// mixer; callers apply the result with Mixer.Restore.
func (m *Manager) Load(ctx context.Context, name string) (model.Session, error) {
	s, n, err := m.read(ctx, name)
	if err != nil {
		return model.Session{}, err
	}
	m.bus.Publish(event.Event{Kind: event.SessionLoaded, Ref: n, Data: infoOf(n, s)})
	return s, nil
}

// Get reads the session called name without announcing a load.
func (m *Manager) Get(ctx context.Context, name string) (model.Session, error) {
	s, _, err := m.read(ctx, name)
	return s, err
}

func (m *Manager) read(ctx context.Context, name string) (model.Session, string, error) {
	n, err := NormalizeName(name)
	if err != nil {
		return model.Session{}, "", err
	}
	data, err := m.store.Read(ctx, n)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Session{}, n, fmt.Errorf("%w: %s", ErrSessionNotFound, n)
	}
	if err != nil {
		return model.Session{}, n, fmt.Errorf("load session %s: %w", n, err)
	}
	s, err := Decode(data)
	if err != nil {
		return model.Session{}, n, err
	}
	return s, n, nil
}

// List returns the stored session names, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	names, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return names, nil
}

// Delete removes the session and reports whether it existed.
func (m *Manager) Delete(ctx context.Context, name string) (bool, error) {
	n, err := NormalizeName(name)
	if err != nil {
		return false, err
	}
	ok, err := m.store.Delete(ctx, n)
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", n, err)
	}
	if ok {
		logger.Info("session deleted", logger.String("name", n))
	}
	return ok, nil
}

// Info summarizes a stored session without applying it.
func (m *Manager) Info(ctx context.Context, name string) (model.SessionInfo, error) {
	s, n, err := m.read(ctx, name)
	if err != nil {
		return model.SessionInfo{}, err
	}
	return infoOf(n, s), nil
}

func infoOf(name string, s model.Session) model.SessionInfo {
	display := s.Metadata.Name
	if display == "" {
		display = name
	}
	return model.SessionInfo{Name: display, TrackCount: len(s.Tracks), Metadata: s.Metadata}
}
