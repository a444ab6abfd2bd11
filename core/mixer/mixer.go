// Package mixer holds the live set of tracks and their automation.
package mixer

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"whisperli/core/event"
	"whisperli/core/playback"
	"whisperli/core/scheduler"
	"whisperli/logger"
	"whisperli/model"
)

var (
	ErrDuplicateTrack = errors.New("track already in mixer")
	ErrAssetMissing   = errors.New("sound file not found")
	ErrTrackNotFound  = errors.New("track not in mixer")
)

// AssetResolver reports whether a sound reference can be played.
type AssetResolver interface {
	Exists(ref string) bool
}

// Status is a track snapshot plus its live playing flag.
type Status struct {
	model.TrackState
	Playing bool `json:"playing"`
}

// RestoreReport counts the outcome of Restore.
type RestoreReport struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// Mixer is the ordered set of live tracks. Like Track it is owned by the
// scheduler loop; hosts reach it through Loop.Do.
type Mixer struct {
	sched   *scheduler.Scheduler
	backend playback.Backend
	assets  AssetResolver
	bus     *event.Bus
	rng     Rand

	tracks []*Track
	index  map[string]*Track
}

type Option func(*Mixer)

// WithRand overrides the source used for random playback intervals.
func WithRand(r Rand) Option {
	return func(m *Mixer) { m.rng = r }
}

// WithBus publishes mixer events to bus.
func WithBus(bus *event.Bus) Option {
	return func(m *Mixer) { m.bus = bus }
}

// New creates an empty mixer. assets may be nil, in which case every
// reference is accepted.
func New(sched *scheduler.Scheduler, backend playback.Backend, assets AssetResolver, opts ...Option) *Mixer {
	m := &Mixer{
		sched:   sched,
		backend: backend,
		assets:  assets,
		index:   make(map[string]*Track),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// Add creates a track for ref in the default state.
func (m *Mixer) Add(ref string) (*Track, error) {
	if _, ok := m.index[ref]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTrack, ref)
	}
	if ref == "" || (m.assets != nil && !m.assets.Exists(ref)) {
		return nil, fmt.Errorf("%w: %s", ErrAssetMissing, ref)
	}

	player, err := m.backend.NewPlayer()
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	if err := player.Load(ref); err != nil {
		player.Close()
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}

	t := NewTrack(ref, player, m.sched, m.rng, m.trackChanged)
	m.tracks = append(m.tracks, t)
	m.index[ref] = t
	logger.Info("track added", logger.String("ref", ref))
	m.bus.Publish(event.Event{Kind: event.TrackAdded, Ref: ref, Data: statusOf(t)})
	return t, nil
}

// Get returns the live track for ref.
func (m *Mixer) Get(ref string) (*Track, bool) {
	t, ok := m.index[ref]
	return t, ok
}

// Remove stops and drops the track for ref.
func (m *Mixer) Remove(ref string) error {
	t, ok := m.index[ref]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, ref)
	}
	t.Close()
	delete(m.index, ref)
	for i, tr := range m.tracks {
		if tr == t {
			m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
			break
		}
	}
	logger.Info("track removed", logger.String("ref", ref))
	m.bus.Publish(event.Event{Kind: event.TrackRemoved, Ref: ref})
	return nil
}

// Clear removes every track and returns how many there were.
func (m *Mixer) Clear() int {
	n := len(m.tracks)
	for _, t := range m.tracks {
		t.Close()
	}
	m.tracks = nil
	m.index = make(map[string]*Track)
	if n > 0 {
		logger.Info("mixer cleared", logger.Int("tracks", n))
	}
	m.bus.Publish(event.Event{Kind: event.MixerCleared, Data: n})
	return n
}

// PlayAll starts every track that is not playing and returns the number
// started.
func (m *Mixer) PlayAll() int {
	started := 0
	for _, t := range m.tracks {
		if t.Start() {
			started++
		}
	}
	return started
}

// Len returns the number of live tracks.
func (m *Mixer) Len() int { return len(m.tracks) }

// Tracks returns the live tracks in display order.
func (m *Mixer) Tracks() []*Track {
	out := make([]*Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}

// States returns the ordered snapshot used for saving.
func (m *Mixer) States() []model.TrackState {
	out := make([]model.TrackState, 0, len(m.tracks))
	for _, t := range m.tracks {
		out = append(out, t.State())
	}
	return out
}

// Statuses is States plus the playing flags.
func (m *Mixer) Statuses() []Status {
	out := make([]Status, 0, len(m.tracks))
	for _, t := range m.tracks {
		out = append(out, statusOf(t))
	}
	return out
}

// Restore replaces the mix with the tracks of states. Entries whose sound is
// missing, duplicated or unloadable are skipped with a warning.
func (m *Mixer) Restore(states []model.TrackState) RestoreReport {
	m.Clear()
	var report RestoreReport
	for i, s := range states {
		t, err := m.Add(s.SoundFile)
		if err != nil {
			report.Skipped++
			logger.Warn("skipping session track",
				logger.Int("index", i),
				logger.String("ref", s.SoundFile),
				logger.ErrorField(err))
			continue
		}
		t.SetState(s)
		report.Loaded++
	}
	logger.Info("session restored",
		logger.Int("loaded", report.Loaded),
		logger.Int("skipped", report.Skipped))
	return report
}

// Shutdown stops every track without removing it.
func (m *Mixer) Shutdown() {
	for _, t := range m.tracks {
		t.Stop()
	}
}

func (m *Mixer) trackChanged(t *Track) {
	if _, ok := m.index[t.ref]; !ok {
		return
	}
	m.bus.Publish(event.Event{Kind: event.TrackChanged, Ref: t.ref, Data: statusOf(t)})
}

func statusOf(t *Track) Status {
	return Status{TrackState: t.State(), Playing: t.playing}
}
