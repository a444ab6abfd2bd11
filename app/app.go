// Package app assembles the mixer engine from configuration and exposes the
// operations hosts (HTTP server, shell) share.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"whisperli/config"
	"whisperli/core/catalog"
	"whisperli/core/event"
	"whisperli/core/mixer"
	"whisperli/core/playback"
	"whisperli/core/scheduler"
	"whisperli/core/session"
	"whisperli/logger"
	"whisperli/model"
)

// App owns one scheduler loop and everything that runs on it.
type App struct {
	Config   *config.Config
	Bus      *event.Bus
	Loop     *scheduler.Loop
	Sched    *scheduler.Scheduler
	Backend  playback.Backend
	Catalog  *catalog.Catalog
	Mixer    *mixer.Mixer
	Sessions *session.Manager

	closers []func() error
	running atomic.Bool
	done    chan struct{}
}

// Options let tests replace the pieces that touch hardware or the clock.
type Options struct {
	Backend playback.Backend
	Clock   scheduler.Clock
	Loop    *scheduler.Loop
	Rand    mixer.Rand
}

// New builds an App from cfg. The loop does not run until Run is called.
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Bus: event.NewBus(), done: make(chan struct{})}

	a.Loop = opts.Loop
	if a.Loop == nil {
		a.Loop = scheduler.NewLoop(0)
	}
	a.Sched = scheduler.New(a.Loop, opts.Clock)

	a.Backend = opts.Backend
	if a.Backend == nil {
		a.Backend = NewBackend(cfg)
	}
	a.closers = append(a.closers, a.Backend.Close)

	store, closeStore, err := OpenStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	a.Sessions = session.NewManager(store, a.Bus)

	a.Catalog = catalog.New(cfg.SoundsDir, cfg.UserSoundsDir, a.Bus)

	mopts := []mixer.Option{mixer.WithBus(a.Bus)}
	if opts.Rand != nil {
		mopts = append(mopts, mixer.WithRand(opts.Rand))
	}
	a.Mixer = mixer.New(a.Sched, a.Backend, a.Catalog, mopts...)

	logger.Info("mixer engine ready",
		logger.String("sounds_dir", cfg.SoundsDir),
		logger.String("session_store", cfg.SessionStore),
		logger.Int("categories", len(a.Catalog.Categories())))
	return a, nil
}

// NewBackend returns the configured playback backend. When the audio device
// cannot be opened the silent backend is used instead.
func NewBackend(cfg *config.Config) playback.Backend {
	if cfg.AudioBackend == config.BackendSilent {
		return playback.NewSilentBackend(cfg.SilentLength)
	}
	b, err := playback.NewBeepBackend(cfg.AudioSampleRate)
	if err != nil {
		logger.Warn("audio device unavailable, using silent playback", logger.ErrorField(err))
		return playback.NewSilentBackend(cfg.SilentLength)
	}
	return b
}

// Run executes the loop and, if enabled, the catalog watcher until ctx is
// cancelled or Close is called. The loop is closed and every track is
// stopped before Run returns, so later Do calls fail with ErrClosed.
func (a *App) Run(ctx context.Context) {
	if !a.running.CompareAndSwap(false, true) {
		return
	}
	defer close(a.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if a.Config.WatchSounds {
		w, err := catalog.NewWatcher(a.Catalog, 0)
		if err != nil {
			logger.Warn("sound watcher disabled", logger.ErrorField(err))
		} else {
			go w.Run(ctx)
		}
	}
	a.Loop.Run(ctx)
	// release callers still waiting in Do when ctx ended the loop
	a.Loop.Close()
	// the loop goroutine has returned, so the mixer is ours
	a.Mixer.Shutdown()
}

// Do runs f on the loop and waits for it.
func (a *App) Do(ctx context.Context, f func(m *mixer.Mixer)) error {
	return a.Loop.Do(ctx, func() { f(a.Mixer) })
}

// SaveSession snapshots the mix and stores it under name.
func (a *App) SaveSession(ctx context.Context, name string, meta model.Metadata) (model.Session, error) {
	var states []model.TrackState
	if err := a.Do(ctx, func(m *mixer.Mixer) { states = m.States() }); err != nil {
		return model.Session{}, err
	}
	return a.Sessions.Save(ctx, name, states, meta)
}

// LoadSession reads the session called name and replaces the mix with it.
// The mix is left untouched when reading or decoding fails.
func (a *App) LoadSession(ctx context.Context, name string) (mixer.RestoreReport, error) {
	s, err := a.Sessions.Load(ctx, name)
	if err != nil {
		return mixer.RestoreReport{}, err
	}
	return a.Restore(ctx, s)
}

// Restore replaces the mix with the tracks of s.
func (a *App) Restore(ctx context.Context, s model.Session) (mixer.RestoreReport, error) {
	var report mixer.RestoreReport
	err := a.Do(ctx, func(m *mixer.Mixer) { report = m.Restore(s.Tracks) })
	return report, err
}

// Close stops the loop, waits for Run to stop the tracks and releases the
// backend and the store.
func (a *App) Close() error {
	if a.Loop != nil {
		a.Loop.Close()
	}
	if a.running.Load() {
		select {
		case <-a.done:
		case <-time.After(5 * time.Second):
			logger.Warn("mixer loop did not stop in time")
		}
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close app: %w", errors.Join(errs...))
	}
	return nil
}
