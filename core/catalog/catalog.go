// Package catalog lists the sounds available to the mixer.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"whisperli/core/event"
	"whisperli/logger"
)

// UserCategory lists the sounds imported into the user sounds directory.
const UserCategory = "User Sounds"

var supportedExts = map[string]bool{".mp3": true, ".wav": true, ".ogg": true}

// Provider is what the mixer and the hosts need from a catalog.
type Provider interface {
	Categories() []string
	Sounds(category string) []string
	Exists(ref string) bool
}

// Catalog scans a sounds directory with one subdirectory per category plus
// a flat user sounds directory. It is safe for concurrent use.
type Catalog struct {
	soundsDir string
	userDir   string
	bus       *event.Bus

	mu         sync.RWMutex
	categories map[string][]string
}

// New creates a catalog and performs the first scan. bus may be nil.
func New(soundsDir, userDir string, bus *event.Bus) *Catalog {
	c := &Catalog{
		soundsDir:  soundsDir,
		userDir:    userDir,
		bus:        bus,
		categories: make(map[string][]string),
	}
	c.Refresh()
	return c
}

func (c *Catalog) SoundsDir() string { return c.soundsDir }
func (c *Catalog) UserDir() string { return c.userDir }

// IsSupported reports whether path has a playable extension.
func IsSupported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// Name is the display name of a sound: its file stem.
func Name(ref string) string {
	base := filepath.Base(ref)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Categories returns the non-empty category names, sorted.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sounds returns the sorted sound paths of category, or nil.
func (c *Catalog) Sounds(category string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sounds := c.categories[category]
	if sounds == nil {
		return nil
	}
	out := make([]string, len(sounds))
	copy(out, sounds)
	return out
}

// All returns a copy of every category and its sounds.
func (c *Catalog) All() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]string, len(c.categories))
	for k, v := range c.categories {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Exists reports whether ref is a regular file with a supported extension.
// It checks the filesystem, not the last scan.
func (c *Catalog) Exists(ref string) bool {
	if !IsSupported(ref) {
		return false
	}
	info, err := os.Stat(ref)
	return err == nil && info.Mode().IsRegular()
}

// Refresh rescans both directories and publishes SoundsUpdated.
func (c *Catalog) Refresh() {
	categories := make(map[string][]string)

	entries, err := os.ReadDir(c.soundsDir)
	if err != nil {
		logger.Warn("sounds directory unavailable",
			logger.String("dir", c.soundsDir),
			logger.ErrorField(err))
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if sounds := scanDir(filepath.Join(c.soundsDir, e.Name())); len(sounds) > 0 {
			categories[e.Name()] = sounds
		}
	}

	if c.userDir != "" {
		if err := os.MkdirAll(c.userDir, 0o755); err != nil {
			logger.Warn("cannot create user sounds directory",
				logger.String("dir", c.userDir),
				logger.ErrorField(err))
		}
		if sounds := scanDir(c.userDir); len(sounds) > 0 {
			categories[UserCategory] = sounds
		}
	}

	c.mu.Lock()
	c.categories = categories
	c.mu.Unlock()

	logger.Debug("sound catalog refreshed", logger.Int("categories", len(categories)))
	c.bus.Publish(event.Event{Kind: event.SoundsUpdated, Data: len(categories)})
}

func scanDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var sounds []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsSupported(e.Name()) {
			continue
		}
		sounds = append(sounds, filepath.Join(dir, e.Name()))
	}
	sort.Strings(sounds)
	return sounds
}

// Import copies the playable files among paths into the user sounds
// directory. A name already taken becomes stem_01.ext, stem_02.ext and so
// on, using the first free number. It returns how many files were copied
// and their new paths, then refreshes the catalog.
func (c *Catalog) Import(paths []string) (int, []string) {
	if err := os.MkdirAll(c.userDir, 0o755); err != nil {
		logger.Error("cannot create user sounds directory",
			logger.String("dir", c.userDir),
			logger.ErrorField(err))
		return 0, nil
	}

	var imported []string
	for _, src := range paths {
		if !c.Exists(src) {
			logger.Warn("skipping unsupported sound", logger.String("path", src))
			continue
		}
		dst, err := freeName(c.userDir, filepath.Base(src))
		if err != nil {
			logger.Warn("no free name for import", logger.String("path", src), logger.ErrorField(err))
			continue
		}
		if err := copyFile(src, dst); err != nil {
			logger.Warn("import failed", logger.String("path", src), logger.ErrorField(err))
			continue
		}
		imported = append(imported, dst)
	}
	if len(imported) > 0 {
		logger.Info("sounds imported", logger.Int("count", len(imported)))
		c.Refresh()
	}
	return len(imported), imported
}

const maxRenameAttempts = 999

func freeName(dir, name string) (string, error) {
	dst := filepath.Join(dir, name)
	if _, err := os.Lstat(dst); errors.Is(err, fs.ErrNotExist) {
		return dst, nil
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxRenameAttempts; i++ {
		dst = filepath.Join(dir, fmt.Sprintf("%s_%02d%s", stem, i, ext))
		if _, err := os.Lstat(dst); errors.Is(err, fs.ErrNotExist) {
			return dst, nil
		}
	}
	return "", fmt.Errorf("%s: all %d alternative names taken", name, maxRenameAttempts)
}

// copyFile copies contents, permissions and modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
