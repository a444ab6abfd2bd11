package catalog

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"whisperli/core/event"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCatalog_Scan(t *testing.T) {
	root := t.TempDir()
	sounds := filepath.Join(root, "sounds")
	user := filepath.Join(root, "user_sounds")

	writeFile(t, filepath.Join(sounds, "Nature", "rain.mp3"), "r")
	writeFile(t, filepath.Join(sounds, "Nature", "birds.OGG"), "b")
	writeFile(t, filepath.Join(sounds, "Nature", "notes.txt"), "n")
	writeFile(t, filepath.Join(sounds, "Urban", "cafe.wav"), "c")
	writeFile(t, filepath.Join(sounds, "Empty", "readme.md"), "x")
	writeFile(t, filepath.Join(sounds, "loose.mp3"), "l")

	c := New(sounds, user, nil)

	if got, want := c.Categories(), []string{"Nature", "Urban"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Categories = %v, want %v", got, want)
	}
	want := []string{
		filepath.Join(sounds, "Nature", "birds.OGG"),
		filepath.Join(sounds, "Nature", "rain.mp3"),
	}
	if got := c.Sounds("Nature"); !reflect.DeepEqual(got, want) {
		t.Fatalf("Sounds(Nature) = %v, want %v", got, want)
	}
	if c.Sounds("Missing") != nil {
		t.Fatalf("unknown category should have no sounds")
	}
	if _, err := os.Stat(user); err != nil {
		t.Fatalf("user sounds dir not created: %v", err)
	}

	if !c.Exists(filepath.Join(sounds, "Urban", "cafe.wav")) {
		t.Fatalf("existing sound reported missing")
	}
	for _, ref := range []string{
		filepath.Join(sounds, "Nature", "notes.txt"),
		filepath.Join(sounds, "Nature", "gone.mp3"),
		filepath.Join(sounds, "Nature"),
		"",
	} {
		if c.Exists(ref) {
			t.Fatalf("Exists(%q) = true", ref)
		}
	}
}

func TestCatalog_ImportRenamesConflicts(t *testing.T) {
	root := t.TempDir()
	user := filepath.Join(root, "user")
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "rain.mp3"), "new")
	writeFile(t, filepath.Join(src, "readme.txt"), "skip")
	writeFile(t, filepath.Join(user, "rain.mp3"), "old")
	writeFile(t, filepath.Join(user, "rain_02.mp3"), "taken")

	bus := event.NewBus()
	sub := bus.Subscribe(8, event.SoundsUpdated)
	defer sub.Close()
	c := New(filepath.Join(root, "sounds"), user, bus)
	<-sub.C

	n, paths := c.Import([]string{
		filepath.Join(src, "rain.mp3"),
		filepath.Join(src, "readme.txt"),
		filepath.Join(src, "missing.wav"),
		filepath.Join(src, "rain.mp3"),
		filepath.Join(src, "rain.mp3"),
	})
	if n != 3 {
		t.Fatalf("imported %d, want 3", n)
	}
	want := []string{
		filepath.Join(user, "rain_01.mp3"),
		filepath.Join(user, "rain_03.mp3"),
		filepath.Join(user, "rain_04.mp3"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}

	data, err := os.ReadFile(filepath.Join(user, "rain.mp3"))
	if err != nil || string(data) != "old" {
		t.Fatalf("original file overwritten: %q %v", data, err)
	}
	data, err = os.ReadFile(want[0])
	if err != nil || string(data) != "new" {
		t.Fatalf("copied content %q %v", data, err)
	}

	if e := <-sub.C; e.Kind != event.SoundsUpdated {
		t.Fatalf("unexpected event %+v", e)
	}
	if got := len(c.Sounds(UserCategory)); got != 5 {
		t.Fatalf("expected 5 user sounds after import, got %d", got)
	}
}

func TestName(t *testing.T) {
	if got := Name("/a/b/Heavy Rain.mp3"); got != "Heavy Rain" {
		t.Fatalf("Name = %q", got)
	}
}

func TestWatcher_RefreshesOnCreate(t *testing.T) {
	root := t.TempDir()
	sounds := filepath.Join(root, "sounds")
	writeFile(t, filepath.Join(sounds, "Nature", "rain.mp3"), "r")

	bus := event.NewBus()
	c := New(sounds, filepath.Join(root, "user"), bus)
	sub := bus.Subscribe(8, event.SoundsUpdated)
	defer sub.Close()

	w, err := NewWatcher(c, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, filepath.Join(sounds, "Nature", "wind.wav"), "w")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-sub.C:
			if len(c.Sounds("Nature")) == 2 {
				return
			}
		case <-deadline:
			t.Fatalf("catalog not refreshed, sounds: %v", c.Sounds("Nature"))
		}
	}
}
