package playback

import (
	"errors"
	"testing"
	"time"
)

func TestSilentBackend_ClosedPlayersUnavailable(t *testing.T) {
	b := NewSilentBackend(0)
	p, err := b.NewPlayer()
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := p.Load("rain.mp3"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	b.Close()
	if err := p.SetVolume(0.3); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := b.NewPlayer(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from closed backend, got %v", err)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{3, 1},
	}
	for _, tc := range tests {
		if got := clamp01(tc.in); got != tc.want {
			t.Fatalf("clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSilentPlayer_FiniteFinishes(t *testing.T) {
	b := NewSilentBackend(20 * time.Millisecond)
	p, err := b.NewPlayer()
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	done := make(chan struct{}, 1)
	p.OnFinished(func() { done <- struct{}{} })
	p.Load("rain.mp3")
	p.SetLoopCount(2)

	start := time.Now()
	p.Play()
	select {
	case <-done:
		if d := time.Since(start); d < 40*time.Millisecond {
			t.Fatalf("two passes finished after %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("finite playback never finished")
	}
}

func TestSilentPlayer_NoFinishWhenLoopingOrPaused(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p Player)
	}{
		{"infinite", func(p Player) {
			p.SetLoopCount(LoopInfinite)
			p.Play()
		}},
		{"paused", func(p Player) {
			p.Play()
			p.Pause()
		}},
		{"stopped", func(p Player) {
			p.Play()
			p.Stop()
		}},
	}
	for _, tc := range tests {
		b := NewSilentBackend(10 * time.Millisecond)
		p, err := b.NewPlayer()
		if err != nil {
			t.Fatalf("NewPlayer: %v", err)
		}
		done := make(chan struct{}, 1)
		p.OnFinished(func() { done <- struct{}{} })
		p.Load("wind.ogg")
		tc.setup(p)
		select {
		case <-done:
			t.Fatalf("%s: finish reported", tc.name)
		case <-time.After(60 * time.Millisecond):
		}
		p.Close()
	}
}

func TestSilentPlayer_ZeroLengthNeverFinishes(t *testing.T) {
	b := NewSilentBackend(0)
	p, _ := b.NewPlayer()
	done := make(chan struct{}, 1)
	p.OnFinished(func() { done <- struct{}{} })
	p.Load("fire.wav")
	p.Play()
	select {
	case <-done:
		t.Fatalf("zero length playback finished")
	case <-time.After(30 * time.Millisecond):
	}
}
