// Package playback defines the audio output contract tracks drive, plus the
// beep based implementation and a silent one for headless hosts.
package playback

import "errors"

// ErrUnavailable means the backend (or the player) has already been torn
// down. Callers treat it as a normal shutdown condition.
var ErrUnavailable = errors.New("playback: backend unavailable")

// LoopInfinite repeats the sound until stopped.
const LoopInfinite = -1

// Player plays one sound.
type Player interface {
	Load(ref string) error
	Play() error
	Pause() error
	Stop() error
	// SetVolume takes a linear gain in [0, 1].
	SetVolume(v float64) error
	// SetLoopCount sets how many times the sound plays; LoopInfinite loops
	// until stopped.
	SetLoopCount(n int) error
	// OnFinished registers fn to be called, from an arbitrary goroutine,
	// when a finite playback reaches its end.
	OnFinished(fn func())
	Close() error
}

// Backend creates players that share one audio output.
type Backend interface {
	NewPlayer() (Player, error)
	Close() error
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
