package mixer

import (
	"time"

	"whisperli/core/scheduler"
	"whisperli/model"
)

// Volume automation band and step, in percent.
const (
	AutoVolumeLow  = 20
	AutoVolumeHigh = 80
	AutoVolumeStep = 5
)

// Playback automation base interval bounds, in seconds.
const (
	IntervalMin = 1
	IntervalMax = 120
)

// Rand is the randomness source for random playback intervals. *rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
}

// VolumeAutomation oscillates a track's volume between AutoVolumeLow and
// AutoVolumeHigh in steps of AutoVolumeStep.
type VolumeAutomation struct {
	Enabled   bool
	Direction model.Direction
	Speed     model.SpeedTier
	// Saved is the volume restored when automation is turned off.
	Saved int

	task *scheduler.Task
}

// Step advances one tick from volume and returns the new volume and
// direction. Reaching a bound clamps to it and flips the direction.
func (a VolumeAutomation) Step(volume int) (int, model.Direction) {
	next := volume + int(a.Direction)*AutoVolumeStep
	switch {
	case next >= AutoVolumeHigh:
		return AutoVolumeHigh, model.Decreasing
	case next <= AutoVolumeLow:
		return AutoVolumeLow, model.Increasing
	}
	return next, a.Direction
}

// PlaybackAutomation replays a non-looping track after a fixed or random
// delay.
type PlaybackAutomation struct {
	Enabled  bool
	Mode     model.IntervalMode
	Interval int

	task *scheduler.Task
}

// NextInterval computes the delay before the next automated replay. Random
// mode draws uniformly from [max(1, base/2), base*2] seconds.
func NextInterval(mode model.IntervalMode, base int, rng Rand) time.Duration {
	if mode != model.IntervalRandom || rng == nil {
		return time.Duration(base) * time.Second
	}
	lo := max(1, base/2)
	hi := base * 2
	if hi < lo {
		hi = lo
	}
	return time.Duration(lo+rng.Intn(hi-lo+1)) * time.Second
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
