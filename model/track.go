package model

import "time"

// SpeedTier selects the volume automation tick interval.
type SpeedTier int

const (
	SpeedSlow SpeedTier = iota
	SpeedMedium
	SpeedFast
)

// Interval returns the tick period of the tier. Unknown tiers behave as
// medium.
func (s SpeedTier) Interval() time.Duration {
	switch s {
	case SpeedSlow:
		return 10 * time.Second
	case SpeedFast:
		return 2 * time.Second
	default:
		return 5 * time.Second
	}
}

func (s SpeedTier) Valid() bool {
	return s >= SpeedSlow && s <= SpeedFast
}

func (s SpeedTier) String() string {
	switch s {
	case SpeedSlow:
		return "slow"
	case SpeedMedium:
		return "medium"
	case SpeedFast:
		return "fast"
	}
	return "unknown"
}

// ParseSpeedTier accepts "slow", "medium", "fast" or their numeric codes.
func ParseSpeedTier(s string) (SpeedTier, bool) {
	switch s {
	case "slow", "0":
		return SpeedSlow, true
	case "medium", "1":
		return SpeedMedium, true
	case "fast", "2":
		return SpeedFast, true
	}
	return SpeedMedium, false
}

// IntervalMode selects how playback automation computes its next delay.
type IntervalMode int

const (
	IntervalFixed IntervalMode = iota
	IntervalRandom
)

func (m IntervalMode) Valid() bool {
	return m == IntervalFixed || m == IntervalRandom
}

func (m IntervalMode) String() string {
	switch m {
	case IntervalFixed:
		return "fixed"
	case IntervalRandom:
		return "random"
	}
	return "unknown"
}

func ParseIntervalMode(s string) (IntervalMode, bool) {
	switch s {
	case "fixed", "0":
		return IntervalFixed, true
	case "random", "1":
		return IntervalRandom, true
	}
	return IntervalFixed, false
}

// Direction of the volume oscillation.
type Direction int

const (
	Decreasing Direction = -1
	Increasing Direction = 1
)

func (d Direction) String() string {
	if d == Decreasing {
		return "decreasing"
	}
	return "increasing"
}

// Defaults applied to new tracks and to snapshot fields missing on decode.
const (
	DefaultVolume       = 50
	DefaultLoop         = true
	DefaultSpeed        = SpeedMedium
	DefaultIntervalMode = IntervalFixed
	DefaultInterval     = 20
)

// TrackState is the persisted snapshot of one mixer track.
type TrackState struct {
	SoundFile    string       `json:"sound_file" yaml:"sound_file"`
	Volume       int          `json:"volume" yaml:"volume"`
	Loop         bool         `json:"loop" yaml:"loop"`
	VolumeAuto   bool         `json:"volume_auto" yaml:"volume_auto"`
	PlaybackAuto bool         `json:"playback_auto" yaml:"playback_auto"`
	Speed        SpeedTier    `json:"speed" yaml:"speed"`
	IntervalType IntervalMode `json:"interval_type" yaml:"interval_type"`
	Interval     int          `json:"interval" yaml:"interval"`
}

// DefaultTrackState is the state of a freshly added track.
func DefaultTrackState(soundFile string) TrackState {
	return TrackState{
		SoundFile:    soundFile,
		Volume:       DefaultVolume,
		Loop:         DefaultLoop,
		Speed:        DefaultSpeed,
		IntervalType: DefaultIntervalMode,
		Interval:     DefaultInterval,
	}
}
