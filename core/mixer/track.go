package mixer

import (
	"errors"

	"whisperli/core/playback"
	"whisperli/core/scheduler"
	"whisperli/logger"
	"whisperli/model"
)

// Track is one sound in the mix with its own volume, loop flag and two
// automations. A Track is owned by the scheduler loop: every method must be
// called on the loop goroutine.
type Track struct {
	ref     string
	player  playback.Player
	sched   *scheduler.Scheduler
	rng     Rand
	notify  func(*Track)
	volume  int
	loop    bool
	playing bool

	vol  VolumeAutomation
	auto PlaybackAutomation

	// batch > 0 defers change notifications; dirty records that one is owed.
	batch int
	dirty bool
}

// NewTrack wraps a loaded player. The track starts in the default state and
// pushes volume and loop count to the player. notify, if set, is called on
// the loop after every observable change.
func NewTrack(ref string, player playback.Player, sched *scheduler.Scheduler, rng Rand, notify func(*Track)) *Track {
	t := &Track{
		ref:     ref,
		player:  player,
		sched:   sched,
		rng:     rng,
		notify:  notify,
		volume:  model.DefaultVolume,
		loop:    model.DefaultLoop,
		vol: VolumeAutomation{
			Direction: model.Increasing,
			Speed:     model.DefaultSpeed,
			Saved:     model.DefaultVolume,
		},
		auto: PlaybackAutomation{
			Mode:     model.DefaultIntervalMode,
			Interval: model.DefaultInterval,
		},
	}
	t.vol.task = sched.NewTask(t.volumeTick)
	t.auto.task = sched.NewTask(t.playbackFire)

	player.OnFinished(func() {
		sched.Loop().Post(t.finished)
	})
	t.applyVolume(t.volume)
	t.applyLoopCount()
	return t
}

func (t *Track) Ref() string { return t.ref }
func (t *Track) Volume() int { return t.volume }
func (t *Track) Loop() bool { return t.loop }
func (t *Track) Playing() bool { return t.playing }

// VolumeAutomation returns a copy of the volume automation state.
func (t *Track) VolumeAutomation() VolumeAutomation { return t.vol }

// PlaybackAutomation returns a copy of the playback automation state.
func (t *Track) PlaybackAutomation() PlaybackAutomation { return t.auto }

// SetVolume clamps v to [0, 100]. While volume automation runs, v is further
// clamped into the automation band and the saved volume is left alone.
func (t *Track) SetVolume(v int) {
	v = clamp(v, 0, 100)
	if t.vol.Enabled {
		v = clamp(v, AutoVolumeLow, AutoVolumeHigh)
	} else {
		t.vol.Saved = v
	}
	t.applyVolume(v)
	t.changed()
}

// SetLoop turns looping on or off. Looping and playback automation are
// mutually exclusive: enabling the loop switches automation off.
func (t *Track) SetLoop(enabled bool) {
	if enabled && t.auto.Enabled {
		t.auto.Enabled = false
		t.auto.task.Cancel()
	}
	t.loop = enabled
	t.applyLoopCount()
	t.changed()
}

// TogglePlayback flips the playing flag and plays or pauses the player.
func (t *Track) TogglePlayback() {
	if t.playing {
		t.Pause()
		return
	}
	t.Start()
}

// Start plays the track if it is not already playing and reports whether it
// did.
func (t *Track) Start() bool {
	if t.playing {
		return false
	}
	t.playing = true
	t.call("play", t.player.Play())
	t.changed()
	return true
}

// Pause pauses a playing track and reports whether it did.
func (t *Track) Pause() bool {
	if !t.playing {
		return false
	}
	t.playing = false
	t.call("pause", t.player.Pause())
	t.changed()
	return true
}

// SetVolumeAutomation turns the volume oscillation on or off. Turning it on
// saves the current volume and pulls it into the band, resuming in the
// direction the oscillation last had; turning it off restores the saved
// volume.
func (t *Track) SetVolumeAutomation(enabled bool) {
	if enabled == t.vol.Enabled {
		return
	}
	if enabled {
		t.vol.Enabled = true
		t.vol.Saved = t.volume
		t.applyVolume(clamp(t.volume, AutoVolumeLow, AutoVolumeHigh))
		t.vol.task.Arm(t.vol.Speed.Interval())
	} else {
		t.vol.Enabled = false
		t.vol.task.Cancel()
		t.applyVolume(t.vol.Saved)
	}
	t.changed()
}

// SetSpeedTier changes the tick interval. A running automation restarts its
// timer at the new interval right away.
func (t *Track) SetSpeedTier(s model.SpeedTier) {
	if !s.Valid() {
		s = model.DefaultSpeed
	}
	t.vol.Speed = s
	if t.vol.Enabled {
		t.vol.task.Reschedule(s.Interval())
	}
	t.changed()
}

// SetPlaybackAutomation turns automated replay on or off. Turning it on
// switches the loop off first.
func (t *Track) SetPlaybackAutomation(enabled bool) {
	if enabled == t.auto.Enabled {
		return
	}
	if enabled {
		if t.loop {
			t.loop = false
			t.applyLoopCount()
		}
		t.auto.Enabled = true
		t.auto.task.Arm(NextInterval(t.auto.Mode, t.auto.Interval, t.rng))
	} else {
		t.auto.Enabled = false
		t.auto.task.Cancel()
	}
	t.changed()
}

// SetIntervalMode takes effect from the next arming.
func (t *Track) SetIntervalMode(m model.IntervalMode) {
	if !m.Valid() {
		m = model.DefaultIntervalMode
	}
	t.auto.Mode = m
	t.changed()
}

// SetInterval sets the base replay interval in seconds, clamped to
// [IntervalMin, IntervalMax]. It takes effect from the next arming.
func (t *Track) SetInterval(seconds int) {
	t.auto.Interval = clamp(seconds, IntervalMin, IntervalMax)
	t.changed()
}

// State returns the persistable snapshot of the track.
func (t *Track) State() model.TrackState {
	return model.TrackState{
		SoundFile:    t.ref,
		Volume:       t.volume,
		Loop:         t.loop,
		VolumeAuto:   t.vol.Enabled,
		PlaybackAuto: t.auto.Enabled,
		Speed:        t.vol.Speed,
		IntervalType: t.auto.Mode,
		Interval:     t.auto.Interval,
	}
}

// SetState applies a snapshot. Out of range values are normalized. The
// sound reference of s is ignored. Observers see a single change.
func (t *Track) SetState(s model.TrackState) {
	t.batch++
	defer t.endBatch()

	t.SetSpeedTier(s.Speed)
	t.SetIntervalMode(s.IntervalType)
	t.SetInterval(s.Interval)

	if !s.VolumeAuto {
		t.SetVolumeAutomation(false)
	}
	t.SetVolume(s.Volume)
	if s.VolumeAuto {
		t.SetVolumeAutomation(true)
	}

	if s.PlaybackAuto {
		t.SetPlaybackAutomation(true)
	} else {
		t.SetPlaybackAutomation(false)
		t.SetLoop(s.Loop)
	}
	t.applyLoopCount()
}

// Stop halts playback and cancels both automation timers. The automation
// settings themselves are kept. Stop is safe to call repeatedly and after
// the playback backend has gone away.
func (t *Track) Stop() {
	t.vol.task.Cancel()
	t.auto.task.Cancel()
	t.playing = false
	t.call("stop", t.player.Stop())
}

// Close stops the track and releases its player.
func (t *Track) Close() {
	t.Stop()
	t.call("close", t.player.Close())
}

func (t *Track) volumeTick() {
	if !t.vol.Enabled {
		return
	}
	next, dir := t.vol.Step(t.volume)
	t.vol.Direction = dir
	t.applyVolume(next)
	logger.Debug("volume automation tick",
		logger.String("ref", t.ref),
		logger.Int("volume", next),
		logger.String("direction", dir.String()))
	t.vol.task.Arm(t.vol.Speed.Interval())
	t.changed()
}

func (t *Track) playbackFire() {
	if !t.auto.Enabled {
		return
	}
	if !t.playing {
		t.Start()
	}
	d := NextInterval(t.auto.Mode, t.auto.Interval, t.rng)
	logger.Debug("playback automation fired",
		logger.String("ref", t.ref),
		logger.Duration("next", d))
	t.auto.task.Arm(d)
}

// finished runs on the loop when the player reaches the end of a finite
// playback.
func (t *Track) finished() {
	if !t.playing || t.loop {
		return
	}
	t.playing = false
	t.changed()
}

func (t *Track) applyVolume(v int) {
	t.volume = v
	t.call("set volume", t.player.SetVolume(float64(v)/100))
}

func (t *Track) applyLoopCount() {
	n := 1
	if t.loop {
		n = playback.LoopInfinite
	}
	t.call("set loop count", t.player.SetLoopCount(n))
}

// call logs a failed player operation. ErrUnavailable is expected during
// shutdown and ignored.
func (t *Track) call(op string, err error) {
	if err == nil || errors.Is(err, playback.ErrUnavailable) {
		return
	}
	logger.Warn("player operation failed",
		logger.String("ref", t.ref),
		logger.String("op", op),
		logger.ErrorField(err))
}

func (t *Track) changed() {
	if t.batch > 0 {
		t.dirty = true
		return
	}
	if t.notify != nil {
		t.notify(t)
	}
}

func (t *Track) endBatch() {
	t.batch--
	if t.batch == 0 && t.dirty {
		t.dirty = false
		t.changed()
	}
}
