package mixer

import (
	"testing"
	"time"

	"whisperli/core/playback"
	"whisperli/model"
)

func TestTrack_Defaults(t *testing.T) {
	f := newFixture()
	tr, p := f.track("rain.mp3")

	want := model.DefaultTrackState("rain.mp3")
	if got := tr.State(); got != want {
		t.Fatalf("default state mismatch\n got %+v\nwant %+v", got, want)
	}
	if p.loops != playback.LoopInfinite {
		t.Fatalf("expected infinite loop count, got %d", p.loops)
	}
	if p.volume != 0.5 {
		t.Fatalf("expected backend volume 0.5, got %v", p.volume)
	}
	if tr.VolumeAutomation().Direction != model.Increasing {
		t.Fatalf("initial direction should be increasing")
	}
}

func TestTrack_StateRoundTrip(t *testing.T) {
	cases := []model.TrackState{
		model.DefaultTrackState("a.mp3"),
		{SoundFile: "a.mp3", Volume: 0, Loop: false, Speed: model.SpeedSlow, IntervalType: model.IntervalRandom, Interval: 1},
		{SoundFile: "a.mp3", Volume: 100, Loop: true, Speed: model.SpeedFast, Interval: 120},
		{SoundFile: "a.mp3", Volume: 35, VolumeAuto: true, Loop: true, Speed: model.SpeedFast, Interval: 20},
		{SoundFile: "a.mp3", Volume: 80, PlaybackAuto: true, Speed: model.SpeedMedium, IntervalType: model.IntervalRandom, Interval: 45},
		{SoundFile: "a.mp3", Volume: 20, VolumeAuto: true, PlaybackAuto: true, Speed: model.SpeedSlow, Interval: 7},
	}
	for _, want := range cases {
		f := newFixture()
		src, _ := f.track("a.mp3")
		src.SetState(want)
		got := src.State()
		if got != want {
			t.Fatalf("SetState/State mismatch\n got %+v\nwant %+v", got, want)
		}

		dst, _ := f.track("a.mp3")
		dst.SetState(got)
		if again := dst.State(); again != got {
			t.Fatalf("round trip mismatch\n got %+v\nwant %+v", again, got)
		}
		// applying the same state twice changes nothing
		dst.SetState(got)
		if again := dst.State(); again != got {
			t.Fatalf("SetState is not idempotent\n got %+v\nwant %+v", again, got)
		}
	}
}

func TestTrack_SetStateNormalizes(t *testing.T) {
	f := newFixture()
	tr, _ := f.track("a.mp3")
	tr.SetState(model.TrackState{Volume: 250, Loop: true, Speed: 9, IntervalType: 5, Interval: 999})
	got := tr.State()
	if got.Volume != 100 || got.Speed != model.SpeedMedium || got.IntervalType != model.IntervalFixed || got.Interval != IntervalMax {
		t.Fatalf("state not normalized: %+v", got)
	}
	if got.SoundFile != "a.mp3" {
		t.Fatalf("SetState must not change the reference, got %q", got.SoundFile)
	}
}

func TestTrack_SetStateNotifiesOnce(t *testing.T) {
	f := newFixture()
	p := &fakePlayer{}
	calls := 0
	tr := NewTrack("a.mp3", p, f.sched, nil, func(*Track) { calls++ })
	tr.SetState(model.TrackState{Volume: 30, VolumeAuto: true, PlaybackAuto: true, Speed: model.SpeedFast, Interval: 10})
	if calls != 1 {
		t.Fatalf("expected 1 change notification, got %d", calls)
	}
}

func TestTrack_SetVolume(t *testing.T) {
	f := newFixture()
	tr, p := f.track("a.mp3")

	tests := []struct {
		in, want int
	}{
		{-10, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{140, 100},
	}
	for _, tc := range tests {
		tr.SetVolume(tc.in)
		if tr.Volume() != tc.want {
			t.Fatalf("SetVolume(%d): got %d, want %d", tc.in, tr.Volume(), tc.want)
		}
		if tr.VolumeAutomation().Saved != tc.want {
			t.Fatalf("SetVolume(%d): saved volume %d, want %d", tc.in, tr.VolumeAutomation().Saved, tc.want)
		}
		if p.volume != float64(tc.want)/100 {
			t.Fatalf("SetVolume(%d): backend got %v", tc.in, p.volume)
		}
	}
}

func TestVolumeAutomation_SixFastTicks(t *testing.T) {
	f := newFixture()
	tr, _ := f.track("a.mp3")
	tr.SetVolume(50)
	tr.SetSpeedTier(model.SpeedFast)
	tr.SetVolumeAutomation(true)

	want := []int{55, 60, 65, 70, 75, 80}
	for i, w := range want {
		f.clock.Advance(2 * time.Second)
		if tr.Volume() != w {
			t.Fatalf("tick %d: volume %d, want %d", i+1, tr.Volume(), w)
		}
	}
	if tr.VolumeAutomation().Direction != model.Decreasing {
		t.Fatalf("direction should flip at the upper bound")
	}
	f.clock.Advance(2 * time.Second)
	if tr.Volume() != 75 {
		t.Fatalf("tick 7: volume %d, want 75", tr.Volume())
	}
}

func TestVolumeAutomation_StaysInBand(t *testing.T) {
	for _, start := range []int{0, 17, 20, 50, 78, 80, 100} {
		f := newFixture()
		tr, _ := f.track("a.mp3")
		tr.SetVolume(start)
		tr.SetSpeedTier(model.SpeedFast)
		tr.SetVolumeAutomation(true)

		prev := tr.Volume()
		prevDir := tr.VolumeAutomation().Direction
		for i := 0; i < 100; i++ {
			if v := tr.Volume(); v < AutoVolumeLow || v > AutoVolumeHigh {
				t.Fatalf("start %d tick %d: volume %d out of band", start, i, v)
			}
			f.clock.Advance(2 * time.Second)
			v, dir := tr.Volume(), tr.VolumeAutomation().Direction
			if dir != prevDir && v != AutoVolumeLow && v != AutoVolumeHigh {
				t.Fatalf("start %d: direction flipped at %d", start, v)
			}
			if d := v - prev; d != AutoVolumeStep && d != -AutoVolumeStep && !(v == AutoVolumeHigh || v == AutoVolumeLow) {
				t.Fatalf("start %d: step %d -> %d", start, prev, v)
			}
			prev, prevDir = v, dir
		}
	}
}

func TestVolumeAutomation_DisableRestoresSaved(t *testing.T) {
	f := newFixture()
	tr, _ := f.track("a.mp3")
	tr.SetVolume(10)
	tr.SetVolumeAutomation(true)
	if tr.Volume() != AutoVolumeLow {
		t.Fatalf("enabling should clamp into the band, got %d", tr.Volume())
	}
	f.clock.Advance(15 * time.Second)

	// manual change while automated stays in band and keeps the saved volume
	tr.SetVolume(95)
	if tr.Volume() != AutoVolumeHigh {
		t.Fatalf("expected %d, got %d", AutoVolumeHigh, tr.Volume())
	}

	tr.SetVolumeAutomation(false)
	if tr.Volume() != 10 {
		t.Fatalf("disabling should restore 10, got %d", tr.Volume())
	}
	f.clock.Advance(time.Minute)
	if tr.Volume() != 10 {
		t.Fatalf("tick after disable changed volume to %d", tr.Volume())
	}
}

func TestVolumeAutomation_ReenableKeepsDirection(t *testing.T) {
	f := newFixture()
	tr, _ := f.track("a.mp3")
	tr.SetSpeedTier(model.SpeedFast)
	tr.SetVolume(70)
	tr.SetVolumeAutomation(true)
	for i := 0; i < 2; i++ {
		f.clock.Advance(2 * time.Second)
	}
	if tr.Volume() != AutoVolumeHigh || tr.VolumeAutomation().Direction != model.Decreasing {
		t.Fatalf("expected %d decreasing, got %d %v", AutoVolumeHigh, tr.Volume(), tr.VolumeAutomation().Direction)
	}

	tr.SetVolumeAutomation(false)
	tr.SetVolumeAutomation(true)
	if tr.VolumeAutomation().Direction != model.Decreasing {
		t.Fatalf("re-enabling reset the direction to %v", tr.VolumeAutomation().Direction)
	}
	f.clock.Advance(2 * time.Second)
	if tr.Volume() != 65 {
		t.Fatalf("expected 65 after one decreasing tick, got %d", tr.Volume())
	}
}

func TestVolumeAutomation_SpeedChangeReschedules(t *testing.T) {
	f := newFixture()
	tr, _ := f.track("a.mp3")
	tr.SetSpeedTier(model.SpeedSlow)
	tr.SetVolumeAutomation(true)

	f.clock.Advance(9 * time.Second)
	tr.SetSpeedTier(model.SpeedFast)
	// the pending slow tick was replaced, not left to fire at 10s
	f.clock.Advance(time.Second)
	if tr.Volume() != 50 {
		t.Fatalf("slow tick fired after speed change, volume %d", tr.Volume())
	}
	f.clock.Advance(time.Second)
	if tr.Volume() != 55 {
		t.Fatalf("expected fast tick 2s after change, volume %d", tr.Volume())
	}
}

func TestTrack_LoopAndPlaybackAutomationExclusive(t *testing.T) {
	f := newFixture()
	tr, p := f.track("a.mp3")

	tr.SetPlaybackAutomation(true)
	if tr.Loop() {
		t.Fatalf("enabling playback automation must disable loop")
	}
	if p.loops != 1 {
		t.Fatalf("backend loop count should be 1, got %d", p.loops)
	}

	tr.SetLoop(true)
	if tr.PlaybackAutomation().Enabled {
		t.Fatalf("enabling loop must disable playback automation")
	}
	if p.loops != playback.LoopInfinite {
		t.Fatalf("backend loop count should be infinite, got %d", p.loops)
	}
	f.clock.Advance(10 * time.Minute)
	if p.plays != 0 {
		t.Fatalf("cancelled automation started playback %d times", p.plays)
	}

	ops := []func(){
		func() { tr.SetLoop(true) },
		func() { tr.SetPlaybackAutomation(true) },
		func() { tr.SetLoop(false) },
		func() { tr.SetPlaybackAutomation(false) },
		func() { tr.SetPlaybackAutomation(true) },
		func() { tr.SetState(model.TrackState{Loop: true, PlaybackAuto: true, Interval: 5}) },
		func() { tr.SetLoop(true) },
	}
	for i, op := range ops {
		op()
		if tr.Loop() && tr.PlaybackAutomation().Enabled {
			t.Fatalf("op %d: loop and playback automation both enabled", i)
		}
	}
}

func TestPlaybackAutomation_Fires(t *testing.T) {
	f := newFixture()
	tr, p := f.track("a.mp3")
	tr.SetInterval(30)
	tr.SetPlaybackAutomation(true)

	f.clock.Advance(29 * time.Second)
	if tr.Playing() {
		t.Fatalf("fired early")
	}
	f.clock.Advance(time.Second)
	if !tr.Playing() || p.plays != 1 {
		t.Fatalf("expected playback to start, playing=%v plays=%d", tr.Playing(), p.plays)
	}

	// playback ends, the next firing starts it again
	p.finished()
	if tr.Playing() {
		t.Fatalf("finish notification should clear playing")
	}
	f.clock.Advance(30 * time.Second)
	if p.plays != 2 {
		t.Fatalf("expected a second start, got %d", p.plays)
	}

	tr.SetPlaybackAutomation(false)
	p.finished()
	f.clock.Advance(time.Hour)
	if p.plays != 2 {
		t.Fatalf("disabled automation started playback")
	}
}

func TestNextInterval(t *testing.T) {
	if got := NextInterval(model.IntervalFixed, 20, &seqRand{values: []int{7}}); got != 20*time.Second {
		t.Fatalf("fixed: got %v", got)
	}

	tests := []struct {
		base, lo, hi int
	}{
		{1, 1, 2},
		{2, 1, 4},
		{3, 1, 6},
		{20, 10, 40},
		{120, 60, 240},
	}
	for _, tc := range tests {
		rng := &seqRand{}
		for v := 0; v < 500; v++ {
			rng.values = []int{v}
			rng.i = 0
			got := NextInterval(model.IntervalRandom, tc.base, rng)
			if got < time.Duration(tc.lo)*time.Second || got > time.Duration(tc.hi)*time.Second {
				t.Fatalf("base %d: %v outside [%d, %d]s", tc.base, got, tc.lo, tc.hi)
			}
		}
		rng.values = []int{0}
		rng.i = 0
		if got := NextInterval(model.IntervalRandom, tc.base, rng); got != time.Duration(tc.lo)*time.Second {
			t.Fatalf("base %d: lowest draw %v", tc.base, got)
		}
		rng.values = []int{tc.hi - tc.lo}
		rng.i = 0
		if got := NextInterval(model.IntervalRandom, tc.base, rng); got != time.Duration(tc.hi)*time.Second {
			t.Fatalf("base %d: highest draw %v", tc.base, got)
		}
	}
}

func TestTrack_StopIdempotent(t *testing.T) {
	f := newFixture()
	tr, p := f.track("a.mp3")
	tr.SetVolumeAutomation(true)
	tr.SetPlaybackAutomation(true)
	tr.Start()

	tr.Stop()
	tr.Stop()
	if tr.Playing() {
		t.Fatalf("still playing after stop")
	}
	if got := f.clock.Pending(); got != 0 {
		t.Fatalf("expected no pending timers after stop, got %d", got)
	}
	vol := tr.Volume()
	f.clock.Advance(time.Hour)
	if tr.Volume() != vol || p.plays != 1 {
		t.Fatalf("automation ran after stop")
	}
}

func TestTrack_UnavailableBackendSwallowed(t *testing.T) {
	f := newFixture()
	tr, p := f.track("a.mp3")
	p.gone = true

	tr.SetVolume(70)
	tr.TogglePlayback()
	tr.Stop()
	tr.Stop()
	tr.Close()
	if tr.Volume() != 70 {
		t.Fatalf("state should still update, volume %d", tr.Volume())
	}
}

func TestTrack_TogglePlayback(t *testing.T) {
	f := newFixture()
	tr, p := f.track("a.mp3")
	tr.TogglePlayback()
	if !tr.Playing() || !p.playing {
		t.Fatalf("toggle should start playback")
	}
	tr.TogglePlayback()
	if tr.Playing() || p.playing {
		t.Fatalf("toggle should pause playback")
	}
}

func TestTrack_FinishedWhileLoopingIgnored(t *testing.T) {
	f := newFixture()
	tr, p := f.track("a.mp3")
	tr.Start()
	p.finished()
	if !tr.Playing() {
		t.Fatalf("looping track must keep playing")
	}
	tr.SetLoop(false)
	p.finished()
	if tr.Playing() {
		t.Fatalf("non-looping track should stop playing when finished")
	}
}
